package db

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplMaple Implementation = "maple"
)

// Feature represents database features as bit flags
type Feature uint64

const (
	FeatureCompute        Feature = 1 << iota // Support for atomic Compute operations
	FeatureExpire                             // Support for per entry expiration times
	FeatureRange                              // Support for Range iteration
	FeatureClear                              // Support for Clear operations
	FeatureGarbageCollect                     // Support for background removal of expired entries
)

func (f Feature) String() string {
	switch f {
	case FeatureCompute:
		return "Compute"
	case FeatureExpire:
		return "Expire"
	case FeatureRange:
		return "Range"
	case FeatureClear:
		return "Clear"
	case FeatureGarbageCollect:
		return "GarbageCollect"
	default:
		return "Unknown"
	}
}

type DatabaseInfo struct {
	SizeBytes         int            `json:"size_bytes"`
	Keys              int            `json:"keys"`
	Expires           int            `json:"expires"`
	DbType            Implementation `json:"db_type"`
	SupportedFeatures []Feature      `json:"supported_features"`
	Metadata          interface{}    `json:"metadata"`
}

// --------------------------------------------------------------------------
// Entries
// --------------------------------------------------------------------------

// NoExpiry marks an entry without expiration time
const NoExpiry int64 = 0

// Value is anything that can be stored in a KVDB. The database never looks
// into values, SizeBytes is only used for statistics.
type Value interface {
	SizeBytes() int
}

// Entry is a value together with its absolute expiration time in unix
// milliseconds (NoExpiry = never expires)
type Entry struct {
	Value    Value
	ExpireAt int64
}

// ExpiredAt returns whether the entry is expired at the given time (unix millis)
func (e Entry) ExpiredAt(now int64) bool {
	return e.ExpireAt != NoExpiry && now >= e.ExpireAt
}

// Op is returned by compute functions and tells the database what to do with the entry
type Op uint8

const (
	OpKeep   Op = iota // leave the stored entry unchanged (a missing entry stays missing)
	OpStore            // store the returned entry
	OpDelete           // delete the entry if it exists
)

// ComputeFunc receives the current entry (loaded=false if the key is missing or
// expired) and returns the new entry and the operation to apply.
type ComputeFunc func(old Entry, loaded bool) (Entry, Op)

// --------------------------------------------------------------------------
// Database Interface
// --------------------------------------------------------------------------

// KVDB defines an interface for the keyspace of one logical database.
// It maps string keys to typed values with an optional expiration time.
// Expired entries are never visible: they are treated as missing by every
// method and removed lazily on access or in the background.
// Implementations can vary in their feature support, which can be queried with SupportsFeature.
type KVDB interface {

	// --------------------------------------------------------------------------
	// Atomic Operations
	// --------------------------------------------------------------------------

	// Compute atomically reads and updates the entry for key. fn runs while the
	// entry is locked, so values that are mutable in place (collections) may
	// only be read or modified inside fn.
	Compute(key string, fn ComputeFunc)

	// Delete removes the entry for key and returns whether a live entry was removed.
	Delete(key string) bool

	// Has returns whether a live entry exists for key.
	Has(key string) bool

	// --------------------------------------------------------------------------
	// Iteration and Maintenance
	// --------------------------------------------------------------------------

	// Range calls fn for every live entry until fn returns false. The value
	// must not be modified by fn and Range does not provide a consistent snapshot.
	Range(fn func(key string, e Entry) bool)

	// Len returns the number of stored entries (including expired entries not yet collected)
	Len() int

	// Clear removes all entries
	Clear()

	// Now returns the current time of the database clock in unix milliseconds
	Now() int64

	// --------------------------------------------------------------------------
	// Metadata
	// --------------------------------------------------------------------------

	// GetInfo returns statistics about the database
	GetInfo() DatabaseInfo

	// SupportsFeature checks if this implementation supports a specific feature
	SupportsFeature(feature Feature) bool

	// Close stops all background work of the database
	Close() error
}
