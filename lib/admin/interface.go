package admin

import (
	"time"

	"github.com/ValentinKolb/rKV/lib/store"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// Keyspace gives the admin access to the logical databases of the server
type Keyspace interface {
	// Range calls fn for every open database until fn returns false
	Range(fn func(db uint64, s store.IStore) bool)
	// Open returns the store of the database, creating it if needed.
	// An error is returned if db is outside the configured range.
	Open(db uint64) (store.IStore, error)
}

// ShutdownMode is the persistence behaviour of Shutdown
type ShutdownMode uint8

const (
	ShutdownDefault ShutdownMode = iota // save if a data directory is configured
	ShutdownSave                        // always save, fail without data directory
	ShutdownNoSave                      // never save
)

// Slot is one entry of the CLUSTER SLOTS reply
type Slot struct {
	Start  int64
	End    int64
	Host   string
	Port   int64
	NodeID string
}

// IAdmin is the server component behind the admin commands.
// All methods are safe for concurrent use.
type IAdmin interface {
	// Save writes a snapshot of every database synchronously
	Save() (err error)
	// BackgroundSave starts a snapshot in the background and returns a status
	// message. If a save is already running it fails, unless schedule is set,
	// in which case another save is run once the current one finished.
	BackgroundSave(schedule bool) (status string, err error)
	// LastSave returns the time of the last successful save (zero if none)
	LastSave() time.Time
	// Restore loads the snapshots found in the data directory
	Restore() (restored int, err error)
	// Shutdown persists the data according to mode and stops the server
	Shutdown(mode ShutdownMode) (err error)
	// FlushAll removes all keys of every database. With async set the keys are
	// removed in the background.
	FlushAll(async bool) (err error)
	// Info returns the INFO text of one section ("" = all sections)
	Info(section string) (info string, err error)
	// ClusterSlots returns the slot layout of the cluster
	ClusterSlots() (slots []Slot, err error)
	// Time returns the current server time
	Time() time.Time
}
