package store

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"time"
)

// --------------------------------------------------------------------------
// Write Preconditions and Expiry
// --------------------------------------------------------------------------

// Mutation is a precondition on key (or member) existence before a write
type Mutation uint8

const (
	MutationNone Mutation = iota // write unconditionally
	MutationNX                   // write only if it does not exist
	MutationXX                   // write only if it already exists
)

func (m Mutation) String() string {
	switch m {
	case MutationNX:
		return "NX"
	case MutationXX:
		return "XX"
	default:
		return "NONE"
	}
}

// Allows reports whether the precondition permits a write given prior existence
func (m Mutation) Allows(exists bool) bool {
	switch m {
	case MutationNX:
		return !exists
	case MutationXX:
		return exists
	default:
		return true
	}
}

// Expiry is an absolute expiry time in unix milliseconds.
// The two negative values are reserved sentinels; 0 is the epoch.
type Expiry int64

const (
	// NoExpiry removes any expiry from the key
	NoExpiry Expiry = -1
	// KeepTTL leaves the current expiry of the key unchanged
	KeepTTL Expiry = math.MinInt64
)

// ExpiryAt converts a point in time to an Expiry
func ExpiryAt(t time.Time) Expiry {
	return Expiry(t.UnixMilli())
}

// IsSentinel reports whether e is NoExpiry or KeepTTL
func (e Expiry) IsSentinel() bool {
	return e == NoExpiry || e == KeepTTL
}

// SetOptions configures a string write
type SetOptions struct {
	Mutation Mutation
	// Expiry is NoExpiry (clear), KeepTTL (keep) or an absolute time
	Expiry Expiry
	// Get requests the previous value in the result
	Get bool
}

// SetResult is the outcome of a string write
type SetResult struct {
	Written bool   // false if the precondition prevented the write
	Old     []byte // previous value (only if requested)
	HadOld  bool   // whether a previous value existed (only if requested)
}

// --------------------------------------------------------------------------
// Collection Element Types
// --------------------------------------------------------------------------

// FieldValue is one field of a hash
type FieldValue struct {
	Field []byte
	Value []byte
}

// ScoredMember is one member of a sorted set
type ScoredMember struct {
	Member []byte
	Score  float64
}

// OptionalScore is a score that may be missing
type OptionalScore struct {
	Score  float64
	Loaded bool
}

// ZAddOptions configures ZADD
type ZAddOptions struct {
	Mutation Mutation
	// CH counts changed scores in addition to added members
	CH bool
}

// Limit restricts a range result; Count < 0 means no limit
type Limit struct {
	Offset int64
	Count  int64
}

// NoLimit returns a Limit that does not restrict the result
func NoLimit() Limit {
	return Limit{Offset: 0, Count: -1}
}

// ByteRange is an inclusive byte range; negative offsets count from the end
type ByteRange struct {
	Start int64
	End   int64
}

// --------------------------------------------------------------------------
// Range Boundaries
// --------------------------------------------------------------------------

// Boundary is one end of a score or lex range
type Boundary[T any] struct {
	Value     T
	Inclusive bool
	// Unbounded marks -inf/+inf (score) or -/+ (lex); Positive gives the direction.
	Unbounded bool
	Positive  bool
}

// ScoreBoundary is a boundary of a score range
type ScoreBoundary = Boundary[float64]

// LexBoundary is a boundary of a lex range
type LexBoundary = Boundary[[]byte]

// ScoreRange is a range over sorted set scores
type ScoreRange struct {
	Min ScoreBoundary
	Max ScoreBoundary
}

// AboveMin reports whether score satisfies the lower boundary
func (r ScoreRange) AboveMin(score float64) bool {
	if r.Min.Unbounded {
		return !r.Min.Positive
	}
	if r.Min.Inclusive {
		return score >= r.Min.Value
	}
	return score > r.Min.Value
}

// BelowMax reports whether score satisfies the upper boundary
func (r ScoreRange) BelowMax(score float64) bool {
	if r.Max.Unbounded {
		return r.Max.Positive
	}
	if r.Max.Inclusive {
		return score <= r.Max.Value
	}
	return score < r.Max.Value
}

// Contains reports whether score lies within the range
func (r ScoreRange) Contains(score float64) bool {
	return r.AboveMin(score) && r.BelowMax(score)
}

// LexRange is a range over sorted set members
type LexRange struct {
	Min LexBoundary
	Max LexBoundary
}

// AboveMin reports whether member satisfies the lower boundary
func (r LexRange) AboveMin(member []byte) bool {
	if r.Min.Unbounded {
		return !r.Min.Positive
	}
	c := bytes.Compare(member, r.Min.Value)
	return c > 0 || (c == 0 && r.Min.Inclusive)
}

// BelowMax reports whether member satisfies the upper boundary
func (r LexRange) BelowMax(member []byte) bool {
	if r.Max.Unbounded {
		return r.Max.Positive
	}
	c := bytes.Compare(member, r.Max.Value)
	return c < 0 || (c == 0 && r.Max.Inclusive)
}

// Contains reports whether member lies within the range
func (r LexRange) Contains(member []byte) bool {
	return r.AboveMin(member) && r.BelowMax(member)
}

// --------------------------------------------------------------------------
// Scan Markers
// --------------------------------------------------------------------------

// ErrInvalidMarker is returned when a zset scan marker cannot be decoded
var ErrInvalidMarker = errors.New("invalid zset scan marker")

// AppendZMarker appends the resume marker of a sorted set element to dst:
// 8 bytes of IEEE 754 score bits followed by the member.
func AppendZMarker(dst []byte, score float64, member []byte) []byte {
	dst = binary.BigEndian.AppendUint64(dst, math.Float64bits(score))
	return append(dst, member...)
}

// ParseZMarker decodes a marker written by AppendZMarker.
// The returned member aliases b.
func ParseZMarker(b []byte) (float64, []byte, error) {
	if len(b) < 8 {
		return 0, nil, ErrInvalidMarker
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b[:8])), b[8:], nil
}
