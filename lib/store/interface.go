package store

import (
	"fmt"
	"io"

	"github.com/ValentinKolb/rKV/lib/db"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// DBFactory is a function type that creates a new db used by the store.
// This is used to abstract the creation of the db from the store implementation.
type DBFactory func() db.KVDB

// Matcher filters keys, fields and members of Keys and the scans.
// *regexp.Regexp implements it.
type Matcher interface {
	Match(b []byte) bool
	MatchString(s string) bool
}

// IStore is the storage engine contract of the protocol layer.
// Operations are keyed by the raw key bytes and return primitives or Go
// collections. Errors are always of type *Error (nil on success).
// Returned byte slices are copies and safe to retain.
type IStore interface {
	IKeys
	IStrings
	IHashes
	ILists
	ISets
	IZSets
	IBitmaps

	// Snapshot writes a point in time copy of all keys to w.
	Snapshot(w io.Writer) (err error)
	// Restore replaces the content of the store with a snapshot read from r.
	Restore(r io.Reader) (err error)
	// GetDBInfo returns metadata about the database underlying the store.
	// It is not guaranteed that all fields are filled in or that the information is up-to-date!
	GetDBInfo() (info db.DatabaseInfo, err error)
	// Close stops background work of the store.
	Close() (err error)
}

// IKeys holds operations valid for keys of any type
type IKeys interface {
	// Del removes the keys and returns how many existed.
	Del(keys ...[]byte) (removed int64, err error)
	// Exists returns how many of the keys exist (duplicates are counted twice).
	Exists(keys ...[]byte) (count int64, err error)
	// Expire sets the absolute expiry of an existing key. NoExpiry removes it.
	// An expiry in the past deletes the key. Returns false if the key does not exist.
	Expire(key []byte, at Expiry) (ok bool, err error)
	// Persist removes the expiry of a key. Returns false if the key had none.
	Persist(key []byte) (ok bool, err error)
	// PTTL returns the remaining time to live in milliseconds,
	// -2 if the key does not exist and -1 if it has no expiry.
	PTTL(key []byte) (ms int64, err error)
	// Type returns the type name of the key ("none" if it does not exist).
	Type(key []byte) (typ string, err error)
	// Rename moves the value (and its expiry) of src to dst, overwriting dst.
	Rename(src, dst []byte) (err error)
	// Keys returns all keys matching the pattern (nil = all keys) in byte order.
	Keys(match Matcher) (keys [][]byte, err error)
	// DBSize returns the number of keys.
	DBSize() (n int64, err error)
	// FlushAll removes all keys.
	FlushAll() (err error)
}

// IStrings holds operations on string values
type IStrings interface {
	// Get returns the value of a string key.
	Get(key []byte) (value []byte, loaded bool, err error)
	// Set writes a string value honouring the mutation precondition and expiry.
	Set(key, value []byte, opts SetOptions) (res SetResult, err error)
	// GetEx returns the value and updates its expiry (KeepTTL leaves it unchanged).
	GetEx(key []byte, at Expiry) (value []byte, loaded bool, err error)
	// GetDel returns the value and deletes the key.
	GetDel(key []byte) (value []byte, loaded bool, err error)
	// Append appends to the value (creating it) and returns the new length.
	Append(key, value []byte) (length int64, err error)
	// StrLen returns the length of the value (0 if missing).
	StrLen(key []byte) (length int64, err error)
	// IncrBy adds delta to the integer value (missing = 0).
	IncrBy(key []byte, delta int64) (value int64, err error)
	// IncrByFloat adds delta to the float value (missing = 0).
	IncrByFloat(key []byte, delta float64) (value float64, err error)
	// GetRange returns the substring between the inclusive offsets (negative = from the end).
	GetRange(key []byte, start, end int64) (value []byte, err error)
	// SetRange overwrites the value at offset, zero padding if needed, and returns the new length.
	SetRange(key []byte, offset int64, value []byte) (length int64, err error)
	// MGet returns the values of all keys, nil for missing or non-string keys.
	MGet(keys ...[]byte) (values [][]byte, err error)
	// MSet writes alternating key/value pairs.
	MSet(pairs ...[]byte) (err error)
}

// IHashes holds operations on hash values
type IHashes interface {
	// HSet writes alternating field/value pairs and returns the number of new fields.
	HSet(key []byte, pairs ...[]byte) (added int64, err error)
	// HSetNX writes the field only if it does not exist.
	HSetNX(key, field, value []byte) (ok bool, err error)
	// HGet returns the value of a field.
	HGet(key, field []byte) (value []byte, loaded bool, err error)
	// HMGet returns the values of the fields, nil for missing ones.
	HMGet(key []byte, fields ...[]byte) (values [][]byte, err error)
	// HDel removes the fields and returns how many existed.
	HDel(key []byte, fields ...[]byte) (removed int64, err error)
	// HExists reports whether the field exists.
	HExists(key, field []byte) (ok bool, err error)
	// HLen returns the number of fields.
	HLen(key []byte) (n int64, err error)
	// HStrLen returns the length of the field's value.
	HStrLen(key, field []byte) (length int64, err error)
	// HGetAll returns all fields with their values ordered by field.
	HGetAll(key []byte) (entries []FieldValue, err error)
	// HIncrBy adds delta to the integer value of the field.
	HIncrBy(key, field []byte, delta int64) (value int64, err error)
	// HIncrByFloat adds delta to the float value of the field.
	HIncrByFloat(key, field []byte, delta float64) (value float64, err error)
	// HRandField returns random fields: count > 0 distinct fields (at most all of them),
	// count < 0 exactly -count fields with possible repetitions. A count below
	// -MaxSampleCount, or a sample copying more than MaxSampleBytes, fails with
	// ErrSampleSize.
	HRandField(key []byte, count int64) (entries []FieldValue, err error)
	// HScan returns up to count fields ordered by field, strictly after the field `after`
	// (nil = from the start), filtered by match (nil = no filter).
	HScan(key, after []byte, count int, match Matcher) (entries []FieldValue, err error)
}

// ILists holds operations on list values
type ILists interface {
	// LPush prepends the values (one by one) and returns the new length.
	LPush(key []byte, values ...[]byte) (length int64, err error)
	// RPush appends the values and returns the new length.
	RPush(key []byte, values ...[]byte) (length int64, err error)
	// LPop removes and returns up to count values from the head.
	LPop(key []byte, count int64) (values [][]byte, err error)
	// RPop removes and returns up to count values from the tail.
	RPop(key []byte, count int64) (values [][]byte, err error)
	// LLen returns the length of the list.
	LLen(key []byte) (length int64, err error)
	// LRange returns the values between the inclusive indexes.
	LRange(key []byte, start, stop int64) (values [][]byte, err error)
	// LIndex returns the value at index.
	LIndex(key []byte, index int64) (value []byte, loaded bool, err error)
	// LSet overwrites the value at index.
	LSet(key []byte, index int64, value []byte) (err error)
	// LRem removes count occurrences of value (0 = all, negative = from the tail).
	LRem(key []byte, count int64, value []byte) (removed int64, err error)
	// LTrim keeps only the values between the inclusive indexes.
	LTrim(key []byte, start, stop int64) (err error)
	// LInsert inserts value before or after pivot and returns the new length,
	// -1 if the pivot was not found and 0 if the key does not exist.
	LInsert(key []byte, before bool, pivot, value []byte) (length int64, err error)
}

// ISets holds operations on set values
type ISets interface {
	// SAdd adds members and returns the number of new members.
	SAdd(key []byte, members ...[]byte) (added int64, err error)
	// SRem removes members and returns how many existed.
	SRem(key []byte, members ...[]byte) (removed int64, err error)
	// SCard returns the number of members.
	SCard(key []byte) (n int64, err error)
	// SIsMember reports whether member is part of the set.
	SIsMember(key, member []byte) (ok bool, err error)
	// SMIsMember reports membership for every member.
	SMIsMember(key []byte, members ...[]byte) (flags []bool, err error)
	// SMembers returns all members in byte order.
	SMembers(key []byte) (members [][]byte, err error)
	// SPop removes and returns up to count random members.
	SPop(key []byte, count int64) (members [][]byte, err error)
	// SRandMember returns random members with HRandField's count semantics.
	SRandMember(key []byte, count int64) (members [][]byte, err error)
	// SScan returns up to count members strictly after `after` in byte order.
	SScan(key, after []byte, count int, match Matcher) (members [][]byte, err error)
}

// IZSets holds operations on sorted set values
type IZSets interface {
	// ZAdd adds or updates members and returns the number of added
	// (or, with opts.CH, changed) members.
	ZAdd(key []byte, opts ZAddOptions, members ...ScoredMember) (n int64, err error)
	// ZAddIncr increments the score of a member honouring opts.Mutation.
	// ok is false if the precondition prevented the write.
	ZAddIncr(key []byte, opts ZAddOptions, delta float64, member []byte) (score float64, ok bool, err error)
	// ZIncrBy increments the score of a member (creating it).
	ZIncrBy(key []byte, delta float64, member []byte) (score float64, err error)
	// ZRem removes members and returns how many existed.
	ZRem(key []byte, members ...[]byte) (removed int64, err error)
	// ZCard returns the number of members.
	ZCard(key []byte) (n int64, err error)
	// ZScore returns the score of a member.
	ZScore(key, member []byte) (score float64, loaded bool, err error)
	// ZMScore returns the scores of the members.
	ZMScore(key []byte, members ...[]byte) (scores []OptionalScore, err error)
	// ZCount returns the number of members within the score range.
	ZCount(key []byte, r ScoreRange) (n int64, err error)
	// ZLexCount returns the number of members within the lex range.
	ZLexCount(key []byte, r LexRange) (n int64, err error)
	// ZRange returns the members between the inclusive ranks.
	ZRange(key []byte, start, stop int64, rev bool) (members []ScoredMember, err error)
	// ZRangeByScore returns the members within the score range.
	ZRangeByScore(key []byte, r ScoreRange, rev bool, limit Limit) (members []ScoredMember, err error)
	// ZRangeByLex returns the members within the lex range.
	ZRangeByLex(key []byte, r LexRange, rev bool, limit Limit) (members []ScoredMember, err error)
	// ZRemRangeByScore removes the members within the score range.
	ZRemRangeByScore(key []byte, r ScoreRange) (removed int64, err error)
	// ZRemRangeByLex removes the members within the lex range.
	ZRemRangeByLex(key []byte, r LexRange) (removed int64, err error)
	// ZRank returns the rank of a member.
	ZRank(key, member []byte, rev bool) (rank int64, loaded bool, err error)
	// ZScan returns up to count members ordered by (score, member) strictly after
	// the marker `after` (see AppendZMarker).
	ZScan(key, after []byte, count int, match Matcher) (members []ScoredMember, err error)
}

// IBitmaps holds operations on sparse bitmaps
type IBitmaps interface {
	// SetBit sets or clears the bit at offset and returns its previous value.
	SetBit(key []byte, offset uint64, value bool) (old bool, err error)
	// GetBit returns the bit at offset.
	GetBit(key []byte, offset uint64) (value bool, err error)
	// BitCount counts set bits, optionally restricted to an inclusive byte range.
	BitCount(key []byte, r *ByteRange) (n int64, err error)
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("StoreError (code %s): %s", e.Code, e.Msg)
}

// NewError creates a new store error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// Predefined errors shared by implementations
var (
	ErrWrongType   = NewError(RetCWrongType, "operation against a key holding the wrong kind of value")
	ErrNotInteger  = NewError(RetCKeyNotNumber, "value is not an integer or out of range")
	ErrNotFloat    = NewError(RetCNotFloat, "value is not a valid float")
	ErrNoSuchKey   = NewError(RetCKeyDoesNotExist, "no such key")
	ErrOutOfRange  = NewError(RetCOutOfRange, "index out of range")
	ErrOverflow    = NewError(RetCOutOfRange, "increment or decrement would overflow")
	ErrNaN         = NewError(RetCNotFloat, "increment would produce NaN or Infinity")
	ErrValueTooBig = NewError(RetCOutOfRange, "string exceeds maximum allowed size")
	ErrSampleSize  = NewError(RetCOutOfRange, "count is out of range")
)

// Limits of random samples with repetitions (HRandField and SRandMember with
// a negative count). MaxSampleBytes matches the largest frame a transport accepts.
const (
	MaxSampleCount = 1 << 20
	MaxSampleBytes = 512 << 20
)

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess              RetCode = iota // 0: Command executed successfully.
	RetCInternalError                       // 1: Command failed due to an internal error.
	RetCUnsupportedOperation                // 2: Operation is not supported by underlying database.
	RetCOperationFailed                     // 3: The mutation was refused without specific cause.
	RetCWrongType                           // 4: The key holds a value of another type.
	RetCKeyNotNumber                        // 5: The value is not an integer.
	RetCNotFloat                            // 6: The value is not a float.
	RetCKeyDoesNotExist                     // 7: The key does not exist.
	RetCOutOfRange                          // 8: An index or result is out of range.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCUnsupportedOperation:
		return "UnsupportedOperation"
	case RetCOperationFailed:
		return "OperationFailed"
	case RetCWrongType:
		return "WrongType"
	case RetCKeyNotNumber:
		return "KeyNotNumber"
	case RetCNotFloat:
		return "NotFloat"
	case RetCKeyDoesNotExist:
		return "KeyDoesNotExist"
	case RetCOutOfRange:
		return "OutOfRange"
	default:
		return "Unknown"
	}
}
