package codec

import (
	"errors"
	"fmt"

	"github.com/ValentinKolb/rKV/rpc/common"
)

// --------------------------------------------------------------------------
// Wire Tags
// --------------------------------------------------------------------------

// Tag is the first byte of every encoded reply
type Tag byte

const (
	TagOK         Tag = 1  // no body
	TagInteger    Tag = 2  // 8 byte signed integer
	TagBulkString Tag = 3  // 4 byte length + bytes, length -1 = nil
	TagArray      Tag = 4  // 4 byte elements size + 4 byte count + (4 byte length + bytes)*
	TagVArray     Tag = 5  // 4 byte elements size + 4 byte count + (varint length + bytes)*
	TagTypedArray Tag = 6  // 4 byte elements size + 4 byte count + (tagged reply)*
	TagZArray     Tag = 7  // 4 byte elements size + 4 byte count + (member + score text)*
	TagZArray1    Tag = 8  // 4 byte elements size + 4 byte count + (member)*
	TagMultiBulk  Tag = 9  // INTEGER cursor + one nested array reply
	TagError      Tag = 10 // 4 byte length + "<kind>: <message>"
)

func (t Tag) String() string {
	switch t {
	case TagOK:
		return "OK"
	case TagInteger:
		return "INTEGER"
	case TagBulkString:
		return "BULK_STRING"
	case TagArray:
		return "ARRAY"
	case TagVArray:
		return "VARRAY"
	case TagTypedArray:
		return "TYPED_ARRAY"
	case TagZArray:
		return "ZARRAY"
	case TagZArray1:
		return "ZARRAY1"
	case TagMultiBulk:
		return "MULTI_BULK"
	case TagError:
		return "ERROR"
	default:
		return fmt.Sprintf("Tag(%d)", byte(t))
	}
}

// --------------------------------------------------------------------------
// Reply Value
// --------------------------------------------------------------------------

// Kind identifies the variant held by a Reply
type Kind uint8

const (
	KindOK Kind = iota
	KindInteger
	KindDouble
	KindBulk
	KindArray
	KindVArray
	KindTypedArray
	KindZArray
	KindZArray1
	KindMultiBulk
	KindError
)

// Reply is the tagged value produced by every command. Which fields are used
// depends on Kind:
//
//	KindInteger                  Int
//	KindDouble                   Float (sent as BULK_STRING text)
//	KindBulk                     Bytes, Nil
//	KindArray, KindVArray        Elems (nil element = nil)
//	KindZArray1                  Elems (members)
//	KindZArray                   Elems (members), Scores
//	KindTypedArray               Items (scalar replies)
//	KindMultiBulk                Int (next cursor), Items[0] (page)
//	KindError                    Bytes (reply text), ErrKind
type Reply struct {
	Kind    Kind
	Int     int64
	Float   float64
	Bytes   []byte
	Nil     bool
	Elems   [][]byte
	Scores  []float64
	Items   []Reply
	ErrKind common.ErrorKind
}

// OK returns the OK reply
func OK() Reply { return Reply{Kind: KindOK} }

// Integer returns an INTEGER reply
func Integer(v int64) Reply { return Reply{Kind: KindInteger, Int: v} }

// Bool returns INTEGER 1 or 0
func Bool(v bool) Reply {
	if v {
		return Integer(1)
	}
	return Integer(0)
}

// Double returns a DOUBLE reply (encoded as bulk string text)
func Double(v float64) Reply { return Reply{Kind: KindDouble, Float: v} }

// Bulk returns a BULK_STRING reply; a nil slice is sent as an empty string
func Bulk(b []byte) Reply { return Reply{Kind: KindBulk, Bytes: b} }

// BulkString returns a BULK_STRING reply of s
func BulkString(s string) Reply { return Reply{Kind: KindBulk, Bytes: []byte(s)} }

// NilBulk returns the nil BULK_STRING reply
func NilBulk() Reply { return Reply{Kind: KindBulk, Nil: true} }

// BulkOrNil returns Bulk(b) if loaded, NilBulk otherwise
func BulkOrNil(b []byte, loaded bool) Reply {
	if !loaded {
		return NilBulk()
	}
	return Bulk(b)
}

// Array returns an ARRAY reply (fixed 4 byte element lengths)
func Array(elems [][]byte) Reply { return Reply{Kind: KindArray, Elems: elems} }

// VArray returns a VARRAY reply (varint element lengths)
func VArray(elems [][]byte) Reply { return Reply{Kind: KindVArray, Elems: elems} }

// TypedArray returns a TYPED_ARRAY reply of scalar replies
func TypedArray(items []Reply) Reply { return Reply{Kind: KindTypedArray, Items: items} }

// ZArray returns a ZARRAY reply of member/score pairs
func ZArray(members [][]byte, scores []float64) Reply {
	return Reply{Kind: KindZArray, Elems: members, Scores: scores}
}

// ZArray1 returns a ZARRAY1 reply of members only
func ZArray1(members [][]byte) Reply { return Reply{Kind: KindZArray1, Elems: members} }

// MultiBulk returns the SCAN envelope: next cursor and one page
func MultiBulk(cursor uint64, page Reply) Reply {
	return Reply{Kind: KindMultiBulk, Int: int64(cursor), Items: []Reply{page}}
}

// ErrorReply returns the ERROR reply of a protocol error
func ErrorReply(err *common.Error) Reply {
	return Reply{Kind: KindError, Bytes: []byte(err.Error()), ErrKind: err.Kind}
}

// ErrorFrom converts any error into an ERROR reply, translating storage errors
func ErrorFrom(err error) Reply {
	return ErrorReply(common.FromStoreError(err))
}

// Tag returns the wire tag of the reply
func (r Reply) Tag() Tag {
	switch r.Kind {
	case KindOK:
		return TagOK
	case KindInteger:
		return TagInteger
	case KindDouble, KindBulk:
		return TagBulkString
	case KindArray:
		return TagArray
	case KindVArray:
		return TagVArray
	case KindTypedArray:
		return TagTypedArray
	case KindZArray:
		return TagZArray
	case KindZArray1:
		return TagZArray1
	case KindMultiBulk:
		return TagMultiBulk
	default:
		return TagError
	}
}

// IsError reports whether the reply is an ERROR reply
func (r Reply) IsError() bool {
	return r.Kind == KindError
}

// Err returns the error carried by an ERROR reply, nil otherwise
func (r Reply) Err() error {
	if r.Kind != KindError {
		return nil
	}
	return errors.New(string(r.Bytes))
}

// Collapse rewrites a single-element VARRAY as a bare BULK_STRING and an
// empty VARRAY as the nil bulk string. Other replies are returned unchanged.
func (r Reply) Collapse() Reply {
	if r.Kind != KindVArray {
		return r
	}
	switch len(r.Elems) {
	case 0:
		return NilBulk()
	case 1:
		if r.Elems[0] == nil {
			return NilBulk()
		}
		return Bulk(r.Elems[0])
	default:
		return r
	}
}
