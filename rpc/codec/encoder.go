package codec

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
)

const (
	tagSize       = 1
	intSize       = 8
	containerHead = 2 * lenSize // elements size + count
	nilLen        = -1
	// nilSpan is the 4 byte length marking a nil bulk string or array element
	nilSpan uint32 = math.MaxUint32
)

// ShortBufferError is returned by Encode when the destination cannot hold the
// reply. Nothing has been written; Required is the exact size needed.
type ShortBufferError struct {
	Required  int
	Available int
}

func (e *ShortBufferError) Error() string {
	return fmt.Sprintf("reply needs %d bytes, buffer has %d", e.Required, e.Available)
}

// --------------------------------------------------------------------------
// Size Computation
// --------------------------------------------------------------------------

// Size returns the exact number of bytes Encode writes for the reply
func (r Reply) Size() int {
	switch r.Kind {
	case KindOK:
		return tagSize
	case KindInteger:
		return tagSize + intSize
	case KindDouble:
		return tagSize + lenSize + doubleLen(r.Float)
	case KindBulk:
		if r.Nil {
			return tagSize + lenSize
		}
		return tagSize + lenSize + len(r.Bytes)
	case KindMultiBulk:
		return tagSize + tagSize + intSize + r.page().Size()
	case KindError:
		return tagSize + lenSize + len(r.Bytes)
	default:
		return tagSize + containerHead + r.elementsSize()
	}
}

// elementsSize returns the size of the element section of a container reply
func (r Reply) elementsSize() int {
	size := 0
	switch r.Kind {
	case KindArray, KindZArray1:
		for _, e := range r.Elems {
			size += lenSize + len(e)
		}
	case KindVArray:
		for _, e := range r.Elems {
			if e == nil {
				size += varintLen(nilLen)
				continue
			}
			size += varintLen(int64(len(e))) + len(e)
		}
	case KindZArray:
		for i, m := range r.Elems {
			size += lenSize + len(m) + lenSize + doubleLen(r.score(i))
		}
	case KindTypedArray:
		for _, item := range r.Items {
			size += item.Size()
		}
	}
	return size
}

// count returns the element count of a container reply
func (r Reply) count() int {
	if r.Kind == KindTypedArray {
		return len(r.Items)
	}
	return len(r.Elems)
}

// page returns the nested reply of a MULTI_BULK (an empty ARRAY if missing)
func (r Reply) page() Reply {
	if len(r.Items) == 0 {
		return Array(nil)
	}
	return r.Items[0]
}

// score returns score i of a ZARRAY, 0 if missing
func (r Reply) score(i int) float64 {
	if i < len(r.Scores) {
		return r.Scores[i]
	}
	return 0
}

// --------------------------------------------------------------------------
// Encoding
// --------------------------------------------------------------------------

// Encode writes the reply into dst and returns the number of bytes written.
// The required size is computed first: if dst is too small nothing is written
// and a *ShortBufferError carrying the exact required size is returned.
func (r Reply) Encode(dst []byte) (int, error) {
	size := r.Size()
	if size > len(dst) {
		return 0, &ShortBufferError{Required: size, Available: len(dst)}
	}
	n := r.put(dst[:size])
	if n != size {
		// put and Size disagree, this is a bug in the encoder
		panic(fmt.Sprintf("codec: encoded %d bytes, computed %d", n, size))
	}
	return n, nil
}

// AppendTo appends the encoded reply to dst
func (r Reply) AppendTo(dst []byte) []byte {
	size := r.Size()
	start := len(dst)
	if cap(dst)-start < size {
		grown := make([]byte, start, start+size)
		copy(grown, dst)
		dst = grown
	}
	dst = dst[:start+size]
	r.put(dst[start:])
	return dst
}

// Encoded returns the encoded reply in a new slice
func (r Reply) Encoded() []byte {
	return r.AppendTo(nil)
}

// put writes the reply into b, which must hold at least Size() bytes
func (r Reply) put(b []byte) int {
	b[0] = byte(r.Tag())
	pos := tagSize

	switch r.Kind {
	case KindOK:

	case KindInteger:
		binary.BigEndian.PutUint64(b[pos:], uint64(r.Int))
		pos += intSize

	case KindDouble:
		pos = putDouble(b, pos, r.Float)

	case KindBulk:
		if r.Nil {
			binary.BigEndian.PutUint32(b[pos:], nilSpan)
			pos += lenSize
		} else {
			pos = putSpan(b, pos, r.Bytes)
		}

	case KindError:
		pos = putSpan(b, pos, r.Bytes)

	case KindMultiBulk:
		b[pos] = byte(TagInteger)
		pos += tagSize
		binary.BigEndian.PutUint64(b[pos:], uint64(r.Int))
		pos += intSize
		pos += r.page().put(b[pos:])

	default:
		binary.BigEndian.PutUint32(b[pos:], uint32(r.elementsSize()))
		pos += lenSize
		binary.BigEndian.PutUint32(b[pos:], uint32(r.count()))
		pos += lenSize
		pos = r.putElements(b, pos)
	}

	return pos
}

// putElements writes the element section of a container reply
func (r Reply) putElements(b []byte, pos int) int {
	switch r.Kind {
	case KindArray, KindZArray1:
		for _, e := range r.Elems {
			if e == nil && r.Kind == KindArray {
				binary.BigEndian.PutUint32(b[pos:], nilSpan)
				pos += lenSize
				continue
			}
			pos = putSpan(b, pos, e)
		}
	case KindVArray:
		for _, e := range r.Elems {
			if e == nil {
				pos += binary.PutVarint(b[pos:], nilLen)
				continue
			}
			pos += binary.PutVarint(b[pos:], int64(len(e)))
			pos += copy(b[pos:], e)
		}
	case KindZArray:
		for i, m := range r.Elems {
			pos = putSpan(b, pos, m)
			pos = putDouble(b, pos, r.score(i))
		}
	case KindTypedArray:
		for _, item := range r.Items {
			pos += item.put(b[pos:])
		}
	}
	return pos
}

// putSpan writes a 4 byte length followed by the bytes
func putSpan(b []byte, pos int, data []byte) int {
	binary.BigEndian.PutUint32(b[pos:], uint32(len(data)))
	pos += lenSize
	return pos + copy(b[pos:], data)
}

// putDouble writes the decimal text of v as a length-prefixed span
func putDouble(b []byte, pos int, v float64) int {
	var tmp [32]byte
	return putSpan(b, pos, AppendDouble(tmp[:0], v))
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// AppendDouble appends the shortest decimal text that round-trips v.
// Infinities are written as the largest finite double of the same sign.
func AppendDouble(dst []byte, v float64) []byte {
	switch {
	case math.IsInf(v, 1):
		v = math.MaxFloat64
	case math.IsInf(v, -1):
		v = -math.MaxFloat64
	}
	return strconv.AppendFloat(dst, v, 'g', -1, 64)
}

// doubleLen returns the length of AppendDouble's text for v
func doubleLen(v float64) int {
	var tmp [32]byte
	return len(AppendDouble(tmp[:0], v))
}

// varintLen returns the size of binary.PutVarint's encoding of x
func varintLen(x int64) int {
	ux := uint64(x) << 1
	if x < 0 {
		ux = ^ux
	}
	n := 1
	for ux >= 0x80 {
		ux >>= 7
		n++
	}
	return n
}
