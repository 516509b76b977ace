package lstore

import (
	"bytes"
	"cmp"

	"github.com/ValentinKolb/rKV/lib/db"
	"github.com/ValentinKolb/rKV/lib/store"
	"github.com/google/btree"
)

// btreeDegree is the degree of all collection btrees
const btreeDegree = 16

// --------------------------------------------------------------------------
// Type Names
// --------------------------------------------------------------------------

const (
	TypeNone         = "none"
	TypeString       = "string"
	TypeHash         = "hash"
	TypeList         = "list"
	TypeSet          = "set"
	TypeZSet         = "zset"
	TypeSparseBitmap = "sparsebitmap"
)

// typeName returns the TYPE reply of a stored value
func typeName(v db.Value) string {
	switch v.(type) {
	case stringValue:
		return TypeString
	case *hashValue:
		return TypeHash
	case *listValue:
		return TypeList
	case *setValue:
		return TypeSet
	case *zsetValue:
		return TypeZSet
	case *bitmapValue:
		return TypeSparseBitmap
	default:
		return TypeNone
	}
}

// collection is a value that is removed from the keyspace once it is empty
type collection interface {
	db.Value
	Len() int
}

// typed converts a stored value to T. A nil value yields the zero T and no error.
func typed[T db.Value](v db.Value) (T, error) {
	var zero T
	if v == nil {
		return zero, nil
	}
	t, ok := v.(T)
	if !ok {
		return zero, store.ErrWrongType
	}
	return t, nil
}

// clone returns a copy of b that never aliases stored data
func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append(make([]byte, 0, len(b)), b...)
}

// --------------------------------------------------------------------------
// Strings
// --------------------------------------------------------------------------

// stringValue is an immutable byte string; writers always store a new slice
type stringValue []byte

func (s stringValue) SizeBytes() int { return len(s) }

// --------------------------------------------------------------------------
// Hashes
// --------------------------------------------------------------------------

// hashValue is a hash ordered by field
type hashValue struct {
	tree *btree.BTreeG[store.FieldValue]
	size int
}

func newHash() *hashValue {
	return &hashValue{tree: btree.NewG(btreeDegree, func(a, b store.FieldValue) bool {
		return bytes.Compare(a.Field, b.Field) < 0
	})}
}

func (h *hashValue) Len() int       { return h.tree.Len() }
func (h *hashValue) SizeBytes() int { return h.size }

func (h *hashValue) get(field []byte) ([]byte, bool) {
	fv, ok := h.tree.Get(store.FieldValue{Field: field})
	return fv.Value, ok
}

// set stores a copy of field and value and reports whether the field is new
func (h *hashValue) set(field, value []byte) bool {
	old, replaced := h.tree.ReplaceOrInsert(store.FieldValue{Field: clone(field), Value: clone(value)})
	if replaced {
		h.size += len(value) - len(old.Value)
		return false
	}
	h.size += len(field) + len(value)
	return true
}

func (h *hashValue) del(field []byte) bool {
	old, ok := h.tree.Delete(store.FieldValue{Field: field})
	if ok {
		h.size -= len(old.Field) + len(old.Value)
	}
	return ok
}

// --------------------------------------------------------------------------
// Sets
// --------------------------------------------------------------------------

// setValue is a set ordered by member
type setValue struct {
	tree *btree.BTreeG[string]
	size int
}

func newSet() *setValue {
	return &setValue{tree: btree.NewOrderedG[string](btreeDegree)}
}

func (s *setValue) Len() int       { return s.tree.Len() }
func (s *setValue) SizeBytes() int { return s.size }

func (s *setValue) has(member []byte) bool {
	return s.tree.Has(string(member))
}

func (s *setValue) add(member []byte) bool {
	if _, replaced := s.tree.ReplaceOrInsert(string(member)); replaced {
		return false
	}
	s.size += len(member)
	return true
}

func (s *setValue) del(member []byte) bool {
	if _, ok := s.tree.Delete(string(member)); ok {
		s.size -= len(member)
		return true
	}
	return false
}

// members returns all members in byte order
func (s *setValue) members() []string {
	out := make([]string, 0, s.tree.Len())
	s.tree.Ascend(func(m string) bool {
		out = append(out, m)
		return true
	})
	return out
}

// --------------------------------------------------------------------------
// Lists
// --------------------------------------------------------------------------

// listValue is a list of byte strings
type listValue struct {
	items [][]byte
	size  int
}

func (l *listValue) Len() int       { return len(l.items) }
func (l *listValue) SizeBytes() int { return l.size }

// index normalizes a possibly negative index, ok is false if out of range
func (l *listValue) index(i int64) (int, bool) {
	n := int64(len(l.items))
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, false
	}
	return int(i), true
}

// span normalizes an inclusive index range, ok is false if it is empty
func (l *listValue) span(start, stop int64) (int, int, bool) {
	return normalizeRange(start, stop, int64(len(l.items)))
}

// normalizeRange converts inclusive (possibly negative) indexes over n items
// into a half-open range [from, to)
func normalizeRange(start, stop, n int64) (int, int, bool) {
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n {
		return 0, 0, false
	}
	return int(start), int(stop) + 1, true
}

// --------------------------------------------------------------------------
// Sorted Sets
// --------------------------------------------------------------------------

// zitem is one element of the score index
type zitem struct {
	score  float64
	member string
}

// zless orders by score, then by member bytes
func zless(a, b zitem) bool {
	if c := cmp.Compare(a.score, b.score); c != 0 {
		return c < 0
	}
	return a.member < b.member
}

// zsetValue is a sorted set with a member index and a (score, member) index
type zsetValue struct {
	scores map[string]float64
	tree   *btree.BTreeG[zitem]
	size   int
}

func newZSet() *zsetValue {
	return &zsetValue{
		scores: make(map[string]float64),
		tree:   btree.NewG(btreeDegree, zless),
	}
}

func (z *zsetValue) Len() int       { return len(z.scores) }
func (z *zsetValue) SizeBytes() int { return z.size }

func (z *zsetValue) score(member []byte) (float64, bool) {
	s, ok := z.scores[string(member)]
	return s, ok
}

// set stores the score of a member and reports whether it was added or changed
func (z *zsetValue) set(member []byte, score float64) (added, changed bool) {
	m := string(member)
	old, exists := z.scores[m]
	if exists {
		if old == score {
			return false, false
		}
		z.tree.Delete(zitem{score: old, member: m})
	} else {
		z.size += len(m) + 8
	}
	z.scores[m] = score
	z.tree.ReplaceOrInsert(zitem{score: score, member: m})
	return !exists, exists
}

func (z *zsetValue) del(member []byte) bool {
	m := string(member)
	old, ok := z.scores[m]
	if !ok {
		return false
	}
	delete(z.scores, m)
	z.tree.Delete(zitem{score: old, member: m})
	z.size -= len(m) + 8
	return true
}

// ascend visits elements in (score, member) order
func (z *zsetValue) ascend(fn func(it zitem) bool) {
	z.tree.Ascend(fn)
}

// descend visits elements in reverse (score, member) order
func (z *zsetValue) descend(fn func(it zitem) bool) {
	z.tree.Descend(fn)
}

// rank returns the 0 based position of member in ascending order
func (z *zsetValue) rank(member []byte) (int64, bool) {
	score, ok := z.scores[string(member)]
	if !ok {
		return 0, false
	}
	var rank int64
	z.tree.AscendLessThan(zitem{score: score, member: string(member)}, func(zitem) bool {
		rank++
		return true
	})
	return rank, true
}

// --------------------------------------------------------------------------
// Sparse Bitmaps
// --------------------------------------------------------------------------

// bitmapValue stores the offsets of all set bits
type bitmapValue struct {
	tree *btree.BTreeG[uint64]
}

func newBitmap() *bitmapValue {
	return &bitmapValue{tree: btree.NewOrderedG[uint64](btreeDegree)}
}

func (b *bitmapValue) Len() int       { return b.tree.Len() }
func (b *bitmapValue) SizeBytes() int { return 8 * b.tree.Len() }
