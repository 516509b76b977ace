package lstore

import (
	"github.com/ValentinKolb/rKV/lib/store"
)

// byteLen returns the length in bytes of the bitmap when stored densely
func (b *bitmapValue) byteLen() int64 {
	last, ok := b.tree.Max()
	if !ok {
		return 0
	}
	return int64(last/8) + 1
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) SetBit(key []byte, offset uint64, value bool) (bool, error) {
	var old bool
	err := modify(s, key, newBitmap, func(b *bitmapValue) error {
		if value {
			_, old = b.tree.ReplaceOrInsert(offset)
		} else {
			_, old = b.tree.Delete(offset)
		}
		return nil
	})
	return old, err
}

func (s *storeImpl) GetBit(key []byte, offset uint64) (bool, error) {
	var value bool
	err := viewTyped(s, key, func(b *bitmapValue) error {
		value = b != nil && b.tree.Has(offset)
		return nil
	})
	return value, err
}

func (s *storeImpl) BitCount(key []byte, r *store.ByteRange) (int64, error) {
	var n int64
	err := viewTyped(s, key, func(b *bitmapValue) error {
		if b == nil {
			return nil
		}
		if r == nil {
			n = int64(b.Len())
			return nil
		}
		from, to, ok := normalizeRange(r.Start, r.End, b.byteLen())
		if !ok {
			return nil
		}
		b.tree.AscendRange(uint64(from)*8, uint64(to)*8, func(uint64) bool {
			n++
			return true
		})
		return nil
	})
	return n, err
}
