package lstore

import (
	"bytes"
	"slices"

	"github.com/ValentinKolb/rKV/lib/store"
)

func newList() *listValue {
	return &listValue{}
}

// --------------------------------------------------------------------------
// Helper Functions
// --------------------------------------------------------------------------

// pop removes up to count values from the head (or tail) of the list
func (l *listValue) pop(count int64, tail bool) [][]byte {
	k := int(min(count, int64(len(l.items))))
	out := make([][]byte, k)
	for i := range k {
		var v []byte
		if tail {
			v = l.items[len(l.items)-1]
			l.items[len(l.items)-1] = nil
			l.items = l.items[:len(l.items)-1]
		} else {
			v = l.items[0]
			l.items[0] = nil
			l.items = l.items[1:]
		}
		l.size -= len(v)
		out[i] = v
	}
	return out
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) LPush(key []byte, values ...[]byte) (int64, error) {
	var length int64
	err := modify(s, key, newList, func(l *listValue) error {
		head := make([][]byte, 0, len(values)+len(l.items))
		for i := len(values) - 1; i >= 0; i-- {
			head = append(head, clone(values[i]))
			l.size += len(values[i])
		}
		l.items = append(head, l.items...)
		length = int64(len(l.items))
		return nil
	})
	return length, err
}

func (s *storeImpl) RPush(key []byte, values ...[]byte) (int64, error) {
	var length int64
	err := modify(s, key, newList, func(l *listValue) error {
		for _, v := range values {
			l.items = append(l.items, clone(v))
			l.size += len(v)
		}
		length = int64(len(l.items))
		return nil
	})
	return length, err
}

func (s *storeImpl) LPop(key []byte, count int64) ([][]byte, error) {
	var values [][]byte
	err := modify(s, key, nil, func(l *listValue) error {
		values = l.pop(count, false)
		return nil
	})
	return values, err
}

func (s *storeImpl) RPop(key []byte, count int64) ([][]byte, error) {
	var values [][]byte
	err := modify(s, key, nil, func(l *listValue) error {
		values = l.pop(count, true)
		return nil
	})
	return values, err
}

func (s *storeImpl) LLen(key []byte) (int64, error) {
	var n int64
	err := viewTyped(s, key, func(l *listValue) error {
		if l != nil {
			n = int64(l.Len())
		}
		return nil
	})
	return n, err
}

func (s *storeImpl) LRange(key []byte, start, stop int64) ([][]byte, error) {
	values := [][]byte{}
	err := viewTyped(s, key, func(l *listValue) error {
		if l == nil {
			return nil
		}
		from, to, ok := l.span(start, stop)
		if !ok {
			return nil
		}
		values = make([][]byte, 0, to-from)
		for _, v := range l.items[from:to] {
			values = append(values, clone(v))
		}
		return nil
	})
	return values, err
}

func (s *storeImpl) LIndex(key []byte, index int64) ([]byte, bool, error) {
	var (
		value  []byte
		loaded bool
	)
	err := viewTyped(s, key, func(l *listValue) error {
		if l == nil {
			return nil
		}
		if i, ok := l.index(index); ok {
			value, loaded = clone(l.items[i]), true
		}
		return nil
	})
	return value, loaded, err
}

func (s *storeImpl) LSet(key []byte, index int64, value []byte) error {
	found := false
	err := modify(s, key, nil, func(l *listValue) error {
		found = true
		i, ok := l.index(index)
		if !ok {
			return store.ErrOutOfRange
		}
		l.size += len(value) - len(l.items[i])
		l.items[i] = clone(value)
		return nil
	})
	if err == nil && !found {
		return store.ErrNoSuchKey
	}
	return err
}

func (s *storeImpl) LRem(key []byte, count int64, value []byte) (int64, error) {
	var removed int64
	err := modify(s, key, nil, func(l *listValue) error {
		limit := count
		if limit < 0 {
			limit = -limit
		}
		drop := func(v []byte) bool {
			if (limit == 0 || removed < limit) && bytes.Equal(v, value) {
				removed++
				l.size -= len(v)
				return true
			}
			return false
		}

		if count < 0 {
			slices.Reverse(l.items)
			l.items = slices.DeleteFunc(l.items, drop)
			slices.Reverse(l.items)
		} else {
			l.items = slices.DeleteFunc(l.items, drop)
		}
		return nil
	})
	return removed, err
}

func (s *storeImpl) LTrim(key []byte, start, stop int64) error {
	return modify(s, key, nil, func(l *listValue) error {
		from, to, ok := l.span(start, stop)
		if !ok {
			l.items, l.size = nil, 0
			return nil
		}
		for _, v := range l.items[:from] {
			l.size -= len(v)
		}
		for _, v := range l.items[to:] {
			l.size -= len(v)
		}
		l.items = slices.Clone(l.items[from:to])
		return nil
	})
}

func (s *storeImpl) LInsert(key []byte, before bool, pivot, value []byte) (int64, error) {
	var length int64
	err := modify(s, key, nil, func(l *listValue) error {
		at := slices.IndexFunc(l.items, func(v []byte) bool { return bytes.Equal(v, pivot) })
		if at < 0 {
			length = -1
			return nil
		}
		if !before {
			at++
		}
		l.items = slices.Insert(l.items, at, clone(value))
		l.size += len(value)
		length = int64(len(l.items))
		return nil
	})
	return length, err
}
