package lstore

import (
	"math/rand/v2"
	"strconv"

	"github.com/ValentinKolb/rKV/lib/store"
)

// --------------------------------------------------------------------------
// Helper Functions
// --------------------------------------------------------------------------

// sample picks count random indexes out of n. A positive count yields distinct
// indexes (at most n), a negative count yields -count indexes with repetitions.
// size reports the bytes copied for one index; a sample with repetitions whose
// total exceeds store.MaxSampleBytes fails.
func sample(n int, count int64, size func(i int) int) ([]int, error) {
	if n == 0 || count == 0 {
		return nil, nil
	}
	if count < 0 {
		// also rejects math.MinInt64, whose negation overflows
		if count < -store.MaxSampleCount {
			return nil, store.ErrSampleSize
		}
		picks := make([]int, -count)
		total := 0
		for i := range picks {
			picks[i] = rand.IntN(n)
			if total += size(picks[i]); total > store.MaxSampleBytes {
				return nil, store.ErrSampleSize
			}
		}
		return picks, nil
	}

	k := int(min(count, int64(n)))
	perm := rand.Perm(n)
	return perm[:k], nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) HSet(key []byte, pairs ...[]byte) (int64, error) {
	var added int64
	err := modify(s, key, newHash, func(h *hashValue) error {
		for i := 0; i+1 < len(pairs); i += 2 {
			if h.set(pairs[i], pairs[i+1]) {
				added++
			}
		}
		return nil
	})
	return added, err
}

func (s *storeImpl) HSetNX(key, field, value []byte) (bool, error) {
	var ok bool
	err := modify(s, key, newHash, func(h *hashValue) error {
		if _, exists := h.get(field); !exists {
			ok = h.set(field, value)
		}
		return nil
	})
	return ok, err
}

func (s *storeImpl) HGet(key, field []byte) ([]byte, bool, error) {
	var (
		value  []byte
		loaded bool
	)
	err := viewTyped(s, key, func(h *hashValue) error {
		if h == nil {
			return nil
		}
		var v []byte
		if v, loaded = h.get(field); loaded {
			value = clone(v)
		}
		return nil
	})
	return value, loaded, err
}

func (s *storeImpl) HMGet(key []byte, fields ...[]byte) ([][]byte, error) {
	values := make([][]byte, len(fields))
	err := viewTyped(s, key, func(h *hashValue) error {
		if h == nil {
			return nil
		}
		for i, field := range fields {
			if v, ok := h.get(field); ok {
				values[i] = clone(v)
			}
		}
		return nil
	})
	return values, err
}

func (s *storeImpl) HDel(key []byte, fields ...[]byte) (int64, error) {
	var removed int64
	err := modify(s, key, nil, func(h *hashValue) error {
		for _, field := range fields {
			if h.del(field) {
				removed++
			}
		}
		return nil
	})
	return removed, err
}

func (s *storeImpl) HExists(key, field []byte) (bool, error) {
	var ok bool
	err := viewTyped(s, key, func(h *hashValue) error {
		if h != nil {
			_, ok = h.get(field)
		}
		return nil
	})
	return ok, err
}

func (s *storeImpl) HLen(key []byte) (int64, error) {
	var n int64
	err := viewTyped(s, key, func(h *hashValue) error {
		if h != nil {
			n = int64(h.Len())
		}
		return nil
	})
	return n, err
}

func (s *storeImpl) HStrLen(key, field []byte) (int64, error) {
	var length int64
	err := viewTyped(s, key, func(h *hashValue) error {
		if h != nil {
			v, _ := h.get(field)
			length = int64(len(v))
		}
		return nil
	})
	return length, err
}

func (s *storeImpl) HGetAll(key []byte) ([]store.FieldValue, error) {
	var entries []store.FieldValue
	err := viewTyped(s, key, func(h *hashValue) error {
		if h == nil {
			return nil
		}
		entries = make([]store.FieldValue, 0, h.Len())
		h.tree.Ascend(func(fv store.FieldValue) bool {
			entries = append(entries, store.FieldValue{Field: clone(fv.Field), Value: clone(fv.Value)})
			return true
		})
		return nil
	})
	return entries, err
}

func (s *storeImpl) HIncrBy(key, field []byte, delta int64) (int64, error) {
	var result int64
	err := modify(s, key, newHash, func(h *hashValue) error {
		var current int64
		if v, ok := h.get(field); ok {
			var err error
			if current, err = parseStoredInt(v); err != nil {
				return store.NewError(store.RetCKeyNotNumber, "hash value is not an integer")
			}
		}
		next, err := addInt(current, delta)
		if err != nil {
			return err
		}
		result = next
		h.set(field, strconv.AppendInt(nil, next, 10))
		return nil
	})
	return result, err
}

func (s *storeImpl) HIncrByFloat(key, field []byte, delta float64) (float64, error) {
	var result float64
	err := modify(s, key, newHash, func(h *hashValue) error {
		var current float64
		if v, ok := h.get(field); ok {
			var err error
			if current, err = parseStoredFloat(v); err != nil {
				return store.NewError(store.RetCNotFloat, "hash value is not a float")
			}
		}
		next, err := addFloat(current, delta)
		if err != nil {
			return err
		}
		result = next
		h.set(field, formatFloat(next))
		return nil
	})
	return result, err
}

func (s *storeImpl) HRandField(key []byte, count int64) ([]store.FieldValue, error) {
	var entries []store.FieldValue
	err := viewTyped(s, key, func(h *hashValue) error {
		if h == nil {
			return nil
		}
		all := make([]store.FieldValue, 0, h.Len())
		h.tree.Ascend(func(fv store.FieldValue) bool {
			all = append(all, fv)
			return true
		})
		picks, err := sample(len(all), count, func(i int) int {
			return len(all[i].Field) + len(all[i].Value)
		})
		if err != nil {
			return err
		}
		entries = make([]store.FieldValue, 0, len(picks))
		for _, i := range picks {
			entries = append(entries, store.FieldValue{Field: clone(all[i].Field), Value: clone(all[i].Value)})
		}
		return nil
	})
	return entries, err
}

func (s *storeImpl) HScan(key, after []byte, count int, match store.Matcher) ([]store.FieldValue, error) {
	var entries []store.FieldValue
	err := viewTyped(s, key, func(h *hashValue) error {
		if h == nil {
			return nil
		}
		visit := func(fv store.FieldValue) bool {
			if after != nil && string(fv.Field) == string(after) {
				return true
			}
			if match == nil || match.Match(fv.Field) {
				entries = append(entries, store.FieldValue{Field: clone(fv.Field), Value: clone(fv.Value)})
			}
			return len(entries) < count
		}
		if after == nil {
			h.tree.Ascend(visit)
		} else {
			h.tree.AscendGreaterOrEqual(store.FieldValue{Field: after}, visit)
		}
		return nil
	})
	return entries, err
}
