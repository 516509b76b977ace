package lstore

import (
	"math"
	"strconv"

	"github.com/ValentinKolb/rKV/lib/db"
	"github.com/ValentinKolb/rKV/lib/store"
)

// maxStringLength is the largest string SETRANGE and APPEND may produce
const maxStringLength = 512 << 20

// --------------------------------------------------------------------------
// Helper Functions
// --------------------------------------------------------------------------

// parseStoredInt parses a string value as a 64 bit integer
func parseStoredInt(v stringValue) (int64, error) {
	n, err := strconv.ParseInt(string(v), 10, 64)
	if err != nil {
		return 0, store.ErrNotInteger
	}
	return n, nil
}

// parseStoredFloat parses a string value as a finite float
func parseStoredFloat(v stringValue) (float64, error) {
	f, err := strconv.ParseFloat(string(v), 64)
	if err != nil || math.IsNaN(f) {
		return 0, store.ErrNotFloat
	}
	return f, nil
}

// addInt adds two integers and reports an overflow
func addInt(a, b int64) (int64, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, store.ErrOverflow
	}
	return a + b, nil
}

// addFloat adds two floats and rejects non finite results
func addFloat(a, b float64) (float64, error) {
	sum := a + b
	if math.IsNaN(sum) || math.IsInf(sum, 0) {
		return 0, store.ErrNaN
	}
	return sum, nil
}

// formatFloat renders a float the way INCRBYFLOAT stores it
func formatFloat(f float64) []byte {
	return strconv.AppendFloat(nil, f, 'f', -1, 64)
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Get(key []byte) ([]byte, bool, error) {
	var (
		value  []byte
		loaded bool
	)
	err := s.view(key, func(v db.Value) error {
		if v == nil {
			return nil
		}
		str, err := typed[stringValue](v)
		if err != nil {
			return err
		}
		value, loaded = append([]byte{}, str...), true
		return nil
	})
	return value, loaded, err
}

func (s *storeImpl) Set(key, value []byte, opts store.SetOptions) (store.SetResult, error) {
	var res store.SetResult
	err := s.update(key, func(e *db.Entry, loaded bool) (db.Op, error) {
		if opts.Get && loaded {
			old, err := typed[stringValue](e.Value)
			if err != nil {
				return db.OpKeep, err
			}
			res.Old, res.HadOld = clone(old), true
		}
		if !opts.Mutation.Allows(loaded) {
			return db.OpKeep, nil
		}

		res.Written = true
		if !loaded || opts.Expiry != store.KeepTTL {
			e.ExpireAt = db.NoExpiry
		}
		if !applyExpiry(e, opts.Expiry, s.db.Now()) {
			return db.OpDelete, nil
		}
		e.Value = stringValue(append([]byte{}, value...))
		return db.OpStore, nil
	})
	return res, err
}

func (s *storeImpl) GetEx(key []byte, at store.Expiry) ([]byte, bool, error) {
	var (
		value  []byte
		loaded bool
	)
	err := s.update(key, func(e *db.Entry, ok bool) (db.Op, error) {
		if !ok {
			return db.OpKeep, nil
		}
		v, err := typed[stringValue](e.Value)
		if err != nil {
			return db.OpKeep, err
		}
		value, loaded = clone(v), true
		if at == store.KeepTTL {
			return db.OpKeep, nil
		}
		if !applyExpiry(e, at, s.db.Now()) {
			return db.OpDelete, nil
		}
		return db.OpStore, nil
	})
	return value, loaded, err
}

func (s *storeImpl) GetDel(key []byte) ([]byte, bool, error) {
	var (
		value  []byte
		loaded bool
	)
	err := s.update(key, func(e *db.Entry, ok bool) (db.Op, error) {
		if !ok {
			return db.OpKeep, nil
		}
		v, err := typed[stringValue](e.Value)
		if err != nil {
			return db.OpKeep, err
		}
		value, loaded = clone(v), true
		return db.OpDelete, nil
	})
	return value, loaded, err
}

func (s *storeImpl) Append(key, value []byte) (int64, error) {
	var length int64
	err := s.update(key, func(e *db.Entry, loaded bool) (db.Op, error) {
		old, err := typed[stringValue](e.Value)
		if loaded && err != nil {
			return db.OpKeep, err
		}
		if len(old)+len(value) > maxStringLength {
			return db.OpKeep, store.ErrValueTooBig
		}
		next := make(stringValue, 0, len(old)+len(value))
		next = append(append(next, old...), value...)
		if !loaded {
			e.ExpireAt = db.NoExpiry
		}
		e.Value = next
		length = int64(len(next))
		return db.OpStore, nil
	})
	return length, err
}

func (s *storeImpl) StrLen(key []byte) (int64, error) {
	var length int64
	err := viewTyped(s, key, func(v stringValue) error {
		length = int64(len(v))
		return nil
	})
	return length, err
}

func (s *storeImpl) IncrBy(key []byte, delta int64) (int64, error) {
	var result int64
	err := s.update(key, func(e *db.Entry, loaded bool) (db.Op, error) {
		var current int64
		if loaded {
			v, err := typed[stringValue](e.Value)
			if err != nil {
				return db.OpKeep, err
			}
			if current, err = parseStoredInt(v); err != nil {
				return db.OpKeep, err
			}
		} else {
			e.ExpireAt = db.NoExpiry
		}
		next, err := addInt(current, delta)
		if err != nil {
			return db.OpKeep, err
		}
		result = next
		e.Value = stringValue(strconv.AppendInt(nil, next, 10))
		return db.OpStore, nil
	})
	return result, err
}

func (s *storeImpl) IncrByFloat(key []byte, delta float64) (float64, error) {
	var result float64
	err := s.update(key, func(e *db.Entry, loaded bool) (db.Op, error) {
		var current float64
		if loaded {
			v, err := typed[stringValue](e.Value)
			if err != nil {
				return db.OpKeep, err
			}
			if current, err = parseStoredFloat(v); err != nil {
				return db.OpKeep, err
			}
		} else {
			e.ExpireAt = db.NoExpiry
		}
		next, err := addFloat(current, delta)
		if err != nil {
			return db.OpKeep, err
		}
		result = next
		e.Value = stringValue(formatFloat(next))
		return db.OpStore, nil
	})
	return result, err
}

func (s *storeImpl) GetRange(key []byte, start, end int64) ([]byte, error) {
	var value []byte
	err := viewTyped(s, key, func(v stringValue) error {
		from, to, ok := normalizeRange(start, end, int64(len(v)))
		if ok {
			value = clone(v[from:to])
		}
		return nil
	})
	if value == nil && err == nil {
		value = []byte{}
	}
	return value, err
}

func (s *storeImpl) SetRange(key []byte, offset int64, value []byte) (int64, error) {
	if offset < 0 {
		return 0, store.ErrOutOfRange
	}
	var length int64
	err := s.update(key, func(e *db.Entry, loaded bool) (db.Op, error) {
		old, err := typed[stringValue](e.Value)
		if loaded && err != nil {
			return db.OpKeep, err
		}
		if len(value) == 0 {
			length = int64(len(old))
			return db.OpKeep, nil
		}
		if offset+int64(len(value)) > maxStringLength {
			return db.OpKeep, store.ErrValueTooBig
		}

		size := max(len(old), int(offset)+len(value))
		next := make(stringValue, size)
		copy(next, old)
		copy(next[offset:], value)
		if !loaded {
			e.ExpireAt = db.NoExpiry
		}
		e.Value = next
		length = int64(size)
		return db.OpStore, nil
	})
	return length, err
}

func (s *storeImpl) MGet(keys ...[]byte) ([][]byte, error) {
	values := make([][]byte, len(keys))
	for i, key := range keys {
		_ = s.view(key, func(v db.Value) error {
			if str, ok := v.(stringValue); ok {
				values[i] = clone(str)
			}
			return nil
		})
	}
	return values, nil
}

func (s *storeImpl) MSet(pairs ...[]byte) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		value := stringValue(append([]byte{}, pairs[i+1]...))
		s.db.Compute(string(pairs[i]), func(db.Entry, bool) (db.Entry, db.Op) {
			return db.Entry{Value: value}, db.OpStore
		})
	}
	return nil
}
