package lstore

import (
	"sort"

	"github.com/ValentinKolb/rKV/lib/db"
	"github.com/ValentinKolb/rKV/lib/store"
)

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Del(keys ...[]byte) (int64, error) {
	var removed int64
	for _, key := range keys {
		if s.db.Delete(string(key)) {
			removed++
		}
	}
	return removed, nil
}

func (s *storeImpl) Exists(keys ...[]byte) (int64, error) {
	var count int64
	for _, key := range keys {
		if s.db.Has(string(key)) {
			count++
		}
	}
	return count, nil
}

func (s *storeImpl) Expire(key []byte, at store.Expiry) (bool, error) {
	if at == store.KeepTTL {
		return s.db.Has(string(key)), nil
	}
	var ok bool
	err := s.update(key, func(e *db.Entry, loaded bool) (db.Op, error) {
		if !loaded {
			return db.OpKeep, nil
		}
		ok = true
		if !applyExpiry(e, at, s.db.Now()) {
			return db.OpDelete, nil
		}
		return db.OpStore, nil
	})
	return ok, err
}

func (s *storeImpl) Persist(key []byte) (bool, error) {
	var ok bool
	err := s.update(key, func(e *db.Entry, loaded bool) (db.Op, error) {
		if !loaded || e.ExpireAt == db.NoExpiry {
			return db.OpKeep, nil
		}
		ok = true
		e.ExpireAt = db.NoExpiry
		return db.OpStore, nil
	})
	return ok, err
}

func (s *storeImpl) PTTL(key []byte) (int64, error) {
	ttl := int64(-2)
	err := s.update(key, func(e *db.Entry, loaded bool) (db.Op, error) {
		switch {
		case !loaded:
		case e.ExpireAt == db.NoExpiry:
			ttl = -1
		default:
			ttl = max(e.ExpireAt-s.db.Now(), 0)
		}
		return db.OpKeep, nil
	})
	return ttl, err
}

func (s *storeImpl) Type(key []byte) (string, error) {
	typ := TypeNone
	err := s.view(key, func(v db.Value) error {
		if v != nil {
			typ = typeName(v)
		}
		return nil
	})
	return typ, err
}

func (s *storeImpl) Rename(src, dst []byte) error {
	if string(src) == string(dst) {
		if !s.db.Has(string(src)) {
			return store.ErrNoSuchKey
		}
		return nil
	}

	// the entry is moved in two steps, a concurrent reader may observe neither key
	var (
		moved db.Entry
		found bool
	)
	s.db.Compute(string(src), func(e db.Entry, loaded bool) (db.Entry, db.Op) {
		moved, found = e, loaded
		return e, db.OpDelete
	})
	if !found {
		return store.ErrNoSuchKey
	}

	s.db.Compute(string(dst), func(db.Entry, bool) (db.Entry, db.Op) {
		return moved, db.OpStore
	})
	return nil
}

func (s *storeImpl) Keys(match store.Matcher) ([][]byte, error) {
	var names []string
	s.db.Range(func(key string, _ db.Entry) bool {
		if match == nil || match.MatchString(key) {
			names = append(names, key)
		}
		return true
	})
	sort.Strings(names)

	keys := make([][]byte, len(names))
	for i, name := range names {
		keys[i] = []byte(name)
	}
	return keys, nil
}

func (s *storeImpl) DBSize() (int64, error) {
	var n int64
	s.db.Range(func(string, db.Entry) bool {
		n++
		return true
	})
	return n, nil
}

func (s *storeImpl) FlushAll() error {
	s.db.Clear()
	return nil
}
