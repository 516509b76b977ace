package lstore

import (
	"github.com/ValentinKolb/rKV/lib/db"
	"github.com/ValentinKolb/rKV/lib/store"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("store")

type storeImpl struct {
	db db.KVDB
}

// NewLocalStore creates a new local store instance.
// This store implementation is not distributed and only works on a single node.
// All values live in the db.KVDB created by the factory.
func NewLocalStore(factory store.DBFactory) store.IStore {
	return &storeImpl{
		db: factory(),
	}
}

// --------------------------------------------------------------------------
// Entry Access Helpers
// --------------------------------------------------------------------------

// view runs fn on the live value of key (nil if missing) while the key is locked
func (s *storeImpl) view(key []byte, fn func(v db.Value) error) error {
	var err error
	s.db.Compute(string(key), func(e db.Entry, loaded bool) (db.Entry, db.Op) {
		var v db.Value
		if loaded {
			v = e.Value
		}
		err = fn(v)
		return e, db.OpKeep
	})
	return err
}

// update runs fn on the entry of key while the key is locked. fn may change
// the entry in place and returns the operation to apply.
func (s *storeImpl) update(key []byte, fn func(e *db.Entry, loaded bool) (db.Op, error)) error {
	var err error
	s.db.Compute(string(key), func(e db.Entry, loaded bool) (db.Entry, db.Op) {
		var op db.Op
		op, err = fn(&e, loaded)
		if err != nil {
			return e, db.OpKeep
		}
		return e, op
	})
	return err
}

// viewTyped runs fn on the value of key converted to T. A missing key calls fn
// with the zero T (nil for collections).
func viewTyped[T db.Value](s *storeImpl, key []byte, fn func(v T) error) error {
	return s.view(key, func(v db.Value) error {
		t, err := typed[T](v)
		if err != nil {
			return err
		}
		return fn(t)
	})
}

// modify runs fn on the collection stored under key. If the key is missing and
// create is not nil a new collection is created, otherwise fn is not called.
// Collections that are empty after fn are removed from the keyspace.
// fn must validate its input before it changes the collection.
func modify[T collection](s *storeImpl, key []byte, create func() T, fn func(c T) error) error {
	return s.update(key, func(e *db.Entry, loaded bool) (db.Op, error) {
		var c T
		if loaded {
			var err error
			if c, err = typed[T](e.Value); err != nil {
				return db.OpKeep, err
			}
		} else {
			if create == nil {
				return db.OpKeep, nil
			}
			c = create()
			*e = db.Entry{Value: c}
		}

		if err := fn(c); err != nil {
			return db.OpKeep, err
		}
		if c.Len() == 0 {
			return db.OpDelete, nil
		}
		e.Value = c
		return db.OpStore, nil
	})
}

// applyExpiry applies an expiry directive to an entry. It returns false if the
// expiry lies in the past, in which case the entry must be deleted.
func applyExpiry(e *db.Entry, at store.Expiry, now int64) bool {
	switch at {
	case store.KeepTTL:
		return true
	case store.NoExpiry:
		e.ExpireAt = db.NoExpiry
		return true
	default:
		if int64(at) <= now {
			return false
		}
		e.ExpireAt = int64(at)
		return true
	}
}

// --------------------------------------------------------------------------
// Metadata and Lifecycle
// --------------------------------------------------------------------------

func (s *storeImpl) GetDBInfo() (db.DatabaseInfo, error) {
	return s.db.GetInfo(), nil
}

func (s *storeImpl) Close() error {
	return s.db.Close()
}
