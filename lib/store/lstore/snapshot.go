package lstore

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"

	"github.com/ValentinKolb/rKV/lib/db"
	"github.com/ValentinKolb/rKV/lib/store"
)

// snapshotVersion is written in the header of every snapshot
const snapshotVersion = 1

// snapshotHeader starts every snapshot stream
type snapshotHeader struct {
	Version int
	Keys    int
}

// snapshotRecord is the serialized form of one key. Only the field matching
// Type is filled in.
type snapshotRecord struct {
	Key      string
	ExpireAt int64
	Type     string
	Str      []byte
	Fields   []store.FieldValue
	Items    [][]byte
	Members  []store.ScoredMember
	Bits     []uint64
}

// toRecord converts a stored entry into its serialized form
func toRecord(key string, e db.Entry) snapshotRecord {
	rec := snapshotRecord{Key: key, ExpireAt: e.ExpireAt, Type: typeName(e.Value)}
	switch v := e.Value.(type) {
	case stringValue:
		rec.Str = clone(v)
	case *hashValue:
		v.tree.Ascend(func(fv store.FieldValue) bool {
			rec.Fields = append(rec.Fields, store.FieldValue{Field: clone(fv.Field), Value: clone(fv.Value)})
			return true
		})
	case *listValue:
		for _, item := range v.items {
			rec.Items = append(rec.Items, clone(item))
		}
	case *setValue:
		for _, m := range v.members() {
			rec.Items = append(rec.Items, []byte(m))
		}
	case *zsetValue:
		v.ascend(func(it zitem) bool {
			rec.Members = append(rec.Members, store.ScoredMember{Member: []byte(it.member), Score: it.score})
			return true
		})
	case *bitmapValue:
		v.tree.Ascend(func(offset uint64) bool {
			rec.Bits = append(rec.Bits, offset)
			return true
		})
	}
	return rec
}

// fromRecord rebuilds a stored entry from its serialized form
func fromRecord(rec snapshotRecord) (db.Entry, error) {
	var v db.Value
	switch rec.Type {
	case TypeString:
		v = stringValue(append([]byte{}, rec.Str...))
	case TypeHash:
		h := newHash()
		for _, fv := range rec.Fields {
			h.set(fv.Field, fv.Value)
		}
		v = h
	case TypeList:
		l := newList()
		for _, item := range rec.Items {
			l.items = append(l.items, item)
			l.size += len(item)
		}
		v = l
	case TypeSet:
		s := newSet()
		for _, m := range rec.Items {
			s.add(m)
		}
		v = s
	case TypeZSet:
		z := newZSet()
		for _, sm := range rec.Members {
			z.set(sm.Member, sm.Score)
		}
		v = z
	case TypeSparseBitmap:
		b := newBitmap()
		for _, offset := range rec.Bits {
			b.tree.ReplaceOrInsert(offset)
		}
		v = b
	default:
		return db.Entry{}, fmt.Errorf("key %q has unknown type %q", rec.Key, rec.Type)
	}
	return db.Entry{Value: v, ExpireAt: rec.ExpireAt}, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

// Snapshot writes a fuzzy snapshot: every key is copied while it is locked,
// but keys written during the snapshot may or may not be part of it.
func (s *storeImpl) Snapshot(w io.Writer) error {
	var keys []string
	s.db.Range(func(key string, _ db.Entry) bool {
		keys = append(keys, key)
		return true
	})

	var records []snapshotRecord
	for _, key := range keys {
		s.db.Compute(key, func(e db.Entry, loaded bool) (db.Entry, db.Op) {
			if loaded {
				records = append(records, toRecord(key, e))
			}
			return e, db.OpKeep
		})
	}

	enc := gob.NewEncoder(w)
	if err := enc.Encode(snapshotHeader{Version: snapshotVersion, Keys: len(records)}); err != nil {
		return store.NewError(store.RetCInternalError, fmt.Sprintf("failed to write snapshot header: %v", err))
	}
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return store.NewError(store.RetCInternalError, fmt.Sprintf("failed to write key %q: %v", rec.Key, err))
		}
	}
	Logger.Debugf("snapshot written with %d keys", len(records))
	return nil
}

func (s *storeImpl) Restore(r io.Reader) error {
	dec := gob.NewDecoder(r)
	var header snapshotHeader
	if err := dec.Decode(&header); err != nil {
		return store.NewError(store.RetCInternalError, fmt.Sprintf("failed to read snapshot header: %v", err))
	}
	if header.Version != snapshotVersion {
		return store.NewError(store.RetCInternalError, fmt.Sprintf("unsupported snapshot version %d", header.Version))
	}

	// decode everything before the keyspace is replaced
	entries := make(map[string]db.Entry, header.Keys)
	for range header.Keys {
		var rec snapshotRecord
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return store.NewError(store.RetCInternalError, fmt.Sprintf("failed to read snapshot: %v", err))
		}
		e, err := fromRecord(rec)
		if err != nil {
			return store.NewError(store.RetCInternalError, err.Error())
		}
		entries[rec.Key] = e
	}

	now := s.db.Now()
	s.db.Clear()
	for key, e := range entries {
		if e.ExpiredAt(now) {
			continue
		}
		s.db.Compute(key, func(db.Entry, bool) (db.Entry, db.Op) {
			return e, db.OpStore
		})
	}
	Logger.Infof("snapshot restored with %d keys", len(entries))
	return nil
}
