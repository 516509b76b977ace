// Package lstore implements a local, in-memory, single-node store based on the
// store.IStore interface. Every key of the keyspace lives in a db.KVDB created
// by the injected store.DBFactory; the store itself only adds the typed values
// and the operations on them.
//
// Key Features:
//   - Strings, Hashes, Lists, Sets, Sorted Sets and sparse bitmaps
//   - Absolute per key expiry delegated to the underlying db.KVDB
//   - Ordered collections backed by google/btree for scans and range queries
//   - Fuzzy snapshots in gob format (Snapshot / Restore)
//
// Implementation Details:
//
//   - Atomicity: Every operation on a single key runs inside db.KVDB.Compute,
//     so the value is locked for the whole read-modify-write cycle. Collections
//     are mutable in place and are never touched outside of Compute.
//     Operations on multiple keys (MSET, DEL, RENAME) are a sequence of single
//     key operations and not atomic as a whole.
//
//   - Empty Collections: A collection that becomes empty is removed from the
//     keyspace, so a key either holds a non empty value or does not exist.
//
//   - Wrong Types: Accessing a key with an operation of another type fails with
//     store.ErrWrongType without changing anything.
//
//   - Copies: Values passed in are copied before they are stored and returned
//     values never alias stored data.
//
// Usage Example:
//
//	factory := func() db.KVDB { return maple.NewMapleDB(maple.DefaultOptions()) }
//	s := lstore.NewLocalStore(factory)
//
//	res, err := s.Set([]byte("session:123"), data, store.SetOptions{Expiry: store.ExpiryAt(time.Now().Add(5 * time.Minute))})
//	value, loaded, err := s.Get([]byte("session:123"))
//
// Snapshots:
//
//	Snapshot copies one key at a time while the key is locked. Keys written
//	concurrently may or may not be part of the snapshot. Restore decodes the
//	whole stream before it replaces the keyspace, so a broken snapshot leaves
//	the store unchanged. Keys that expired in the meantime are skipped.
package lstore
