// Package maple implements an in-memory keyspace (KVDB) with concurrent access
// and time-based expiry. It provides a complete implementation of the db.KVDB
// interface and is the storage backend of every logical database of the
// reference store.
//
// The package focuses on:
//   - Concurrent access through sharding and the xsync concurrent map
//   - Atomic read-modify-write of typed values via Compute
//   - Expiration of entries without stop-the-world pauses
//   - Sampling based statistics for INFO
//
// Key Components:
//
//   - mapleImpl: The central structure implementing db.KVDB. It owns the shards,
//     the clock and the garbage collection goroutines.
//
//   - Shard: A partition of the keyspace. Each shard holds an xsync.MapOf with the
//     entries, a util.MapHeap ordering expiring keys by expiration time and a
//     bounded xsync.MPMCQueueOf carrying gc events from writers to the gc goroutine.
//     Keys are assigned to shards by their xxhash digest.
//
//   - Entry: A typed value and its absolute expiration time in unix milliseconds.
//
// Expiration:
//
//   - Lazy: Every method treats an expired entry as missing. Compute removes an
//     expired entry it encounters.
//
//   - Background: Writers that store an entry with an expiration time queue a
//     write event. Once per GCInterval the gc goroutine of a shard moves queued
//     events into its heap and removes all entries whose expiration time passed.
//     The heap is only touched by that goroutine and needs no lock. Before an
//     entry is removed the expiration is checked again under the map lock, since
//     the entry may have been rewritten after the event was queued.
//
//   - Overflow: Writers never block on the event queue. If it is full the event
//     is dropped and the shard is flagged; the next gc cycle rebuilds the heap
//     from the map.
//
// Persistence is not part of this package. Values are opaque to the database,
// so the store owning the values writes snapshots (see lstore).
package maple
