// Package util provides utility components for
// database implementations that satisfy the db.KVDB interface.
//
// The package contains:
//   - statistics: Summary statistics and a SizeHistogram for tracking value size distribution
//   - functions: xxhash based key hashing and shard selection
//   - mapheap: A generic priority queue with key-based access used to schedule expirations
//
// This package is particularly useful for:
//   - Database developers implementing the KVDB interface
//   - Implementation of garbage collection or other priority queue systems
//   - Monitoring code that needs to report database size and distribution metrics
package util
