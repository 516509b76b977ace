// Package db provides the keyspace abstraction used by the reference store.
//
// The package focuses on:
//   - A minimal interface for atomic, typed key-value updates
//   - Absolute expiration times with lazy and background expiry
//   - Feature discovery through capability flags
//   - Metadata reporting for the INFO command
//
// Key Components:
//
//   - KVDB Interface: The core interface that all implementations must satisfy.
//     All reads and writes go through Compute, which runs a function on the
//     current entry while the entry is locked and applies the returned operation
//     (OpKeep, OpStore or OpDelete). Range, Len and Clear serve key listings,
//     snapshots and FLUSHALL.
//
//   - Entry and Value: An entry holds a Value (any type reporting its size) and
//     an expiration time in unix milliseconds (NoExpiry = never).
//
//   - Feature Flags: The Feature type defines capability flags that implementations
//     advertise through SupportsFeature.
//
//   - Database Information: DatabaseInfo reports key counts, estimated size,
//     implementation type and implementation specific metadata. Sizes are estimates.
//
// Note on Expiration:
//   - Implementations must never expose an expired entry, even if it was not yet
//     collected. Compute passes such entries to the function as missing.
//   - Expired entries must eventually be removed to prevent memory leaks.
//
// Related Packages:
//
// The engines/maple package provides the sharded in-memory implementation.
// The util package provides the MapHeap used for expiry scheduling, hashing
// helpers and size statistics. The testing package provides the conformance
// test suite and benchmarks for KVDB implementations.
package db
