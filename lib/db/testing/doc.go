// Package testing provides standardised tests and benchmarks for
// database implementations that satisfy the db.KVDB interface.
//
// The package contains:
//   - testing: A test suite validating the KVDB contract (atomic compute, lazy and
//     background expiry, iteration, clearing and concurrent updates)
//   - benchmark: Performance tests for measuring throughput of common operations
//
// Time dependent tests use a ManualClock, so implementations must read the time
// from the clock passed to the factory.
//
// Example usage:
//
//	factory := func(clock func() time.Time) db.KVDB {
//		return NewMyDatabase(clock)
//	}
//
//	dbtesting.RunKVDBTests(t, "MyDatabase", factory)
//	dbtesting.RunKVDBBenchmarks(b, "MyDatabase", factory)
package testing
