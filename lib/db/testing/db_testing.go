package testing

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/rKV/lib/db"
)

// DBFactory creates a new instance of a KVDB implementation that reads the
// time from the given clock
type DBFactory func(clock func() time.Time) db.KVDB

// BytesValue is a plain byte value used by the test suite
type BytesValue []byte

func (b BytesValue) SizeBytes() int { return len(b) }

// ManualClock is a clock that only moves when advanced
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock creates a clock starting at a fixed point in time
func NewManualClock() *ManualClock {
	return &ManualClock{now: time.UnixMilli(1_700_000_000_000)}
}

// Now returns the current time of the clock
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// RunKVDBTests runs a comprehensive test suite for a KVDB implementation.
func RunKVDBTests(t *testing.T, name string, factory DBFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Store&Get", func(t *testing.T) {
			testStoreGet(t, factory(time.Now))
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory(time.Now))
		})

		t.Run("Keep", func(t *testing.T) {
			testKeepDoesNotCreate(t, factory(time.Now))
		})

		t.Run("LazyExpiry", func(t *testing.T) {
			clock := NewManualClock()
			testLazyExpiry(t, factory(clock.Now), clock)
		})

		t.Run("BackgroundExpiry", func(t *testing.T) {
			clock := NewManualClock()
			testBackgroundExpiry(t, factory(clock.Now), clock)
		})

		t.Run("Persist", func(t *testing.T) {
			clock := NewManualClock()
			testPersist(t, factory(clock.Now), clock)
		})

		t.Run("Range", func(t *testing.T) {
			clock := NewManualClock()
			testRange(t, factory(clock.Now), clock)
		})

		t.Run("Clear", func(t *testing.T) {
			testClear(t, factory(time.Now))
		})

		t.Run("Concurrent", func(t *testing.T) {
			testConcurrentCompute(t, factory(time.Now))
		})

		t.Run("Info", func(t *testing.T) {
			testInfo(t, factory(time.Now))
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// requireFeature skips the test if the database does not support the feature
func requireFeature(t testing.TB, database db.KVDB, feature db.Feature) {
	if !database.SupportsFeature(feature) {
		t.Skip()
	}
}

// Store stores value under key with the given expiration time
func Store(database db.KVDB, key string, value []byte, expireAt int64) {
	database.Compute(key, func(db.Entry, bool) (db.Entry, db.Op) {
		return db.Entry{Value: BytesValue(value), ExpireAt: expireAt}, db.OpStore
	})
}

// Load returns the value stored under key
func Load(database db.KVDB, key string) (string, bool) {
	var (
		value string
		ok    bool
	)
	database.Compute(key, func(e db.Entry, loaded bool) (db.Entry, db.Op) {
		if loaded {
			value, ok = string(e.Value.(BytesValue)), true
		}
		return e, db.OpKeep
	})
	return value, ok
}

// waitFor polls cond until it holds or the timeout passes
func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testStoreGet(t *testing.T, database db.KVDB) {
	defer database.Close()
	requireFeature(t, database, db.FeatureCompute)

	Store(database, "key", []byte("value1"), db.NoExpiry)
	if v, ok := Load(database, "key"); !ok || v != "value1" {
		t.Errorf("Load() = %q, %v, want value1", v, ok)
	}

	Store(database, "key", []byte("value2"), db.NoExpiry)
	if v, ok := Load(database, "key"); !ok || v != "value2" {
		t.Errorf("Load() = %q, %v, want value2", v, ok)
	}

	if _, ok := Load(database, "missing"); ok {
		t.Errorf("Load(missing) should not find a value")
	}
	if !database.Has("key") || database.Has("missing") {
		t.Errorf("Has() returned wrong results")
	}
	if database.Len() != 1 {
		t.Errorf("Len() = %d, want 1", database.Len())
	}
}

func testDelete(t *testing.T, database db.KVDB) {
	defer database.Close()

	Store(database, "key", []byte("v"), db.NoExpiry)
	if !database.Delete("key") {
		t.Errorf("Delete() = false for existing key")
	}
	if database.Delete("key") {
		t.Errorf("Delete() = true for deleted key")
	}
	if database.Has("key") {
		t.Errorf("Has() = true after Delete()")
	}
}

func testKeepDoesNotCreate(t *testing.T, database db.KVDB) {
	defer database.Close()

	database.Compute("ghost", func(e db.Entry, loaded bool) (db.Entry, db.Op) {
		if loaded {
			t.Errorf("missing key passed as loaded")
		}
		return db.Entry{Value: BytesValue("x")}, db.OpKeep
	})
	if database.Has("ghost") || database.Len() != 0 {
		t.Errorf("OpKeep created an entry")
	}
}

func testLazyExpiry(t *testing.T, database db.KVDB, clock *ManualClock) {
	defer database.Close()
	requireFeature(t, database, db.FeatureExpire)

	Store(database, "short", []byte("v"), database.Now()+1000)
	Store(database, "long", []byte("v"), database.Now()+60_000)

	if !database.Has("short") {
		t.Fatalf("Has(short) = false before expiration")
	}

	clock.Advance(time.Second)
	if database.Has("short") {
		t.Errorf("Has(short) = true at expiration time")
	}
	if _, ok := Load(database, "short"); ok {
		t.Errorf("Load(short) found an expired value")
	}
	if !database.Has("long") {
		t.Errorf("Has(long) = false before expiration")
	}

	// an expired key is passed to compute as missing
	database.Compute("long", func(e db.Entry, loaded bool) (db.Entry, db.Op) {
		return e, db.OpKeep
	})
	clock.Advance(time.Minute)
	database.Compute("long", func(e db.Entry, loaded bool) (db.Entry, db.Op) {
		if loaded {
			t.Errorf("expired key passed as loaded")
		}
		return e, db.OpKeep
	})
	if database.Len() != 0 {
		t.Errorf("Len() = %d after lazy expiry, want 0", database.Len())
	}
}

func testBackgroundExpiry(t *testing.T, database db.KVDB, clock *ManualClock) {
	defer database.Close()
	requireFeature(t, database, db.FeatureGarbageCollect)

	const n = 1000
	for i := 0; i < n; i++ {
		expireAt := database.Now() + 1000
		if i%2 == 0 {
			expireAt = db.NoExpiry
		}
		Store(database, fmt.Sprintf("key-%d", i), []byte("v"), expireAt)
	}

	clock.Advance(2 * time.Second)
	if !waitFor(2*time.Second, func() bool { return database.Len() == n/2 }) {
		t.Errorf("Len() = %d after background expiry, want %d", database.Len(), n/2)
	}
}

func testPersist(t *testing.T, database db.KVDB, clock *ManualClock) {
	defer database.Close()
	requireFeature(t, database, db.FeatureExpire)

	Store(database, "key", []byte("v"), database.Now()+1000)
	database.Compute("key", func(e db.Entry, loaded bool) (db.Entry, db.Op) {
		e.ExpireAt = db.NoExpiry
		return e, db.OpStore
	})

	clock.Advance(time.Hour)
	time.Sleep(50 * time.Millisecond)
	if !database.Has("key") {
		t.Errorf("persisted key expired")
	}
}

func testRange(t *testing.T, database db.KVDB, clock *ManualClock) {
	defer database.Close()
	requireFeature(t, database, db.FeatureRange)

	for i := 0; i < 10; i++ {
		Store(database, fmt.Sprintf("k%d", i), []byte("v"), db.NoExpiry)
	}
	Store(database, "expiring", []byte("v"), database.Now()+10)
	clock.Advance(time.Second)

	seen := make(map[string]bool)
	database.Range(func(key string, _ db.Entry) bool {
		seen[key] = true
		return true
	})
	if len(seen) != 10 || seen["expiring"] {
		t.Errorf("Range() visited %d keys (expired included: %v), want 10", len(seen), seen["expiring"])
	}

	visited := 0
	database.Range(func(string, db.Entry) bool {
		visited++
		return visited < 3
	})
	if visited != 3 {
		t.Errorf("Range() visited %d keys after stop, want 3", visited)
	}
}

func testClear(t *testing.T, database db.KVDB) {
	defer database.Close()
	requireFeature(t, database, db.FeatureClear)

	for i := 0; i < 100; i++ {
		Store(database, fmt.Sprintf("k%d", i), []byte("v"), database.Now()+60_000)
	}
	database.Clear()
	if database.Len() != 0 {
		t.Errorf("Len() = %d after Clear(), want 0", database.Len())
	}
	Store(database, "k1", []byte("new"), db.NoExpiry)
	if v, ok := Load(database, "k1"); !ok || v != "new" {
		t.Errorf("Load() after Clear() = %q, %v", v, ok)
	}
}

func testConcurrentCompute(t *testing.T, database db.KVDB) {
	defer database.Close()

	const (
		workers    = 8
		increments = 500
	)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := 0; i < increments; i++ {
				database.Compute("counter", func(e db.Entry, loaded bool) (db.Entry, db.Op) {
					n := 0
					if loaded {
						n = len(e.Value.(BytesValue))
					}
					return db.Entry{Value: make(BytesValue, n+1)}, db.OpStore
				})
			}
		}()
	}
	wg.Wait()

	database.Compute("counter", func(e db.Entry, loaded bool) (db.Entry, db.Op) {
		if got := len(e.Value.(BytesValue)); got != workers*increments {
			t.Errorf("counter = %d, want %d", got, workers*increments)
		}
		return e, db.OpKeep
	})
}

func testInfo(t *testing.T, database db.KVDB) {
	defer database.Close()

	for i := 0; i < 50; i++ {
		expireAt := db.NoExpiry
		if i < 10 {
			expireAt = database.Now() + 60_000
		}
		Store(database, fmt.Sprintf("k%d", i), make([]byte, 100), expireAt)
	}

	info := database.GetInfo()
	if info.Keys != 50 {
		t.Errorf("GetInfo().Keys = %d, want 50", info.Keys)
	}
	if info.Expires <= 0 || info.Expires > 50 {
		t.Errorf("GetInfo().Expires = %d, want estimate of 10", info.Expires)
	}
	if info.SizeBytes <= 0 {
		t.Errorf("GetInfo().SizeBytes = %d, want > 0", info.SizeBytes)
	}
}
