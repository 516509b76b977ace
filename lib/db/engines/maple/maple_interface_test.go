package maple

import (
	"testing"
	"time"

	"github.com/ValentinKolb/rKV/lib/db"
	dbtesting "github.com/ValentinKolb/rKV/lib/db/testing"
)

func newTestDB(clock func() time.Time) db.KVDB {
	return NewMapleDB(&DBOptions{
		NumShards:  4,
		GCInterval: 5 * time.Millisecond,
		Clock:      clock,
	})
}

func Test(t *testing.T) {
	dbtesting.RunKVDBTests(t, "MapleDB", newTestDB)
}

func Benchmark(b *testing.B) {
	dbtesting.RunKVDBBenchmarks(b, "MapleDB", func(clock func() time.Time) db.KVDB {
		return NewMapleDB(&DBOptions{Clock: clock})
	})
}

// TestEventQueueOverflow tests that lost gc events are recovered by a full rebuild
func TestEventQueueOverflow(t *testing.T) {
	clock := dbtesting.NewManualClock()
	database := NewMapleDB(&DBOptions{
		NumShards:      1,
		GCInterval:     time.Hour, // gc is driven manually
		EventQueueSize: 4,
		Clock:          clock.Now,
	})
	defer database.Close()

	impl := database.(*mapleImpl)
	for i := 0; i < 100; i++ {
		dbtesting.Store(database, string(rune('a'+i%26))+string(rune('0'+i/26)), []byte("v"), database.Now()+1000)
	}
	if !impl.shards[0].Overflow.Load() {
		t.Fatalf("Overflow flag not set after queue overflow")
	}

	clock.Advance(2 * time.Second)
	if removed := impl.collect(impl.shards[0]); removed != 100 {
		t.Errorf("collect() removed %d entries, want 100", removed)
	}
	if database.Len() != 0 {
		t.Errorf("Len() = %d after collect(), want 0", database.Len())
	}
}

// TestCollectSkipsUpdatedEntries tests that an entry whose expiration moved is not removed
func TestCollectSkipsUpdatedEntries(t *testing.T) {
	clock := dbtesting.NewManualClock()
	database := NewMapleDB(&DBOptions{NumShards: 1, GCInterval: time.Hour, Clock: clock.Now})
	defer database.Close()
	impl := database.(*mapleImpl)

	dbtesting.Store(database, "key", []byte("v"), database.Now()+1000)
	impl.collect(impl.shards[0])
	dbtesting.Store(database, "key", []byte("v"), database.Now()+10_000)

	clock.Advance(2 * time.Second)
	if removed := impl.collect(impl.shards[0]); removed != 0 {
		t.Errorf("collect() removed %d entries, want 0", removed)
	}
	if !database.Has("key") {
		t.Errorf("updated entry was removed")
	}

	clock.Advance(10 * time.Second)
	if removed := impl.collect(impl.shards[0]); removed != 1 {
		t.Errorf("collect() removed %d entries, want 1", removed)
	}
}
