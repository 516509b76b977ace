package testing

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/ValentinKolb/rKV/lib/db"
)

// RunKVDBBenchmarks runs all benchmarks for a KVDB implementation
func RunKVDBBenchmarks(b *testing.B, name string, factory DBFactory) {
	b.Run(name+"/Store", func(b *testing.B) {
		benchmarkStore(b, factory(time.Now), false)
	})

	b.Run(name+"/StoreWithExpiry", func(b *testing.B) {
		benchmarkStore(b, factory(time.Now), true)
	})

	b.Run(name+"/Load", func(b *testing.B) {
		benchmarkLoad(b, factory(time.Now))
	})

	b.Run(name+"/Has(not)", func(b *testing.B) {
		benchmarkHasNot(b, factory(time.Now))
	})

	b.Run(name+"/MixedUsage", func(b *testing.B) {
		benchmarkMixedUsage(b, factory(time.Now))
	})
}

func benchmarkKeys(n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("bench-key-%d", i)
	}
	return keys
}

func benchmarkStore(b *testing.B, database db.KVDB, withExpiry bool) {
	defer database.Close()
	keys := benchmarkKeys(10_000)
	value := []byte("benchmark-value")

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := rand.Intn(len(keys))
		for pb.Next() {
			expireAt := db.NoExpiry
			if withExpiry {
				expireAt = database.Now() + 60_000
			}
			Store(database, keys[i%len(keys)], value, expireAt)
			i++
		}
	})
}

func benchmarkLoad(b *testing.B, database db.KVDB) {
	defer database.Close()
	keys := benchmarkKeys(10_000)
	for _, key := range keys {
		Store(database, key, []byte("benchmark-value"), db.NoExpiry)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := rand.Intn(len(keys))
		for pb.Next() {
			if _, ok := Load(database, keys[i%len(keys)]); !ok {
				b.Errorf("key not found")
			}
			i++
		}
	})
}

func benchmarkHasNot(b *testing.B, database db.KVDB) {
	defer database.Close()
	keys := benchmarkKeys(10_000)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			database.Has(keys[i%len(keys)])
			i++
		}
	})
}

// benchmarkMixedUsage runs 80% reads, 15% writes and 5% deletes
func benchmarkMixedUsage(b *testing.B, database db.KVDB) {
	defer database.Close()
	keys := benchmarkKeys(10_000)
	value := []byte("benchmark-value")

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		r := rand.New(rand.NewSource(rand.Int63()))
		for pb.Next() {
			key := keys[r.Intn(len(keys))]
			switch p := r.Intn(100); {
			case p < 80:
				Load(database, key)
			case p < 95:
				Store(database, key, value, db.NoExpiry)
			default:
				database.Delete(key)
			}
		}
	})
}
