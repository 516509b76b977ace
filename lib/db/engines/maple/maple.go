package maple

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/rKV/lib/db"
	"github.com/ValentinKolb/rKV/lib/db/engines/maple/internal"
	"github.com/ValentinKolb/rKV/lib/db/util"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("db")

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	defaultGCInterval     = 100 * time.Millisecond // Default interval between GC runs
	defaultEventQueueSize = 1 << 14                // Default capacity of the gc event queue per shard
	samplesPerShard       = 100                    // Entries sampled per shard by GetInfo
)

// --------------------------------------------------------------------------
// Core Maple database structure
// --------------------------------------------------------------------------

// mapleImpl implements a sharded in-memory keyspace with lazy and background expiry
type mapleImpl struct {
	shards []*internal.Shard
	clock  func() time.Time

	// garbage collection
	gcInterval time.Duration
	stop       chan struct{}
	gcDone     sync.WaitGroup
	closed     atomic.Bool
}

// DBOptions configures the mapleImpl behavior during initialization
type DBOptions struct {
	NumShards      int              // Number of shards (0 = number of CPUs)
	GCInterval     time.Duration    // Time between GC runs (0 = default: 100ms)
	EventQueueSize int              // Capacity of the gc event queue per shard (0 = default)
	Clock          func() time.Time // Time source (nil = time.Now)
}

// DefaultOptions returns the default mapleImpl options
func DefaultOptions() *DBOptions {
	return &DBOptions{
		NumShards:      runtime.NumCPU(),
		GCInterval:     defaultGCInterval,
		EventQueueSize: defaultEventQueueSize,
		Clock:          time.Now,
	}
}

// --------------------------------------------------------------------------
// Initialization and Setup
// --------------------------------------------------------------------------

// NewMapleDB creates a new MapleDB instance with the specified options (optional)
// and starts one garbage collection goroutine per shard.
func NewMapleDB(opts *DBOptions) db.KVDB {
	if opts == nil {
		opts = DefaultOptions()
	}

	numShards := opts.NumShards
	if numShards <= 0 {
		numShards = runtime.NumCPU()
	}
	queueSize := opts.EventQueueSize
	if queueSize <= 0 {
		queueSize = defaultEventQueueSize
	}

	shards := make([]*internal.Shard, numShards)
	for i := range shards {
		shards[i] = internal.NewShard(queueSize)
	}

	newDB := &mapleImpl{
		shards:     shards,
		clock:      opts.Clock,
		gcInterval: opts.GCInterval,
		stop:       make(chan struct{}),
	}
	if newDB.clock == nil {
		newDB.clock = time.Now
	}
	if newDB.gcInterval <= 0 {
		newDB.gcInterval = defaultGCInterval
	}

	newDB.startGC()
	return newDB
}

func (maple *mapleImpl) shard(key string) *internal.Shard {
	return internal.GetShard(key, maple.shards)
}

// Now returns the current time of the database clock in unix milliseconds
func (maple *mapleImpl) Now() int64 {
	return maple.clock().UnixMilli()
}

// --------------------------------------------------------------------------
// Core KVDB Interface Methods - Atomic Operations
// --------------------------------------------------------------------------

// Compute atomically reads and updates the entry for key.
// Expired entries are passed to fn as missing and removed if fn keeps them.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
// fn must not call back into the database for keys of the same shard.
func (maple *mapleImpl) Compute(key string, fn db.ComputeFunc) {
	shard := maple.shard(key)
	now := maple.Now()

	// add gc event after the entry is updated
	var event *internal.Event

	shard.Data.Compute(key, func(old db.Entry, exists bool) (db.Entry, bool) {
		loaded := exists && !old.ExpiredAt(now)

		// fn only ever sees live entries
		in := old
		if !loaded {
			in = db.Entry{}
		}

		entry, op := fn(in, loaded)
		hadExpiry := exists && old.ExpireAt != db.NoExpiry

		switch op {
		case db.OpStore:
			if entry.ExpireAt != db.NoExpiry {
				event = &internal.Event{Type: internal.EventTWrite, Key: key, ExpireAt: entry.ExpireAt}
			} else if hadExpiry {
				event = &internal.Event{Type: internal.EventTDelete, Key: key}
			}
			return entry, false

		case db.OpDelete:
			if hadExpiry {
				event = &internal.Event{Type: internal.EventTDelete, Key: key}
			}
			return old, true

		default:
			// lazily remove an expired entry
			if exists && !loaded {
				event = &internal.Event{Type: internal.EventTDelete, Key: key}
				return old, true
			}
			// returning delete for a missing key prevents it from being created
			return old, !exists
		}
	})

	if event != nil {
		shard.Notify(*event)
	}
}

// Delete removes an entry and returns whether a live entry was removed
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Delete(key string) bool {
	var deleted bool
	maple.Compute(key, func(_ db.Entry, loaded bool) (db.Entry, db.Op) {
		deleted = loaded
		return db.Entry{}, db.OpDelete
	})
	return deleted
}

// Has checks if a live entry exists for key
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (maple *mapleImpl) Has(key string) bool {
	e, ok := maple.shard(key).Data.Load(key)
	return ok && !e.ExpiredAt(maple.Now())
}

// --------------------------------------------------------------------------
// Iteration and Maintenance
// --------------------------------------------------------------------------

// Range calls fn for every live entry until fn returns false
//
// Thread-safety: This method is thread-safe. Entries changed during
// iteration may or may not be visited.
func (maple *mapleImpl) Range(fn func(key string, e db.Entry) bool) {
	now := maple.Now()
	for _, shard := range maple.shards {
		cont := true
		shard.Data.Range(func(key string, e db.Entry) bool {
			if e.ExpiredAt(now) {
				return true
			}
			cont = fn(key, e)
			return cont
		})
		if !cont {
			return
		}
	}
}

// Len returns the number of stored entries
func (maple *mapleImpl) Len() int {
	n := 0
	for _, shard := range maple.shards {
		n += shard.Data.Size()
	}
	return n
}

// Clear removes all entries
//
// Thread-safety: This method is thread-safe. Writes running concurrently
// with Clear may survive it.
func (maple *mapleImpl) Clear() {
	for _, shard := range maple.shards {
		shard.Data.Clear()
		shard.Notify(internal.Event{Type: internal.EventTClear})
	}
}

// --------------------------------------------------------------------------
// Garbage Collection
// --------------------------------------------------------------------------

// startGC starts one garbage collection goroutine per shard
func (maple *mapleImpl) startGC() {
	maple.gcDone.Add(len(maple.shards))
	for _, shard := range maple.shards {
		go func(s *internal.Shard) {
			defer maple.gcDone.Done()

			ticker := time.NewTicker(maple.gcInterval)
			defer ticker.Stop()

			for {
				select {
				case <-maple.stop:
					return
				case <-ticker.C:
					maple.collect(s)
				}
			}
		}(shard)
	}
}

// collect runs one gc cycle for a shard: apply queued events to the expire
// heap, then remove every entry whose expiration time has passed.
//
// Thread-safety: This function must only be called by the gc goroutine of the shard.
func (maple *mapleImpl) collect(shard *internal.Shard) int {
	for {
		ev, ok := shard.Events.TryDequeue()
		if !ok {
			break
		}
		switch ev.Type {
		case internal.EventTWrite:
			shard.ExpireHeap.AddItem(ev.Key, ev.ExpireAt)
		case internal.EventTDelete:
			shard.ExpireHeap.RemoveByKey(ev.Key)
		case internal.EventTClear:
			shard.ExpireHeap.Clear()
		}
	}

	// events were lost, rebuild the heap from the data
	if shard.Overflow.CompareAndSwap(true, false) {
		Logger.Warningf("gc event queue overflow, rebuilding expire heap of shard (%d entries)", shard.Data.Size())
		shard.ExpireHeap.Clear()
		shard.Data.Range(func(key string, e db.Entry) bool {
			if e.ExpireAt != db.NoExpiry {
				shard.ExpireHeap.AddItem(key, e.ExpireAt)
			}
			return true
		})
	}

	/*
		Note: the time is read once per cycle so that entries expiring while the
		cycle runs are left for the next cycle.
	*/
	now := maple.Now()
	removed := 0

	for {
		item, exists := shard.ExpireHeap.Peek()
		if !exists || item.Priority > now {
			break
		}
		key := item.Key
		shard.ExpireHeap.RemoveByKey(key)

		/*
			Note: the entry may have been updated since the event was queued. We
			double-check the expiration under the lock. If the expiration time
			moved, the write queued a new event and the entry is tracked again.
		*/
		shard.Data.Compute(key, func(e db.Entry, loaded bool) (db.Entry, bool) {
			if !loaded || !e.ExpiredAt(now) {
				return e, !loaded
			}
			removed++
			return e, true
		})
	}

	return removed
}

// --------------------------------------------------------------------------
// KVDB Interface Implementation - Features and Metadata
// --------------------------------------------------------------------------

// GetInfo returns statistics about the database. Sizes are estimated from a
// sample of entries per shard.
func (maple *mapleImpl) GetInfo() db.DatabaseInfo {
	now := maple.Now()

	histogram := util.NewSizeHistogram()
	shardSizes := make([]float64, len(maple.shards))

	var (
		wg             sync.WaitGroup
		mu             sync.Mutex
		samplesCount   int
		expiringCount  int
		expiredBacklog int
	)
	wg.Add(len(maple.shards))

	for shardIndex, shard := range maple.shards {
		go func(i int, s *internal.Shard) {
			defer wg.Done()
			count, expiring, expired := 0, 0, 0
			s.Data.Range(func(_ string, e db.Entry) bool {
				if e.Value != nil {
					histogram.AddSample(e.Value.SizeBytes())
				}
				if e.ExpireAt != db.NoExpiry {
					expiring++
				}
				if e.ExpiredAt(now) {
					expired++
				}
				count++
				return count < samplesPerShard
			})

			mu.Lock()
			defer mu.Unlock()
			samplesCount += count
			expiringCount += expiring
			expiredBacklog += expired
			shardSizes[i] = float64(s.Data.Size())
		}(shardIndex, shard)
	}
	wg.Wait()

	keys := 0
	for _, size := range shardSizes {
		keys += int(size)
	}

	// weighted estimate (60% median, 40% average) per entry
	entryOverhead := 48 // key header, expiration time and map bookkeeping
	perEntry := (histogram.MedianEstimate()*60+histogram.AverageSize()*40)/100 + entryOverhead

	// extrapolate the expiring share of the samples to all keys
	expires := 0
	backlog := 0.0
	if samplesCount > 0 {
		expires = expiringCount * keys / samplesCount
		backlog = float64(expiredBacklog) / float64(samplesCount)
	}

	meta := &struct {
		ShardCount        int                    `json:"shard_count"`
		ShardDistribution util.DistributionStats `json:"shard_distribution"`
		ExpiredBacklog    float64                `json:"expired_backlog"`
		P90ValueSize      int                    `json:"p90_value_size"`
		Info              string                 `json:"info"`
	}{
		ShardCount:        len(maple.shards),
		ShardDistribution: util.NewDistributionStats(shardSizes),
		ExpiredBacklog:    backlog,
		P90ValueSize:      histogram.GetPercentileEstimate(90),
		Info:              "All values (including SizeBytes) are estimates and may vary depending on the database state.",
	}

	return db.DatabaseInfo{
		SizeBytes: perEntry * keys,
		Keys:      keys,
		Expires:   expires,
		DbType:    db.ImplMaple,
		SupportedFeatures: []db.Feature{
			db.FeatureCompute, db.FeatureExpire, db.FeatureRange,
			db.FeatureClear, db.FeatureGarbageCollect,
		},
		Metadata: meta,
	}
}

// SupportsFeature checks if this implementation supports a specific KVDB feature
func (maple *mapleImpl) SupportsFeature(feature db.Feature) bool {
	supportedFeatures := db.FeatureCompute |
		db.FeatureExpire |
		db.FeatureRange |
		db.FeatureClear |
		db.FeatureGarbageCollect
	return supportedFeatures&feature == feature
}

// Close stops the garbage collector and waits until all gc goroutines returned
func (maple *mapleImpl) Close() error {
	if maple.closed.CompareAndSwap(false, true) {
		close(maple.stop)
		maple.gcDone.Wait()
	}
	return nil
}
