package internal

import (
	"fmt"
	"sync/atomic"

	"github.com/ValentinKolb/rKV/lib/db"
	"github.com/ValentinKolb/rKV/lib/db/util"
	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Event Types are used to signal changes in the database state
// --------------------------------------------------------------------------

type EventType int

const (
	EventTWrite  EventType = iota // entry stored with an expiration time
	EventTDelete                  // entry with an expiration time removed or persisted
	EventTClear                   // all entries of the shard removed
)

func (e EventType) String() string {
	switch e {
	case EventTWrite:
		return "Write"
	case EventTDelete:
		return "Delete"
	case EventTClear:
		return "Clear"
	default:
		return "Unknown"
	}
}

type Event struct {
	Type     EventType
	Key      string
	ExpireAt int64
}

func (e Event) String() string {
	return fmt.Sprintf("Event{Type: %s, Key: %q, ExpireAt: %d}", e.Type, e.Key, e.ExpireAt)
}

// --------------------------------------------------------------------------
// Shard Type (partition of the database)
// --------------------------------------------------------------------------

// Shard represents a partition of the database.
// Data is safe for concurrent use. ExpireHeap is owned by the gc goroutine of
// the shard and must never be accessed by any other goroutine.
type Shard struct {
	Data       *xsync.MapOf[string, db.Entry]
	ExpireHeap *util.MapHeap[string]
	Events     *xsync.MPMCQueueOf[Event]

	// Overflow is set when an event could not be queued. The gc then rebuilds
	// the expire heap from Data instead of trusting the event stream.
	Overflow atomic.Bool
}

// NewShard creates a new shard whose event queue holds up to queueSize events
func NewShard(queueSize int) *Shard {
	return &Shard{
		Data:       xsync.NewMapOf[string, db.Entry](),
		ExpireHeap: util.NewMapHeap[string](),
		Events:     xsync.NewMPMCQueueOf[Event](queueSize),
	}
}

// Notify queues a gc event without blocking the writer
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (s *Shard) Notify(ev Event) {
	if !s.Events.TryEnqueue(ev) {
		s.Overflow.Store(true)
	}
}

// GetShard returns the appropriate shard for a given key
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func GetShard[T any](key string, shards []*T) *T {
	return shards[util.ShardIndex(key, len(shards))]
}
