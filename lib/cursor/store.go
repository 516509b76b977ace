package cursor

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("cursor")

// ErrNotFound is returned for ids that were never allocated, already consumed or pruned
var ErrNotFound = errors.New("cursor not found")

// entry is the saved "last seen" payload of one in-progress scan
type entry struct {
	payload []byte
	savedAt int64 // unix nanos
}

// Store maps scan cursor ids to the last element returned by the previous page.
// Id 0 is never allocated: it means "no cursor" (start) or "scan complete" (end).
//
// Thread-safety: All methods are thread-safe and can be called concurrently.
type Store struct {
	ids     atomic.Uint64
	entries *xsync.MapOf[uint64, entry]
	now     func() time.Time
}

// NewStore creates an empty cursor store
func NewStore() *Store {
	return &Store{
		entries: xsync.NewMapOf[uint64, entry](),
		now:     time.Now,
	}
}

// AllocateID returns a new globally unique, monotonically increasing cursor id
func (s *Store) AllocateID() uint64 {
	return s.ids.Add(1)
}

// Save binds a copy of payload to the id
func (s *Store) Save(id uint64, payload []byte) {
	saved := make([]byte, len(payload))
	copy(saved, payload)
	s.entries.Store(id, entry{payload: saved, savedAt: s.now().UnixNano()})
}

// Get returns the payload of the id without consuming it
func (s *Store) Get(id uint64) ([]byte, error) {
	e, ok := s.entries.Load(id)
	if !ok {
		return nil, ErrNotFound
	}
	return e.payload, nil
}

// Delete removes the id, it is a no-op for unknown ids
func (s *Store) Delete(id uint64) {
	s.entries.Delete(id)
}

// Take atomically returns and deletes the payload of the id. A cursor can be
// taken exactly once, concurrent resumes of the same id see ErrNotFound.
func (s *Store) Take(id uint64) ([]byte, error) {
	e, ok := s.entries.LoadAndDelete(id)
	if !ok {
		return nil, ErrNotFound
	}
	return e.payload, nil
}

// Len returns the number of in-progress cursors
func (s *Store) Len() int {
	return s.entries.Size()
}

// Prune removes cursors saved more than maxAge ago and returns how many were removed.
// A non-positive maxAge disables pruning.
func (s *Store) Prune(maxAge time.Duration) int {
	if maxAge <= 0 {
		return 0
	}
	deadline := s.now().Add(-maxAge).UnixNano()
	removed := 0
	s.entries.Range(func(id uint64, e entry) bool {
		if e.savedAt < deadline {
			// compute guards against deleting an entry re-saved in between
			s.entries.Compute(id, func(cur entry, loaded bool) (entry, bool) {
				if loaded && cur.savedAt < deadline {
					removed++
					return cur, true
				}
				return cur, !loaded
			})
		}
		return true
	})
	if removed > 0 {
		Logger.Debugf("pruned %d orphaned cursors", removed)
	}
	return removed
}
