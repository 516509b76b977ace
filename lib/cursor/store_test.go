package cursor

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestAllocateIDMonotonic(t *testing.T) {
	s := NewStore()

	prev := uint64(0)
	for i := 0; i < 100; i++ {
		id := s.AllocateID()
		if id <= prev {
			t.Fatalf("AllocateID() = %d, want > %d", id, prev)
		}
		prev = id
	}
}

func TestAllocateIDConcurrentUnique(t *testing.T) {
	s := NewStore()

	const workers, perWorker = 8, 1000
	ids := make(chan uint64, workers*perWorker)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				ids <- s.AllocateID()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[uint64]bool, workers*perWorker)
	for id := range ids {
		if id == 0 {
			t.Fatal("AllocateID() returned reserved id 0")
		}
		if seen[id] {
			t.Fatalf("AllocateID() returned duplicate id %d", id)
		}
		seen[id] = true
	}
}

func TestSaveGetDelete(t *testing.T) {
	s := NewStore()
	id := s.AllocateID()

	payload := []byte("field-7")
	s.Save(id, payload)

	// the store must keep its own copy
	payload[0] = 'X'

	got, err := s.Get(id)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !bytes.Equal(got, []byte("field-7")) {
		t.Errorf("Get() = %q, want %q", got, "field-7")
	}

	s.Delete(id)
	if _, err := s.Get(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after Delete error = %v, want %v", err, ErrNotFound)
	}

	// deleting an unknown id is a no-op
	s.Delete(12345)
}

func TestTakeConsumesOnce(t *testing.T) {
	s := NewStore()
	id := s.AllocateID()
	s.Save(id, []byte("m"))

	if _, err := s.Take(id); err != nil {
		t.Fatalf("first Take() error = %v", err)
	}
	if _, err := s.Take(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Take() error = %v, want %v", err, ErrNotFound)
	}
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestTakeConcurrent(t *testing.T) {
	s := NewStore()
	id := s.AllocateID()
	s.Save(id, []byte("m"))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Take(id); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("Take() succeeded %d times, want 1", wins)
	}
}

func TestPrune(t *testing.T) {
	s := NewStore()
	now := time.Unix(1000, 0)
	s.now = func() time.Time { return now }

	old := s.AllocateID()
	s.Save(old, []byte("old"))

	now = now.Add(time.Minute)
	fresh := s.AllocateID()
	s.Save(fresh, []byte("fresh"))

	if n := s.Prune(0); n != 0 {
		t.Errorf("Prune(0) = %d, want 0", n)
	}
	if n := s.Prune(30 * time.Second); n != 1 {
		t.Errorf("Prune(30s) = %d, want 1", n)
	}
	if _, err := s.Get(old); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(old) error = %v, want %v", err, ErrNotFound)
	}
	if _, err := s.Get(fresh); err != nil {
		t.Errorf("Get(fresh) error = %v", err)
	}
}

func TestScratch(t *testing.T) {
	s := AcquireScratch()
	defer ReleaseScratch(s)

	got := s.Stage(func(dst []byte) []byte { return append(dst, "abc"...) })
	if string(got) != "abc" {
		t.Errorf("Stage() = %q, want %q", got, "abc")
	}

	s.Reset()
	if len(s.Bytes()) != 0 {
		t.Errorf("Bytes() after Reset() has length %d, want 0", len(s.Bytes()))
	}
	if s.Cap() < 3 {
		t.Errorf("Cap() = %d, want capacity to be kept", s.Cap())
	}
}

func TestScratchOversizedNotPooled(t *testing.T) {
	s := AcquireScratch()
	s.Append(make([]byte, MaxScratchSize+1)...)
	ReleaseScratch(s)

	// a pooled buffer is always small again, whichever one the pool hands out
	next := AcquireScratch()
	defer ReleaseScratch(next)
	if next.Cap() > MaxScratchSize {
		t.Errorf("AcquireScratch() returned buffer with cap %d, want <= %d", next.Cap(), MaxScratchSize)
	}
}
