package admin

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/rKV/lib/db"
	"github.com/ValentinKolb/rKV/lib/db/engines/maple"
	"github.com/ValentinKolb/rKV/lib/store"
	"github.com/ValentinKolb/rKV/lib/store/lstore"
)

// testKeyspace is a fixed size keyspace backed by local stores
type testKeyspace struct {
	mu     sync.Mutex
	stores map[uint64]store.IStore
	size   uint64
}

func newTestKeyspace(t *testing.T, size uint64) *testKeyspace {
	t.Helper()
	k := &testKeyspace{stores: make(map[uint64]store.IStore), size: size}
	t.Cleanup(func() {
		for _, s := range k.stores {
			_ = s.Close()
		}
	})
	return k
}

func (k *testKeyspace) Range(fn func(db uint64, s store.IStore) bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	for i := uint64(0); i < k.size; i++ {
		if s, ok := k.stores[i]; ok && !fn(i, s) {
			return
		}
	}
}

func (k *testKeyspace) Open(index uint64) (store.IStore, error) {
	if index >= k.size {
		return nil, errors.New("database index out of range")
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if s, ok := k.stores[index]; ok {
		return s, nil
	}
	s := lstore.NewLocalStore(func() db.KVDB {
		return maple.NewMapleDB(&maple.DBOptions{NumShards: 2, GCInterval: time.Hour, Clock: time.Now})
	})
	k.stores[index] = s
	return s, nil
}

func mustOpen(t *testing.T, k Keyspace, index uint64) store.IStore {
	t.Helper()
	s, err := k.Open(index)
	if err != nil {
		t.Fatalf("Open(%d) failed: %v", index, err)
	}
	return s
}

func TestSaveRestore(t *testing.T) {
	dir := t.TempDir()
	src := newTestKeyspace(t, 4)

	s0 := mustOpen(t, src, 0)
	s2 := mustOpen(t, src, 2)
	_ = s0.MSet([]byte("a"), []byte("1"), []byte("b"), []byte("2"))
	_, _ = s2.HSet([]byte("h"), []byte("f"), []byte("v"))

	adm := NewLocalAdmin(Config{DataDir: dir}, src)
	if err := adm.Save(); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if adm.LastSave().IsZero() {
		t.Errorf("LastSave() is zero after Save()")
	}

	files, _ := filepath.Glob(filepath.Join(dir, "*"))
	if len(files) != 2 {
		t.Fatalf("data dir holds %d files, want 2: %v", len(files), files)
	}

	dst := newTestKeyspace(t, 4)
	restored, err := NewLocalAdmin(Config{DataDir: dir}, dst).Restore()
	if err != nil {
		t.Fatalf("Restore() failed: %v", err)
	}
	if restored != 2 {
		t.Errorf("Restore() = %d, want 2", restored)
	}

	if v, ok, _ := mustOpen(t, dst, 0).Get([]byte("b")); !ok || string(v) != "2" {
		t.Errorf("Get(b) = %q, %v, want \"2\", true", v, ok)
	}
	if v, ok, _ := mustOpen(t, dst, 2).HGet([]byte("h"), []byte("f")); !ok || string(v) != "v" {
		t.Errorf("HGet(h, f) = %q, %v, want \"v\", true", v, ok)
	}
}

func TestRestoreRejectsUnknownDatabase(t *testing.T) {
	dir := t.TempDir()
	src := newTestKeyspace(t, 8)
	_ = mustOpen(t, src, 5).MSet([]byte("k"), []byte("v"))
	if err := NewLocalAdmin(Config{DataDir: dir}, src).Save(); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	if _, err := NewLocalAdmin(Config{DataDir: dir}, newTestKeyspace(t, 2)).Restore(); err == nil {
		t.Errorf("Restore() into a smaller keyspace succeeded, want error")
	}
}

func TestNoDataDir(t *testing.T) {
	adm := NewLocalAdmin(Config{}, newTestKeyspace(t, 1))

	if err := adm.Save(); !errors.Is(err, ErrNoDataDir) {
		t.Errorf("Save() error = %v, want %v", err, ErrNoDataDir)
	}
	if _, err := adm.BackgroundSave(false); !errors.Is(err, ErrNoDataDir) {
		t.Errorf("BackgroundSave() error = %v, want %v", err, ErrNoDataDir)
	}
	if err := adm.Shutdown(ShutdownSave); !errors.Is(err, ErrNoDataDir) {
		t.Errorf("Shutdown(SAVE) error = %v, want %v", err, ErrNoDataDir)
	}
}

func TestBackgroundSave(t *testing.T) {
	dir := t.TempDir()
	keyspace := newTestKeyspace(t, 1)
	_ = mustOpen(t, keyspace, 0).MSet([]byte("k"), []byte("v"))

	adm := NewLocalAdmin(Config{DataDir: dir}, keyspace).(*localAdmin)

	// hold the save lock so the background save cannot finish
	adm.saveMu.Lock()
	status, err := adm.BackgroundSave(false)
	if err != nil || status != "Background saving started" {
		t.Fatalf("BackgroundSave() = %q, %v", status, err)
	}
	if _, err := adm.BackgroundSave(false); !errors.Is(err, ErrSaveInProgress) {
		t.Errorf("second BackgroundSave() error = %v, want %v", err, ErrSaveInProgress)
	}
	if status, err := adm.BackgroundSave(true); err != nil || status != "Background saving scheduled" {
		t.Errorf("BackgroundSave(SCHEDULE) = %q, %v", status, err)
	}
	adm.saveMu.Unlock()

	deadline := time.Now().Add(5 * time.Second)
	for adm.saving.Load() {
		if time.Now().After(deadline) {
			t.Fatalf("background save did not finish")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if _, err := os.Stat(filepath.Join(dir, "dump-0.rkv")); err != nil {
		t.Errorf("snapshot file missing: %v", err)
	}
}

func TestShutdown(t *testing.T) {
	dir := t.TempDir()
	keyspace := newTestKeyspace(t, 1)
	_ = mustOpen(t, keyspace, 0).MSet([]byte("k"), []byte("v"))

	called := 0
	adm := NewLocalAdmin(Config{DataDir: dir, OnShutdown: func() { called++ }}, keyspace)

	if err := adm.Shutdown(ShutdownDefault); err != nil {
		t.Fatalf("Shutdown() failed: %v", err)
	}
	if called != 1 {
		t.Errorf("OnShutdown called %d times, want 1", called)
	}
	if _, err := os.Stat(filepath.Join(dir, "dump-0.rkv")); err != nil {
		t.Errorf("Shutdown() did not save: %v", err)
	}
	if err := adm.Shutdown(ShutdownNoSave); !errors.Is(err, ErrShutdownStarted) {
		t.Errorf("second Shutdown() error = %v, want %v", err, ErrShutdownStarted)
	}
}

func TestFlushAll(t *testing.T) {
	for _, async := range []bool{false, true} {
		keyspace := newTestKeyspace(t, 3)
		for i := uint64(0); i < 3; i++ {
			_ = mustOpen(t, keyspace, i).MSet([]byte("k"), []byte("v"))
		}
		adm := NewLocalAdmin(Config{}, keyspace).(*localAdmin)

		if err := adm.FlushAll(async); err != nil {
			t.Fatalf("FlushAll(%v) failed: %v", async, err)
		}
		adm.flushes.Wait()

		keyspace.Range(func(db uint64, s store.IStore) bool {
			if n, _ := s.DBSize(); n != 0 {
				t.Errorf("FlushAll(%v): db %d holds %d keys, want 0", async, db, n)
			}
			return true
		})
	}
}

func TestInfo(t *testing.T) {
	keyspace := newTestKeyspace(t, 2)
	_ = mustOpen(t, keyspace, 1).MSet([]byte("a"), []byte("1"), []byte("b"), []byte("2"))
	adm := NewLocalAdmin(Config{Version: "test"}, keyspace)

	tests := []struct {
		section string
		want    []string
		absent  []string
	}{
		{"", []string{"# Server", "# Memory", "# Keyspace", "rkv_version:test"}, nil},
		{"server", []string{"# Server", "uptime_in_seconds:"}, []string{"# Memory"}},
		{"memory", []string{"# Memory", "used_memory:"}, []string{"# Server"}},
		{"keyspace", []string{"db1:keys=2,expires=0"}, []string{"db0:"}},
		{"stats", []string{"rdb_bgsave_in_progress:0"}, nil},
	}
	for _, tt := range tests {
		t.Run("section "+tt.section, func(t *testing.T) {
			info, err := adm.Info(tt.section)
			if err != nil {
				t.Fatalf("Info(%q) failed: %v", tt.section, err)
			}
			for _, w := range tt.want {
				if !strings.Contains(info, w) {
					t.Errorf("Info(%q) misses %q:\n%s", tt.section, w, info)
				}
			}
			for _, a := range tt.absent {
				if strings.Contains(info, a) {
					t.Errorf("Info(%q) contains %q", tt.section, a)
				}
			}
		})
	}

	if _, err := adm.Info("nope"); err == nil {
		t.Errorf("Info(nope) succeeded, want error")
	}
}

func TestClusterSlots(t *testing.T) {
	tests := []struct {
		endpoint string
		host     string
		port     int64
		wantErr  bool
	}{
		{"localhost:6380", "localhost", 6380, false},
		{"/tmp/rkv.sock", "/tmp/rkv.sock", 0, false},
		{"host:abc", "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			slots, err := NewLocalAdmin(Config{Endpoint: tt.endpoint}, newTestKeyspace(t, 1)).ClusterSlots()
			if (err != nil) != tt.wantErr {
				t.Fatalf("ClusterSlots() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(slots) != 1 || slots[0].Start != 0 || slots[0].End != ClusterSlotCount-1 {
				t.Fatalf("ClusterSlots() = %+v, want one slot 0..%d", slots, ClusterSlotCount-1)
			}
			if slots[0].Host != tt.host || slots[0].Port != tt.port {
				t.Errorf("ClusterSlots() host = %s:%d, want %s:%d", slots[0].Host, slots[0].Port, tt.host, tt.port)
			}
		})
	}
}

func TestHumanBytes(t *testing.T) {
	tests := map[uint64]string{
		512:             "512B",
		1024:            "1.00K",
		1536:            "1.50K",
		3 * 1024 * 1024: "3.00M",
	}
	for n, want := range tests {
		if got := humanBytes(n); got != want {
			t.Errorf("humanBytes(%d) = %q, want %q", n, got, want)
		}
	}
}
