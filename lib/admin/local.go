package admin

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/rKV/lib/store"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("admin")

// ClusterSlotCount is the number of hash slots of a Redis cluster
const ClusterSlotCount = 16384

// snapshot file names are dump-<db>.rkv
const (
	snapshotPrefix = "dump-"
	snapshotSuffix = ".rkv"
)

var (
	ErrNoDataDir       = store.NewError(store.RetCOperationFailed, "no data directory configured")
	ErrSaveInProgress  = store.NewError(store.RetCOperationFailed, "background save already in progress")
	ErrShutdownStarted = store.NewError(store.RetCOperationFailed, "shutdown already in progress")
)

var (
	savesTotal      = metrics.GetOrCreateCounter(`rkv_admin_saves_total{result="ok"}`)
	savesFailed     = metrics.GetOrCreateCounter(`rkv_admin_saves_total{result="error"}`)
	flushesTotal    = metrics.GetOrCreateCounter(`rkv_admin_flushes_total`)
	lastSaveSeconds = metrics.GetOrCreateFloatCounter(`rkv_admin_last_save_duration_seconds`)
)

// Config configures the local admin
type Config struct {
	// DataDir is the directory snapshots are written to (empty = persistence disabled)
	DataDir string
	// Endpoint is the address announced by CLUSTER SLOTS (host:port)
	Endpoint string
	// NodeID is announced by CLUSTER SLOTS
	NodeID string
	// Version is reported by INFO server
	Version string
	// OnShutdown is called once after a successful Shutdown
	OnShutdown func()
}

type localAdmin struct {
	conf     Config
	keyspace Keyspace
	started  time.Time

	saveMu    sync.Mutex // serializes snapshot writers
	saving    atomic.Bool
	scheduled atomic.Bool
	lastSave  atomic.Int64 // unix seconds of the last successful save
	saveOK    atomic.Bool  // result of the last save
	shutdown  atomic.Bool

	flushes sync.WaitGroup
}

// NewLocalAdmin creates the admin of a single node server
func NewLocalAdmin(conf Config, keyspace Keyspace) IAdmin {
	a := &localAdmin{
		conf:     conf,
		keyspace: keyspace,
		started:  time.Now(),
	}
	a.saveOK.Store(true)
	return a
}

// --------------------------------------------------------------------------
// Persistence
// --------------------------------------------------------------------------

func (a *localAdmin) Save() error {
	if a.conf.DataDir == "" {
		return ErrNoDataDir
	}

	a.saveMu.Lock()
	defer a.saveMu.Unlock()

	start := time.Now()
	if err := os.MkdirAll(a.conf.DataDir, 0o755); err != nil {
		return a.saveFailed(err)
	}

	var err error
	saved := 0
	a.keyspace.Range(func(db uint64, s store.IStore) bool {
		if err = writeSnapshot(a.snapshotPath(db), s); err != nil {
			return false
		}
		saved++
		return true
	})
	if err != nil {
		return a.saveFailed(err)
	}

	a.lastSave.Store(time.Now().Unix())
	a.saveOK.Store(true)
	savesTotal.Inc()
	lastSaveSeconds.Set(time.Since(start).Seconds())
	Logger.Infof("saved %d databases to %s in %s", saved, a.conf.DataDir, time.Since(start))
	return nil
}

func (a *localAdmin) saveFailed(err error) error {
	a.saveOK.Store(false)
	savesFailed.Inc()
	Logger.Errorf("save failed: %v", err)
	return store.NewError(store.RetCOperationFailed, err.Error())
}

func (a *localAdmin) BackgroundSave(schedule bool) (string, error) {
	if a.conf.DataDir == "" {
		return "", ErrNoDataDir
	}
	if a.saving.CompareAndSwap(false, true) {
		go a.runBackgroundSave()
		return "Background saving started", nil
	}
	if !schedule {
		return "", ErrSaveInProgress
	}
	a.scheduled.Store(true)
	return "Background saving scheduled", nil
}

// runBackgroundSave saves until no further save is scheduled
func (a *localAdmin) runBackgroundSave() {
	for {
		if err := a.Save(); err != nil {
			Logger.Warningf("background save: %v", err)
		}
		if a.scheduled.Swap(false) {
			continue
		}
		a.saving.Store(false)
		// a save scheduled between Swap and Store would otherwise be lost
		if !a.scheduled.Load() || !a.saving.CompareAndSwap(false, true) {
			return
		}
		a.scheduled.Store(false)
	}
}

func (a *localAdmin) LastSave() time.Time {
	if sec := a.lastSave.Load(); sec > 0 {
		return time.Unix(sec, 0)
	}
	return time.Time{}
}

func (a *localAdmin) snapshotPath(db uint64) string {
	return filepath.Join(a.conf.DataDir, snapshotPrefix+strconv.FormatUint(db, 10)+snapshotSuffix)
}

// writeSnapshot writes the snapshot of s to path. The file is replaced
// atomically, a failed write leaves the previous snapshot untouched.
func writeSnapshot(path string, s store.IStore) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	w := bufio.NewWriterSize(tmp, 64*1024)
	if err = s.Snapshot(w); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err = w.Flush(); err != nil {
		return fmt.Errorf("flush snapshot: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync snapshot: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

func (a *localAdmin) Restore() (int, error) {
	if a.conf.DataDir == "" {
		return 0, ErrNoDataDir
	}
	files, err := filepath.Glob(filepath.Join(a.conf.DataDir, snapshotPrefix+"*"+snapshotSuffix))
	if err != nil {
		return 0, err
	}

	restored := 0
	for _, path := range files {
		name := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(path), snapshotPrefix), snapshotSuffix)
		db, err := strconv.ParseUint(name, 10, 64)
		if err != nil {
			Logger.Warningf("ignoring snapshot with invalid name %s", path)
			continue
		}
		s, err := a.keyspace.Open(db)
		if err != nil {
			return restored, fmt.Errorf("restore %s: %w", path, err)
		}
		if err := readSnapshot(path, s); err != nil {
			return restored, fmt.Errorf("restore %s: %w", path, err)
		}
		restored++
	}
	Logger.Infof("restored %d databases from %s", restored, a.conf.DataDir)
	return restored, nil
}

func readSnapshot(path string, s store.IStore) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return s.Restore(bufio.NewReaderSize(f, 64*1024))
}

// --------------------------------------------------------------------------
// Lifecycle
// --------------------------------------------------------------------------

func (a *localAdmin) Shutdown(mode ShutdownMode) error {
	switch mode {
	case ShutdownSave:
		if err := a.Save(); err != nil {
			return err
		}
	case ShutdownDefault:
		if a.conf.DataDir != "" {
			if err := a.Save(); err != nil {
				return err
			}
		}
	}

	if !a.shutdown.CompareAndSwap(false, true) {
		return ErrShutdownStarted
	}
	a.flushes.Wait()
	Logger.Infof("shutdown requested")
	if a.conf.OnShutdown != nil {
		a.conf.OnShutdown()
	}
	return nil
}

func (a *localAdmin) FlushAll(async bool) error {
	var stores []store.IStore
	a.keyspace.Range(func(_ uint64, s store.IStore) bool {
		stores = append(stores, s)
		return true
	})
	flushesTotal.Inc()

	if !async {
		return flushStores(stores)
	}
	a.flushes.Add(1)
	go func() {
		defer a.flushes.Done()
		if err := flushStores(stores); err != nil {
			Logger.Errorf("async flush: %v", err)
		}
	}()
	return nil
}

func flushStores(stores []store.IStore) error {
	for _, s := range stores {
		if err := s.FlushAll(); err != nil {
			return err
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// Introspection
// --------------------------------------------------------------------------

func (a *localAdmin) ClusterSlots() ([]Slot, error) {
	host, port, err := splitEndpoint(a.conf.Endpoint)
	if err != nil {
		return nil, store.NewError(store.RetCOperationFailed, err.Error())
	}
	return []Slot{{
		Start:  0,
		End:    ClusterSlotCount - 1,
		Host:   host,
		Port:   port,
		NodeID: a.conf.NodeID,
	}}, nil
}

// splitEndpoint splits host:port. An endpoint without port (unix socket)
// reports port 0.
func splitEndpoint(endpoint string) (string, int64, error) {
	i := strings.LastIndexByte(endpoint, ':')
	if i < 0 {
		return endpoint, 0, nil
	}
	port, err := strconv.ParseInt(endpoint[i+1:], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("invalid endpoint %q", endpoint)
	}
	return endpoint[:i], port, nil
}

func (a *localAdmin) Time() time.Time {
	return time.Now()
}
