package server

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/ValentinKolb/rKV/lib/admin"
	"github.com/ValentinKolb/rKV/lib/cursor"
	"github.com/ValentinKolb/rKV/lib/db"
	"github.com/ValentinKolb/rKV/lib/db/engines/maple"
	"github.com/ValentinKolb/rKV/lib/store"
	"github.com/ValentinKolb/rKV/lib/store/lstore"
	"github.com/ValentinKolb/rKV/rpc/codec"
	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
	"github.com/puzpuzpuz/xsync/v3"
)

// Version is reported by INFO
var Version = "dev"

// database is one logical database of the server: the store it encapsulates
// and the dispatcher that executes requests against it
type database struct {
	Store      store.IStore
	Dispatcher *Dispatcher
}

// NewRPCServer creates a new RPC server
// It takes a config and a transport as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		tcp.NewTCPServerTransport(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	 }
func NewRPCServer(config common.ServerConfig, transport transport.IRPCServerTransport) *rpcServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	s := &rpcServer{
		config:    config,
		transport: transport,
		registry:  NewRegistry(),
		cursors:   cursor.NewStore(),
		databases: xsync.NewMapOf[uint64, *database](),
		done:      make(chan struct{}),
	}
	s.dbFactory = func() db.KVDB {
		return maple.NewMapleDB(&maple.DBOptions{GCInterval: config.ExpiryInterval})
	}
	s.admin = admin.NewLocalAdmin(admin.Config{
		DataDir:    config.DataDir,
		Endpoint:   config.Transport.Endpoint,
		NodeID:     fmt.Sprintf("%040x", os.Getpid()),
		Version:    Version,
		OnShutdown: s.stop,
	}, s)
	return s
}

type rpcServer struct {
	config    common.ServerConfig
	transport transport.IRPCServerTransport
	dbFactory store.DBFactory
	registry  *Registry
	cursors   *cursor.Store
	admin     admin.IAdmin
	databases *xsync.MapOf[uint64, *database]

	done     chan struct{}
	stopOnce sync.Once
}

// --------------------------------------------------------------------------
// Keyspace (admin.Keyspace)
// --------------------------------------------------------------------------

// Range calls fn for every open database in index order
func (s *rpcServer) Range(fn func(index uint64, st store.IStore) bool) {
	for i := uint64(0); i < uint64(s.config.Databases); i++ {
		if d, ok := s.databases.Load(i); ok && !fn(i, d.Store) {
			return
		}
	}
}

// Open returns the store of a database, creating it on first use
func (s *rpcServer) Open(index uint64) (store.IStore, error) {
	d, err := s.database(index)
	if err != nil {
		return nil, err
	}
	return d.Store, nil
}

func (s *rpcServer) database(index uint64) (*database, error) {
	if index >= uint64(s.config.Databases) {
		return nil, common.IllegalArgs(fmt.Sprintf("%d", index)).WithDetail("(database index out of range)")
	}
	d, _ := s.databases.LoadOrCompute(index, func() *database {
		st := lstore.NewLocalStore(s.dbFactory)
		Logger.Infof("created database %d", index)
		return &database{
			Store: st,
			Dispatcher: NewDispatcher(DispatcherConfig{
				Registry: s.registry,
				Store:    st,
				Admin:    s.admin,
				Cursors:  s.cursors,
				DB:       index,
			}),
		}
	})
	return d, nil
}

// --------------------------------------------------------------------------
// Lifecycle
// --------------------------------------------------------------------------

func (s *rpcServer) registerTransportHandler() {
	s.transport.RegisterHandler(func(index uint64, req []byte) []byte {
		// the frame's shard id selects the logical database
		d, err := s.database(index)
		if err != nil {
			return codec.ErrorFrom(err).Encoded()
		}
		return d.Dispatcher.Handle(req)
	})
}

func (s *rpcServer) init() error {
	if err := common.InitLoggers(s.config.LogLevel); err != nil {
		return err
	}
	if s.config.Databases <= 0 {
		return errors.New("at least one database is required")
	}

	Logger.Infof("Created RPC Server")
	Logger.Infof(s.config.String())

	// database 0 always exists
	if _, err := s.database(0); err != nil {
		return err
	}

	if s.config.RestoreOnStart && s.config.DataDir != "" {
		if _, err := s.admin.Restore(); err != nil {
			return fmt.Errorf("failed to restore snapshots: %w", err)
		}
	}

	metrics.GetOrCreateGauge(`rkv_open_cursors`, func() float64 {
		return float64(s.cursors.Len())
	})
	metrics.GetOrCreateGauge(`rkv_open_databases`, func() float64 {
		return float64(s.databases.Size())
	})

	if s.config.CursorTTL > 0 {
		go s.pruneCursors()
	}
	if s.config.MetricsEndpoint != "" {
		go s.serveMetrics()
	}

	Logger.Infof("rKV setup completed successfully")

	// Configure the transport layer
	s.registerTransportHandler()
	return nil
}

// Serve starts the RPC server
// This function will also initialize the databases and start the transport
// layer. It returns once the transport fails or SHUTDOWN was executed.
func (s *rpcServer) Serve() error {
	if err := s.init(); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.transport.Listen(s.config)
	}()

	select {
	case err := <-errCh:
		s.closeDatabases()
		return err
	case <-s.done:
		if err := s.transport.Close(); err != nil {
			Logger.Warningf("failed to close transport: %v", err)
		}
		s.closeDatabases()
		Logger.Infof("server stopped")
		return nil
	}
}

// Shutdown stops the server the way SHUTDOWN without arguments does: the
// databases are saved if a data directory is configured
func (s *rpcServer) Shutdown() error {
	return s.admin.Shutdown(admin.ShutdownDefault)
}

// stop ends Serve, it is called by the admin after SHUTDOWN
func (s *rpcServer) stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

func (s *rpcServer) closeDatabases() {
	s.databases.Range(func(index uint64, d *database) bool {
		if err := d.Store.Close(); err != nil {
			Logger.Warningf("failed to close database %d: %v", index, err)
		}
		return true
	})
}

// pruneCursors drops cursors that were not resumed within the cursor ttl
func (s *rpcServer) pruneCursors() {
	ticker := time.NewTicker(max(s.config.CursorTTL/2, time.Second))
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := s.cursors.Prune(s.config.CursorTTL); n > 0 {
				Logger.Debugf("pruned %d scan cursors", n)
			}
		case <-s.done:
			return
		}
	}
}

func (s *rpcServer) serveMetrics() {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		metrics.WritePrometheus(w, true)
	})
	Logger.Infof("serving metrics on %s/metrics", s.config.MetricsEndpoint)
	if err := http.ListenAndServe(s.config.MetricsEndpoint, mux); err != nil {
		Logger.Errorf("metrics endpoint failed: %v", err)
	}
}
