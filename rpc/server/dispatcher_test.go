package server

import (
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/rKV/lib/admin"
	"github.com/ValentinKolb/rKV/lib/db"
	"github.com/ValentinKolb/rKV/lib/db/engines/maple"
	dbtesting "github.com/ValentinKolb/rKV/lib/db/testing"
	"github.com/ValentinKolb/rKV/lib/store"
	"github.com/ValentinKolb/rKV/lib/store/lstore"
	"github.com/ValentinKolb/rKV/rpc/codec"
	"github.com/ValentinKolb/rKV/rpc/common"
)

// --------------------------------------------------------------------------
// Test Environment
// --------------------------------------------------------------------------

// singleKeyspace is a keyspace with database 0 only
type singleKeyspace struct {
	st store.IStore
}

func (k singleKeyspace) Range(fn func(db uint64, s store.IStore) bool) { fn(0, k.st) }

func (k singleKeyspace) Open(index uint64) (store.IStore, error) {
	if index != 0 {
		return nil, errors.New("database index out of range")
	}
	return k.st, nil
}

type testEnv struct {
	d     *Dispatcher
	st    store.IStore
	clock *dbtesting.ManualClock
	dir   string
}

// newTestEnv creates a dispatcher on a local store, a local admin writing to
// a temp dir and a manual clock shared by store and dispatcher
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	clock := dbtesting.NewManualClock()
	st := lstore.NewLocalStore(func() db.KVDB {
		return maple.NewMapleDB(&maple.DBOptions{NumShards: 4, GCInterval: time.Hour, Clock: clock.Now})
	})
	t.Cleanup(func() { _ = st.Close() })

	dir := t.TempDir()
	adm := admin.NewLocalAdmin(admin.Config{DataDir: dir, Endpoint: "localhost:6380", NodeID: "node-1"}, singleKeyspace{st})
	return &testEnv{
		d:     NewDispatcher(DispatcherConfig{Store: st, Admin: adm, Clock: clock.Now}),
		st:    st,
		clock: clock,
		dir:   dir,
	}
}

// do sends one command through the wire encoding and decodes the reply
func (e *testEnv) do(t *testing.T, args ...string) codec.Reply {
	t.Helper()
	out := make([]byte, 1<<20)
	n, err := e.d.ExecuteBytes(codec.EncodeStrings(args...), out)
	if err != nil {
		t.Fatalf("ExecuteBytes(%v) failed: %v", args, err)
	}
	r, m, err := codec.DecodeReply(out[:n])
	if err != nil {
		t.Fatalf("DecodeReply(%v) failed: %v", args, err)
	}
	if m != n {
		t.Fatalf("DecodeReply(%v) consumed %d bytes, reply has %d", args, m, n)
	}
	return r
}

func wantOK(t *testing.T, r codec.Reply) {
	t.Helper()
	if r.Kind != codec.KindOK {
		t.Errorf("reply = %s, want OK", r)
	}
}

func wantInt(t *testing.T, r codec.Reply, want int64) {
	t.Helper()
	if r.Kind != codec.KindInteger || r.Int != want {
		t.Errorf("reply = %s, want INTEGER %d", r, want)
	}
}

func wantBulk(t *testing.T, r codec.Reply, want string) {
	t.Helper()
	if r.Kind != codec.KindBulk || r.Nil || string(r.Bytes) != want {
		t.Errorf("reply = %s, want BULK %q", r, want)
	}
}

func wantNil(t *testing.T, r codec.Reply) {
	t.Helper()
	if r.Kind != codec.KindBulk || !r.Nil {
		t.Errorf("reply = %s, want nil bulk", r)
	}
}

func wantErr(t *testing.T, r codec.Reply, kind common.ErrorKind) {
	t.Helper()
	if r.Kind != codec.KindError || r.ErrKind != kind {
		t.Errorf("reply = %s, want error %s", r, kind)
	}
}

func wantElems(t *testing.T, r codec.Reply, kind codec.Kind, want ...string) {
	t.Helper()
	if r.Kind != kind {
		t.Fatalf("reply kind = %d, want %d (%s)", r.Kind, kind, r)
	}
	got := make([]string, len(r.Elems))
	for i, e := range r.Elems {
		got[i] = string(e)
	}
	if strings.Join(got, ",") != strings.Join(want, ",") || len(got) != len(want) {
		t.Errorf("elements = %q, want %q", got, want)
	}
}

// --------------------------------------------------------------------------
// Dispatcher Tests
// --------------------------------------------------------------------------

func TestDispatchUnknownCommand(t *testing.T) {
	e := newTestEnv(t)
	r := e.do(t, "FOO", "bar", "baz")
	wantErr(t, r, common.ErrUnsupportedCommand)
	if want := "UnsupportedCommand: FOO bar baz"; string(r.Bytes) != want {
		t.Errorf("error text = %q, want %q", r.Bytes, want)
	}
}

func TestDispatchCaseInsensitive(t *testing.T) {
	e := newTestEnv(t)
	wantOK(t, e.do(t, "sEt", "k", "v"))
	wantBulk(t, e.do(t, "get", "k"), "v")
}

func TestDispatchArity(t *testing.T) {
	e := newTestEnv(t)

	tests := []struct {
		args []string
	}{
		{[]string{"GET"}},
		{[]string{"GET", "a", "b"}},
		{[]string{"SET", "k"}},
		{[]string{"MSET", "a", "1", "b"}},
		{[]string{"HSET", "h", "f"}},
		{[]string{"HSET", "h", "f", "v", "g"}},
		{[]string{"BITCOUNT", "b", "0"}},
		{[]string{"DBSIZE", "x"}},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			r := e.do(t, tt.args...)
			wantErr(t, r, common.ErrWrongArgsNumber)
			if !strings.Contains(string(r.Bytes), "'"+strings.ToLower(tt.args[0])+"'") {
				t.Errorf("error text = %q, want command name", r.Bytes)
			}
		})
	}

	// no side effects
	wantInt(t, e.do(t, "DBSIZE"), 0)
}

func TestArityAllows(t *testing.T) {
	tests := []struct {
		arity Arity
		n     int
		want  bool
	}{
		{Exact(2), 2, true},
		{Exact(2), 3, false},
		{Range(2, 4), 1, false},
		{Range(2, 4), 4, true},
		{AtLeast(2), 100, true},
		{Pairs(3), 3, true},
		{Pairs(3), 4, false},
		{Pairs(3), 5, true},
		{Arity{Min: 2, Max: 4, Step: 2}, 3, false},
	}
	for _, tt := range tests {
		if got := tt.arity.Allows(tt.n); got != tt.want {
			t.Errorf("%+v.Allows(%d) = %v, want %v", tt.arity, tt.n, got, tt.want)
		}
	}
}

func TestExecuteShortBuffer(t *testing.T) {
	e := newTestEnv(t)
	e.do(t, "SET", "k", "0123456789")

	out := make([]byte, 4)
	n, err := e.d.Execute(codec.NewRequest([]byte("GET"), []byte("k")), out)
	var short *codec.ShortBufferError
	if !errors.As(err, &short) {
		t.Fatalf("Execute() error = %v, want *ShortBufferError", err)
	}
	if n != 0 {
		t.Errorf("Execute() wrote %d bytes, want 0", n)
	}
	if want := 1 + 4 + 10; short.Required != want {
		t.Errorf("Required = %d, want %d", short.Required, want)
	}
	if out[0] != byte(codec.TagOK) {
		t.Errorf("out[0] = %d, want seeded OK tag", out[0])
	}

	out = make([]byte, short.Required)
	if n, err = e.d.Execute(codec.NewRequest([]byte("GET"), []byte("k")), out); err != nil || n != short.Required {
		t.Errorf("Execute() = %d, %v, want %d, nil", n, err, short.Required)
	}
}

func TestExecuteMalformed(t *testing.T) {
	e := newTestEnv(t)

	tests := map[string][]byte{
		"empty":          {},
		"zero count":     {0, 0, 0, 0},
		"truncated span": {0, 0, 0, 1, 0, 0, 0, 5, 'G'},
		"trailing bytes": append(codec.EncodeStrings("PING"), 0),
	}
	for name, buf := range tests {
		t.Run(name, func(t *testing.T) {
			r, _, err := codec.DecodeReply(e.d.Handle(buf))
			if err != nil {
				t.Fatalf("DecodeReply() failed: %v", err)
			}
			wantErr(t, r, common.ErrMalformedRequest)
		})
	}
}

func TestDispatchRecoversPanic(t *testing.T) {
	registry := NewRegistry()
	registry.Register(Command{Name: "BOOM", Arity: Exact(1), Handler: func(*Context) (codec.Reply, error) {
		panic("boom")
	}})
	d := NewDispatcher(DispatcherConfig{Registry: registry})

	r := d.Dispatch(codec.NewRequest([]byte("BOOM")))
	if r.Kind != codec.KindError || r.ErrKind != common.ErrInternal {
		t.Errorf("Dispatch(BOOM) = %s, want internal error", r)
	}
}

func TestRegistryDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("Register() of a duplicate did not panic")
		}
	}()
	NewRegistry().Register(Command{Name: "GET", Arity: Exact(2)})
}

func TestConnectionCommands(t *testing.T) {
	e := newTestEnv(t)
	wantBulk(t, e.do(t, "PING"), "PONG")
	wantBulk(t, e.do(t, "PING", "hi"), "hi")
	wantBulk(t, e.do(t, "ECHO", "hello"), "hello")
	wantInt(t, e.do(t, "COMMAND", "COUNT"), int64(NewRegistry().Len()))
	wantErr(t, e.do(t, "COMMAND", "DOCS"), common.ErrUnsupportedCommand)
}

func TestAdminCommands(t *testing.T) {
	e := newTestEnv(t)
	e.do(t, "SET", "k", "v")

	t.Run("SAVE", func(t *testing.T) {
		wantOK(t, e.do(t, "SAVE"))
	})

	t.Run("unknown sub keyword echoes invocation", func(t *testing.T) {
		tests := [][]string{
			{"BGSAVE", "NOW"},
			{"SHUTDOWN", "MAYBE"},
			{"FLUSHALL", "LATER"},
			{"INFO", "cpu"},
			{"CLUSTER", "NODES"},
		}
		for _, args := range tests {
			r := e.do(t, args...)
			wantErr(t, r, common.ErrUnsupportedCommand)
			if want := "UnsupportedCommand: " + strings.Join(args, " "); string(r.Bytes) != want {
				t.Errorf("error text = %q, want %q", r.Bytes, want)
			}
		}
	})

	t.Run("INFO", func(t *testing.T) {
		r := e.do(t, "INFO", "keyspace")
		if r.Kind != codec.KindBulk || !strings.Contains(string(r.Bytes), "db0:keys=1") {
			t.Errorf("INFO keyspace = %s", r)
		}
	})

	t.Run("CLUSTER SLOTS", func(t *testing.T) {
		r := e.do(t, "CLUSTER", "slots")
		if r.Kind != codec.KindTypedArray || len(r.Items) != 5 {
			t.Fatalf("CLUSTER SLOTS = %s, want 5 items", r)
		}
		wantInt(t, r.Items[0], 0)
		wantInt(t, r.Items[1], admin.ClusterSlotCount-1)
		wantBulk(t, r.Items[2], "localhost")
		wantInt(t, r.Items[3], 6380)
		wantBulk(t, r.Items[4], "node-1")
	})

	t.Run("TIME", func(t *testing.T) {
		r := e.do(t, "TIME")
		if r.Kind != codec.KindArray || len(r.Elems) != 2 {
			t.Fatalf("TIME = %s, want two elements", r)
		}
		if _, err := strconv.ParseInt(string(r.Elems[0]), 10, 64); err != nil {
			t.Errorf("TIME seconds %q: %v", r.Elems[0], err)
		}
	})

	t.Run("FLUSHALL", func(t *testing.T) {
		wantOK(t, e.do(t, "FLUSHALL", "sync"))
		wantInt(t, e.do(t, "DBSIZE"), 0)
	})

	t.Run("disabled without admin", func(t *testing.T) {
		d := NewDispatcher(DispatcherConfig{Store: e.st})
		wantErr(t, d.Dispatch(codec.NewRequest([]byte("SAVE"))), common.ErrOperationFailed)
	})
}
