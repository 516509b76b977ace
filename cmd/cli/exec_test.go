package cli

import (
	"bytes"
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/rKV/lib/db"
	"github.com/ValentinKolb/rKV/lib/db/engines/maple"
	"github.com/ValentinKolb/rKV/lib/store/lstore"
	"github.com/ValentinKolb/rKV/rpc/client"
	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/server"
)

// inProcess executes requests on a local dispatcher
type inProcess struct {
	d *server.Dispatcher
}

func (p *inProcess) Connect(common.ClientConfig) error        { return nil }
func (p *inProcess) Send(_ uint64, req []byte) ([]byte, error) { return p.d.Handle(req), nil }
func (p *inProcess) Close() error                              { return nil }

func useInProcessClient(t *testing.T) {
	t.Helper()
	st := lstore.NewLocalStore(func() db.KVDB {
		return maple.NewMapleDB(&maple.DBOptions{NumShards: 2, GCInterval: time.Hour})
	})
	c, err := client.New(common.ClientConfig{}, &inProcess{d: server.NewDispatcher(server.DispatcherConfig{Store: st})})
	if err != nil {
		t.Fatalf("client.New() failed: %v", err)
	}
	rpcClient = c
	t.Cleanup(func() { rpcClient = nil })
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    []string
		wantErr bool
	}{
		{"empty", "", nil, false},
		{"blank", "   \t ", nil, false},
		{"words", "SET  key value", []string{"SET", "key", "value"}, false},
		{"double quotes", `SET k "hello world"`, []string{"SET", "k", "hello world"}, false},
		{"single quotes", `SET k 'a "b" c'`, []string{"SET", "k", `a "b" c`}, false},
		{"escapes", `SET k "a\tb\n\"c\""`, []string{"SET", "k", "a\tb\n\"c\""}, false},
		{"empty quoted argument", `SET k ""`, []string{"SET", "k", ""}, false},
		{"adjacent quotes", `a"b c"d`, []string{"ab cd"}, false},
		{"unbalanced", `SET k "value`, nil, true},
		{"trailing escape", `SET k "value\`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := splitArgs(tt.line)
			if (err != nil) != tt.wantErr {
				t.Fatalf("splitArgs(%q) error = %v, wantErr %v", tt.line, err, tt.wantErr)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitArgs(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestShell(t *testing.T) {
	useInProcessClient(t)

	in := strings.NewReader("SET greeting \"hello world\"\n\nGET greeting\nINCR greeting\nquit\nGET greeting\n")
	var out bytes.Buffer
	if err := shell(context.Background(), in, &out); err != nil {
		t.Fatalf("shell() failed: %v", err)
	}

	got := out.String()
	for _, want := range []string{"OK", "hello world", "KeyNotNumber"} {
		if !strings.Contains(got, want) {
			t.Errorf("shell() output %q does not contain %q", got, want)
		}
	}
	// nothing after quit is executed
	if n := strings.Count(got, "hello world"); n != 1 {
		t.Errorf("shell() printed the value %d times, want 1", n)
	}
}

func TestExecute(t *testing.T) {
	useInProcessClient(t)

	var out bytes.Buffer
	if err := execute(context.Background(), &out, []string{"RPUSH", "l", "a", "b"}); err != nil {
		t.Fatalf("execute() failed: %v", err)
	}
	if err := execute(context.Background(), &out, []string{"NOPE"}); err != nil {
		t.Errorf("execute() returned the error reply as error: %v", err)
	}
	if !strings.Contains(out.String(), "2") || !strings.Contains(out.String(), "UnsupportedCommand") {
		t.Errorf("execute() output = %q", out.String())
	}
}
