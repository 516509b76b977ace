package base

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/rKV/rpc/common"
)

// testServerConnector listens on a random local port and publishes the address
type testServerConnector struct {
	addr chan string
}

func (c *testServerConnector) GetName() string { return "test" }

func (c *testServerConnector) Listen(common.ServerConfig) (net.Listener, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	c.addr <- l.Addr().String()
	return l, nil
}

func (c *testServerConnector) UpgradeConnection(net.Conn, common.ServerConfig) error { return nil }

type testClientConnector struct{}

func (testClientConnector) GetName() string { return "test" }

func (testClientConnector) Connect(endpoint string) (net.Conn, error) {
	return net.Dial("tcp", endpoint)
}

func (testClientConnector) UpgradeConnection(net.Conn, common.ClientConfig) error { return nil }

// startServer starts an echo server that prefixes the reply with the database index
func startServer(t *testing.T, conf common.ServerConfig) string {
	t.Helper()
	connector := &testServerConnector{addr: make(chan string, 1)}
	srv := NewBaseServerTransport(connector)
	srv.RegisterHandler(func(db uint64, req []byte) []byte {
		return append([]byte(fmt.Sprintf("%d:", db)), req...)
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Listen(conf) }()
	t.Cleanup(func() {
		_ = srv.Close()
		if err := <-errCh; err != nil {
			t.Errorf("Listen() returned %v after Close", err)
		}
	})

	select {
	case addr := <-connector.addr:
		return addr
	case err := <-errCh:
		t.Fatalf("Listen() failed: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not start")
	}
	return ""
}

func newClient(t *testing.T, addr string, conns int) *clientTransport {
	t.Helper()
	c := NewBaseClientTransport(testClientConnector{}).(*clientTransport)
	err := c.Connect(common.ClientConfig{
		Transport: common.ClientTransportConfig{
			Endpoints:              []string{addr},
			RetryCount:             2,
			ConnectionsPerEndpoint: conns,
		},
		TimeoutSecond: 5,
	})
	if err != nil {
		t.Fatalf("Connect() failed: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRoundTrip(t *testing.T) {
	conf := common.DefaultServerConfig()
	conf.Transport.BufferSize = 64
	addr := startServer(t, conf)
	c := newClient(t, addr, 2)

	tests := []struct {
		name string
		db   uint64
		req  []byte
	}{
		{"small", 0, []byte("ping")},
		{"empty", 3, nil},
		{"larger than pooled buffer", 7, bytes.Repeat([]byte("x"), 4096)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := c.Send(tt.db, tt.req)
			if err != nil {
				t.Fatalf("Send() failed: %v", err)
			}
			want := append([]byte(fmt.Sprintf("%d:", tt.db)), tt.req...)
			if !bytes.Equal(resp, want) {
				t.Errorf("Send() returned %d bytes, want %d", len(resp), len(want))
			}
		})
	}
}

func TestConcurrentRequests(t *testing.T) {
	addr := startServer(t, common.DefaultServerConfig())
	c := newClient(t, addr, 3)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			req := []byte(fmt.Sprintf("request-%d", i))
			resp, err := c.Send(uint64(i%4), req)
			if err != nil {
				t.Errorf("Send(%d) failed: %v", i, err)
				return
			}
			if want := fmt.Sprintf("%d:%s", i%4, req); string(resp) != want {
				t.Errorf("Send(%d) = %q, want %q", i, resp, want)
			}
		}(i)
	}
	wg.Wait()
}

func TestRateLimit(t *testing.T) {
	conf := common.DefaultServerConfig()
	conf.Transport.RateLimit = 20
	conf.Transport.RateBurst = 1
	addr := startServer(t, conf)
	c := newClient(t, addr, 1)

	start := time.Now()
	for i := 0; i < 5; i++ {
		if _, err := c.Send(0, []byte("x")); err != nil {
			t.Fatalf("Send() failed: %v", err)
		}
	}
	// one token up front, four more at 20/s
	if elapsed := time.Since(start); elapsed < 150*time.Millisecond {
		t.Errorf("5 requests took %s, want the rate limit to apply", elapsed)
	}
}

func TestReadFrameLimits(t *testing.T) {
	var header [headerSize]byte
	binary.BigEndian.PutUint32(header[16:], MaxFrameSize+1)
	if _, _, _, err := readFrame(bytes.NewReader(header[:]), nil); err == nil {
		t.Errorf("readFrame() accepted an oversized frame")
	}

	// truncated payload
	binary.BigEndian.PutUint32(header[16:], 10)
	if _, _, _, err := readFrame(bytes.NewReader(append(header[:], 1, 2, 3)), nil); err == nil {
		t.Errorf("readFrame() accepted a truncated frame")
	}
}

func TestConnectFailure(t *testing.T) {
	c := NewBaseClientTransport(testClientConnector{})
	if err := c.Connect(common.ClientConfig{}); err == nil {
		t.Errorf("Connect() without endpoints did not fail")
	}
	err := c.Connect(common.ClientConfig{Transport: common.ClientTransportConfig{Endpoints: []string{"127.0.0.1:1"}}})
	if err == nil {
		t.Errorf("Connect() to a closed port did not fail")
	}
}
