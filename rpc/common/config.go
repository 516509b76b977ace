package common

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Transport configuration
// --------------------------------------------------------------------------

// SocketConf holds socket options shared by server and client transports
type SocketConf struct {
	WriteBufferSize int // SO_SNDBUF in bytes (0 = os default)
	ReadBufferSize  int // SO_RCVBUF in bytes (0 = os default)
}

// TCPConf holds tcp specific options
type TCPConf struct {
	TCPNoDelay      bool // disable Nagle's algorithm
	TCPKeepAliveSec int  // keep-alive period in seconds (0 = disabled)
	TCPLingerSec    int  // linger timeout in seconds (-1 = os default)
}

// ServerTransportConfig configures the listening side of a transport
type ServerTransportConfig struct {
	SocketConf
	TCPConf

	// Type is one of "tcp", "unix" or "http"
	Type string
	// Endpoint is the listen address (host:port or socket path)
	Endpoint string
	// BufferSize is the size of the pooled request and reply buffers
	BufferSize int
	// WorkersPerConn bounds the number of concurrently executing requests per connection
	WorkersPerConn int
	// RateLimit is the number of requests per second per connection (0 = unlimited)
	RateLimit float64
	// RateBurst is the token bucket size of the rate limiter
	RateBurst int
}

// ClientTransportConfig configures the dialing side of a transport
type ClientTransportConfig struct {
	SocketConf
	TCPConf

	// Type is one of "tcp", "unix" or "http"
	Type string
	// Endpoints to connect to (requests are distributed round robin)
	Endpoints []string
	// RetryCount is the number of attempts per request
	RetryCount int
	// ConnectionsPerEndpoint is the number of parallel connections per endpoint
	ConnectionsPerEndpoint int
}

// --------------------------------------------------------------------------
// RPC server configuration struct
// --------------------------------------------------------------------------

// ServerConfig holds all configuration parameters of the server process.
type ServerConfig struct {
	Transport ServerTransportConfig

	// Databases is the number of logical databases, addressed by the frame's database index
	Databases int

	// TimeoutSecond is the read/write deadline per frame (0 = none)
	TimeoutSecond int64

	// DataDir is where snapshots are written by SAVE, BGSAVE and SHUTDOWN
	DataDir string
	// RestoreOnStart loads the latest snapshot from DataDir on startup
	RestoreOnStart bool

	// CursorTTL drops scan cursors that were not resumed in time (0 = keep forever)
	CursorTTL time.Duration
	// ExpiryInterval is the interval of the background ttl sweep
	ExpiryInterval time.Duration

	// MetricsEndpoint serves /metrics on a separate http listener (empty = disabled)
	MetricsEndpoint string

	// Logging configuration
	LogLevel string
}

// DefaultServerConfig returns a configuration usable for a local single node
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Transport: ServerTransportConfig{
			TCPConf:        TCPConf{TCPNoDelay: true, TCPLingerSec: -1},
			Type:           "tcp",
			Endpoint:       "localhost:6380",
			BufferSize:     512 * 1024,
			WorkersPerConn: 16,
		},
		Databases:      16,
		ExpiryInterval: 100 * time.Millisecond,
		LogLevel:       "info",
	}
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("RPC Server")
	addField("Transport", c.Transport.Type)
	addField("Endpoint", c.Transport.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Buffer Size", fmt.Sprintf("%d bytes", c.Transport.BufferSize))
	addField("Workers Per Conn", strconv.Itoa(c.Transport.WorkersPerConn))
	if c.Transport.RateLimit > 0 {
		addField("Rate Limit", fmt.Sprintf("%.0f req/s (burst %d)", c.Transport.RateLimit, c.Transport.RateBurst))
	} else {
		addField("Rate Limit", "unlimited")
	}
	if c.Transport.Type == "tcp" {
		addField("TCP No Delay", strconv.FormatBool(c.Transport.TCPNoDelay))
		addField("TCP Keep Alive", fmt.Sprintf("%d sec", c.Transport.TCPKeepAliveSec))
	}

	addSection("Storage")
	addField("Databases", strconv.Itoa(c.Databases))
	addField("Data Directory", c.DataDir)
	addField("Restore On Start", strconv.FormatBool(c.RestoreOnStart))
	addField("Expiry Interval", c.ExpiryInterval.String())
	if c.CursorTTL > 0 {
		addField("Cursor TTL", c.CursorTTL.String())
	} else {
		addField("Cursor TTL", "never")
	}

	addSection("Observability")
	addField("Log Level", c.LogLevel)
	if c.MetricsEndpoint != "" {
		addField("Metrics Endpoint", c.MetricsEndpoint)
	}

	return sb.String()
}

// --------------------------------------------------------------------------
// RPC client configuration struct
// --------------------------------------------------------------------------

// ClientConfig holds the configuration of a client
type ClientConfig struct {
	Transport     ClientTransportConfig
	TimeoutSecond int
	// Database selects the logical database all requests are sent to
	Database uint64
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	// General Client Settings
	addSection("Client Configuration")
	addField("Transport", c.Transport.Type)
	addField("Database", strconv.FormatUint(c.Database, 10))
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Retry Count", strconv.Itoa(c.Transport.RetryCount))
	addField("Connections Per Endpoint", strconv.Itoa(int(math.Max(1, float64(c.Transport.ConnectionsPerEndpoint)))))

	// Endpoints
	addSection("Endpoints")
	for i, endpoint := range c.Transport.Endpoints {
		addField(strconv.Itoa(i), endpoint)
	}

	return sb.String()
}
