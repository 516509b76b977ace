package client

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/ValentinKolb/rKV/rpc/codec"
	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("client")
)

// Client sends commands to an rKV server and decodes the replies
type Client struct {
	db        uint64
	config    common.ClientConfig
	transport transport.IRPCClientTransport
}

// New connects the transport and returns a client for config.Database
//
// Usage:
//
//	c, err := client.New(config, tcp.NewTCPClientTransport())
//	if err != nil {
//		return err
//	}
//	defer c.Close()
//
//	reply, err := c.DoStrings(ctx, "SET", "key", "value")
func New(config common.ClientConfig, transport transport.IRPCClientTransport) (*Client, error) {
	if err := transport.Connect(config); err != nil {
		return nil, err
	}
	return &Client{
		db:        config.Database,
		config:    config,
		transport: transport,
	}, nil
}

// Select returns a client for another logical database sharing the transport
func (c *Client) Select(db uint64) *Client {
	return &Client{db: db, config: c.config, transport: c.transport}
}

// DB returns the logical database of the client
func (c *Client) DB() uint64 {
	return c.db
}

// Close closes the underlying transport (shared with all selected clients)
func (c *Client) Close() error {
	return c.transport.Close()
}

// Do sends a command and returns its reply. An ERROR reply is returned as
// reply and as *common.Error, transport failures only as error.
func (c *Client) Do(ctx context.Context, args ...[]byte) (codec.Reply, error) {
	if len(args) == 0 {
		return codec.Reply{}, fmt.Errorf("missing command name")
	}
	if err := ctx.Err(); err != nil {
		return codec.Reply{}, err
	}

	req := codec.EncodeRequest(args...)

	type result struct {
		resp []byte
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := c.transport.Send(c.db, req)
		done <- result{resp, err}
	}()

	var res result
	select {
	case res = <-done:
	case <-ctx.Done():
		return codec.Reply{}, ctx.Err()
	}
	if res.err != nil {
		return codec.Reply{}, res.err
	}

	reply, n, err := codec.DecodeReply(res.resp)
	if err != nil {
		return codec.Reply{}, fmt.Errorf("failed to decode reply: %w", err)
	}
	if n != len(res.resp) {
		Logger.Warningf("reply of %s has %d trailing bytes", args[0], len(res.resp)-n)
	}
	if reply.IsError() {
		return reply, ReplyError(reply)
	}
	return reply, nil
}

// DoStrings is Do with string arguments
func (c *Client) DoStrings(ctx context.Context, args ...string) (codec.Reply, error) {
	raw := make([][]byte, len(args))
	for i, a := range args {
		raw[i] = []byte(a)
	}
	return c.Do(ctx, raw...)
}

// ReplyError converts an ERROR reply into a *common.Error, nil for other replies
func ReplyError(r codec.Reply) *common.Error {
	if !r.IsError() {
		return nil
	}
	msg := r.Bytes
	if i := bytes.Index(msg, []byte(": ")); i > 0 {
		msg = msg[i+2:]
	}
	return common.NewError(r.ErrKind, string(msg))
}

// --------------------------------------------------------------------------
// Convenience Methods
// --------------------------------------------------------------------------

// Ping checks that the server answers
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.DoStrings(ctx, "PING")
	return err
}

// Get returns the string value of key
func (c *Client) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	r, err := c.Do(ctx, []byte("GET"), key)
	if err != nil {
		return nil, false, err
	}
	return r.Bytes, !r.Nil, nil
}

// Set sets key to value without options
func (c *Client) Set(ctx context.Context, key, value []byte) error {
	_, err := c.Do(ctx, []byte("SET"), key, value)
	return err
}

// Del deletes keys and returns the number of deleted keys
func (c *Client) Del(ctx context.Context, keys ...[]byte) (int64, error) {
	r, err := c.Do(ctx, append([][]byte{[]byte("DEL")}, keys...)...)
	if err != nil {
		return 0, err
	}
	return r.Int, nil
}

// Scan iterates a hash, set or sorted set with HSCAN, SSCAN or ZSCAN and
// calls fn with every page until the cursor returns to 0 or fn returns false
func (c *Client) Scan(ctx context.Context, command string, key []byte, count int, fn func(page codec.Reply) bool) error {
	cursor := uint64(0)
	for {
		r, err := c.Do(ctx,
			[]byte(command), key,
			strconv.AppendUint(nil, cursor, 10),
			[]byte("COUNT"), strconv.AppendInt(nil, int64(count), 10),
		)
		if err != nil {
			return err
		}
		if r.Kind != codec.KindMultiBulk || len(r.Items) != 1 {
			return fmt.Errorf("unexpected %s reply: %s", command, r)
		}
		if !fn(r.Items[0]) {
			return nil
		}
		if cursor = uint64(r.Int); cursor == 0 {
			return nil
		}
	}
}
