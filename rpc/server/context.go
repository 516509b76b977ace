package server

import (
	"time"

	"github.com/ValentinKolb/rKV/lib/admin"
	"github.com/ValentinKolb/rKV/lib/cursor"
	"github.com/ValentinKolb/rKV/lib/store"
	"github.com/ValentinKolb/rKV/rpc/codec"
)

// Context is the state of one command invocation. It is created by the
// dispatcher and must not be retained by handlers after they returned.
type Context struct {
	// Request is the decoded invocation, argument 0 is the command name
	Request *codec.Request
	// Args is positioned after the command name
	Args *codec.ArgReader

	Store    store.IStore
	Admin    admin.IAdmin
	Cursors  *cursor.Store
	Registry *Registry
	// DB is the index of the logical database the command runs against
	DB uint64

	clock   func() time.Time
	scratch *cursor.Scratch
}

// NowMillis returns the current time in unix milliseconds
func (c *Context) NowMillis() int64 {
	return c.clock().UnixMilli()
}

// Now returns the current time
func (c *Context) Now() time.Time {
	return c.clock()
}

// Scratch checks out the scratch buffer of this invocation. It is released
// by the dispatcher once the reply is encoded.
func (c *Context) Scratch() *cursor.Scratch {
	if c.scratch == nil {
		c.scratch = cursor.AcquireScratch()
	}
	return c.scratch
}

// next returns the next argument. The arity check guarantees it exists for
// every mandatory position.
func (c *Context) next() []byte {
	arg, _ := c.Args.Next()
	return arg
}

func (c *Context) release() {
	cursor.ReleaseScratch(c.scratch)
	c.scratch = nil
}
