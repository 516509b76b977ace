package server

import (
	"fmt"
	"runtime/debug"
	"time"

	"github.com/ValentinKolb/rKV/lib/admin"
	"github.com/ValentinKolb/rKV/lib/cursor"
	"github.com/ValentinKolb/rKV/lib/store"
	"github.com/ValentinKolb/rKV/rpc/codec"
	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("server")

// DispatcherConfig holds the collaborators of a dispatcher. Registry, Cursors
// and Clock default to NewRegistry(), cursor.NewStore() and time.Now.
type DispatcherConfig struct {
	Registry *Registry
	Store    store.IStore
	Admin    admin.IAdmin
	Cursors  *cursor.Store
	Clock    func() time.Time
	DB       uint64
}

// Dispatcher executes requests against one logical database.
//
// Thread-safety: All methods can be called concurrently. Dispatchers of
// different databases may share the registry and the cursor store.
type Dispatcher struct {
	registry *Registry
	store    store.IStore
	admin    admin.IAdmin
	cursors  *cursor.Store
	clock    func() time.Time
	db       uint64
}

// NewDispatcher creates a dispatcher
//
// Usage:
//
//	d := server.NewDispatcher(server.DispatcherConfig{
//		Store: lstore.NewLocalStore(dbFactory),
//		Admin: adm,
//	})
//
//	n, err := d.Execute(req, out)
func NewDispatcher(conf DispatcherConfig) *Dispatcher {
	d := &Dispatcher{
		registry: conf.Registry,
		store:    conf.Store,
		admin:    conf.Admin,
		cursors:  conf.Cursors,
		clock:    conf.Clock,
		db:       conf.DB,
	}
	if d.registry == nil {
		d.registry = NewRegistry()
	}
	if d.cursors == nil {
		d.cursors = cursor.NewStore()
	}
	if d.clock == nil {
		d.clock = time.Now
	}
	return d
}

// Execute runs the request and encodes the reply into out. out[0] is seeded
// with the OK tag before anything else happens. Command failures are encoded
// as ERROR replies and reported as a nil error; the only error returned is a
// *codec.ShortBufferError if the reply does not fit into out, in which case
// nothing but the seed byte is written.
func (d *Dispatcher) Execute(req *codec.Request, out []byte) (int, error) {
	if len(out) > 0 {
		out[0] = byte(codec.TagOK)
	}
	return d.Dispatch(req).Encode(out)
}

// ExecuteBytes decodes a wire request and executes it. A malformed request is
// answered with an ERROR reply.
func (d *Dispatcher) ExecuteBytes(buf []byte, out []byte) (int, error) {
	if len(out) > 0 {
		out[0] = byte(codec.TagOK)
	}
	var req codec.Request
	if err := req.Decode(buf); err != nil {
		malformedTotal.Inc()
		return codec.ErrorFrom(err).Encode(out)
	}
	return d.Dispatch(&req).Encode(out)
}

// Handle decodes a wire request, executes it and returns the encoded reply in
// a buffer sized to fit. It is used as the transport handler.
func (d *Dispatcher) Handle(buf []byte) []byte {
	var req codec.Request
	if err := req.Decode(buf); err != nil {
		malformedTotal.Inc()
		Logger.Debugf("malformed request: %v", err)
		return codec.ErrorFrom(err).Encoded()
	}
	return d.Dispatch(&req).Encoded()
}

// Dispatch runs the request and returns its reply. Errors are returned as
// ERROR replies.
func (d *Dispatcher) Dispatch(req *codec.Request) codec.Reply {
	var nameBuf [32]byte
	cmd, ok := d.registry.Lookup(req.UpperName(&nameBuf))
	if !ok {
		unknownCommands.Inc()
		return d.fail(common.UnsupportedCommand(req.String()))
	}

	// arity is checked before any argument is parsed
	if !cmd.Arity.Allows(req.Len()) {
		return d.fail(common.WrongArgsNumber(cmd.Name))
	}

	ctx := Context{
		Request:  req,
		Args:     req.Reader(),
		Store:    d.store,
		Admin:    d.admin,
		Cursors:  d.cursors,
		Registry: d.registry,
		DB:       d.db,
		clock:    d.clock,
	}
	defer ctx.release()

	start := time.Now()
	reply, err := run(cmd, &ctx)
	cmd.stats.observe(start)
	if err != nil {
		return d.fail(err)
	}
	return reply
}

// fail converts err into an ERROR reply and counts it
func (d *Dispatcher) fail(err error) codec.Reply {
	protoErr := common.FromStoreError(err)
	errorCounter(protoErr.Kind).Inc()
	return codec.ErrorReply(protoErr)
}

// run calls the handler and recovers a panic into an internal error
func run(cmd *Command, ctx *Context) (reply codec.Reply, err error) {
	defer func() {
		if r := recover(); r != nil {
			panicsTotal.Inc()
			Logger.Errorf("panic in command %s: %v\n%s", cmd.Name, r, debug.Stack())
			reply, err = codec.Reply{}, common.Internal(fmt.Errorf("command %s failed: %v", cmd.Name, r))
		}
	}()
	return cmd.Handler(ctx)
}
