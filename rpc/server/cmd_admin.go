package server

import (
	"strconv"

	"github.com/ValentinKolb/rKV/rpc/codec"
	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/options"
)

// The admin commands only validate their flags and delegate to ctx.Admin.

var adminCommands = []Command{
	{Name: "BGSAVE", Arity: Range(1, 2), Flags: FlagAdmin, Handler: withAdmin(handleBGSave)},
	{Name: "SAVE", Arity: Exact(1), Flags: FlagAdmin, Handler: withAdmin(handleSave)},
	{Name: "SHUTDOWN", Arity: Range(1, 2), Flags: FlagAdmin, Handler: withAdmin(handleShutdown)},
	{Name: "FLUSHALL", Arity: Range(1, 2), Flags: FlagAdmin | FlagWrite, Handler: withAdmin(handleFlushAll)},
	{Name: "INFO", Arity: Range(1, 2), Flags: FlagAdmin | FlagReadOnly, Handler: withAdmin(handleInfo)},
	{Name: "CLUSTER", Arity: Exact(2), Flags: FlagAdmin | FlagReadOnly, Handler: withAdmin(handleCluster)},
	{Name: "TIME", Arity: Exact(1), Flags: FlagReadOnly, Handler: handleTime},
}

// withAdmin fails the command if the dispatcher has no admin component
func withAdmin(h HandlerFunc) HandlerFunc {
	return func(ctx *Context) (codec.Reply, error) {
		if ctx.Admin == nil {
			return codec.Reply{}, common.OperationFailed().WithDetail("(admin commands are disabled)")
		}
		return h(ctx)
	}
}

func handleBGSave(ctx *Context) (codec.Reply, error) {
	schedule, err := options.ParseBGSave(ctx.Request)
	if err != nil {
		return codec.Reply{}, err
	}
	status, err := ctx.Admin.BackgroundSave(schedule)
	if err != nil {
		return codec.Reply{}, err
	}
	return codec.BulkString(status), nil
}

func handleSave(ctx *Context) (codec.Reply, error) {
	return okReply(ctx.Admin.Save())
}

func handleShutdown(ctx *Context) (codec.Reply, error) {
	mode, err := options.ParseShutdown(ctx.Request)
	if err != nil {
		return codec.Reply{}, err
	}
	return okReply(ctx.Admin.Shutdown(mode))
}

func handleFlushAll(ctx *Context) (codec.Reply, error) {
	async, err := options.ParseFlushAll(ctx.Request)
	if err != nil {
		return codec.Reply{}, err
	}
	return okReply(ctx.Admin.FlushAll(async))
}

func handleInfo(ctx *Context) (codec.Reply, error) {
	section, err := options.ParseInfo(ctx.Request)
	if err != nil {
		return codec.Reply{}, err
	}
	info, err := ctx.Admin.Info(section)
	if err != nil {
		return codec.Reply{}, err
	}
	return codec.BulkString(info), nil
}

// handleCluster implements CLUSTER SLOTS. Every slot range is sent as five
// consecutive elements: start, end, host, port and node id.
func handleCluster(ctx *Context) (codec.Reply, error) {
	if err := options.ParseCluster(ctx.Request); err != nil {
		return codec.Reply{}, err
	}
	slots, err := ctx.Admin.ClusterSlots()
	if err != nil {
		return codec.Reply{}, err
	}
	items := make([]codec.Reply, 0, 5*len(slots))
	for _, s := range slots {
		items = append(items,
			codec.Integer(s.Start),
			codec.Integer(s.End),
			codec.BulkString(s.Host),
			codec.Integer(s.Port),
			codec.BulkString(s.NodeID),
		)
	}
	return codec.TypedArray(items), nil
}

// handleTime replies with the unix time in seconds and the microseconds
// elapsed in the current second
func handleTime(ctx *Context) (codec.Reply, error) {
	now := ctx.Now()
	if ctx.Admin != nil {
		now = ctx.Admin.Time()
	}
	return codec.Array([][]byte{
		strconv.AppendInt(nil, now.Unix(), 10),
		strconv.AppendInt(nil, int64(now.Nanosecond()/1000), 10),
	}), nil
}
