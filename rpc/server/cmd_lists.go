package server

import (
	"github.com/ValentinKolb/rKV/rpc/codec"
	"github.com/ValentinKolb/rKV/rpc/options"
)

var listCommands = []Command{
	{Name: "LPUSH", Arity: AtLeast(3), Flags: FlagWrite, Handler: handleLPush},
	{Name: "RPUSH", Arity: AtLeast(3), Flags: FlagWrite, Handler: handleRPush},
	{Name: "LPOP", Arity: Range(2, 3), Flags: FlagWrite, Handler: popHandler(false)},
	{Name: "RPOP", Arity: Range(2, 3), Flags: FlagWrite, Handler: popHandler(true)},
	{Name: "LLEN", Arity: Exact(2), Flags: FlagReadOnly, Handler: handleLLen},
	{Name: "LRANGE", Arity: Exact(4), Flags: FlagReadOnly, Handler: handleLRange},
	{Name: "LINDEX", Arity: Exact(3), Flags: FlagReadOnly, Handler: handleLIndex},
	{Name: "LSET", Arity: Exact(4), Flags: FlagWrite, Handler: handleLSet},
	{Name: "LREM", Arity: Exact(4), Flags: FlagWrite, Handler: handleLRem},
	{Name: "LTRIM", Arity: Exact(4), Flags: FlagWrite, Handler: handleLTrim},
	{Name: "LINSERT", Arity: Exact(5), Flags: FlagWrite, Handler: handleLInsert},
}

func handleLPush(ctx *Context) (codec.Reply, error) {
	key := ctx.next()
	return integerReply(ctx.Store.LPush(key, ctx.Args.Rest()...))
}

func handleRPush(ctx *Context) (codec.Reply, error) {
	key := ctx.next()
	return integerReply(ctx.Store.RPush(key, ctx.Args.Rest()...))
}

// popHandler builds LPOP and RPOP. Without count the single value is
// collapsed into a bulk string.
func popHandler(tail bool) HandlerFunc {
	return func(ctx *Context) (codec.Reply, error) {
		key := ctx.next()
		count, given, err := parseOptionalCount(ctx)
		if err != nil {
			return codec.Reply{}, err
		}

		pop := ctx.Store.LPop
		if tail {
			pop = ctx.Store.RPop
		}
		values, err := pop(key, count)
		if err != nil {
			return codec.Reply{}, err
		}
		if !given {
			return codec.VArray(values).Collapse(), nil
		}
		return codec.VArray(nonNil(values)), nil
	}
}

func handleLLen(ctx *Context) (codec.Reply, error) {
	return integerReply(ctx.Store.LLen(ctx.next()))
}

// readIndexPair reads two integer arguments (start/stop)
func readIndexPair(ctx *Context) (int64, int64, error) {
	start, err := ctx.Args.ReadLong()
	if err != nil {
		return 0, 0, err
	}
	stop, err := ctx.Args.ReadLong()
	if err != nil {
		return 0, 0, err
	}
	return start, stop, nil
}

func handleLRange(ctx *Context) (codec.Reply, error) {
	key := ctx.next()
	start, stop, err := readIndexPair(ctx)
	if err != nil {
		return codec.Reply{}, err
	}
	return varrayOf(ctx.Store.LRange(key, start, stop))
}

func handleLIndex(ctx *Context) (codec.Reply, error) {
	key := ctx.next()
	index, err := ctx.Args.ReadLong()
	if err != nil {
		return codec.Reply{}, err
	}
	return bulkOrNil(ctx.Store.LIndex(key, index))
}

func handleLSet(ctx *Context) (codec.Reply, error) {
	key := ctx.next()
	index, err := ctx.Args.ReadLong()
	if err != nil {
		return codec.Reply{}, err
	}
	return okReply(ctx.Store.LSet(key, index, ctx.next()))
}

func handleLRem(ctx *Context) (codec.Reply, error) {
	key := ctx.next()
	count, err := ctx.Args.ReadLong()
	if err != nil {
		return codec.Reply{}, err
	}
	return integerReply(ctx.Store.LRem(key, count, ctx.next()))
}

func handleLTrim(ctx *Context) (codec.Reply, error) {
	key := ctx.next()
	start, stop, err := readIndexPair(ctx)
	if err != nil {
		return codec.Reply{}, err
	}
	return okReply(ctx.Store.LTrim(key, start, stop))
}

// handleLInsert implements LINSERT key BEFORE|AFTER pivot value
func handleLInsert(ctx *Context) (codec.Reply, error) {
	key := ctx.next()
	before, err := options.ParseWhere(ctx.next())
	if err != nil {
		return codec.Reply{}, err
	}
	pivot, value := ctx.next(), ctx.next()
	return integerReply(ctx.Store.LInsert(key, before, pivot, value))
}
