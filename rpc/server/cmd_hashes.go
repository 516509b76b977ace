package server

import (
	"github.com/ValentinKolb/rKV/rpc/codec"
	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/options"
)

var hashCommands = []Command{
	{Name: "HSET", Arity: Pairs(4), Flags: FlagWrite, Handler: handleHSet},
	{Name: "HSETNX", Arity: Exact(4), Flags: FlagWrite, Handler: handleHSetNX},
	{Name: "HGET", Arity: Exact(3), Flags: FlagReadOnly, Handler: handleHGet},
	{Name: "HMGET", Arity: AtLeast(3), Flags: FlagReadOnly, Handler: handleHMGet},
	{Name: "HDEL", Arity: AtLeast(3), Flags: FlagWrite, Handler: handleHDel},
	{Name: "HEXISTS", Arity: Exact(3), Flags: FlagReadOnly, Handler: handleHExists},
	{Name: "HLEN", Arity: Exact(2), Flags: FlagReadOnly, Handler: handleHLen},
	{Name: "HSTRLEN", Arity: Exact(3), Flags: FlagReadOnly, Handler: handleHStrLen},
	{Name: "HKEYS", Arity: Exact(2), Flags: FlagReadOnly, Handler: hashPartHandler(true, false)},
	{Name: "HVALS", Arity: Exact(2), Flags: FlagReadOnly, Handler: hashPartHandler(false, true)},
	{Name: "HGETALL", Arity: Exact(2), Flags: FlagReadOnly, Handler: handleHGetAll},
	{Name: "HINCRBY", Arity: Exact(4), Flags: FlagWrite, Handler: handleHIncrBy},
	{Name: "HINCRBYFLOAT", Arity: Exact(4), Flags: FlagWrite, Handler: handleHIncrByFloat},
	{Name: "HRANDFIELD", Arity: Range(2, 4), Flags: FlagReadOnly, Handler: handleHRandField},
}

func handleHSet(ctx *Context) (codec.Reply, error) {
	key := ctx.next()
	return integerReply(ctx.Store.HSet(key, ctx.Args.Rest()...))
}

func handleHSetNX(ctx *Context) (codec.Reply, error) {
	key, field, value := ctx.next(), ctx.next(), ctx.next()
	return boolReply(ctx.Store.HSetNX(key, field, value))
}

func handleHGet(ctx *Context) (codec.Reply, error) {
	key, field := ctx.next(), ctx.next()
	return bulkOrNil(ctx.Store.HGet(key, field))
}

func handleHMGet(ctx *Context) (codec.Reply, error) {
	key := ctx.next()
	return arrayOf(ctx.Store.HMGet(key, ctx.Args.Rest()...))
}

func handleHDel(ctx *Context) (codec.Reply, error) {
	key := ctx.next()
	return integerReply(ctx.Store.HDel(key, ctx.Args.Rest()...))
}

func handleHExists(ctx *Context) (codec.Reply, error) {
	key, field := ctx.next(), ctx.next()
	return boolReply(ctx.Store.HExists(key, field))
}

func handleHLen(ctx *Context) (codec.Reply, error) {
	return integerReply(ctx.Store.HLen(ctx.next()))
}

func handleHStrLen(ctx *Context) (codec.Reply, error) {
	key, field := ctx.next(), ctx.next()
	return integerReply(ctx.Store.HStrLen(key, field))
}

// hashPartHandler builds HKEYS and HVALS
func hashPartHandler(fields, values bool) HandlerFunc {
	return func(ctx *Context) (codec.Reply, error) {
		entries, err := ctx.Store.HGetAll(ctx.next())
		if err != nil {
			return codec.Reply{}, err
		}
		elems := make([][]byte, 0, len(entries))
		for _, e := range entries {
			if fields {
				elems = append(elems, e.Field)
			}
			if values {
				elems = append(elems, e.Value)
			}
		}
		return codec.VArray(elems), nil
	}
}

func handleHGetAll(ctx *Context) (codec.Reply, error) {
	entries, err := ctx.Store.HGetAll(ctx.next())
	if err != nil {
		return codec.Reply{}, err
	}
	return codec.Array(fieldValues(entries)), nil
}

func handleHIncrBy(ctx *Context) (codec.Reply, error) {
	key, field := ctx.next(), ctx.next()
	delta, err := ctx.Args.ReadLong()
	if err != nil {
		return codec.Reply{}, err
	}
	return integerReply(ctx.Store.HIncrBy(key, field, delta))
}

func handleHIncrByFloat(ctx *Context) (codec.Reply, error) {
	key, field := ctx.next(), ctx.next()
	delta, err := ctx.Args.ReadDouble()
	if err != nil {
		return codec.Reply{}, err
	}
	return doubleReply(ctx.Store.HIncrByFloat(key, field, delta))
}

// handleHRandField implements HRANDFIELD key [count [WITHVALUES]]. Without
// count a single field (or nil) is returned.
func handleHRandField(ctx *Context) (codec.Reply, error) {
	key := ctx.next()
	if ctx.Args.Remaining() == 0 {
		entries, err := ctx.Store.HRandField(key, 1)
		if err != nil || len(entries) == 0 {
			return bulkOrNil(nil, false, err)
		}
		return codec.Bulk(entries[0].Field), nil
	}

	count, err := ctx.Args.ReadLong()
	if err != nil {
		return codec.Reply{}, err
	}
	withValues := false
	if arg, ok := ctx.Args.Next(); ok {
		if !options.IsWithValues(arg) {
			return codec.Reply{}, common.WrongCommandFormat(arg)
		}
		withValues = true
	}

	entries, err := ctx.Store.HRandField(key, count)
	if err != nil {
		return codec.Reply{}, err
	}
	if withValues {
		return codec.VArray(fieldValues(entries)), nil
	}
	fields := make([][]byte, len(entries))
	for i, e := range entries {
		fields[i] = e.Field
	}
	return codec.VArray(fields), nil
}
