package server

import (
	"math"

	"github.com/ValentinKolb/rKV/lib/store"
	"github.com/ValentinKolb/rKV/rpc/codec"
	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/options"
)

var stringCommands = []Command{
	{Name: "GET", Arity: Exact(2), Flags: FlagReadOnly, Handler: handleGet},
	{Name: "SET", Arity: Range(3, 7), Flags: FlagWrite, Handler: handleSet},
	{Name: "SETNX", Arity: Exact(3), Flags: FlagWrite, Handler: handleSetNX},
	{Name: "SETEX", Arity: Exact(4), Flags: FlagWrite, Handler: setExHandler(options.TTLRelativeSeconds)},
	{Name: "PSETEX", Arity: Exact(4), Flags: FlagWrite, Handler: setExHandler(options.TTLRelativeMillis)},
	{Name: "GETSET", Arity: Exact(3), Flags: FlagWrite, Handler: handleGetSet},
	{Name: "GETDEL", Arity: Exact(2), Flags: FlagWrite, Handler: handleGetDel},
	{Name: "GETEX", Arity: Range(2, 4), Flags: FlagWrite, Handler: handleGetEx},
	{Name: "APPEND", Arity: Exact(3), Flags: FlagWrite, Handler: handleAppend},
	{Name: "STRLEN", Arity: Exact(2), Flags: FlagReadOnly, Handler: handleStrLen},
	{Name: "INCR", Arity: Exact(2), Flags: FlagWrite, Handler: incrHandler(1)},
	{Name: "DECR", Arity: Exact(2), Flags: FlagWrite, Handler: incrHandler(-1)},
	{Name: "INCRBY", Arity: Exact(3), Flags: FlagWrite, Handler: incrByHandler(false)},
	{Name: "DECRBY", Arity: Exact(3), Flags: FlagWrite, Handler: incrByHandler(true)},
	{Name: "INCRBYFLOAT", Arity: Exact(3), Flags: FlagWrite, Handler: handleIncrByFloat},
	{Name: "GETRANGE", Arity: Exact(4), Flags: FlagReadOnly, Handler: handleGetRange},
	{Name: "SETRANGE", Arity: Exact(4), Flags: FlagWrite, Handler: handleSetRange},
	{Name: "MGET", Arity: AtLeast(2), Flags: FlagReadOnly, Handler: handleMGet},
	{Name: "MSET", Arity: Pairs(3), Flags: FlagWrite, Handler: handleMSet},
}

func handleGet(ctx *Context) (codec.Reply, error) {
	return bulkOrNil(ctx.Store.Get(ctx.next()))
}

// handleSet implements SET key value [NX|XX] [GET] [EX|PX|EXAT|PXAT n|KEEPTTL]
func handleSet(ctx *Context) (codec.Reply, error) {
	key, value := ctx.next(), ctx.next()
	opts, err := options.ParseSetOptions(ctx.Args)
	if err != nil {
		return codec.Reply{}, err
	}
	at, err := resolveTTL(ctx, opts.TTL)
	if err != nil {
		return codec.Reply{}, err
	}

	res, err := ctx.Store.Set(key, value, store.SetOptions{Mutation: opts.Mutation, Expiry: at, Get: opts.Get})
	if err != nil {
		return codec.Reply{}, err
	}
	switch {
	case opts.Get:
		return codec.BulkOrNil(res.Old, res.HadOld), nil
	case !res.Written:
		return codec.NilBulk(), nil
	default:
		return codec.OK(), nil
	}
}

func handleSetNX(ctx *Context) (codec.Reply, error) {
	key, value := ctx.next(), ctx.next()
	res, err := ctx.Store.Set(key, value, store.SetOptions{Mutation: store.MutationNX, Expiry: store.NoExpiry})
	return boolReply(res.Written, err)
}

// setExHandler builds SETEX and PSETEX: key ttl value
func setExHandler(kind options.TTLKind) HandlerFunc {
	return func(ctx *Context) (codec.Reply, error) {
		key := ctx.next()
		raw, _ := ctx.Args.Peek()
		ttl, err := ctx.Args.ReadLong()
		if err != nil {
			return codec.Reply{}, err
		}
		if ttl <= 0 {
			return codec.Reply{}, common.PositiveNumberExpected(raw)
		}
		at, err := resolveTTL(ctx, options.TTL{Kind: kind, Value: ttl})
		if err != nil {
			return codec.Reply{}, err
		}
		_, err = ctx.Store.Set(key, ctx.next(), store.SetOptions{Expiry: at})
		return okReply(err)
	}
}

func handleGetSet(ctx *Context) (codec.Reply, error) {
	key, value := ctx.next(), ctx.next()
	res, err := ctx.Store.Set(key, value, store.SetOptions{Expiry: store.NoExpiry, Get: true})
	return bulkOrNil(res.Old, res.HadOld, err)
}

func handleGetDel(ctx *Context) (codec.Reply, error) {
	return bulkOrNil(ctx.Store.GetDel(ctx.next()))
}

// handleGetEx implements GETEX key [EX|PX|EXAT|PXAT n|PERSIST]
func handleGetEx(ctx *Context) (codec.Reply, error) {
	key := ctx.next()
	ttl, err := options.ParseGetExOptions(ctx.Args)
	if err != nil {
		return codec.Reply{}, err
	}
	at, err := resolveTTL(ctx, ttl)
	if err != nil {
		return codec.Reply{}, err
	}
	return bulkOrNil(ctx.Store.GetEx(key, at))
}

func handleAppend(ctx *Context) (codec.Reply, error) {
	key, value := ctx.next(), ctx.next()
	return integerReply(ctx.Store.Append(key, value))
}

func handleStrLen(ctx *Context) (codec.Reply, error) {
	return integerReply(ctx.Store.StrLen(ctx.next()))
}

func incrHandler(delta int64) HandlerFunc {
	return func(ctx *Context) (codec.Reply, error) {
		return integerReply(ctx.Store.IncrBy(ctx.next(), delta))
	}
}

func incrByHandler(negate bool) HandlerFunc {
	return func(ctx *Context) (codec.Reply, error) {
		key := ctx.next()
		delta, err := ctx.Args.ReadLong()
		if err != nil {
			return codec.Reply{}, err
		}
		if negate {
			if delta == math.MinInt64 {
				return codec.Reply{}, store.ErrOverflow
			}
			delta = -delta
		}
		return integerReply(ctx.Store.IncrBy(key, delta))
	}
}

func handleIncrByFloat(ctx *Context) (codec.Reply, error) {
	key := ctx.next()
	delta, err := ctx.Args.ReadDouble()
	if err != nil {
		return codec.Reply{}, err
	}
	return doubleReply(ctx.Store.IncrByFloat(key, delta))
}

func handleGetRange(ctx *Context) (codec.Reply, error) {
	key := ctx.next()
	start, err := ctx.Args.ReadLong()
	if err != nil {
		return codec.Reply{}, err
	}
	end, err := ctx.Args.ReadLong()
	if err != nil {
		return codec.Reply{}, err
	}
	return bulkReply(ctx.Store.GetRange(key, start, end))
}

func handleSetRange(ctx *Context) (codec.Reply, error) {
	key := ctx.next()
	offset, err := ctx.Args.ReadLong()
	if err != nil {
		return codec.Reply{}, err
	}
	return integerReply(ctx.Store.SetRange(key, offset, ctx.next()))
}

func handleMGet(ctx *Context) (codec.Reply, error) {
	return arrayOf(ctx.Store.MGet(readKeys(ctx)...))
}

func handleMSet(ctx *Context) (codec.Reply, error) {
	return okReply(ctx.Store.MSet(readKeys(ctx)...))
}
