package server

import (
	"github.com/ValentinKolb/rKV/lib/store"
	"github.com/ValentinKolb/rKV/rpc/codec"
	"github.com/ValentinKolb/rKV/rpc/options"
)

var keyCommands = []Command{
	{Name: "DEL", Arity: AtLeast(2), Flags: FlagWrite, Handler: handleDel},
	{Name: "UNLINK", Arity: AtLeast(2), Flags: FlagWrite, Handler: handleDel},
	{Name: "EXISTS", Arity: AtLeast(2), Flags: FlagReadOnly, Handler: handleExists},
	{Name: "EXPIRE", Arity: Exact(3), Flags: FlagWrite, Handler: expireHandler(options.TTLRelativeSeconds)},
	{Name: "PEXPIRE", Arity: Exact(3), Flags: FlagWrite, Handler: expireHandler(options.TTLRelativeMillis)},
	{Name: "EXPIREAT", Arity: Exact(3), Flags: FlagWrite, Handler: expireHandler(options.TTLAbsoluteSeconds)},
	{Name: "PEXPIREAT", Arity: Exact(3), Flags: FlagWrite, Handler: expireHandler(options.TTLAbsoluteMillis)},
	{Name: "PERSIST", Arity: Exact(2), Flags: FlagWrite, Handler: handlePersist},
	{Name: "TTL", Arity: Exact(2), Flags: FlagReadOnly, Handler: ttlHandler(false)},
	{Name: "PTTL", Arity: Exact(2), Flags: FlagReadOnly, Handler: ttlHandler(true)},
	{Name: "TYPE", Arity: Exact(2), Flags: FlagReadOnly, Handler: handleType},
	{Name: "RENAME", Arity: Exact(3), Flags: FlagWrite, Handler: handleRename},
	{Name: "KEYS", Arity: Exact(2), Flags: FlagReadOnly, Handler: handleKeys},
	{Name: "DBSIZE", Arity: Exact(1), Flags: FlagReadOnly, Handler: handleDBSize},
}

func handleDel(ctx *Context) (codec.Reply, error) {
	return integerReply(ctx.Store.Del(readKeys(ctx)...))
}

func handleExists(ctx *Context) (codec.Reply, error) {
	return integerReply(ctx.Store.Exists(readKeys(ctx)...))
}

// expireHandler builds EXPIRE, PEXPIRE, EXPIREAT and PEXPIREAT. Unlike SET
// the relative variants accept values <= 0, which delete the key.
func expireHandler(kind options.TTLKind) HandlerFunc {
	return func(ctx *Context) (codec.Reply, error) {
		key := ctx.next()
		value, err := ctx.Args.ReadLong()
		if err != nil {
			return codec.Reply{}, err
		}
		at, err := options.TTL{Kind: kind, Value: value}.Resolve(ctx.NowMillis())
		if err != nil {
			return codec.Reply{}, err
		}
		return boolReply(ctx.Store.Expire(key, at))
	}
}

func handlePersist(ctx *Context) (codec.Reply, error) {
	return boolReply(ctx.Store.Persist(ctx.next()))
}

// ttlHandler builds TTL (seconds, rounded) and PTTL (milliseconds)
func ttlHandler(millis bool) HandlerFunc {
	return func(ctx *Context) (codec.Reply, error) {
		ms, err := ctx.Store.PTTL(ctx.next())
		if err != nil || millis || ms < 0 {
			return integerReply(ms, err)
		}
		return codec.Integer((ms + 500) / 1000), nil
	}
}

func handleType(ctx *Context) (codec.Reply, error) {
	typ, err := ctx.Store.Type(ctx.next())
	if err != nil {
		return codec.Reply{}, err
	}
	return codec.BulkString(typ), nil
}

func handleRename(ctx *Context) (codec.Reply, error) {
	src, dst := ctx.next(), ctx.next()
	return okReply(ctx.Store.Rename(src, dst))
}

func handleKeys(ctx *Context) (codec.Reply, error) {
	return varrayOf(ctx.Store.Keys(options.CompileGlob(ctx.next())))
}

func handleDBSize(ctx *Context) (codec.Reply, error) {
	return integerReply(ctx.Store.DBSize())
}

// resolveTTL resolves a parsed TTL against the clock of ctx
func resolveTTL(ctx *Context, ttl options.TTL) (store.Expiry, error) {
	return ttl.Resolve(ctx.NowMillis())
}
