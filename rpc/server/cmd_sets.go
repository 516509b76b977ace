package server

import (
	"github.com/ValentinKolb/rKV/rpc/codec"
)

var setCommands = []Command{
	{Name: "SADD", Arity: AtLeast(3), Flags: FlagWrite, Handler: handleSAdd},
	{Name: "SREM", Arity: AtLeast(3), Flags: FlagWrite, Handler: handleSRem},
	{Name: "SCARD", Arity: Exact(2), Flags: FlagReadOnly, Handler: handleSCard},
	{Name: "SISMEMBER", Arity: Exact(3), Flags: FlagReadOnly, Handler: handleSIsMember},
	{Name: "SMISMEMBER", Arity: AtLeast(3), Flags: FlagReadOnly, Handler: handleSMIsMember},
	{Name: "SMEMBERS", Arity: Exact(2), Flags: FlagReadOnly, Handler: handleSMembers},
	{Name: "SPOP", Arity: Range(2, 3), Flags: FlagWrite, Handler: handleSPop},
	{Name: "SRANDMEMBER", Arity: Range(2, 3), Flags: FlagReadOnly, Handler: handleSRandMember},
}

func handleSAdd(ctx *Context) (codec.Reply, error) {
	key := ctx.next()
	return integerReply(ctx.Store.SAdd(key, ctx.Args.Rest()...))
}

func handleSRem(ctx *Context) (codec.Reply, error) {
	key := ctx.next()
	return integerReply(ctx.Store.SRem(key, ctx.Args.Rest()...))
}

func handleSCard(ctx *Context) (codec.Reply, error) {
	return integerReply(ctx.Store.SCard(ctx.next()))
}

func handleSIsMember(ctx *Context) (codec.Reply, error) {
	key, member := ctx.next(), ctx.next()
	return boolReply(ctx.Store.SIsMember(key, member))
}

// handleSMIsMember replies with one INTEGER flag per member
func handleSMIsMember(ctx *Context) (codec.Reply, error) {
	key := ctx.next()
	flags, err := ctx.Store.SMIsMember(key, ctx.Args.Rest()...)
	if err != nil {
		return codec.Reply{}, err
	}
	items := make([]codec.Reply, len(flags))
	for i, ok := range flags {
		items[i] = codec.Bool(ok)
	}
	return codec.TypedArray(items), nil
}

func handleSMembers(ctx *Context) (codec.Reply, error) {
	return varrayOf(ctx.Store.SMembers(ctx.next()))
}

// handleSPop implements SPOP key [count]. Without count the single member is
// collapsed into a bulk string.
func handleSPop(ctx *Context) (codec.Reply, error) {
	key := ctx.next()
	count, given, err := parseOptionalCount(ctx)
	if err != nil {
		return codec.Reply{}, err
	}
	members, err := ctx.Store.SPop(key, count)
	if err != nil {
		return codec.Reply{}, err
	}
	if !given {
		return codec.VArray(members).Collapse(), nil
	}
	return codec.VArray(nonNil(members)), nil
}

// handleSRandMember implements SRANDMEMBER key [count]. A negative count
// allows repetitions.
func handleSRandMember(ctx *Context) (codec.Reply, error) {
	key := ctx.next()
	if ctx.Args.Remaining() == 0 {
		members, err := ctx.Store.SRandMember(key, 1)
		if err != nil {
			return codec.Reply{}, err
		}
		return codec.VArray(members).Collapse(), nil
	}
	count, err := ctx.Args.ReadLong()
	if err != nil {
		return codec.Reply{}, err
	}
	return varrayOf(ctx.Store.SRandMember(key, count))
}
