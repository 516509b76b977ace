package server

import (
	"github.com/ValentinKolb/rKV/lib/store"
	"github.com/ValentinKolb/rKV/rpc/codec"
	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/options"
)

var zsetCommands = []Command{
	{Name: "ZADD", Arity: AtLeast(4), Flags: FlagWrite, Handler: handleZAdd},
	{Name: "ZREM", Arity: AtLeast(3), Flags: FlagWrite, Handler: handleZRem},
	{Name: "ZCARD", Arity: Exact(2), Flags: FlagReadOnly, Handler: handleZCard},
	{Name: "ZSCORE", Arity: Exact(3), Flags: FlagReadOnly, Handler: handleZScore},
	{Name: "ZMSCORE", Arity: AtLeast(3), Flags: FlagReadOnly, Handler: handleZMScore},
	{Name: "ZINCRBY", Arity: Exact(4), Flags: FlagWrite, Handler: handleZIncrBy},
	{Name: "ZCOUNT", Arity: Exact(4), Flags: FlagReadOnly, Handler: handleZCount},
	{Name: "ZLEXCOUNT", Arity: Exact(4), Flags: FlagReadOnly, Handler: handleZLexCount},
	{Name: "ZRANGE", Arity: Range(4, 5), Flags: FlagReadOnly, Handler: zrangeHandler(false)},
	{Name: "ZREVRANGE", Arity: Range(4, 5), Flags: FlagReadOnly, Handler: zrangeHandler(true)},
	{Name: "ZRANGEBYSCORE", Arity: Range(4, 8), Flags: FlagReadOnly, Handler: zrangeByScoreHandler(false)},
	{Name: "ZREVRANGEBYSCORE", Arity: Range(4, 8), Flags: FlagReadOnly, Handler: zrangeByScoreHandler(true)},
	{Name: "ZRANGEBYLEX", Arity: Range(4, 7), Flags: FlagReadOnly, Handler: zrangeByLexHandler(false)},
	{Name: "ZREVRANGEBYLEX", Arity: Range(4, 7), Flags: FlagReadOnly, Handler: zrangeByLexHandler(true)},
	{Name: "ZREMRANGEBYSCORE", Arity: Exact(4), Flags: FlagWrite, Handler: handleZRemRangeByScore},
	{Name: "ZREMRANGEBYLEX", Arity: Exact(4), Flags: FlagWrite, Handler: handleZRemRangeByLex},
	{Name: "ZRANK", Arity: Exact(3), Flags: FlagReadOnly, Handler: zrankHandler(false)},
	{Name: "ZREVRANK", Arity: Exact(3), Flags: FlagReadOnly, Handler: zrankHandler(true)},
}

// handleZAdd implements ZADD key [NX|XX] [GT|LT] [CH] [INCR] score member [score member ...]
func handleZAdd(ctx *Context) (codec.Reply, error) {
	key := ctx.next()
	opts, err := options.ParseZAddOptions(ctx.Args)
	if err != nil {
		return codec.Reply{}, err
	}

	// the registry only checks the minimum arity; whether the pairs are complete
	// depends on how many leading arguments were flags, so it is checked here,
	// still before the store is touched
	rest := ctx.Args.Rest()
	if len(rest) == 0 || len(rest)%2 != 0 {
		return codec.Reply{}, common.WrongArgsNumber("ZADD")
	}
	if opts.Incr && len(rest) != 2 {
		return codec.Reply{}, common.IllegalArgs("INCR").WithDetail("(only one score-member pair allowed)")
	}

	members := make([]store.ScoredMember, len(rest)/2)
	for i := range members {
		score, err := codec.ParseDouble(rest[2*i])
		if err != nil {
			return codec.Reply{}, err
		}
		members[i] = store.ScoredMember{Member: rest[2*i+1], Score: score}
	}

	if opts.Incr {
		score, ok, err := ctx.Store.ZAddIncr(key, opts.ZAddOptions, members[0].Score, members[0].Member)
		if err != nil {
			return codec.Reply{}, err
		}
		if !ok {
			return codec.NilBulk(), nil
		}
		return codec.Double(score), nil
	}
	return integerReply(ctx.Store.ZAdd(key, opts.ZAddOptions, members...))
}

func handleZRem(ctx *Context) (codec.Reply, error) {
	key := ctx.next()
	return integerReply(ctx.Store.ZRem(key, ctx.Args.Rest()...))
}

func handleZCard(ctx *Context) (codec.Reply, error) {
	return integerReply(ctx.Store.ZCard(ctx.next()))
}

func handleZScore(ctx *Context) (codec.Reply, error) {
	key, member := ctx.next(), ctx.next()
	score, loaded, err := ctx.Store.ZScore(key, member)
	if err != nil {
		return codec.Reply{}, err
	}
	return scoreOrNil(score, loaded), nil
}

// handleZMScore replies with one DOUBLE (or nil) per member
func handleZMScore(ctx *Context) (codec.Reply, error) {
	key := ctx.next()
	scores, err := ctx.Store.ZMScore(key, ctx.Args.Rest()...)
	if err != nil {
		return codec.Reply{}, err
	}
	items := make([]codec.Reply, len(scores))
	for i, s := range scores {
		items[i] = scoreOrNil(s.Score, s.Loaded)
	}
	return codec.TypedArray(items), nil
}

func scoreOrNil(score float64, loaded bool) codec.Reply {
	if !loaded {
		return codec.NilBulk()
	}
	return codec.Double(score)
}

func handleZIncrBy(ctx *Context) (codec.Reply, error) {
	key := ctx.next()
	delta, err := ctx.Args.ReadDouble()
	if err != nil {
		return codec.Reply{}, err
	}
	return doubleReply(ctx.Store.ZIncrBy(key, delta, ctx.next()))
}

func handleZCount(ctx *Context) (codec.Reply, error) {
	key := ctx.next()
	r, err := options.ParseScoreRange(ctx.next(), ctx.next())
	if err != nil {
		return codec.Reply{}, err
	}
	return integerReply(ctx.Store.ZCount(key, r))
}

func handleZLexCount(ctx *Context) (codec.Reply, error) {
	key := ctx.next()
	r, err := options.ParseLexRange(ctx.next(), ctx.next())
	if err != nil {
		return codec.Reply{}, err
	}
	return integerReply(ctx.Store.ZLexCount(key, r))
}

// zrangeHandler builds ZRANGE and ZREVRANGE: key start stop [WITHSCORES]
func zrangeHandler(rev bool) HandlerFunc {
	return func(ctx *Context) (codec.Reply, error) {
		key := ctx.next()
		start, stop, err := readIndexPair(ctx)
		if err != nil {
			return codec.Reply{}, err
		}
		opts, err := options.ParseZRangeOptions(ctx.Args, true, false)
		if err != nil {
			return codec.Reply{}, err
		}
		members, err := ctx.Store.ZRange(key, start, stop, rev)
		if err != nil {
			return codec.Reply{}, err
		}
		return zarrayOf(members, opts.WithScores), nil
	}
}

// readRangeArgs reads the two boundary arguments. Reversed commands take the
// maximum first.
func readRangeArgs(ctx *Context, rev bool) (min, max []byte) {
	first, second := ctx.next(), ctx.next()
	if rev {
		return second, first
	}
	return first, second
}

// zrangeByScoreHandler builds ZRANGEBYSCORE and ZREVRANGEBYSCORE:
// key min max [WITHSCORES] [LIMIT offset count]
func zrangeByScoreHandler(rev bool) HandlerFunc {
	return func(ctx *Context) (codec.Reply, error) {
		key := ctx.next()
		r, err := options.ParseScoreRange(readRangeArgs(ctx, rev))
		if err != nil {
			return codec.Reply{}, err
		}
		opts, err := options.ParseZRangeOptions(ctx.Args, true, true)
		if err != nil {
			return codec.Reply{}, err
		}
		members, err := ctx.Store.ZRangeByScore(key, r, rev, opts.Limit)
		if err != nil {
			return codec.Reply{}, err
		}
		return zarrayOf(members, opts.WithScores), nil
	}
}

// zrangeByLexHandler builds ZRANGEBYLEX and ZREVRANGEBYLEX:
// key min max [LIMIT offset count]
func zrangeByLexHandler(rev bool) HandlerFunc {
	return func(ctx *Context) (codec.Reply, error) {
		key := ctx.next()
		r, err := options.ParseLexRange(readRangeArgs(ctx, rev))
		if err != nil {
			return codec.Reply{}, err
		}
		opts, err := options.ParseZRangeOptions(ctx.Args, false, true)
		if err != nil {
			return codec.Reply{}, err
		}
		members, err := ctx.Store.ZRangeByLex(key, r, rev, opts.Limit)
		if err != nil {
			return codec.Reply{}, err
		}
		return zarrayOf(members, false), nil
	}
}

func handleZRemRangeByScore(ctx *Context) (codec.Reply, error) {
	key := ctx.next()
	r, err := options.ParseScoreRange(ctx.next(), ctx.next())
	if err != nil {
		return codec.Reply{}, err
	}
	return integerReply(ctx.Store.ZRemRangeByScore(key, r))
}

func handleZRemRangeByLex(ctx *Context) (codec.Reply, error) {
	key := ctx.next()
	r, err := options.ParseLexRange(ctx.next(), ctx.next())
	if err != nil {
		return codec.Reply{}, err
	}
	return integerReply(ctx.Store.ZRemRangeByLex(key, r))
}

func zrankHandler(rev bool) HandlerFunc {
	return func(ctx *Context) (codec.Reply, error) {
		key, member := ctx.next(), ctx.next()
		rank, loaded, err := ctx.Store.ZRank(key, member, rev)
		if err != nil {
			return codec.Reply{}, err
		}
		if !loaded {
			return codec.NilBulk(), nil
		}
		return codec.Integer(rank), nil
	}
}
