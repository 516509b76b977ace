package server

import (
	"github.com/ValentinKolb/rKV/lib/store"
	"github.com/ValentinKolb/rKV/rpc/codec"
	"github.com/ValentinKolb/rKV/rpc/common"
)

var bitmapCommands = []Command{
	{Name: "SETBIT", Arity: Exact(4), Flags: FlagWrite, Handler: handleSetBit},
	{Name: "GETBIT", Arity: Exact(3), Flags: FlagReadOnly, Handler: handleGetBit},
	{Name: "BITCOUNT", Arity: Arity{Min: 2, Max: 4, Step: 2}, Flags: FlagReadOnly, Handler: handleBitCount},
}

// readOffset reads a non-negative bit offset
func readOffset(ctx *Context) (uint64, error) {
	raw, _ := ctx.Args.Peek()
	offset, err := ctx.Args.ReadLong()
	if err != nil {
		return 0, err
	}
	if offset < 0 {
		return 0, common.PositiveNumberExpected(raw).WithDetail("(bit offset is not an integer or out of range)")
	}
	return uint64(offset), nil
}

func handleSetBit(ctx *Context) (codec.Reply, error) {
	key := ctx.next()
	offset, err := readOffset(ctx)
	if err != nil {
		return codec.Reply{}, err
	}
	var value bool
	switch arg := ctx.next(); string(arg) {
	case "1":
		value = true
	case "0":
	default:
		return codec.Reply{}, common.WrongNumberFormat(arg).WithDetail("(bit is not an integer or out of range)")
	}
	return boolReply(ctx.Store.SetBit(key, offset, value))
}

func handleGetBit(ctx *Context) (codec.Reply, error) {
	key := ctx.next()
	offset, err := readOffset(ctx)
	if err != nil {
		return codec.Reply{}, err
	}
	return boolReply(ctx.Store.GetBit(key, offset))
}

// handleBitCount implements BITCOUNT key [start end]
func handleBitCount(ctx *Context) (codec.Reply, error) {
	key := ctx.next()
	if ctx.Args.Remaining() == 0 {
		return integerReply(ctx.Store.BitCount(key, nil))
	}
	start, end, err := readIndexPair(ctx)
	if err != nil {
		return codec.Reply{}, err
	}
	return integerReply(ctx.Store.BitCount(key, &store.ByteRange{Start: start, End: end}))
}
