package server

import (
	"bytes"

	"github.com/ValentinKolb/rKV/rpc/codec"
	"github.com/ValentinKolb/rKV/rpc/common"
)

var connectionCommands = []Command{
	{Name: "PING", Arity: Range(1, 2), Flags: FlagReadOnly, Handler: handlePing},
	{Name: "ECHO", Arity: Exact(2), Flags: FlagReadOnly, Handler: handleEcho},
	{Name: "COMMAND", Arity: Exact(2), Flags: FlagReadOnly, Handler: handleCommand},
}

var pong = []byte("PONG")

func handlePing(ctx *Context) (codec.Reply, error) {
	if msg, ok := ctx.Args.Next(); ok {
		return codec.Bulk(msg), nil
	}
	return codec.Bulk(pong), nil
}

func handleEcho(ctx *Context) (codec.Reply, error) {
	return codec.Bulk(ctx.next()), nil
}

// handleCommand implements COMMAND COUNT
func handleCommand(ctx *Context) (codec.Reply, error) {
	if !bytes.EqualFold(ctx.next(), []byte("COUNT")) {
		return codec.Reply{}, common.UnsupportedCommand(ctx.Request.String())
	}
	return codec.Integer(int64(ctx.Registry.Len())), nil
}
