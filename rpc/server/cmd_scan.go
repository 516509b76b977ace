package server

import (
	"math"
	"strconv"

	"github.com/ValentinKolb/rKV/lib/store"
	"github.com/ValentinKolb/rKV/rpc/codec"
	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/options"
)

var scanCommands = []Command{
	{Name: "HSCAN", Arity: Range(3, 7), Flags: FlagReadOnly, Handler: handleHScan},
	{Name: "SSCAN", Arity: Range(3, 7), Flags: FlagReadOnly, Handler: handleSScan},
	{Name: "ZSCAN", Arity: Range(3, 7), Flags: FlagReadOnly, Handler: handleZScan},
}

// --------------------------------------------------------------------------
// Cursor Protocol
// --------------------------------------------------------------------------

/*
	A scan page is read with one element of look-ahead: the store returns up
	to count+1 elements strictly after the marker of the previous page. If the
	look-ahead element exists it is dropped, the marker of the last returned
	element is saved under a new cursor id and that id is returned. Otherwise
	the scan is complete and the returned cursor is 0.

	Cursors are consumed when they are resumed, resuming the same id twice
	fails with InvalidCursor.
*/

// scanRequest is the parsed head of a SCAN family command
type scanRequest struct {
	key   []byte
	after []byte // nil = start of the collection
	opts  options.ScanOptions
}

// limit returns the number of elements to request from the store
func (s scanRequest) limit() int {
	if s.opts.Count == math.MaxInt {
		return s.opts.Count
	}
	return s.opts.Count + 1
}

// beginScan parses key cursor [MATCH pattern] [COUNT n] and resolves the
// cursor. The options are validated before the cursor is consumed.
func beginScan(ctx *Context) (scanRequest, error) {
	key, token := ctx.next(), ctx.next()
	id, err := strconv.ParseUint(string(token), 10, 64)
	if err != nil {
		return scanRequest{}, common.InvalidCursor(token, false)
	}
	opts, err := options.ParseScanOptions(ctx.Args)
	if err != nil {
		return scanRequest{}, err
	}

	req := scanRequest{key: key, opts: opts}
	if id == 0 {
		return req, nil
	}
	if req.after, err = ctx.Cursors.Take(id); err != nil {
		return scanRequest{}, common.InvalidCursor(token, true)
	}
	return req, nil
}

// nextCursor saves the marker staged by stage under a new cursor id if the
// page had a look-ahead element (more), it returns 0 otherwise
func nextCursor(ctx *Context, more bool, stage func(dst []byte) []byte) uint64 {
	if !more {
		return 0
	}
	id := ctx.Cursors.AllocateID()
	ctx.Cursors.Save(id, ctx.Scratch().Stage(stage))
	return id
}

// --------------------------------------------------------------------------
// Handlers
// --------------------------------------------------------------------------

func handleHScan(ctx *Context) (codec.Reply, error) {
	req, err := beginScan(ctx)
	if err != nil {
		return codec.Reply{}, err
	}
	entries, err := ctx.Store.HScan(req.key, req.after, req.limit(), req.opts.Match)
	if err != nil {
		return codec.Reply{}, err
	}

	more := len(entries) > req.opts.Count
	if more {
		entries = entries[:req.opts.Count]
	}
	cursor := nextCursor(ctx, more, func(dst []byte) []byte {
		return append(dst, entries[len(entries)-1].Field...)
	})
	return codec.MultiBulk(cursor, codec.Array(fieldValues(entries))), nil
}

func handleSScan(ctx *Context) (codec.Reply, error) {
	req, err := beginScan(ctx)
	if err != nil {
		return codec.Reply{}, err
	}
	members, err := ctx.Store.SScan(req.key, req.after, req.limit(), req.opts.Match)
	if err != nil {
		return codec.Reply{}, err
	}

	more := len(members) > req.opts.Count
	if more {
		members = members[:req.opts.Count]
	}
	cursor := nextCursor(ctx, more, func(dst []byte) []byte {
		return append(dst, members[len(members)-1]...)
	})
	return codec.MultiBulk(cursor, codec.Array(nonNil(members))), nil
}

func handleZScan(ctx *Context) (codec.Reply, error) {
	req, err := beginScan(ctx)
	if err != nil {
		return codec.Reply{}, err
	}
	members, err := ctx.Store.ZScan(req.key, req.after, req.limit(), req.opts.Match)
	if err != nil {
		return codec.Reply{}, err
	}

	more := len(members) > req.opts.Count
	if more {
		members = members[:req.opts.Count]
	}
	cursor := nextCursor(ctx, more, func(dst []byte) []byte {
		last := members[len(members)-1]
		return store.AppendZMarker(dst, last.Score, last.Member)
	})
	return codec.MultiBulk(cursor, zarrayOf(members, true)), nil
}
