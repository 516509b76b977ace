package server

import (
	"github.com/ValentinKolb/rKV/lib/store"
	"github.com/ValentinKolb/rKV/rpc/codec"
	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/options"
)

// --------------------------------------------------------------------------
// Reply Helpers
// --------------------------------------------------------------------------

// The helpers take the results of a store call and turn them into a reply,
// passing a store error through unchanged.

func okReply(err error) (codec.Reply, error) {
	if err != nil {
		return codec.Reply{}, err
	}
	return codec.OK(), nil
}

func integerReply(n int64, err error) (codec.Reply, error) {
	if err != nil {
		return codec.Reply{}, err
	}
	return codec.Integer(n), nil
}

func boolReply(ok bool, err error) (codec.Reply, error) {
	if err != nil {
		return codec.Reply{}, err
	}
	return codec.Bool(ok), nil
}

func doubleReply(v float64, err error) (codec.Reply, error) {
	if err != nil {
		return codec.Reply{}, err
	}
	return codec.Double(v), nil
}

func bulkReply(v []byte, err error) (codec.Reply, error) {
	if err != nil {
		return codec.Reply{}, err
	}
	return codec.Bulk(v), nil
}

func bulkOrNil(v []byte, loaded bool, err error) (codec.Reply, error) {
	if err != nil {
		return codec.Reply{}, err
	}
	return codec.BulkOrNil(v, loaded), nil
}

// arrayOf returns an ARRAY reply, used for positional results with nil elements
func arrayOf(elems [][]byte, err error) (codec.Reply, error) {
	if err != nil {
		return codec.Reply{}, err
	}
	return codec.Array(nonNil(elems)), nil
}

// varrayOf returns a VARRAY reply, used for plain collections
func varrayOf(elems [][]byte, err error) (codec.Reply, error) {
	if err != nil {
		return codec.Reply{}, err
	}
	return codec.VArray(nonNil(elems)), nil
}

// nonNil keeps empty results distinct from nil elements
func nonNil(elems [][]byte) [][]byte {
	if elems == nil {
		return [][]byte{}
	}
	return elems
}

// zarrayOf returns ZARRAY with scores or ZARRAY1 without
func zarrayOf(members []store.ScoredMember, withScores bool) codec.Reply {
	names := make([][]byte, len(members))
	for i, m := range members {
		names[i] = m.Member
	}
	if !withScores {
		return codec.ZArray1(names)
	}
	scores := make([]float64, len(members))
	for i, m := range members {
		scores[i] = m.Score
	}
	return codec.ZArray(names, scores)
}

// fieldValues flattens hash entries into field, value, field, value, ...
func fieldValues(entries []store.FieldValue) [][]byte {
	flat := make([][]byte, 0, 2*len(entries))
	for _, e := range entries {
		flat = append(flat, e.Field, e.Value)
	}
	return flat
}

// --------------------------------------------------------------------------
// Argument Helpers
// --------------------------------------------------------------------------

func expectEnd(ctx *Context) error {
	return options.ExpectEnd(ctx.Args)
}

// parseOptionalCount reads the optional count argument of LPOP, SPOP and
// friends. It reports whether a count was given; the count must not be
// negative.
func parseOptionalCount(ctx *Context) (int64, bool, error) {
	raw, ok := ctx.Args.Peek()
	if !ok {
		return 1, false, nil
	}
	count, err := ctx.Args.ReadLong()
	if err != nil {
		return 0, false, err
	}
	if count < 0 {
		return 0, false, common.PositiveNumberExpected(raw)
	}
	return count, true, nil
}

// readKeys returns all remaining arguments
func readKeys(ctx *Context) [][]byte {
	return ctx.Args.Rest()
}
