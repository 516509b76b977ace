package options

import (
	"github.com/ValentinKolb/rKV/lib/store"
	"github.com/ValentinKolb/rKV/rpc/codec"
	"github.com/ValentinKolb/rKV/rpc/common"
)

// --------------------------------------------------------------------------
// SET and GETEX
// --------------------------------------------------------------------------

// SetOptions is the parsed trailing grammar of SET: [NX|XX] [GET] [ttl]
type SetOptions struct {
	Mutation store.Mutation
	Get      bool
	TTL      TTL
}

// ParseSetOptions reads the SET options following key and value
func ParseSetOptions(r *codec.ArgReader) (SetOptions, error) {
	var (
		opts  SetOptions
		flags MutationFlags
	)
	for r.Remaining() > 0 {
		arg, _ := r.Peek()
		switch {
		case is(arg, tokNX) || is(arg, tokXX):
			flags.Add(arg)
			r.Skip(1)
		case is(arg, tokGET):
			opts.Get = true
			r.Skip(1)
		case IsTTLToken(arg):
			if opts.TTL.Kind != TTLNone {
				return SetOptions{}, common.IllegalArgs(string(arg)).WithDetail("(only one expiration option allowed)")
			}
			ttl, err := ParseTTL(r)
			if err != nil {
				return SetOptions{}, err
			}
			opts.TTL = ttl
		default:
			return SetOptions{}, common.WrongCommandFormat(arg)
		}
	}

	mutation, err := flags.Mutation()
	if err != nil {
		return SetOptions{}, err
	}
	opts.Mutation = mutation
	return opts, nil
}

// ParseGetExOptions reads the optional TTL directive of GETEX. KEEPTTL is not
// accepted and no directive leaves the expiry untouched (TTLKeepExisting).
func ParseGetExOptions(r *codec.ArgReader) (TTL, error) {
	if r.Remaining() == 0 {
		return TTL{Kind: TTLKeepExisting}, nil
	}
	arg, _ := r.Peek()
	if is(arg, tokKEEPTTL) {
		return TTL{}, common.IllegalArgs(string(arg))
	}
	ttl, err := ParseTTL(r)
	if err != nil {
		return TTL{}, err
	}
	if err := ExpectEnd(r); err != nil {
		return TTL{}, err
	}
	return ttl, nil
}

// ExpectEnd fails with WrongCommandFormat if r has unread arguments
func ExpectEnd(r *codec.ArgReader) error {
	if arg, ok := r.Peek(); ok {
		return common.WrongCommandFormat(arg)
	}
	return nil
}

// --------------------------------------------------------------------------
// ZADD
// --------------------------------------------------------------------------

// ZAddOptions is the parsed flag section of ZADD: [NX|XX] [GT|LT] [CH] [INCR]
type ZAddOptions struct {
	store.ZAddOptions
	Incr bool
}

// ParseZAddOptions reads the flags preceding the score/member pairs. It stops
// at the first argument that is not a flag. GT and LT are recognized but not
// supported.
func ParseZAddOptions(r *codec.ArgReader) (ZAddOptions, error) {
	var (
		opts  ZAddOptions
		flags MutationFlags
	)
	for {
		arg, ok := r.Peek()
		if !ok {
			break
		}
		if flags.Add(arg) {
			r.Skip(1)
			continue
		}
		if is(arg, tokCH) {
			opts.CH = true
		} else if is(arg, tokINCR) {
			opts.Incr = true
		} else {
			break
		}
		r.Skip(1)
	}

	switch {
	case flags.GT:
		return ZAddOptions{}, common.IllegalArgs("GT").WithDetail("(not supported)")
	case flags.LT:
		return ZAddOptions{}, common.IllegalArgs("LT").WithDetail("(not supported)")
	}
	mutation, err := flags.Mutation()
	if err != nil {
		return ZAddOptions{}, err
	}
	opts.Mutation = mutation
	return opts, nil
}

// --------------------------------------------------------------------------
// ZRANGE family
// --------------------------------------------------------------------------

// ZRangeOptions is the parsed trailing grammar of the ZRANGE family
type ZRangeOptions struct {
	WithScores bool
	Limit      store.Limit
}

// ParseZRangeOptions reads [WITHSCORES] [LIMIT offset count]. Each flag is only
// accepted if the command allows it.
func ParseZRangeOptions(r *codec.ArgReader, allowScores, allowLimit bool) (ZRangeOptions, error) {
	opts := ZRangeOptions{Limit: store.NoLimit()}
	for r.Remaining() > 0 {
		arg, _ := r.Next()
		switch {
		case allowScores && is(arg, tokWITHSCORES):
			opts.WithScores = true
		case allowLimit && is(arg, tokLIMIT):
			offset, err := r.ReadLong()
			if err != nil {
				return ZRangeOptions{}, err
			}
			count, err := r.ReadLong()
			if err != nil {
				return ZRangeOptions{}, err
			}
			opts.Limit = store.Limit{Offset: offset, Count: count}
		default:
			return ZRangeOptions{}, common.WrongCommandFormat(arg)
		}
	}
	return opts, nil
}

// --------------------------------------------------------------------------
// LINSERT
// --------------------------------------------------------------------------

// ParseWhere parses the BEFORE|AFTER token of LINSERT and reports whether it is BEFORE
func ParseWhere(arg []byte) (bool, error) {
	switch {
	case is(arg, tokBEFORE):
		return true, nil
	case is(arg, tokAFTER):
		return false, nil
	default:
		return false, common.WrongCommandFormat(arg)
	}
}

// IsWithScores reports whether arg is the WITHSCORES token
func IsWithScores(arg []byte) bool {
	return is(arg, tokWITHSCORES)
}

// IsWithValues reports whether arg is the WITHVALUES token of HRANDFIELD
func IsWithValues(arg []byte) bool {
	return is(arg, tokWITHVALUES)
}
