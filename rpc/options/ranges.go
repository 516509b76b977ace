package options

import (
	"github.com/ValentinKolb/rKV/lib/store"
	"github.com/ValentinKolb/rKV/rpc/codec"
	"github.com/ValentinKolb/rKV/rpc/common"
)

// ParseScoreBoundary parses one end of a score range. The unbounded tokens
// -inf, +inf and inf are checked first; a leading '(' makes the boundary
// exclusive, a leading '[' or no prefix inclusive.
func ParseScoreBoundary(arg []byte) (store.ScoreBoundary, error) {
	switch {
	case is(arg, tokNegInf):
		return store.ScoreBoundary{Unbounded: true}, nil
	case is(arg, tokPosInf), is(arg, tokInf):
		return store.ScoreBoundary{Unbounded: true, Positive: true}, nil
	}

	b := store.ScoreBoundary{Inclusive: true}
	text := arg
	if len(text) > 0 && (text[0] == '(' || text[0] == '[') {
		b.Inclusive = text[0] == '['
		text = text[1:]
	}
	v, err := codec.ParseDouble(text)
	if err != nil {
		return store.ScoreBoundary{}, common.WrongNumberFormat(arg).WithDetail("(min or max is not a float)")
	}
	b.Value = v
	return b, nil
}

// ParseLexBoundary parses one end of a lex range. The unbounded tokens - and +
// are checked first, any other boundary must start with '[' (inclusive) or '('
// (exclusive). The value aliases arg.
func ParseLexBoundary(arg []byte) (store.LexBoundary, error) {
	switch {
	case is(arg, tokLexMin):
		return store.LexBoundary{Unbounded: true}, nil
	case is(arg, tokLexMax):
		return store.LexBoundary{Unbounded: true, Positive: true}, nil
	}
	if len(arg) == 0 || (arg[0] != '[' && arg[0] != '(') {
		return store.LexBoundary{}, common.WrongCommandFormat(arg).WithDetail("(min or max not valid string range item)")
	}
	return store.LexBoundary{Value: arg[1:], Inclusive: arg[0] == '['}, nil
}

// ParseScoreRange parses a min and max score boundary
func ParseScoreRange(minArg, maxArg []byte) (store.ScoreRange, error) {
	lo, err := ParseScoreBoundary(minArg)
	if err != nil {
		return store.ScoreRange{}, err
	}
	hi, err := ParseScoreBoundary(maxArg)
	if err != nil {
		return store.ScoreRange{}, err
	}
	return store.ScoreRange{Min: lo, Max: hi}, nil
}

// ParseLexRange parses a min and max lex boundary
func ParseLexRange(minArg, maxArg []byte) (store.LexRange, error) {
	lo, err := ParseLexBoundary(minArg)
	if err != nil {
		return store.LexRange{}, err
	}
	hi, err := ParseLexBoundary(maxArg)
	if err != nil {
		return store.LexRange{}, err
	}
	return store.LexRange{Min: lo, Max: hi}, nil
}
