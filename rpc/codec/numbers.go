package codec

import (
	"bytes"
	"math"
	"strconv"

	"github.com/ValentinKolb/rKV/rpc/common"
)

// Flag and keyword tokens are compared by slice equality (ASCII case-insensitive)
var (
	tokenInf    = []byte("inf")
	tokenPosInf = []byte("+inf")
	tokenNegInf = []byte("-inf")
)

// --------------------------------------------------------------------------
// Number Parsing
// --------------------------------------------------------------------------

// ParseLong parses ASCII decimal text into an int64.
// Only an optional leading '-' and digits are accepted.
func ParseLong(b []byte) (int64, error) {
	if len(b) == 0 || len(b) > 20 {
		return 0, common.WrongNumberFormat(b)
	}

	neg := b[0] == '-'
	digits := b
	if neg {
		digits = b[1:]
		if len(digits) == 0 {
			return 0, common.WrongNumberFormat(b)
		}
	}

	// accumulate as negative number to cover math.MinInt64
	var v int64
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, common.WrongNumberFormat(b)
		}
		d := int64(c - '0')
		if v < (math.MinInt64+d)/10 {
			return 0, common.WrongNumberFormat(b)
		}
		v = v*10 - d
	}

	if neg {
		return v, nil
	}
	if v == math.MinInt64 {
		return 0, common.WrongNumberFormat(b)
	}
	return -v, nil
}

// ParseInt parses ASCII decimal text into an int within the 32 bit range
func ParseInt(b []byte) (int, error) {
	v, err := ParseLong(b)
	if err != nil {
		return 0, err
	}
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, common.WrongNumberFormat(b)
	}
	return int(v), nil
}

// ParseDouble parses a float64 in decimal or scientific notation.
// The tokens inf, +inf and -inf (any case) are accepted, NaN is rejected.
func ParseDouble(b []byte) (float64, error) {
	switch {
	case bytes.EqualFold(b, tokenInf), bytes.EqualFold(b, tokenPosInf):
		return math.Inf(1), nil
	case bytes.EqualFold(b, tokenNegInf):
		return math.Inf(-1), nil
	}
	if len(b) == 0 {
		return 0, common.WrongNumberFormat(b)
	}

	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, common.WrongNumberFormat(b)
	}
	return v, nil
}

// --------------------------------------------------------------------------
// Argument Reader
// --------------------------------------------------------------------------

// ArgReader walks the arguments of a request. Every read returns the value
// and advances; reads past the last argument fail instead of panicking.
type ArgReader struct {
	args [][]byte
	pos  int
}

// NewArgReader creates a reader over args
func NewArgReader(args [][]byte) *ArgReader {
	return &ArgReader{args: args}
}

// Remaining returns the number of unread arguments
func (r *ArgReader) Remaining() int {
	return len(r.args) - r.pos
}

// Pos returns the index of the next argument
func (r *ArgReader) Pos() int {
	return r.pos
}

// Skip advances past n arguments and reports whether n arguments were available
func (r *ArgReader) Skip(n int) bool {
	if n < 0 || n > r.Remaining() {
		r.pos = len(r.args)
		return false
	}
	r.pos += n
	return true
}

// Next returns the next argument
func (r *ArgReader) Next() ([]byte, bool) {
	if r.pos >= len(r.args) {
		return nil, false
	}
	arg := r.args[r.pos]
	r.pos++
	return arg, true
}

// Peek returns the next argument without advancing
func (r *ArgReader) Peek() ([]byte, bool) {
	if r.pos >= len(r.args) {
		return nil, false
	}
	return r.args[r.pos], true
}

// Rest returns all unread arguments and advances to the end
func (r *ArgReader) Rest() [][]byte {
	rest := r.args[r.pos:]
	r.pos = len(r.args)
	return rest
}

// ReadLong reads the next argument as int64
func (r *ArgReader) ReadLong() (int64, error) {
	arg, ok := r.Next()
	if !ok {
		return 0, common.WrongNumberFormat(nil)
	}
	return ParseLong(arg)
}

// ReadInt reads the next argument as int
func (r *ArgReader) ReadInt() (int, error) {
	arg, ok := r.Next()
	if !ok {
		return 0, common.WrongNumberFormat(nil)
	}
	return ParseInt(arg)
}

// ReadDouble reads the next argument as float64
func (r *ArgReader) ReadDouble() (float64, error) {
	arg, ok := r.Next()
	if !ok {
		return 0, common.WrongNumberFormat(nil)
	}
	return ParseDouble(arg)
}
