package options

import (
	"github.com/ValentinKolb/rKV/lib/store"
	"github.com/ValentinKolb/rKV/rpc/codec"
	"github.com/ValentinKolb/rKV/rpc/common"
)

// DefaultScanCount is the page size of a SCAN command without COUNT
const DefaultScanCount = 10

// ScanOptions is the parsed trailing grammar of the SCAN family: [MATCH pattern] [COUNT n]
type ScanOptions struct {
	Match store.Matcher // nil matches everything
	Count int
}

// ParseScanOptions reads MATCH and COUNT in any order. COUNT must be positive.
func ParseScanOptions(r *codec.ArgReader) (ScanOptions, error) {
	opts := ScanOptions{Count: DefaultScanCount}
	for r.Remaining() > 0 {
		arg, _ := r.Next()
		switch {
		case is(arg, tokMATCH):
			pattern, ok := r.Next()
			if !ok {
				return ScanOptions{}, common.WrongCommandFormat(arg)
			}
			opts.Match = CompileGlob(pattern)
		case is(arg, tokCOUNT):
			raw, _ := r.Peek()
			count, err := r.ReadInt()
			if err != nil {
				return ScanOptions{}, err
			}
			if count <= 0 {
				return ScanOptions{}, common.PositiveNumberExpected(raw)
			}
			opts.Count = count
		default:
			return ScanOptions{}, common.WrongCommandFormat(arg)
		}
	}
	return opts, nil
}
