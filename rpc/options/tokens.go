package options

import "bytes"

// Keyword tokens. Tokens are matched ASCII case-insensitively against request
// arguments and never modified.
var (
	tokNX         = []byte("NX")
	tokXX         = []byte("XX")
	tokGT         = []byte("GT")
	tokLT         = []byte("LT")
	tokCH         = []byte("CH")
	tokINCR       = []byte("INCR")
	tokGET        = []byte("GET")
	tokEX         = []byte("EX")
	tokPX         = []byte("PX")
	tokEXAT       = []byte("EXAT")
	tokPXAT       = []byte("PXAT")
	tokPERSIST    = []byte("PERSIST")
	tokKEEPTTL    = []byte("KEEPTTL")
	tokWITHSCORES = []byte("WITHSCORES")
	tokWITHVALUES = []byte("WITHVALUES")
	tokLIMIT      = []byte("LIMIT")
	tokMATCH      = []byte("MATCH")
	tokCOUNT      = []byte("COUNT")
	tokBEFORE     = []byte("BEFORE")
	tokAFTER      = []byte("AFTER")

	tokSCHEDULE = []byte("SCHEDULE")
	tokSAVE     = []byte("SAVE")
	tokNOSAVE   = []byte("NOSAVE")
	tokASYNC    = []byte("ASYNC")
	tokSYNC     = []byte("SYNC")
	tokSLOTS    = []byte("SLOTS")

	tokNegInf   = []byte("-inf")
	tokPosInf   = []byte("+inf")
	tokInf      = []byte("inf")
	tokLexMin   = []byte("-")
	tokLexMax   = []byte("+")
	tokWildcard = []byte("*")
)

// is reports whether arg equals the keyword token
func is(arg, token []byte) bool {
	return len(arg) == len(token) && bytes.EqualFold(arg, token)
}
