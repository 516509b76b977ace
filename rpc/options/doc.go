// Package options implements the argument grammars shared by the command
// handlers: TTL directives, NX/XX existence flags, score and lex range
// boundaries, the trailing options of SET, GETEX, ZADD, the ZRANGE family and
// the SCAN family, and the flag grammars of the admin commands.
//
// All parsers work on the zero-copy arguments of a codec.Request, either
// through a codec.ArgReader (positional grammars) or on the request itself
// (admin commands, which echo the whole invocation on an unknown keyword).
// Keywords are byte-string constants matched case-insensitively.
//
// Errors follow the protocol taxonomy of rpc/common:
//
//	WrongCommandFormat      unexpected token in a flag position
//	IllegalArgs             unknown TTL keyword or invalid flag combination (NX XX)
//	WrongNumberFormat       numeric argument that does not parse
//	PositiveNumberExpected  COUNT or relative TTL that is not positive
//	UnsupportedCommand      unknown admin sub-keyword (entire invocation)
//
// Range boundaries check their reserved unbounded tokens ("-inf"/"+inf" for
// scores, "-"/"+" for lex ranges) before anything else, since lex boundary
// bytes are otherwise uninterpreted.
package options
