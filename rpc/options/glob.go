package options

import (
	"github.com/ValentinKolb/rKV/lib/store"
)

// --------------------------------------------------------------------------
// Glob Patterns
// --------------------------------------------------------------------------

type globOp uint8

const (
	globByte  globOp = iota // one literal byte
	globAny                 // '?'
	globStar                // '*'
	globClass               // '[...]'
)

type globToken struct {
	op    globOp
	b     byte
	class *[4]uint64 // 256 bit set, negation already applied
}

func (t globToken) matches(c byte) bool {
	switch t.op {
	case globByte:
		return t.b == c
	case globClass:
		return t.class[c>>6]&(1<<(c&63)) != 0
	default:
		return true
	}
}

// Glob is a compiled glob pattern. It works on bytes: '?' and a class match
// exactly one byte, multi byte characters and invalid UTF-8 included.
type Glob struct {
	tokens []globToken
}

// CompileGlob compiles a glob pattern. Supported are '*', '?', character classes
// ("[abc]", "[a-z]", "[^a]" and "[!a]") and backslash escapes. A '[' without a
// closing ']' is a literal. The pattern "*" compiles to nil, which callers
// treat as "match everything".
func CompileGlob(pattern []byte) store.Matcher {
	if is(pattern, tokWildcard) {
		return nil
	}

	g := &Glob{tokens: make([]globToken, 0, len(pattern))}
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch c {
		case '*':
			// consecutive stars are one star
			if n := len(g.tokens); n > 0 && g.tokens[n-1].op == globStar {
				continue
			}
			g.tokens = append(g.tokens, globToken{op: globStar})
		case '?':
			g.tokens = append(g.tokens, globToken{op: globAny})
		case '\\':
			if i+1 < len(pattern) {
				i++
			}
			g.tokens = append(g.tokens, globToken{op: globByte, b: pattern[i]})
		case '[':
			end := classEnd(pattern, i)
			if end < 0 {
				g.tokens = append(g.tokens, globToken{op: globByte, b: c})
				continue
			}
			g.tokens = append(g.tokens, globToken{op: globClass, class: compileClass(pattern[i+1 : end])})
			i = end
		default:
			g.tokens = append(g.tokens, globToken{op: globByte, b: c})
		}
	}
	return g
}

// Match reports whether b matches the whole pattern
func (g *Glob) Match(b []byte) bool {
	return globMatch(g.tokens, b)
}

// MatchString reports whether s matches the whole pattern
func (g *Glob) MatchString(s string) bool {
	return globMatch(g.tokens, s)
}

// globMatch matches greedily and backtracks to the last star only, which is
// enough because every other token consumes exactly one byte
func globMatch[T []byte | string](tokens []globToken, s T) bool {
	p, i := 0, 0
	star, resume := -1, 0
	for i < len(s) {
		if p < len(tokens) {
			if tokens[p].op == globStar {
				star, resume = p, i
				p++
				continue
			}
			if tokens[p].matches(s[i]) {
				p++
				i++
				continue
			}
		}
		if star < 0 {
			return false
		}
		resume++
		p, i = star+1, resume
	}
	for p < len(tokens) && tokens[p].op == globStar {
		p++
	}
	return p == len(tokens)
}

// classEnd returns the index of the ']' closing the class opened at start, -1 if none
func classEnd(pattern []byte, start int) int {
	i := start + 1
	if i < len(pattern) && (pattern[i] == '^' || pattern[i] == '!') {
		i++
	}
	// a ']' right after the opening bracket is a literal
	if i < len(pattern) && pattern[i] == ']' {
		i++
	}
	for ; i < len(pattern); i++ {
		switch pattern[i] {
		case '\\':
			i++
		case ']':
			return i
		}
	}
	return -1
}

// compileClass converts the body of a character class into a byte set.
// Reversed ranges ("[z-a]") are accepted.
func compileClass(body []byte) *[4]uint64 {
	var set [4]uint64
	add := func(lo, hi byte) {
		if lo > hi {
			lo, hi = hi, lo
		}
		for c := int(lo); c <= int(hi); c++ {
			set[c>>6] |= 1 << (c & 63)
		}
	}

	negate := len(body) > 0 && (body[0] == '^' || body[0] == '!')
	if negate {
		body = body[1:]
	}
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == '\\' && i+1 < len(body) {
			i++
			c = body[i]
		}
		if i+2 < len(body) && body[i+1] == '-' {
			hi := body[i+2]
			i += 2
			if hi == '\\' && i+1 < len(body) {
				i++
				hi = body[i]
			}
			add(c, hi)
			continue
		}
		add(c, c)
	}

	if negate {
		for i := range set {
			set[i] = ^set[i]
		}
	}
	return &set
}
