package options

import (
	"math"

	"github.com/ValentinKolb/rKV/lib/store"
	"github.com/ValentinKolb/rKV/rpc/codec"
	"github.com/ValentinKolb/rKV/rpc/common"
)

// TTLKind is the kind of a TTL directive
type TTLKind uint8

const (
	TTLNone            TTLKind = iota // no directive given
	TTLPersist                        // PERSIST: remove the expiry
	TTLRelativeSeconds                // EX seconds
	TTLRelativeMillis                 // PX milliseconds
	TTLAbsoluteSeconds                // EXAT unix-seconds
	TTLAbsoluteMillis                 // PXAT unix-milliseconds
	TTLKeepExisting                   // KEEPTTL: leave the expiry unchanged
)

func (k TTLKind) String() string {
	switch k {
	case TTLPersist:
		return "PERSIST"
	case TTLRelativeSeconds:
		return "EX"
	case TTLRelativeMillis:
		return "PX"
	case TTLAbsoluteSeconds:
		return "EXAT"
	case TTLAbsoluteMillis:
		return "PXAT"
	case TTLKeepExisting:
		return "KEEPTTL"
	default:
		return "NONE"
	}
}

// TTL is a parsed TTL directive. Value is only used by the relative and absolute kinds.
type TTL struct {
	Kind  TTLKind
	Value int64
}

// IsTTLToken reports whether arg starts a TTL directive
func IsTTLToken(arg []byte) bool {
	_, ok := ttlKind(arg)
	return ok
}

func ttlKind(arg []byte) (TTLKind, bool) {
	switch {
	case is(arg, tokEX):
		return TTLRelativeSeconds, true
	case is(arg, tokPX):
		return TTLRelativeMillis, true
	case is(arg, tokEXAT):
		return TTLAbsoluteSeconds, true
	case is(arg, tokPXAT):
		return TTLAbsoluteMillis, true
	case is(arg, tokPERSIST):
		return TTLPersist, true
	case is(arg, tokKEEPTTL):
		return TTLKeepExisting, true
	default:
		return TTLNone, false
	}
}

// ParseTTL reads exactly one TTL directive from r:
// PERSIST | EX secs | PX millis | EXAT abs-secs | PXAT abs-millis | KEEPTTL.
// Relative values must be positive, absolute values must not be negative.
func ParseTTL(r *codec.ArgReader) (TTL, error) {
	arg, ok := r.Next()
	if !ok {
		return TTL{}, common.IllegalArgs("missing ttl directive")
	}
	kind, ok := ttlKind(arg)
	if !ok {
		return TTL{}, common.IllegalArgs(string(arg))
	}
	if kind == TTLPersist || kind == TTLKeepExisting {
		return TTL{Kind: kind}, nil
	}

	raw, _ := r.Peek()
	v, err := r.ReadLong()
	if err != nil {
		return TTL{}, err
	}
	switch kind {
	case TTLRelativeSeconds, TTLRelativeMillis:
		if v <= 0 {
			return TTL{}, common.PositiveNumberExpected(raw)
		}
	default:
		if v < 0 {
			return TTL{}, common.PositiveNumberExpected(raw)
		}
	}
	return TTL{Kind: kind, Value: v}, nil
}

// Resolve converts the directive into an absolute store.Expiry relative to now
// (unix milliseconds). TTLNone and TTLPersist clear the expiry, TTLKeepExisting
// resolves to store.KeepTTL. Times before the epoch are clamped to 0, which is
// already expired.
func (t TTL) Resolve(now int64) (store.Expiry, error) {
	var at int64
	switch t.Kind {
	case TTLNone, TTLPersist:
		return store.NoExpiry, nil
	case TTLKeepExisting:
		return store.KeepTTL, nil
	case TTLRelativeSeconds:
		ms, ok := mulMillis(t.Value)
		if !ok || (ms > 0 && now > math.MaxInt64-ms) {
			return 0, common.IllegalArgs("invalid expire time")
		}
		at = now + ms
	case TTLRelativeMillis:
		if t.Value > 0 && now > math.MaxInt64-t.Value {
			return 0, common.IllegalArgs("invalid expire time")
		}
		at = now + t.Value
	case TTLAbsoluteSeconds:
		ms, ok := mulMillis(t.Value)
		if !ok {
			return 0, common.IllegalArgs("invalid expire time")
		}
		at = ms
	case TTLAbsoluteMillis:
		at = t.Value
	}
	return store.Expiry(max(at, 0)), nil
}

// mulMillis converts seconds to milliseconds and reports an overflow
func mulMillis(secs int64) (int64, bool) {
	if secs > math.MaxInt64/1000 || secs < math.MinInt64/1000 {
		return 0, false
	}
	return secs * 1000, true
}
