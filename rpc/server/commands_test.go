package server

import (
	"bytes"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/ValentinKolb/rKV/rpc/codec"
	"github.com/ValentinKolb/rKV/rpc/common"
)

func TestStringCommands(t *testing.T) {
	e := newTestEnv(t)

	t.Run("SET NX with EX keeps existing value and ttl", func(t *testing.T) {
		wantOK(t, e.do(t, "SET", "k", "v1", "EX", "100"))
		wantNil(t, e.do(t, "SET", "k", "v2", "EX", "5", "NX"))
		wantBulk(t, e.do(t, "GET", "k"), "v1")
		wantInt(t, e.do(t, "TTL", "k"), 100)
	})

	t.Run("SET GET returns the old value", func(t *testing.T) {
		wantBulk(t, e.do(t, "SET", "k", "v3", "GET"), "v1")
		wantNil(t, e.do(t, "SET", "fresh", "x", "GET"))
		// SET without KEEPTTL drops the ttl
		wantInt(t, e.do(t, "TTL", "k"), -1)
	})

	t.Run("SET option errors", func(t *testing.T) {
		wantErr(t, e.do(t, "SET", "k", "v", "NX", "XX"), common.ErrIllegalArgs)
		wantErr(t, e.do(t, "SET", "k", "v", "EX", "1", "PX", "1"), common.ErrIllegalArgs)
		wantErr(t, e.do(t, "SET", "k", "v", "FOO"), common.ErrWrongCommandFormat)
		wantErr(t, e.do(t, "SET", "k", "v", "EX", "abc"), common.ErrWrongNumberFormat)
	})

	t.Run("SETEX requires a positive ttl", func(t *testing.T) {
		wantErr(t, e.do(t, "SETEX", "k", "0", "v"), common.ErrPositiveNumberExpected)
		wantOK(t, e.do(t, "SETEX", "k", "10", "v"))
		wantInt(t, e.do(t, "PTTL", "k"), 10_000)
	})

	t.Run("expiry follows the clock", func(t *testing.T) {
		wantOK(t, e.do(t, "PSETEX", "short", "1500", "v"))
		wantInt(t, e.do(t, "TTL", "short"), 2)
		e.clock.Advance(time.Second)
		wantInt(t, e.do(t, "PTTL", "short"), 500)
		e.clock.Advance(time.Second)
		wantNil(t, e.do(t, "GET", "short"))
		wantInt(t, e.do(t, "TTL", "short"), -2)
	})

	t.Run("APPEND and STRLEN", func(t *testing.T) {
		wantInt(t, e.do(t, "APPEND", "a", "Hello"), 5)
		wantInt(t, e.do(t, "APPEND", "a", "World"), 10)
		wantInt(t, e.do(t, "STRLEN", "a"), 10)
		wantBulk(t, e.do(t, "GETRANGE", "a", "0", "4"), "Hello")
		wantBulk(t, e.do(t, "GETRANGE", "a", "-5", "-1"), "World")
	})

	t.Run("counters", func(t *testing.T) {
		wantInt(t, e.do(t, "INCR", "n"), 1)
		wantInt(t, e.do(t, "INCRBY", "n", "9"), 10)
		wantInt(t, e.do(t, "DECR", "n"), 9)
		wantInt(t, e.do(t, "DECRBY", "n", "4"), 5)
		wantBulk(t, e.do(t, "INCRBYFLOAT", "n", "0.5"), "5.5")
		wantErr(t, e.do(t, "INCR", "a"), common.ErrKeyNotNumber)
		wantErr(t, e.do(t, "INCRBY", "n", "x"), common.ErrWrongNumberFormat)
		wantErr(t, e.do(t, "DECRBY", "m", "-9223372036854775808"), common.ErrOutOfRange)
	})

	t.Run("MSET and MGET", func(t *testing.T) {
		wantOK(t, e.do(t, "MSET", "m1", "1", "m2", "2"))
		wantElems(t, e.do(t, "MGET", "m1", "missing", "m2"), codec.KindArray, "1", "", "2")
		r := e.do(t, "MGET", "missing")
		if len(r.Elems) != 1 || r.Elems[0] != nil {
			t.Errorf("MGET missing = %s, want one nil element", r)
		}
	})

	t.Run("GETDEL and GETEX", func(t *testing.T) {
		wantOK(t, e.do(t, "SET", "g", "v"))
		wantBulk(t, e.do(t, "GETEX", "g", "PX", "2000"), "v")
		wantInt(t, e.do(t, "PTTL", "g"), 2000)
		wantBulk(t, e.do(t, "GETEX", "g", "PERSIST"), "v")
		wantInt(t, e.do(t, "PTTL", "g"), -1)
		wantBulk(t, e.do(t, "GETDEL", "g"), "v")
		wantNil(t, e.do(t, "GETDEL", "g"))
	})
}

func TestKeyCommands(t *testing.T) {
	e := newTestEnv(t)
	e.do(t, "MSET", "k1", "v", "k2", "v", "other", "v")

	wantInt(t, e.do(t, "EXISTS", "k1", "k2", "nope", "k1"), 3)
	wantElems(t, e.do(t, "KEYS", "k?"), codec.KindVArray, "k1", "k2")
	wantBulk(t, e.do(t, "TYPE", "k1"), "string")
	wantBulk(t, e.do(t, "TYPE", "nope"), "none")

	wantInt(t, e.do(t, "EXPIRE", "k1", "10"), 1)
	wantInt(t, e.do(t, "EXPIRE", "nope", "10"), 0)
	wantInt(t, e.do(t, "PERSIST", "k1"), 1)
	wantInt(t, e.do(t, "TTL", "k1"), -1)

	at := strconv.FormatInt(e.clock.Now().Add(30*time.Second).Unix(), 10)
	wantInt(t, e.do(t, "EXPIREAT", "k1", at), 1)
	wantInt(t, e.do(t, "TTL", "k1"), 30)

	// an expiry in the past deletes the key
	wantInt(t, e.do(t, "PEXPIRE", "k2", "-1"), 1)
	wantInt(t, e.do(t, "EXISTS", "k2"), 0)

	wantOK(t, e.do(t, "RENAME", "other", "renamed"))
	wantBulk(t, e.do(t, "GET", "renamed"), "v")
	wantErr(t, e.do(t, "RENAME", "nope", "x"), common.ErrKeyDoesNotExist)

	wantInt(t, e.do(t, "DEL", "k1", "renamed", "nope"), 2)
	wantInt(t, e.do(t, "DBSIZE"), 0)
}

func TestHashCommands(t *testing.T) {
	e := newTestEnv(t)

	wantInt(t, e.do(t, "HSET", "h", "a", "1", "b", "2", "c", "3", "d", "4"), 4)
	wantInt(t, e.do(t, "HSETNX", "h", "a", "x"), 0)
	wantBulk(t, e.do(t, "HGET", "h", "a"), "1")
	wantNil(t, e.do(t, "HGET", "h", "z"))
	wantInt(t, e.do(t, "HLEN", "h"), 4)
	wantInt(t, e.do(t, "HSTRLEN", "h", "b"), 1)
	wantInt(t, e.do(t, "HINCRBY", "h", "a", "10"), 11)
	wantElems(t, e.do(t, "HKEYS", "h"), codec.KindVArray, "a", "b", "c", "d")

	t.Run("HRANDFIELD", func(t *testing.T) {
		r := e.do(t, "HRANDFIELD", "h")
		if r.Kind != codec.KindBulk || r.Nil {
			t.Errorf("HRANDFIELD h = %s, want a field", r)
		}
		wantNil(t, e.do(t, "HRANDFIELD", "missing"))

		tests := []struct {
			args []string
			want int
		}{
			{[]string{"HRANDFIELD", "h", "2"}, 2},
			{[]string{"HRANDFIELD", "h", "10"}, 4},
			{[]string{"HRANDFIELD", "h", "-5"}, 5},
			{[]string{"HRANDFIELD", "h", "-5", "WITHVALUES"}, 10},
			{[]string{"HRANDFIELD", "h", "0"}, 0},
		}
		for _, tt := range tests {
			r := e.do(t, tt.args...)
			if r.Kind != codec.KindVArray || len(r.Elems) != tt.want {
				t.Errorf("%v = %s, want %d elements", tt.args, r, tt.want)
			}
		}
		wantErr(t, e.do(t, "HRANDFIELD", "h", "1", "WITHSCORES"), common.ErrWrongCommandFormat)
		wantErr(t, e.do(t, "HRANDFIELD", "h", "-9223372036854775808"), common.ErrOutOfRange)
		wantErr(t, e.do(t, "HRANDFIELD", "h", "-1000000000", "WITHVALUES"), common.ErrOutOfRange)
	})

	wantInt(t, e.do(t, "HDEL", "h", "a", "z"), 1)
	wantInt(t, e.do(t, "HEXISTS", "h", "a"), 0)
	wantElems(t, e.do(t, "HGETALL", "h"), codec.KindArray, "b", "2", "c", "3", "d", "4")

	e.do(t, "SET", "s", "v")
	wantErr(t, e.do(t, "HSET", "s", "f", "v"), common.ErrWrongType)
}

func TestListCommands(t *testing.T) {
	e := newTestEnv(t)

	wantInt(t, e.do(t, "RPUSH", "l", "a", "b", "c", "d"), 4)
	wantInt(t, e.do(t, "LPUSH", "l", "z"), 5)
	wantElems(t, e.do(t, "LRANGE", "l", "0", "-1"), codec.KindVArray, "z", "a", "b", "c", "d")
	wantBulk(t, e.do(t, "LINDEX", "l", "-1"), "d")
	wantNil(t, e.do(t, "LINDEX", "l", "99"))

	wantBulk(t, e.do(t, "LPOP", "l"), "z")
	wantElems(t, e.do(t, "RPOP", "l", "2"), codec.KindVArray, "d", "c")
	wantNil(t, e.do(t, "LPOP", "missing"))

	wantInt(t, e.do(t, "LINSERT", "l", "BEFORE", "b", "x"), 3)
	wantErr(t, e.do(t, "LINSERT", "l", "AROUND", "b", "x"), common.ErrWrongCommandFormat)
	wantOK(t, e.do(t, "LSET", "l", "0", "A"))
	wantErr(t, e.do(t, "LSET", "l", "10", "A"), common.ErrOutOfRange)
	wantInt(t, e.do(t, "LREM", "l", "0", "x"), 1)
	wantOK(t, e.do(t, "LTRIM", "l", "1", "-1"))
	wantElems(t, e.do(t, "LRANGE", "l", "0", "-1"), codec.KindVArray, "b")
	wantInt(t, e.do(t, "LLEN", "l"), 1)
}

func TestSetCommands(t *testing.T) {
	e := newTestEnv(t)

	wantInt(t, e.do(t, "SADD", "s", "a", "b", "c", "a"), 3)
	wantInt(t, e.do(t, "SISMEMBER", "s", "a"), 1)
	wantInt(t, e.do(t, "SCARD", "s"), 3)

	r := e.do(t, "SMISMEMBER", "s", "a", "x")
	if r.Kind != codec.KindTypedArray || len(r.Items) != 2 {
		t.Fatalf("SMISMEMBER = %s, want two items", r)
	}
	wantInt(t, r.Items[0], 1)
	wantInt(t, r.Items[1], 0)

	if r := e.do(t, "SRANDMEMBER", "s", "-6"); len(r.Elems) != 6 {
		t.Errorf("SRANDMEMBER -6 = %s, want 6 members", r)
	}
	wantErr(t, e.do(t, "SRANDMEMBER", "s", "-9223372036854775808"), common.ErrOutOfRange)
	wantErr(t, e.do(t, "SRANDMEMBER", "s", "-1000000000"), common.ErrOutOfRange)
	if r := e.do(t, "SPOP", "s"); r.Kind != codec.KindBulk || r.Nil {
		t.Errorf("SPOP = %s, want a bulk member", r)
	}
	if r := e.do(t, "SPOP", "s", "5"); r.Kind != codec.KindVArray || len(r.Elems) != 2 {
		t.Errorf("SPOP 5 = %s, want the 2 remaining members", r)
	}
	wantNil(t, e.do(t, "SPOP", "s"))
	wantInt(t, e.do(t, "SREM", "s", "a"), 0)
}

func TestSortedSetCommands(t *testing.T) {
	e := newTestEnv(t)

	wantInt(t, e.do(t, "ZADD", "z", "1", "a", "2", "b", "3", "c"), 3)
	wantInt(t, e.do(t, "ZADD", "z", "CH", "5", "a", "4", "d"), 2)
	wantInt(t, e.do(t, "ZADD", "z", "NX", "100", "a"), 0)
	wantBulk(t, e.do(t, "ZADD", "z", "INCR", "1", "a"), "6")
	wantNil(t, e.do(t, "ZADD", "z", "XX", "INCR", "1", "missing"))

	t.Run("ZADD argument errors", func(t *testing.T) {
		wantErr(t, e.do(t, "ZADD", "z", "GT", "1", "a"), common.ErrIllegalArgs)
		wantErr(t, e.do(t, "ZADD", "z", "NX", "XX", "1", "a"), common.ErrIllegalArgs)
		wantErr(t, e.do(t, "ZADD", "z", "INCR", "1", "a", "2", "b"), common.ErrIllegalArgs)
		wantErr(t, e.do(t, "ZADD", "z", "1", "a", "2"), common.ErrWrongArgsNumber)
		wantErr(t, e.do(t, "ZADD", "fresh", "NX", "CH", "1", "a", "2"), common.ErrWrongArgsNumber)
		wantInt(t, e.do(t, "EXISTS", "fresh"), 0)
		wantErr(t, e.do(t, "ZADD", "z", "x", "a"), common.ErrWrongNumberFormat)
	})

	t.Run("ZRANGE WITHSCORES", func(t *testing.T) {
		r := e.do(t, "ZRANGE", "z", "0", "-1", "WITHSCORES")
		wantElems(t, r, codec.KindZArray, "b", "c", "d", "a")
		want := []float64{2, 3, 4, 6}
		for i, s := range r.Scores {
			if s != want[i] {
				t.Errorf("score %d = %v, want %v", i, s, want[i])
			}
		}
		wantElems(t, e.do(t, "ZREVRANGE", "z", "0", "1"), codec.KindZArray1, "a", "d")
		wantErr(t, e.do(t, "ZRANGE", "z", "0", "1", "LIMIT"), common.ErrWrongCommandFormat)
	})

	t.Run("score ranges", func(t *testing.T) {
		wantInt(t, e.do(t, "ZCOUNT", "z", "(2", "+inf"), 3)
		wantElems(t, e.do(t, "ZRANGEBYSCORE", "z", "-inf", "+inf", "LIMIT", "1", "2"), codec.KindZArray1, "c", "d")
		wantElems(t, e.do(t, "ZREVRANGEBYSCORE", "z", "4", "(2"), codec.KindZArray1, "d", "c")
		wantErr(t, e.do(t, "ZCOUNT", "z", "x", "1"), common.ErrWrongNumberFormat)
	})

	wantInt(t, e.do(t, "ZRANK", "z", "c"), 1)
	wantInt(t, e.do(t, "ZREVRANK", "z", "c"), 2)
	wantNil(t, e.do(t, "ZRANK", "z", "missing"))
	wantBulk(t, e.do(t, "ZSCORE", "z", "d"), "4")
	wantBulk(t, e.do(t, "ZINCRBY", "z", "0.5", "d"), "4.5")

	r := e.do(t, "ZMSCORE", "z", "b", "missing")
	if r.Kind != codec.KindTypedArray || len(r.Items) != 2 {
		t.Fatalf("ZMSCORE = %s, want two items", r)
	}
	wantBulk(t, r.Items[0], "2")
	wantNil(t, r.Items[1])

	wantInt(t, e.do(t, "ZREMRANGEBYSCORE", "z", "-inf", "2"), 1)
	wantInt(t, e.do(t, "ZREM", "z", "c", "missing"), 1)
	wantInt(t, e.do(t, "ZCARD", "z"), 2)
}

func TestZRangeByLexOrder(t *testing.T) {
	e := newTestEnv(t)

	args := []string{"ZADD", "lex"}
	for i := 1; i <= 10; i++ {
		args = append(args, "0", fmt.Sprintf("c%d", i))
	}
	args = append(args, "0", "c99")
	wantInt(t, e.do(t, args...), 11)

	tests := []struct {
		args []string
		want []string
	}{
		{
			[]string{"ZRANGEBYLEX", "lex", "(c1", "[c99"},
			[]string{"c10", "c2", "c3", "c4", "c5", "c6", "c7", "c8", "c9", "c99"},
		},
		{
			[]string{"ZRANGEBYLEX", "lex", "[c1", "(c3"},
			[]string{"c1", "c10", "c2"},
		},
		{
			[]string{"ZRANGEBYLEX", "lex", "(c9", "+"},
			[]string{"c99"},
		},
		{
			[]string{"ZREVRANGEBYLEX", "lex", "[c99", "(c1"},
			[]string{"c99", "c9", "c8", "c7", "c6", "c5", "c4", "c3", "c2", "c10"},
		},
		{
			[]string{"ZRANGEBYLEX", "lex", "-", "+", "LIMIT", "1", "3"},
			[]string{"c10", "c2", "c3"},
		},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.args), func(t *testing.T) {
			wantElems(t, e.do(t, tt.args...), codec.KindZArray1, tt.want...)
		})
	}
}

func TestZRangeByLex(t *testing.T) {
	e := newTestEnv(t)

	args := []string{"ZADD", "lex"}
	for i := 0; i < 100; i++ {
		args = append(args, "0", fmt.Sprintf("c%d", i))
	}
	wantInt(t, e.do(t, args...), 100)

	tests := []struct {
		args []string
		want int
	}{
		{[]string{"ZRANGEBYLEX", "lex", "(c1", "[c99"}, 98},
		{[]string{"ZRANGEBYLEX", "lex", "-", "+"}, 100},
		{[]string{"ZRANGEBYLEX", "lex", "[c1", "(c2"}, 11},
		{[]string{"ZRANGEBYLEX", "lex", "-", "+", "LIMIT", "10", "5"}, 5},
		{[]string{"ZREVRANGEBYLEX", "lex", "[c99", "(c1"}, 98},
		{[]string{"ZRANGEBYLEX", "lex", "+", "-"}, 0},
	}
	for _, tt := range tests {
		r := e.do(t, tt.args...)
		if r.Kind != codec.KindZArray1 || len(r.Elems) != tt.want {
			t.Errorf("%v returned %d elements, want %d", tt.args, len(r.Elems), tt.want)
		}
		reverse := tt.args[0] == "ZREVRANGEBYLEX"
		for i := 1; i < len(r.Elems); i++ {
			if c := bytes.Compare(r.Elems[i-1], r.Elems[i]); (c >= 0) != reverse {
				t.Errorf("%v is out of order at %d: %q, %q", tt.args, i, r.Elems[i-1], r.Elems[i])
				break
			}
		}
	}

	wantInt(t, e.do(t, "ZLEXCOUNT", "lex", "(c1", "[c99"), 98)
	wantErr(t, e.do(t, "ZRANGEBYLEX", "lex", "c1", "+"), common.ErrWrongCommandFormat)
	wantErr(t, e.do(t, "ZRANGEBYLEX", "lex", "-", "+", "WITHSCORES"), common.ErrWrongCommandFormat)
	wantInt(t, e.do(t, "ZREMRANGEBYLEX", "lex", "[c1", "(c2"), 11)
}

func TestBitmapCommands(t *testing.T) {
	e := newTestEnv(t)

	wantInt(t, e.do(t, "SETBIT", "b", "7", "1"), 0)
	wantInt(t, e.do(t, "SETBIT", "b", "7", "1"), 1)
	wantInt(t, e.do(t, "SETBIT", "b", "9", "1"), 0)
	wantInt(t, e.do(t, "GETBIT", "b", "9"), 1)
	wantInt(t, e.do(t, "GETBIT", "b", "1000"), 0)
	wantInt(t, e.do(t, "BITCOUNT", "b"), 2)
	wantInt(t, e.do(t, "BITCOUNT", "b", "1", "1"), 1)

	wantErr(t, e.do(t, "SETBIT", "b", "-1", "1"), common.ErrPositiveNumberExpected)
	wantErr(t, e.do(t, "SETBIT", "b", "1", "2"), common.ErrWrongNumberFormat)
}
