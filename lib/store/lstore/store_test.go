package lstore

import (
	"bytes"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/ValentinKolb/rKV/lib/db"
	"github.com/ValentinKolb/rKV/lib/db/engines/maple"
	dbtesting "github.com/ValentinKolb/rKV/lib/db/testing"
	"github.com/ValentinKolb/rKV/lib/store"
)

// newTestStore creates a store on a maple db driven by a manual clock
func newTestStore(t *testing.T) (store.IStore, *dbtesting.ManualClock) {
	t.Helper()
	clock := dbtesting.NewManualClock()
	s := NewLocalStore(func() db.KVDB {
		return maple.NewMapleDB(&maple.DBOptions{NumShards: 4, GCInterval: time.Hour, Clock: clock.Now})
	})
	t.Cleanup(func() { _ = s.Close() })
	return s, clock
}

func b(s string) []byte { return []byte(s) }

func mustSet(t *testing.T, s store.IStore, key, value string) {
	t.Helper()
	if _, err := s.Set(b(key), b(value), store.SetOptions{Expiry: store.NoExpiry}); err != nil {
		t.Fatalf("Set(%q) failed: %v", key, err)
	}
}

func TestKeys(t *testing.T) {
	s, clock := newTestStore(t)

	mustSet(t, s, "a", "1")
	mustSet(t, s, "b", "2")
	if _, err := s.SAdd(b("set"), b("x")); err != nil {
		t.Fatalf("SAdd failed: %v", err)
	}

	t.Run("Exists counts duplicates", func(t *testing.T) {
		if n, _ := s.Exists(b("a"), b("a"), b("missing")); n != 2 {
			t.Errorf("Exists() = %d, want 2", n)
		}
	})

	t.Run("Type", func(t *testing.T) {
		tests := map[string]string{"a": TypeString, "set": TypeSet, "missing": TypeNone}
		for key, want := range tests {
			if got, _ := s.Type(b(key)); got != want {
				t.Errorf("Type(%q) = %q, want %q", key, got, want)
			}
		}
	})

	t.Run("Keys sorted and filtered", func(t *testing.T) {
		keys, _ := s.Keys(nil)
		if len(keys) != 3 || string(keys[0]) != "a" || string(keys[2]) != "set" {
			t.Errorf("Keys(nil) = %q, want [a b set]", keys)
		}
		keys, _ = s.Keys(regexp.MustCompile(`^[ab]$`))
		if len(keys) != 2 {
			t.Errorf("Keys(^[ab]$) = %q, want 2 keys", keys)
		}
	})

	t.Run("Expire and PTTL", func(t *testing.T) {
		if ttl, _ := s.PTTL(b("missing")); ttl != -2 {
			t.Errorf("PTTL(missing) = %d, want -2", ttl)
		}
		if ttl, _ := s.PTTL(b("a")); ttl != -1 {
			t.Errorf("PTTL(a) = %d, want -1", ttl)
		}
		now := clock.Now().UnixMilli()
		if ok, _ := s.Expire(b("a"), store.Expiry(now+1500)); !ok {
			t.Fatalf("Expire(a) = false, want true")
		}
		if ttl, _ := s.PTTL(b("a")); ttl != 1500 {
			t.Errorf("PTTL(a) = %d, want 1500", ttl)
		}
		if ok, _ := s.Persist(b("a")); !ok {
			t.Errorf("Persist(a) = false, want true")
		}
		if ok, _ := s.Persist(b("a")); ok {
			t.Errorf("second Persist(a) = true, want false")
		}
		if ok, _ := s.Expire(b("missing"), store.Expiry(now+10)); ok {
			t.Errorf("Expire(missing) = true, want false")
		}
	})

	t.Run("Expire in the past deletes", func(t *testing.T) {
		mustSet(t, s, "tmp", "x")
		if ok, _ := s.Expire(b("tmp"), store.Expiry(clock.Now().UnixMilli()-1)); !ok {
			t.Errorf("Expire(tmp) = false, want true")
		}
		if n, _ := s.Exists(b("tmp")); n != 0 {
			t.Errorf("Exists(tmp) = %d after past expiry, want 0", n)
		}
	})

	t.Run("Keys expire", func(t *testing.T) {
		mustSet(t, s, "ttl", "x")
		_, _ = s.Expire(b("ttl"), store.Expiry(clock.Now().UnixMilli()+100))
		clock.Advance(200 * time.Millisecond)
		if _, loaded, _ := s.Get(b("ttl")); loaded {
			t.Errorf("Get(ttl) loaded after expiry")
		}
	})

	t.Run("Rename", func(t *testing.T) {
		mustSet(t, s, "src", "v")
		if err := s.Rename(b("src"), b("b")); err != nil {
			t.Fatalf("Rename() failed: %v", err)
		}
		if v, _, _ := s.Get(b("b")); string(v) != "v" {
			t.Errorf("Get(b) = %q after Rename, want v", v)
		}
		if err := s.Rename(b("src"), b("b")); !errors.Is(err, store.ErrNoSuchKey) {
			t.Errorf("Rename(missing) error = %v, want ErrNoSuchKey", err)
		}
	})

	t.Run("Del and FlushAll", func(t *testing.T) {
		if n, _ := s.Del(b("b"), b("missing")); n != 1 {
			t.Errorf("Del() = %d, want 1", n)
		}
		_ = s.FlushAll()
		if n, _ := s.DBSize(); n != 0 {
			t.Errorf("DBSize() = %d after FlushAll, want 0", n)
		}
	})
}

func TestStrings(t *testing.T) {
	s, clock := newTestStore(t)

	t.Run("Set preconditions", func(t *testing.T) {
		res, _ := s.Set(b("k"), b("v1"), store.SetOptions{Mutation: store.MutationXX, Expiry: store.NoExpiry})
		if res.Written {
			t.Errorf("Set(XX) on missing key wrote")
		}
		res, _ = s.Set(b("k"), b("v1"), store.SetOptions{Mutation: store.MutationNX, Expiry: store.NoExpiry})
		if !res.Written {
			t.Errorf("Set(NX) on missing key did not write")
		}
		res, _ = s.Set(b("k"), b("v2"), store.SetOptions{Mutation: store.MutationNX, Expiry: store.NoExpiry, Get: true})
		if res.Written || !res.HadOld || string(res.Old) != "v1" {
			t.Errorf("Set(NX GET) = %+v, want not written with old v1", res)
		}
	})

	t.Run("Set KeepTTL", func(t *testing.T) {
		at := store.Expiry(clock.Now().UnixMilli() + 5000)
		_, _ = s.Set(b("t"), b("1"), store.SetOptions{Expiry: at})
		_, _ = s.Set(b("t"), b("2"), store.SetOptions{Expiry: store.KeepTTL})
		if ttl, _ := s.PTTL(b("t")); ttl != 5000 {
			t.Errorf("PTTL() = %d after KEEPTTL, want 5000", ttl)
		}
		_, _ = s.Set(b("t"), b("3"), store.SetOptions{Expiry: store.NoExpiry})
		if ttl, _ := s.PTTL(b("t")); ttl != -1 {
			t.Errorf("PTTL() = %d after plain Set, want -1", ttl)
		}
	})

	t.Run("Append and StrLen", func(t *testing.T) {
		if n, _ := s.Append(b("app"), b("Hello")); n != 5 {
			t.Errorf("Append() = %d, want 5", n)
		}
		if n, _ := s.Append(b("app"), b(" World")); n != 11 {
			t.Errorf("Append() = %d, want 11", n)
		}
		if n, _ := s.StrLen(b("app")); n != 11 {
			t.Errorf("StrLen() = %d, want 11", n)
		}
	})

	t.Run("IncrBy", func(t *testing.T) {
		if v, _ := s.IncrBy(b("n"), 5); v != 5 {
			t.Errorf("IncrBy() = %d, want 5", v)
		}
		mustSet(t, s, "max", "9223372036854775807")
		if _, err := s.IncrBy(b("max"), 1); !errors.Is(err, store.ErrOverflow) {
			t.Errorf("IncrBy(max) error = %v, want ErrOverflow", err)
		}
		if _, err := s.IncrBy(b("app"), 1); !errors.Is(err, store.ErrNotInteger) {
			t.Errorf("IncrBy(non integer) error = %v, want ErrNotInteger", err)
		}
	})

	t.Run("IncrByFloat", func(t *testing.T) {
		mustSet(t, s, "f", "10.5")
		if v, _ := s.IncrByFloat(b("f"), 0.1); v != 10.6 {
			t.Errorf("IncrByFloat() = %v, want 10.6", v)
		}
		if v, _, _ := s.Get(b("f")); string(v) != "10.6" {
			t.Errorf("Get(f) = %q, want 10.6", v)
		}
	})

	t.Run("GetRange and SetRange", func(t *testing.T) {
		mustSet(t, s, "r", "This is a string")
		tests := []struct {
			start, end int64
			want       string
		}{
			{0, 3, "This"},
			{-3, -1, "ing"},
			{0, -1, "This is a string"},
			{10, 100, "string"},
			{5, 1, ""},
		}
		for _, tt := range tests {
			if got, _ := s.GetRange(b("r"), tt.start, tt.end); string(got) != tt.want {
				t.Errorf("GetRange(%d, %d) = %q, want %q", tt.start, tt.end, got, tt.want)
			}
		}

		if n, _ := s.SetRange(b("pad"), 3, b("x")); n != 4 {
			t.Errorf("SetRange() = %d, want 4", n)
		}
		if v, _, _ := s.Get(b("pad")); !bytes.Equal(v, []byte{0, 0, 0, 'x'}) {
			t.Errorf("Get(pad) = %q, want zero padded", v)
		}
	})

	t.Run("WrongType", func(t *testing.T) {
		_, _ = s.RPush(b("list"), b("x"))
		if _, _, err := s.Get(b("list")); !errors.Is(err, store.ErrWrongType) {
			t.Errorf("Get(list) error = %v, want ErrWrongType", err)
		}
		values, _ := s.MGet(b("list"), b("r"))
		if values[0] != nil || string(values[1]) != "This is a string" {
			t.Errorf("MGet() = %q, want [nil, value]", values)
		}
	})

	t.Run("GetDel and GetEx", func(t *testing.T) {
		mustSet(t, s, "gd", "v")
		if v, ok, _ := s.GetDel(b("gd")); !ok || string(v) != "v" {
			t.Errorf("GetDel() = %q, %v, want v, true", v, ok)
		}
		if n, _ := s.Exists(b("gd")); n != 0 {
			t.Errorf("key exists after GetDel")
		}

		mustSet(t, s, "ge", "v")
		_, _, _ = s.GetEx(b("ge"), store.Expiry(clock.Now().UnixMilli()+300))
		if ttl, _ := s.PTTL(b("ge")); ttl != 300 {
			t.Errorf("PTTL() = %d after GetEx, want 300", ttl)
		}
	})
}
