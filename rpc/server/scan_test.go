package server

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/ValentinKolb/rKV/rpc/codec"
	"github.com/ValentinKolb/rKV/rpc/common"
)

// scanAll follows the cursor chain of a scan command and returns the page
// sizes and all elements in order
func scanAll(t *testing.T, e *testEnv, cmd, key string, opts ...string) ([]int, []string) {
	t.Helper()
	var (
		pages []int
		elems []string
	)
	cursor := "0"
	for i := 0; i < 100; i++ {
		args := append([]string{cmd, key, cursor}, opts...)
		r := e.do(t, args...)
		if r.Kind != codec.KindMultiBulk || len(r.Items) != 1 {
			t.Fatalf("%v = %s, want multi bulk", args, r)
		}
		page := r.Items[0]
		pages = append(pages, len(page.Elems))
		for _, el := range page.Elems {
			elems = append(elems, string(el))
		}
		if r.Int == 0 {
			return pages, elems
		}
		cursor = strconv.FormatInt(r.Int, 10)
	}
	t.Fatalf("%s did not terminate", cmd)
	return nil, nil
}

func TestHScanPaging(t *testing.T) {
	e := newTestEnv(t)
	args := []string{"HSET", "h"}
	for i := 0; i < 36; i++ {
		args = append(args, fmt.Sprintf("f%02d", i), strconv.Itoa(i))
	}
	wantInt(t, e.do(t, args...), 36)

	pages, elems := scanAll(t, e, "HSCAN", "h", "COUNT", "10")
	// pages hold field/value pairs
	want := []int{20, 20, 20, 12}
	if fmt.Sprint(pages) != fmt.Sprint(want) {
		t.Errorf("HSCAN pages = %v, want %v", pages, want)
	}
	seen := make(map[string]bool)
	for i := 0; i < len(elems); i += 2 {
		if seen[elems[i]] {
			t.Errorf("field %s returned twice", elems[i])
		}
		seen[elems[i]] = true
	}
	if len(seen) != 36 {
		t.Errorf("HSCAN returned %d fields, want 36", len(seen))
	}
}

func TestScanCursorErrors(t *testing.T) {
	e := newTestEnv(t)
	e.do(t, "SADD", "s", "a", "b", "c")

	r := e.do(t, "SSCAN", "s", "0", "COUNT", "1")
	if r.Int == 0 {
		t.Fatalf("SSCAN = %s, want a continuation cursor", r)
	}
	cursor := strconv.FormatInt(r.Int, 10)

	// options are validated before the cursor is consumed
	wantErr(t, e.do(t, "SSCAN", "s", cursor, "COUNT", "0"), common.ErrPositiveNumberExpected)
	wantErr(t, e.do(t, "SSCAN", "s", cursor, "FOO"), common.ErrWrongCommandFormat)

	r = e.do(t, "SSCAN", "s", cursor, "COUNT", "1")
	if r.Kind != codec.KindMultiBulk {
		t.Fatalf("SSCAN resume = %s", r)
	}
	wantElems(t, r.Items[0], codec.KindArray, "b")

	tests := []struct {
		name   string
		cursor string
		detail string
	}{
		{"consumed cursor", cursor, "(unknown or consumed cursor)"},
		{"unknown cursor", "424242", "(unknown or consumed cursor)"},
		{"not a number", "abc", "(not a number)"},
		{"negative", "-1", "(not a number)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := e.do(t, "SSCAN", "s", tt.cursor)
			wantErr(t, r, common.ErrInvalidCursor)
			if want := "InvalidCursor: " + tt.cursor + " " + tt.detail; string(r.Bytes) != want {
				t.Errorf("error text = %q, want %q", r.Bytes, want)
			}
		})
	}
}

func TestScanMatch(t *testing.T) {
	e := newTestEnv(t)
	e.do(t, "SADD", "s", "apple", "avocado", "banana", "apricot")

	_, elems := scanAll(t, e, "SSCAN", "s", "MATCH", "a*", "COUNT", "2")
	if fmt.Sprint(elems) != "[apple apricot avocado]" {
		t.Errorf("SSCAN MATCH a* = %v", elems)
	}

	// single byte wildcards
	e.do(t, "SADD", "bin", "a", "é", "\xff", "zz")
	_, elems = scanAll(t, e, "SSCAN", "bin", "MATCH", "?")
	if fmt.Sprintf("%q", elems) != `["a" "\xff"]` {
		t.Errorf("SSCAN MATCH ? = %q, want [\"a\" \"\\xff\"]", elems)
	}
	wantElems(t, e.do(t, "KEYS", "?i?"), codec.KindVArray, "bin")

	// a missing key is an empty, complete scan
	pages, _ := scanAll(t, e, "SSCAN", "missing")
	if len(pages) != 1 || pages[0] != 0 {
		t.Errorf("SSCAN missing pages = %v, want [0]", pages)
	}
}

func TestZScanPaging(t *testing.T) {
	e := newTestEnv(t)
	// equal scores are ordered by member
	e.do(t, "ZADD", "z", "1", "b", "1", "a", "0", "c", "2", "d", "1", "e")

	var members []string
	var scores []float64
	cursor := "0"
	for {
		r := e.do(t, "ZSCAN", "z", cursor, "COUNT", "2")
		page := r.Items[0]
		if page.Kind != codec.KindZArray {
			t.Fatalf("ZSCAN page = %s, want ZArray", page)
		}
		for i, m := range page.Elems {
			members = append(members, string(m))
			scores = append(scores, page.Scores[i])
		}
		if r.Int == 0 {
			break
		}
		cursor = strconv.FormatInt(r.Int, 10)
	}

	if fmt.Sprint(members) != "[c a b e d]" {
		t.Errorf("ZSCAN members = %v, want [c a b e d]", members)
	}
	if fmt.Sprint(scores) != "[0 1 1 1 2]" {
		t.Errorf("ZSCAN scores = %v, want [0 1 1 1 2]", scores)
	}
}
