package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/ValentinKolb/rKV/rpc/common"
)

// testReplies returns one reply of every kind
func testReplies() map[string]Reply {
	return map[string]Reply{
		"OK":          OK(),
		"Integer":     Integer(-42),
		"Bulk":        BulkString("hello"),
		"EmptyBulk":   Bulk([]byte{}),
		"NilBulk":     NilBulk(),
		"Array":       Array([][]byte{[]byte("a"), nil, {}}),
		"EmptyArray":  Array(nil),
		"VArray":      VArray([][]byte{[]byte("a"), nil, bytes.Repeat([]byte("x"), 300)}),
		"TypedArray":  TypedArray([]Reply{Integer(1), NilBulk(), BulkString("x")}),
		"ZArray":      ZArray([][]byte{[]byte("m1"), []byte("m2")}, []float64{1.5, -3}),
		"ZArray1":     ZArray1([][]byte{[]byte("m1"), []byte("m2")}),
		"MultiBulk":   MultiBulk(7, VArray([][]byte{[]byte("k1")})),
		"ScanPage":    MultiBulk(0, ZArray([][]byte{[]byte("z")}, []float64{2})),
		"Error":       ErrorReply(common.IllegalArgs("NX and XX")),
		"NestedEmpty": TypedArray(nil),
	}
}

// TestReplyRoundTrip tests that every reply survives Encode and DecodeReply
func TestReplyRoundTrip(t *testing.T) {
	for name, reply := range testReplies() {
		t.Run(name, func(t *testing.T) {
			buf := make([]byte, reply.Size())
			n, err := reply.Encode(buf)
			if err != nil {
				t.Fatalf("Encode() error = %v", err)
			}
			if n != reply.Size() {
				t.Fatalf("Encode() = %d bytes, Size() = %d", n, reply.Size())
			}

			got, consumed, err := DecodeReply(buf)
			if err != nil {
				t.Fatalf("DecodeReply() error = %v", err)
			}
			if consumed != n {
				t.Errorf("DecodeReply() consumed %d, want %d", consumed, n)
			}
			if got.Tag() != reply.Tag() {
				t.Errorf("DecodeReply() tag = %v, want %v", got.Tag(), reply.Tag())
			}
			if !bytes.Equal(got.Encoded(), buf) {
				t.Errorf("re-encoded reply differs:\n got: %v\nwant: %v", got.Encoded(), buf)
			}
		})
	}
}

// TestIntegerEncoding tests the big endian layout of INTEGER replies
func TestIntegerEncoding(t *testing.T) {
	for _, v := range []int64{math.MinInt64, -1, 0, 1, math.MaxInt64} {
		buf := Integer(v).Encoded()
		if len(buf) != 9 || Tag(buf[0]) != TagInteger {
			t.Fatalf("Integer(%d).Encoded() = %v", v, buf)
		}
		if got := int64(binary.BigEndian.Uint64(buf[1:])); got != v {
			t.Errorf("Integer(%d) decoded as %d", v, got)
		}
		decoded, _, err := DecodeReply(buf)
		if err != nil || decoded.Int != v {
			t.Errorf("DecodeReply(Integer(%d)) = %d, %v", v, decoded.Int, err)
		}
	}
}

// TestShortBuffer tests that a short buffer reports the exact size and stays untouched
func TestShortBuffer(t *testing.T) {
	testCases := []struct {
		name  string
		reply Reply
		size  int
	}{
		// 1 tag + 8 header + (1+1) + 1 + (1+2)
		{name: "VArray", reply: VArray([][]byte{[]byte("a"), nil, []byte("bc")}), size: 15},
		// 1 tag + 8 header + 9 + 5 + 6
		{name: "TypedArray", reply: TypedArray([]Reply{Integer(1), NilBulk(), BulkString("x")}), size: 29},
		// 1 tag + 8 header + (4+1) + 4
		{name: "Array", reply: Array([][]byte{[]byte("a"), nil}), size: 18},
		{name: "NilBulk", reply: NilBulk(), size: 5},
		{name: "OK", reply: OK(), size: 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.reply.Size(); got != tc.size {
				t.Fatalf("Size() = %d, want %d", got, tc.size)
			}

			buf := bytes.Repeat([]byte{0xAB}, tc.size-1)
			n, err := tc.reply.Encode(buf)
			if n != 0 {
				t.Errorf("Encode() wrote %d bytes into short buffer", n)
			}
			var short *ShortBufferError
			if !errors.As(err, &short) {
				t.Fatalf("Encode() error = %v, want *ShortBufferError", err)
			}
			if short.Required != tc.size || short.Available != tc.size-1 {
				t.Errorf("ShortBufferError = %+v, want Required %d", short, tc.size)
			}
			for i, b := range buf {
				if b != 0xAB {
					t.Fatalf("buffer modified at %d", i)
				}
			}

			if n, err := tc.reply.Encode(make([]byte, tc.size)); err != nil || n != tc.size {
				t.Errorf("Encode() exact buffer = %d, %v", n, err)
			}
		})
	}
}

// TestArrayLayout tests the size/count header and nil marker of ARRAY replies
func TestArrayLayout(t *testing.T) {
	buf := Array([][]byte{[]byte("ab"), nil}).Encoded()
	want := []byte{
		byte(TagArray),
		0, 0, 0, 10, // element section size
		0, 0, 0, 2, // count
		0, 0, 0, 2, 'a', 'b',
		0xFF, 0xFF, 0xFF, 0xFF,
	}
	if !bytes.Equal(buf, want) {
		t.Errorf("Array().Encoded() = %v, want %v", buf, want)
	}
}

// TestDoubleEncoding tests the textual encoding of doubles
func TestDoubleEncoding(t *testing.T) {
	testCases := []struct {
		in   float64
		want string
	}{
		{in: 1.5, want: "1.5"},
		{in: 3, want: "3"},
		{in: -0.1, want: "-0.1"},
		{in: math.Inf(1), want: "1.7976931348623157e+308"},
		{in: math.Inf(-1), want: "-1.7976931348623157e+308"},
	}

	for _, tc := range testCases {
		r := Double(tc.in)
		buf := r.Encoded()
		if Tag(buf[0]) != TagBulkString {
			t.Errorf("Double(%v) tag = %v, want BULK_STRING", tc.in, Tag(buf[0]))
		}
		decoded, _, err := DecodeReply(buf)
		if err != nil {
			t.Fatalf("DecodeReply() error = %v", err)
		}
		if string(decoded.Bytes) != tc.want {
			t.Errorf("Double(%v) = %q, want %q", tc.in, decoded.Bytes, tc.want)
		}
		if len(buf) != r.Size() {
			t.Errorf("Double(%v) size = %d, Size() = %d", tc.in, len(buf), r.Size())
		}
	}
}

// TestCollapse tests the single element rewrite of VARRAY replies
func TestCollapse(t *testing.T) {
	testCases := []struct {
		name string
		in   Reply
		want Reply
	}{
		{name: "Empty", in: VArray(nil), want: NilBulk()},
		{name: "Single", in: VArray([][]byte{[]byte("a")}), want: BulkString("a")},
		{name: "Multiple", in: VArray([][]byte{[]byte("a"), []byte("b")}), want: VArray([][]byte{[]byte("a"), []byte("b")})},
		{name: "NotVArray", in: Integer(3), want: Integer(3)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.in.Collapse(); !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Collapse() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

// TestErrorReply tests the text and category of ERROR replies
func TestErrorReply(t *testing.T) {
	r := ErrorFrom(common.WrongArgsNumber("GET"))
	want := "WrongArgsNumber: wrong number of arguments for 'get' command"
	if string(r.Bytes) != want {
		t.Errorf("ErrorFrom() = %q, want %q", r.Bytes, want)
	}

	decoded, _, err := DecodeReply(r.Encoded())
	if err != nil {
		t.Fatalf("DecodeReply() error = %v", err)
	}
	if !decoded.IsError() || decoded.ErrKind != common.ErrWrongArgsNumber {
		t.Errorf("DecodeReply() = %+v, want WrongArgsNumber error", decoded)
	}
	if decoded.Err() == nil || decoded.Err().Error() != want {
		t.Errorf("Err() = %v, want %q", decoded.Err(), want)
	}
	if OK().Err() != nil {
		t.Errorf("OK().Err() = %v, want nil", OK().Err())
	}
}

// TestDecodeReplyMalformed tests that broken reply buffers are rejected
func TestDecodeReplyMalformed(t *testing.T) {
	full := VArray([][]byte{[]byte("abc")}).Encoded()
	testCases := map[string][]byte{
		"Empty":          nil,
		"UnknownTag":     {99},
		"ShortInteger":   {byte(TagInteger), 0, 0},
		"ShortBulk":      {byte(TagBulkString), 0, 0, 0, 5, 'a'},
		"ShortContainer": full[:len(full)-1],
		"NilError":       {byte(TagError), 0xFF, 0xFF, 0xFF, 0xFF},
		"BadMultiBulk":   {byte(TagMultiBulk), byte(TagOK)},
	}

	for name, buf := range testCases {
		t.Run(name, func(t *testing.T) {
			if r, _, err := DecodeReply(buf); err == nil {
				t.Errorf("DecodeReply() = %+v, want error", r)
			}
		})
	}
}

// TestReplyString tests the redis-cli style rendering
func TestReplyString(t *testing.T) {
	testCases := []struct {
		reply Reply
		want  string
	}{
		{reply: OK(), want: "OK"},
		{reply: Integer(5), want: "(integer) 5"},
		{reply: NilBulk(), want: "(nil)"},
		{reply: BulkString("v"), want: `"v"`},
		{reply: VArray(nil), want: "(empty array)"},
		{reply: VArray([][]byte{[]byte("a"), []byte("b")}), want: "1) \"a\"\n2) \"b\""},
		{reply: ZArray([][]byte{[]byte("m")}, []float64{2}), want: "1) \"m\"\n2) \"2\""},
		{reply: MultiBulk(3, VArray([][]byte{[]byte("k")})), want: "1) \"3\"\n2) 1) \"k\""},
	}

	for _, tc := range testCases {
		if got := tc.reply.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}
