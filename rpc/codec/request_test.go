package codec

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/ValentinKolb/rKV/rpc/common"
)

// rawRequest builds a request buffer with an arbitrary count header
func rawRequest(count uint32, args ...[]byte) []byte {
	buf := binary.BigEndian.AppendUint32(nil, count)
	for _, arg := range args {
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(arg)))
		buf = append(buf, arg...)
	}
	return buf
}

// TestDecodeRequest tests decoding of well formed requests
func TestDecodeRequest(t *testing.T) {
	testCases := []struct {
		name string
		args []string
	}{
		{name: "Name only", args: []string{"PING"}},
		{name: "Name and key", args: []string{"GET", "foo"}},
		{name: "Empty argument", args: []string{"SET", "foo", ""}},
		{name: "Binary argument", args: []string{"SET", "k", "\x00\xff\r\n"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := DecodeRequest(EncodeStrings(tc.args...))
			if err != nil {
				t.Fatalf("DecodeRequest() error = %v", err)
			}
			if req.Len() != len(tc.args) {
				t.Fatalf("Len() = %d, want %d", req.Len(), len(tc.args))
			}
			for i, want := range tc.args {
				if got := string(req.Arg(i)); got != want {
					t.Errorf("Arg(%d) = %q, want %q", i, got, want)
				}
			}
			if got := string(req.Name()); got != tc.args[0] {
				t.Errorf("Name() = %q, want %q", got, tc.args[0])
			}
			if len(req.Args()) != len(tc.args)-1 {
				t.Errorf("len(Args()) = %d, want %d", len(req.Args()), len(tc.args)-1)
			}
		})
	}
}

// TestDecodeRequestMalformed tests that broken buffers are rejected without panicking
func TestDecodeRequestMalformed(t *testing.T) {
	valid := EncodeStrings("GET", "foo")

	testCases := []struct {
		name string
		buf  []byte
	}{
		{name: "Empty buffer", buf: nil},
		{name: "Short count", buf: []byte{0, 0, 1}},
		{name: "Zero count", buf: rawRequest(0)},
		{name: "Negative count", buf: rawRequest(0xFFFFFFFF, []byte("GET"))},
		{name: "Count exceeds arguments", buf: rawRequest(2, []byte("GET"))},
		{name: "Huge count", buf: rawRequest(1<<30, []byte("GET"))},
		{name: "Truncated argument", buf: valid[:len(valid)-1]},
		{name: "Truncated length prefix", buf: rawRequest(2, []byte("GET"))[:9]},
		{name: "Negative length", buf: append(binary.BigEndian.AppendUint32(binary.BigEndian.AppendUint32(nil, 1), 0x80000000), 'x')},
		{name: "Length exceeds buffer", buf: append(binary.BigEndian.AppendUint32(binary.BigEndian.AppendUint32(nil, 1), 100), "GET"...)},
		{name: "Trailing bytes", buf: append(append([]byte{}, valid...), 0)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := DecodeRequest(tc.buf)
			if err == nil {
				t.Fatalf("DecodeRequest() = %v, want error", req)
			}
			if kind := common.KindOf(err); kind != common.ErrMalformedRequest {
				t.Errorf("KindOf(err) = %v, want %v", kind, common.ErrMalformedRequest)
			}
		})
	}
}

// TestRequestDecodeReuse tests that Decode reuses the argument slice
func TestRequestDecodeReuse(t *testing.T) {
	var req Request
	if err := req.Decode(EncodeStrings("MSET", "a", "1", "b", "2")); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if err := req.Decode(EncodeStrings("GET", "a")); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if req.Len() != 2 || string(req.Arg(1)) != "a" {
		t.Errorf("Decode() = %v, want GET a", req.String())
	}
	if req.Arg(5) != nil || req.Arg(-1) != nil {
		t.Errorf("Arg() out of range should return nil")
	}
}

// TestRequestArgsAreCapped tests that appending to an argument never overwrites the next one
func TestRequestArgsAreCapped(t *testing.T) {
	req, err := DecodeRequest(EncodeStrings("SET", "k", "v"))
	if err != nil {
		t.Fatalf("DecodeRequest() error = %v", err)
	}
	_ = append(req.Arg(1), 'X', 'X', 'X', 'X', 'X')
	if got := string(req.Arg(2)); got != "v" {
		t.Errorf("Arg(2) = %q after append to Arg(1), want %q", got, "v")
	}
}

// TestRequestNames tests the case-insensitive name helpers
func TestRequestNames(t *testing.T) {
	req := NewRequest([]byte("zRangeByLex"), []byte("key"))

	if !req.NameIs("ZRANGEBYLEX") {
		t.Errorf("NameIs(ZRANGEBYLEX) = false, want true")
	}
	if req.NameIs("ZRANGE") {
		t.Errorf("NameIs(ZRANGE) = true, want false")
	}

	var scratch [maxNameLen]byte
	if got := string(req.UpperName(&scratch)); got != "ZRANGEBYLEX" {
		t.Errorf("UpperName() = %q, want %q", got, "ZRANGEBYLEX")
	}
	if string(req.Name()) != "zRangeByLex" {
		t.Errorf("UpperName() modified the request name")
	}

	long := NewRequest([]byte("averyveryveryveryverylongcommandname"))
	if got := string(long.UpperName(&scratch)); got != "AVERYVERYVERYVERYVERYLONGCOMMANDNAME" {
		t.Errorf("UpperName() = %q for long name", got)
	}

	if got := req.String(); got != "zRangeByLex key" {
		t.Errorf("String() = %q, want %q", got, "zRangeByLex key")
	}
}

// TestEncodedRequestSize tests that the size helper matches the encoding
func TestEncodedRequestSize(t *testing.T) {
	args := [][]byte{[]byte("HSET"), []byte("h"), []byte("field"), {}}
	buf := EncodeRequest(args...)
	if len(buf) != EncodedRequestSize(args...) {
		t.Errorf("EncodedRequestSize() = %d, want %d", EncodedRequestSize(args...), len(buf))
	}
	if len(buf) != 4+4*4+4+1+5 {
		t.Errorf("len(EncodeRequest()) = %d, want %d", len(buf), 4+4*4+4+1+5)
	}
}

// TestDecodeRequestErrorType tests that decode errors are protocol errors
func TestDecodeRequestErrorType(t *testing.T) {
	_, err := DecodeRequest([]byte{1})
	var protoErr *common.Error
	if !errors.As(err, &protoErr) {
		t.Fatalf("DecodeRequest() error = %T, want *common.Error", err)
	}
}
