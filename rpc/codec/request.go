package codec

import (
	"bytes"
	"encoding/binary"
	"strings"

	"github.com/ValentinKolb/rKV/rpc/common"
)

const (
	// lenSize is the size of the argument count and of every length prefix
	lenSize = 4
	// maxNameLen bounds command names that are looked up without allocation
	maxNameLen = 32
)

// --------------------------------------------------------------------------
// Request
// --------------------------------------------------------------------------

// Request is a decoded command invocation. The arguments are zero-copy views
// into the buffer the request was decoded from; the buffer must not be
// modified while the request is in use. Argument 0 is the command name.
type Request struct {
	args [][]byte
}

// NewRequest builds a request from already separated arguments (no copy)
func NewRequest(args ...[]byte) *Request {
	return &Request{args: args}
}

// DecodeRequest decodes a wire request:
//
//	4 bytes argument count (big endian), then per argument
//	4 bytes length (big endian) followed by that many bytes.
//
// Negative or overflowing lengths, a missing command name, truncated spans and
// trailing bytes are reported as a MalformedRequest error.
func DecodeRequest(buf []byte) (*Request, error) {
	r := &Request{}
	if err := r.Decode(buf); err != nil {
		return nil, err
	}
	return r, nil
}

// Decode decodes buf into r, reusing r's argument slice
func (r *Request) Decode(buf []byte) error {
	count, off, err := readUint32(buf, 0)
	if err != nil {
		return common.MalformedRequest("missing argument count")
	}
	if int32(count) <= 0 {
		return common.MalformedRequest("argument count must be positive")
	}
	// every argument needs at least its length prefix
	if uint64(count) > uint64(len(buf)-off)/lenSize {
		return common.MalformedRequest("argument count exceeds buffer")
	}

	r.args = r.args[:0]
	for i := uint32(0); i < count; i++ {
		var arg []byte
		arg, off, err = readSpan(buf, off)
		if err != nil {
			return err
		}
		r.args = append(r.args, arg)
	}

	if off != len(buf) {
		return common.MalformedRequest("trailing bytes after last argument")
	}
	return nil
}

// Len returns the number of arguments including the command name
func (r *Request) Len() int {
	return len(r.args)
}

// Name returns the command name as sent by the client
func (r *Request) Name() []byte {
	if len(r.args) == 0 {
		return nil
	}
	return r.args[0]
}

// Arg returns argument i (0 = command name), nil if out of range
func (r *Request) Arg(i int) []byte {
	if i < 0 || i >= len(r.args) {
		return nil
	}
	return r.args[i]
}

// Args returns all arguments after the command name
func (r *Request) Args() [][]byte {
	if len(r.args) == 0 {
		return nil
	}
	return r.args[1:]
}

// Reader returns an argument reader positioned after the command name
func (r *Request) Reader() *ArgReader {
	return &ArgReader{args: r.Args()}
}

// NameIs reports whether the command name equals name (ASCII case-insensitive)
func (r *Request) NameIs(name string) bool {
	return len(r.args) > 0 && bytes.EqualFold(r.args[0], []byte(name))
}

// UpperName writes the upper-cased command name into dst and returns it.
// Names longer than dst are returned upper-cased in a new slice.
func (r *Request) UpperName(dst *[maxNameLen]byte) []byte {
	name := r.Name()
	if len(name) > len(dst) {
		return bytes.ToUpper(name)
	}
	n := copy(dst[:], name)
	for i := 0; i < n; i++ {
		if c := dst[i]; c >= 'a' && c <= 'z' {
			dst[i] = c - ('a' - 'A')
		}
	}
	return dst[:n]
}

// String returns the entire invocation as text, arguments separated by spaces
func (r *Request) String() string {
	var sb strings.Builder
	for i, arg := range r.args {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.Write(arg)
	}
	return sb.String()
}

// --------------------------------------------------------------------------
// Request Encoding (client side)
// --------------------------------------------------------------------------

// EncodedRequestSize returns the wire size of a request with the given arguments
func EncodedRequestSize(args ...[]byte) int {
	size := lenSize
	for _, arg := range args {
		size += lenSize + len(arg)
	}
	return size
}

// AppendRequest appends the wire encoding of args to dst
func AppendRequest(dst []byte, args ...[]byte) []byte {
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(args)))
	for _, arg := range args {
		dst = binary.BigEndian.AppendUint32(dst, uint32(len(arg)))
		dst = append(dst, arg...)
	}
	return dst
}

// EncodeRequest returns the wire encoding of args
func EncodeRequest(args ...[]byte) []byte {
	return AppendRequest(make([]byte, 0, EncodedRequestSize(args...)), args...)
}

// EncodeStrings is EncodeRequest for string arguments
func EncodeStrings(args ...string) []byte {
	b := make([][]byte, len(args))
	for i, a := range args {
		b[i] = []byte(a)
	}
	return EncodeRequest(b...)
}

// --------------------------------------------------------------------------
// Bounds-checked primitive readers
// --------------------------------------------------------------------------

// readUint32 reads a big-endian uint32 at off and returns it with the offset after it
func readUint32(buf []byte, off int) (uint32, int, error) {
	if off < 0 || len(buf)-off < lenSize {
		return 0, off, common.MalformedRequest("buffer too short for length prefix")
	}
	return binary.BigEndian.Uint32(buf[off : off+lenSize]), off + lenSize, nil
}

// readSpan reads a length-prefixed span at off. The returned slice has its
// capacity capped so appending to it can never overwrite the following span.
func readSpan(buf []byte, off int) ([]byte, int, error) {
	n, off, err := readUint32(buf, off)
	if err != nil {
		return nil, off, err
	}
	if int32(n) < 0 {
		return nil, off, common.MalformedRequest("negative argument length")
	}
	if uint64(n) > uint64(len(buf)-off) {
		return nil, off, common.MalformedRequest("argument length exceeds buffer")
	}
	end := off + int(n)
	return buf[off:end:end], end, nil
}
