package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/ValentinKolb/rKV/rpc/common"
)

// --------------------------------------------------------------------------
// Reply Decoding (client side)
// --------------------------------------------------------------------------

// DecodeReply decodes one reply from the start of buf and returns it with the
// number of bytes consumed. DOUBLE replies are indistinguishable from bulk
// strings on the wire and decode as KindBulk. Byte slices alias buf.
func DecodeReply(buf []byte) (Reply, int, error) {
	if len(buf) < tagSize {
		return Reply{}, 0, fmt.Errorf("data too short for reply tag")
	}

	tag := Tag(buf[0])
	pos := tagSize

	switch tag {
	case TagOK:
		return OK(), pos, nil

	case TagInteger:
		if len(buf)-pos < intSize {
			return Reply{}, 0, fmt.Errorf("data too short for integer")
		}
		return Integer(int64(binary.BigEndian.Uint64(buf[pos:]))), pos + intSize, nil

	case TagBulkString:
		data, next, isNil, err := readReplySpan(buf, pos, true)
		if err != nil {
			return Reply{}, 0, err
		}
		if isNil {
			return NilBulk(), next, nil
		}
		return Bulk(data), next, nil

	case TagError:
		data, next, _, err := readReplySpan(buf, pos, false)
		if err != nil {
			return Reply{}, 0, err
		}
		r := Reply{Kind: KindError, Bytes: data}
		if i := bytes.Index(data, []byte(": ")); i > 0 {
			if kind, err := common.ParseErrorKind(string(data[:i])); err == nil {
				r.ErrKind = kind
			}
		}
		return r, next, nil

	case TagMultiBulk:
		if len(buf)-pos < tagSize+intSize || Tag(buf[pos]) != TagInteger {
			return Reply{}, 0, fmt.Errorf("multi bulk reply must start with an integer cursor")
		}
		cursor := binary.BigEndian.Uint64(buf[pos+tagSize:])
		pos += tagSize + intSize
		page, n, err := DecodeReply(buf[pos:])
		if err != nil {
			return Reply{}, 0, fmt.Errorf("multi bulk page: %w", err)
		}
		return MultiBulk(cursor, page), pos + n, nil

	case TagArray, TagVArray, TagTypedArray, TagZArray, TagZArray1:
		return decodeContainer(tag, buf, pos)

	default:
		return Reply{}, 0, fmt.Errorf("unknown reply tag %d", byte(tag))
	}
}

// decodeContainer decodes the header and elements of an array reply
func decodeContainer(tag Tag, buf []byte, pos int) (Reply, int, error) {
	if len(buf)-pos < containerHead {
		return Reply{}, 0, fmt.Errorf("data too short for %s header", tag)
	}
	size := int(binary.BigEndian.Uint32(buf[pos:]))
	count := int(binary.BigEndian.Uint32(buf[pos+lenSize:]))
	pos += containerHead

	if size > len(buf)-pos {
		return Reply{}, 0, fmt.Errorf("data too short for %s elements", tag)
	}
	end := pos + size
	body := buf[:end]

	var (
		r   Reply
		err error
	)
	switch tag {
	case TagArray, TagZArray1:
		r = Reply{Kind: KindArray, Elems: make([][]byte, 0, min(count, size/lenSize))}
		if tag == TagZArray1 {
			r.Kind = KindZArray1
		}
		for i := 0; i < count; i++ {
			var (
				data  []byte
				isNil bool
			)
			data, pos, isNil, err = readReplySpan(body, pos, tag == TagArray)
			if err != nil {
				return Reply{}, 0, err
			}
			if isNil {
				data = nil
			} else if data == nil {
				data = []byte{}
			}
			r.Elems = append(r.Elems, data)
		}

	case TagVArray:
		r = Reply{Kind: KindVArray, Elems: make([][]byte, 0, min(count, size))}
		for i := 0; i < count; i++ {
			n, k := binary.Varint(body[pos:])
			if k <= 0 {
				return Reply{}, 0, fmt.Errorf("invalid varint length in VARRAY")
			}
			pos += k
			if n == nilLen {
				r.Elems = append(r.Elems, nil)
				continue
			}
			if n < 0 || n > int64(end-pos) {
				return Reply{}, 0, fmt.Errorf("VARRAY element exceeds data")
			}
			r.Elems = append(r.Elems, body[pos:pos+int(n):pos+int(n)])
			pos += int(n)
		}

	case TagZArray:
		r = Reply{Kind: KindZArray}
		for i := 0; i < count; i++ {
			var member, score []byte
			if member, pos, _, err = readReplySpan(body, pos, false); err != nil {
				return Reply{}, 0, err
			}
			if score, pos, _, err = readReplySpan(body, pos, false); err != nil {
				return Reply{}, 0, err
			}
			v, err := strconv.ParseFloat(string(score), 64)
			if err != nil {
				return Reply{}, 0, fmt.Errorf("invalid score %q in ZARRAY", score)
			}
			if member == nil {
				member = []byte{}
			}
			r.Elems = append(r.Elems, member)
			r.Scores = append(r.Scores, v)
		}

	case TagTypedArray:
		r = Reply{Kind: KindTypedArray}
		for i := 0; i < count; i++ {
			item, n, err := DecodeReply(body[pos:])
			if err != nil {
				return Reply{}, 0, fmt.Errorf("typed array element %d: %w", i, err)
			}
			r.Items = append(r.Items, item)
			pos += n
		}
	}

	if pos != end {
		return Reply{}, 0, fmt.Errorf("%s size mismatch: declared %d, consumed %d", tag, size, pos-(end-size))
	}
	return r, end, nil
}

// readReplySpan reads a 4 byte length and the following bytes
func readReplySpan(buf []byte, pos int, allowNil bool) ([]byte, int, bool, error) {
	if len(buf)-pos < lenSize {
		return nil, 0, false, fmt.Errorf("data too short for length")
	}
	n := binary.BigEndian.Uint32(buf[pos:])
	pos += lenSize
	if n == nilSpan {
		if !allowNil {
			return nil, 0, false, fmt.Errorf("unexpected nil length")
		}
		return nil, pos, true, nil
	}
	if int64(n) > int64(len(buf)-pos) {
		return nil, 0, false, fmt.Errorf("data too short for span of %d bytes", n)
	}
	end := pos + int(n)
	return buf[pos:end:end], end, false, nil
}

// --------------------------------------------------------------------------
// Text Rendering
// --------------------------------------------------------------------------

// String renders the reply the way redis-cli prints replies
func (r Reply) String() string {
	var sb strings.Builder
	r.render(&sb, "")
	return sb.String()
}

func (r Reply) render(sb *strings.Builder, indent string) {
	switch r.Kind {
	case KindOK:
		sb.WriteString("OK")
	case KindInteger:
		sb.WriteString("(integer) ")
		sb.WriteString(strconv.FormatInt(r.Int, 10))
	case KindDouble:
		sb.WriteString(strconv.Quote(string(AppendDouble(nil, r.Float))))
	case KindBulk:
		if r.Nil {
			sb.WriteString("(nil)")
		} else {
			sb.WriteString(strconv.Quote(string(r.Bytes)))
		}
	case KindError:
		sb.WriteString("(error) ")
		sb.Write(r.Bytes)
	case KindMultiBulk:
		sb.WriteString("1) ")
		sb.WriteString(strconv.Quote(strconv.FormatUint(uint64(r.Int), 10)))
		sb.WriteString("\n")
		sb.WriteString(indent)
		sb.WriteString("2) ")
		r.page().render(sb, indent+"   ")
	default:
		lines := r.lines()
		if len(lines) == 0 {
			sb.WriteString("(empty array)")
			return
		}
		width := len(strconv.Itoa(len(lines)))
		for i, line := range lines {
			if i > 0 {
				sb.WriteString("\n")
				sb.WriteString(indent)
			}
			fmt.Fprintf(sb, "%*d) ", width, i+1)
			line.render(sb, indent+strings.Repeat(" ", width+2))
		}
	}
}

// lines flattens a container reply into one scalar reply per printed line
func (r Reply) lines() []Reply {
	switch r.Kind {
	case KindTypedArray:
		return r.Items
	case KindZArray:
		out := make([]Reply, 0, 2*len(r.Elems))
		for i, m := range r.Elems {
			out = append(out, Bulk(m), Double(r.score(i)))
		}
		return out
	default:
		out := make([]Reply, 0, len(r.Elems))
		for _, e := range r.Elems {
			out = append(out, BulkOrNil(e, e != nil))
		}
		return out
	}
}
