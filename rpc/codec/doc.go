// Package codec implements the binary wire format of the rKV request/reply
// protocol. It decodes request buffers into zero-copy argument views and
// encodes the tagged replies produced by command handlers.
//
// The package focuses on:
//   - Bounds-checked decoding of untrusted request buffers
//   - Computing the exact encoded size of a reply before writing any byte
//   - A single Reply value type with one serializer for all reply variants
//   - Parsing of numeric command arguments without allocation
//
// Key Components:
//
//   - Request: A decoded invocation. Argument 0 is the command name; all
//     arguments alias the buffer they were decoded from.
//
//   - ArgReader: Sequential reader over request arguments. Every read returns
//     the value and advances, reads past the end fail with an error.
//
//   - Reply: Tagged union of OK, INTEGER, DOUBLE, BULK_STRING, ARRAY, VARRAY,
//     TYPED_ARRAY, ZARRAY, ZARRAY1, MULTI_BULK and ERROR. Size, Encode and
//     DecodeReply are exact inverses of each other.
//
// Wire Format:
//
//	request  = count:u32 (name + args) { len:u32 bytes }
//	reply    = tag:u8 body
//	ARRAY    = size:u32 count:u32 { len:u32 bytes | 0xFFFFFFFF }
//	VARRAY   = size:u32 count:u32 { zigzag-varint len, bytes | varint -1 }
//	ZARRAY   = size:u32 count:u32 { len:u32 member len:u32 score-text }
//	MULTI_BULK = INTEGER cursor, nested reply
//
// All integers are big endian. The size field of a container counts the
// element bytes only. DOUBLE values are sent as BULK_STRING text.
//
// Thread Safety:
//
//	Replies and requests are plain values. A Request must not be used after
//	its source buffer is reused by the transport.
package codec
