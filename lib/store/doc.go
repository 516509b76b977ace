// Package store defines the storage engine contract of the protocol layer:
// typed operations on Strings, Hashes, Lists, Sets, ZSets, sparse bitmaps and
// keys, together with a unified error type.
//
// The package focuses on:
//   - A unified interface (IStore) that the command handlers call into
//   - Shared value types for write preconditions, expiry and range boundaries
//   - Pluggable keyspace backends through the DBFactory pattern
//
// Key Components:
//
//   - IStore Interface: The composition of one interface per data type (IKeys,
//     IStrings, IHashes, ILists, ISets, IZSets, IBitmaps) plus snapshotting.
//     Operations return primitives or Go collections; encoding the reply is
//     left to the caller. Returned byte slices are always copies.
//
//   - Error System: Every failure is an *Error carrying a RetCode (WrongType,
//     KeyNotNumber, KeyDoesNotExist, OutOfRange, ...) and a descriptive message.
//     The protocol layer surfaces these codes verbatim as error replies.
//
//   - Boundaries and Expiry: Boundary[T] models inclusive, exclusive and
//     unbounded ends of score and lex ranges. Expiry is an absolute unix
//     millisecond timestamp with two reserved sentinels: NoExpiry clears the
//     ttl of a key and KeepTTL leaves it untouched.
//
//   - Scan Markers: scans resume strictly after a "last seen" element. For
//     hashes and sets the marker is the field or member itself; sorted sets
//     are ordered by score first, so AppendZMarker encodes score and member.
//
// Implementations:
//
//	- Local Store (lstore): an in-memory implementation on top of a db.KVDB
//	  keyspace. Ordered collections are kept in B-trees so that scans and
//	  range queries are logarithmic.
//	  Available in the "github.com/ValentinKolb/rKV/lib/store/lstore" package.
package store
