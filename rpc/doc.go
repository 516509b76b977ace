// Package rpc contains the request/reply protocol layer of rKV, a Redis
// compatible in-memory store.
//
// The package is organized into several subpackages:
//
//   - common: errors, configuration structures and logging.
//
//   - codec: the binary request decoder and reply encoder.
//
//   - options: parsers for the optional arguments of SET, ZADD, ZRANGE, SCAN,
//     EXPIRE and friends.
//
//   - transport: framed network communication with pluggable implementations
//     (TCP, Unix sockets, HTTP).
//
//   - server: the command registry, the dispatcher and the command handlers.
//
//   - client: a small client that sends commands and decodes replies.
package rpc
