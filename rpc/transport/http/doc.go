// Package http implements an HTTP transport for rKV.
//
// A request is sent as POST /{db} with the encoded request as body, the reply
// is the response body. The server additionally serves GET /metrics in the
// Prometheus text format.
//
// Key Components:
//
//   - httpClientTransport: Implements IRPCClientTransport with round-robin
//     selection across endpoints and a configurable number of attempts.
//
//   - httpServerTransport: Implements IRPCServerTransport. The optional rate
//     limit applies to the whole listener.
//
// Thread Safety:
//
//	The client transport is safe for concurrent use after Connect.
package http
