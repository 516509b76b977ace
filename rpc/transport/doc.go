// Package transport defines the interfaces for moving encoded requests and
// replies between rKV clients and servers. The payloads are opaque to the
// transport; it only carries the index of the logical database a request is
// addressed to.
//
// Key Components:
//
//   - IRPCClientTransport: client-side transport that manages connections
//     and sends requests.
//
//   - IRPCServerTransport: server-side transport that receives requests and
//     passes them to the registered ServerHandleFunc.
//
// Implementations live in the tcp, unix and http sub packages.
package transport
