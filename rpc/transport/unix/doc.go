// Package unix implements a transport for processes on the same machine using
// Unix domain sockets. The endpoint is the path of the socket file; an
// existing file at that path is removed when the server starts listening.
//
// Key Components:
//
//   - clientConnector: Establishes connections using Unix domain sockets
//
//   - serverConnector: Creates Unix socket listeners and accepts connections
package unix
