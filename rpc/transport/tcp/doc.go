// Package tcp implements the TCP transport of rKV on top of the base package.
//
// Key Components:
//
//   - clientConnector: TCP implementation of base.IClientConnector
//
//   - serverConnector: TCP implementation of base.IServerConnector
//
// Both sides apply TCPConf (no delay, keep alive, linger) and SocketConf
// (socket buffer sizes) to every connection.
package tcp
