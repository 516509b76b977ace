// Package common provides the types shared by the codec, server, client and
// transport packages of rKV.
//
// The package focuses on:
//   - The protocol error type and its error kinds
//   - Configuration structures for client and server components
//   - Custom logging implementation built on Dragonboat's logger package
//
// Key Components:
//
//   - Error: the failure value of every command. It carries an ErrorKind, a
//     message and an optional detail and renders as "Kind: msg detail", which
//     is the text of an ERROR reply. errors.Is compares kinds only.
//
//   - ServerConfig: listen endpoint, transport tuning, number of logical
//     databases, snapshot directory, cursor ttl and log level.
//
//   - ClientConfig: endpoints, connection pool size, timeouts, retries and the
//     logical database requests are sent to.
//
//   - Logger: InitLoggers installs a factory that formats every package logger
//     the same way and sets a common log level.
package common
