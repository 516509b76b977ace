// Package server implements the command layer of the rKV server. It decodes
// wire requests, routes them to a command handler and encodes the reply.
//
// The package focuses on:
//   - A command registry with per-command arity rules checked before any
//     argument is parsed
//   - A dispatcher that turns every failure into an ERROR reply
//   - Handlers for the string, key, hash, list, set, sorted set, bitmap,
//     scan and admin command families
//   - Multiple logical databases, selected by the shard id of the transport frame
//
// Key Components:
//
//   - Registry: maps upper case command names to a Command (name, arity,
//     flags and handler). NewRegistry returns the registry of all supported
//     commands.
//
//   - Dispatcher: executes requests against one store.IStore. Execute writes
//     the reply into a caller buffer and returns a *codec.ShortBufferError if
//     it does not fit. Handle returns a freshly sized reply buffer and is used
//     as transport handler.
//
//   - Context: the per-invocation state handed to a handler (request, argument
//     reader, store, admin, cursor store and a pooled scratch buffer).
//
//   - NewRPCServer: creates the server with the configured transport. Logical
//     databases are created lazily on first use.
//
// Usage Example:
//
//	config := common.DefaultServerConfig()
//	config.Transport.Endpoint = "0.0.0.0:6380"
//
//	s := server.NewRPCServer(
//	  config,
//	  tcp.NewTCPServerTransport(),
//	)
//
//	if err := s.Serve(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Metrics:
//
//	Every command counts its invocations and observes its latency with
//	github.com/VictoriaMetrics/metrics. Error replies are counted per error
//	kind. The metrics are exposed on MetricsEndpoint in the Prometheus format.
//
// Thread Safety:
//
//	The dispatcher and the server are safe for concurrent use. Serve should be
//	called only once.
package server
