// Package cmd implements the command-line interface of rKV. It provides a
// hierarchical command structure for running the server and talking to it.
//
// The package is organized into several subpackages:
//
//   - serve: Starts and configures the rKV server
//   - cli: Client commands (exec, shell and the perf benchmark)
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// Every flag can also be set as environment variable RKV_<FLAG> (dashes
// replaced by underscores), .env and .env.local files are loaded on start.
//
// See rkv -help for a list of all commands.
package cmd
