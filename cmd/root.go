package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/rKV/cmd/cli"
	"github.com/ValentinKolb/rKV/cmd/serve"
	"github.com/ValentinKolb/rKV/cmd/util"
	"github.com/ValentinKolb/rKV/rpc/server"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (
	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "rkv",
		Short: "redis compatible key-value store",
		Long: fmt.Sprintf(`rKV (v%s)

An in-memory key-value store speaking a compact binary variant of the
redis command set: strings, hashes, lists, sets, sorted sets, bitmaps
and cursor based scans.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of rKV",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("rKV v%s\n", Version)
		},
	}
)

func init() {
	server.Version = Version

	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(cli.CliCommands)
	RootCmd.AddCommand(versionCmd)

	key := "transport"
	RootCmd.PersistentFlags().String(key, "tcp", util.WrapString("transport to use (http, tcp, unix)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
