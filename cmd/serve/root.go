package serve

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cmdUtil "github.com/ValentinKolb/rKV/cmd/util"
	"github.com/ValentinKolb/rKV/rpc/common"
	"github.com/ValentinKolb/rKV/rpc/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = common.DefaultServerConfig()
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the rKV server",
		Long:    `Start the rKV server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is RKV_<flag> (e.g. RKV_TIMEOUT=15)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(cmdUtil.InitConfig)

	defaults := common.DefaultServerConfig()

	key := "endpoint"
	ServeCmd.PersistentFlags().String(key, defaults.Transport.Endpoint, cmdUtil.WrapString("The address on which the server will listen (e.g. localhost:6380, /tmp/rkv.sock, ...)"))

	key = "databases"
	ServeCmd.PersistentFlags().Int(key, defaults.Databases, cmdUtil.WrapString("Number of logical databases, addressed by the database index of a request"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 0, cmdUtil.WrapString("Read and write deadline per frame in seconds (0 = none)"))

	key = "buffer-size"
	ServeCmd.PersistentFlags().Int(key, defaults.Transport.BufferSize/1024, cmdUtil.WrapString("Size of the pooled request buffers (in KB)"))

	key = "workers-per-conn"
	ServeCmd.PersistentFlags().Int(key, defaults.Transport.WorkersPerConn, cmdUtil.WrapString("Maximum number of concurrently executed requests per connection"))

	key = "rate-limit"
	ServeCmd.PersistentFlags().Float64(key, 0, cmdUtil.WrapString("Requests per second per connection (0 = unlimited)"))

	key = "rate-burst"
	ServeCmd.PersistentFlags().Int(key, 100, cmdUtil.WrapString("Burst size of the rate limiter"))

	key = "tcp-nodelay"
	ServeCmd.PersistentFlags().Bool(key, defaults.Transport.TCPNoDelay, cmdUtil.WrapString("Whether to enable TCP_NODELAY (only for tcp)"))

	key = "tcp-keepalive"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The keepalive interval in seconds (only for tcp)"))

	key = "tcp-linger"
	ServeCmd.PersistentFlags().Int(key, defaults.Transport.TCPLingerSec, cmdUtil.WrapString("The linger time in seconds, -1 = os default (only for tcp)"))

	key = "data-dir"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Directory for the snapshots written by SAVE, BGSAVE and SHUTDOWN (empty = persistence disabled)"))

	key = "restore"
	ServeCmd.PersistentFlags().Bool(key, false, cmdUtil.WrapString("Load the snapshots in data-dir on startup"))

	key = "cursor-ttl"
	ServeCmd.PersistentFlags().Duration(key, 0, cmdUtil.WrapString("Drop scan cursors that were not resumed within this duration (0 = keep)"))

	key = "expiry-interval"
	ServeCmd.PersistentFlags().Duration(key, defaults.ExpiryInterval, cmdUtil.WrapString("Interval of the background sweep that removes expired keys"))

	key = "metrics-endpoint"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Serve /metrics on this address (e.g. localhost:9100, empty = disabled)"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, defaults.LogLevel, cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	serveCmdConfig.Transport.Type = viper.GetString("transport")
	serveCmdConfig.Transport.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.Transport.BufferSize = viper.GetInt("buffer-size") * 1024
	serveCmdConfig.Transport.WorkersPerConn = viper.GetInt("workers-per-conn")
	serveCmdConfig.Transport.RateLimit = viper.GetFloat64("rate-limit")
	serveCmdConfig.Transport.RateBurst = viper.GetInt("rate-burst")
	serveCmdConfig.Transport.TCPNoDelay = viper.GetBool("tcp-nodelay")
	serveCmdConfig.Transport.TCPKeepAliveSec = viper.GetInt("tcp-keepalive")
	serveCmdConfig.Transport.TCPLingerSec = viper.GetInt("tcp-linger")

	serveCmdConfig.Databases = viper.GetInt("databases")
	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.DataDir = viper.GetString("data-dir")
	serveCmdConfig.RestoreOnStart = viper.GetBool("restore")
	serveCmdConfig.CursorTTL = viper.GetDuration("cursor-ttl")
	serveCmdConfig.ExpiryInterval = viper.GetDuration("expiry-interval")
	serveCmdConfig.MetricsEndpoint = viper.GetString("metrics-endpoint")
	serveCmdConfig.LogLevel = viper.GetString("log-level")

	if serveCmdConfig.Databases <= 0 {
		return fmt.Errorf("databases must be positive, got %d", serveCmdConfig.Databases)
	}
	if serveCmdConfig.RestoreOnStart && serveCmdConfig.DataDir == "" {
		return fmt.Errorf("restore requires a data-dir")
	}
	if _, err := common.ParseLogLevel(serveCmdConfig.LogLevel); err != nil {
		return err
	}
	return nil
}

// run starts the rKV server
func run(_ *cobra.Command, _ []string) error {
	t, err := cmdUtil.GetServerTransport(serveCmdConfig.Transport.Type)
	if err != nil {
		return err
	}

	serv := server.NewRPCServer(serveCmdConfig, t)

	// SIGINT and SIGTERM shut the server down like SHUTDOWN without arguments
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		s := <-sig
		fmt.Printf("received %s, shutting down\n", s)
		if err := serv.Shutdown(); err != nil {
			fmt.Printf("shutdown failed: %v\n", err)
			os.Exit(1)
		}
	}()

	return serv.Serve()
}
