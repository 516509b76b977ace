package cli

import (
	"github.com/ValentinKolb/rKV/cmd/util"
	"github.com/ValentinKolb/rKV/rpc/client"
	"github.com/spf13/cobra"
)

var (
	rpcClient *client.Client

	// CliCommands represents the client command group
	CliCommands = &cobra.Command{
		Use:               "cli",
		Short:             "Send commands to an rKV server",
		PersistentPreRunE: setupClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add common RPC flags to the cli command
	util.SetupRPCClientFlags(CliCommands)

	CliCommands.AddCommand(execCmd)
	CliCommands.AddCommand(shellCmd)
	CliCommands.AddCommand(perfTestCmd)
}

// setupClient connects the client used by all sub commands
func setupClient(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	t, err := util.GetTransport()
	if err != nil {
		return err
	}

	rpcClient, err = client.New(*util.GetClientConfig(), t)
	return err
}
