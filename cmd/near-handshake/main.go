package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	rollcmd "github.com/dmidem/near-handshake/pkg/cmd"
	"github.com/dmidem/near-handshake/pkg/config"
)

const AppName = "near-handshake"

func main() {
	rootCmd := &cobra.Command{
		Use:   AppName,
		Short: "Perform the NEAR peer handshake with a node",
		Long: `Connect to a NEAR node and perform the peer handshake without joining the network.
If the --home flag is not specified, the configuration file is looked up in "~/.near-handshake".`,
		SilenceUsage: true,
	}

	config.AddGlobalFlags(rootCmd, AppName)

	rootCmd.AddCommand(
		rollcmd.NewHandshakeCmd(),
		rollcmd.VersionCmd,
	)

	if err := rootCmd.Execute(); err != nil {
		// Print to stderr and exit with error
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
