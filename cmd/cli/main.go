package main

import (
	"errors"
	"io/fs"
	"log"

	"github.com/absmach/fedcoord"
	"github.com/absmach/fedcoord/cli"
	"github.com/absmach/fedcoord/pkg/sdk"
	"github.com/spf13/cobra"
)

func main() {
	var (
		configPath      = fedcoord.DefConfigPath
		coordinatorURL  string
		tlsVerification bool
	)

	rootCmd := &cobra.Command{
		Use:   "fedcoord-cli",
		Short: "Federated learning coordinator CLI",
		Long:  `fedcoord-cli is a command line interface for the federated learning coordinator.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := fedcoord.LoadConfig(configPath)
			switch {
			case errors.Is(err, fs.ErrNotExist):
				cfg = fedcoord.DefaultConfig()
			case err != nil:
				return err
			}
			if cmd.Flags().Changed("coordinator-url") {
				cfg.Coordinator.URL = coordinatorURL
			}
			if cmd.Flags().Changed("tls-verification") {
				cfg.Coordinator.TLSVerification = tlsVerification
			}

			cli.SetSDK(sdk.NewSDK(sdk.Config{
				CoordinatorURL:  cfg.Coordinator.URL,
				TLSVerification: cfg.Coordinator.TLSVerification,
			}))

			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", configPath, "Config file path")
	rootCmd.PersistentFlags().StringVarP(&coordinatorURL, "coordinator-url", "u", fedcoord.DefCoordinatorURL, "Coordinator URL")
	rootCmd.PersistentFlags().BoolVarP(&tlsVerification, "tls-verification", "t", fedcoord.DefTLSVerification, "Verify TLS certificates")

	rootCmd.AddCommand(cli.NewNodesCmd())
	rootCmd.AddCommand(cli.NewRoundsCmd())
	rootCmd.AddCommand(cli.NewStatusCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
