package main

import (
	"log"

	"github.com/spf13/cobra"
	fedpeer "github.com/yahyaAbdulSattar/major-project"
	"github.com/yahyaAbdulSattar/major-project/cli"
	"github.com/yahyaAbdulSattar/major-project/pkg/sdk"
)

var (
	nodeURL         = "http://localhost:7070"
	tlsVerification = false
	configFile      = ""
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fedpeer-cli",
		Short: "Fedpeer CLI",
		Long:  `Fedpeer CLI is a command line interface for driving a federated learning node.`,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if configFile != "" {
				cfg, err := fedpeer.LoadConfig(configFile)
				if err != nil {
					return err
				}
				cli.SetDefaultParticipants(cfg.Node.Participants)
			}

			sdkConf := sdk.Config{
				NodeURL:         nodeURL,
				TLSVerification: tlsVerification,
			}
			cli.SetSDK(sdk.NewSDK(sdkConf))

			return nil
		},
	}

	rootCmd.AddCommand(cli.NewRoundsCmd())
	rootCmd.AddCommand(cli.NewStatusCmd())
	rootCmd.AddCommand(cli.NewModelCmd())
	rootCmd.AddCommand(cli.NewDataCmd())
	rootCmd.AddCommand(cli.NewPeersCmd())

	rootCmd.PersistentFlags().StringVarP(
		&nodeURL,
		"node-url",
		"u",
		nodeURL,
		"Node HTTP API URL",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&tlsVerification,
		"tls-verification",
		"T",
		tlsVerification,
		"Verify the node TLS certificate",
	)

	rootCmd.PersistentFlags().StringVarP(
		&configFile,
		"config",
		"c",
		configFile,
		"Node config file (TOML) providing default participants",
	)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
