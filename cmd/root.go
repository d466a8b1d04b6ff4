package cmd

import (
	"context"

	"github.com/arbvault/arbctl/utils"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "arbctl",
	Short: "A CLI client for a deployed flash-loan arbitrage contract",
	Long: `A CLI client for a deployed flash-loan arbitrage contract: submits
flash-loan requests and withdrawals, decodes the events each receipt
emits and keeps a local transaction history.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.arbctl.json)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func initConfig() {
	utils.InitLogger(debug)
}
