package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arbvault/arbctl/config"
	"github.com/arbvault/arbctl/utils"
)

var (
	initRPC      string
	initContract string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	Run: func(cmd *cobra.Command, args []string) {
		log := utils.GetLogger()

		cfg := config.DefaultConfig()
		cfg.RPCEndpoint = initRPC
		cfg.ContractAddress = initContract

		if err := config.SaveConfig(cfg, cfgFile); err != nil {
			log.Fatal("Failed to write config", zap.Error(err))
		}

		target := cfgFile
		if target == "" {
			target = "~/.arbctl.json"
		}
		fmt.Printf("wrote %s\n", target)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVar(&initRPC, "rpc", "", "RPC endpoint to record")
	initCmd.Flags().StringVar(&initContract, "contract", "", "deployed contract address to record")
	initCmd.MarkFlagRequired("rpc")
	initCmd.MarkFlagRequired("contract")
}
