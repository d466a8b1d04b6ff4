package cmd

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arbvault/arbctl/lifecycle"
	"github.com/arbvault/arbctl/utils"
)

var (
	withdrawToken string
	withdrawETH   bool
)

var withdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Withdraw the contract's full token or ETH balance",
	Run: func(cmd *cobra.Command, args []string) {
		log := utils.GetLogger()

		if withdrawETH == (withdrawToken != "") {
			log.Fatal("Specify exactly one of --eth or --token")
		}

		app, err := connect(cmd.Context())
		if err != nil {
			log.Fatal("Failed to connect", zap.Error(err))
		}
		defer app.Close()

		req := lifecycle.WithdrawalRequest{Native: withdrawETH}
		if !withdrawETH {
			var token common.Address
			token, err = app.table.Resolve(withdrawToken)
			if err != nil {
				log.Fatal("Invalid token", zap.Error(err))
			}
			req.Token = token
		}

		rec, err := app.manager.SubmitWithdrawal(cmd.Context(), req)
		if err != nil {
			var callErr *lifecycle.CallError
			if errors.As(err, &callErr) && rec != nil {
				fmt.Printf("confirmation wait failed, %s left pending (tx %s): %v\n",
					rec.ID, rec.TxHash, callErr.Err)
				return
			}
			log.Fatal("Withdrawal failed", zap.Error(err))
		}

		fmt.Printf("%s  %s  %s  %s\n", rec.ID, rec.Status, rec.Asset, rec.TxHash)
	},
}

func init() {
	rootCmd.AddCommand(withdrawCmd)
	withdrawCmd.Flags().StringVar(&withdrawToken, "token", "", "token to withdraw (symbol or address)")
	withdrawCmd.Flags().BoolVar(&withdrawETH, "eth", false, "withdraw the native balance")
}
