package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arbvault/arbctl/lifecycle"
	"github.com/arbvault/arbctl/utils"
)

var (
	flashAsset  string
	flashAmount string
	flashTokenB string
	flashFee1   uint32
	flashFee2   uint32
)

var flashloanCmd = &cobra.Command{
	Use:   "flashloan",
	Short: "Request a flash loan and wait for confirmation",
	Run: func(cmd *cobra.Command, args []string) {
		log := utils.GetLogger()

		app, err := connect(cmd.Context())
		if err != nil {
			log.Fatal("Failed to connect", zap.Error(err))
		}
		defer app.Close()

		asset, err := app.table.Resolve(flashAsset)
		if err != nil {
			log.Fatal("Invalid asset", zap.Error(err))
		}
		tokenB, err := app.table.Resolve(flashTokenB)
		if err != nil {
			log.Fatal("Invalid counter token", zap.Error(err))
		}

		fee1, fee2 := flashFee1, flashFee2
		if fee1 == 0 {
			fee1 = app.cfg.DefaultFee1
		}
		if fee2 == 0 {
			fee2 = app.cfg.DefaultFee2
		}

		rec, err := app.manager.SubmitFlashLoan(cmd.Context(), lifecycle.FlashLoanRequest{
			Asset:  asset,
			Amount: flashAmount,
			TokenB: tokenB,
			Fee1:   fee1,
			Fee2:   fee2,
		})
		if err != nil {
			var callErr *lifecycle.CallError
			if errors.As(err, &callErr) && rec != nil {
				// Broadcast but unconfirmed; the record stays pending.
				fmt.Printf("confirmation wait failed, %s left pending (tx %s): %v\n",
					rec.ID, rec.TxHash, callErr.Err)
				return
			}
			log.Fatal("Flash loan failed", zap.Error(err))
		}

		fmt.Printf("%s  %s  %s %s  %s\n", rec.ID, rec.Status, rec.Amount, rec.Asset, rec.TxHash)
	},
}

func init() {
	rootCmd.AddCommand(flashloanCmd)
	flashloanCmd.Flags().StringVar(&flashAsset, "asset", "", "token to borrow (symbol or address)")
	flashloanCmd.Flags().StringVar(&flashAmount, "amount", "", "decimal amount to borrow")
	flashloanCmd.Flags().StringVar(&flashTokenB, "token-b", "", "counter token for the arbitrage route (symbol or address)")
	flashloanCmd.Flags().Uint32Var(&flashFee1, "fee1", 0, "first pool fee tier (hundredths of a bip)")
	flashloanCmd.Flags().Uint32Var(&flashFee2, "fee2", 0, "second pool fee tier (hundredths of a bip)")
	flashloanCmd.MarkFlagRequired("asset")
	flashloanCmd.MarkFlagRequired("amount")
	flashloanCmd.MarkFlagRequired("token-b")
}
