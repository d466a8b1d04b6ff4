package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arbvault/arbctl/tokens"
	"github.com/arbvault/arbctl/utils"
	"github.com/arbvault/arbctl/wallet"
)

var (
	statusWatch bool
	statusToken string
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show connection, contract owner and balances",
	Run: func(cmd *cobra.Command, args []string) {
		log := utils.GetLogger()
		ctx := cmd.Context()

		app, err := connect(ctx)
		if err != nil {
			log.Fatal("Failed to connect", zap.Error(err))
		}
		defer app.Close()

		fmt.Printf("account:   %s\n", app.session.Address().Hex())
		fmt.Printf("chain id:  %s\n", app.session.ChainID())
		fmt.Printf("contract:  %s\n", app.client.Address().Hex())

		if balance, err := app.session.BalanceAt(ctx); err == nil {
			fmt.Printf("balance:   %s %s\n", tokens.FormatDecimal(balance, 18), tokens.NativeSymbol)
		}

		owner, err := app.client.Owner(ctx)
		if err != nil {
			log.Fatal("Failed to query contract owner", zap.Error(err))
		}
		fmt.Printf("owner:     %s\n", owner.Hex())

		if vaultBalance, err := app.client.BalanceETH(ctx); err == nil {
			fmt.Printf("vault:     %s %s\n", tokens.FormatDecimal(vaultBalance, 18), tokens.NativeSymbol)
		}

		if statusToken != "" {
			addr, err := app.table.Resolve(statusToken)
			if err != nil {
				log.Fatal("Invalid token", zap.Error(err))
			}
			balance, err := app.session.TokenBalance(ctx, addr)
			if err != nil {
				log.Fatal("Failed to query token balance", zap.Error(err))
			}

			symbol := app.table.ResolveSymbol(addr)
			decimals := app.table.Decimals(addr)
			if _, known := app.table.Lookup(addr); !known {
				// Fall back to on-chain metadata for tokens outside the
				// static table.
				if meta, err := app.session.TokenMetadata(ctx, addr); err == nil {
					symbol, decimals = meta.Symbol, meta.Decimals
				}
			}
			fmt.Printf("token:     %s %s\n", tokens.FormatDecimal(balance, decimals), symbol)
		}

		if !statusWatch {
			return
		}

		unsubscribe := app.session.Subscribe(func(ev wallet.Event) {
			fmt.Printf("! %s: chain=%d account=%s\n", ev.Type, ev.ChainID, ev.Account.Hex())
		})
		defer unsubscribe()

		fmt.Println("watching for chain changes, Ctrl-C to stop")
		app.session.Watch(ctx, app.cfg.WatchInterval)
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusWatch, "watch", false, "keep watching for chain changes")
	statusCmd.Flags().StringVar(&statusToken, "token", "", "also show the account's balance of a token (symbol or address)")
}
