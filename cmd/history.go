package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arbvault/arbctl/history"
	"github.com/arbvault/arbctl/utils"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the local transaction history",
	Run: func(cmd *cobra.Command, args []string) {
		log := utils.GetLogger()

		cfg, _, err := loadConfig()
		if err != nil {
			log.Fatal("Failed to load config", zap.Error(err))
		}

		store, err := history.NewStore(cfg.HistoryPath, log)
		if err != nil {
			log.Fatal("Failed to open history", zap.Error(err))
		}

		records, err := store.Load()
		if err != nil {
			log.Fatal("Failed to load history", zap.Error(err))
		}
		if historyLimit > 0 && len(records) > historyLimit {
			records = records[:historyLimit]
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tKIND\tASSET\tAMOUNT\tSTATUS\tTX\tTIME")
		for _, r := range records {
			ts := time.UnixMilli(r.CreatedAt).Format(time.RFC3339)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				r.ID, r.Kind, r.Asset, r.Amount, r.Status, shortHash(r.TxHash), ts)
		}
		w.Flush()
	},
}

func shortHash(hash string) string {
	if len(hash) <= 14 {
		return hash
	}
	return hash[:10] + "…" + hash[len(hash)-4:]
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "show only the most recent N records")
}
