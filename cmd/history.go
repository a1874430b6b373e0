package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/newsward/osint-core/internal/store"
)

var (
	historyTarget string
	historyLimit  int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent lookup history records",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initCore(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		records, err := env.History.List(cmd.Context(), store.HistoryFilter{
			Target: historyTarget,
			Limit:  historyLimit,
		})
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(records), "encode history")
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyTarget, "target", "", "filter by target")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "max records")
	rootCmd.AddCommand(historyCmd)
}
