package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/newsward/osint-core/internal/model"
)

var (
	lookupKind      string
	lookupProviders []string
	lookupMax       int
	lookupSince     string
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <target>",
	Short: "Run one aggregation query across the enabled providers",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		kind, err := model.ParseQueryKind(lookupKind)
		if err != nil {
			return err
		}

		query := model.Query{
			Target: args[0],
			Kind:   kind,
			Filters: model.Filters{
				MaxResults: lookupMax,
			},
		}
		if lookupSince != "" {
			since, err := time.Parse("2006-01-02", lookupSince)
			if err != nil {
				return eris.Wrap(err, "parse --since")
			}
			query.Filters.Since = &since
		}

		env, err := initCore(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		sess := env.Service.NewSession()
		go func() {
			<-ctx.Done()
			sess.Cancel()
		}()

		result, err := sess.Run(ctx, query, lookupProviders)
		if err != nil {
			return err
		}

		zap.L().Info("lookup complete",
			zap.String("target", query.Target),
			zap.Int("total_items", result.Aggregation.TotalItems),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(result), "encode result")
	},
}

func init() {
	lookupCmd.Flags().StringVarP(&lookupKind, "kind", "k", "keyword", "query kind (keyword, username, hashtag, full_name, domain, email, url)")
	lookupCmd.Flags().StringSliceVarP(&lookupProviders, "providers", "p", nil, "provider IDs to query (default: all enabled)")
	lookupCmd.Flags().IntVar(&lookupMax, "max", 0, "max results per provider (default from config)")
	lookupCmd.Flags().StringVar(&lookupSince, "since", "", "only results published after this date (YYYY-MM-DD)")
	rootCmd.AddCommand(lookupCmd)
}
