package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/newsward/osint-core/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Tokens stay out of the dump.
		printable := *cfg
		printable.Providers = make(map[string]config.ProviderConfig, len(cfg.Providers))
		for id, p := range cfg.Providers {
			if p.Token != "" {
				p.Token = "<redacted>"
			}
			printable.Providers[id] = p
		}

		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close() //nolint:errcheck
		return eris.Wrap(enc.Encode(printable), "encode config")
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
