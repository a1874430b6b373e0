package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List configured providers and their capabilities",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initCore(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		for _, id := range env.Registry.List() {
			d := env.Registry.Get(id).Descriptor()
			kinds := make([]string, 0, len(d.Capabilities))
			for _, k := range d.Capabilities {
				kinds = append(kinds, string(k))
			}
			enabled := "disabled"
			if d.EnabledByDefault {
				enabled = "enabled"
			}
			fmt.Printf("%-12s %-9s timeout=%-6s kinds=%s\n", d.ID, enabled, d.Timeout, strings.Join(kinds, ","))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(providersCmd)
}
