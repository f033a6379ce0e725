package cmd

import (
	"github.com/spf13/cobra"

	"call-insights/config"
)

func Root(config *config.Config) *cobra.Command {
	rootCmd := &cobra.Command{Use: "call-insights"}
	rootCmd.AddCommand(server(config))
	rootCmd.AddCommand(sweep(config))
	rootCmd.AddCommand(tenant(config))
	return rootCmd
}
