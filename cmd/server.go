package cmd

import (
	"github.com/spf13/cobra"

	"call-insights/config"
	server2 "call-insights/server"
)

func server(config *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "start http server and queue consumers",
		Run: func(cmd *cobra.Command, args []string) {
			server2.RunHttp(config)
		},
	}
}
