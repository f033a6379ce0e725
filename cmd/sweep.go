package cmd

import (
	"github.com/spf13/cobra"

	"call-insights/config"
	"call-insights/pkg/rabbitmq"
	"call-insights/repository"
	server2 "call-insights/server"
	"call-insights/service"
)

// sweep re-enqueues processing jobs for call records whose ingestion-time
// enqueue was lost. Run it from a periodic job or by hand; it is not
// scheduled automatically.
func sweep(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "re-enqueue processing jobs for unprocessed call records",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := server2.NewLoggerContext(cfg.App.Environment)

			conn, err := config.NewRabbitMQConn(ctx, cfg.Queue)
			if err != nil {
				return err
			}
			defer conn.Close()

			repo, err := repository.NewRepo(cfg.DB)
			if err != nil {
				return err
			}

			sweeper := service.NewSweeper(repo, rabbitmq.NewPublisher(conn, cfg.Queue))
			count, err := sweeper.SweepPending(ctx)
			if err != nil {
				return err
			}

			cmd.Printf("re-enqueued %d pending call records\n", count)
			return nil
		},
	}
}
