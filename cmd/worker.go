package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"remsort/internal/worker"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the background job worker",
	Long:  `Starts the asynq worker handling document processing and model retraining.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		appInstance, err := GetAppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		cfg := appInstance.Config

		srv := asynq.NewServer(
			asynq.RedisClientOpt{
				Addr:     cfg.Redis.Address,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			},
			asynq.Config{
				Concurrency: cfg.Worker.Concurrency,
				Queues:      cfg.Worker.Queues,
				ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
					log.WithError(err).WithField("type", task.Type()).Error("task failed")
				}),
			},
		)

		mux := asynq.NewServeMux()
		worker.RegisterHandlers(mux, worker.Deps{
			Process:  appInstance.Process,
			Feedback: appInstance.Feedback,
		})

		log.WithFields(log.Fields{
			"concurrency": cfg.Worker.Concurrency,
			"queues":      cfg.Worker.Queues,
		}).Info("starting worker")
		if err := srv.Start(mux); err != nil {
			return fmt.Errorf("failed to start worker: %w", err)
		}

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
		<-shutdown

		log.Info("shutting down worker")
		srv.Shutdown()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
