package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/kittygram/kittygram-api/internal/events"
	"github.com/kittygram/kittygram-api/models"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var consumeCmd = &cobra.Command{
	Use:   "consume",
	Short: "Log the resource events published by the API",
	Long:  `Subscribes to the events topic and writes every cat and achievement change to the log.`,
	Run: func(cmd *cobra.Command, args []string) {
		loadConfig()

		if appCfg.Pulsar.URL == "" {
			log.Fatal().Msg("pulsar url is not configured")
		}

		consumer, err := events.NewEventConsumer(appCfg.Pulsar.URL, appCfg.Pulsar.TopicProducer, appCfg.Pulsar.Subscription)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize event consumer")
		}
		defer consumer.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Info().Str("topic", appCfg.Pulsar.TopicProducer).Msg("Waiting for events...")
		err = consumer.Run(ctx, func(_ context.Context, event models.ResourceEvent) error {
			log.Info().
				Str("event_id", event.EventID.String()).
				Str("resource", event.Resource).
				Int64("resource_id", event.ResourceID).
				Str("action", event.Action).
				Str("actor", event.Actor).
				Int64("timestamp", event.Timestamp).
				Msg("resource event")
			return nil
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Event consumer stopped")
		}
	},
}

func init() {
	rootCmd.AddCommand(consumeCmd)
}
