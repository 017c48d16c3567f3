package cmd

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long:  `Applies every pending goose migration to the configured database.`,
	Run: func(cmd *cobra.Command, args []string) {
		commonSetUp()
		defer catsDB.Close()

		log.Info().Msg("Running migrations...")
		if err := catsDB.Migrate(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}

		log.Info().Msg("Migrations complete")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
