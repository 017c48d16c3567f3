package cmd

import (
	"github.com/kittygram/kittygram-api/db"
	"github.com/kittygram/kittygram-api/internal/appconfig"
	"github.com/rs/zerolog/log"
)

var (
	appCfg *appconfig.Config
	catsDB *db.CatsDB
)

// loadConfig sets up logging and reads the config file.
func loadConfig() {
	setLogging(logLevel)

	var err error
	appCfg, err = appconfig.LoadConfig(configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", configPath).Msg("failed to load config")
	}
}

// commonSetUp loads the config and connects to the database.
func commonSetUp() {
	loadConfig()

	var err error
	catsDB, err = db.NewCatsDB(appCfg.Database.Driver, appCfg.Database.Source, &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize CatsDB")
	}
}
