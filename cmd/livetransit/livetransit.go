package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/travigo/livetransit/pkg/api"
	"github.com/travigo/livetransit/pkg/api/routes"
	"github.com/travigo/livetransit/pkg/dataimporter"
	"github.com/urfave/cli/v2"

	_ "time/tzdata"
)

var version = "dev"

func main() {
	// A missing .env file is fine, the environment may already be set
	envErr := godotenv.Load()

	if os.Getenv("TRAVIGO_LOG_FORMAT") != "JSON" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	if os.Getenv("TRAVIGO_DEBUG") == "YES" {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	} else {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	if envErr != nil && !os.IsNotExist(envErr) {
		log.Warn().Err(envErr).Msg("Failed to read .env file")
	}

	routes.Version = version

	app := &cli.App{
		Name:        "livetransit",
		Description: "Live GTFS ingestion and vehicle matched route planning",
		Version:     version,

		Commands: []*cli.Command{
			api.RegisterCLI(),
			dataimporter.RegisterCLI(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal().Err(err).Send()
	}
}
