package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/calltide/outreach-server/outreachservice"
)

func main() {
	// Local development convenience; variables already set win.
	_ = godotenv.Load()

	if err := outreachservice.Run(); err != nil {
		log.Error().Err(err).Msg("outreach service exit")
		os.Exit(1)
	}
}
