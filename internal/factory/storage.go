package factory

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/calltide/outreach-server/internal/config"
	storepkg "github.com/calltide/outreach-server/internal/store"
	storemem "github.com/calltide/outreach-server/internal/store/memory"
	storepg "github.com/calltide/outreach-server/internal/store/postgres"
	storesqlite "github.com/calltide/outreach-server/internal/store/sqlite"
)

// NewStore returns a store.Store for the configured driver.
// Postgres and sqlite ensure their schema on construction.
func NewStore(cfg *config.Config, log zerolog.Logger) (storepkg.Store, error) {
	switch cfg.DBDriver {
	case "postgres":
		db, err := storepg.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		s, err := storepg.NewWithDB(db)
		if err != nil {
			return nil, err
		}
		log.Info().Str("driver", "postgres").Msg("store ready")
		return s, nil
	case "sqlite":
		s, err := storesqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Info().Str("driver", "sqlite").Str("path", cfg.SQLitePath).Msg("store ready")
		return s, nil
	case "memory":
		log.Info().Str("driver", "memory").Msg("store ready")
		return storemem.New(), nil
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}
}
