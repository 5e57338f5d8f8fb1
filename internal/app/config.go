package app

import (
	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-api/internal/config"
)

// ReadConfig loads the configuration from the environment and an
// optional .env file in the working directory.
func ReadConfig(logger zerolog.Logger) (*config.Config, error) {
	cfg, err := config.NewEnvReader().Read()
	if err != nil {
		logger.Error().
			Err(err).
			Msg("failed to read env")
		return nil, err
	}
	logger.Info().
		Str("env", cfg.Env).
		Str("storage_driver", cfg.Storage.Driver).
		Msg("read env")

	return cfg, nil
}
