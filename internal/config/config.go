// Package config loads server configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr        string
	DatabaseURL string
	StaticDir   string
	// AscendingGames marks games where a lower score ranks higher
	// (timed games). Everything else is higher-is-better.
	AscendingGames map[string]bool
}

func Load() Config {
	// Missing .env is fine; deployments set real environment variables.
	_ = godotenv.Load()

	return Config{
		Addr:           ":" + getenv("PORT", "3000"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		StaticDir:      getenv("STATIC_DIR", "./public"),
		AscendingGames: parseGames(getenv("SCORES_ASC_GAMES", "demineur")),
	}
}

// LowerIsBetter is the scores.Direction for this configuration.
func (c Config) LowerIsBetter(game string) bool {
	return c.AscendingGames[game]
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseGames(list string) map[string]bool {
	out := make(map[string]bool)
	for _, name := range strings.Split(list, ",") {
		if name = strings.TrimSpace(name); name != "" {
			out[name] = true
		}
	}
	return out
}
