// Package config reads server settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds everything the binary needs at startup.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string
	// DataDir is where the badger store keeps its files.
	DataDir string
}

// Load reads the configuration. A missing .env file is fine; the process
// environment still applies.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Println("loaded environment from .env")
	}
	return Config{
		Addr:    getenv("DEATHPOINT_ADDR", ":8080"),
		DataDir: getenv("DEATHPOINT_DATA_DIR", "data"),
	}
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
