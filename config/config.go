package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Load reads a .env file if one is present. Missing files are fine; real
// environment variables always win.
func Load() {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}
}

// Get returns the environment variable value or the default.
func Get(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// GetInt returns the environment variable parsed as int or the default.
func GetInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Printf("Invalid integer for %s: %q, using default %d", key, value, defaultValue)
	}
	return defaultValue
}

// GetBool returns the environment variable parsed as bool or the default.
func GetBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
