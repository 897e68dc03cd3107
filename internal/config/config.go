package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Env  string
	Port string

	DatabasePath string

	RedisURL  string
	RedisPass string
	RedisDB   int

	JWTSecret string

	// StartingBalance is credited to every new account.
	StartingBalance int
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:             getEnv("APP_ENV", "development"),
		Port:            getEnv("PORT", "8080"),
		DatabasePath:    getEnv("DATABASE_PATH", "betman.db"),
		RedisURL:        getEnv("REDIS_URL", "localhost:6379"),
		RedisPass:       getEnv("REDIS_PASSWORD", ""),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		StartingBalance: 1000,
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	db, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %v", err)
	}
	cfg.RedisDB = db

	if sb := os.Getenv("STARTING_BALANCE"); sb != "" {
		v, err := strconv.Atoi(sb)
		if err != nil {
			return nil, fmt.Errorf("invalid STARTING_BALANCE: %v", err)
		}
		cfg.StartingBalance = v
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
