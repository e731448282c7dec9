package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "SABO_"

// Defaults returns the configuration used when nothing overrides it.
func Defaults() Config {
	return Config{
		DBName:    "sabo.db",
		Port:      "8080",
		Timezone:  "Asia/Ho_Chi_Minh",
		Challenge: ChallengeConfig{TTLHours: 72},
		RateLimit: RateLimitConfig{PerSecond: 5, Burst: 10},
	}
}

// Load builds a Config by layering, from low to high precedence:
//  1. Defaults()
//  2. the YAML file named by SABO_CONFIG, if set
//  3. environment variables prefixed with SABO_ (a .env file is read first)
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, reading from environment variables")
	}

	k := koanf.New(".")

	if path := os.Getenv(envPrefix + "CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// SABO_SLACK_TOKEN -> slack_token
	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg := Defaults()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	switch {
	case c.DBName == "":
		return errors.New("db_name must not be empty")
	case c.Port == "":
		return errors.New("port must not be empty")
	case c.Challenge.TTLHours <= 0:
		return errors.New("challenge_ttl_hours must be positive")
	case c.RateLimit.PerSecond <= 0 || c.RateLimit.Burst <= 0:
		return errors.New("rate limit must be positive")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// Location returns the club's time zone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
