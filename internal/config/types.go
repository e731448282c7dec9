package config

import "time"

// Config holds all configuration for the application.
type Config struct {
	DBName   string `koanf:"db_name"`
	Port     string `koanf:"port"`
	Timezone string `koanf:"timezone"`

	Slack     SlackConfig     `koanf:",squash"`
	Turso     TursoConfig     `koanf:",squash"`
	Challenge ChallengeConfig `koanf:",squash"`
	RateLimit RateLimitConfig `koanf:",squash"`

	ProjectID string `koanf:"gcp_project"`
}

type SlackConfig struct {
	Token         string `koanf:"slack_token"`
	ChannelID     string `koanf:"slack_channel_id"`
	SigningSecret string `koanf:"slack_signing_secret"`
}

type TursoConfig struct {
	PrimaryURL string `koanf:"turso_primary_url"`
	AuthToken  string `koanf:"turso_auth_token"`
}

type ChallengeConfig struct {
	TTLHours int `koanf:"challenge_ttl_hours"`
}

// TTL is how long a challenge may stay unanswered.
func (c ChallengeConfig) TTL() time.Duration {
	return time.Duration(c.TTLHours) * time.Hour
}

type RateLimitConfig struct {
	PerSecond float64 `koanf:"rate_limit_per_second"`
	Burst     int     `koanf:"rate_limit_burst"`
}
