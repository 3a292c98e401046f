// Package config defines service configuration structures and loading hooks.
package config

import "runtime"

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory activity queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of valuation workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize caps the activity-id deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// CatalogBaseURL and CatalogAPIKey configure the music catalog client.
	CatalogBaseURL string `koanf:"catalog_base_url"`
	CatalogAPIKey  string `koanf:"catalog_api_key"`

	// SocialBaseURL and SocialAPIKey configure the social graph client.
	SocialBaseURL string `koanf:"social_base_url"`
	SocialAPIKey  string `koanf:"social_api_key"`

	// ActionPoints overrides the default point value per action kind.
	ActionPoints map[string]int `koanf:"action_points"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":8080",
		QueueSize:           100_000,
		WorkerCount:         runtime.NumCPU() * 4,
		DedupeSize:          500_000,
		MaxLeaderboardLimit: 100,
	}
}
