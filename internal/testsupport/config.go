// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"vodnote/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test
// and short timing windows so debounce-sensitive tests run quickly.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Session.AutosaveDebounceMs = 40
	cfg.Session.RestoreGraceMs = 30
	cfg.Session.URLSyncDebounceMs = 30
	cfg.Player.FreshSeekDelayMs = 10
	cfg.Player.RebindSeekDelayMs = 20

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithMaxSessions overrides the session capacity on the test config.
func WithMaxSessions(capacity int) ConfigOption {
	return func(c *config.Config) {
		c.Session.MaxSessions = capacity
	}
}
