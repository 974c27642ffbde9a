package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateSession(); err != nil {
		return err
	}
	if err := c.validateShare(); err != nil {
		return err
	}
	if err := c.validatePlayer(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateSession() error {
	if c.Session.MaxSessions < 1 {
		return errors.New("session.max_sessions must be at least 1")
	}
	return ensureNonNegative(map[string]int{
		"session.autosave_debounce_ms": c.Session.AutosaveDebounceMs,
		"session.restore_grace_ms":     c.Session.RestoreGraceMs,
		"session.url_sync_debounce_ms": c.Session.URLSyncDebounceMs,
	})
}

func (c *Config) validateShare() error {
	base := strings.TrimSpace(c.Share.BaseURL)
	if base == "" {
		return errors.New("share.base_url must be set")
	}
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("share.base_url %q must be an absolute URL", base)
	}
	return nil
}

func (c *Config) validatePlayer() error {
	return ensureNonNegative(map[string]int{
		"player.fresh_seek_delay_ms":  c.Player.FreshSeekDelayMs,
		"player.rebind_seek_delay_ms": c.Player.RebindSeekDelayMs,
	})
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q must be console or json", c.Logging.Format)
	}
	return nil
}

func ensureNonNegative(values map[string]int) error {
	for key, value := range values {
		if value < 0 {
			return fmt.Errorf("%s must not be negative", key)
		}
	}
	return nil
}
