// Package config loads, validates, and defaults the TOML configuration for
// vodnote. Configuration resolves from an explicit --config path or
// ~/.config/vodnote/config.toml, falling back to defaults when no file
// exists.
package config
