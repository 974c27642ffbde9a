package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Session contains persistence and autosave timing configuration.
type Session struct {
	// MaxSessions bounds the durable store; exceeding it evicts the
	// least-recently-updated session.
	MaxSessions        int `toml:"max_sessions"`
	AutosaveDebounceMs int `toml:"autosave_debounce_ms"`
	RestoreGraceMs     int `toml:"restore_grace_ms"`
	URLSyncDebounceMs  int `toml:"url_sync_debounce_ms"`
}

// Share contains share link construction settings.
type Share struct {
	// BaseURL is the origin+path share links are built on.
	BaseURL string `toml:"base_url"`
}

// Player contains playback controller settings.
type Player struct {
	// MpvSocket is the path to mpv's JSON IPC socket (mpv --input-ipc-server).
	// Empty disables playback control.
	MpvSocket string `toml:"mpv_socket"`
	// Deep-link seek delays: fresh video bindings need longer for playback
	// to initialize than a rebind of the already-bound video.
	FreshSeekDelayMs  int `toml:"fresh_seek_delay_ms"`
	RebindSeekDelayMs int `toml:"rebind_seek_delay_ms"`
}

// Logging contains log output configuration.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Clipboard contains the clipboard-write capability configuration.
type Clipboard struct {
	// Command overrides clipboard tool detection (e.g. "wl-copy").
	Command string `toml:"command"`
}

// Config encapsulates all configuration values for vodnote.
type Config struct {
	Paths     Paths     `toml:"paths"`
	Session   Session   `toml:"session"`
	Share     Share     `toml:"share"`
	Player    Player    `toml:"player"`
	Logging   Logging   `toml:"logging"`
	Clipboard Clipboard `toml:"clipboard"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/vodnote/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded. It reports the resolved path and
// whether a file existed there; a missing file yields defaults.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = ExpandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("expand data_dir: %w", err)
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("expand log_dir: %w", err)
	}
	if c.Player.MpvSocket != "" {
		if c.Player.MpvSocket, err = ExpandPath(c.Player.MpvSocket); err != nil {
			return fmt.Errorf("expand mpv_socket: %w", err)
		}
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}

// EnsureDirectories creates the directories vodnote needs to operate.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the location of the session database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "sessions.db")
}

// PointerPath returns the location of the current-session pointer file.
func (c *Config) PointerPath() string {
	return filepath.Join(c.Paths.DataDir, "current_session")
}

// LockPath returns the location of the data-dir lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "vodnote.lock")
}

// AutosaveDebounce returns the autosave debounce window.
func (c *Config) AutosaveDebounce() time.Duration {
	return time.Duration(c.Session.AutosaveDebounceMs) * time.Millisecond
}

// RestoreGrace returns the post-restore suppression window.
func (c *Config) RestoreGrace() time.Duration {
	return time.Duration(c.Session.RestoreGraceMs) * time.Millisecond
}

// URLSyncDebounce returns the share-link mirror debounce window.
func (c *Config) URLSyncDebounce() time.Duration {
	return time.Duration(c.Session.URLSyncDebounceMs) * time.Millisecond
}

// FreshSeekDelay returns the deep-link seek delay after a fresh video bind.
func (c *Config) FreshSeekDelay() time.Duration {
	return time.Duration(c.Player.FreshSeekDelayMs) * time.Millisecond
}

// RebindSeekDelay returns the deep-link seek delay after a no-op rebind.
func (c *Config) RebindSeekDelay() time.Duration {
	return time.Duration(c.Player.RebindSeekDelayMs) * time.Millisecond
}

// CreateSample writes the embedded sample configuration to the target path.
func CreateSample(path string) error {
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// ExpandPath resolves a leading ~ to the user's home directory and returns
// an absolute path.
func ExpandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path: %w", err)
	}
	return abs, nil
}
