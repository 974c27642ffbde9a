package config

const (
	defaultDataDir            = "~/.local/share/vodnote"
	defaultLogDir             = "~/.local/share/vodnote/logs"
	defaultMaxSessions        = 6
	defaultAutosaveDebounceMs = 700
	defaultRestoreGraceMs     = 350
	defaultURLSyncDebounceMs  = 500
	defaultShareBaseURL       = "https://vodding.app/"
	defaultFreshSeekDelayMs   = 300
	defaultRebindSeekDelayMs  = 500
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Session: Session{
			MaxSessions:        defaultMaxSessions,
			AutosaveDebounceMs: defaultAutosaveDebounceMs,
			RestoreGraceMs:     defaultRestoreGraceMs,
			URLSyncDebounceMs:  defaultURLSyncDebounceMs,
		},
		Share: Share{
			BaseURL: defaultShareBaseURL,
		},
		Player: Player{
			FreshSeekDelayMs:  defaultFreshSeekDelayMs,
			RebindSeekDelayMs: defaultRebindSeekDelayMs,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
