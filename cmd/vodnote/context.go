package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"vodnote/internal/autosave"
	"vodnote/internal/bootstrap"
	"vodnote/internal/config"
	"vodnote/internal/logging"
	"vodnote/internal/note"
	"vodnote/internal/player"
	"vodnote/internal/store"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	storeOnce sync.Once
	store     *store.Lazy

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// lazyStore returns the process-wide cached store handle. The database only
// opens when a command actually touches it.
func (c *commandContext) lazyStore() *store.Lazy {
	c.storeOnce.Do(func() {
		c.store = store.NewLazy(c.configValue())
	})
	return c.store
}

func (c *commandContext) newLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg := c.configValue()
		if cfg == nil {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger
}

// newReconciler builds a reconciler writing through the cached store
// handle, with the configured debounce and grace windows.
func (c *commandContext) newReconciler() *autosave.Reconciler {
	cfg := c.configValue()
	return autosave.New(c.lazyStore(), c.newLogger(), autosave.Options{
		Debounce: cfg.AutosaveDebounce(),
		Grace:    cfg.RestoreGrace(),
	})
}

// controller dials mpv when a socket is configured, falling back to the
// no-op controller. The returned cleanup is always safe to call.
func (c *commandContext) controller() (player.Controller, func()) {
	cfg := c.configValue()
	if cfg == nil || cfg.Player.MpvSocket == "" {
		return player.Null{}, func() {}
	}
	mpv, err := player.DialMpv(cfg.Player.MpvSocket)
	if err != nil {
		c.newLogger().Warn("mpv socket not reachable, playback control disabled", "socket", cfg.Player.MpvSocket, "error", err)
		return player.Null{}, func() {}
	}
	return mpv, func() { _ = mpv.Close() }
}

// newBootstrap assembles the open/claim flow around a fresh reconciler.
// Callers own closing both.
func (c *commandContext) newBootstrap(controller player.Controller) (*bootstrap.Bootstrap, *autosave.Reconciler) {
	rec := c.newReconciler()
	boot := bootstrap.New(c.configValue(), c.lazyStore(), rec, nil, controller, c.newLogger())
	return boot, rec
}

// currentSession resolves the remembered session pointer to its record.
func (c *commandContext) currentSession(ctx context.Context) (*note.Session, error) {
	cfg := c.configValue()
	id, ok := bootstrap.LoadPointer(cfg.PointerPath())
	if !ok {
		return nil, errors.New("no current session; run `vodnote open <url>` first")
	}
	st, err := c.lazyStore().Get()
	if err != nil {
		return nil, err
	}
	session, err := st.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fmt.Errorf("remembered session %s no longer exists; run `vodnote open <url>`", shortID(id))
	}
	return session, nil
}

// resolveSession finds a session by id prefix, or the current session when
// arg is empty.
func (c *commandContext) resolveSession(ctx context.Context, arg string) (*note.Session, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return c.currentSession(ctx)
	}
	st, err := c.lazyStore().Get()
	if err != nil {
		return nil, err
	}
	sessions, err := st.List(ctx)
	if err != nil {
		return nil, err
	}
	var match *note.Session
	for _, session := range sessions {
		if strings.HasPrefix(session.ID, arg) {
			if match != nil {
				return nil, fmt.Errorf("session id %q is ambiguous", arg)
			}
			match = session
		}
	}
	if match == nil {
		return nil, fmt.Errorf("no session matches %q", arg)
	}
	return match, nil
}

// mutateSession routes a note-list mutation through the reconciler with a
// forced flush, so single-shot commands share the autosave write path.
func (c *commandContext) mutateSession(ctx context.Context, session *note.Session, mutate func(notes []note.Note) ([]note.Note, error)) (*note.Session, error) {
	next, err := mutate(note.CloneNotes(session.Notes))
	if err != nil {
		return nil, err
	}

	rec := c.newReconciler()
	defer rec.Close()
	rec.BindVideo(&session.Video)
	rec.BindSession(session)
	rec.NotesChanged(next)
	if err := rec.FlushNow(ctx); err != nil {
		return nil, err
	}
	saved := rec.Session()
	if saved == nil {
		return nil, errors.New("session was not saved")
	}
	return saved, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
