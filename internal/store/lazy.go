package store

import (
	"context"
	"sync"

	"vodnote/internal/config"
	"vodnote/internal/note"
)

// Lazy owns the cached store handle. The database opens on first use and
// the handle is reused by all callers; Invalidate closes and drops the
// cache so the next Get reopens cleanly (for example after the runtime
// signals the handle was invalidated by a schema change elsewhere).
type Lazy struct {
	cfg *config.Config

	mu    sync.Mutex
	store *Store
}

// NewLazy wraps a config in a lazily-opened store handle.
func NewLazy(cfg *config.Config) *Lazy {
	return &Lazy{cfg: cfg}
}

// Get returns the cached store, opening it on first use. Open failures are
// not cached; the next Get retries. Errors carry ErrUnavailable.
func (l *Lazy) Get() (*Store, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.store != nil {
		return l.store, nil
	}
	store, err := Open(l.cfg)
	if err != nil {
		return nil, err
	}
	l.store = store
	return l.store, nil
}

// Upsert writes through the cached handle, opening it on first use. This
// lets the lazy handle serve directly as the autosave write target.
func (l *Lazy) Upsert(ctx context.Context, candidate note.Session) (*note.Session, error) {
	store, err := l.Get()
	if err != nil {
		return nil, err
	}
	return store.Upsert(ctx, candidate)
}

// Invalidate closes and drops the cached handle.
func (l *Lazy) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.store != nil {
		_ = l.store.Close()
		l.store = nil
	}
}

// Close releases the cached handle if one was opened.
func (l *Lazy) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.store == nil {
		return nil
	}
	err := l.store.Close()
	l.store = nil
	return err
}
