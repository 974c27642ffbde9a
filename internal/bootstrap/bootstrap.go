// Package bootstrap decides which session the application binds when a
// video URL or share link is opened.
//
// The store is authoritative for a continuing local session: when the
// remembered session resolves and matches the opened video, its notes win
// over anything encoded in the link. Shared links stay ephemeral and
// read-only until claimed.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"vodnote/internal/autosave"
	"vodnote/internal/config"
	"vodnote/internal/note"
	"vodnote/internal/player"
	"vodnote/internal/sharelink"
	"vodnote/internal/store"
	"vodnote/internal/urlsync"
	"vodnote/internal/videourl"
)

// Result describes the session state bound by Open.
type Result struct {
	Video    note.Video
	Notes    []note.Note
	Session  *note.Session
	Shared   bool
	Restored bool
	// SeekTo is the deep-link seek position scheduled after binding, nil
	// when none applies.
	SeekTo *float64
}

// Bootstrap wires the store, the reconciler, the url-sync mirror, and the
// player into the open/claim decision flow.
type Bootstrap struct {
	cfg        *config.Config
	store      *store.Lazy
	reconciler *autosave.Reconciler
	syncer     *urlsync.Syncer
	controller player.Controller
	logger     *slog.Logger

	mu          sync.Mutex
	seekTimer   *time.Timer
	storeWarned bool
}

// New assembles a Bootstrap. syncer and controller may be nil when url
// mirroring or playback control are not wired; a nil logger discards log
// output.
func New(cfg *config.Config, lazy *store.Lazy, reconciler *autosave.Reconciler, syncer *urlsync.Syncer, controller player.Controller, logger *slog.Logger) *Bootstrap {
	if controller == nil {
		controller = player.Null{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Bootstrap{
		cfg:        cfg,
		store:      lazy,
		reconciler: reconciler,
		syncer:     syncer,
		controller: controller,
		logger:     logger,
	}
}

// Open binds the video or share link in raw. Plain video URLs and share
// links are both accepted; anything that does not resolve to a playable
// video fails with videourl.ErrInvalid and binds nothing.
func (b *Bootstrap) Open(ctx context.Context, raw string) (*Result, error) {
	params := sharelink.Parse(raw)
	videoRaw := params.VideoURL
	if videoRaw == "" {
		videoRaw = raw
		params.Notes = nil
		params.Shared = false
	}

	canonical, err := videourl.Canonicalize(videoRaw)
	if err != nil {
		return nil, err
	}

	// The legacy deep link keys off the URL payload, not whatever notes end
	// up bound: exactly one decoded note with a positive timestamp.
	var seekTarget *float64
	if len(params.Notes) == 1 && params.Notes[0].Timestamp > 0 {
		target := params.Notes[0].Timestamp
		seekTarget = &target
	}

	if !params.Shared {
		if restored := b.restoreRemembered(ctx, canonical, seekTarget); restored != nil {
			return restored, nil
		}
	}

	// Fresh binding: the video comes from the URL and any decoded notes
	// are an ephemeral snapshot, never written back by the binding itself.
	video := note.NewVideo(canonical, note.UntitledName)
	notes := note.CloneNotes(params.Notes)

	b.reconciler.SetRestoring(true)
	b.reconciler.BindVideo(&video)
	b.reconciler.BindSession(nil)
	b.reconciler.SetReadOnly(params.Shared)
	b.reconciler.NotesChanged(notes)
	b.reconciler.SetRestoring(false)
	if b.syncer != nil {
		b.syncer.SetReadOnly(params.Shared)
		b.syncer.VideoChanged(canonical)
		b.syncer.NotesChanged(notes)
	}

	result := &Result{Video: video, Notes: notes, Shared: params.Shared, SeekTo: seekTarget}
	b.scheduleDeepLinkSeek(seekTarget, b.cfg.FreshSeekDelay())
	return result, nil
}

// restoreRemembered resolves the current-session pointer against the store
// and rebinds when the remembered session plays the same video. Storage
// being unavailable degrades to a fresh ephemeral binding, reported once.
func (b *Bootstrap) restoreRemembered(ctx context.Context, canonical string, seekTarget *float64) *Result {
	id, ok := LoadPointer(b.cfg.PointerPath())
	if !ok {
		return nil
	}

	st, err := b.store.Get()
	if err != nil {
		b.warnStoreOnce(err)
		return nil
	}
	session, err := st.GetByID(ctx, id)
	if err != nil {
		b.warnStoreOnce(err)
		return nil
	}
	if session == nil || session.Video.URL != canonical {
		return nil
	}

	b.reconciler.SetRestoring(true)
	b.reconciler.BindVideo(&session.Video)
	b.reconciler.BindSession(session)
	b.reconciler.SetReadOnly(false)
	b.reconciler.NotesChanged(session.Notes)
	b.reconciler.SetRestoring(false)
	if b.syncer != nil {
		b.syncer.SetReadOnly(false)
		b.syncer.VideoChanged(session.Video.URL)
		b.syncer.NotesChanged(session.Notes)
	}

	result := &Result{
		Video:    session.Video,
		Notes:    note.CloneNotes(session.Notes),
		Session:  session,
		Restored: true,
		SeekTo:   seekTarget,
	}
	b.scheduleDeepLinkSeek(seekTarget, b.cfg.RebindSeekDelay())
	return result
}

// scheduleDeepLinkSeek arms the one-time seek. The delay gives the player
// time to load the video before the position jump; rebinds get a longer
// delay than fresh bindings.
func (b *Bootstrap) scheduleDeepLinkSeek(seekTarget *float64, delay time.Duration) {
	if seekTarget == nil {
		return
	}
	target := *seekTarget

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.seekTimer != nil {
		b.seekTimer.Stop()
	}
	b.seekTimer = time.AfterFunc(delay, func() {
		if err := b.controller.Seek(target); err != nil {
			b.logger.Warn("deep link seek failed", "seconds", target, "error", err)
		}
	})
}

// Claim converts the current read-only shared snapshot into a durable,
// writable session. This is the one background-write path whose storage
// failure reaches the caller.
func (b *Bootstrap) Claim(ctx context.Context) (*note.Session, error) {
	session, err := b.reconciler.Claim(ctx)
	if err != nil {
		return nil, fmt.Errorf("claim shared session: %w", err)
	}
	if session == nil {
		return nil, errors.New("nothing to claim: no video bound")
	}
	if b.syncer != nil {
		b.syncer.SetReadOnly(false)
		b.syncer.VideoChanged(session.Video.URL)
		b.syncer.NotesChanged(session.Notes)
	}
	if err := SavePointer(b.cfg.PointerPath(), session.ID); err != nil {
		b.logger.Warn("session pointer not saved", "error", err)
	}
	return session, nil
}

// Remember records the session as the one to restore on the next open.
func (b *Bootstrap) Remember(session *note.Session) {
	if session == nil {
		return
	}
	if err := SavePointer(b.cfg.PointerPath(), session.ID); err != nil {
		b.logger.Warn("session pointer not saved", "error", err)
	}
}

// Forget clears the remembered session pointer.
func (b *Bootstrap) Forget() {
	if err := ClearPointer(b.cfg.PointerPath()); err != nil {
		b.logger.Warn("session pointer not cleared", "error", err)
	}
}

func (b *Bootstrap) warnStoreOnce(err error) {
	b.mu.Lock()
	warned := b.storeWarned
	b.storeWarned = true
	b.mu.Unlock()
	if warned {
		return
	}
	if errors.Is(err, store.ErrUnavailable) {
		b.logger.Warn("session store unavailable, continuing without persistence", "error", err)
		return
	}
	b.logger.Warn("session restore failed", "error", err)
}

// Close cancels any scheduled deep-link seek.
func (b *Bootstrap) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.seekTimer != nil {
		b.seekTimer.Stop()
		b.seekTimer = nil
	}
}
