// Package autosave decides when and whether live note-list changes are
// flushed to the session store.
//
// The reconciler is an explicit state machine over
// {Idle, PendingFlush, Restoring, RestoringGrace} owning exactly one timer,
// so a pending flush, the restore grace window, and their cancellations can
// never race each other. Structural or content changes flush immediately
// (asynchronously, so the triggering caller never blocks); no-op changes
// still flush after a debounce window to guarantee a periodic save. While a
// session restore is in flight, and for a grace window after it completes,
// all changes only advance the diff baseline — the restore's own updates
// must not be written straight back as if they were user edits.
package autosave

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"vodnote/internal/note"
)

// State identifies the reconciler's position in its lifecycle.
type State int

const (
	// Idle: no scheduled work.
	Idle State = iota
	// PendingFlush: a flush is scheduled on the timer.
	PendingFlush
	// Restoring: a bulk restore is in flight; changes only move the baseline.
	Restoring
	// RestoringGrace: restore finished; suppression holds until the grace
	// window elapses.
	RestoringGrace
)

func (s State) String() string {
	switch s {
	case PendingFlush:
		return "pending-flush"
	case Restoring:
		return "restoring"
	case RestoringGrace:
		return "restoring-grace"
	default:
		return "idle"
	}
}

// Saver persists a session candidate. *store.Store satisfies it.
type Saver interface {
	Upsert(ctx context.Context, candidate note.Session) (*note.Session, error)
}

// Options configures reconciler timing.
type Options struct {
	// Debounce delays the periodic save taken when no structural or
	// content change was detected.
	Debounce time.Duration
	// Grace is the suppression window after a restore completes.
	Grace time.Duration
	// Immediate delays the flush scheduled for detected edits. Zero means
	// next-tick; a small value coalesces rapid successive edits into one
	// write.
	Immediate time.Duration
}

// draftMeta is the lazily-created identity for a session that has never
// been flushed, reused for the reconciler's lifetime so retries of a failed
// first flush stay one logical record.
type draftMeta struct {
	id        string
	createdAt time.Time
}

// Reconciler watches the live note list and writes through to the store.
type Reconciler struct {
	saver  Saver
	logger *slog.Logger
	opts   Options

	mu          sync.Mutex
	state       State
	timer       *time.Timer
	baseline    []note.Note
	pending     []note.Note
	readOnly    bool
	video       *note.Video
	session     *note.Session
	draft       *draftMeta
	lastSavedAt time.Time
	closed      bool
}

// New constructs a reconciler. A nil logger discards output.
func New(saver Saver, logger *slog.Logger, opts Options) *Reconciler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Reconciler{saver: saver, logger: logger, opts: opts}
}

// BindVideo rebinds the live video. The next flush writes under this
// binding.
func (r *Reconciler) BindVideo(video *note.Video) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if video == nil {
		r.video = nil
		return
	}
	v := *video
	r.video = &v
}

// BindSession rebinds the durable session, typically after a restore or a
// successful claim. Subsequent flushes merge into this record.
func (r *Reconciler) BindSession(session *note.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session == nil {
		r.session = nil
		return
	}
	s := *session
	s.Notes = note.CloneNotes(session.Notes)
	r.session = &s
}

// SetReadOnly toggles shared/read-only mode. Entering read-only cancels any
// scheduled flush; leaving it does not flush by itself (see Claim).
func (r *Reconciler) SetReadOnly(readOnly bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readOnly = readOnly
	if readOnly {
		r.stopTimerLocked()
		if r.state == PendingFlush {
			r.state = Idle
		}
	}
}

// SetRestoring enters or leaves restore suppression. Entering cancels any
// pending flush immediately. Leaving arms the grace window: the restore's
// own note-list updates land within it and must not trigger a write-back of
// data that was just read.
func (r *Reconciler) SetRestoring(restoring bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	if restoring {
		r.stopTimerLocked()
		r.state = Restoring
		return
	}
	if r.state != Restoring {
		return
	}
	r.state = RestoringGrace
	r.timer = time.AfterFunc(r.opts.Grace, r.graceElapsed)
}

func (r *Reconciler) graceElapsed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == RestoringGrace {
		r.state = Idle
		r.timer = nil
	}
}

// NotesChanged feeds the current live note list to the reconciler. In
// read-only or restore states, or with nothing bound, it only records the
// new baseline. Otherwise it classifies the delta, cancels any pending
// flush, and schedules a new one: immediately for a detected change, after
// the debounce window otherwise.
func (r *Reconciler) NotesChanged(notes []note.Note) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}

	if r.readOnly || r.state == Restoring || r.state == RestoringGrace || (r.video == nil && r.session == nil) {
		r.baseline = note.CloneNotes(notes)
		return
	}

	delta := classify(r.baseline, notes)
	r.stopTimerLocked()
	r.pending = note.CloneNotes(notes)

	delay := r.opts.Debounce
	if delta != changeNone {
		delay = r.opts.Immediate
	}
	r.state = PendingFlush
	r.timer = time.AfterFunc(delay, r.flushDue)
}

func (r *Reconciler) flushDue() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.state != PendingFlush {
		return
	}
	r.timer = nil
	if err := r.flushLocked(context.Background()); err != nil {
		// Autosave is best-effort; the next scheduled flush retries with
		// the latest state.
		r.logger.Warn("autosave flush failed", "error", err)
	}
}

// FlushNow forces any scheduled flush to run synchronously. Used by
// one-shot callers that must not exit with a write still pending.
func (r *Reconciler) FlushNow(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || r.state != PendingFlush {
		return nil
	}
	r.stopTimerLocked()
	return r.flushLocked(ctx)
}

// Claim transitions a read-only shared session into a writable one: it
// clears read-only mode and immediately flushes the current notes under the
// live binding, bypassing the debounce. Unlike background autosave, the
// caller gets the error.
func (r *Reconciler) Claim(ctx context.Context) (*note.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, nil
	}
	r.readOnly = false
	r.stopTimerLocked()
	if r.pending == nil {
		r.pending = note.CloneNotes(r.baseline)
	}
	r.state = PendingFlush
	if err := r.flushLocked(ctx); err != nil {
		return nil, err
	}
	return r.session, nil
}

// flushLocked performs the write under the held lock, so writes for one
// session are strictly ordered and the baseline only advances after the
// flush resolves.
func (r *Reconciler) flushLocked(ctx context.Context) error {
	r.state = Idle

	video := r.video
	if video == nil && r.session != nil {
		v := r.session.Video
		video = &v
	}
	if video == nil {
		// Nothing bound; abort without writing.
		return nil
	}

	var candidate note.Session
	if r.session != nil {
		candidate = *r.session
		candidate.Video = *video
	} else {
		if r.draft == nil {
			r.draft = &draftMeta{id: uuid.NewString(), createdAt: time.Now().UTC()}
		}
		candidate = note.Session{
			ID:        r.draft.id,
			CreatedAt: r.draft.createdAt,
			Video:     *video,
		}
	}
	candidate.Notes = note.CloneNotes(r.pending)
	candidate.UpdatedAt = time.Now().UTC()

	saved, err := r.saver.Upsert(ctx, candidate)

	// Advance the baseline to what was just flushed even on failure, so a
	// retried flush carries the latest state instead of re-reporting the
	// same delta.
	r.baseline = note.CloneNotes(r.pending)

	if err != nil {
		return err
	}
	r.session = saved
	r.lastSavedAt = time.Now().UTC()
	r.logger.Debug("session autosaved", "session_id", saved.ID, "video_id", saved.Video.ID, "notes", len(saved.Notes))
	return nil
}

// LastSavedAt reports when the most recent flush succeeded; zero when none
// has.
func (r *Reconciler) LastSavedAt() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastSavedAt
}

// Session returns the currently bound durable session, nil while unsaved.
func (r *Reconciler) Session() *note.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return nil
	}
	s := *r.session
	s.Notes = note.CloneNotes(r.session.Notes)
	return &s
}

// CurrentState reports the machine state, for diagnostics and tests.
func (r *Reconciler) CurrentState() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Close cancels all scheduled work. The reconciler ignores further calls.
func (r *Reconciler) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.stopTimerLocked()
}

func (r *Reconciler) stopTimerLocked() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}
