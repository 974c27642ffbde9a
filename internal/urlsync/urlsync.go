// Package urlsync mirrors the live session into a shareable link.
//
// The syncer runs beside the autosave reconciler and owns its own timer:
// video rebinds publish immediately, note-list changes publish after a
// debounce window, and nothing is published while the session is read-only.
// Publishing is best effort; failures are logged and swallowed.
package urlsync

import (
	"log/slog"
	"sync"
	"time"

	"vodnote/internal/note"
	"vodnote/internal/sharelink"
)

// Publisher receives each rebuilt share link.
type Publisher interface {
	Publish(link string) error
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(link string) error

func (f PublisherFunc) Publish(link string) error { return f(link) }

// Syncer rebuilds and publishes the share link for the bound video and
// note list.
type Syncer struct {
	publisher Publisher
	baseURL   string
	debounce  time.Duration
	logger    *slog.Logger

	mu        sync.Mutex
	timer     *time.Timer
	videoURL  string
	notes     []note.Note
	readOnly  bool
	lastURL   string
	lastCount int
	published bool
	closed    bool
}

// New returns a Syncer that publishes through publisher. A nil logger
// discards log output.
func New(publisher Publisher, baseURL string, debounce time.Duration, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Syncer{
		publisher: publisher,
		baseURL:   baseURL,
		debounce:  debounce,
		logger:    logger,
	}
}

// VideoChanged rebinds the video and publishes immediately. An empty URL
// unbinds and cancels any scheduled publish.
func (s *Syncer) VideoChanged(videoURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.videoURL = videoURL
	s.stopTimerLocked()
	if videoURL == "" {
		return
	}
	s.publishLocked()
}

// NotesChanged records the new note list and schedules a debounced publish.
func (s *Syncer) NotesChanged(notes []note.Note) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.notes = note.CloneNotes(notes)
	if s.readOnly || s.videoURL == "" {
		return
	}
	s.stopTimerLocked()
	s.timer = time.AfterFunc(s.debounce, s.publishDue)
}

// SetReadOnly gates publishing. A read-only session belongs to whoever
// shared it; mirroring it would advertise a link the viewer cannot claim
// from.
func (s *Syncer) SetReadOnly(readOnly bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readOnly = readOnly
	if readOnly {
		s.stopTimerLocked()
	}
}

func (s *Syncer) publishDue() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.readOnly || s.videoURL == "" {
		return
	}
	s.timer = nil
	s.publishLocked()
}

// publishLocked rebuilds the link and hands it to the publisher, skipping
// the write when neither the video nor the note count moved since the last
// publish.
func (s *Syncer) publishLocked() {
	if s.readOnly {
		return
	}
	if s.published && s.videoURL == s.lastURL && len(s.notes) == s.lastCount {
		return
	}
	link := sharelink.Build(s.baseURL, s.videoURL, s.notes, false)
	if err := s.publisher.Publish(link); err != nil {
		s.logger.Warn("share link publish failed", "error", err)
		return
	}
	s.lastURL = s.videoURL
	s.lastCount = len(s.notes)
	s.published = true
}

// Flush publishes any scheduled update immediately.
func (s *Syncer) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.videoURL == "" {
		return
	}
	s.stopTimerLocked()
	s.publishLocked()
}

// Link rebuilds the current share link without publishing it.
func (s *Syncer) Link() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.videoURL == "" {
		return ""
	}
	return sharelink.Build(s.baseURL, s.videoURL, s.notes, false)
}

// Close cancels scheduled work. The syncer ignores further calls.
func (s *Syncer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.stopTimerLocked()
}

func (s *Syncer) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
