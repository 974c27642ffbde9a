// Package note defines the core domain types for annotation sessions: a
// timestamped Note, the Video it annotates, and the Session record pairing
// one video with its ordered notes.
package note

import (
	"time"

	"github.com/google/uuid"
)

// UntitledName is the sentinel video name used until a real title is known.
const UntitledName = "Untitled"

// ProviderYouTube tags videos sourced from YouTube.
const ProviderYouTube = "youtube"

// Note is a single timestamped annotation. After creation only Content and
// UpdatedAt change; Timestamp and CreatedAt are immutable.
type Note struct {
	ID        string    `json:"id"`
	Timestamp float64   `json:"timestamp"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Video describes the annotated video binding.
type Video struct {
	ID       string    `json:"id"`
	URL      string    `json:"url"`
	Name     string    `json:"name"`
	AddedAt  time.Time `json:"addedAt"`
	Provider string    `json:"provider,omitempty"`
}

// Session pairs one video with its ordered notes. Once durable it is owned
// by the session store; identity is Session.ID, dedupe is by Video.ID.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Video     Video     `json:"video"`
	Notes     []Note    `json:"notes"`
}

// New creates a note stamped at the given playback position.
func New(content string, timestamp float64) Note {
	now := time.Now().UTC()
	return Note{
		ID:        uuid.NewString(),
		Timestamp: timestamp,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewVideo creates a fresh video binding for a canonical URL.
func NewVideo(url, name string) Video {
	if name == "" {
		name = UntitledName
	}
	return Video{
		ID:       uuid.NewString(),
		URL:      url,
		Name:     name,
		AddedAt:  time.Now().UTC(),
		Provider: ProviderYouTube,
	}
}

// Edit returns a copy of the note with new content and a refreshed
// UpdatedAt. Timestamp and CreatedAt are preserved.
func (n Note) Edit(content string) Note {
	n.Content = content
	n.UpdatedAt = time.Now().UTC()
	return n
}

// CloneNotes returns a shallow copy of a note list. Note values carry no
// shared references, so a shallow copy is a full snapshot.
func CloneNotes(notes []Note) []Note {
	if notes == nil {
		return nil
	}
	cp := make([]Note, len(notes))
	copy(cp, notes)
	return cp
}
