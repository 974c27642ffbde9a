// Package sharelink implements the compact, URL-safe encoding of note lists
// and the construction and parsing of shareable session links.
//
// The note payload is a JSON array of {t, c} pairs (floored timestamp
// seconds and content) carried as unpadded URL-safe base64 in the "n"
// fragment parameter. Encoding is lossy on purpose: note identity and
// authoring times are not carried, only timestamp and content survive the
// round trip. All parse and decode paths here are total functions; malformed
// input yields empty results, never an error.
package sharelink

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"vodnote/internal/note"
)

// Fragment parameter names.
const (
	paramVideo  = "v"
	paramNotes  = "n"
	paramShared = "shared"
	// paramTimestamp is the legacy single-note deep link: a bare seek
	// position, consumed as a one-note snapshot with empty content.
	paramTimestamp = "t"
)

// wireNote is the compressed per-note payload. Timestamps are floored to
// whole seconds when encoding; the field stays float64 so lenient decoding
// accepts fractional values from older links.
type wireNote struct {
	T float64 `json:"t"`
	C string  `json:"c"`
}

// Params is the decoded content of a share link fragment.
type Params struct {
	VideoURL string
	Notes    []note.Note
	Shared   bool
}

// Encode serializes a note list into the URL-safe compact form. Content is
// NFC-normalized so the same visible text always produces the same link
// bytes. Returns "" for an empty list; callers omit the parameter instead
// of encoding an empty payload.
func Encode(notes []note.Note) string {
	if len(notes) == 0 {
		return ""
	}
	wire := make([]wireNote, len(notes))
	for i, n := range notes {
		wire[i] = wireNote{
			T: math.Floor(n.Timestamp),
			C: norm.NFC.String(n.Content),
		}
	}
	payload, err := json.Marshal(wire)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(payload)
}

// Decode reverses Encode. Reconstructed notes receive synthesized ids and
// fresh created/updated times; only timestamp and content are preserved.
// Malformed or non-array input yields an empty list.
func Decode(encoded string) []note.Note {
	if encoded == "" {
		return nil
	}

	// Tolerate links produced with the standard alphabet or with padding.
	normalized := strings.NewReplacer("+", "-", "/", "_", "=", "").Replace(encoded)
	payload, err := base64.RawURLEncoding.DecodeString(normalized)
	if err != nil {
		return nil
	}

	var wire []wireNote
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil
	}

	now := time.Now().UTC()
	notes := make([]note.Note, 0, len(wire))
	for i, w := range wire {
		notes = append(notes, synthesized(i, w.T, w.C, now))
	}
	return notes
}

// Build constructs a shareable link on top of baseURL. The video URL is
// always carried; the notes parameter is set only when the list encodes to
// a non-empty payload. Links intended as read-only shares carry the shared
// marker.
func Build(baseURL, videoURL string, notes []note.Note, shared bool) string {
	params := url.Values{}
	params.Set(paramVideo, url.QueryEscape(videoURL))
	if encoded := Encode(notes); encoded != "" {
		params.Set(paramNotes, encoded)
	}
	if shared {
		params.Set(paramShared, "1")
	}
	return strings.TrimSuffix(baseURL, "#") + "#" + params.Encode()
}

// Parse reads a share link (or a bare fragment query) back into Params.
// VideoURL is empty when absent, Notes is empty on any decode failure, and
// Shared is true iff the marker parameter is present regardless of value.
func Parse(raw string) Params {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Params{}
	}
	fragment := u.EscapedFragment()
	if fragment == "" {
		return Params{}
	}
	query, err := url.ParseQuery(fragment)
	if err != nil {
		return Params{}
	}

	videoURL := query.Get(paramVideo)
	if videoURL != "" {
		// Builders escape the video URL before it is query-encoded, so a
		// second unescape is needed. Fall back to the raw value when the
		// inner escape is malformed.
		if decoded, err := url.QueryUnescape(videoURL); err == nil {
			videoURL = decoded
		}
	}

	notes := Decode(query.Get(paramNotes))
	if len(notes) == 0 {
		notes = legacyTimestampNote(query.Get(paramTimestamp))
	}

	_, shared := query[paramShared]

	return Params{VideoURL: videoURL, Notes: notes, Shared: shared}
}

// legacyTimestampNote consumes the old single-timestamp deep link shape as
// a degenerate one-note snapshot.
func legacyTimestampNote(value string) []note.Note {
	if value == "" {
		return nil
	}
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil || seconds <= 0 || math.IsInf(seconds, 0) || math.IsNaN(seconds) {
		return nil
	}
	return []note.Note{synthesized(0, seconds, "", time.Now().UTC())}
}

func synthesized(index int, timestamp float64, content string, now time.Time) note.Note {
	if timestamp < 0 || math.IsNaN(timestamp) || math.IsInf(timestamp, 0) {
		timestamp = 0
	}
	return note.Note{
		ID:        fmt.Sprintf("url-note-%d-%d", index, int64(timestamp)),
		Timestamp: timestamp,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
