// Package videourl validates user-supplied YouTube links and normalizes
// them to the canonical watch URL.
package videourl

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ErrInvalid marks inputs that do not resolve to a playable YouTube video.
var ErrInvalid = errors.New("invalid video URL")

// videoIDLength is the fixed length of YouTube video identifiers.
const videoIDLength = 11

var pathIDPattern = regexp.MustCompile(`/(?:embed|shorts|live)/([\w-]{11})`)

// Canonicalize validates a YouTube link in any of the accepted shapes
// (short link, watch, embed, shorts, live) and returns the canonical
// watch?v= form. The returned error wraps ErrInvalid and carries a
// user-facing hint.
func Canonicalize(raw string) (string, error) {
	id, ok := ExtractID(strings.TrimSpace(raw))
	if !ok {
		return "", fmt.Errorf("%w: expected a link like https://youtu.be/VIDEO_ID", ErrInvalid)
	}
	return "https://www.youtube.com/watch?v=" + id, nil
}

// ExtractID pulls the 11-character video identifier out of a YouTube URL.
func ExtractID(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	host := strings.ToLower(u.Hostname())
	var id string
	switch {
	case host == "youtu.be":
		id = strings.TrimPrefix(u.Path, "/")
		if i := strings.IndexByte(id, '/'); i >= 0 {
			id = id[:i]
		}
	case strings.Contains(host, "youtube.com"):
		if u.Path == "/watch" {
			id = u.Query().Get("v")
		} else if m := pathIDPattern.FindStringSubmatch(u.Path); m != nil {
			id = m[1]
		}
	default:
		return "", false
	}

	if len(id) != videoIDLength {
		return "", false
	}
	return id, true
}
