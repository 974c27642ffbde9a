// Package player abstracts playback control for the annotate loop.
//
// Controller is the narrow surface the rest of the system needs; callers
// never probe for optional capabilities. The Mpv adapter drives a running
// mpv over its JSON IPC socket; Null stands in when no player is
// configured.
package player

import "math"

// Controller drives an external video player.
type Controller interface {
	// Seek jumps to an absolute position in seconds.
	Seek(seconds float64) error
	// CurrentTime reports the playback position in seconds.
	CurrentTime() (float64, error)
	Play() error
	Pause() error
	// Volume reports the player volume in [0, 100].
	Volume() (float64, error)
	SetVolume(volume float64) error
}

// SeekBy moves the controller's position by delta seconds, clamped to
// [0, duration]. A non-positive duration means unknown and skips the upper
// clamp.
func SeekBy(c Controller, delta, duration float64) error {
	pos, err := c.CurrentTime()
	if err != nil {
		return err
	}
	target := pos + delta
	if target < 0 || math.IsNaN(target) {
		target = 0
	}
	if duration > 0 && target > duration {
		target = duration
	}
	return c.Seek(target)
}

// Null is a Controller that accepts every command and reports position
// zero. Used when no player socket is configured.
type Null struct{}

func (Null) Seek(float64) error { return nil }

func (Null) CurrentTime() (float64, error) { return 0, nil }

func (Null) Play() error { return nil }

func (Null) Pause() error { return nil }

func (Null) Volume() (float64, error) { return 100, nil }

func (Null) SetVolume(float64) error { return nil }
