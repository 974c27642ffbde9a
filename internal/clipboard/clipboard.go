// Package clipboard writes text to the system clipboard through an
// external helper, the way terminal tools usually do it. Detection is best
// effort; callers treat a missing clipboard as a soft failure.
package clipboard

import (
	"fmt"
	"os/exec"
	"strings"
)

// ErrNoClipboard reports that no clipboard helper is available.
var ErrNoClipboard = fmt.Errorf("no clipboard helper found")

// candidates in preference order. wl-copy first since Wayland sessions
// often have a non-functional xclip on PATH.
var candidates = [][]string{
	{"wl-copy"},
	{"xclip", "-selection", "clipboard"},
	{"xsel", "--clipboard", "--input"},
	{"pbcopy"},
}

// Writer copies text by piping it to a helper command.
type Writer struct {
	argv []string
}

// New builds a Writer from an explicit command line, or detects a helper
// from PATH when command is empty.
func New(command string) (*Writer, error) {
	if strings.TrimSpace(command) != "" {
		return &Writer{argv: strings.Fields(command)}, nil
	}
	for _, argv := range candidates {
		if _, err := exec.LookPath(argv[0]); err == nil {
			return &Writer{argv: argv}, nil
		}
	}
	return nil, ErrNoClipboard
}

// Publish copies text to the clipboard. Implements urlsync.Publisher.
func (w *Writer) Publish(text string) error {
	cmd := exec.Command(w.argv[0], w.argv[1:]...)
	cmd.Stdin = strings.NewReader(text)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", w.argv[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Command reports the helper command line in use.
func (w *Writer) Command() string {
	return strings.Join(w.argv, " ")
}
