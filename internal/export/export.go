// Package export renders a session as a plain-text document.
package export

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/text"

	"vodnote/internal/note"
)

const contentWidth = 72

// Write renders title, metadata, and the notes sorted by timestamp. Long
// note content wraps under its own timestamp column.
func Write(w io.Writer, title, videoURL string, notes []note.Note) error {
	if strings.TrimSpace(title) == "" {
		title = note.UntitledName
	}

	sorted := note.CloneNotes(notes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	var doc strings.Builder
	doc.WriteString(title + "\n")
	doc.WriteString(fmt.Sprintf("Exported %s", time.Now().Format("2006-01-02 15:04")))
	if videoURL != "" {
		doc.WriteString("  |  " + videoURL)
	}
	doc.WriteString("\n")
	doc.WriteString(strings.Repeat("-", contentWidth) + "\n")

	if len(sorted) == 0 {
		doc.WriteString("(no notes)\n")
	}
	for _, n := range sorted {
		stamp := note.FormatTimestamp(n.Timestamp)
		indent := strings.Repeat(" ", len(stamp)+2)
		wrapped := text.WrapSoft(n.Content, contentWidth-len(indent))
		lines := strings.Split(wrapped, "\n")
		doc.WriteString(fmt.Sprintf("%s  %s\n", stamp, lines[0]))
		for _, line := range lines[1:] {
			doc.WriteString(indent + line + "\n")
		}
	}

	_, err := io.WriteString(w, doc.String())
	if err != nil {
		return fmt.Errorf("write export document: %w", err)
	}
	return nil
}
