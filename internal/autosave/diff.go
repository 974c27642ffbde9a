package autosave

import "vodnote/internal/note"

// change classifies a note-list delta against the previous baseline.
type change int

const (
	changeNone change = iota
	changeAdded
	changeDeleted
	changeEdited
)

func (c change) String() string {
	switch c {
	case changeAdded:
		return "added"
	case changeDeleted:
		return "deleted"
	case changeEdited:
		return "edited"
	default:
		return "unchanged"
	}
}

// classify compares by length first, then by per-index identity and
// content. An edit is recognized only when the same note id sits at the
// same position with different content; reorders and id churn fall through
// to unchanged and are picked up by the periodic debounce save.
func classify(prev, next []note.Note) change {
	switch {
	case len(next) < len(prev):
		return changeDeleted
	case len(next) > len(prev):
		return changeAdded
	}
	for i := range prev {
		if prev[i].ID == next[i].ID && prev[i].Content != next[i].Content {
			return changeEdited
		}
	}
	return changeNone
}
