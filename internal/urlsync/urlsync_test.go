package urlsync

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"vodnote/internal/note"
	"vodnote/internal/sharelink"
)

type recordingPublisher struct {
	mu    sync.Mutex
	links []string
	fail  bool
}

func (p *recordingPublisher) Publish(link string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("no clipboard")
	}
	p.links = append(p.links, link)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.links)
}

func (p *recordingPublisher) last() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.links[len(p.links)-1]
}

const (
	testBase  = "https://vodding.app/"
	testVideo = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
	debounce  = 20 * time.Millisecond
)

func waitForLinks(t *testing.T, pub *recordingPublisher, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if pub.count() >= want {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d publishes, have %d", want, pub.count())
}

func TestVideoChangePublishesImmediately(t *testing.T) {
	pub := &recordingPublisher{}
	s := New(pub, testBase, debounce, nil)
	defer s.Close()

	s.VideoChanged(testVideo)
	if pub.count() != 1 {
		t.Fatalf("expected immediate publish, got %d", pub.count())
	}
	params := sharelink.Parse(pub.last())
	if params.VideoURL != testVideo {
		t.Fatalf("published link does not round-trip: %q", pub.last())
	}
}

func TestNotesChangePublishesAfterDebounce(t *testing.T) {
	pub := &recordingPublisher{}
	s := New(pub, testBase, debounce, nil)
	defer s.Close()
	s.VideoChanged(testVideo)

	s.NotesChanged([]note.Note{note.New("nice flick", 92)})
	if pub.count() != 1 {
		t.Fatalf("notes change must not publish synchronously, got %d", pub.count())
	}
	waitForLinks(t, pub, 2)

	params := sharelink.Parse(pub.last())
	if len(params.Notes) != 1 || params.Notes[0].Content != "nice flick" {
		t.Fatalf("published link missing notes: %q", pub.last())
	}
}

func TestRapidNoteChangesCoalesce(t *testing.T) {
	pub := &recordingPublisher{}
	s := New(pub, testBase, 50*time.Millisecond, nil)
	defer s.Close()
	s.VideoChanged(testVideo)

	for i := 1; i <= 5; i++ {
		notes := make([]note.Note, i)
		for j := range notes {
			notes[j] = note.New("n", float64(j))
		}
		s.NotesChanged(notes)
		time.Sleep(2 * time.Millisecond)
	}
	waitForLinks(t, pub, 2)
	time.Sleep(80 * time.Millisecond)

	if pub.count() != 2 {
		t.Fatalf("expected one coalesced publish after the video bind, got %d total", pub.count())
	}
	if len(sharelink.Parse(pub.last()).Notes) != 5 {
		t.Fatalf("coalesced publish should carry the final list: %q", pub.last())
	}
}

func TestReadOnlySuppressesPublishing(t *testing.T) {
	pub := &recordingPublisher{}
	s := New(pub, testBase, debounce, nil)
	defer s.Close()
	s.SetReadOnly(true)

	s.VideoChanged(testVideo)
	s.NotesChanged([]note.Note{note.New("theirs", 1)})
	time.Sleep(3 * debounce)

	if pub.count() != 0 {
		t.Fatalf("read-only session published %d links", pub.count())
	}

	// Claiming clears read-only; the next change publishes.
	s.SetReadOnly(false)
	s.NotesChanged([]note.Note{note.New("mine", 1)})
	waitForLinks(t, pub, 1)
}

func TestUnchangedStateIsNotRepublished(t *testing.T) {
	pub := &recordingPublisher{}
	s := New(pub, testBase, debounce, nil)
	defer s.Close()
	s.VideoChanged(testVideo)

	notes := []note.Note{note.New("a", 1), note.New("b", 2)}
	s.NotesChanged(notes)
	waitForLinks(t, pub, 2)

	// Same video, same count: the debounced rebuild is a no-op publish.
	s.NotesChanged(notes)
	time.Sleep(3 * debounce)
	if pub.count() != 2 {
		t.Fatalf("unchanged state republished: %d", pub.count())
	}

	s.VideoChanged("https://www.youtube.com/watch?v=jNQXAC9IVRw")
	if pub.count() != 3 {
		t.Fatalf("video change must always publish, got %d", pub.count())
	}
}

func TestPublishFailureIsSwallowed(t *testing.T) {
	pub := &recordingPublisher{fail: true}
	s := New(pub, testBase, debounce, nil)
	defer s.Close()

	s.VideoChanged(testVideo)
	s.NotesChanged([]note.Note{note.New("lost", 1)})
	time.Sleep(3 * debounce)

	// Failure, not panic, and the syncer stays usable.
	pub.mu.Lock()
	pub.fail = false
	pub.mu.Unlock()
	s.Flush()
	waitForLinks(t, pub, 1)
}

func TestLinkRebuildsWithoutPublishing(t *testing.T) {
	pub := &recordingPublisher{}
	s := New(pub, testBase, debounce, nil)
	defer s.Close()

	if s.Link() != "" {
		t.Fatal("unbound syncer should have no link")
	}
	s.VideoChanged(testVideo)
	link := s.Link()
	if !strings.HasPrefix(link, testBase) {
		t.Fatalf("link %q not rooted at base URL", link)
	}
	if pub.count() != 1 {
		t.Fatalf("Link must not publish, got %d", pub.count())
	}
}

func TestCloseCancelsScheduledPublish(t *testing.T) {
	pub := &recordingPublisher{}
	s := New(pub, testBase, debounce, nil)
	s.VideoChanged(testVideo)
	s.NotesChanged([]note.Note{note.New("doomed", 1)})
	s.Close()
	time.Sleep(3 * debounce)

	if pub.count() != 1 {
		t.Fatalf("publish ran after Close: %d", pub.count())
	}
}
