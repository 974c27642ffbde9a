package clipboard

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExplicitCommand(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "copied.txt")
	script := filepath.Join(dir, "fakecopy")
	if err := os.WriteFile(script, []byte("#!/bin/sh\ncat > "+out+"\n"), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}

	w, err := New(script)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Publish("https://vodding.app/#v=abc"); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	copied, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(copied) != "https://vodding.app/#v=abc" {
		t.Fatalf("copied %q", copied)
	}
}

func TestExplicitCommandWithArguments(t *testing.T) {
	w, err := New("xclip -selection clipboard")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := w.Command(); got != "xclip -selection clipboard" {
		t.Fatalf("Command = %q", got)
	}
}

func TestPublishFailureIncludesHelperName(t *testing.T) {
	w, err := New("/nonexistent/helper")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	err = w.Publish("text")
	if err == nil {
		t.Fatal("expected failure for missing helper")
	}
	if !strings.Contains(err.Error(), "/nonexistent/helper") {
		t.Fatalf("error does not name the helper: %v", err)
	}
}

func TestDetectionFailureIsSentinel(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	if _, err := New(""); !errors.Is(err, ErrNoClipboard) {
		t.Fatalf("err = %v, want ErrNoClipboard", err)
	}
}
