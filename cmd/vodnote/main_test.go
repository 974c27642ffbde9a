package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"vodnote/internal/sharelink"
)

// writeTestConfig produces an isolated config file with short timing
// windows so forced flushes and debounce paths run quickly.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q

[session]
max_sessions = 3
autosave_debounce_ms = 40
restore_grace_ms = 30
url_sync_debounce_ms = 30

[logging]
format = "json"
level = "error"
`, filepath.Join(dir, "data"), filepath.Join(dir, "logs"))

	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func mustRunCLI(t *testing.T, configPath string, args ...string) string {
	t.Helper()
	out, err := runCLI(t, configPath, args...)
	if err != nil {
		t.Fatalf("vodnote %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

const testWatchURL = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"

func TestOpenThenAddAndListNotes(t *testing.T) {
	cfg := writeTestConfig(t)

	out := mustRunCLI(t, cfg, "open", "https://youtu.be/dQw4w9WgXcQ")
	if !strings.Contains(out, "Started session") {
		t.Fatalf("open output:\n%s", out)
	}
	if !strings.Contains(out, testWatchURL) {
		t.Fatalf("open did not canonicalize the URL:\n%s", out)
	}

	out = mustRunCLI(t, cfg, "notes", "add", "1:32", "nice", "crossmap", "flick")
	if !strings.Contains(out, "[1:32] noted") {
		t.Fatalf("notes add output:\n%s", out)
	}

	out = mustRunCLI(t, cfg, "notes", "list")
	if !strings.Contains(out, "1:32") || !strings.Contains(out, "nice crossmap flick") {
		t.Fatalf("notes list output:\n%s", out)
	}

	out = mustRunCLI(t, cfg, "notes", "edit", "1", "nice", "flick")
	if !strings.Contains(out, "updated") {
		t.Fatalf("notes edit output:\n%s", out)
	}
	out = mustRunCLI(t, cfg, "notes", "list")
	if strings.Contains(out, "crossmap") {
		t.Fatalf("edit did not replace content:\n%s", out)
	}

	out = mustRunCLI(t, cfg, "notes", "delete", "1")
	if !strings.Contains(out, "deleted") {
		t.Fatalf("notes delete output:\n%s", out)
	}
	out = mustRunCLI(t, cfg, "notes", "list")
	if !strings.Contains(out, "No notes yet") {
		t.Fatalf("notes list after delete:\n%s", out)
	}
}

func TestOpenRejectsBadURL(t *testing.T) {
	cfg := writeTestConfig(t)
	out, err := runCLI(t, cfg, "open", "https://example.com/clip")
	if err == nil {
		t.Fatalf("expected error, got:\n%s", out)
	}
	if !strings.Contains(err.Error(), "youtu.be/VIDEO_ID") {
		t.Fatalf("error should hint at the expected shape: %v", err)
	}
}

func TestNotesWithoutSessionFails(t *testing.T) {
	cfg := writeTestConfig(t)
	_, err := runCLI(t, cfg, "notes", "add", "10", "orphan")
	if err == nil || !strings.Contains(err.Error(), "no current session") {
		t.Fatalf("err = %v, want no-current-session hint", err)
	}
}

func TestShareAndClaimRoundTrip(t *testing.T) {
	cfg := writeTestConfig(t)
	mustRunCLI(t, cfg, "open", testWatchURL)
	mustRunCLI(t, cfg, "notes", "add", "0:10", "their opener")
	mustRunCLI(t, cfg, "notes", "add", "2:00", "their mid round")

	out := mustRunCLI(t, cfg, "share")
	link := strings.TrimSpace(strings.Split(out, "\n")[0])
	params := sharelink.Parse(link)
	if !params.Shared {
		t.Fatalf("share link missing shared marker: %q", link)
	}
	if len(params.Notes) != 2 {
		t.Fatalf("share link notes = %#v", params.Notes)
	}

	// A second config simulates the recipient's machine.
	otherCfg := writeTestConfig(t)
	out = mustRunCLI(t, otherCfg, "claim", link)
	if !strings.Contains(out, "Claimed session") || !strings.Contains(out, "2 notes") {
		t.Fatalf("claim output:\n%s", out)
	}

	out = mustRunCLI(t, otherCfg, "notes", "list")
	if !strings.Contains(out, "their opener") || !strings.Contains(out, "their mid round") {
		t.Fatalf("claimed notes missing:\n%s", out)
	}
}

func TestClaimRejectsNonSharedLink(t *testing.T) {
	cfg := writeTestConfig(t)
	_, err := runCLI(t, cfg, "claim", testWatchURL)
	if err == nil || !strings.Contains(err.Error(), "not a shared link") {
		t.Fatalf("err = %v", err)
	}
}

func TestOpenSharedLinkIsReadOnly(t *testing.T) {
	cfg := writeTestConfig(t)
	link := sharelink.Build("https://vodding.app/", testWatchURL, nil, true)

	out := mustRunCLI(t, cfg, "open", link)
	if !strings.Contains(out, "read-only") {
		t.Fatalf("open output:\n%s", out)
	}
	// Nothing durable was created, so note mutations have no target.
	if _, err := runCLI(t, cfg, "notes", "add", "5", "should fail"); err == nil {
		t.Fatal("expected failure adding notes to an unclaimed shared session")
	}
}

func TestSessionsListShowDeleteClear(t *testing.T) {
	cfg := writeTestConfig(t)
	mustRunCLI(t, cfg, "open", testWatchURL)
	mustRunCLI(t, cfg, "notes", "add", "12", "good rotation")
	mustRunCLI(t, cfg, "open", "https://youtu.be/jNQXAC9IVRw")

	out := mustRunCLI(t, cfg, "sessions")
	if !strings.Contains(out, "dQw4w9WgXcQ") || !strings.Contains(out, "jNQXAC9IVRw") {
		t.Fatalf("sessions list output:\n%s", out)
	}

	out = mustRunCLI(t, cfg, "sessions", "show")
	if !strings.Contains(out, "jNQXAC9IVRw") {
		t.Fatalf("show should default to the current session:\n%s", out)
	}

	// Delete the current session; the pointer must not dangle.
	var currentID string
	for _, line := range strings.Split(mustRunCLI(t, cfg, "sessions", "list"), "\n") {
		if strings.Contains(line, "*") {
			fields := strings.Fields(line)
			for i, f := range fields {
				if f == "*" && i+1 < len(fields) {
					currentID = fields[i+1]
				}
			}
		}
	}
	if currentID == "" {
		t.Fatalf("no current session marker in list:\n%s", out)
	}
	out = mustRunCLI(t, cfg, "sessions", "delete", currentID)
	if !strings.Contains(out, "Deleted session") {
		t.Fatalf("delete output:\n%s", out)
	}
	if _, err := runCLI(t, cfg, "notes", "list"); err == nil {
		t.Fatal("pointer should be cleared after deleting the current session")
	}

	if _, err := runCLI(t, cfg, "sessions", "clear"); err == nil {
		t.Fatal("clear without --yes must refuse")
	}
	out = mustRunCLI(t, cfg, "sessions", "clear", "--yes")
	if !strings.Contains(out, "Removed 1 sessions") {
		t.Fatalf("clear output:\n%s", out)
	}
	out = mustRunCLI(t, cfg, "sessions")
	if !strings.Contains(out, "No saved sessions") {
		t.Fatalf("sessions after clear:\n%s", out)
	}
}

func TestSessionCapacityEviction(t *testing.T) {
	cfg := writeTestConfig(t) // max_sessions = 3
	ids := []string{"dQw4w9WgXcQ", "jNQXAC9IVRw", "9bZkp7q19f0", "kJQP7kiw5Fk"}
	for _, id := range ids {
		mustRunCLI(t, cfg, "open", "https://youtu.be/"+id)
	}

	out := mustRunCLI(t, cfg, "sessions")
	if strings.Contains(out, ids[0]) {
		t.Fatalf("oldest session should be evicted:\n%s", out)
	}
	for _, id := range ids[1:] {
		if !strings.Contains(out, id) {
			t.Fatalf("session %s missing:\n%s", id, out)
		}
	}
}

func TestExportDocument(t *testing.T) {
	cfg := writeTestConfig(t)
	mustRunCLI(t, cfg, "open", testWatchURL)
	mustRunCLI(t, cfg, "notes", "add", "1:00:00", "late teamfight")
	mustRunCLI(t, cfg, "notes", "add", "0:05", "early pick")

	out := mustRunCLI(t, cfg, "export")
	early := strings.Index(out, "0:05  early pick")
	late := strings.Index(out, "1:00:00  late teamfight")
	if early < 0 || late < 0 || early > late {
		t.Fatalf("export ordering wrong:\n%s", out)
	}

	target := filepath.Join(t.TempDir(), "notes.txt")
	out = mustRunCLI(t, cfg, "export", "-o", target)
	if !strings.Contains(out, "Exported 2 notes") {
		t.Fatalf("export -o output:\n%s", out)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.Contains(string(data), "early pick") {
		t.Fatalf("export file content:\n%s", data)
	}
}

func TestReopenResumesSession(t *testing.T) {
	cfg := writeTestConfig(t)
	mustRunCLI(t, cfg, "open", testWatchURL)
	mustRunCLI(t, cfg, "notes", "add", "42", "the answer")

	out := mustRunCLI(t, cfg, "open", testWatchURL)
	if !strings.Contains(out, "Resumed session") {
		t.Fatalf("reopen should resume, got:\n%s", out)
	}
	if !strings.Contains(out, "the answer") {
		t.Fatalf("resumed session lost notes:\n%s", out)
	}
}

func TestHealthCommand(t *testing.T) {
	cfg := writeTestConfig(t)
	mustRunCLI(t, cfg, "open", testWatchURL)

	out := mustRunCLI(t, cfg, "health")
	for _, want := range []string{"Database exists", "Integrity check", "yes"} {
		if !strings.Contains(out, want) {
			t.Fatalf("health output missing %q:\n%s", want, out)
		}
	}
}

func runAnnotateCLI(t *testing.T, configPath, input string, args ...string) string {
	t.Helper()
	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetIn(strings.NewReader(input))
	cmd.SetArgs(append([]string{"--config", configPath, "annotate"}, args...))
	if err := cmd.Execute(); err != nil {
		t.Fatalf("annotate: %v\n%s", err, buf.String())
	}
	return buf.String()
}

func TestAnnotateLoopAddsAndSaves(t *testing.T) {
	cfg := writeTestConfig(t)
	input := "great opening play\n:list\n:q\n"

	out := runAnnotateCLI(t, cfg, input, testWatchURL)
	if !strings.Contains(out, "noted") {
		t.Fatalf("annotate output:\n%s", out)
	}
	if !strings.Contains(out, "great opening play") {
		t.Fatalf(":list missing the note:\n%s", out)
	}
	if !strings.Contains(out, "Saved session") {
		t.Fatalf("annotate did not save on exit:\n%s", out)
	}

	listed := mustRunCLI(t, cfg, "notes", "list")
	if !strings.Contains(listed, "great opening play") {
		t.Fatalf("note not durable after annotate:\n%s", listed)
	}
}

func TestAnnotateSharedRequiresClaim(t *testing.T) {
	cfg := writeTestConfig(t)
	link := sharelink.Build("https://vodding.app/", testWatchURL, nil, true)

	out := runAnnotateCLI(t, cfg, "rejected note\n:claim\naccepted note\n:q\n", link)
	if !strings.Contains(out, "read-only shared session") {
		t.Fatalf("mutation before claim should be rejected:\n%s", out)
	}
	if !strings.Contains(out, "Claimed session") {
		t.Fatalf(":claim output missing:\n%s", out)
	}

	listed := mustRunCLI(t, cfg, "notes", "list")
	if strings.Contains(listed, "rejected note") {
		t.Fatalf("pre-claim note leaked into the store:\n%s", listed)
	}
	if !strings.Contains(listed, "accepted note") {
		t.Fatalf("post-claim note missing:\n%s", listed)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "config.toml")

	cmd := newRootCommand()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"config", "init", "--path", target})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init: %v\n%s", err, buf.String())
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config not written: %v", err)
	}

	// init refuses to clobber without --overwrite
	cmd = newRootCommand()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"config", "init", "--path", target})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected refusal to overwrite existing config")
	}

	out := mustRunCLI(t, writeTestConfig(t), "config", "show")
	if !strings.Contains(out, "session.max_sessions") {
		t.Fatalf("config show output:\n%s", out)
	}
}
