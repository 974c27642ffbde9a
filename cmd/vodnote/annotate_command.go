package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"vodnote/internal/autosave"
	"vodnote/internal/bootstrap"
	"vodnote/internal/clipboard"
	"vodnote/internal/note"
	"vodnote/internal/player"
	"vodnote/internal/sharelink"
	"vodnote/internal/urlsync"
)

func newAnnotateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "annotate [url-or-share-link]",
		Short: "Take notes interactively while a video plays",
		Long: `Starts an interactive loop: every line you type becomes a note stamped at
the player's current position. Lines starting with ':' are commands; type
':help' inside the loop for the list. Without an argument the current
session is resumed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnnotate(ctx, cmd, args)
		},
	}
}

// annotateState is the live loop state: the bound notes, the read-only
// flag, and the collaborators the commands drive.
type annotateState struct {
	ctx        *commandContext
	boot       *bootstrap.Bootstrap
	rec        *autosave.Reconciler
	syncer     *urlsync.Syncer
	controller player.Controller
	out        io.Writer

	notes    []note.Note
	shared   bool
	videoURL string
}

func runAnnotate(ctx *commandContext, cmd *cobra.Command, args []string) error {
	cfg := ctx.configValue()

	// One writer per data dir. A second annotate loop on the same store
	// would race the eviction and pointer logic.
	lock := flock.New(cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire session lock: %w", err)
	}
	if !locked {
		return errors.New("another vodnote annotate session is already running")
	}
	defer lock.Unlock()

	target := ""
	if len(args) == 1 {
		target = args[0]
	} else {
		session, err := ctx.currentSession(cmd.Context())
		if err != nil {
			return err
		}
		target = session.Video.URL
	}

	controller, closeController := ctx.controller()
	defer closeController()

	syncer := urlsync.New(newLinkPublisher(ctx, cmd.ErrOrStderr()), cfg.Share.BaseURL, cfg.URLSyncDebounce(), ctx.newLogger())
	defer syncer.Close()

	rec := ctx.newReconciler()
	defer rec.Close()
	boot := bootstrap.New(cfg, ctx.lazyStore(), rec, syncer, controller, ctx.newLogger())
	defer boot.Close()

	result, err := boot.Open(cmd.Context(), target)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	state := &annotateState{
		ctx:        ctx,
		boot:       boot,
		rec:        rec,
		syncer:     syncer,
		controller: controller,
		out:        out,
		notes:      result.Notes,
		shared:     result.Shared,
		videoURL:   result.Video.URL,
	}

	fmt.Fprintf(out, "Annotating %s", state.videoURL)
	if state.shared {
		fmt.Fprint(out, " (read-only; use :claim to make it yours)")
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Type a note and press enter. ':help' lists commands, ':q' quits.")

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ":") {
			if quit := state.runCommand(cmd, line); quit {
				break
			}
			continue
		}
		state.addNote(line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	if err := rec.FlushNow(cmd.Context()); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "final save failed: %v\n", err)
	}
	if session := rec.Session(); session != nil {
		boot.Remember(session)
		fmt.Fprintf(out, "Saved session %s (%d notes)\n", shortID(session.ID), len(session.Notes))
	}
	return nil
}

func (s *annotateState) addNote(content string) {
	if s.shared {
		fmt.Fprintln(s.out, "read-only shared session; use :claim first")
		return
	}
	timestamp, err := s.controller.CurrentTime()
	if err != nil {
		timestamp = 0
	}
	s.notes = append(s.notes, note.New(content, timestamp))
	s.rec.NotesChanged(s.notes)
	s.syncer.NotesChanged(s.notes)
	fmt.Fprintf(s.out, "[%s] noted\n", note.FormatTimestamp(timestamp))
}

// runCommand handles one ':' command line; it reports whether the loop
// should exit.
func (s *annotateState) runCommand(cmd *cobra.Command, line string) bool {
	fields := strings.Fields(strings.TrimPrefix(line, ":"))
	if len(fields) == 0 {
		return false
	}
	name, rest := fields[0], fields[1:]

	switch name {
	case "q", "quit":
		return true
	case "help":
		s.printHelp()
	case "list", "ls":
		printNotes(s.out, s.notes)
	case "edit":
		s.editNote(rest)
	case "delete", "del":
		s.deleteNote(rest)
	case "seek":
		s.seek(rest)
	case "play":
		s.report(s.controller.Play())
	case "pause":
		s.report(s.controller.Pause())
	case "vol":
		s.volume(rest)
	case "share":
		s.share()
	case "claim":
		s.claim(cmd)
	default:
		fmt.Fprintf(s.out, "unknown command :%s (try :help)\n", name)
	}
	return false
}

func (s *annotateState) printHelp() {
	fmt.Fprintln(s.out, `  <text>            add a note at the current playback position
  :list             show notes
  :edit <n> <text>  replace note n's content
  :delete <n>       delete note n
  :seek <pos|±n>    jump to a position (1:32) or by seconds (+5, -10)
  :play / :pause    control playback
  :vol <0-100|±n>   set or adjust volume
  :share            print a read-only share link
  :claim            make a shared session yours
  :q                quit and save`)
}

func (s *annotateState) editNote(args []string) {
	if s.shared {
		fmt.Fprintln(s.out, "read-only shared session; use :claim first")
		return
	}
	if len(args) < 2 {
		fmt.Fprintln(s.out, "usage: :edit <n> <text>")
		return
	}
	index, err := noteIndex(args[0], len(s.notes))
	if err != nil {
		fmt.Fprintln(s.out, err)
		return
	}
	s.notes[index] = s.notes[index].Edit(strings.Join(args[1:], " "))
	s.rec.NotesChanged(s.notes)
	s.syncer.NotesChanged(s.notes)
	fmt.Fprintf(s.out, "[%s] updated\n", note.FormatTimestamp(s.notes[index].Timestamp))
}

func (s *annotateState) deleteNote(args []string) {
	if s.shared {
		fmt.Fprintln(s.out, "read-only shared session; use :claim first")
		return
	}
	if len(args) != 1 {
		fmt.Fprintln(s.out, "usage: :delete <n>")
		return
	}
	index, err := noteIndex(args[0], len(s.notes))
	if err != nil {
		fmt.Fprintln(s.out, err)
		return
	}
	removed := s.notes[index]
	s.notes = append(s.notes[:index], s.notes[index+1:]...)
	s.rec.NotesChanged(s.notes)
	s.syncer.NotesChanged(s.notes)
	fmt.Fprintf(s.out, "[%s] deleted\n", note.FormatTimestamp(removed.Timestamp))
}

func (s *annotateState) seek(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "usage: :seek <pos|±n>")
		return
	}
	arg := args[0]
	if strings.HasPrefix(arg, "+") || strings.HasPrefix(arg, "-") {
		delta, err := note.ParseTimestamp(arg[1:])
		if err != nil {
			fmt.Fprintf(s.out, "invalid offset %q\n", arg)
			return
		}
		if arg[0] == '-' {
			delta = -delta
		}
		s.report(player.SeekBy(s.controller, delta, 0))
		return
	}
	target, err := note.ParseTimestamp(arg)
	if err != nil {
		fmt.Fprintln(s.out, err)
		return
	}
	s.report(s.controller.Seek(target))
}

func (s *annotateState) volume(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "usage: :vol <0-100|±n>")
		return
	}
	arg := args[0]
	if strings.HasPrefix(arg, "+") || strings.HasPrefix(arg, "-") {
		delta, err := note.ParseTimestamp(strings.TrimLeft(arg, "+-"))
		if err != nil {
			fmt.Fprintf(s.out, "invalid adjustment %q\n", arg)
			return
		}
		if strings.HasPrefix(arg, "-") {
			delta = -delta
		}
		current, err := s.controller.Volume()
		if err != nil {
			s.report(err)
			return
		}
		s.report(s.controller.SetVolume(current + delta))
		return
	}
	target, err := note.ParseTimestamp(arg)
	if err != nil || target > 100 {
		fmt.Fprintf(s.out, "invalid volume %q\n", arg)
		return
	}
	s.report(s.controller.SetVolume(target))
}

func (s *annotateState) share() {
	cfg := s.ctx.configValue()
	link := sharelink.Build(cfg.Share.BaseURL, s.videoURL, s.notes, true)
	fmt.Fprintln(s.out, link)
}

func (s *annotateState) claim(cmd *cobra.Command) {
	if !s.shared {
		fmt.Fprintln(s.out, "session is already yours")
		return
	}
	session, err := s.boot.Claim(cmd.Context())
	if err != nil {
		fmt.Fprintf(s.out, "claim failed: %v\n", err)
		return
	}
	s.shared = false
	s.notes = note.CloneNotes(session.Notes)
	fmt.Fprintf(s.out, "Claimed session %s; notes are now editable\n", shortID(session.ID))
}

func (s *annotateState) report(err error) {
	if err != nil {
		fmt.Fprintln(s.out, err)
	}
}

// newLinkPublisher mirrors the live share link to the clipboard when a
// helper is available; otherwise mirroring is a silent no-op and :share
// remains the way to get a link.
func newLinkPublisher(ctx *commandContext, errOut io.Writer) urlsync.Publisher {
	cfg := ctx.configValue()
	writer, err := clipboard.New(cfg.Clipboard.Command)
	if err != nil {
		fmt.Fprintln(errOut, "no clipboard helper found; share links will not be mirrored")
		return urlsync.PublisherFunc(func(string) error { return nil })
	}
	return writer
}
