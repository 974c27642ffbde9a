package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"vodnote/internal/note"
)

func newNotesCommand(ctx *commandContext) *cobra.Command {
	notesCmd := &cobra.Command{
		Use:   "notes",
		Short: "Manage notes on the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNotesList(ctx, cmd)
		},
	}

	notesCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the current session's notes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNotesList(ctx, cmd)
		},
	})
	notesCmd.AddCommand(newNotesAddCommand(ctx))
	notesCmd.AddCommand(newNotesEditCommand(ctx))
	notesCmd.AddCommand(newNotesDeleteCommand(ctx))

	return notesCmd
}

func runNotesList(ctx *commandContext, cmd *cobra.Command) error {
	session, err := ctx.currentSession(cmd.Context())
	if err != nil {
		return err
	}
	printNotes(cmd.OutOrStdout(), session.Notes)
	return nil
}

func newNotesAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <timestamp> <content...>",
		Short: "Add a note at a playback position (e.g. 1:32 or 92)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			timestamp, err := note.ParseTimestamp(args[0])
			if err != nil {
				return err
			}
			content := strings.TrimSpace(strings.Join(args[1:], " "))
			if content == "" {
				return errors.New("note content is empty")
			}

			session, err := ctx.currentSession(cmd.Context())
			if err != nil {
				return err
			}
			saved, err := ctx.mutateSession(cmd.Context(), session, func(notes []note.Note) ([]note.Note, error) {
				return append(notes, note.New(content, timestamp)), nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] noted (%d total)\n", note.FormatTimestamp(timestamp), len(saved.Notes))
			return nil
		},
	}
}

func newNotesEditCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <number> <content...>",
		Short: "Replace a note's content by its list number",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			content := strings.TrimSpace(strings.Join(args[1:], " "))
			if content == "" {
				return errors.New("note content is empty")
			}

			session, err := ctx.currentSession(cmd.Context())
			if err != nil {
				return err
			}
			index, err := noteIndex(args[0], len(session.Notes))
			if err != nil {
				return err
			}
			saved, err := ctx.mutateSession(cmd.Context(), session, func(notes []note.Note) ([]note.Note, error) {
				notes[index] = notes[index].Edit(content)
				return notes, nil
			})
			if err != nil {
				return err
			}
			edited := saved.Notes[index]
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] updated\n", note.FormatTimestamp(edited.Timestamp))
			return nil
		},
	}
}

func newNotesDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <number>",
		Short: "Delete a note by its list number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := ctx.currentSession(cmd.Context())
			if err != nil {
				return err
			}
			index, err := noteIndex(args[0], len(session.Notes))
			if err != nil {
				return err
			}
			removed := session.Notes[index]
			saved, err := ctx.mutateSession(cmd.Context(), session, func(notes []note.Note) ([]note.Note, error) {
				return append(notes[:index], notes[index+1:]...), nil
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] deleted (%d remaining)\n", note.FormatTimestamp(removed.Timestamp), len(saved.Notes))
			return nil
		},
	}
}

// noteIndex converts a 1-based list number argument to a slice index.
func noteIndex(arg string, count int) (int, error) {
	number, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || number < 1 {
		return 0, fmt.Errorf("invalid note number %q", arg)
	}
	if number > count {
		return 0, fmt.Errorf("note %d out of range (session has %d)", number, count)
	}
	return number - 1, nil
}
