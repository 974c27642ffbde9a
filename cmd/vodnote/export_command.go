package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vodnote/internal/export"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "export [session-id]",
		Short: "Export a session's notes as a plain-text document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			arg := ""
			if len(args) == 1 {
				arg = args[0]
			}
			session, err := ctx.resolveSession(cmd.Context(), arg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outputPath != "" {
				file, err := os.Create(outputPath)
				if err != nil {
					return fmt.Errorf("create export file: %w", err)
				}
				defer file.Close()
				if err := export.Write(file, session.Video.Name, session.Video.URL, session.Notes); err != nil {
					return err
				}
				fmt.Fprintf(out, "Exported %d notes to %s\n", len(session.Notes), outputPath)
				return nil
			}
			return export.Write(out, session.Video.Name, session.Video.URL, session.Notes)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the document to a file instead of stdout")
	return cmd
}
