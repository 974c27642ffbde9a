package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vodnote/internal/clipboard"
	"vodnote/internal/sharelink"
)

func newShareCommand(ctx *commandContext) *cobra.Command {
	var copyToClipboard bool

	cmd := &cobra.Command{
		Use:   "share [session-id]",
		Short: "Build a read-only share link for a session",
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

			cfg := ctx.configValue()
			link := sharelink.Build(cfg.Share.BaseURL, session.Video.URL, session.Notes, true)
			fmt.Fprintln(cmd.OutOrStdout(), link)

			if copyToClipboard {
				writer, err := clipboard.New(cfg.Clipboard.Command)
				if err != nil {
					return err
				}
				if err := writer.Publish(link); err != nil {
					return err
				}
				fmt.Fprintln(cmd.ErrOrStderr(), "Copied to clipboard")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&copyToClipboard, "copy", false, "Copy the link to the clipboard")
	return cmd
}
