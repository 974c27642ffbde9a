package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newClaimCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "claim <share-link>",
		Short: "Save a shared session's notes as your own writable session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			boot, rec := ctx.newBootstrap(nil)
			defer rec.Close()
			defer boot.Close()

			result, err := boot.Open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !result.Shared {
				return errors.New("not a shared link; use `vodnote open` for your own links")
			}

			session, err := boot.Claim(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Claimed session %s with %d notes for %s\n", shortID(session.ID), len(session.Notes), session.Video.URL)
			fmt.Fprintln(out, "It is now your current session.")
			return nil
		},
	}
}
