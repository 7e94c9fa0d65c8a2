package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/resume/pkg/resume"
)

func embedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "embed <snapshot.json>",
		Short: "Print the script block carrying a snapshot",
		Long: `Print the <script> element that carries a snapshot inside a page.

The payload is escaped so that it cannot end the script element early.

Example:
  resumectl embed snapshot.json >> page.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readInput(args[0])
			if err != nil {
				return err
			}
			// Validate before emitting anything.
			if _, err := in.snapshot(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), resume.EmbedPayload(in.raw))
			return nil
		},
	}
	return cmd
}
