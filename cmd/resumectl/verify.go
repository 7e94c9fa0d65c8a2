package main

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vango-dev/resume/internal/errors"
	"github.com/vango-dev/resume/pkg/reactive"
	"github.com/vango-dev/resume/pkg/resume"
)

func nopHandler(*reactive.Graph, resume.Event) error { return nil }

func verifyCmd() *cobra.Command {
	var (
		dir            string
		strategy       string
		failUnresolved bool
	)

	cmd := &cobra.Command{
		Use:   "verify <page.html>",
		Short: "Check that a page resumes",
		Long: `Resume a page into a fresh graph and report what was restored.

Every listener is bound to a handler that does nothing, so the check covers
the snapshot and element resolution but not application code. Settings are
read from resume.yaml in --config.

Examples:
  resumectl verify page.html
  resumectl verify page.html --strategy strict`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(dir, strategy)
			if err != nil {
				return err
			}
			in, err := readInput(args[0])
			if err != nil {
				return err
			}
			if err := in.requireDocument(); err != nil {
				return err
			}
			snap, err := in.snapshot()
			if err != nil {
				return err
			}
			opts, err := cfg.BootstrapOptions()
			if err != nil {
				return err
			}

			res := resume.NewBootstrap(reactive.NewGraph(), noopHandlers(snap), opts...).
				Resume(cmd.Context(), in.doc)
			if err := reportResult(cmd, res); err != nil {
				return err
			}
			if failUnresolved {
				return exitOnPartial(res)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "config", "c", ".", "Directory containing resume.yaml")
	cmd.Flags().StringVar(&strategy, "strategy", "", "Version strategy: strict, compatible or ignore")
	cmd.Flags().BoolVar(&failUnresolved, "fail-unresolved", false, "Fail when a recorded node is missing from the page")

	return cmd
}

func reportResult(cmd *cobra.Command, res *resume.Result) error {
	out := cmd.OutOrStdout()
	if !res.Success {
		if res.Fallback {
			warn(out, "page would fall back to hydration")
		}
		return res.Err
	}

	st := res.Stats
	success(out, "resumed in %s", st.Duration)
	info(out, "snapshot   %s", humanize.Bytes(uint64(st.SnapshotBytes)))
	info(out, "signals    %s", humanize.Comma(int64(st.Signals)))
	info(out, "computeds  %s", humanize.Comma(int64(st.Computeds)))
	info(out, "nodes      %d resolved", st.NodesResolved)
	info(out, "listeners  %d attached", st.Listeners)
	if st.Components > 0 || st.Islands > 0 {
		info(out, "components %d, islands %d", st.Components, st.Islands)
	}
	if len(st.Unresolved) > 0 {
		warn(out, "%d node(s) not found in the page: %s", len(st.Unresolved), strings.Join(st.Unresolved, ", "))
	}
	if len(st.MissingHandlers) > 0 {
		warn(out, "%d listener(s) without a handler: %s", len(st.MissingHandlers), strings.Join(st.MissingHandlers, ", "))
	}
	return nil
}

// exitOnPartial turns unresolved nodes into an error.
func exitOnPartial(res *resume.Result) error {
	if n := len(res.Stats.Unresolved); n > 0 {
		return errors.New("E040").WithDetailf("%d node(s) unresolved: %s", n, strings.Join(res.Stats.Unresolved, ", "))
	}
	return nil
}
