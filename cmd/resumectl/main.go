// Command resumectl inspects, embeds, verifies and benchmarks resumable page
// snapshots, and runs the preview server.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/vango-dev/resume/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// compactErrors is set by --compact-errors.
var compactErrors bool

func main() {
	if err := newRootCmd().Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

func printError(w io.Writer, err error) {
	if compactErrors {
		errors.FprintCompact(w, err)
		return
	}
	errors.Fprint(w, err)
}

func newRootCmd() *cobra.Command {
	var noColor bool

	rootCmd := &cobra.Command{
		Use:   "resumectl",
		Short: "Tools for resumable page snapshots",
		Long: `resumectl works with pages that carry an embedded reactive state snapshot.

  • inspect a page or snapshot file
  • embed a snapshot into a script block
  • verify that a page resumes, and benchmark resuming it
  • run the preview server`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				errors.DisableColors()
				text.DisableColors()
			}
		},
	}
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&compactErrors, "compact-errors", false, "Print errors on a single line")

	rootCmd.AddCommand(
		inspectCmd(),
		embedCmd(),
		verifyCmd(),
		benchCmd(),
		serveCmd(),
		versionCmd(),
	)
	return rootCmd
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", text.FgGreen.Sprint("✓"), fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", text.FgYellow.Sprint("⚠"), fmt.Sprintf(format, args...))
}
