package main

import (
	"bytes"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/vango-dev/resume/pkg/reactive"
	"github.com/vango-dev/resume/pkg/resume"
)

func benchCmd() *cobra.Command {
	var (
		iters int
		dir   string
	)

	cmd := &cobra.Command{
		Use:   "bench <page.html>",
		Short: "Time resuming a page",
		Long: `Parse and resume a page repeatedly, each time into a fresh graph, and
report timing percentiles.

Example:
  resumectl bench page.html -n 5000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if iters < 1 {
				return fmt.Errorf("-n must be at least 1")
			}
			cfg, err := loadConfig(dir, "")
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
			handlers := noopHandlers(snap)

			parse := tachymeter.New(&tachymeter.Config{Size: iters})
			restore := tachymeter.New(&tachymeter.Config{Size: iters})
			total := tachymeter.New(&tachymeter.Config{Size: iters})
			wall := time.Now()
			for i := 0; i < iters; i++ {
				start := time.Now()
				doc, err := resume.ParseDocument(bytes.NewReader(in.data))
				if err != nil {
					return err
				}
				parsed := time.Now()
				res := resume.NewBootstrap(reactive.NewGraph(), handlers, opts...).Resume(cmd.Context(), doc)
				if !res.Success {
					return res.Err
				}
				done := time.Now()
				parse.AddTime(parsed.Sub(start))
				restore.AddTime(done.Sub(parsed))
				total.AddTime(done.Sub(start))
			}
			total.SetWallTime(time.Since(wall))

			tbl := table.NewWriter()
			tbl.SetTitle(fmt.Sprintf("%s × %s", in.path, humanize.Comma(int64(iters))))
			tbl.SetOutputMirror(cmd.OutOrStdout())
			tbl.AppendHeader(table.Row{"stage", "avg", "min", "p75", "p99", "max"})
			for _, row := range []struct {
				name string
				t    *tachymeter.Tachymeter
			}{{"parse", parse}, {"resume", restore}, {"total", total}} {
				calc := row.t.Calc()
				tbl.AppendRow(table.Row{row.name, calc.Time.Avg, calc.Time.Min, calc.Time.P75, calc.Time.P99, calc.Time.Max})
			}
			tbl.AppendFooter(table.Row{"rate", fmt.Sprintf("%s/s", humanize.Comma(int64(total.Calc().Rate.Second)))})
			tbl.Render()
			return nil
		},
	}

	cmd.Flags().IntVarP(&iters, "iterations", "n", 1000, "Number of resumes")
	cmd.Flags().StringVarP(&dir, "config", "c", ".", "Directory containing resume.yaml")

	return cmd
}
