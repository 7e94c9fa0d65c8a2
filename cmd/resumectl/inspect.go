package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/vango-dev/resume/pkg/reactive"
	"github.com/vango-dev/resume/pkg/resume"
)

func inspectCmd() *cobra.Command {
	var width int

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show the contents of a snapshot",
		Long: `Show the contents of a snapshot embedded in an HTML page, or of a
snapshot JSON file.

Examples:
  resumectl inspect page.html
  resumectl inspect snapshot.json --width 80`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readInput(args[0])
			if err != nil {
				return err
			}
			snap, err := in.snapshot()
			if err != nil {
				return err
			}
			renderInspect(cmd.OutOrStdout(), in, snap, width)
			return nil
		},
	}

	cmd.Flags().IntVarP(&width, "width", "w", 40, "Truncate values to this many characters")

	return cmd
}

func renderInspect(out io.Writer, in *input, snap *resume.Snapshot, width int) {
	summary := table.NewWriter()
	summary.SetOutputMirror(out)
	summary.SetTitle("Snapshot")
	summary.AppendRows([]table.Row{
		{"file", in.path},
		{"version", snap.Version},
		{"route", snap.Meta.Route},
		{"taken", time.UnixMilli(snap.Timestamp).UTC().Format(time.RFC3339)},
		{"payload", humanize.Bytes(uint64(len(in.raw)))},
		{"signals", humanize.Comma(int64(len(snap.Signals)))},
		{"computeds", humanize.Comma(int64(len(snap.Computeds)))},
		{"nodes", humanize.Comma(int64(len(snap.Nodes)))},
		{"listeners", humanize.Comma(int64(snap.ListenerCount()))},
	})
	if in.doc != nil {
		summary.AppendRow(table.Row{"page", humanize.Bytes(uint64(len(in.data)))})
	}
	summary.Render()

	if len(snap.Signals) > 0 {
		t := newTable(out, "Signals", table.Row{"id", "value", "dependents"})
		for _, id := range sortedIDs(snap.Signals) {
			e := snap.Signals[id]
			t.AppendRow(table.Row{id, truncate(string(e.Value), width), joinIDs(e.Dependents)})
		}
		t.Render()
	}

	if len(snap.Computeds) > 0 {
		t := newTable(out, "Computeds", table.Row{"id", "value", "dirty", "dependencies", "dependents"})
		for _, id := range sortedIDs(snap.Computeds) {
			e := snap.Computeds[id]
			t.AppendRow(table.Row{id, truncate(string(e.Value), width), e.Dirty, joinIDs(e.Dependencies), joinIDs(e.Dependents)})
		}
		t.Render()
	}

	if len(snap.Nodes) > 0 {
		t := newTable(out, "Nodes", table.Row{"id", "tag", "listeners", "resolves"})
		for _, id := range sortedKeys(snap.Nodes) {
			n := snap.Nodes[id]
			var ls []string
			for _, l := range n.Listeners {
				ls = append(ls, l.Event+" → "+l.HandlerID)
			}
			resolves := "-"
			if in.doc != nil {
				_, ok := in.doc.Lookup(id)
				resolves = fmt.Sprint(ok)
			}
			t.AppendRow(table.Row{id, n.Tag, strings.Join(ls, "\n"), resolves})
		}
		t.Render()
	}

	if len(snap.Components) > 0 {
		t := newTable(out, "Components", table.Row{"id", "name", "signals", "nodes"})
		for _, id := range sortedKeys(snap.Components) {
			c := snap.Components[id]
			t.AppendRow(table.Row{id, c.Name, joinIDs(c.Signals), len(c.Nodes)})
		}
		t.Render()
	}

	if len(snap.Islands) > 0 {
		t := newTable(out, "Islands", table.Row{"id", "module", "node", "props"})
		for _, id := range sortedKeys(snap.Islands) {
			isl := snap.Islands[id]
			t.AppendRow(table.Row{id, isl.Module, isl.NodeID, truncate(string(isl.Props), width)})
		}
		t.Render()
	}
}

func newTable(out io.Writer, title string, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetTitle(title)
	t.AppendHeader(header)
	return t
}

func truncate(s string, width int) string {
	if width <= 0 || len(s) <= width {
		return s
	}
	if width <= 1 {
		return "…"
	}
	return s[:width-1] + "…"
}

func joinIDs(ids []reactive.NodeID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ", ")
}

func sortedIDs[V any](m map[reactive.NodeID]V) []reactive.NodeID {
	ids := make([]reactive.NodeID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
