package main

import (
	"bytes"
	"os"

	"github.com/vango-dev/resume/internal/config"
	"github.com/vango-dev/resume/internal/errors"
	"github.com/vango-dev/resume/pkg/resume"
)

// input is a file given on the command line: either an HTML page carrying a
// snapshot or a bare snapshot JSON file.
type input struct {
	path string
	data []byte
	doc  *resume.Document // nil for JSON input
	raw  []byte           // snapshot payload
}

func readInput(path string) (*input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E140").WithDetail(path).Wrap(err)
	}
	in := &input{path: path, data: data}

	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		in.raw = trimmed
		return in, nil
	}

	doc, err := resume.ParseDocument(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	raw, ok := doc.StateScript()
	if !ok {
		return nil, errors.New("E141").
			WithDetailf("%s has no %s script", path, resume.ScriptID).
			WithSuggestion("Render the page with Serializer.EmbedInHTML")
	}
	in.doc = doc
	in.raw = []byte(raw)
	return in, nil
}

func (in *input) snapshot() (*resume.Snapshot, error) {
	return resume.ParseSnapshot(in.raw)
}

// requireDocument fails for JSON input.
func (in *input) requireDocument() error {
	if in.doc == nil {
		return errors.New("E141").
			WithDetailf("%s is a snapshot file; this command needs an HTML page", in.path).
			WithSuggestion("Run 'resumectl embed' and place the script in a page")
	}
	return nil
}

// noopHandlers registers a handler that does nothing for every handler id
// referenced by snap.
func noopHandlers(snap *resume.Snapshot) *resume.HandlerRegistry {
	h := resume.NewHandlerRegistry()
	for _, n := range snap.Nodes {
		for _, l := range n.Listeners {
			h.Register(l.HandlerID, nopHandler)
		}
	}
	return h
}

// loadConfig reads resume.yaml from dir and applies the strategy override.
func loadConfig(dir, strategy string) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(dir)
	if err != nil {
		return nil, err
	}
	if strategy != "" {
		cfg.Resume.Strategy = strategy
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
