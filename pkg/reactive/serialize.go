package reactive

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// DocumentVersion is the format version written by Serialize.
const DocumentVersion = "1.0.0"

// Snapshot captures every serializable signal and computed. Effects and
// transient nodes are left out, and edges pointing at them are dropped so the
// document only references nodes it contains.
func (g *Graph) Snapshot() (*Document, error) {
	doc := &Document{
		Version:   DocumentVersion,
		Timestamp: g.now().UnixMilli(),
		Signals:   make(map[NodeID]SignalEntry),
		Computeds: make(map[NodeID]ComputedEntry),
	}
	included := make(map[NodeID]bool)
	for _, id := range g.order {
		switch n := g.nodes[id].(type) {
		case *signalNode:
			included[id] = n.serializable
		case *computedNode:
			included[id] = n.serializable
		}
	}
	filter := func(ids []NodeID) []NodeID {
		out := make([]NodeID, 0, len(ids))
		for _, id := range ids {
			if included[id] {
				out = append(out, id)
			}
		}
		return out
	}

	for _, id := range g.order {
		if !included[id] {
			continue
		}
		switch n := g.nodes[id].(type) {
		case *signalNode:
			raw, err := n.val.encode()
			if err != nil {
				return nil, fmt.Errorf("reactive: serialize %s: %w", id, err)
			}
			doc.Signals[id] = SignalEntry{
				ID:         id,
				Kind:       KindSignal.String(),
				Value:      raw,
				Dependents: emptyToNil(filter(g.dependentsOf(id))),
			}
		case *computedNode:
			raw, err := n.val.encode()
			if err != nil {
				return nil, fmt.Errorf("reactive: serialize %s: %w", id, err)
			}
			doc.Computeds[id] = ComputedEntry{
				ID:           id,
				Kind:         KindComputed.String(),
				Value:        raw,
				Dirty:        n.dirty || (!n.hasValue && n.val.raw == nil),
				Dependencies: filter(n.deps),
				Dependents:   emptyToNil(filter(g.dependentsOf(id))),
			}
		}
	}
	return doc, nil
}

func emptyToNil(ids []NodeID) []NodeID {
	if len(ids) == 0 {
		return nil
	}
	return ids
}

// Serialize returns the JSON encoding of Snapshot.
func (g *Graph) Serialize() ([]byte, error) {
	doc, err := g.Snapshot()
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// Deserialize restores a document produced by Serialize. Any JSON object with
// "signals" and "computeds" members is accepted, so a full resumability
// snapshot can be passed as is.
func (g *Graph) Deserialize(data []byte) error {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if doc.Version != "" {
		got, ok := MajorVersion(doc.Version)
		if !ok {
			return fmt.Errorf("%w: invalid version %q", ErrInvalidDocument, doc.Version)
		}
		if want, _ := MajorVersion(DocumentVersion); got != want {
			return fmt.Errorf("%w: unsupported version %q", ErrInvalidDocument, doc.Version)
		}
	}
	return g.Restore(&doc)
}

// MajorVersion returns the semver major component of v ("v1" for "1.2.0"),
// accepting versions with or without the leading "v". ok is false when v is
// not valid semver.
func MajorVersion(v string) (major string, ok bool) {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return "", false
	}
	return semver.Major(v), true
}

// Restore rebuilds the nodes of doc in g with the same ids. No signal or
// computed constructor runs: signals take the recorded value and computeds
// become cache entries carrying their recorded dirty flag and dependencies.
// A clean entry serves its cached value until a dependency changes; a dirty
// one is re-evaluated on first read once ComputedFor attaches its function.
// Nodes that already exist with the same id and kind are overwritten.
//
// Every entry is validated before anything is applied, so a failing Restore
// leaves g untouched.
func (g *Graph) Restore(doc *Document) error {
	entries := doc.Entries()
	if err := g.validate(doc, entries); err != nil {
		return err
	}

	restored := make([]*computedNode, 0, len(doc.Computeds))
	for _, e := range entries {
		id := e.EntryID()
		if n, ok := idSuffix(id); ok && n > g.counter {
			g.counter = n
		}
		switch e := e.(type) {
		case SignalEntry:
			g.restoreSignal(e)
		case ComputedEntry:
			restored = append(restored, g.restoreComputed(e))
		}
	}

	// Edges go in once every node exists; references to nodes neither in the
	// document nor in the graph are dropped.
	for _, n := range restored {
		e := doc.Computeds[n.id]
		deps := make([]NodeID, 0, len(e.Dependencies))
		for _, d := range e.Dependencies {
			if _, ok := g.nodes[d]; ok && d != n.id {
				deps = append(deps, d)
			}
		}
		g.relink(n.id, n.deps, deps)
		n.deps = deps
		if e.Dirty {
			// No recorded versions: the first read with a function
			// attached re-evaluates.
			n.depVersions = nil
		} else {
			n.depVersions = g.versions(deps)
		}
	}
	g.logger.Debug("graph restored", "signals", len(doc.Signals), "computeds", len(doc.Computeds))
	return nil
}

func (g *Graph) validate(doc *Document, entries []Entry) error {
	for key, e := range doc.Signals {
		if e.ID != "" && e.ID != key {
			return fmt.Errorf("%w: signal %q stored under %q", ErrInvalidDocument, e.ID, key)
		}
		if _, dup := doc.Computeds[key]; dup {
			return fmt.Errorf("%w: %s is both a signal and a computed", ErrInvalidDocument, key)
		}
	}
	for key, e := range doc.Computeds {
		if e.ID != "" && e.ID != key {
			return fmt.Errorf("%w: computed %q stored under %q", ErrInvalidDocument, e.ID, key)
		}
	}
	for _, e := range entries {
		id := e.EntryID()
		if id == "" {
			return fmt.Errorf("%w: entry with empty id", ErrInvalidDocument)
		}
		var kind string
		var value json.RawMessage
		switch e := e.(type) {
		case SignalEntry:
			kind, value = e.Kind, e.Value
		case ComputedEntry:
			kind, value = e.Kind, e.Value
		}
		if kind != "" && kind != e.EntryKind().String() {
			return fmt.Errorf("%w: %s has kind %q, want %q", ErrInvalidDocument, id, kind, e.EntryKind())
		}
		if len(value) > 0 && !json.Valid(value) {
			return fmt.Errorf("%w: %s has an invalid value", ErrInvalidDocument, id)
		}
		if n, ok := g.nodes[id]; ok && n.nodeKind() != e.EntryKind() {
			return fmt.Errorf("%w: %s is registered as a %s", ErrInvalidDocument, id, n.nodeKind())
		}
	}
	return nil
}

func (g *Graph) restoreSignal(e SignalEntry) {
	if n, ok := g.nodes[e.ID].(*signalNode); ok {
		old, _ := n.val.encode()
		if bytes.Equal(bytes.TrimSpace(old), bytes.TrimSpace(e.Value)) {
			return
		}
		n.val.setRaw(e.Value)
		n.version++
		g.propagate(n.id)
		return
	}
	n := &signalNode{
		id:           e.ID,
		seq:          g.nextSeq(),
		epoch:        g.epoch,
		serializable: true,
		equal:        defaultEquals,
	}
	n.val.setRaw(e.Value)
	g.register(n)
}

func (g *Graph) restoreComputed(e ComputedEntry) *computedNode {
	n, ok := g.nodes[e.ID].(*computedNode)
	if !ok {
		n = &computedNode{
			id:           e.ID,
			seq:          g.nextSeq(),
			epoch:        g.epoch,
			serializable: true,
			equal:        defaultEquals,
		}
		g.register(n)
	}
	n.val.setRaw(e.Value)
	n.hasValue = true
	n.dirty = e.Dirty
	n.version++
	return n
}
