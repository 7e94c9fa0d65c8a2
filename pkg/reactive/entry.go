package reactive

import (
	"encoding/json"
	"sort"
)

// Entry is one serialized node. It is implemented by SignalEntry and
// ComputedEntry only.
type Entry interface {
	EntryID() NodeID
	EntryKind() Kind
	isEntry()
}

// SignalEntry is the serialized form of a signal.
type SignalEntry struct {
	ID         NodeID          `json:"id"`
	Kind       string          `json:"kind"`
	Value      json.RawMessage `json:"value"`
	Dependents []NodeID        `json:"dependents,omitempty"`
}

func (e SignalEntry) EntryID() NodeID { return e.ID }
func (e SignalEntry) EntryKind() Kind { return KindSignal }
func (SignalEntry) isEntry()          {}

// ComputedEntry is the serialized form of a computed: its cached value, the
// dirty flag at capture time and its direct dependencies.
type ComputedEntry struct {
	ID           NodeID          `json:"id"`
	Kind         string          `json:"kind"`
	Value        json.RawMessage `json:"value"`
	Dirty        bool            `json:"dirty"`
	Dependencies []NodeID        `json:"dependencies"`
	Dependents   []NodeID        `json:"dependents,omitempty"`
}

func (e ComputedEntry) EntryID() NodeID { return e.ID }
func (e ComputedEntry) EntryKind() Kind { return KindComputed }
func (ComputedEntry) isEntry()          {}

// Document is the serialized graph.
type Document struct {
	Version   string                   `json:"version"`
	Timestamp int64                    `json:"timestamp"`
	Signals   map[NodeID]SignalEntry   `json:"signals"`
	Computeds map[NodeID]ComputedEntry `json:"computeds"`
}

// Entries returns every entry, signals first, each group in natural id order.
func (d *Document) Entries() []Entry {
	out := make([]Entry, 0, len(d.Signals)+len(d.Computeds))
	for _, id := range sortedKeys(d.Signals) {
		e := d.Signals[id]
		e.ID = id
		out = append(out, e)
	}
	for _, id := range sortedKeys(d.Computeds) {
		e := d.Computeds[id]
		e.ID = id
		out = append(out, e)
	}
	return out
}

// Len returns the number of entries.
func (d *Document) Len() int {
	return len(d.Signals) + len(d.Computeds)
}

// Has reports whether the document carries an entry for id.
func (d *Document) Has(id NodeID) bool {
	if _, ok := d.Signals[id]; ok {
		return true
	}
	_, ok := d.Computeds[id]
	return ok
}

func sortedKeys[V any](m map[NodeID]V) []NodeID {
	keys := make([]NodeID, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return idLess(keys[i], keys[j]) })
	return keys
}
