package resume

import (
	"bytes"
	"encoding/json"

	"github.com/vango-dev/resume/internal/errors"
	"github.com/vango-dev/resume/pkg/reactive"
)

// SnapshotVersion is the format version written by NewSerializer.
const SnapshotVersion = "1.0.0"

// Snapshot is the portable form of a page: the serializable part of its
// reactive graph plus the DOM listener bindings needed to make it live again.
type Snapshot struct {
	Version    string                                     `json:"version"`
	Timestamp  int64                                      `json:"timestamp"`
	Signals    map[reactive.NodeID]reactive.SignalEntry   `json:"signals"`
	Computeds  map[reactive.NodeID]reactive.ComputedEntry `json:"computeds"`
	Nodes      map[string]Node                            `json:"nodes"`
	Components map[string]Component                       `json:"components"`
	Islands    map[string]Island                          `json:"islands"`
	Meta       Meta                                       `json:"meta"`

	// encoded is the exact payload CreateSnapshot measured.
	encoded []byte
}

// Meta describes the page a snapshot was taken from.
type Meta struct {
	Route  string         `json:"route"`
	Locale string         `json:"locale,omitempty"`
	Custom map[string]any `json:"custom,omitempty"`
}

// Node binds an element fingerprint to the listeners attached to it.
type Node struct {
	ID        string            `json:"id"`
	Tag       string            `json:"tag"`
	Attrs     map[string]string `json:"attrs,omitempty"`
	Listeners []Listener        `json:"listeners"`
}

// Listener is one event binding. Source is only present when the snapshot
// was built with source serialization enabled.
type Listener struct {
	Event     string `json:"event"`
	HandlerID string `json:"handlerId"`
	Source    string `json:"source,omitempty"`
}

// Component records a rendered component instance and the state it owns.
type Component struct {
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	Props   json.RawMessage   `json:"props,omitempty"`
	Signals []reactive.NodeID `json:"signals,omitempty"`
	Nodes   []string          `json:"nodes,omitempty"`
}

// Island records a client-side module mounted into a container element
// rendered with data-island, data-module and data-props attributes.
type Island struct {
	ID     string          `json:"id"`
	Module string          `json:"module"`
	Props  json.RawMessage `json:"props,omitempty"`
	NodeID string          `json:"node,omitempty"`
}

// GraphDocument returns the reactive part of the snapshot.
func (s *Snapshot) GraphDocument() *reactive.Document {
	return &reactive.Document{
		Version:   s.Version,
		Timestamp: s.Timestamp,
		Signals:   s.Signals,
		Computeds: s.Computeds,
	}
}

// Encode returns the JSON payload of the snapshot, without HTML escaping.
func (s *Snapshot) Encode() ([]byte, error) {
	if s.encoded != nil {
		return s.encoded, nil
	}
	return encodeJSON(s)
}

// Size returns the length of the encoded payload.
func (s *Snapshot) Size() (int, error) {
	data, err := s.Encode()
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

// ListenerCount returns the number of listeners across all nodes.
func (s *Snapshot) ListenerCount() int {
	n := 0
	for _, node := range s.Nodes {
		n += len(node.Listeners)
	}
	return n
}

func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// ParseSnapshot decodes a snapshot payload.
func ParseSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(bytes.TrimSpace(data), &s); err != nil {
		return nil, errors.New("E060").Wrap(err)
	}
	if s.Signals == nil {
		s.Signals = map[reactive.NodeID]reactive.SignalEntry{}
	}
	if s.Computeds == nil {
		s.Computeds = map[reactive.NodeID]reactive.ComputedEntry{}
	}
	return &s, nil
}
