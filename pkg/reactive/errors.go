package reactive

import (
	"errors"
	"fmt"
)

// ErrStaleHandle is returned when a handle created before Graph.Clear is used.
// Reads on such handles return the last known value without tracking and
// writes are dropped.
var ErrStaleHandle = errors.New("reactive: handle belongs to a cleared graph")

// ErrCycle is raised when a computed reads itself while being evaluated.
var ErrCycle = errors.New("reactive: circular dependency detected")

// ErrFlushLimit is returned by FlushSync when effects keep re-scheduling each
// other past the configured number of passes.
var ErrFlushLimit = errors.New("reactive: effects did not settle")

// ErrUnknownNode is returned for ids that are not registered in the graph.
var ErrUnknownNode = errors.New("reactive: unknown node")

// ErrNotWritable is returned when an untyped write targets a computed or effect.
var ErrNotWritable = errors.New("reactive: node is not a signal")

// ErrTypeMismatch is raised when a stored value cannot be read as the type of
// the handle attached to it.
var ErrTypeMismatch = errors.New("reactive: value does not match handle type")

// ErrDuplicateID is raised when an explicit key collides with a live node.
var ErrDuplicateID = errors.New("reactive: node id already registered")

// ErrInvalidDocument is returned by Deserialize for malformed or inconsistent
// input. Nothing is applied when it is returned.
var ErrInvalidDocument = errors.New("reactive: invalid graph document")

// TrackingError reports a failure raised while a computed or effect function
// ran. The node that failed keeps its previous value and dependencies.
type TrackingError struct {
	ID    NodeID
	Kind  Kind
	Cause any // recovered panic value when it was not an error
	Err   error
}

// Error implements the error interface.
func (e *TrackingError) Error() string {
	if e.Kind != 0 {
		return fmt.Sprintf("reactive: %s %s failed: %v", e.Kind, e.ID, e.Err)
	}
	return fmt.Sprintf("reactive: node %s failed: %v", e.ID, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *TrackingError) Unwrap() error {
	return e.Err
}

// asTrackingError converts a recovered panic value into a TrackingError. The
// innermost failing node is kept when failures nest.
func asTrackingError(id NodeID, kind Kind, r any) *TrackingError {
	switch v := r.(type) {
	case *TrackingError:
		if v.Kind == 0 && v.ID == id {
			v.Kind = kind
		}
		return v
	case error:
		return &TrackingError{ID: id, Kind: kind, Err: v}
	default:
		return &TrackingError{ID: id, Kind: kind, Cause: r, Err: fmt.Errorf("panic: %v", r)}
	}
}
