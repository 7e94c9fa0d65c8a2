package reactive

import (
	"strconv"
)

// NodeID identifies a node inside one Graph. Generated ids look like "s1",
// "c2" and "e3"; explicit ids come from PersistKey.
type NodeID string

// Kind discriminates the three node types held by a Graph.
type Kind uint8

const (
	KindSignal Kind = iota + 1
	KindComputed
	KindEffect
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case KindSignal:
		return "signal"
	case KindComputed:
		return "computed"
	case KindEffect:
		return "effect"
	default:
		return "unknown"
	}
}

func (k Kind) prefix() string {
	switch k {
	case KindSignal:
		return "s"
	case KindComputed:
		return "c"
	default:
		return "e"
	}
}

// Node is implemented by every handle returned from this package.
type Node interface {
	ID() NodeID
	Kind() Kind
}

// IsSignal reports whether v is a signal handle.
func IsSignal(v any) bool { return isKind(v, KindSignal) }

// IsComputed reports whether v is a computed handle.
func IsComputed(v any) bool { return isKind(v, KindComputed) }

// IsEffect reports whether v is an effect handle.
func IsEffect(v any) bool { return isKind(v, KindEffect) }

func isKind(v any, k Kind) bool {
	n, ok := v.(Node)
	return ok && n.Kind() == k
}

// idSuffix returns the numeric counter embedded in a generated id such as
// "c12". Explicit ids report false.
func idSuffix(id NodeID) (uint64, bool) {
	s := string(id)
	if len(s) < 2 {
		return 0, false
	}
	switch s[0] {
	case 's', 'c', 'e':
	default:
		return 0, false
	}
	n, err := strconv.ParseUint(s[1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// idLess orders ids naturally so that "s2" sorts before "s10".
func idLess(a, b NodeID) bool {
	na, okA := idSuffix(a)
	nb, okB := idSuffix(b)
	switch {
	case okA && okB:
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		return na < nb
	case okA:
		return true
	case okB:
		return false
	default:
		return a < b
	}
}
