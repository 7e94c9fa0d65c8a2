package resume

import (
	"sort"
	"sync"

	"github.com/dop251/goja"

	"github.com/vango-dev/resume/internal/errors"
	"github.com/vango-dev/resume/pkg/reactive"
)

// Event is delivered to handlers by Document.Dispatch.
type Event struct {
	NodeID string
	Type   string
	Data   any
	Target Element
}

// HandlerFunc handles an event against the resumed graph.
type HandlerFunc func(g *reactive.Graph, ev Event) error

// HandlerRegistry maps handler ids recorded in snapshots to implementations
// registered by the consuming application. It is safe for concurrent use, so
// one registry can serve every request.
type HandlerRegistry struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc
}

// NewHandlerRegistry creates an empty registry.
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{handlers: make(map[string]HandlerFunc)}
}

// Register adds or replaces the handler for id.
func (r *HandlerRegistry) Register(id string, fn HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[id] = fn
}

// Lookup returns the handler registered for id.
func (r *HandlerRegistry) Lookup(id string) (HandlerFunc, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.handlers[id]
	return fn, ok
}

// IDs returns every registered id, sorted.
func (r *HandlerRegistry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.handlers))
	for id := range r.handlers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered handlers.
func (r *HandlerRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}

// CompileSource turns handler source captured in a snapshot into a
// HandlerFunc. The source must evaluate to a JavaScript function taking
// (event, state); state.get(id) and state.set(id, value) read and write graph
// values. Each compiled handler owns its own JavaScript runtime.
func CompileSource(src string) (HandlerFunc, error) {
	vm := goja.New()
	v, err := vm.RunString("(" + src + ")")
	if err != nil {
		return nil, errors.New("E043").Wrap(err)
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return nil, errors.New("E043").WithDetail("source does not evaluate to a function")
	}

	return func(g *reactive.Graph, ev Event) error {
		state := vm.NewObject()
		if err := state.Set("get", func(id string) any {
			v, err := g.Value(reactive.NodeID(id))
			if err != nil {
				panic(vm.NewGoError(err))
			}
			return v
		}); err != nil {
			return err
		}
		if err := state.Set("set", func(id string, value any) {
			if err := g.SetValue(reactive.NodeID(id), value); err != nil {
				panic(vm.NewGoError(err))
			}
		}); err != nil {
			return err
		}
		event := vm.ToValue(map[string]any{
			"node": ev.NodeID,
			"type": ev.Type,
			"data": ev.Data,
		})
		_, err := fn(goja.Undefined(), event, state)
		return err
	}, nil
}
