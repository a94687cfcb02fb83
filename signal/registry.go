package signal

import (
	"sort"
	"sync"
)

type entry struct {
	name    string
	handler Handler
}

// Registry maps (kind, source) pairs to handlers in registration order.
// Registrations are never removed. It is safe for concurrent use, although
// registration is expected to finish before the first Raise.
type Registry struct {
	mu       sync.RWMutex
	handlers map[Key][]entry
	total    int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[Key][]entry)}
}

// Register appends h to the handlers for (kind, source). Registering the
// same handler twice makes it run twice.
func (r *Registry) Register(kind Kind, source Source, h Handler) {
	k := Key{Kind: kind, Source: source}
	e := entry{name: HandlerName(h), handler: h}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[k] = append(r.handlers[k], e)
	r.total++
}

// Handlers returns the handlers registered for (kind, source) in
// registration order.
func (r *Registry) Handlers(kind Kind, source Source) []Handler {
	entries := r.entries(Key{Kind: kind, Source: source})
	out := make([]Handler, len(entries))
	for i, e := range entries {
		out[i] = e.handler
	}
	return out
}

// Len returns the total number of registrations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.total
}

// Keys returns every (kind, source) pair with at least one handler, sorted.
func (r *Registry) Keys() []Key {
	r.mu.RLock()
	keys := make([]Key, 0, len(r.handlers))
	for k := range r.handlers {
		keys = append(keys, k)
	}
	r.mu.RUnlock()

	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// entries returns a snapshot so handlers registered during a dispatch do
// not join it.
func (r *Registry) entries(k Key) []entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src := r.handlers[k]
	if len(src) == 0 {
		return nil
	}
	out := make([]entry, len(src))
	copy(out, src)
	return out
}
