package broadcast

import (
	"sync"
	"sync/atomic"

	"pricehub/internal/application/port"
)

// Registry tracks live subscribers. Writers replace the member map wholesale,
// so readers iterate an immutable copy without holding a lock.
type Registry struct {
	mu      sync.Mutex
	members atomic.Pointer[map[string]port.Subscriber]
}

func NewRegistry() *Registry {
	r := &Registry{}
	empty := map[string]port.Subscriber{}
	r.members.Store(&empty)
	return r
}

func (r *Registry) Register(sub port.Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := *r.members.Load()
	next := make(map[string]port.Subscriber, len(cur)+1)
	for id, s := range cur {
		next[id] = s
	}
	next[sub.ID()] = sub
	r.members.Store(&next)
}

// Unregister removes sub if it is the registered member for its id.
// It reports whether anything was removed.
func (r *Registry) Unregister(sub port.Subscriber) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := *r.members.Load()
	if existing, ok := cur[sub.ID()]; !ok || existing != sub {
		return false
	}
	next := make(map[string]port.Subscriber, len(cur))
	for id, s := range cur {
		if id != sub.ID() {
			next[id] = s
		}
	}
	r.members.Store(&next)
	return true
}

// Active returns a copy of the current members, safe to range over while
// others register or unregister.
func (r *Registry) Active() []port.Subscriber {
	cur := *r.members.Load()
	out := make([]port.Subscriber, 0, len(cur))
	for _, s := range cur {
		out = append(out, s)
	}
	return out
}

func (r *Registry) Contains(id string) bool {
	_, ok := (*r.members.Load())[id]
	return ok
}

func (r *Registry) Len() int { return len(*r.members.Load()) }
