package store

import (
	"encoding/json"
	"sync"
)

// hub fans committed snapshots out to the local subscriptions of a path.
// Callers serialize publish calls per path to keep delivery ordered.
type hub struct {
	mu   sync.RWMutex
	subs map[string]map[*Subscription]struct{}
}

func newHub() *hub {
	return &hub{subs: make(map[string]map[*Subscription]struct{})}
}

func (h *hub) add(path string) *Subscription {
	var sub *Subscription
	sub = NewSubscription(path, func() { h.remove(path, sub) })

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[path] == nil {
		h.subs[path] = make(map[*Subscription]struct{})
	}
	h.subs[path][sub] = struct{}{}
	return sub
}

func (h *hub) remove(path string, sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.subs[path]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.subs, path)
		}
	}
}

func (h *hub) targets(path string) []*Subscription {
	h.mu.RLock()
	defer h.mu.RUnlock()
	targets := make([]*Subscription, 0, len(h.subs[path]))
	for sub := range h.subs[path] {
		targets = append(targets, sub)
	}
	return targets
}

func (h *hub) publish(path string, value json.RawMessage) {
	for _, sub := range h.targets(path) {
		sub.Deliver(Event{Path: path, Value: value})
	}
}

func (h *hub) fail(path string, err error) {
	for _, sub := range h.targets(path) {
		sub.Deliver(Event{Path: path, Err: err})
	}
}

// paths returns every path with at least one live subscription.
func (h *hub) paths() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	paths := make([]string, 0, len(h.subs))
	for path := range h.subs {
		paths = append(paths, path)
	}
	return paths
}

func (h *hub) closeAll() {
	h.mu.RLock()
	var all []*Subscription
	for _, subs := range h.subs {
		for sub := range subs {
			all = append(all, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range all {
		sub.Close()
	}
}

func (h *hub) count(path string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[path])
}
