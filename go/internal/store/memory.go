package store

import (
	"context"
	"encoding/json"
	"sync"
)

// Memory is an in-process Store. It backs single-node deployments and tests.
type Memory struct {
	mu     sync.Mutex
	nodes  map[string]*node
	hub    *hub
	newKey func() string
	closed bool
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		nodes:  make(map[string]*node),
		hub:    newHub(),
		newKey: NewKey,
	}
}

var _ Store = (*Memory)(nil)

// Subscribe implements Store.
func (m *Memory) Subscribe(ctx context.Context, path string) (*Subscription, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}

	value, err := m.nodes[path].value()
	if err != nil {
		return nil, err
	}
	sub := m.hub.add(path)
	sub.Deliver(Event{Path: path, Value: value})
	return sub, nil
}

// ReadOnce implements Store.
func (m *Memory) ReadOnce(ctx context.Context, path string) (json.RawMessage, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	return m.nodes[path].value()
}

// WriteFull implements Store.
func (m *Memory) WriteFull(ctx context.Context, path string, value json.RawMessage) error {
	if err := validatePath(path); err != nil {
		return err
	}
	if err := validateValue(value); err != nil {
		return err
	}

	return m.mutate(path, func(n *node) {
		n.children = nil
		n.leaf = cloneRaw(value)
	})
}

// WriteKeyed implements Store.
func (m *Memory) WriteKeyed(ctx context.Context, path string, value json.RawMessage) (string, error) {
	if err := validatePath(path); err != nil {
		return "", err
	}
	if err := validateValue(value); err != nil {
		return "", err
	}

	id := m.newKey()
	err := m.mutate(path, func(n *node) {
		n.leaf = nil
		if n.children == nil {
			n.children = make(map[string]json.RawMessage)
		}
		n.children[id] = cloneRaw(value)
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// RemoveKeyed implements Store.
func (m *Memory) RemoveKeyed(ctx context.Context, path, id string) error {
	if err := validateKey(path, id); err != nil {
		return err
	}
	return m.mutate(path, func(n *node) {
		delete(n.children, id)
	})
}

// RemoveAll implements Store.
func (m *Memory) RemoveAll(ctx context.Context, path string) error {
	if err := validatePath(path); err != nil {
		return err
	}
	return m.mutate(path, func(n *node) {
		n.leaf = nil
		n.children = nil
	})
}

// Close implements Store. Open subscriptions are closed.
func (m *Memory) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	m.hub.closeAll()
	return nil
}

// Subscribers returns the number of live subscriptions on path.
func (m *Memory) Subscribers(path string) int {
	return m.hub.count(path)
}

// mutate applies fn to the node at path and publishes the new snapshot
// while still holding the lock, so subscribers see commits in order.
func (m *Memory) mutate(path string, fn func(n *node)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	n := m.nodes[path]
	if n == nil {
		n = &node{}
	}
	fn(n)
	if n.empty() {
		delete(m.nodes, path)
	} else {
		m.nodes[path] = n
	}

	value, err := n.value()
	if err != nil {
		return err
	}
	m.hub.publish(path, value)
	return nil
}
