package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.etcd.io/bbolt"
)

const (
	boltBucketLeaves   = "leaves"   // key: path -> JSON value
	boltBucketChildren = "children" // nested bucket per path, key: id -> JSON value
)

// Bolt is a Store persisted in a local bbolt file. Change notifications are
// delivered in-process, so every reader must share the same *Bolt.
type Bolt struct {
	// mu orders commits with their notifications
	mu      sync.Mutex
	storage *bbolt.DB
	hub     *hub
	newKey  func() string
	closed  bool
}

var _ Store = (*Bolt)(nil)

// NewBolt opens or creates the database at path.
func NewBolt(path string) (*Bolt, error) {
	instance, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt database: %w", err)
	}

	if err := instance.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(boltBucketLeaves)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(boltBucketChildren)); err != nil {
			return err
		}
		return nil
	}); err != nil {
		_ = instance.Close()
		return nil, fmt.Errorf("create bolt buckets: %w", err)
	}

	return &Bolt{storage: instance, hub: newHub(), newKey: NewKey}, nil
}

// Subscribe implements Store.
func (b *Bolt) Subscribe(ctx context.Context, path string) (*Subscription, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}

	value, err := b.read(path)
	if err != nil {
		return nil, err
	}
	sub := b.hub.add(path)
	sub.Deliver(Event{Path: path, Value: value})
	return sub, nil
}

// ReadOnce implements Store.
func (b *Bolt) ReadOnce(ctx context.Context, path string) (json.RawMessage, error) {
	if err := validatePath(path); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	return b.read(path)
}

// WriteFull implements Store.
func (b *Bolt) WriteFull(ctx context.Context, path string, value json.RawMessage) error {
	if err := validatePath(path); err != nil {
		return err
	}
	if err := validateValue(value); err != nil {
		return err
	}

	return b.update(path, func(tx *bbolt.Tx) error {
		if err := deleteChildren(tx, path); err != nil {
			return err
		}
		leaves := tx.Bucket([]byte(boltBucketLeaves))
		if raw := cloneRaw(value); raw != nil {
			return leaves.Put([]byte(path), raw)
		}
		return leaves.Delete([]byte(path))
	})
}

// WriteKeyed implements Store.
func (b *Bolt) WriteKeyed(ctx context.Context, path string, value json.RawMessage) (string, error) {
	if err := validatePath(path); err != nil {
		return "", err
	}
	if err := validateValue(value); err != nil {
		return "", err
	}

	id := b.newKey()
	err := b.update(path, func(tx *bbolt.Tx) error {
		if err := tx.Bucket([]byte(boltBucketLeaves)).Delete([]byte(path)); err != nil {
			return err
		}
		children, err := tx.Bucket([]byte(boltBucketChildren)).CreateBucketIfNotExists([]byte(path))
		if err != nil {
			return err
		}
		raw := cloneRaw(value)
		if raw == nil {
			raw = json.RawMessage("null")
		}
		return children.Put([]byte(id), raw)
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// RemoveKeyed implements Store.
func (b *Bolt) RemoveKeyed(ctx context.Context, path, id string) error {
	if err := validateKey(path, id); err != nil {
		return err
	}
	return b.update(path, func(tx *bbolt.Tx) error {
		children := tx.Bucket([]byte(boltBucketChildren)).Bucket([]byte(path))
		if children == nil {
			return nil
		}
		return children.Delete([]byte(id))
	})
}

// RemoveAll implements Store.
func (b *Bolt) RemoveAll(ctx context.Context, path string) error {
	if err := validatePath(path); err != nil {
		return err
	}
	return b.update(path, func(tx *bbolt.Tx) error {
		if err := deleteChildren(tx, path); err != nil {
			return err
		}
		return tx.Bucket([]byte(boltBucketLeaves)).Delete([]byte(path))
	})
}

// Close implements Store.
func (b *Bolt) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.hub.closeAll()
	return b.storage.Close()
}

func (b *Bolt) update(path string, fn func(tx *bbolt.Tx) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}

	if err := b.storage.Update(fn); err != nil {
		return fmt.Errorf("bolt update %s: %w", path, err)
	}

	value, err := b.read(path)
	if err != nil {
		return err
	}
	b.hub.publish(path, value)
	return nil
}

func (b *Bolt) read(path string) (json.RawMessage, error) {
	n := &node{}
	err := b.storage.View(func(tx *bbolt.Tx) error {
		if leaf := tx.Bucket([]byte(boltBucketLeaves)).Get([]byte(path)); leaf != nil {
			n.leaf = cloneRaw(leaf)
		}
		children := tx.Bucket([]byte(boltBucketChildren)).Bucket([]byte(path))
		if children == nil {
			return nil
		}
		return children.ForEach(func(k, v []byte) error {
			if n.children == nil {
				n.children = make(map[string]json.RawMessage)
			}
			n.children[string(k)] = cloneRaw(v)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("bolt read %s: %w", path, err)
	}
	return n.value()
}

func deleteChildren(tx *bbolt.Tx, path string) error {
	children := tx.Bucket([]byte(boltBucketChildren))
	if children.Bucket([]byte(path)) == nil {
		return nil
	}
	return children.DeleteBucket([]byte(path))
}
