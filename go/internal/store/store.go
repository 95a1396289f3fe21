package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/segmentio/ksuid"
)

var (
	// ErrClosed is returned by every operation once the store is closed.
	ErrClosed = errors.New("store closed")
	// ErrInvalidPath is returned for paths or keys outside [A-Za-z0-9_-].
	ErrInvalidPath = errors.New("invalid store path")
)

var validSegment = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Store is a realtime key-value service. Every path holds either a single
// value written with WriteFull or a collection of keyed children written
// with WriteKeyed; the snapshot of a collection is a JSON object id -> value.
type Store interface {
	// Subscribe delivers the current value at path, then the full value
	// after every committed change. Absent values are delivered as nil.
	Subscribe(ctx context.Context, path string) (*Subscription, error)
	// ReadOnce returns the current value at path, nil when absent.
	ReadOnce(ctx context.Context, path string) (json.RawMessage, error)
	// WriteFull atomically replaces the value at path. nil or null deletes it.
	WriteFull(ctx context.Context, path string, value json.RawMessage) error
	// WriteKeyed creates a child under a newly generated key and returns it.
	WriteKeyed(ctx context.Context, path string, value json.RawMessage) (string, error)
	// RemoveKeyed deletes one child. Removing a missing child is not an error.
	RemoveKeyed(ctx context.Context, path, id string) error
	// RemoveAll deletes everything stored at path.
	RemoveAll(ctx context.Context, path string) error
	Close() error
}

// NewKey generates a collection key. KSUIDs sort lexicographically by
// creation second, like the push ids of hosted realtime databases.
func NewKey() string {
	return ksuid.New().String()
}

func validatePath(path string) error {
	if !validSegment.MatchString(path) {
		return fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return nil
}

func validateKey(path, id string) error {
	if err := validatePath(path); err != nil {
		return err
	}
	if !validSegment.MatchString(id) {
		return fmt.Errorf("%w: key %q", ErrInvalidPath, id)
	}
	return nil
}
