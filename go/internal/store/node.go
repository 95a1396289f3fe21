package store

import (
	"encoding/json"
	"fmt"

	"github.com/mcdev12/racedash/go/internal/models"
)

// node is the content of one path: a single value or keyed children.
type node struct {
	leaf     json.RawMessage
	children map[string]json.RawMessage
}

func (n *node) empty() bool {
	return n == nil || (len(n.leaf) == 0 && len(n.children) == 0)
}

// value renders the snapshot of the node. Children win over a leaf.
func (n *node) value() (json.RawMessage, error) {
	if n.empty() {
		return nil, nil
	}
	if len(n.children) > 0 {
		raw, err := json.Marshal(n.children)
		if err != nil {
			return nil, fmt.Errorf("marshal children: %w", err)
		}
		return raw, nil
	}
	return n.leaf, nil
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if models.IsAbsent(raw) {
		return nil
	}
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out
}

func validateValue(value json.RawMessage) error {
	if models.IsAbsent(value) {
		return nil
	}
	if !json.Valid(value) {
		return fmt.Errorf("value is not valid JSON")
	}
	return nil
}
