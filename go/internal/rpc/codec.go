package rpc

import (
	"encoding/json"
	"fmt"
)

// JSONCodec marshals plain Go structs with encoding/json. It replaces the
// protobuf JSON codec under the same name, so the wire content type stays
// application/json.
type JSONCodec struct{}

const codecNameJSON = "json"

// Name implements connect.Codec.
func (JSONCodec) Name() string {
	return codecNameJSON
}

// Marshal implements connect.Codec.
func (JSONCodec) Marshal(msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", msg, err)
	}
	return data, nil
}

// Unmarshal implements connect.Codec. An empty body leaves msg at its zero value.
func (JSONCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("unmarshal %T: %w", msg, err)
	}
	return nil
}
