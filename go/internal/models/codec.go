package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// IsAbsent reports whether a raw snapshot value means "nothing stored".
func IsAbsent(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// DecodeTimer decodes a timer snapshot. An absent value yields nil.
func DecodeTimer(raw json.RawMessage) (*TimerRecord, error) {
	if IsAbsent(raw) {
		return nil, nil
	}
	var rec TimerRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode timer record: %w", err)
	}
	return &rec, nil
}

// DecodeDrivers decodes a drivers snapshot. An absent value yields an empty map.
func DecodeDrivers(raw json.RawMessage) (Drivers, error) {
	drivers := Drivers{}
	if IsAbsent(raw) {
		return drivers, nil
	}
	if err := json.Unmarshal(raw, &drivers); err != nil {
		return nil, fmt.Errorf("decode drivers: %w", err)
	}
	return drivers, nil
}
