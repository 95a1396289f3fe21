package store

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostgresRememberSuppressesRepeatedSnapshots(t *testing.T) {
	p := &Postgres{last: make(map[string]string)}
	value := json.RawMessage(`{"running":false,"startTime":0,"elapsed":0}`)

	// Subscribe seeds the first value, so the next identical refresh is quiet
	assert.True(t, p.remember("timer", value))
	assert.False(t, p.remember("timer", value))
	assert.False(t, p.remember("timer", json.RawMessage(string(value))))

	assert.True(t, p.remember("timer", json.RawMessage(`{"running":true,"startTime":5,"elapsed":0}`)))
	assert.True(t, p.remember("drivers", json.RawMessage(`null`)))
}
