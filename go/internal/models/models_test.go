package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElapsedAtRunning(t *testing.T) {
	start := time.UnixMilli(10_000)
	rec := RunningTimer(start, 5_000)

	assert.Equal(t, int64(5_000), rec.ElapsedAt(start))
	assert.Equal(t, int64(7_500), rec.ElapsedAt(start.Add(2500*time.Millisecond)))
}

func TestElapsedAtClampsClockSkew(t *testing.T) {
	// a reader whose clock is behind the writer must never see a negative segment
	start := time.UnixMilli(10_000)
	rec := RunningTimer(start, 5_000)

	assert.Equal(t, int64(0), rec.SegmentAt(start.Add(-time.Second)))
	assert.Equal(t, int64(5_000), rec.ElapsedAt(start.Add(-time.Second)))
}

func TestElapsedAtRunningWithoutStartTime(t *testing.T) {
	var rec TimerRecord
	require.NoError(t, json.Unmarshal([]byte(`{"running":true,"elapsed":5000}`), &rec))

	now := time.UnixMilli(1_700_000_000_000)
	assert.Equal(t, int64(0), rec.SegmentAt(now))
	assert.Equal(t, int64(5_000), rec.ElapsedAt(now))
}

func TestElapsedAtStoppedIgnoresClock(t *testing.T) {
	rec := StoppedTimer(42)
	assert.Equal(t, int64(42), rec.ElapsedAt(time.UnixMilli(1_000_000)))
	assert.Equal(t, int64(0), rec.StartTime)
}

func TestDecodeTimerAbsent(t *testing.T) {
	for _, raw := range []string{"", "null", "  null \n"} {
		rec, err := DecodeTimer(json.RawMessage(raw))
		require.NoError(t, err)
		assert.Nil(t, rec)
	}
}

func TestDecodeTimerMissingFieldsDefaultToZero(t *testing.T) {
	rec, err := DecodeTimer(json.RawMessage(`{"running":true,"startTime":99}`))
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, TimerRecord{Running: true, StartTime: 99, Elapsed: 0}, *rec)
}

func TestDecodeDrivers(t *testing.T) {
	drivers, err := DecodeDrivers(nil)
	require.NoError(t, err)
	assert.Empty(t, drivers)

	drivers, err = DecodeDrivers(json.RawMessage(`{"a":{"name":"Ayrton","team":"McLaren","car":"MP4/4","createdAt":1}}`))
	require.NoError(t, err)
	assert.Equal(t, Drivers{"a": {Name: "Ayrton", Team: "McLaren", Car: "MP4/4", CreatedAt: 1}}, drivers)

	_, err = DecodeDrivers(json.RawMessage(`[1,2]`))
	assert.Error(t, err)
}
