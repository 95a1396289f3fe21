package models

import "time"

// Store paths shared by every surface.
const (
	PathTimer   = "timer"
	PathDrivers = "drivers"
)

// TimerRecord is the persisted state of the shared race timer.
// StartTime is only meaningful while Running; Elapsed holds the sum of all
// completed run segments.
type TimerRecord struct {
	Running   bool  `json:"running"`
	StartTime int64 `json:"startTime"`
	Elapsed   int64 `json:"elapsed"`
}

// StoppedTimer returns a committed stopped record holding elapsed milliseconds.
func StoppedTimer(elapsed int64) TimerRecord {
	if elapsed < 0 {
		elapsed = 0
	}
	return TimerRecord{Running: false, StartTime: 0, Elapsed: elapsed}
}

// RunningTimer returns a record whose current run segment began at start.
func RunningTimer(start time.Time, elapsed int64) TimerRecord {
	if elapsed < 0 {
		elapsed = 0
	}
	return TimerRecord{Running: true, StartTime: start.UnixMilli(), Elapsed: elapsed}
}

// SegmentAt returns the length of the in-progress run segment at now,
// clamped to zero when the writer's clock was ahead of ours. A running
// record without a start time counts as started at now.
func (t TimerRecord) SegmentAt(now time.Time) int64 {
	if !t.Running || t.StartTime <= 0 {
		return 0
	}
	delta := now.UnixMilli() - t.StartTime
	if delta < 0 {
		return 0
	}
	return delta
}

// ElapsedAt returns the total elapsed milliseconds at now.
func (t TimerRecord) ElapsedAt(now time.Time) int64 {
	elapsed := t.Elapsed
	if elapsed < 0 {
		elapsed = 0
	}
	return elapsed + t.SegmentAt(now)
}
