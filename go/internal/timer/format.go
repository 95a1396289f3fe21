package timer

import (
	"fmt"
	"time"

	"github.com/mcdev12/racedash/go/internal/models"
)

// FormatElapsed renders milliseconds as HH:MM:SS. Hours grow past 99
// without wrapping; negative input is treated as zero.
func FormatElapsed(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	total := ms / 1000
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// Displayed returns the elapsed milliseconds to show at now for rec.
// A nil record is the default stopped timer.
func Displayed(rec *models.TimerRecord, now time.Time) int64 {
	if rec == nil {
		return 0
	}
	return rec.ElapsedAt(now)
}
