package utils

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const progressCells = 33

// FormatDuration formats d as HH:MM:SS. Hours are not wrapped into days.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}

// ProgressBar draws how far through total elapsed is
func ProgressBar(elapsed, total time.Duration) string {
	percent := 0.0
	if total > 0 {
		percent = math.Ceil(float64(elapsed) / float64(total) * 100)
	}

	var sb strings.Builder
	for i := 0; i < progressCells; i++ {
		if percent/3 >= float64(i) {
			sb.WriteString("█")
		} else {
			sb.WriteString("░")
		}
	}
	return sb.String()
}
