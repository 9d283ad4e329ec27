package playback

import (
	"fmt"
	"math"
)

// FormatTime formats seconds as m:ss. Invalid or negative values format as 0:00.
func FormatTime(seconds float64) string {
	if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return "0:00"
	}
	total := int64(math.Floor(seconds))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
