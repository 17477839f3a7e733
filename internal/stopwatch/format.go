package stopwatch

import (
	"fmt"
	"time"
)

const hundredth = 10 * time.Millisecond

// Format renders d as MM:SS.CC. Minutes wrap at 60 and hundredths are
// truncated, never rounded. Negative durations render as zero.
func Format(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	cs := int64(d / hundredth)
	return fmt.Sprintf("%02d:%02d.%02d", cs/6000%60, cs/100%60, cs%100)
}

// FormatSeconds is Format for a real number of seconds.
func FormatSeconds(seconds float64) string {
	return Format(time.Duration(seconds * float64(time.Second)))
}
