package timekeeper

import "fmt"

// FormatSeconds renders seconds as zero-padded MM:SS. Minutes are not
// wrapped into hours, so 5400 becomes "90:00".
func FormatSeconds(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
