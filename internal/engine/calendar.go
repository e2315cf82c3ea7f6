package engine

import "time"

// isRebalanceDay reports whether calendar[i] is the last trading day of its
// month, or the last day of the calendar.
func isRebalanceDay(calendar []time.Time, i int) bool {
	if i+1 >= len(calendar) {
		return true
	}
	y1, m1, _ := calendar[i].Date()
	y2, m2, _ := calendar[i+1].Date()
	return y1 != y2 || m1 != m2
}
