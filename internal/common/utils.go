package common

import "math"

// RoundHalfUp rounds to the nearest integer, with halves going toward +Inf
// (23.5 -> 24, -2.5 -> -2).
func RoundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// OrDefault returns s, or def when s is empty.
func OrDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
