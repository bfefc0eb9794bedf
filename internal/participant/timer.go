package participant

import "time"

// Remaining computes the countdown left for a participant as a pure function
// of start time, current time and the session's limit. Recomputing from the
// anchors each tick avoids drift from accumulated decrements. Returns 0 once
// the limit is reached; a zero limit means no countdown.
func Remaining(startedAt, now time.Time, limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	left := limit - now.Sub(startedAt)
	if left < 0 {
		return 0
	}
	return left
}

// Expired reports whether the countdown has run out.
func Expired(startedAt, now time.Time, limit time.Duration) bool {
	return limit > 0 && !now.Before(startedAt.Add(limit))
}
