package sapper

import "time"

// Timer gates repeated actions behind a fixed reaction delay. A new timer is
// due immediately.
type Timer struct {
	duration time.Duration
	deadline time.Time
}

func NewTimer(duration time.Duration) Timer {
	return Timer{duration: duration}
}

// Done reports whether the deadline has passed.
func (t *Timer) Done(now time.Time) bool {
	return !now.Before(t.deadline)
}

// Reset schedules the next deadline relative to now.
func (t *Timer) Reset(now time.Time) {
	t.deadline = now.Add(t.duration)
}

// NextIfDone resets the timer when it is due and reports whether it was.
func (t *Timer) NextIfDone(now time.Time) bool {
	if !t.Done(now) {
		return false
	}
	t.Reset(now)
	return true
}
