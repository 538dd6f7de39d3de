package quota

import "time"

// Evaluation is the outcome of evaluating an entry at a point in time.
type Evaluation struct {
	// Entry after the window reset step. Never incremented.
	Entry Entry
	// Reset is true when the window had elapsed and the entry was reset.
	Reset bool
	// Allowed is true when one more generation fits under the limit.
	Allowed bool
}

// Evaluate applies the window reset rule to e and checks admission.
// It has no side effects; persisting the result is the caller's job.
func Evaluate(e Entry, now time.Time, p Policy) Evaluation {
	ev := Evaluation{Entry: e}
	if now.Sub(e.WindowStart) >= p.WindowLength {
		ev.Entry = NewEntry(now)
		ev.Reset = true
	}
	ev.Allowed = ev.Entry.Count < p.Limit
	return ev
}
