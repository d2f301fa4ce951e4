package domain

import "time"

// DueDate returns when roundNumber is due for a rotation started at start.
// Round n is due n periods after the start. Monthly dates follow time.AddDate
// normalisation, so a rotation started on Jan 31 is due on Mar 3 (or Mar 2).
func DueDate(start time.Time, f Frequency, roundNumber int) time.Time {
	switch f {
	case Daily:
		return start.AddDate(0, 0, roundNumber)
	case Weekly:
		return start.AddDate(0, 0, 7*roundNumber)
	case Monthly:
		return start.AddDate(0, roundNumber, 0)
	}
	return start
}

// MarkOverdue flags the current round when its due date passed before it was
// fully funded. It reports whether the flag changed.
func (g *Group) MarkOverdue(now time.Time) bool {
	if g.Status != GroupActive {
		return false
	}
	r := g.ActiveRound()
	if r == nil || r.Overdue || r.IsClosed() || r.IsFunded() {
		return false
	}
	if !now.After(r.DueDate) {
		return false
	}
	r.Overdue = true
	return true
}
