package domain

import "time"

// RoundStatus is the state of one rotation slot. It only moves forward.
type RoundStatus string

const (
	RoundPending       RoundStatus = "pending"
	RoundInProgress    RoundStatus = "in_progress"
	RoundPayoutPending RoundStatus = "payout_pending"
	RoundCompleted     RoundStatus = "completed"
)

var roundStatusRank = map[RoundStatus]int{
	RoundPending:       0,
	RoundInProgress:    1,
	RoundPayoutPending: 2,
	RoundCompleted:     3,
}

// Contribution is a single payment into a round.
type Contribution struct {
	UserID string    `json:"userID"`
	Amount int64     `json:"amount"`
	PaidAt time.Time `json:"paidAt"`
}

// Round is one rotation slot with a single designated recipient.
type Round struct {
	RoundNumber       int            `json:"roundNumber"`
	RecipientID       string         `json:"recipientID"`
	DueDate           time.Time      `json:"dueDate"`
	Status            RoundStatus    `json:"status"`
	Contributions     []Contribution `json:"contributions"`
	TotalContributed  int64          `json:"totalContributed"`
	ExpectedTotal     int64          `json:"expectedTotal"`
	PayoutAmount      int64          `json:"payoutAmount"`
	Forced            bool           `json:"forced"`
	Overdue           bool           `json:"overdue"`
	StartedAt         *time.Time     `json:"startedAt,omitempty"`
	PayoutRequestedAt *time.Time     `json:"payoutRequestedAt,omitempty"`
	CompletedAt       *time.Time     `json:"completedAt,omitempty"`
}

// IsFunded reports whether the round collected everything it expects.
// A round expecting nothing is never considered funded; it can only be forced.
func (r *Round) IsFunded() bool {
	return r.ExpectedTotal > 0 && r.TotalContributed >= r.ExpectedTotal
}

// IsClosed reports whether the round no longer accepts contributions.
func (r *Round) IsClosed() bool {
	return r.Status == RoundPayoutPending || r.Status == RoundCompleted
}

// HasContributionFrom reports whether userID already paid into this round.
func (r *Round) HasContributionFrom(userID string) bool {
	for _, c := range r.Contributions {
		if c.UserID == userID {
			return true
		}
	}
	return false
}

// advance moves the round to next, refusing any backward or same-state move.
func (r *Round) advance(next RoundStatus) bool {
	if roundStatusRank[next] <= roundStatusRank[r.Status] {
		return false
	}
	r.Status = next
	return true
}

func (r Round) clone() Round {
	r.Contributions = append([]Contribution(nil), r.Contributions...)
	if r.Contributions == nil {
		r.Contributions = []Contribution{}
	}
	r.StartedAt = cloneTime(r.StartedAt)
	r.PayoutRequestedAt = cloneTime(r.PayoutRequestedAt)
	r.CompletedAt = cloneTime(r.CompletedAt)
	return r
}
