package domain

import (
	"fmt"
	"math"
	"time"
)

// GroupStatus is the lifecycle state of a savings group.
type GroupStatus string

const (
	GroupOpen      GroupStatus = "open"
	GroupFilled    GroupStatus = "filled"
	GroupActive    GroupStatus = "active"
	GroupFrozen    GroupStatus = "frozen"
	GroupCompleted GroupStatus = "completed"
)

// IsValid reports whether s is a known group status.
func (s GroupStatus) IsValid() bool {
	switch s {
	case GroupOpen, GroupFilled, GroupActive, GroupFrozen, GroupCompleted:
		return true
	}
	return false
}

// Frequency is the contribution cadence of a group.
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

// IsValid reports whether f is a supported cadence.
func (f Frequency) IsValid() bool {
	switch f {
	case Daily, Weekly, Monthly:
		return true
	}
	return false
}

// PayoutOrderRule selects how payout positions are assigned at activation.
type PayoutOrderRule string

const (
	PayoutAsJoined PayoutOrderRule = "as_joined"
	PayoutRandom   PayoutOrderRule = "random"
	PayoutRotating PayoutOrderRule = "rotating"
)

// IsValid reports whether r is a supported payout rule.
func (r PayoutOrderRule) IsValid() bool {
	switch r {
	case PayoutAsJoined, PayoutRandom, PayoutRotating:
		return true
	}
	return false
}

// FreezeInfo records why and by whom an active group was paused.
type FreezeInfo struct {
	Reason   string    `json:"reason"`
	FrozenBy string    `json:"frozenBy"`
	FrozenAt time.Time `json:"frozenAt"`
}

// Group is the aggregate root of a rotating savings group. Members and Rounds
// are owned by the group and only change through its methods; the whole
// aggregate is persisted as one unit.
type Group struct {
	GroupID                string          `json:"groupID"`
	Name                   string          `json:"name"`
	Description            string          `json:"description"`
	CurrencyCode           string          `json:"currencyCode"`
	ContributionAmount     int64           `json:"contributionAmount"` // minor units
	Frequency              Frequency       `json:"frequency"`
	MaxMembers             int             `json:"maxMembers"`
	MinMembers             int             `json:"minMembers"`
	CurrentMembers         int             `json:"currentMembers"`
	PayoutOrderRule        PayoutOrderRule `json:"payoutOrderRule"`
	ForfeitOnMissedPayment bool            `json:"forfeitOnMissedPayment"`
	Status                 GroupStatus     `json:"status"`
	CurrentRound           int             `json:"currentRound"`
	TotalRounds            int             `json:"totalRounds"`
	EscrowBalance          int64           `json:"escrowBalance"`
	TotalContributed       int64           `json:"totalContributed"`
	TotalPaidOut           int64           `json:"totalPaidOut"`
	Members                []Member        `json:"members"`
	Rounds                 []Round         `json:"rounds"`
	JoinCode               string          `json:"joinCode"`
	InviteLink             string          `json:"inviteLink"`
	FreezeInfo             *FreezeInfo     `json:"freeze,omitempty"`
	StartedAt              *time.Time      `json:"startedAt,omitempty"`
	CompletedAt            *time.Time      `json:"completedAt,omitempty"`
	Version                int64           `json:"version"`
	AuditFields
}

// NewGroupParams carries the creation inputs for NewGroup.
type NewGroupParams struct {
	GroupID                string
	Name                   string
	Description            string
	CurrencyCode           string
	ContributionAmount     int64
	Frequency              Frequency
	MaxMembers             int
	MinMembers             int
	PayoutOrderRule        PayoutOrderRule
	ForfeitOnMissedPayment bool
	JoinCode               string
	InviteLink             string
	CreatedBy              string
}

// NewGroup builds an open group with no members.
func NewGroup(p NewGroupParams, now time.Time) *Group {
	return &Group{
		GroupID:                p.GroupID,
		Name:                   p.Name,
		Description:            p.Description,
		CurrencyCode:           p.CurrencyCode,
		ContributionAmount:     p.ContributionAmount,
		Frequency:              p.Frequency,
		MaxMembers:             p.MaxMembers,
		MinMembers:             p.MinMembers,
		PayoutOrderRule:        p.PayoutOrderRule,
		ForfeitOnMissedPayment: p.ForfeitOnMissedPayment,
		Status:                 GroupOpen,
		Members:                []Member{},
		Rounds:                 []Round{},
		JoinCode:               p.JoinCode,
		InviteLink:             p.InviteLink,
		AuditFields: AuditFields{
			CreatedAt:     now,
			CreatedBy:     p.CreatedBy,
			LastUpdatedAt: now,
			LastUpdatedBy: p.CreatedBy,
		},
	}
}

// Round returns the round with the given 1-based number, or nil.
func (g *Group) Round(roundNumber int) *Round {
	if roundNumber < 1 || roundNumber > len(g.Rounds) {
		return nil
	}
	return &g.Rounds[roundNumber-1]
}

// ActiveRound returns the current round, or nil before activation and after completion.
func (g *Group) ActiveRound() *Round {
	if g.CurrentRound < 1 || g.CurrentRound > g.TotalRounds {
		return nil
	}
	return g.Round(g.CurrentRound)
}

// Touch stamps the last-update audit fields.
func (g *Group) Touch(actorID string, now time.Time) {
	g.LastUpdatedAt = now
	g.LastUpdatedBy = actorID
}

// Clone returns a deep copy of the aggregate.
func (g *Group) Clone() *Group {
	c := *g
	c.Members = make([]Member, len(g.Members))
	for i, m := range g.Members {
		c.Members[i] = m.clone()
	}
	c.Rounds = make([]Round, len(g.Rounds))
	for i, r := range g.Rounds {
		c.Rounds[i] = r.clone()
	}
	if g.FreezeInfo != nil {
		f := *g.FreezeInfo
		c.FreezeInfo = &f
	}
	c.StartedAt = cloneTime(g.StartedAt)
	c.CompletedAt = cloneTime(g.CompletedAt)
	return &c
}

// CheckInvariants verifies the cross-entity bookkeeping of the aggregate.
func (g *Group) CheckInvariants() error {
	if g.CurrentRound < 0 || g.CurrentRound > g.TotalRounds {
		return fmt.Errorf("current round %d outside [0, %d]", g.CurrentRound, g.TotalRounds)
	}
	if g.TotalRounds != 0 && len(g.Rounds) != g.TotalRounds {
		return fmt.Errorf("group has %d rounds but totalRounds is %d", len(g.Rounds), g.TotalRounds)
	}
	if g.EscrowBalance < 0 {
		return fmt.Errorf("escrow balance is negative: %d", g.EscrowBalance)
	}
	if active := g.ActiveMemberCount(); active != g.CurrentMembers {
		return fmt.Errorf("%d active members but currentMembers is %d", active, g.CurrentMembers)
	}

	var memberSum int64
	for _, m := range g.Members {
		memberSum += m.TotalContributed
	}
	if memberSum != g.TotalContributed {
		return fmt.Errorf("member contributions sum to %d but group total is %d", memberSum, g.TotalContributed)
	}

	var openRounds, paidOut int64
	for _, r := range g.Rounds {
		var sum int64
		seen := make(map[string]struct{}, len(r.Contributions))
		for _, c := range r.Contributions {
			if _, dup := seen[c.UserID]; dup {
				return fmt.Errorf("round %d has more than one contribution from %s", r.RoundNumber, c.UserID)
			}
			seen[c.UserID] = struct{}{}
			sum += c.Amount
		}
		if sum != r.TotalContributed {
			return fmt.Errorf("round %d contributions sum to %d but totalContributed is %d", r.RoundNumber, sum, r.TotalContributed)
		}
		if r.ExpectedTotal > 0 && r.TotalContributed > r.ExpectedTotal {
			return fmt.Errorf("round %d collected %d over expected %d", r.RoundNumber, r.TotalContributed, r.ExpectedTotal)
		}
		if r.Status == RoundCompleted {
			paidOut += r.PayoutAmount
		} else {
			openRounds += r.TotalContributed
		}
	}
	if openRounds != g.EscrowBalance {
		return fmt.Errorf("escrow balance %d does not match open round contributions %d", g.EscrowBalance, openRounds)
	}
	if paidOut != g.TotalPaidOut {
		return fmt.Errorf("completed rounds paid %d but totalPaidOut is %d", paidOut, g.TotalPaidOut)
	}
	return nil
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// RoundTotal returns amount × members, or false when the product does not fit
// in int64.
func RoundTotal(amount int64, members int) (int64, bool) {
	if amount < 0 || members < 0 {
		return 0, false
	}
	if members > 0 && amount > math.MaxInt64/int64(members) {
		return 0, false
	}
	return amount * int64(members), true
}
