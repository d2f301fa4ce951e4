package domain

import "time"

// MemberStatus is the participation state of a member.
type MemberStatus string

const (
	MemberActive  MemberStatus = "active"
	MemberRemoved MemberStatus = "removed"
)

// Member is a user's seat in a group. Identity lives in the user directory;
// the group only keeps the reference and its own bookkeeping.
type Member struct {
	UserID           string       `json:"userID"`
	PayoutPosition   int          `json:"payoutPosition"` // 0 until activation
	TotalContributed int64        `json:"totalContributed"`
	Status           MemberStatus `json:"status"`
	JoinedAt         time.Time    `json:"joinedAt"`
	RemovedAt        *time.Time   `json:"removedAt,omitempty"`
	RemovalReason    string       `json:"removalReason,omitempty"`
	Forfeited        bool         `json:"forfeited"`
	ForfeitedInRound int          `json:"forfeitedInRound,omitempty"`
}

// IsActive reports whether the member currently participates.
func (m Member) IsActive() bool {
	return m.Status == MemberActive
}

func (m Member) clone() Member {
	m.RemovedAt = cloneTime(m.RemovedAt)
	return m
}

// Member returns the member record for userID, or nil.
func (g *Group) Member(userID string) *Member {
	for i := range g.Members {
		if g.Members[i].UserID == userID {
			return &g.Members[i]
		}
	}
	return nil
}

// ActiveMemberCount counts members with status active.
func (g *Group) ActiveMemberCount() int {
	n := 0
	for _, m := range g.Members {
		if m.IsActive() {
			n++
		}
	}
	return n
}

// ActiveMembers returns the active members in insertion order.
func (g *Group) ActiveMembers() []Member {
	out := make([]Member, 0, len(g.Members))
	for _, m := range g.Members {
		if m.IsActive() {
			out = append(out, m)
		}
	}
	return out
}
