package domain

import (
	"time"

	"github.com/SscSPs/rosca_app/internal/apperrors"
)

func (g *Group) acceptsMembers() bool {
	return g.Status == GroupOpen || g.Status == GroupFilled
}

// syncCapacityStatus keeps the open/filled distinction in line with the
// member count. It never touches groups that have started their rotation.
func (g *Group) syncCapacityStatus() {
	if !g.acceptsMembers() {
		return
	}
	if g.CurrentMembers >= g.MaxMembers {
		g.Status = GroupFilled
	} else {
		g.Status = GroupOpen
	}
}

// Join adds userID as an active member. A previously removed member joining
// again keeps their record and contribution history.
func (g *Group) Join(userID string, now time.Time) error {
	if !g.acceptsMembers() {
		return apperrors.ErrGroupNotOpen
	}
	if g.CurrentMembers >= g.MaxMembers {
		return apperrors.ErrGroupFull
	}
	if m := g.Member(userID); m != nil {
		if m.IsActive() {
			return apperrors.ErrAlreadyMember
		}
		m.Status = MemberActive
		m.RemovedAt = nil
		m.RemovalReason = ""
	} else {
		g.Members = append(g.Members, Member{
			UserID:   userID,
			Status:   MemberActive,
			JoinedAt: now,
		})
	}
	g.CurrentMembers++
	g.syncCapacityStatus()
	return nil
}

// Leave deletes userID from a group that has not started its rotation.
func (g *Group) Leave(userID string) error {
	if !g.acceptsMembers() {
		return apperrors.ErrNotOpenForLeaving
	}
	idx := -1
	for i := range g.Members {
		if g.Members[i].UserID == userID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return apperrors.ErrNotAMember
	}
	if g.Members[idx].IsActive() {
		g.CurrentMembers--
	}
	g.Members = append(g.Members[:idx], g.Members[idx+1:]...)
	g.syncCapacityStatus()
	return nil
}

// RemoveMember soft-removes userID in any status. Payout positions and round
// recipients are left untouched.
func (g *Group) RemoveMember(userID, reason string, now time.Time) error {
	m := g.Member(userID)
	if m == nil {
		return apperrors.ErrNotAMember
	}
	if !m.IsActive() {
		return apperrors.ErrAlreadyRemoved
	}
	m.Status = MemberRemoved
	m.RemovedAt = &now
	m.RemovalReason = reason
	g.CurrentMembers--
	g.syncCapacityStatus()
	return nil
}

// ReinstateMember reverses RemoveMember.
func (g *Group) ReinstateMember(userID string) error {
	m := g.Member(userID)
	if m == nil {
		return apperrors.ErrNotAMember
	}
	if m.Status != MemberRemoved {
		return apperrors.ErrNotRemoved
	}
	if g.acceptsMembers() && g.CurrentMembers >= g.MaxMembers {
		return apperrors.ErrGroupFull
	}
	if g.TotalRounds > 0 && m.PayoutPosition == 0 {
		return apperrors.ErrNotInRotation
	}
	m.Status = MemberActive
	m.RemovedAt = nil
	m.RemovalReason = ""
	g.CurrentMembers++
	g.syncCapacityStatus()
	return nil
}
