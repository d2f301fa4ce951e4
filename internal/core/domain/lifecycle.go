package domain

import (
	"fmt"
	"time"

	"github.com/SscSPs/rosca_app/internal/apperrors"
)

// Activate starts the rotation: it fixes totalRounds, assigns payout positions
// with strategy and materialises one round per active member.
func (g *Group) Activate(strategy PayoutOrderStrategy, now time.Time) error {
	if !g.acceptsMembers() {
		return apperrors.Newf(apperrors.KindInvalidTransition, "cannot activate a group in status %s", g.Status)
	}
	if g.CurrentMembers < g.MinMembers || g.CurrentMembers == 0 {
		return apperrors.Newf(apperrors.KindInsufficientMembers, "group has %d members, at least %d required", g.CurrentMembers, g.MinMembers)
	}

	order := strategy.Order(g.ActiveMembers())
	expected, ok := RoundTotal(g.ContributionAmount, len(order))
	if !ok {
		return apperrors.NewValidationFailedError(fmt.Sprintf("contribution amount %d for %d members overflows the round total", g.ContributionAmount, len(order)))
	}
	rounds := make([]Round, len(order))
	for i, userID := range order {
		position := i + 1
		g.Member(userID).PayoutPosition = position
		rounds[i] = Round{
			RoundNumber:   position,
			RecipientID:   userID,
			DueDate:       DueDate(now, g.Frequency, position),
			Status:        RoundPending,
			Contributions: []Contribution{},
			ExpectedTotal: expected,
		}
	}
	rounds[0].Status = RoundInProgress
	rounds[0].StartedAt = &now

	g.Rounds = rounds
	g.TotalRounds = len(rounds)
	g.CurrentRound = 1
	g.Status = GroupActive
	g.StartedAt = &now
	return nil
}

// Freeze pauses an active group. Contributions are rejected until Unfreeze.
func (g *Group) Freeze(reason, actorID string, now time.Time) error {
	if g.Status != GroupActive {
		return apperrors.Newf(apperrors.KindInvalidTransition, "only active groups can be frozen, group is %s", g.Status)
	}
	g.Status = GroupFrozen
	g.FreezeInfo = &FreezeInfo{Reason: reason, FrozenBy: actorID, FrozenAt: now}
	return nil
}

// Unfreeze releases a frozen group to target, which defaults to active.
func (g *Group) Unfreeze(target GroupStatus, now time.Time) error {
	if g.Status != GroupFrozen {
		return apperrors.Newf(apperrors.KindInvalidTransition, "group is %s, not frozen", g.Status)
	}
	if target == "" {
		target = GroupActive
	}
	switch target {
	case GroupActive:
	case GroupCompleted:
		g.CompletedAt = &now
	default:
		return apperrors.Newf(apperrors.KindValidation, "unfreeze target must be active or completed, got %q", target)
	}
	g.Status = target
	g.FreezeInfo = nil
	return nil
}
