package domain

import (
	"time"

	"github.com/SscSPs/rosca_app/internal/apperrors"
)

// Contribute records userID's payment into roundNumber (0 means the current
// round) and returns the updated round. Callers check Round.IsFunded to decide
// whether to pay out.
func (g *Group) Contribute(roundNumber int, userID string, amount int64, now time.Time) (*Round, error) {
	switch g.Status {
	case GroupActive:
	case GroupFrozen:
		return nil, apperrors.ErrGroupFrozen
	default:
		return nil, apperrors.Newf(apperrors.KindGroupNotActive, "group is %s", g.Status)
	}

	if roundNumber == 0 {
		roundNumber = g.CurrentRound
	}
	r := g.Round(roundNumber)
	if r == nil {
		return nil, apperrors.Newf(apperrors.KindNoActiveRound, "round %d does not exist", roundNumber)
	}
	if r.IsClosed() {
		return nil, apperrors.Newf(apperrors.KindRoundClosed, "round %d is %s", roundNumber, r.Status)
	}
	if roundNumber != g.CurrentRound {
		return nil, apperrors.Newf(apperrors.KindRoundNotCurrent, "round %d is not the current round %d", roundNumber, g.CurrentRound)
	}
	if amount != g.ContributionAmount {
		return nil, apperrors.Newf(apperrors.KindAmountMismatch, "amount %d does not match contribution amount %d", amount, g.ContributionAmount)
	}

	m := g.Member(userID)
	if m == nil {
		return nil, apperrors.ErrNotAMember
	}
	if !m.IsActive() {
		return nil, apperrors.ErrMemberNotActive
	}
	if r.HasContributionFrom(userID) {
		return nil, apperrors.ErrDuplicateContribution
	}
	if r.TotalContributed+amount > r.ExpectedTotal {
		return nil, apperrors.Newf(apperrors.KindRoundClosed, "round %d is already fully funded", roundNumber)
	}

	r.Contributions = append(r.Contributions, Contribution{UserID: userID, Amount: amount, PaidAt: now})
	r.TotalContributed += amount
	m.TotalContributed += amount
	g.EscrowBalance += amount
	g.TotalContributed += amount
	if r.advance(RoundInProgress) {
		r.StartedAt = &now
	}
	return r, nil
}
