package domain

import (
	"fmt"
	"time"

	"github.com/SscSPs/rosca_app/internal/apperrors"
)

// PayoutPhase tells the caller what BeginPayout decided.
type PayoutPhase int

const (
	// PayoutNoop means the round was already completed; nothing to release.
	PayoutNoop PayoutPhase = iota
	// PayoutStarted means the round just moved to payout_pending.
	PayoutStarted
	// PayoutRetry means the round was already payout_pending and the release must be retried.
	PayoutRetry
)

// PayoutRelease is the instruction handed to the external ledger. The pair
// (GroupID, RoundNumber) is its idempotency key.
type PayoutRelease struct {
	GroupID      string `json:"groupID"`
	RoundNumber  int    `json:"roundNumber"`
	RecipientID  string `json:"recipientID"`
	Amount       int64  `json:"amount"`
	CurrencyCode string `json:"currencyCode"`
}

// IdempotencyKey identifies the release across retries.
func (p PayoutRelease) IdempotencyKey() string {
	return fmt.Sprintf("%s:%d", p.GroupID, p.RoundNumber)
}

// BeginPayout is the first half of the payout. It validates the request and
// moves the round to payout_pending, fixing the amount to release. A completed
// round is a no-op so repeated triggers are safe.
func (g *Group) BeginPayout(roundNumber int, force bool, now time.Time) (*Round, PayoutPhase, error) {
	if roundNumber == 0 {
		roundNumber = g.CurrentRound
	}
	r := g.Round(roundNumber)
	if r != nil {
		switch r.Status {
		case RoundCompleted:
			return r, PayoutNoop, nil
		case RoundPayoutPending:
			return r, PayoutRetry, nil
		}
	}

	switch g.Status {
	case GroupActive:
	case GroupFrozen:
		return nil, PayoutNoop, apperrors.ErrGroupFrozen
	default:
		return nil, PayoutNoop, apperrors.Newf(apperrors.KindGroupNotActive, "group is %s", g.Status)
	}
	if g.CurrentRound < 1 || g.CurrentRound > g.TotalRounds {
		return nil, PayoutNoop, apperrors.ErrNoActiveRound
	}
	if roundNumber != g.CurrentRound {
		return nil, PayoutNoop, apperrors.Newf(apperrors.KindRoundNotCurrent, "round %d is not the current round %d", roundNumber, g.CurrentRound)
	}
	funded := r.IsFunded()
	if !funded && !force {
		return nil, PayoutNoop, apperrors.Newf(apperrors.KindRoundNotFunded, "round %d collected %d of %d", roundNumber, r.TotalContributed, r.ExpectedTotal)
	}

	r.advance(RoundPayoutPending)
	r.PayoutAmount = r.TotalContributed
	r.Forced = !funded
	r.PayoutRequestedAt = &now
	return r, PayoutStarted, nil
}

// ReleaseFor builds the ledger instruction for a payout_pending round.
func (g *Group) ReleaseFor(r *Round) PayoutRelease {
	return PayoutRelease{
		GroupID:      g.GroupID,
		RoundNumber:  r.RoundNumber,
		RecipientID:  r.RecipientID,
		Amount:       r.PayoutAmount,
		CurrencyCode: g.CurrencyCode,
	}
}

// CompletePayout is the second half of the payout, applied once the ledger
// confirmed the release. It debits escrow by exactly the released amount and
// advances the rotation.
func (g *Group) CompletePayout(roundNumber int, now time.Time) error {
	r := g.Round(roundNumber)
	if r == nil || r.Status != RoundPayoutPending {
		return apperrors.Newf(apperrors.KindInvalidTransition, "round %d is not awaiting payout", roundNumber)
	}
	r.advance(RoundCompleted)
	r.CompletedAt = &now
	g.EscrowBalance -= r.PayoutAmount
	g.TotalPaidOut += r.PayoutAmount

	if r.Forced && g.ForfeitOnMissedPayment {
		for i := range g.Members {
			m := &g.Members[i]
			if m.IsActive() && !m.Forfeited && !r.HasContributionFrom(m.UserID) {
				m.Forfeited = true
				m.ForfeitedInRound = r.RoundNumber
			}
		}
	}

	if g.CurrentRound < g.TotalRounds {
		g.CurrentRound++
		next := g.Round(g.CurrentRound)
		// Never more members than at activation, so this cannot overflow.
		next.ExpectedTotal, _ = RoundTotal(g.ContributionAmount, g.ActiveMemberCount())
		if next.advance(RoundInProgress) {
			next.StartedAt = &now
		}
		return nil
	}
	g.Status = GroupCompleted
	g.FreezeInfo = nil
	g.CompletedAt = &now
	return nil
}
