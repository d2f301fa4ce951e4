package services

import (
	"context"
	"log/slog"

	"github.com/SscSPs/rosca_app/internal/apperrors"
	"github.com/SscSPs/rosca_app/internal/core/domain"
	portssvc "github.com/SscSPs/rosca_app/internal/core/ports/services"
)

func (s *groupService) TriggerPayout(ctx context.Context, groupID string, roundNumber int, force bool, actorID string) (*portssvc.PayoutResult, error) {
	var result *portssvc.PayoutResult
	err := s.withGroupLock(ctx, groupID, func() error {
		var err error
		result, err = s.payoutLocked(ctx, groupID, roundNumber, force, actorID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// payoutLocked runs the two phase payout. The caller holds the group lock for
// the whole sequence so no other writer sees the round between the phases.
func (s *groupService) payoutLocked(ctx context.Context, groupID string, roundNumber int, force bool, actorID string) (*portssvc.PayoutResult, error) {
	var (
		phase   domain.PayoutPhase
		release domain.PayoutRelease
	)
	g, err := s.mutateLocked(ctx, groupID, actorID, func(g *domain.Group) error {
		r, p, err := g.BeginPayout(roundNumber, force, s.now())
		if err != nil {
			return err
		}
		phase = p
		release = g.ReleaseFor(r)
		if p != domain.PayoutStarted {
			return errNoChange
		}
		return nil
	})
	if err != nil {
		s.metrics.ObserveMutation("trigger_payout", err)
		return nil, err
	}

	if phase == domain.PayoutNoop {
		s.LogInfo(ctx, "Round already paid out, nothing to release",
			slog.String("group_id", groupID), slog.Int("round_number", release.RoundNumber))
		return &portssvc.PayoutResult{Group: g, RoundNumber: release.RoundNumber, AlreadyCompleted: true}, nil
	}

	logger := s.GetLogger(ctx).With(slog.String("group_id", groupID), slog.Int("round_number", release.RoundNumber))
	if phase == domain.PayoutStarted {
		s.audit(ctx, domain.AuditPayoutRequested, actorID, groupID, map[string]any{
			"roundNumber": release.RoundNumber,
			"recipientID": release.RecipientID,
			"amount":      release.Amount,
			"forced":      g.Round(release.RoundNumber).Forced,
		})
		if m := g.Member(release.RecipientID); m != nil && !m.IsActive() {
			logger.Warn("Paying out to a member who is no longer active", slog.String("recipient_id", release.RecipientID))
		}
	} else {
		logger.Info("Retrying pending payout release")
	}

	if err := s.ledger.Release(ctx, release); err != nil {
		s.metrics.LedgerRelease(err)
		logger.Error("Ledger release failed, round left awaiting payout", slog.String("error", err.Error()))
		s.audit(ctx, domain.AuditPayoutFailed, actorID, groupID, map[string]any{
			"roundNumber": release.RoundNumber,
			"amount":      release.Amount,
			"error":       err.Error(),
		})
		wrapped := apperrors.Wrap(apperrors.KindLedgerReleaseFailed, "ledger release failed", err)
		s.metrics.ObserveMutation("trigger_payout", wrapped)
		return nil, wrapped
	}
	s.metrics.LedgerRelease(nil)

	g, err = s.mutateLocked(ctx, groupID, actorID, func(g *domain.Group) error {
		return g.CompletePayout(release.RoundNumber, s.now())
	})
	if err != nil {
		// The ledger moved the money; the retry path completes the round.
		logger.Error("Failed to complete payout after release", slog.String("error", err.Error()))
		s.metrics.ObserveMutation("trigger_payout", err)
		return nil, err
	}

	s.metrics.Payout(g.CurrencyCode, release.Amount)
	s.record(ctx, "trigger_payout", domain.AuditPayoutCompleted, actorID, g, release.RoundNumber, map[string]any{
		"roundNumber":  release.RoundNumber,
		"recipientID":  release.RecipientID,
		"amount":       release.Amount,
		"currentRound": g.CurrentRound,
		"status":       g.Status,
	})
	logger.Info("Payout completed", slog.String("recipient_id", release.RecipientID), slog.Int64("amount", release.Amount))
	return &portssvc.PayoutResult{Group: g, RoundNumber: release.RoundNumber}, nil
}

func (s *groupService) FlagOverdueRound(ctx context.Context, groupID string) (bool, error) {
	var roundNumber int
	g, err := s.mutate(ctx, groupID, SystemActorID, func(g *domain.Group) error {
		if !g.MarkOverdue(s.now()) {
			return errNoChange
		}
		roundNumber = g.CurrentRound
		return nil
	})
	if err != nil {
		s.metrics.ObserveMutation("flag_overdue", err)
		return false, err
	}
	if roundNumber == 0 {
		return false, nil
	}

	r := g.Round(roundNumber)
	s.metrics.OverdueRound()
	s.record(ctx, "flag_overdue", domain.AuditRoundOverdue, SystemActorID, g, roundNumber, map[string]any{
		"roundNumber":      roundNumber,
		"dueDate":          r.DueDate,
		"totalContributed": r.TotalContributed,
		"expectedTotal":    r.ExpectedTotal,
	})
	s.LogWarn(ctx, "Round is overdue", slog.String("group_id", groupID), slog.Int("round_number", roundNumber))
	return true, nil
}
