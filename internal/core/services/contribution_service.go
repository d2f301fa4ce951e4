package services

import (
	"context"
	"log/slog"

	"github.com/SscSPs/rosca_app/internal/core/domain"
	portssvc "github.com/SscSPs/rosca_app/internal/core/ports/services"
)

func (s *groupService) Contribute(ctx context.Context, groupID string, roundNumber int, userID string, amount int64) (*portssvc.ContributionResult, error) {
	var result *portssvc.ContributionResult
	err := s.withGroupLock(ctx, groupID, func() error {
		var (
			round  int
			funded bool
		)
		g, err := s.mutateLocked(ctx, groupID, userID, func(g *domain.Group) error {
			r, err := g.Contribute(roundNumber, userID, amount, s.now())
			if err != nil {
				return err
			}
			round = r.RoundNumber
			funded = r.IsFunded()
			return nil
		})
		if err != nil {
			s.metrics.ObserveMutation("contribute", err)
			return err
		}

		r := g.Round(round)
		s.metrics.Contribution()
		s.record(ctx, "contribute", domain.AuditContribution, userID, g, round, map[string]any{
			"roundNumber":      round,
			"userID":           userID,
			"amount":           amount,
			"totalContributed": r.TotalContributed,
			"expectedTotal":    r.ExpectedTotal,
		})
		s.LogInfo(ctx, "Contribution recorded",
			slog.String("group_id", groupID), slog.String("user_id", userID), slog.Int("round_number", round))

		result = &portssvc.ContributionResult{Group: g, RoundNumber: round}
		if !funded {
			return nil
		}

		// The contribution stands even when the payout fails; the round stays
		// awaiting payout and the scheduler retries the release.
		payout, err := s.payoutLocked(ctx, groupID, round, false, userID)
		if err != nil {
			s.LogWarn(ctx, "Automatic payout failed", slog.String("group_id", groupID),
				slog.Int("round_number", round), slog.String("error", err.Error()))
			if latest, findErr := s.groupRepo.FindGroupByID(ctx, groupID); findErr == nil {
				result.Group = latest
			}
			return nil
		}
		result.Group = payout.Group
		result.PayoutTriggered = !payout.AlreadyCompleted
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
