package services

import (
	"context"
	"log/slog"

	"github.com/SscSPs/rosca_app/internal/apperrors"
	"github.com/SscSPs/rosca_app/internal/core/domain"
	"github.com/SscSPs/rosca_app/internal/dto"
)

func (s *groupService) ActivateGroup(ctx context.Context, groupID string, actorID string) (*domain.Group, error) {
	g, err := s.mutate(ctx, groupID, actorID, func(g *domain.Group) error {
		strategy, err := domain.StrategyFor(g.PayoutOrderRule, s.rng)
		if err != nil {
			return apperrors.NewValidationFailedError(err.Error())
		}
		return g.Activate(strategy, s.now())
	})
	if err != nil {
		s.metrics.ObserveMutation("activate_group", err)
		return nil, err
	}

	order := make([]string, len(g.Rounds))
	for i, r := range g.Rounds {
		order[i] = r.RecipientID
	}
	s.record(ctx, "activate_group", domain.AuditGroupActivated, actorID, g, 1, map[string]any{
		"totalRounds":     g.TotalRounds,
		"payoutOrderRule": g.PayoutOrderRule,
		"payoutOrder":     order,
	})
	s.LogInfo(ctx, "Group activated", slog.String("group_id", groupID), slog.Int("total_rounds", g.TotalRounds))
	return g, nil
}

func (s *groupService) FreezeGroup(ctx context.Context, groupID string, reason string, actorID string) (*domain.Group, error) {
	g, err := s.mutate(ctx, groupID, actorID, func(g *domain.Group) error {
		return g.Freeze(reason, actorID, s.now())
	})
	if err != nil {
		s.metrics.ObserveMutation("freeze_group", err)
		return nil, err
	}

	s.record(ctx, "freeze_group", domain.AuditGroupFrozen, actorID, g, g.CurrentRound, map[string]any{"reason": reason})
	s.LogInfo(ctx, "Group frozen", slog.String("group_id", groupID), slog.String("reason", reason))
	return g, nil
}

func (s *groupService) UnfreezeGroup(ctx context.Context, groupID string, req dto.UnfreezeGroupRequest, actorID string) (*domain.Group, error) {
	var previous string
	g, err := s.mutate(ctx, groupID, actorID, func(g *domain.Group) error {
		if g.FreezeInfo != nil {
			previous = g.FreezeInfo.Reason
		}
		return g.Unfreeze(req.TargetStatus, s.now())
	})
	if err != nil {
		s.metrics.ObserveMutation("unfreeze_group", err)
		return nil, err
	}

	s.record(ctx, "unfreeze_group", domain.AuditGroupUnfrozen, actorID, g, g.CurrentRound, map[string]any{
		"reason":       req.Reason,
		"freezeReason": previous,
		"targetStatus": g.Status,
	})
	s.LogInfo(ctx, "Group unfrozen", slog.String("group_id", groupID), slog.String("status", string(g.Status)))
	return g, nil
}
