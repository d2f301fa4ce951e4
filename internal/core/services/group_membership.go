package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/SscSPs/rosca_app/internal/apperrors"
	"github.com/SscSPs/rosca_app/internal/core/domain"
	"github.com/SscSPs/rosca_app/internal/dto"
	"github.com/SscSPs/rosca_app/internal/utils"
	"github.com/google/uuid"
)

const joinCodeAttempts = 3

func (s *groupService) CreateGroup(ctx context.Context, req dto.CreateGroupRequest, creatorID string) (*domain.Group, error) {
	req.ApplyDefaults()
	if err := req.Validate(); err != nil {
		return nil, apperrors.NewValidationFailedError(err.Error())
	}

	now := s.now()
	groupID := uuid.NewString()

	var g *domain.Group
	for attempt := 1; ; attempt++ {
		joinCode, err := s.joinCodes.Next()
		if err != nil {
			s.LogError(ctx, err, "Failed to generate join code")
			return nil, err
		}
		g = domain.NewGroup(domain.NewGroupParams{
			GroupID:                groupID,
			Name:                   req.Name,
			Description:            req.Description,
			CurrencyCode:           req.CurrencyCode,
			ContributionAmount:     req.ContributionAmount,
			Frequency:              req.Frequency,
			MaxMembers:             req.MaxMembers,
			MinMembers:             req.MinMembers,
			PayoutOrderRule:        req.PayoutOrderRule,
			ForfeitOnMissedPayment: req.ForfeitOnMissedPayment,
			JoinCode:               joinCode,
			InviteLink:             utils.InviteLink(s.inviteBaseURL, joinCode),
			CreatedBy:              creatorID,
		}, now)
		if err := g.Join(creatorID, now); err != nil {
			return nil, err
		}
		g.Version = 1

		err = s.groupRepo.SaveGroup(ctx, *g)
		if err == nil {
			break
		}
		if errors.Is(err, apperrors.ErrDuplicate) && attempt < joinCodeAttempts {
			s.LogWarn(ctx, "Join code collision, regenerating", slog.Int("attempt", attempt))
			continue
		}
		s.LogError(ctx, err, "Failed to save group", slog.String("group_id", groupID))
		return nil, err
	}

	s.record(ctx, "create_group", domain.AuditGroupCreated, creatorID, g, 0, map[string]any{
		"name":               g.Name,
		"contributionAmount": g.ContributionAmount,
		"currencyCode":       g.CurrencyCode,
		"frequency":          g.Frequency,
		"maxMembers":         g.MaxMembers,
		"minMembers":         g.MinMembers,
		"payoutOrderRule":    g.PayoutOrderRule,
	})
	s.LogInfo(ctx, "Group created", slog.String("group_id", g.GroupID), slog.String("creator_id", creatorID))
	return g, nil
}

func (s *groupService) JoinGroup(ctx context.Context, joinCode string, userID string) (*domain.Group, error) {
	target, err := s.groupRepo.FindGroupByJoinCode(ctx, joinCode)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find group by join code")
		}
		return nil, err
	}

	g, err := s.mutate(ctx, target.GroupID, userID, func(g *domain.Group) error {
		return g.Join(userID, s.now())
	})
	if err != nil {
		s.metrics.ObserveMutation("join_group", err)
		return nil, err
	}

	s.record(ctx, "join_group", domain.AuditMemberJoined, userID, g, 0, map[string]any{
		"userID":         userID,
		"currentMembers": g.CurrentMembers,
		"status":         g.Status,
	})
	s.LogInfo(ctx, "Member joined group", slog.String("group_id", g.GroupID), slog.String("user_id", userID))
	return g, nil
}

func (s *groupService) LeaveGroup(ctx context.Context, groupID string, userID string) (*domain.Group, error) {
	g, err := s.mutate(ctx, groupID, userID, func(g *domain.Group) error {
		return g.Leave(userID)
	})
	if err != nil {
		s.metrics.ObserveMutation("leave_group", err)
		return nil, err
	}

	s.record(ctx, "leave_group", domain.AuditMemberLeft, userID, g, 0, map[string]any{
		"userID":         userID,
		"currentMembers": g.CurrentMembers,
	})
	s.LogInfo(ctx, "Member left group", slog.String("group_id", groupID), slog.String("user_id", userID))
	return g, nil
}

func (s *groupService) RemoveMember(ctx context.Context, groupID, userID, reason, actorID string) (*domain.Group, error) {
	g, err := s.mutate(ctx, groupID, actorID, func(g *domain.Group) error {
		return g.RemoveMember(userID, reason, s.now())
	})
	if err != nil {
		s.metrics.ObserveMutation("remove_member", err)
		return nil, err
	}

	changes := map[string]any{"userID": userID, "reason": reason, "currentMembers": g.CurrentMembers}
	if m := g.Member(userID); m != nil && m.PayoutPosition > 0 {
		if r := g.Round(m.PayoutPosition); r != nil && !r.IsClosed() {
			// Their round keeps them as recipient; an admin decides what happens to it.
			changes["pendingRecipientRound"] = r.RoundNumber
			s.LogWarn(ctx, "Removed member is still the recipient of an unpaid round",
				slog.String("group_id", groupID), slog.String("user_id", userID), slog.Int("round_number", r.RoundNumber))
		}
	}
	s.record(ctx, "remove_member", domain.AuditMemberRemoved, actorID, g, 0, changes)
	s.LogInfo(ctx, "Member removed from group", slog.String("group_id", groupID), slog.String("user_id", userID))
	return g, nil
}

func (s *groupService) ReinstateMember(ctx context.Context, groupID, userID, actorID string) (*domain.Group, error) {
	g, err := s.mutate(ctx, groupID, actorID, func(g *domain.Group) error {
		return g.ReinstateMember(userID)
	})
	if err != nil {
		s.metrics.ObserveMutation("reinstate_member", err)
		return nil, err
	}

	s.record(ctx, "reinstate_member", domain.AuditMemberReinstated, actorID, g, 0, map[string]any{
		"userID":         userID,
		"currentMembers": g.CurrentMembers,
	})
	s.LogInfo(ctx, "Member reinstated", slog.String("group_id", groupID), slog.String("user_id", userID))
	return g, nil
}
