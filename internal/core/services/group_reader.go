package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/rosca_app/internal/apperrors"
	"github.com/SscSPs/rosca_app/internal/core/domain"
	portsrepo "github.com/SscSPs/rosca_app/internal/core/ports/repositories"
	"github.com/SscSPs/rosca_app/internal/dto"
	"github.com/SscSPs/rosca_app/internal/utils/pagination"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func (s *groupService) GetGroup(ctx context.Context, groupID string) (*domain.Group, error) {
	g, err := s.groupRepo.FindGroupByID(ctx, groupID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find group by ID", slog.String("group_id", groupID))
		}
		return nil, err
	}
	return g, nil
}

func (s *groupService) GetGroupByJoinCode(ctx context.Context, joinCode string) (*domain.Group, error) {
	g, err := s.groupRepo.FindGroupByJoinCode(ctx, joinCode)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find group by join code")
		}
		return nil, err
	}
	return g, nil
}

func (s *groupService) ListGroups(ctx context.Context, params dto.ListGroupsParams) ([]domain.Group, *string, error) {
	filter := portsrepo.GroupFilter{MemberID: params.MemberID}
	if params.Status != "" {
		status := domain.GroupStatus(params.Status)
		if !status.IsValid() {
			return nil, nil, apperrors.NewValidationFailedError(fmt.Sprintf("unknown group status %q", params.Status))
		}
		filter.Status = &status
	}
	limit := pagination.NormalizeLimit(params.Limit, defaultPageSize, maxPageSize)

	groups, next, err := s.groupRepo.ListGroups(ctx, filter, limit, params.NextToken)
	if err != nil {
		if !errors.Is(err, apperrors.ErrValidation) {
			s.LogError(ctx, err, "Failed to list groups", slog.Int("limit", limit))
		}
		return nil, nil, err
	}
	if groups == nil {
		groups = []domain.Group{}
	}
	s.LogDebug(ctx, "Groups listed", slog.Int("count", len(groups)))
	return groups, next, nil
}

func (s *groupService) ListUserGroups(ctx context.Context, userID string, params dto.ListGroupsParams) ([]domain.Group, *string, error) {
	params.MemberID = userID
	return s.ListGroups(ctx, params)
}

func (s *groupService) GetRound(ctx context.Context, groupID string, roundNumber int) (*domain.Round, *domain.Group, error) {
	g, err := s.GetGroup(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}
	r := g.Round(roundNumber)
	if r == nil {
		return nil, nil, apperrors.NewNotFoundError(fmt.Sprintf("round %d of group %s", roundNumber, groupID))
	}
	return r, g, nil
}

func (s *groupService) ResolveMembers(ctx context.Context, groups ...*domain.Group) map[string]domain.User {
	profiles := make(map[string]domain.User)
	if s.users == nil {
		return profiles
	}
	seen := make(map[string]struct{})
	for _, g := range groups {
		for _, m := range g.Members {
			if _, done := seen[m.UserID]; done {
				continue
			}
			seen[m.UserID] = struct{}{}

			u, err := s.users.FindUserByID(ctx, m.UserID)
			if err != nil {
				if !errors.Is(err, apperrors.ErrNotFound) {
					s.LogWarn(ctx, "Failed to resolve member profile", slog.String("user_id", m.UserID), slog.String("error", err.Error()))
				}
				continue
			}
			profiles[m.UserID] = *u
		}
	}
	return profiles
}
