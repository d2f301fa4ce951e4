// Package memory holds map-backed adapters for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/SscSPs/rosca_app/internal/apperrors"
	"github.com/SscSPs/rosca_app/internal/core/domain"
	portsrepo "github.com/SscSPs/rosca_app/internal/core/ports/repositories"
	"github.com/SscSPs/rosca_app/internal/utils/pagination"
)

// GroupRepository stores deep copies of group aggregates keyed by ID.
type GroupRepository struct {
	mu     sync.RWMutex
	groups map[string]*domain.Group
	codes  map[string]string // join code -> group ID
}

// NewGroupRepository creates an empty repository.
func NewGroupRepository() *GroupRepository {
	return &GroupRepository{
		groups: make(map[string]*domain.Group),
		codes:  make(map[string]string),
	}
}

var _ portsrepo.GroupRepositoryFacade = (*GroupRepository)(nil)

func (r *GroupRepository) SaveGroup(_ context.Context, group domain.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.groups[group.GroupID]; exists {
		return apperrors.NewConflictError("group " + group.GroupID + " already exists")
	}
	if _, exists := r.codes[group.JoinCode]; exists {
		return apperrors.NewConflictError("join code already in use")
	}
	r.groups[group.GroupID] = group.Clone()
	r.codes[group.JoinCode] = group.GroupID
	return nil
}

func (r *GroupRepository) UpdateGroup(_ context.Context, group domain.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.groups[group.GroupID]
	if !ok {
		return apperrors.NewNotFoundError("group " + group.GroupID)
	}
	if stored.Version != group.Version-1 {
		return apperrors.NewVersionConflictError(group.GroupID, group.Version-1)
	}
	r.groups[group.GroupID] = group.Clone()
	return nil
}

func (r *GroupRepository) FindGroupByID(_ context.Context, groupID string) (*domain.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.groups[groupID]
	if !ok {
		return nil, apperrors.NewNotFoundError("group " + groupID)
	}
	return g.Clone(), nil
}

func (r *GroupRepository) FindGroupByJoinCode(ctx context.Context, joinCode string) (*domain.Group, error) {
	r.mu.RLock()
	groupID, ok := r.codes[joinCode]
	r.mu.RUnlock()
	if !ok {
		return nil, apperrors.NewNotFoundError("join code " + joinCode)
	}
	return r.FindGroupByID(ctx, groupID)
}

// ListGroups orders by (createdAt DESC, groupID DESC), matching the SQL adapters.
func (r *GroupRepository) ListGroups(_ context.Context, filter portsrepo.GroupFilter, limit int, nextToken *string) ([]domain.Group, *string, error) {
	var (
		cursorAt time.Time
		cursorID string
	)
	if nextToken != nil && *nextToken != "" {
		var err error
		cursorAt, cursorID, err = pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, apperrors.NewValidationFailedError(err.Error())
		}
	}

	r.mu.RLock()
	matched := make([]*domain.Group, 0, len(r.groups))
	for _, g := range r.groups {
		if filter.Status != nil && g.Status != *filter.Status {
			continue
		}
		if filter.MemberID != "" {
			m := g.Member(filter.MemberID)
			if m == nil || !m.IsActive() {
				continue
			}
		}
		if cursorID != "" && !pagination.After(g.CreatedAt, g.GroupID, cursorAt, cursorID) {
			continue
		}
		matched = append(matched, g)
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return pagination.After(matched[j].CreatedAt, matched[j].GroupID, matched[i].CreatedAt, matched[i].GroupID)
	})

	var next *string
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
		last := matched[limit-1]
		token := pagination.EncodeToken(last.CreatedAt, last.GroupID)
		next = &token
	}

	out := make([]domain.Group, len(matched))
	for i, g := range matched {
		out[i] = *g.Clone()
	}
	return out, next, nil
}

func (r *GroupRepository) ListGroupsByStatus(_ context.Context, status domain.GroupStatus) ([]domain.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Group, 0)
	for _, g := range r.groups {
		if g.Status == status {
			out = append(out, *g.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GroupID < out[j].GroupID })
	return out, nil
}
