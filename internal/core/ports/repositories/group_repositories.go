package repositories

import (
	"context"

	"github.com/SscSPs/rosca_app/internal/core/domain"
)

// GroupFilter narrows ListGroups. Zero values mean no filtering.
type GroupFilter struct {
	Status   *domain.GroupStatus
	MemberID string // only groups where this user holds an active seat
}

// GroupReader defines read operations for savings groups
type GroupReader interface {
	// FindGroupByID retrieves a group aggregate with its members and rounds.
	FindGroupByID(ctx context.Context, groupID string) (*domain.Group, error)

	// FindGroupByJoinCode retrieves the group owning a join code.
	FindGroupByJoinCode(ctx context.Context, joinCode string) (*domain.Group, error)

	// ListGroups retrieves a page of groups ordered by creation time using token-based pagination.
	// It returns the groups, a token for the next page, and an error.
	ListGroups(ctx context.Context, filter GroupFilter, limit int, nextToken *string) ([]domain.Group, *string, error)

	// ListGroupsByStatus retrieves every group in the given status. Used by background jobs.
	ListGroupsByStatus(ctx context.Context, status domain.GroupStatus) ([]domain.Group, error)
}

// GroupWriter defines write operations for savings groups
type GroupWriter interface {
	// SaveGroup persists a new group aggregate.
	SaveGroup(ctx context.Context, group domain.Group) error

	// UpdateGroup replaces the stored aggregate if its stored version still equals
	// group.Version-1. It returns apperrors.ErrVersionConflict otherwise.
	UpdateGroup(ctx context.Context, group domain.Group) error
}

// GroupRepositoryFacade combines all group-related repository interfaces
type GroupRepositoryFacade interface {
	GroupReader
	GroupWriter
}
