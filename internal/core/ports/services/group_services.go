package services

import (
	"context"

	"github.com/SscSPs/rosca_app/internal/core/domain"
	"github.com/SscSPs/rosca_app/internal/dto"
)

// ContributionResult is the outcome of a contribution. PayoutTriggered is set
// when the contribution funded the round and its payout completed.
type ContributionResult struct {
	Group           *domain.Group
	RoundNumber     int
	PayoutTriggered bool
}

// PayoutResult is the outcome of a payout trigger. AlreadyCompleted is set when
// the round had been paid before and nothing was released.
type PayoutResult struct {
	Group            *domain.Group
	RoundNumber      int
	AlreadyCompleted bool
}

// GroupReaderSvc defines read operations for savings groups
type GroupReaderSvc interface {
	// GetGroup retrieves a group by ID.
	GetGroup(ctx context.Context, groupID string) (*domain.Group, error)

	// GetGroupByJoinCode retrieves a group by its join code.
	GetGroupByJoinCode(ctx context.Context, joinCode string) (*domain.Group, error)

	// ListGroups retrieves a page of groups matching params.
	ListGroups(ctx context.Context, params dto.ListGroupsParams) ([]domain.Group, *string, error)

	// ListUserGroups retrieves a page of groups where userID holds an active seat.
	ListUserGroups(ctx context.Context, userID string, params dto.ListGroupsParams) ([]domain.Group, *string, error)

	// GetRound retrieves one round of a group.
	GetRound(ctx context.Context, groupID string, roundNumber int) (*domain.Round, *domain.Group, error)

	// ResolveMembers looks up directory profiles for every member and recipient of groups.
	// Lookup failures are logged and leave the profile out.
	ResolveMembers(ctx context.Context, groups ...*domain.Group) map[string]domain.User
}

// GroupWriterSvc defines member-initiated group mutations
type GroupWriterSvc interface {
	// CreateGroup creates an open group with creatorID as its first member.
	CreateGroup(ctx context.Context, req dto.CreateGroupRequest, creatorID string) (*domain.Group, error)

	// JoinGroup adds userID to the group owning joinCode.
	JoinGroup(ctx context.Context, joinCode string, userID string) (*domain.Group, error)

	// LeaveGroup removes userID from a group that has not started.
	LeaveGroup(ctx context.Context, groupID string, userID string) (*domain.Group, error)
}

// GroupAdminSvc defines administrative lifecycle operations
type GroupAdminSvc interface {
	ActivateGroup(ctx context.Context, groupID string, actorID string) (*domain.Group, error)
	FreezeGroup(ctx context.Context, groupID string, reason string, actorID string) (*domain.Group, error)
	UnfreezeGroup(ctx context.Context, groupID string, req dto.UnfreezeGroupRequest, actorID string) (*domain.Group, error)
	RemoveMember(ctx context.Context, groupID, userID, reason, actorID string) (*domain.Group, error)
	ReinstateMember(ctx context.Context, groupID, userID, actorID string) (*domain.Group, error)
}

// ContributionSvc records member payments.
type ContributionSvc interface {
	// Contribute records amount from userID into roundNumber (0 = current).
	// A contribution that funds the round triggers its payout.
	Contribute(ctx context.Context, groupID string, roundNumber int, userID string, amount int64) (*ContributionResult, error)
}

// PayoutSvc releases round escrow to recipients.
type PayoutSvc interface {
	// TriggerPayout pays out roundNumber (0 = current). force allows underfunded rounds.
	TriggerPayout(ctx context.Context, groupID string, roundNumber int, force bool, actorID string) (*PayoutResult, error)
}

// RoundMonitorSvc holds the periodic maintenance operations.
type RoundMonitorSvc interface {
	// FlagOverdueRound marks the current round overdue when its due date passed unfunded.
	// It reports whether the flag was set.
	FlagOverdueRound(ctx context.Context, groupID string) (bool, error)
}

// GroupSvcFacade combines all group-related service interfaces
type GroupSvcFacade interface {
	GroupReaderSvc
	GroupWriterSvc
	GroupAdminSvc
	ContributionSvc
	PayoutSvc
	RoundMonitorSvc
}

// AuditSvc exposes the audit trail of a group.
type AuditSvc interface {
	ListGroupAudit(ctx context.Context, groupID string, limit int) ([]domain.AuditEntry, error)
}
