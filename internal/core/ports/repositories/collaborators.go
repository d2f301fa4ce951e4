package repositories

import (
	"context"

	"github.com/SscSPs/rosca_app/internal/core/domain"
)

// Ledger moves money out of escrow. Release must be idempotent on
// release.IdempotencyKey(): a retried release of an already applied
// instruction succeeds without moving money twice.
type Ledger interface {
	Release(ctx context.Context, release domain.PayoutRelease) error
}

// UserDirectory resolves member identities. Groups only store user IDs.
type UserDirectory interface {
	FindUserByID(ctx context.Context, userID string) (*domain.User, error)
}

// UserWriter registers users in the directory.
type UserWriter interface {
	SaveUser(ctx context.Context, user domain.User) error
}

// UserRepositoryFacade combines directory reads and writes.
type UserRepositoryFacade interface {
	UserDirectory
	UserWriter
}

// AuditLog records who changed what on a group.
type AuditLog interface {
	Record(ctx context.Context, entry domain.AuditEntry) error
}

// AuditReader lists recorded audit entries for a resource, newest first.
type AuditReader interface {
	ListAuditEntries(ctx context.Context, resourceID string, limit int) ([]domain.AuditEntry, error)
}

// AuditRepositoryFacade combines audit writes and reads.
type AuditRepositoryFacade interface {
	AuditLog
	AuditReader
}

// Notifier publishes group events to interested parties. Delivery is best effort.
type Notifier interface {
	Publish(ctx context.Context, event domain.GroupEvent) error
}

// GroupLocker serialises mutations per group. The returned unlock func must
// be called exactly once.
type GroupLocker interface {
	Lock(ctx context.Context, groupID string) (unlock func(), err error)
}
