package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/SscSPs/rosca_app/internal/apperrors"
	"github.com/SscSPs/rosca_app/internal/core/domain"
	portsrepo "github.com/SscSPs/rosca_app/internal/core/ports/repositories"
)

// Ledger records releases by idempotency key. A repeated release with the same
// key and payload is accepted without recording a second transfer.
type Ledger struct {
	mu       sync.Mutex
	releases map[string]domain.PayoutRelease
	order    []string
	calls    int
	failNext int
}

// NewLedger creates an empty recording ledger.
func NewLedger() *Ledger {
	return &Ledger{releases: make(map[string]domain.PayoutRelease)}
}

var _ portsrepo.Ledger = (*Ledger)(nil)

// FailNext makes the next n Release calls fail before recording anything.
func (l *Ledger) FailNext(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failNext = n
}

func (l *Ledger) Release(_ context.Context, release domain.PayoutRelease) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.failNext > 0 {
		l.failNext--
		return fmt.Errorf("ledger unavailable")
	}
	key := release.IdempotencyKey()
	if prev, ok := l.releases[key]; ok {
		if prev != release {
			return apperrors.NewConflictError("release " + key + " was already applied with different terms")
		}
		return nil
	}
	l.releases[key] = release
	l.order = append(l.order, key)
	return nil
}

// Releases returns the distinct releases in the order they were applied.
func (l *Ledger) Releases() []domain.PayoutRelease {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.PayoutRelease, len(l.order))
	for i, key := range l.order {
		out[i] = l.releases[key]
	}
	return out
}

// Calls returns how many times Release was invoked, including failures and replays.
func (l *Ledger) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

// AuditLog keeps audit entries in memory.
type AuditLog struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

// NewAuditLog creates an empty audit log.
func NewAuditLog() *AuditLog {
	return &AuditLog{}
}

var _ portsrepo.AuditRepositoryFacade = (*AuditLog)(nil)

func (a *AuditLog) Record(_ context.Context, entry domain.AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
	return nil
}

func (a *AuditLog) ListAuditEntries(_ context.Context, resourceID string, limit int) ([]domain.AuditEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]domain.AuditEntry, 0)
	for i := len(a.entries) - 1; i >= 0; i-- {
		if a.entries[i].ResourceID != resourceID {
			continue
		}
		out = append(out, a.entries[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Actions returns the recorded actions for resourceID, oldest first.
func (a *AuditLog) Actions(resourceID string) []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []string
	for _, e := range a.entries {
		if e.ResourceID == resourceID {
			out = append(out, e.Action)
		}
	}
	return out
}

// UserDirectory is a map-backed user directory.
type UserDirectory struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

// NewUserDirectory creates a directory seeded with users.
func NewUserDirectory(users ...domain.User) *UserDirectory {
	d := &UserDirectory{users: make(map[string]domain.User, len(users))}
	for _, u := range users {
		d.users[u.UserID] = u
	}
	return d
}

var _ portsrepo.UserRepositoryFacade = (*UserDirectory)(nil)

func (d *UserDirectory) FindUserByID(_ context.Context, userID string) (*domain.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.users[userID]
	if !ok {
		return nil, apperrors.NewNotFoundError("user " + userID)
	}
	return &u, nil
}

func (d *UserDirectory) SaveUser(_ context.Context, user domain.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[user.UserID] = user
	return nil
}
