package services

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/SscSPs/rosca_app/internal/adapters/lock"
	"github.com/SscSPs/rosca_app/internal/apperrors"
	"github.com/SscSPs/rosca_app/internal/core/domain"
	portsrepo "github.com/SscSPs/rosca_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/rosca_app/internal/core/ports/services"
	"github.com/SscSPs/rosca_app/internal/platform/metrics"
	"github.com/google/uuid"
)

const (
	defaultMaxRetries = 3
	defaultLockWait   = 10 * time.Second
	defaultNotifyWait = 5 * time.Second

	// SystemActorID is recorded as the actor of scheduler-driven mutations.
	SystemActorID = "system:scheduler"
)

// errNoChange lets a mutation finish without writing the aggregate.
var errNoChange = errors.New("no change")

// JoinCodeGenerator issues unique join codes for new groups.
type JoinCodeGenerator interface {
	Next() (string, error)
}

type uuidJoinCodes struct{}

func (uuidJoinCodes) Next() (string, error) {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10]), nil
}

// groupService implements the GroupSvcFacade interface
type groupService struct {
	BaseService
	groupRepo     portsrepo.GroupRepositoryFacade
	ledger        portsrepo.Ledger
	auditLog      portsrepo.AuditLog
	users         portsrepo.UserDirectory
	notifier      portsrepo.Notifier
	locker        portsrepo.GroupLocker
	joinCodes     JoinCodeGenerator
	metrics       *metrics.Metrics
	rng           *rand.Rand
	clock         func() time.Time
	maxRetries    int
	lockWait      time.Duration
	inviteBaseURL string
}

// GroupServiceOption is a functional option for configuring the group service
type GroupServiceOption func(*groupService)

// WithAuditLog adds the audit log collaborator
func WithAuditLog(a portsrepo.AuditLog) GroupServiceOption {
	return func(s *groupService) { s.auditLog = a }
}

// WithUserDirectory adds the user directory used for display enrichment
func WithUserDirectory(u portsrepo.UserDirectory) GroupServiceOption {
	return func(s *groupService) { s.users = u }
}

// WithNotifier adds the event notifier
func WithNotifier(n portsrepo.Notifier) GroupServiceOption {
	return func(s *groupService) { s.notifier = n }
}

// WithLocker replaces the default in-process group locker
func WithLocker(l portsrepo.GroupLocker) GroupServiceOption {
	return func(s *groupService) { s.locker = l }
}

// WithJoinCodeGenerator replaces the default join code generator
func WithJoinCodeGenerator(g JoinCodeGenerator) GroupServiceOption {
	return func(s *groupService) { s.joinCodes = g }
}

// WithMetrics adds Prometheus instrumentation
func WithMetrics(m *metrics.Metrics) GroupServiceOption {
	return func(s *groupService) { s.metrics = m }
}

// WithRand sets the source used by the random payout order
func WithRand(r *rand.Rand) GroupServiceOption {
	return func(s *groupService) { s.rng = r }
}

// WithClock overrides the time source
func WithClock(clock func() time.Time) GroupServiceOption {
	return func(s *groupService) { s.clock = clock }
}

// WithMaxRetries sets how many times a mutation is attempted on version conflicts
func WithMaxRetries(n int) GroupServiceOption {
	return func(s *groupService) {
		if n > 0 {
			s.maxRetries = n
		}
	}
}

// WithLockWait bounds how long a mutation waits for the group lock
func WithLockWait(d time.Duration) GroupServiceOption {
	return func(s *groupService) {
		if d > 0 {
			s.lockWait = d
		}
	}
}

// WithInviteBaseURL sets the base URL invite links are built from
func WithInviteBaseURL(base string) GroupServiceOption {
	return func(s *groupService) { s.inviteBaseURL = base }
}

// NewGroupService creates the group engine service with the provided options
func NewGroupService(repo portsrepo.GroupRepositoryFacade, ledger portsrepo.Ledger, options ...GroupServiceOption) portssvc.GroupSvcFacade {
	svc := &groupService{
		groupRepo:  repo,
		ledger:     ledger,
		locker:     lock.NewLocalLocker(),
		joinCodes:  uuidJoinCodes{},
		clock:      func() time.Time { return time.Now().UTC() },
		maxRetries: defaultMaxRetries,
		lockWait:   defaultLockWait,
	}

	// Apply all options
	for _, option := range options {
		option(svc)
	}

	return svc
}

// Ensure groupService implements the GroupSvcFacade interface
var _ portssvc.GroupSvcFacade = (*groupService)(nil)

func (s *groupService) now() time.Time {
	return s.clock()
}

// withGroupLock runs fn while holding the group's lock.
func (s *groupService) withGroupLock(ctx context.Context, groupID string, fn func() error) error {
	lockCtx, cancel := context.WithTimeout(ctx, s.lockWait)
	unlock, err := s.locker.Lock(lockCtx, groupID)
	cancel()
	if err != nil {
		s.LogWarn(ctx, "Failed to acquire group lock", slog.String("group_id", groupID), slog.String("error", err.Error()))
		return err
	}
	defer unlock()
	return fn()
}

// mutate applies fn to the group under its lock and persists the result.
func (s *groupService) mutate(ctx context.Context, groupID, actorID string, fn func(g *domain.Group) error) (*domain.Group, error) {
	var out *domain.Group
	err := s.withGroupLock(ctx, groupID, func() error {
		var err error
		out, err = s.mutateLocked(ctx, groupID, actorID, fn)
		return err
	})
	return out, err
}

// mutateLocked is the load, apply, check, save loop. The caller holds the
// group lock; the version check still guards against writers on other nodes
// whose lock expired. fn must be safe to run again on a freshly loaded group.
func (s *groupService) mutateLocked(ctx context.Context, groupID, actorID string, fn func(g *domain.Group) error) (*domain.Group, error) {
	for attempt := 1; ; attempt++ {
		g, err := s.groupRepo.FindGroupByID(ctx, groupID)
		if err != nil {
			if !errors.Is(err, apperrors.ErrNotFound) {
				s.LogError(ctx, err, "Failed to load group", slog.String("group_id", groupID))
			}
			return nil, err
		}

		if err := fn(g); err != nil {
			if errors.Is(err, errNoChange) {
				return g, nil
			}
			return nil, err
		}

		if err := g.CheckInvariants(); err != nil {
			s.LogError(ctx, err, "Group invariants violated, mutation discarded", slog.String("group_id", groupID))
			return nil, apperrors.Wrap(apperrors.KindInternal, "group bookkeeping check failed", err)
		}

		g.Touch(actorID, s.now())
		g.Version++
		err = s.groupRepo.UpdateGroup(ctx, *g)
		if err == nil {
			return g, nil
		}
		if errors.Is(err, apperrors.ErrVersionConflict) && attempt < s.maxRetries {
			s.metrics.VersionConflict()
			s.LogDebug(ctx, "Version conflict, retrying mutation", slog.String("group_id", groupID), slog.Int("attempt", attempt))
			continue
		}
		if !errors.Is(err, apperrors.ErrVersionConflict) {
			s.LogError(ctx, err, "Failed to save group", slog.String("group_id", groupID))
		}
		return nil, err
	}
}

// audit records an entry synchronously. Failures are logged, never returned.
func (s *groupService) audit(ctx context.Context, action, actorID, groupID string, changes map[string]any) {
	if s.auditLog == nil {
		return
	}
	entry := domain.AuditEntry{
		AuditID:    uuid.NewString(),
		Action:     action,
		ActorID:    actorID,
		ResourceID: groupID,
		Changes:    changes,
		RecordedAt: s.now(),
	}
	if err := s.auditLog.Record(ctx, entry); err != nil {
		s.LogError(ctx, err, "Failed to record audit entry", slog.String("action", action), slog.String("group_id", groupID))
	}
}

// notify publishes an event in the background.
func (s *groupService) notify(ctx context.Context, eventType, actorID string, g *domain.Group, roundNumber int, data map[string]any) {
	if s.notifier == nil {
		return
	}
	event := domain.GroupEvent{
		Type:        eventType,
		GroupID:     g.GroupID,
		ActorID:     actorID,
		RoundNumber: roundNumber,
		Data:        data,
		OccurredAt:  s.now(),
	}
	logger := s.GetLogger(ctx)
	pubCtx := context.WithoutCancel(ctx)
	go func() {
		pubCtx, cancel := context.WithTimeout(pubCtx, defaultNotifyWait)
		defer cancel()
		if err := s.notifier.Publish(pubCtx, event); err != nil {
			logger.Warn("Failed to publish group event", slog.String("type", eventType), slog.String("group_id", event.GroupID), slog.String("error", err.Error()))
		}
	}()
}

// record emits audit, event and metrics for a committed mutation.
func (s *groupService) record(ctx context.Context, op, action, actorID string, g *domain.Group, roundNumber int, changes map[string]any) {
	s.metrics.ObserveMutation(op, nil)
	s.audit(ctx, action, actorID, g.GroupID, changes)
	s.notify(ctx, action, actorID, g, roundNumber, changes)
}
