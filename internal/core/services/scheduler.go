package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/SscSPs/rosca_app/internal/apperrors"
	"github.com/SscSPs/rosca_app/internal/core/domain"
	portsrepo "github.com/SscSPs/rosca_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/rosca_app/internal/core/ports/services"
	"github.com/SscSPs/rosca_app/internal/middleware"
	"github.com/SscSPs/rosca_app/internal/platform/metrics"
)

const defaultSchedulerInterval = time.Minute

// SweepStats summarises one scheduler pass.
type SweepStats struct {
	Scanned       int
	PayoutsPaid   int
	PayoutsFailed int
	OverdueMarked int
}

// Scheduler periodically retries stuck payouts, pays funded rounds and flags
// overdue rounds.
type Scheduler struct {
	BaseService
	groups   portssvc.GroupSvcFacade
	repo     portsrepo.GroupReader
	metrics  *metrics.Metrics
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler creates a scheduler. A non-positive interval uses one minute.
func NewScheduler(groups portssvc.GroupSvcFacade, repo portsrepo.GroupReader, interval time.Duration, m *metrics.Metrics, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = defaultSchedulerInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		groups:   groups,
		repo:     repo,
		metrics:  m,
		interval: interval,
		logger:   logger.With(slog.String("component", "scheduler")),
	}
}

// Start runs the sweep on every tick until ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		s.logger.Info("Scheduler started", slog.Duration("interval", s.interval))
		for {
			select {
			case <-runCtx.Done():
				s.logger.Info("Scheduler stopped")
				return
			case <-ticker.C:
				if _, err := s.RunOnce(runCtx); err != nil && !errors.Is(err, context.Canceled) {
					s.logger.Error("Scheduler sweep failed", slog.String("error", err.Error()))
				}
			}
		}
	}(s.done)
}

// Stop cancels the loop and waits for the running sweep to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// RunOnce performs a single sweep over active and frozen groups.
func (s *Scheduler) RunOnce(ctx context.Context) (SweepStats, error) {
	ctx = middleware.WithLogger(ctx, s.logger)
	var stats SweepStats

	active, err := s.repo.ListGroupsByStatus(ctx, domain.GroupActive)
	if err != nil {
		s.metrics.SchedulerRun(err)
		return stats, err
	}
	frozen, err := s.repo.ListGroupsByStatus(ctx, domain.GroupFrozen)
	if err != nil {
		s.metrics.SchedulerRun(err)
		return stats, err
	}

	for _, g := range append(active, frozen...) {
		if err := ctx.Err(); err != nil {
			s.metrics.SchedulerRun(err)
			return stats, err
		}
		stats.Scanned++
		s.sweepGroup(ctx, &g, &stats)
	}

	s.metrics.SchedulerRun(nil)
	if stats.PayoutsPaid+stats.PayoutsFailed+stats.OverdueMarked > 0 {
		s.logger.Info("Scheduler sweep finished",
			slog.Int("scanned", stats.Scanned),
			slog.Int("payouts_paid", stats.PayoutsPaid),
			slog.Int("payouts_failed", stats.PayoutsFailed),
			slog.Int("overdue_marked", stats.OverdueMarked))
	}
	return stats, nil
}

func (s *Scheduler) sweepGroup(ctx context.Context, g *domain.Group, stats *SweepStats) {
	// A frozen group only gets its interrupted payouts finished.
	for _, r := range g.Rounds {
		if r.Status == domain.RoundPayoutPending {
			s.pay(ctx, g.GroupID, r.RoundNumber, stats)
		}
	}
	if g.Status != domain.GroupActive {
		return
	}

	r := g.ActiveRound()
	if r == nil || r.IsClosed() {
		return
	}
	if r.IsFunded() {
		s.pay(ctx, g.GroupID, r.RoundNumber, stats)
		return
	}

	flagged, err := s.groups.FlagOverdueRound(ctx, g.GroupID)
	if err != nil {
		s.LogWarn(ctx, "Failed to flag overdue round", slog.String("group_id", g.GroupID), slog.String("error", err.Error()))
		return
	}
	if flagged {
		stats.OverdueMarked++
	}
}

func (s *Scheduler) pay(ctx context.Context, groupID string, roundNumber int, stats *SweepStats) {
	res, err := s.groups.TriggerPayout(ctx, groupID, roundNumber, false, SystemActorID)
	if err != nil {
		stats.PayoutsFailed++
		if apperrors.KindOf(err) != apperrors.KindLedgerReleaseFailed {
			s.LogWarn(ctx, "Scheduled payout rejected", slog.String("group_id", groupID),
				slog.Int("round_number", roundNumber), slog.String("error", err.Error()))
		}
		return
	}
	if !res.AlreadyCompleted {
		stats.PayoutsPaid++
	}
}
