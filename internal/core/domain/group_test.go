package domain_test

import (
	"fmt"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/SscSPs/rosca_app/internal/apperrors"
	"github.com/SscSPs/rosca_app/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

func newTestGroup(maxMembers, minMembers int) *domain.Group {
	return domain.NewGroup(domain.NewGroupParams{
		GroupID:            "grp_1",
		Name:               "Friday Circle",
		CurrencyCode:       "USD",
		ContributionAmount: 100,
		Frequency:          domain.Weekly,
		MaxMembers:         maxMembers,
		MinMembers:         minMembers,
		PayoutOrderRule:    domain.PayoutAsJoined,
		JoinCode:           "JC1",
		CreatedBy:          "u1",
	}, testNow)
}

func joinAll(t *testing.T, g *domain.Group, users ...string) {
	t.Helper()
	for _, u := range users {
		require.NoError(t, g.Join(u, testNow))
	}
}

func activeGroup(t *testing.T, users ...string) *domain.Group {
	t.Helper()
	g := newTestGroup(len(users), 2)
	joinAll(t, g, users...)
	require.NoError(t, g.Activate(domain.AsJoinedOrder{}, testNow))
	return g
}

func payOut(t *testing.T, g *domain.Group, round int, force bool) {
	t.Helper()
	_, phase, err := g.BeginPayout(round, force, testNow)
	require.NoError(t, err)
	require.Equal(t, domain.PayoutStarted, phase)
	require.NoError(t, g.CompletePayout(round, testNow))
}

func TestGroup_Join(t *testing.T) {
	t.Run("fills capacity", func(t *testing.T) {
		g := newTestGroup(2, 2)
		require.NoError(t, g.Join("u1", testNow))
		assert.Equal(t, domain.GroupOpen, g.Status)
		require.NoError(t, g.Join("u2", testNow))
		assert.Equal(t, domain.GroupFilled, g.Status)
		assert.Equal(t, 2, g.CurrentMembers)
		assert.NoError(t, g.CheckInvariants())
	})

	t.Run("rejects when full", func(t *testing.T) {
		g := newTestGroup(2, 2)
		joinAll(t, g, "u1", "u2")
		assert.ErrorIs(t, g.Join("u3", testNow), apperrors.ErrGroupFull)
	})

	t.Run("rejects existing active member", func(t *testing.T) {
		g := newTestGroup(3, 2)
		joinAll(t, g, "u1")
		assert.ErrorIs(t, g.Join("u1", testNow), apperrors.ErrAlreadyMember)
	})

	t.Run("rejects after activation", func(t *testing.T) {
		g := activeGroup(t, "u1", "u2")
		assert.ErrorIs(t, g.Join("u3", testNow), apperrors.ErrGroupNotOpen)
	})

	t.Run("removed member rejoins with the same record", func(t *testing.T) {
		g := newTestGroup(3, 2)
		joinAll(t, g, "u1", "u2")
		require.NoError(t, g.RemoveMember("u1", "spam", testNow))
		require.NoError(t, g.Join("u1", testNow))
		assert.Len(t, g.Members, 2)
		assert.Equal(t, 2, g.CurrentMembers)
		assert.NoError(t, g.CheckInvariants())
	})
}

func TestGroup_Leave(t *testing.T) {
	g := newTestGroup(2, 2)
	joinAll(t, g, "u1", "u2")
	require.NoError(t, g.Leave("u2"))
	assert.Equal(t, domain.GroupOpen, g.Status)
	assert.Equal(t, 1, g.CurrentMembers)
	assert.Nil(t, g.Member("u2"))
	assert.ErrorIs(t, g.Leave("u2"), apperrors.ErrNotAMember)

	active := activeGroup(t, "u1", "u2")
	assert.ErrorIs(t, active.Leave("u1"), apperrors.ErrNotOpenForLeaving)
}

func TestGroup_RemoveAndReinstate(t *testing.T) {
	g := activeGroup(t, "u1", "u2", "u3")

	require.NoError(t, g.RemoveMember("u3", "missed payments", testNow))
	assert.Equal(t, 2, g.CurrentMembers)
	assert.Equal(t, 3, g.Member("u3").PayoutPosition, "payout position is not renumbered")
	assert.Equal(t, "u3", g.Round(3).RecipientID, "recipient is not retargeted")
	assert.ErrorIs(t, g.RemoveMember("u3", "again", testNow), apperrors.ErrAlreadyRemoved)

	require.NoError(t, g.ReinstateMember("u3"))
	assert.Equal(t, 3, g.CurrentMembers)
	assert.ErrorIs(t, g.ReinstateMember("u3"), apperrors.ErrNotRemoved)
	assert.ErrorIs(t, g.ReinstateMember("nobody"), apperrors.ErrNotAMember)
	assert.NoError(t, g.CheckInvariants())
}

func TestGroup_ReinstateRequiresRotationSeat(t *testing.T) {
	g := newTestGroup(3, 2)
	joinAll(t, g, "u1", "u2", "u3")
	require.NoError(t, g.RemoveMember("u3", "left chat", testNow))
	require.NoError(t, g.Activate(domain.AsJoinedOrder{}, testNow))

	assert.ErrorIs(t, g.ReinstateMember("u3"), apperrors.ErrNotInRotation)
	assert.Equal(t, 2, g.TotalRounds)
}

func TestGroup_Activate(t *testing.T) {
	t.Run("insufficient members leaves group open", func(t *testing.T) {
		g := newTestGroup(5, 3)
		joinAll(t, g, "u1", "u2")
		err := g.Activate(domain.AsJoinedOrder{}, testNow)
		assert.ErrorIs(t, err, apperrors.ErrInsufficientMembers)
		assert.Equal(t, domain.GroupOpen, g.Status)
		assert.Empty(t, g.Rounds)
		assert.Equal(t, 0, g.CurrentRound)
	})

	t.Run("materialises rounds", func(t *testing.T) {
		g := activeGroup(t, "u1", "u2", "u3")
		assert.Equal(t, domain.GroupActive, g.Status)
		assert.Equal(t, 3, g.TotalRounds)
		assert.Equal(t, 1, g.CurrentRound)
		require.Len(t, g.Rounds, 3)
		for i, r := range g.Rounds {
			assert.Equal(t, i+1, r.RoundNumber)
			assert.Equal(t, int64(300), r.ExpectedTotal)
			assert.Equal(t, testNow.AddDate(0, 0, 7*(i+1)), r.DueDate)
			assert.Equal(t, g.Member(r.RecipientID).PayoutPosition, r.RoundNumber)
		}
		assert.Equal(t, domain.RoundInProgress, g.Rounds[0].Status)
		assert.Equal(t, domain.RoundPending, g.Rounds[1].Status)
		assert.Equal(t, "u1", g.Rounds[0].RecipientID)
	})

	t.Run("round total overflow is rejected", func(t *testing.T) {
		g := newTestGroup(2, 2)
		g.ContributionAmount = 1 << 62
		joinAll(t, g, "u1", "u2")
		err := g.Activate(domain.AsJoinedOrder{}, testNow)
		assert.ErrorIs(t, err, apperrors.ErrValidation)
		assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
		assert.Equal(t, domain.GroupFilled, g.Status)
		assert.Empty(t, g.Rounds)
	})

	t.Run("cannot activate twice", func(t *testing.T) {
		g := activeGroup(t, "u1", "u2")
		assert.ErrorIs(t, g.Activate(domain.AsJoinedOrder{}, testNow), apperrors.ErrInvalidTransition)
	})

	t.Run("random order is a permutation", func(t *testing.T) {
		g := newTestGroup(6, 2)
		joinAll(t, g, "a", "b", "c", "d", "e", "f")
		strategy, err := domain.StrategyFor(domain.PayoutRandom, rand.New(rand.NewPCG(7, 11)))
		require.NoError(t, err)
		require.NoError(t, g.Activate(strategy, testNow))

		positions := map[int]bool{}
		for _, m := range g.Members {
			positions[m.PayoutPosition] = true
		}
		assert.Len(t, positions, 6)
		for p := 1; p <= 6; p++ {
			assert.True(t, positions[p], "position %d assigned", p)
		}
	})
}

func TestRoundTotal(t *testing.T) {
	total, ok := domain.RoundTotal(100, 3)
	assert.True(t, ok)
	assert.Equal(t, int64(300), total)

	total, ok = domain.RoundTotal(math.MaxInt64/100, 100)
	assert.True(t, ok)
	assert.Positive(t, total)

	_, ok = domain.RoundTotal(1<<62, 2)
	assert.False(t, ok)

	_, ok = domain.RoundTotal(-1, 2)
	assert.False(t, ok)
}

func TestStrategyFor(t *testing.T) {
	members := []domain.Member{{UserID: "a"}, {UserID: "b"}, {UserID: "c"}}
	for _, rule := range []domain.PayoutOrderRule{domain.PayoutAsJoined, domain.PayoutRotating} {
		s, err := domain.StrategyFor(rule, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, s.Order(members))
	}
	_, err := domain.StrategyFor("lottery", nil)
	assert.Error(t, err)
}

func TestGroup_Contribute(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(g *domain.Group)
		round   int
		user    string
		amount  int64
		wantErr error
	}{
		{name: "valid", user: "u2", amount: 100},
		{name: "amount mismatch", user: "u2", amount: 50, wantErr: apperrors.ErrAmountMismatch},
		{name: "not a member", user: "zz", amount: 100, wantErr: apperrors.ErrNotAMember},
		{name: "removed member", user: "u3", amount: 100, wantErr: apperrors.ErrMemberNotActive,
			prepare: func(g *domain.Group) { _ = g.RemoveMember("u3", "x", testNow) }},
		{name: "frozen", user: "u2", amount: 100, wantErr: apperrors.ErrGroupFrozen,
			prepare: func(g *domain.Group) { _ = g.Freeze("audit", "admin", testNow) }},
		{name: "future round", round: 2, user: "u2", amount: 100, wantErr: apperrors.ErrRoundNotCurrent},
		{name: "missing round", round: 9, user: "u2", amount: 100, wantErr: apperrors.ErrNoActiveRound},
		{name: "duplicate", user: "u2", amount: 100, wantErr: apperrors.ErrDuplicateContribution,
			prepare: func(g *domain.Group) { _, _ = g.Contribute(1, "u2", 100, testNow) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := activeGroup(t, "u1", "u2", "u3")
			if tt.prepare != nil {
				tt.prepare(g)
			}
			before := g.Clone()
			_, err := g.Contribute(tt.round, tt.user, tt.amount, testNow)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, before.EscrowBalance, g.EscrowBalance)
				assert.Equal(t, before.TotalContributed, g.TotalContributed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(100), g.EscrowBalance)
			assert.Equal(t, int64(100), g.Member(tt.user).TotalContributed)
			assert.NoError(t, g.CheckInvariants())
		})
	}
}

func TestGroup_ContributeBeforeActivation(t *testing.T) {
	g := newTestGroup(3, 2)
	joinAll(t, g, "u1", "u2")
	_, err := g.Contribute(0, "u1", 100, testNow)
	assert.ErrorIs(t, err, apperrors.ErrGroupNotActive)
}

func TestGroup_FullRotation(t *testing.T) {
	g := activeGroup(t, "u1", "u2", "u3")

	for round := 1; round <= 3; round++ {
		for _, u := range []string{"u1", "u2", "u3"} {
			r, err := g.Contribute(0, u, 100, testNow)
			require.NoError(t, err)
			require.NoError(t, g.CheckInvariants())
			if u == "u3" {
				assert.True(t, r.IsFunded())
			}
		}
		assert.Equal(t, int64(300), g.EscrowBalance)
		payOut(t, g, round, false)
		require.NoError(t, g.CheckInvariants())
		assert.Equal(t, int64(0), g.EscrowBalance)
		assert.Equal(t, domain.RoundCompleted, g.Round(round).Status)
	}

	assert.Equal(t, domain.GroupCompleted, g.Status)
	assert.Equal(t, 3, g.CurrentRound)
	assert.Equal(t, int64(900), g.TotalPaidOut)
	assert.NotNil(t, g.CompletedAt)
}

func TestGroup_BeginPayout(t *testing.T) {
	t.Run("underfunded without force", func(t *testing.T) {
		g := activeGroup(t, "u1", "u2", "u3")
		_, err := g.Contribute(0, "u1", 100, testNow)
		require.NoError(t, err)
		_, _, err = g.BeginPayout(1, false, testNow)
		assert.ErrorIs(t, err, apperrors.ErrRoundNotFunded)
		assert.Equal(t, domain.RoundInProgress, g.Round(1).Status)
	})

	t.Run("forced partial payout", func(t *testing.T) {
		g := activeGroup(t, "u1", "u2", "u3")
		for _, u := range []string{"u1", "u2"} {
			_, err := g.Contribute(0, u, 100, testNow)
			require.NoError(t, err)
		}
		r, phase, err := g.BeginPayout(1, true, testNow)
		require.NoError(t, err)
		assert.Equal(t, domain.PayoutStarted, phase)
		assert.Equal(t, int64(200), r.PayoutAmount)
		assert.True(t, r.Forced)

		_, err = g.Contribute(1, "u3", 100, testNow)
		assert.ErrorIs(t, err, apperrors.ErrRoundClosed, "payout_pending round accepts no contributions")

		require.NoError(t, g.CompletePayout(1, testNow))
		assert.Equal(t, int64(200), g.Round(1).TotalContributed)
		assert.Equal(t, int64(0), g.EscrowBalance)
		assert.Equal(t, 2, g.CurrentRound)
		assert.Equal(t, domain.RoundInProgress, g.Round(2).Status)
		assert.NoError(t, g.CheckInvariants())
	})

	t.Run("completed round is a no-op", func(t *testing.T) {
		g := activeGroup(t, "u1", "u2")
		for _, u := range []string{"u1", "u2"} {
			_, err := g.Contribute(0, u, 100, testNow)
			require.NoError(t, err)
		}
		payOut(t, g, 1, false)
		before := g.Clone()

		_, phase, err := g.BeginPayout(1, false, testNow)
		require.NoError(t, err)
		assert.Equal(t, domain.PayoutNoop, phase)
		assert.Equal(t, before.CurrentRound, g.CurrentRound)
		assert.Equal(t, before.EscrowBalance, g.EscrowBalance)
	})

	t.Run("pending payout is retried without recomputing", func(t *testing.T) {
		g := activeGroup(t, "u1", "u2")
		_, err := g.Contribute(0, "u1", 100, testNow)
		require.NoError(t, err)
		_, _, err = g.BeginPayout(0, true, testNow)
		require.NoError(t, err)

		r, phase, err := g.BeginPayout(0, false, testNow)
		require.NoError(t, err)
		assert.Equal(t, domain.PayoutRetry, phase)
		assert.Equal(t, int64(100), r.PayoutAmount)
	})

	t.Run("non current round", func(t *testing.T) {
		g := activeGroup(t, "u1", "u2")
		_, _, err := g.BeginPayout(2, true, testNow)
		assert.ErrorIs(t, err, apperrors.ErrRoundNotCurrent)
	})

	t.Run("before activation", func(t *testing.T) {
		g := newTestGroup(3, 2)
		_, _, err := g.BeginPayout(0, true, testNow)
		assert.ErrorIs(t, err, apperrors.ErrGroupNotActive)
	})
}

func TestGroup_ForfeitOnForcedPayout(t *testing.T) {
	g := newTestGroup(3, 2)
	g.ForfeitOnMissedPayment = true
	joinAll(t, g, "u1", "u2", "u3")
	require.NoError(t, g.Activate(domain.AsJoinedOrder{}, testNow))
	_, err := g.Contribute(0, "u1", 100, testNow)
	require.NoError(t, err)

	payOut(t, g, 1, true)

	assert.False(t, g.Member("u1").Forfeited)
	assert.True(t, g.Member("u2").Forfeited)
	assert.Equal(t, 1, g.Member("u3").ForfeitedInRound)
}

func TestGroup_NextRoundExpectationFollowsActiveMembers(t *testing.T) {
	g := activeGroup(t, "u1", "u2", "u3")
	require.NoError(t, g.RemoveMember("u3", "defaulted", testNow))
	for _, u := range []string{"u1", "u2"} {
		_, err := g.Contribute(0, u, 100, testNow)
		require.NoError(t, err)
	}
	assert.False(t, g.Round(1).IsFunded(), "expected total is fixed at round start")

	payOut(t, g, 1, true)
	assert.Equal(t, int64(200), g.Round(2).ExpectedTotal)
}

func TestGroup_FreezeUnfreeze(t *testing.T) {
	g := activeGroup(t, "u1", "u2")

	require.NoError(t, g.Freeze("dispute", "admin", testNow))
	assert.Equal(t, domain.GroupFrozen, g.Status)
	require.NotNil(t, g.FreezeInfo)
	assert.Equal(t, "dispute", g.FreezeInfo.Reason)
	assert.ErrorIs(t, g.Freeze("again", "admin", testNow), apperrors.ErrInvalidTransition)

	_, _, err := g.BeginPayout(0, true, testNow)
	assert.ErrorIs(t, err, apperrors.ErrGroupFrozen)

	assert.Error(t, g.Unfreeze(domain.GroupOpen, testNow))
	require.NoError(t, g.Unfreeze("", testNow))
	assert.Equal(t, domain.GroupActive, g.Status)
	assert.Nil(t, g.FreezeInfo)

	require.NoError(t, g.Freeze("closing", "admin", testNow))
	require.NoError(t, g.Unfreeze(domain.GroupCompleted, testNow))
	assert.Equal(t, domain.GroupCompleted, g.Status)

	open := newTestGroup(2, 2)
	assert.ErrorIs(t, open.Freeze("x", "admin", testNow), apperrors.ErrInvalidTransition)
	assert.ErrorIs(t, open.Unfreeze("", testNow), apperrors.ErrInvalidTransition)
}

func TestGroup_MarkOverdue(t *testing.T) {
	g := activeGroup(t, "u1", "u2")
	due := g.Round(1).DueDate

	assert.False(t, g.MarkOverdue(due))
	assert.True(t, g.MarkOverdue(due.Add(time.Minute)))
	assert.False(t, g.MarkOverdue(due.Add(time.Hour)), "already flagged")
	assert.True(t, g.Round(1).Overdue)
}

func TestDueDate(t *testing.T) {
	start := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		freq  domain.Frequency
		round int
		want  time.Time
	}{
		{domain.Daily, 3, time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)},
		{domain.Weekly, 2, time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)},
		{domain.Monthly, 1, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_%d", tt.freq, tt.round), func(t *testing.T) {
			assert.Equal(t, tt.want, domain.DueDate(start, tt.freq, tt.round))
		})
	}
}

func TestGroup_CloneIsDeep(t *testing.T) {
	g := activeGroup(t, "u1", "u2")
	c := g.Clone()
	_, err := c.Contribute(0, "u1", 100, testNow)
	require.NoError(t, err)

	assert.Empty(t, g.Round(1).Contributions)
	assert.Equal(t, int64(0), g.Member("u1").TotalContributed)
}
