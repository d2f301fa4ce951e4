package domain

import (
	"fmt"
	"math/rand/v2"
)

// PayoutOrderStrategy decides the payout order of the active members at
// activation. It returns user IDs, first recipient first.
type PayoutOrderStrategy interface {
	Order(members []Member) []string
}

// AsJoinedOrder pays members in the order they joined.
type AsJoinedOrder struct{}

func (AsJoinedOrder) Order(members []Member) []string {
	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.UserID
	}
	return ids
}

// RandomOrder pays members in a uniformly random permutation.
type RandomOrder struct {
	Rand *rand.Rand
}

func (s RandomOrder) Order(members []Member) []string {
	ids := AsJoinedOrder{}.Order(members)
	shuffle := rand.Shuffle
	if s.Rand != nil {
		shuffle = s.Rand.Shuffle
	}
	shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	return ids
}

// RotatingOrder is reserved for seniority rotating across cycles. Without
// prior cycle history it orders exactly like AsJoinedOrder.
type RotatingOrder struct{}

func (RotatingOrder) Order(members []Member) []string {
	return AsJoinedOrder{}.Order(members)
}

// StrategyFor returns the strategy for rule. rng is only used by the random
// rule and may be nil.
func StrategyFor(rule PayoutOrderRule, rng *rand.Rand) (PayoutOrderStrategy, error) {
	switch rule {
	case PayoutAsJoined, "":
		return AsJoinedOrder{}, nil
	case PayoutRandom:
		return RandomOrder{Rand: rng}, nil
	case PayoutRotating:
		return RotatingOrder{}, nil
	}
	return nil, fmt.Errorf("unknown payout order rule %q", rule)
}
