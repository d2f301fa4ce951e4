package dto

import (
	"math"
	"strings"
	"time"

	"github.com/SscSPs/rosca_app/internal/core/domain"
	"github.com/SscSPs/rosca_app/internal/utils"
)

// Defaults applied to CreateGroupRequest.
const (
	DefaultCurrencyCode = "USD"
	DefaultMinMembers   = 2
	MaxGroupMembers     = 100
	MaxGroupNameLength  = 100

	// MaxContributionAmount keeps contributionAmount × MaxGroupMembers within int64.
	MaxContributionAmount int64 = math.MaxInt64 / MaxGroupMembers
)

// CreateGroupRequest defines the data needed to create a new savings group.
// The creator joins the group as its first member.
type CreateGroupRequest struct {
	Name                   string                 `json:"name" binding:"required,max=100"`
	Description            string                 `json:"description" binding:"max=500"`
	CurrencyCode           string                 `json:"currencyCode" binding:"omitempty,len=3,alpha"`
	ContributionAmount     int64                  `json:"contributionAmount" binding:"required,gt=0,lte=92233720368547758"` // minor units
	Frequency              domain.Frequency       `json:"frequency" binding:"required,frequency"`
	MaxMembers             int                    `json:"maxMembers" binding:"required,min=2,max=100"`
	MinMembers             int                    `json:"minMembers" binding:"omitempty,min=2,max=100,ltefield=MaxMembers"`
	PayoutOrderRule        domain.PayoutOrderRule `json:"payoutOrderRule" binding:"omitempty,payout_rule"`
	ForfeitOnMissedPayment bool                   `json:"forfeitOnMissedPayment"`
}

// ApplyDefaults fills optional fields.
func (r *CreateGroupRequest) ApplyDefaults() {
	r.Name = strings.TrimSpace(r.Name)
	if r.CurrencyCode == "" {
		r.CurrencyCode = DefaultCurrencyCode
	}
	r.CurrencyCode = strings.ToUpper(r.CurrencyCode)
	if r.MinMembers == 0 {
		r.MinMembers = DefaultMinMembers
	}
	if r.PayoutOrderRule == "" {
		r.PayoutOrderRule = domain.PayoutAsJoined
	}
}

// JoinGroupRequest joins a group by its join code.
type JoinGroupRequest struct {
	JoinCode string `json:"joinCode" binding:"required"`
}

// ContributeRequest records a contribution. RoundNumber 0 means the current round.
type ContributeRequest struct {
	RoundNumber int   `json:"roundNumber" binding:"omitempty,min=1"`
	Amount      int64 `json:"amount" binding:"required,gt=0"`
}

// FreezeGroupRequest pauses an active group.
type FreezeGroupRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// UnfreezeGroupRequest releases a frozen group to TargetStatus (active when empty).
type UnfreezeGroupRequest struct {
	Reason       string             `json:"reason" binding:"max=500"`
	TargetStatus domain.GroupStatus `json:"targetStatus" binding:"omitempty,oneof=active completed"`
}

// RemoveMemberRequest carries the reason for an administrative removal.
type RemoveMemberRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// TriggerPayoutRequest releases a round's escrow. RoundNumber 0 means the current round.
type TriggerPayoutRequest struct {
	RoundNumber int  `json:"roundNumber" binding:"omitempty,min=1"`
	Force       bool `json:"force"`
}

// ListGroupsParams defines query parameters for listing groups.
type ListGroupsParams struct {
	Limit     int     `form:"limit,default=20" binding:"omitempty,min=1,max=100"`
	NextToken *string `form:"nextToken"`
	Status    string  `form:"status" binding:"omitempty,oneof=open filled active frozen completed"`
	MemberID  string  `form:"memberId"`
}

// MemberResponse is a member enriched with directory data.
type MemberResponse struct {
	UserID                  string              `json:"userID"`
	Name                    string              `json:"name,omitempty"`
	Email                   string              `json:"email,omitempty"`
	PayoutPosition          int                 `json:"payoutPosition"`
	TotalContributed        int64               `json:"totalContributed"`
	TotalContributedDisplay string              `json:"totalContributedDisplay"`
	Status                  domain.MemberStatus `json:"status"`
	JoinedAt                time.Time           `json:"joinedAt"`
	RemovedAt               *time.Time          `json:"removedAt,omitempty"`
	RemovalReason           string              `json:"removalReason,omitempty"`
	Forfeited               bool                `json:"forfeited"`
	ForfeitedInRound        int                 `json:"forfeitedInRound,omitempty"`
}

// ContributionResponse is a single payment into a round.
type ContributionResponse struct {
	UserID string    `json:"userID"`
	Amount int64     `json:"amount"`
	PaidAt time.Time `json:"paidAt"`
}

// RoundResponse mirrors domain.Round with display amounts.
type RoundResponse struct {
	RoundNumber             int                    `json:"roundNumber"`
	RecipientID             string                 `json:"recipientID"`
	RecipientName           string                 `json:"recipientName,omitempty"`
	DueDate                 time.Time              `json:"dueDate"`
	Status                  domain.RoundStatus     `json:"status"`
	Contributions           []ContributionResponse `json:"contributions"`
	TotalContributed        int64                  `json:"totalContributed"`
	TotalContributedDisplay string                 `json:"totalContributedDisplay"`
	ExpectedTotal           int64                  `json:"expectedTotal"`
	ExpectedTotalDisplay    string                 `json:"expectedTotalDisplay"`
	PayoutAmount            int64                  `json:"payoutAmount"`
	Forced                  bool                   `json:"forced"`
	Overdue                 bool                   `json:"overdue"`
	StartedAt               *time.Time             `json:"startedAt,omitempty"`
	PayoutRequestedAt       *time.Time             `json:"payoutRequestedAt,omitempty"`
	CompletedAt             *time.Time             `json:"completedAt,omitempty"`
}

// FreezeResponse describes why a group is frozen.
type FreezeResponse struct {
	Reason   string    `json:"reason"`
	FrozenBy string    `json:"frozenBy"`
	FrozenAt time.Time `json:"frozenAt"`
}

// GroupResponse defines the data returned for a group.
type GroupResponse struct {
	GroupID                   string                 `json:"groupID"`
	Name                      string                 `json:"name"`
	Description               string                 `json:"description"`
	CurrencyCode              string                 `json:"currencyCode"`
	ContributionAmount        int64                  `json:"contributionAmount"`
	ContributionAmountDisplay string                 `json:"contributionAmountDisplay"`
	Frequency                 domain.Frequency       `json:"frequency"`
	MaxMembers                int                    `json:"maxMembers"`
	MinMembers                int                    `json:"minMembers"`
	CurrentMembers            int                    `json:"currentMembers"`
	PayoutOrderRule           domain.PayoutOrderRule `json:"payoutOrderRule"`
	ForfeitOnMissedPayment    bool                   `json:"forfeitOnMissedPayment"`
	Status                    domain.GroupStatus     `json:"status"`
	CurrentRound              int                    `json:"currentRound"`
	TotalRounds               int                    `json:"totalRounds"`
	EscrowBalance             int64                  `json:"escrowBalance"`
	EscrowBalanceDisplay      string                 `json:"escrowBalanceDisplay"`
	TotalContributed          int64                  `json:"totalContributed"`
	TotalPaidOut              int64                  `json:"totalPaidOut"`
	JoinCode                  string                 `json:"joinCode"`
	InviteLink                string                 `json:"inviteLink,omitempty"`
	Freeze                    *FreezeResponse        `json:"freeze,omitempty"`
	Members                   []MemberResponse       `json:"members"`
	Rounds                    []RoundResponse        `json:"rounds"`
	StartedAt                 *time.Time             `json:"startedAt,omitempty"`
	CompletedAt               *time.Time             `json:"completedAt,omitempty"`
	Version                   int64                  `json:"version"`
	CreatedAt                 time.Time              `json:"createdAt"`
	CreatedBy                 string                 `json:"createdBy"`
	LastUpdatedAt             time.Time              `json:"lastUpdatedAt"`
	LastUpdatedBy             string                 `json:"lastUpdatedBy"`
}

// ListGroupsResponse wraps a page of groups.
type ListGroupsResponse struct {
	Groups    []GroupResponse `json:"groups"`
	NextToken *string         `json:"nextToken,omitempty"`
}

// ContributionResultResponse is returned after a contribution. PayoutTriggered
// is set when the contribution funded the round and its payout completed.
type ContributionResultResponse struct {
	Round           RoundResponse `json:"round"`
	Group           GroupResponse `json:"group"`
	PayoutTriggered bool          `json:"payoutTriggered"`
}

// PayoutResultResponse is returned after a payout trigger.
type PayoutResultResponse struct {
	Round            RoundResponse `json:"round"`
	Group            GroupResponse `json:"group"`
	AlreadyCompleted bool          `json:"alreadyCompleted"`
}

// ToMemberResponse converts a domain.Member, enriching it from profiles when present.
func ToMemberResponse(m domain.Member, currency string, profiles map[string]domain.User) MemberResponse {
	res := MemberResponse{
		UserID:                  m.UserID,
		PayoutPosition:          m.PayoutPosition,
		TotalContributed:        m.TotalContributed,
		TotalContributedDisplay: utils.FormatMinorUnits(m.TotalContributed, currency),
		Status:                  m.Status,
		JoinedAt:                m.JoinedAt,
		RemovedAt:               m.RemovedAt,
		RemovalReason:           m.RemovalReason,
		Forfeited:               m.Forfeited,
		ForfeitedInRound:        m.ForfeitedInRound,
	}
	if u, ok := profiles[m.UserID]; ok {
		res.Name = u.Name
		res.Email = u.Email
	}
	return res
}

// ToRoundResponse converts a domain.Round to RoundResponse DTO.
func ToRoundResponse(r domain.Round, currency string, profiles map[string]domain.User) RoundResponse {
	contributions := make([]ContributionResponse, len(r.Contributions))
	for i, c := range r.Contributions {
		contributions[i] = ContributionResponse{UserID: c.UserID, Amount: c.Amount, PaidAt: c.PaidAt}
	}
	res := RoundResponse{
		RoundNumber:             r.RoundNumber,
		RecipientID:             r.RecipientID,
		DueDate:                 r.DueDate,
		Status:                  r.Status,
		Contributions:           contributions,
		TotalContributed:        r.TotalContributed,
		TotalContributedDisplay: utils.FormatMinorUnits(r.TotalContributed, currency),
		ExpectedTotal:           r.ExpectedTotal,
		ExpectedTotalDisplay:    utils.FormatMinorUnits(r.ExpectedTotal, currency),
		PayoutAmount:            r.PayoutAmount,
		Forced:                  r.Forced,
		Overdue:                 r.Overdue,
		StartedAt:               r.StartedAt,
		PayoutRequestedAt:       r.PayoutRequestedAt,
		CompletedAt:             r.CompletedAt,
	}
	if u, ok := profiles[r.RecipientID]; ok {
		res.RecipientName = u.Name
	}
	return res
}

// ToGroupResponse converts a domain.Group to GroupResponse DTO.
func ToGroupResponse(g *domain.Group, profiles map[string]domain.User) GroupResponse {
	members := make([]MemberResponse, len(g.Members))
	for i, m := range g.Members {
		members[i] = ToMemberResponse(m, g.CurrencyCode, profiles)
	}
	rounds := make([]RoundResponse, len(g.Rounds))
	for i, r := range g.Rounds {
		rounds[i] = ToRoundResponse(r, g.CurrencyCode, profiles)
	}
	res := GroupResponse{
		GroupID:                   g.GroupID,
		Name:                      g.Name,
		Description:               g.Description,
		CurrencyCode:              g.CurrencyCode,
		ContributionAmount:        g.ContributionAmount,
		ContributionAmountDisplay: utils.FormatMinorUnits(g.ContributionAmount, g.CurrencyCode),
		Frequency:                 g.Frequency,
		MaxMembers:                g.MaxMembers,
		MinMembers:                g.MinMembers,
		CurrentMembers:            g.CurrentMembers,
		PayoutOrderRule:           g.PayoutOrderRule,
		ForfeitOnMissedPayment:    g.ForfeitOnMissedPayment,
		Status:                    g.Status,
		CurrentRound:              g.CurrentRound,
		TotalRounds:               g.TotalRounds,
		EscrowBalance:             g.EscrowBalance,
		EscrowBalanceDisplay:      utils.FormatMinorUnits(g.EscrowBalance, g.CurrencyCode),
		TotalContributed:          g.TotalContributed,
		TotalPaidOut:              g.TotalPaidOut,
		JoinCode:                  g.JoinCode,
		InviteLink:                g.InviteLink,
		Members:                   members,
		Rounds:                    rounds,
		StartedAt:                 g.StartedAt,
		CompletedAt:               g.CompletedAt,
		Version:                   g.Version,
		CreatedAt:                 g.CreatedAt,
		CreatedBy:                 g.CreatedBy,
		LastUpdatedAt:             g.LastUpdatedAt,
		LastUpdatedBy:             g.LastUpdatedBy,
	}
	if g.FreezeInfo != nil {
		res.Freeze = &FreezeResponse{Reason: g.FreezeInfo.Reason, FrozenBy: g.FreezeInfo.FrozenBy, FrozenAt: g.FreezeInfo.FrozenAt}
	}
	return res
}

// ToListGroupsResponse converts a page of groups.
func ToListGroupsResponse(groups []domain.Group, nextToken *string, profiles map[string]domain.User) ListGroupsResponse {
	res := ListGroupsResponse{Groups: make([]GroupResponse, len(groups)), NextToken: nextToken}
	for i := range groups {
		res.Groups[i] = ToGroupResponse(&groups[i], profiles)
	}
	return res
}
