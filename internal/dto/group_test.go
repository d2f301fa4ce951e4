package dto

import (
	"testing"
	"time"

	"github.com/SscSPs/rosca_app/internal/core/domain"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() CreateGroupRequest {
	return CreateGroupRequest{
		Name:               "Office Circle",
		ContributionAmount: 5000,
		Frequency:          domain.Monthly,
		MaxMembers:         5,
	}
}

func TestCreateGroupRequest_ApplyDefaults(t *testing.T) {
	req := validRequest()
	req.Name = "  Office Circle "
	req.CurrencyCode = "eur"
	req.ApplyDefaults()

	assert.Equal(t, "Office Circle", req.Name)
	assert.Equal(t, "EUR", req.CurrencyCode)
	assert.Equal(t, 2, req.MinMembers)
	assert.Equal(t, domain.PayoutAsJoined, req.PayoutOrderRule)
	assert.NoError(t, req.Validate())
}

func TestCreateGroupRequest_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *CreateGroupRequest)
	}{
		{"empty name", func(r *CreateGroupRequest) { r.Name = "" }},
		{"zero amount", func(r *CreateGroupRequest) { r.ContributionAmount = 0 }},
		{"amount overflows round total", func(r *CreateGroupRequest) { r.ContributionAmount = MaxContributionAmount + 1 }},
		{"bad frequency", func(r *CreateGroupRequest) { r.Frequency = "yearly" }},
		{"bad rule", func(r *CreateGroupRequest) { r.PayoutOrderRule = "lottery" }},
		{"min above max", func(r *CreateGroupRequest) { r.MinMembers = 6 }},
		{"min below two", func(r *CreateGroupRequest) { r.MinMembers = 1 }},
		{"max too large", func(r *CreateGroupRequest) { r.MaxMembers = 101 }},
		{"bad currency", func(r *CreateGroupRequest) { r.CurrencyCode = "DOLLARS" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			req.ApplyDefaults()
			tt.mutate(&req)
			assert.Error(t, req.Validate())
		})
	}
}

func TestRegisterValidators_BindingTags(t *testing.T) {
	v := validator.New()
	v.SetTagName("binding")
	require.NoError(t, RegisterValidators(v))

	req := validRequest()
	assert.NoError(t, v.Struct(req))

	req.Frequency = "hourly"
	assert.Error(t, v.Struct(req))

	req = validRequest()
	req.PayoutOrderRule = "lottery"
	assert.Error(t, v.Struct(req))

	req = validRequest()
	req.MinMembers = 9
	assert.Error(t, v.Struct(req), "minMembers must not exceed maxMembers")

	req = validRequest()
	req.ContributionAmount = MaxContributionAmount
	assert.NoError(t, v.Struct(req))
	req.ContributionAmount = MaxContributionAmount + 1
	assert.Error(t, v.Struct(req), "contributionAmount above the cap")
}

func TestToGroupResponse(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	g := domain.NewGroup(domain.NewGroupParams{
		GroupID:            "grp_1",
		Name:               "Circle",
		CurrencyCode:       "USD",
		ContributionAmount: 2550,
		Frequency:          domain.Weekly,
		MaxMembers:         2,
		MinMembers:         2,
		CreatedBy:          "u1",
	}, now)
	require.NoError(t, g.Join("u1", now))
	require.NoError(t, g.Join("u2", now))
	require.NoError(t, g.Activate(domain.AsJoinedOrder{}, now))

	profiles := map[string]domain.User{"u1": {UserID: "u1", Name: "Ada", Email: "ada@example.com"}}
	res := ToGroupResponse(g, profiles)

	assert.Equal(t, "25.50", res.ContributionAmountDisplay)
	assert.Equal(t, "0.00", res.EscrowBalanceDisplay)
	require.Len(t, res.Members, 2)
	assert.Equal(t, "Ada", res.Members[0].Name)
	assert.Empty(t, res.Members[1].Name)
	require.Len(t, res.Rounds, 2)
	assert.Equal(t, "Ada", res.Rounds[0].RecipientName)
	assert.Equal(t, "51.00", res.Rounds[0].ExpectedTotalDisplay)
	assert.Nil(t, res.Freeze)
}
