package dto

import (
	"fmt"

	"github.com/SscSPs/rosca_app/internal/core/domain"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the domain enum validators used in binding tags.
func RegisterValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("frequency", func(fl validator.FieldLevel) bool {
		return domain.Frequency(fl.Field().String()).IsValid()
	}); err != nil {
		return fmt.Errorf("register frequency validator: %w", err)
	}
	if err := v.RegisterValidation("payout_rule", func(fl validator.FieldLevel) bool {
		return domain.PayoutOrderRule(fl.Field().String()).IsValid()
	}); err != nil {
		return fmt.Errorf("register payout_rule validator: %w", err)
	}
	return nil
}

// Validate checks a defaulted CreateGroupRequest independently of transport
// binding, so non-HTTP callers get the same rules.
func (r CreateGroupRequest) Validate() error {
	switch {
	case r.Name == "":
		return fmt.Errorf("name is required")
	case len(r.Name) > MaxGroupNameLength:
		return fmt.Errorf("name must be at most %d characters", MaxGroupNameLength)
	case r.ContributionAmount <= 0:
		return fmt.Errorf("contributionAmount must be positive")
	case r.ContributionAmount > MaxContributionAmount:
		return fmt.Errorf("contributionAmount must be at most %d", MaxContributionAmount)
	case !r.Frequency.IsValid():
		return fmt.Errorf("frequency must be one of daily, weekly, monthly")
	case !r.PayoutOrderRule.IsValid():
		return fmt.Errorf("payoutOrderRule must be one of as_joined, random, rotating")
	case len(r.CurrencyCode) != 3:
		return fmt.Errorf("currencyCode must be a 3-letter ISO code")
	case r.MinMembers < DefaultMinMembers:
		return fmt.Errorf("minMembers must be at least %d", DefaultMinMembers)
	case r.MaxMembers < r.MinMembers:
		return fmt.Errorf("maxMembers must be at least minMembers")
	case r.MaxMembers > MaxGroupMembers:
		return fmt.Errorf("maxMembers must be at most %d", MaxGroupMembers)
	}
	return nil
}
