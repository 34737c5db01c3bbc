package domain

import (
	"fmt"

	"github.com/manan0901/Vibecoder-sub000/internal/apperrors"
	"github.com/shopspring/decimal"
)

// RatePlaces is the precision of a stored commission rate, NUMERIC(5,4).
const RatePlaces = 4

// CommissionPolicy is the platform's cut of every sale.
type CommissionPolicy struct {
	Rate decimal.Decimal
}

// CommissionSplit is the result of splitting a sale amount.
// Commission + SellerAmount always equals the original amount.
type CommissionSplit struct {
	Commission   int64
	SellerAmount int64
	Rate         decimal.Decimal
}

// NewCommissionPolicy validates rate and builds a policy.
func NewCommissionPolicy(rate decimal.Decimal) (CommissionPolicy, error) {
	if err := validateRate(rate); err != nil {
		return CommissionPolicy{}, err
	}
	return CommissionPolicy{Rate: rate}, nil
}

// Split applies the policy to amount.
func (p CommissionPolicy) Split(amount int64) (CommissionSplit, error) {
	return SplitAmount(amount, p.Rate)
}

// SplitAmount computes commission = round_half_up(amount * rate) and derives the seller
// share by subtraction.
func SplitAmount(amount int64, rate decimal.Decimal) (CommissionSplit, error) {
	if amount < 0 {
		return CommissionSplit{}, fmt.Errorf("%w: amount must not be negative, got %d", apperrors.ErrValidation, amount)
	}
	if err := validateRate(rate); err != nil {
		return CommissionSplit{}, err
	}
	// Round rounds half away from zero, which is half-up for non-negative values.
	commission := decimal.NewFromInt(amount).Mul(rate).Round(0).IntPart()
	return CommissionSplit{
		Commission:   commission,
		SellerAmount: amount - commission,
		Rate:         rate,
	}, nil
}

func validateRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: commission rate must be within [0,1], got %s", apperrors.ErrValidation, rate.String())
	}
	if !rate.Equal(rate.Truncate(RatePlaces)) {
		return fmt.Errorf("%w: commission rate allows at most %d decimal places, got %s", apperrors.ErrValidation, RatePlaces, rate.String())
	}
	return nil
}
