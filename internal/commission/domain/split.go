package domain

import (
	"errors"
	"math"
)

var (
	ErrInvalidAmount = errors.New("invalid_amount")
	ErrInvalidRate   = errors.New("invalid_commission_rate")
)

// Split divides a gross amount in minor units into the platform
// commission and the helper payout. The commission rounds half-up so
// the two parts always sum to the gross amount exactly.
func Split(amount int64, rate float64) (commission, payout int64, err error) {
	if amount <= 0 {
		return 0, 0, ErrInvalidAmount
	}
	if rate < 0 || rate >= 1 || math.IsNaN(rate) {
		return 0, 0, ErrInvalidRate
	}

	commission = int64(math.Floor(float64(amount)*rate + 0.5))
	payout = amount - commission
	return commission, payout, nil
}
