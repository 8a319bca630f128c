package domain

import (
	"errors"
	"math"
	"testing"
)

func TestSplit(t *testing.T) {
	cases := []struct {
		name           string
		amount         int64
		rate           float64
		wantCommission int64
		wantPayout     int64
	}{
		{"ten percent of 200 kr", 20000, 0.10, 2000, 18000},
		{"rounds half up", 125, 0.10, 13, 112},
		{"rounds down below half", 124, 0.10, 12, 112},
		{"zero rate", 20000, 0, 0, 20000},
		{"single minor unit", 1, 0.10, 0, 1},
		{"large amount", 9_999_999_00, 0.10, 99_999_990, 899_999_910},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			commission, payout, err := Split(tc.amount, tc.rate)
			if err != nil {
				t.Fatalf("split: %v", err)
			}
			if commission != tc.wantCommission {
				t.Fatalf("expected commission %d, got %d", tc.wantCommission, commission)
			}
			if payout != tc.wantPayout {
				t.Fatalf("expected payout %d, got %d", tc.wantPayout, payout)
			}
			if commission+payout != tc.amount {
				t.Fatalf("split does not sum to amount: %d + %d != %d", commission, payout, tc.amount)
			}
		})
	}
}

func TestSplitRejectsInvalidInput(t *testing.T) {
	if _, _, err := Split(0, 0.10); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for zero amount, got %v", err)
	}
	if _, _, err := Split(-100, 0.10); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for negative amount, got %v", err)
	}
	if _, _, err := Split(100, -0.01); !errors.Is(err, ErrInvalidRate) {
		t.Fatalf("expected ErrInvalidRate for negative rate, got %v", err)
	}
	if _, _, err := Split(100, 1.0); !errors.Is(err, ErrInvalidRate) {
		t.Fatalf("expected ErrInvalidRate for rate of one, got %v", err)
	}
	if _, _, err := Split(100, math.NaN()); !errors.Is(err, ErrInvalidRate) {
		t.Fatalf("expected ErrInvalidRate for NaN rate, got %v", err)
	}
}

func TestSplitAlwaysConserves(t *testing.T) {
	for amount := int64(1); amount <= 1000; amount++ {
		commission, payout, err := Split(amount, 0.10)
		if err != nil {
			t.Fatalf("split %d: %v", amount, err)
		}
		if commission+payout != amount {
			t.Fatalf("amount %d not conserved: %d + %d", amount, commission, payout)
		}
		if commission < 0 || payout < 0 {
			t.Fatalf("amount %d produced negative part: %d / %d", amount, commission, payout)
		}
	}
}
