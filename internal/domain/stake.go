package domain

import (
	"math"
	"time"
)

// ─── Staking ────────────────────────────────────────────────────────────────

// StakePeriods maps the fixed set of lock periods (in days) to their
// simple, single-period interest rates.
var StakePeriods = map[int]float64{
	3:  0.03,
	15: 0.10,
	45: 0.35,
}

// InterestRateFor returns the rate for a lock period, or ErrInvalidPeriod
// when the period is not one of the fixed set.
func InterestRateFor(periodDays int) (float64, error) {
	rate, ok := StakePeriods[periodDays]
	if !ok {
		return 0, ErrInvalidPeriod
	}
	return rate, nil
}

// Stake is a fixed-term lock of balance. Claimed transitions false→true
// exactly once; a stake is never physically deleted, only settled.
type Stake struct {
	ID           string    `json:"id"`
	Owner        string    `json:"owner"` // account ID
	Principal    int64     `json:"principal"`
	Period       int       `json:"period"` // days
	InterestRate float64   `json:"interest_rate"`
	EndDate      time.Time `json:"end_date"`
	Claimed      bool      `json:"claimed"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewStake locks principal for the given period starting at now.
// The caller is responsible for debiting the owner's balance.
func NewStake(id, owner string, principal int64, periodDays int, now time.Time) (*Stake, error) {
	if principal <= 0 {
		return nil, ErrInvalidInput
	}
	rate, err := InterestRateFor(periodDays)
	if err != nil {
		return nil, err
	}
	return &Stake{
		ID:           id,
		Owner:        owner,
		Principal:    principal,
		Period:       periodDays,
		InterestRate: rate,
		EndDate:      now.AddDate(0, 0, periodDays),
		CreatedAt:    now,
	}, nil
}

// Matured reports whether the lock period has elapsed.
func (s *Stake) Matured(now time.Time) bool {
	return !now.Before(s.EndDate)
}

// Interest returns the simple, non-compounding interest on the principal.
func (s *Stake) Interest() int64 {
	return int64(math.Floor(float64(s.Principal) * s.InterestRate))
}

// ClaimResult is the payout of a settled stake.
type ClaimResult struct {
	Principal int64 `json:"principal"`
	Interest  int64 `json:"interest"`
	Total     int64 `json:"total"`
}

// Settle marks the stake claimed and returns the payout. It enforces the
// one-way claimed transition and the maturity gate.
func (s *Stake) Settle(now time.Time) (ClaimResult, error) {
	if s.Claimed {
		return ClaimResult{}, ErrAlreadyClaimed
	}
	if !s.Matured(now) {
		return ClaimResult{}, ErrNotMatured
	}
	s.Claimed = true
	interest := s.Interest()
	return ClaimResult{
		Principal: s.Principal,
		Interest:  interest,
		Total:     s.Principal + interest,
	}, nil
}
