package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency. Every operation is
// a single deterministic attempt; failures surface verbatim to the boundary.

var (
	// Lookup errors
	ErrAccountNotFound = errors.New("account not found")
	ErrStakeNotFound   = errors.New("stake not found")
	ErrTaskNotFound    = errors.New("task not found")

	// Input errors
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidPeriod       = errors.New("invalid staking period")
	ErrInvalidReferralCode = errors.New("invalid referral code")
	ErrAccountExists       = errors.New("account already exists")

	// State errors
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAlreadyEarning      = errors.New("already earning")
	ErrAlreadyClaimed      = errors.New("stake already claimed")
	ErrNotMatured          = errors.New("staking period has not ended")
	ErrTaskCompleted       = errors.New("task already completed")

	// ErrConflict signals a lost optimistic-concurrency race: the record
	// changed between read and write. The engine never retries internally.
	ErrConflict = errors.New("concurrent update conflict")
)
