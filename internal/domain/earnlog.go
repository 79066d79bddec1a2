package domain

import "time"

// ─── Earning Log ────────────────────────────────────────────────────────────
// Every balance movement is recorded as an append-only history row. The log
// is a record, not a source of truth — balances live on the account.

// EarnSource is the business reason for a balance movement.
type EarnSource string

const (
	SourceClaim       EarnSource = "CLAIM"
	SourceJoinBonus   EarnSource = "JOIN_BONUS"
	SourceReferral    EarnSource = "REFERRAL"
	SourceCascade     EarnSource = "CASCADE"
	SourceStakeLock   EarnSource = "STAKE_LOCK"
	SourceStakePayout EarnSource = "STAKE_PAYOUT"
	SourceTask        EarnSource = "TASK"
	SourceGame        EarnSource = "GAME"
)

// EarningEntry is one row in the earning log. Amount is negative for
// debits (stake locks).
type EarningEntry struct {
	ID           int64      `json:"id"`
	AccountID    string     `json:"account_id"`
	Source       EarnSource `json:"source"`
	Amount       int64      `json:"amount"`
	BalanceAfter int64      `json:"balance_after"`
	Note         string     `json:"note,omitempty"`
	At           time.Time  `json:"at"`
}

// EarningLog abstracts the append-only balance history.
type EarningLog interface {
	AppendEarning(e EarningEntry) error
	EarningHistory(accountID string, limit int) ([]EarningEntry, error)
}
