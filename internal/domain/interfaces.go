package domain

import "time"

// ─── Service Interfaces ─────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; application layer depends on them.

// Clock supplies the current time. Accrual, maturity and expiry are all
// evaluated lazily against it, so injecting a fake makes the whole state
// machine deterministic under test.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by the wall clock.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }

// AccountStore abstracts durable keyed storage of accounts.
// Updates are atomic single-record read-modify-writes: UpdateAccount fails
// with ErrConflict when the record's version no longer matches.
type AccountStore interface {
	CreateAccount(a *Account) error
	Account(id string) (*Account, error)
	AccountByTelegramID(telegramUserID string) (*Account, error)
	AccountByUsername(username string) (*Account, error)
	UpdateAccount(a *Account) error

	// LinkReferral atomically persists the referrer's credited bonus and
	// appends the referred account to its referral list.
	LinkReferral(referrer *Account, referredID string) error

	// ReferralLeaders returns every account with its referral count,
	// ordered by creation time ascending. The classifier's stable sort on
	// top of this makes earlier joiners win rank ties.
	ReferralLeaders() ([]RankedAccount, error)

	Stats(now time.Time) (Stats, error)
}

// StakeStore abstracts durable storage of stakes. Operations touching both
// an account's balance and a stake run as one transaction so a credited
// balance can never coexist with a still-claimable stake.
type StakeStore interface {
	// CreateStake persists the debited account and the new stake atomically.
	CreateStake(owner *Account, s *Stake) error
	Stake(id string) (*Stake, error)
	StakesByOwner(ownerID string) ([]*Stake, error)
	// SettleStake persists the credited account and the claimed stake atomically.
	SettleStake(owner *Account, s *Stake) error
}

// TaskStore abstracts the task catalog.
type TaskStore interface {
	CreateTask(t *Task) error
	Task(id string) (*Task, error)
	UpdateTask(t *Task) error
	DeleteTask(id string) error
	// TasksFor returns active tasks the account has not completed yet.
	TasksFor(a *Account) ([]*Task, error)
	// CompleteTask persists the rewarded account and the completion record atomically.
	CompleteTask(a *Account, t *Task) error
}

// Stats is the aggregate report over all accounts.
type Stats struct {
	TotalUsers  int64 `json:"total_users"`
	TotalMined  int64 `json:"total_mined"`
	DailyUsers  int64 `json:"daily_users"`
	OnlineUsers int64 `json:"online_users"`
}
