// Package domain contains pure business types with ZERO infrastructure imports.
// This is the innermost ring of clean architecture — it depends on nothing.
package domain

import (
	"math"
	"time"
)

// ─── Economy Constants ──────────────────────────────────────────────────────

const (
	// EarnRatePerHour is the base accrual rate in points per hour.
	EarnRatePerHour = 10800

	// UserSessionCap limits a plain User's single session to one hour's
	// worth of points, no matter how long the session ran.
	UserSessionCap = 10800

	// JoinBonus is credited to every new account at registration.
	JoinBonus = 30000

	// DirectReferralBonus is the flat credit the immediate referrer
	// receives for each new member they bring in.
	DirectReferralBonus = 15000
)

// ReferralCascadeShares is the decaying bonus schedule applied up the
// referrer chain on registration. Level 1 is the direct referrer.
// Each share is a fraction of JoinBonus.
var ReferralCascadeShares = [5]float64{0.20, 0.10, 0.05, 0.025, 0.0125}

// CascadeBonus returns the points granted at the given cascade level (0-based).
func CascadeBonus(level int) int64 {
	if level < 0 || level >= len(ReferralCascadeShares) {
		return 0
	}
	return int64(math.Floor(JoinBonus * ReferralCascadeShares[level]))
}

// ─── Roles ──────────────────────────────────────────────────────────────────

// Role is an account's earning tier. Booster roles raise or uncap the
// accrual rate; plain users stay capped at one hour per session.
type Role string

const (
	RoleUser            Role = "User"
	RoleMonthlyBooster  Role = "MonthlyBooster"
	RoleLifetimeBooster Role = "LifeTimeBooster"
	RoleMonthly3x       Role = "Monthly3xBooster"
	RoleLifetime6x      Role = "LifeTime6xBooster"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleMonthlyBooster, RoleLifetimeBooster, RoleMonthly3x, RoleLifetime6x:
		return true
	}
	return false
}

// Lifetime reports whether the role never expires.
func (r Role) Lifetime() bool {
	return r == RoleLifetimeBooster || r == RoleLifetime6x
}

// ─── Account ────────────────────────────────────────────────────────────────

// Account is the accrual and claim state machine for one user.
// Balance never goes negative and TotalEarnings only increases.
// LastStartTime is non-nil exactly when IsEarning is true.
type Account struct {
	ID             string     `json:"id"`
	TelegramUserID string     `json:"telegram_user_id"`
	Username       string     `json:"username"` // doubles as the referral code
	Role           Role       `json:"role"`
	RoleExpiry     *time.Time `json:"role_expiry,omitempty"`
	Balance        int64      `json:"balance"`
	TotalEarnings  int64      `json:"total_earnings"`
	GameScore      int64      `json:"game_score"`
	IsEarning      bool       `json:"is_earning"`
	LastStartTime  *time.Time `json:"last_start_time,omitempty"`
	LastClaimTime  *time.Time `json:"last_claim_time,omitempty"`
	ReferredBy     string     `json:"referred_by,omitempty"` // account ID, set once
	Referrals      []string   `json:"referrals,omitempty"`   // account IDs, append-only
	TasksCompleted []string   `json:"tasks_completed,omitempty"`
	LastActive     time.Time  `json:"last_active"`
	CreatedAt      time.Time  `json:"created_at"`

	// Version is the optimistic concurrency counter. The store rejects
	// an update whose version no longer matches the stored row.
	Version int64 `json:"-"`
}

// NewAccount creates a fresh account with a zero balance and the base role.
func NewAccount(id, telegramUserID, username string, now time.Time) *Account {
	return &Account{
		ID:             id,
		TelegramUserID: telegramUserID,
		Username:       username,
		Role:           RoleUser,
		LastActive:     now,
		CreatedAt:      now,
	}
}

// CanStartEarning reports whether a new earning session may begin.
// Any role may start at any time while idle.
func (a *Account) CanStartEarning() bool {
	return !a.IsEarning
}

// StartEarning begins an earning session. Fails with ErrAlreadyEarning
// when a session is already active.
func (a *Account) StartEarning(now time.Time) error {
	if a.IsEarning {
		return ErrAlreadyEarning
	}
	a.IsEarning = true
	t := now
	a.LastStartTime = &t
	return nil
}

// StopEarning ends the active session, if any, and reports whether one was active.
func (a *Account) StopEarning() bool {
	if !a.IsEarning {
		return false
	}
	a.IsEarning = false
	return true
}

// CalculateEarnings returns the points accrued by the active session as of now.
// Idle accounts earn nothing. Booster roles are uncapped; a plain User's
// session is capped at UserSessionCap. Unknown roles earn nothing.
func (a *Account) CalculateEarnings(now time.Time) int64 {
	if !a.IsEarning || a.LastStartTime == nil {
		return 0
	}

	hours := now.Sub(*a.LastStartTime).Hours()
	if hours < 0 {
		return 0
	}
	base := EarnRatePerHour * hours

	switch a.Role {
	case RoleMonthlyBooster, RoleLifetimeBooster:
		return int64(math.Floor(base))
	case RoleMonthly3x:
		return int64(math.Floor(base * 3))
	case RoleLifetime6x:
		return int64(math.Floor(base * 6))
	case RoleUser:
		earned := int64(math.Floor(base))
		if earned > UserSessionCap {
			return UserSessionCap
		}
		return earned
	default:
		return 0
	}
}

// Claim credits the session's accrued points and resets the session.
// A zero-value claim leaves the session untouched so an in-progress
// session is never lost.
func (a *Account) Claim(now time.Time) int64 {
	earned := a.CalculateEarnings(now)
	if earned <= 0 {
		return 0
	}
	a.AddEarnings(earned)
	t := now
	a.LastClaimTime = &t
	a.StopEarning()
	a.LastStartTime = nil
	return earned
}

// AddEarnings credits the balance and the monotonic total-earnings counter.
// Used for claims, bonuses, task rewards and game scores alike.
func (a *Account) AddEarnings(amount int64) {
	a.Balance += amount
	a.TotalEarnings += amount
}

// Credit adds amount to the balance without touching TotalEarnings.
// Stake payouts return locked principal, which was already counted when
// first earned.
func (a *Account) Credit(amount int64) {
	a.Balance += amount
}

// Debit removes amount from the balance, failing with ErrInsufficientBalance
// rather than ever letting the balance go negative.
func (a *Account) Debit(amount int64) error {
	if amount > a.Balance {
		return ErrInsufficientBalance
	}
	a.Balance -= amount
	return nil
}

// SetRole assigns a role. A positive duration sets an expiry that many days
// from now; lifetime tiers clear any expiry; otherwise the previous expiry
// is left as it was.
func (a *Account) SetRole(role Role, durationDays int, now time.Time) {
	a.Role = role
	if durationDays > 0 {
		expiry := now.AddDate(0, 0, durationDays)
		a.RoleExpiry = &expiry
	} else if role.Lifetime() {
		a.RoleExpiry = nil
	}
}

// CheckAndUpdateRole lazily expires a time-limited role. Once the expiry has
// passed the account reverts to the base User role, the expiry is cleared and
// any active earning session is force-stopped. Callers must invoke this
// before any read or computation that depends on the current role.
// Reports whether the role was reverted.
func (a *Account) CheckAndUpdateRole(now time.Time) bool {
	if a.RoleExpiry == nil || a.RoleExpiry.After(now) {
		return false
	}
	a.Role = RoleUser
	a.RoleExpiry = nil
	a.StopEarning()
	a.LastStartTime = nil
	return true
}

// RecordGameScore credits a game result straight to the balance and refreshes
// the activity timestamp.
func (a *Account) RecordGameScore(score int64, now time.Time) {
	a.GameScore += score
	a.AddEarnings(score)
	a.LastActive = now
}

// HasCompletedTask reports whether the given task was already rewarded.
func (a *Account) HasCompletedTask(taskID string) bool {
	for _, id := range a.TasksCompleted {
		if id == taskID {
			return true
		}
	}
	return false
}
