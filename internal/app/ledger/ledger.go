// Package ledger is the account earning state machine: session start, accrual,
// claim, role management and direct credits.
//
// Every mutation is a single locked read-modify-write against the store:
// the per-account lock serializes writers within this process, and the
// store's version check catches anything else. Role expiry is evaluated
// lazily here — there is no background scheduler.
package ledger

import (
	"github.com/ByteForce-Labs/Tonance/internal/domain"
	"github.com/ByteForce-Labs/Tonance/internal/infra/dsa"
	"github.com/ByteForce-Labs/Tonance/internal/infra/observability"
)

// Service implements the account ledger operations.
type Service struct {
	accounts domain.AccountStore
	log      domain.EarningLog
	clock    domain.Clock
	locks    *dsa.KeyMutex
	metrics  *observability.Metrics
}

// NewService creates the ledger service. log and metrics may be nil.
func NewService(accounts domain.AccountStore, log domain.EarningLog, clock domain.Clock, metrics *observability.Metrics) *Service {
	return &Service{
		accounts: accounts,
		log:      log,
		clock:    clock,
		locks:    dsa.NewKeyMutex(),
		metrics:  metrics,
	}
}

// StartEarning begins an earning session for the account.
// Fails with ErrAlreadyEarning when a session is active.
func (s *Service) StartEarning(id string) (*domain.Account, error) {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	a, err := s.accounts.Account(id)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := a.StartEarning(now); err != nil {
		return nil, err
	}
	a.LastActive = now

	if err := s.accounts.UpdateAccount(a); err != nil {
		return nil, err
	}
	return a, nil
}

// CalculateEarnings returns the accrual of the account's active session as
// of now. Read-only: a lapsed role is applied to the computation but not
// persisted — the next mutating operation settles it.
func (s *Service) CalculateEarnings(id string) (int64, error) {
	a, err := s.accounts.Account(id)
	if err != nil {
		return 0, err
	}
	now := s.clock.Now()
	a.CheckAndUpdateRole(now)
	return a.CalculateEarnings(now), nil
}

// Claim credits the active session's accrual and ends the session. A
// zero-value claim returns 0 and persists nothing, leaving an in-progress
// session intact.
func (s *Service) Claim(id string) (int64, error) {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	a, err := s.accounts.Account(id)
	if err != nil {
		return 0, err
	}

	now := s.clock.Now()
	a.CheckAndUpdateRole(now)
	claimed := a.Claim(now)
	if claimed == 0 {
		return 0, nil
	}
	a.LastActive = now

	if err := s.accounts.UpdateAccount(a); err != nil {
		return 0, err
	}

	s.appendLog(a, domain.SourceClaim, claimed, "")
	s.metrics.RecordClaim(claimed)
	return claimed, nil
}

// AddEarnings credits the balance and total-earnings counter unconditionally.
func (s *Service) AddEarnings(id string, amount int64, source domain.EarnSource, note string) (*domain.Account, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidInput
	}

	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	a, err := s.accounts.Account(id)
	if err != nil {
		return nil, err
	}

	a.AddEarnings(amount)
	a.LastActive = s.clock.Now()
	if err := s.accounts.UpdateAccount(a); err != nil {
		return nil, err
	}

	s.appendLog(a, source, amount, note)
	return a, nil
}

// SetRole assigns a role, with an optional expiry durationDays from now.
func (s *Service) SetRole(id string, role domain.Role, durationDays int) (*domain.Account, error) {
	if !role.Valid() {
		return nil, domain.ErrInvalidInput
	}

	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	a, err := s.accounts.Account(id)
	if err != nil {
		return nil, err
	}

	a.SetRole(role, durationDays, s.clock.Now())
	if err := s.accounts.UpdateAccount(a); err != nil {
		return nil, err
	}
	return a, nil
}

// CheckAndUpdateRole settles a lapsed role expiry, persisting the reversion.
func (s *Service) CheckAndUpdateRole(id string) (*domain.Account, error) {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	a, err := s.accounts.Account(id)
	if err != nil {
		return nil, err
	}
	if !a.CheckAndUpdateRole(s.clock.Now()) {
		return a, nil
	}
	if err := s.accounts.UpdateAccount(a); err != nil {
		return nil, err
	}
	return a, nil
}

// RecordGameScore credits a game result to the account's balance.
func (s *Service) RecordGameScore(username string, score int64) (*domain.Account, error) {
	if score <= 0 {
		return nil, domain.ErrInvalidInput
	}

	a, err := s.accounts.AccountByUsername(username)
	if err != nil {
		return nil, err
	}

	s.locks.Lock(a.ID)
	defer s.locks.Unlock(a.ID)

	// Reload under the lock — the pre-lock read only resolved the id.
	if a, err = s.accounts.Account(a.ID); err != nil {
		return nil, err
	}

	a.RecordGameScore(score, s.clock.Now())
	if err := s.accounts.UpdateAccount(a); err != nil {
		return nil, err
	}

	s.appendLog(a, domain.SourceGame, score, "")
	return a, nil
}

// Snapshot returns the account with a lapsed role applied in memory and its
// live session accrual. Read-only.
func (s *Service) Snapshot(id string) (*domain.Account, int64, error) {
	a, err := s.accounts.Account(id)
	if err != nil {
		return nil, 0, err
	}
	now := s.clock.Now()
	a.CheckAndUpdateRole(now)
	return a, a.CalculateEarnings(now), nil
}

// History returns the account's most recent balance movements.
func (s *Service) History(id string, limit int) ([]domain.EarningEntry, error) {
	if _, err := s.accounts.Account(id); err != nil {
		return nil, err
	}
	if s.log == nil {
		return nil, nil
	}
	return s.log.EarningHistory(id, limit)
}

func (s *Service) appendLog(a *domain.Account, source domain.EarnSource, amount int64, note string) {
	if s.log == nil {
		return
	}
	// History append is best-effort; the balance is already committed.
	_ = s.log.AppendEarning(domain.EarningEntry{
		AccountID:    a.ID,
		Source:       source,
		Amount:       amount,
		BalanceAfter: a.Balance,
		Note:         note,
		At:           s.clock.Now(),
	})
}
