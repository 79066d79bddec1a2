// Package stakebook manages the staking lifecycle: lock balance for a fixed
// period, check maturity against the clock, settle with simple interest.
//
// Lock and settle each touch the owner's balance and a stake record; the
// store persists both in one transaction so the two can never drift apart.
package stakebook

import (
	"github.com/google/uuid"

	"github.com/ByteForce-Labs/Tonance/internal/domain"
	"github.com/ByteForce-Labs/Tonance/internal/infra/dsa"
	"github.com/ByteForce-Labs/Tonance/internal/infra/observability"
)

// Service implements the staking operations.
type Service struct {
	accounts domain.AccountStore
	stakes   domain.StakeStore
	log      domain.EarningLog
	clock    domain.Clock
	locks    *dsa.KeyMutex
	metrics  *observability.Metrics
}

// NewService creates the stakebook service. log and metrics may be nil.
func NewService(accounts domain.AccountStore, stakes domain.StakeStore, log domain.EarningLog, clock domain.Clock, metrics *observability.Metrics) *Service {
	return &Service{
		accounts: accounts,
		stakes:   stakes,
		log:      log,
		clock:    clock,
		locks:    dsa.NewKeyMutex(),
		metrics:  metrics,
	}
}

// Create locks amount of the account's balance for the given period.
// Fails with ErrInsufficientBalance when the balance is too small and
// ErrInvalidPeriod when the period is outside the fixed set.
func (s *Service) Create(accountID string, amount int64, periodDays int) (*domain.Stake, error) {
	s.locks.Lock(accountID)
	defer s.locks.Unlock(accountID)

	a, err := s.accounts.Account(accountID)
	if err != nil {
		return nil, err
	}
	if amount > a.Balance {
		return nil, domain.ErrInsufficientBalance
	}

	now := s.clock.Now()
	stake, err := domain.NewStake(uuid.NewString(), a.ID, amount, periodDays, now)
	if err != nil {
		return nil, err
	}
	if err := a.Debit(amount); err != nil {
		return nil, err
	}
	a.LastActive = now

	if err := s.stakes.CreateStake(a, stake); err != nil {
		return nil, err
	}

	s.appendLog(a, domain.SourceStakeLock, -amount)
	s.metrics.RecordStakeCreated(amount)
	return stake, nil
}

// Claim settles a matured stake: credits principal plus interest to the
// owner's balance and flips the stake to claimed, atomically.
func (s *Service) Claim(accountID, stakeID string) (domain.ClaimResult, error) {
	s.locks.Lock(accountID)
	defer s.locks.Unlock(accountID)

	a, err := s.accounts.Account(accountID)
	if err != nil {
		return domain.ClaimResult{}, err
	}

	stake, err := s.stakes.Stake(stakeID)
	if err != nil {
		return domain.ClaimResult{}, err
	}
	if stake.Owner != a.ID {
		// A foreign stake is indistinguishable from a missing one.
		return domain.ClaimResult{}, domain.ErrStakeNotFound
	}

	now := s.clock.Now()
	res, err := stake.Settle(now)
	if err != nil {
		return domain.ClaimResult{}, err
	}

	a.Credit(res.Total)
	a.LastActive = now
	if err := s.stakes.SettleStake(a, stake); err != nil {
		return domain.ClaimResult{}, err
	}

	s.appendLog(a, domain.SourceStakePayout, res.Total)
	s.metrics.RecordStakeSettled(res.Interest)
	return res, nil
}

// Active returns the account's unclaimed stakes that have not matured yet.
func (s *Service) Active(accountID string) ([]*domain.Stake, error) {
	return s.filterStakes(accountID, false)
}

// Claimable returns the account's unclaimed stakes whose lock period has
// elapsed.
func (s *Service) Claimable(accountID string) ([]*domain.Stake, error) {
	return s.filterStakes(accountID, true)
}

func (s *Service) filterStakes(accountID string, matured bool) ([]*domain.Stake, error) {
	if _, err := s.accounts.Account(accountID); err != nil {
		return nil, err
	}
	all, err := s.stakes.StakesByOwner(accountID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	var out []*domain.Stake
	for _, stake := range all {
		if stake.Claimed {
			continue
		}
		if stake.Matured(now) == matured {
			out = append(out, stake)
		}
	}
	return out, nil
}

func (s *Service) appendLog(a *domain.Account, source domain.EarnSource, amount int64) {
	if s.log == nil {
		return
	}
	_ = s.log.AppendEarning(domain.EarningEntry{
		AccountID:    a.ID,
		Source:       source,
		Amount:       amount,
		BalanceAfter: a.Balance,
		At:           s.clock.Now(),
	})
}
