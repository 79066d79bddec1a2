// Package referral handles registration: account creation, referrer linking
// and the 5-level cascading join bonus.
//
// The cascade walks the referrer chain with a bounded loop, crediting and
// persisting one ancestor at a time. A failure stops the walk and
// propagates; credits already committed stay committed — best-effort
// forward, no compensation.
package referral

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ByteForce-Labs/Tonance/internal/domain"
	"github.com/ByteForce-Labs/Tonance/internal/infra/dsa"
	"github.com/ByteForce-Labs/Tonance/internal/infra/observability"
)

// Service implements registration and the referral cascade.
type Service struct {
	accounts domain.AccountStore
	log      domain.EarningLog
	clock    domain.Clock
	locks    *dsa.KeyMutex
	metrics  *observability.Metrics
}

// NewService creates the referral service. log and metrics may be nil.
func NewService(accounts domain.AccountStore, log domain.EarningLog, clock domain.Clock, metrics *observability.Metrics) *Service {
	return &Service{
		accounts: accounts,
		log:      log,
		clock:    clock,
		locks:    dsa.NewKeyMutex(),
		metrics:  metrics,
	}
}

// Register creates a new account, optionally linked to a referrer by code
// (the referrer's username), distributes the referral bonuses and grants
// the join bonus.
//
// Fails with ErrInvalidReferralCode when the code resolves to no account
// and ErrAccountExists when the telegram id or username is taken.
func (s *Service) Register(telegramUserID, username, referralCode string) (*domain.Account, error) {
	telegramUserID = strings.TrimSpace(telegramUserID)
	username = strings.TrimSpace(username)
	if telegramUserID == "" || username == "" {
		return nil, domain.ErrInvalidInput
	}

	var referrer *domain.Account
	if referralCode != "" {
		var err error
		referrer, err = s.accounts.AccountByUsername(referralCode)
		if err != nil {
			return nil, domain.ErrInvalidReferralCode
		}
	}

	now := s.clock.Now()
	account := domain.NewAccount(uuid.NewString(), telegramUserID, username, now)
	if referrer != nil {
		account.ReferredBy = referrer.ID
	}
	if err := s.accounts.CreateAccount(account); err != nil {
		return nil, err
	}

	if referrer != nil {
		if err := s.distribute(referrer.ID, account.ID); err != nil {
			return nil, fmt.Errorf("referral cascade: %w", err)
		}
	}

	// Join bonus lands last, after the referrer chain — same order the
	// bonuses were granted historically.
	s.locks.Lock(account.ID)
	defer s.locks.Unlock(account.ID)
	account.AddEarnings(domain.JoinBonus)
	if err := s.accounts.UpdateAccount(account); err != nil {
		return nil, err
	}

	s.appendLog(account, domain.SourceJoinBonus, domain.JoinBonus, "")
	s.metrics.RecordRegistration()
	return account, nil
}

// distribute credits the referrer chain for one new member: the direct
// referrer's flat bonus and link, then the decaying cascade up to 5 levels,
// starting at the direct referrer. Each level is its own committed
// read-modify-write.
func (s *Service) distribute(referrerID, newAccountID string) error {
	// Flat direct-referral credit and referral link.
	if _, err := s.creditAncestor(referrerID, domain.DirectReferralBonus, domain.SourceReferral, newAccountID, true); err != nil {
		return err
	}

	// Decaying cascade. Level 1 is the direct referrer again — the flat
	// bonus and the level share intentionally stack on the same account.
	currentID := referrerID
	for level := 0; level < len(domain.ReferralCascadeShares); level++ {
		cur, err := s.creditAncestor(currentID, domain.CascadeBonus(level), domain.SourceCascade, newAccountID, false)
		if err != nil {
			return err
		}
		next := cur.ReferredBy
		if next == "" {
			break
		}
		// A dangling reference ends the walk like a missing ancestor.
		if _, err := s.accounts.Account(next); err != nil {
			break
		}
		currentID = next
	}
	return nil
}

// creditAncestor applies one bonus to one ancestor as a locked
// read-modify-write and persists it before the walk moves on.
func (s *Service) creditAncestor(id string, amount int64, source domain.EarnSource, newAccountID string, link bool) (*domain.Account, error) {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	a, err := s.accounts.Account(id)
	if err != nil {
		return nil, err
	}

	a.AddEarnings(amount)
	a.LastActive = s.clock.Now()
	if link {
		a.Referrals = append(a.Referrals, newAccountID)
		err = s.accounts.LinkReferral(a, newAccountID)
	} else {
		err = s.accounts.UpdateAccount(a)
	}
	if err != nil {
		return nil, err
	}

	s.appendLog(a, source, amount, "for "+newAccountID)
	s.metrics.RecordReferralPoints(amount)
	return a, nil
}

func (s *Service) appendLog(a *domain.Account, source domain.EarnSource, amount int64, note string) {
	if s.log == nil {
		return
	}
	_ = s.log.AppendEarning(domain.EarningEntry{
		AccountID:    a.ID,
		Source:       source,
		Amount:       amount,
		BalanceAfter: a.Balance,
		Note:         note,
		At:           s.clock.Now(),
	})
}
