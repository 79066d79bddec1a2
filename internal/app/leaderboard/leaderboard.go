// Package leaderboard generates the referral-rank tier report. Purely
// read-side: tiers are derived from rank at call time, never persisted.
package leaderboard

import "github.com/ByteForce-Labs/Tonance/internal/domain"

// Service builds leaderboard reports from the account store.
type Service struct {
	accounts domain.AccountStore
}

// NewService creates the leaderboard service.
func NewService(accounts domain.AccountStore) *Service {
	return &Service{accounts: accounts}
}

// Board classifies every account into Promoter/Influencer/Ambassador
// buckets by referral-count rank.
func (s *Service) Board() (domain.Classification, error) {
	leaders, err := s.accounts.ReferralLeaders()
	if err != nil {
		return domain.Classification{}, err
	}
	return domain.Classify(leaders), nil
}

// RankOf returns a single account's rank, tier and referral count.
func (s *Service) RankOf(username string) (domain.RankedEntry, error) {
	leaders, err := s.accounts.ReferralLeaders()
	if err != nil {
		return domain.RankedEntry{}, err
	}
	return domain.RankOf(leaders, username)
}
