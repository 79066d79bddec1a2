package domain

import "sort"

// ─── Leaderboard Tiering ────────────────────────────────────────────────────
// Tiering is a read-only report derived from referral counts. It never
// mutates accounts — Promoter/Influencer/Ambassador are display labels,
// not persisted roles.

// Tier is a rank-derived leaderboard classification.
type Tier string

const (
	TierPromoter   Tier = "Promoter"
	TierInfluencer Tier = "Influencer"
	TierAmbassador Tier = "Ambassador"
	TierNone       Tier = "User" // beyond the tiered ranks
)

// Rank thresholds for each tier (1-based, inclusive).
const (
	PromoterMaxRank   = 5000
	InfluencerMaxRank = 20000
	AmbassadorMaxRank = 50000
)

// TierForRank maps a 1-based rank to its tier.
func TierForRank(rank int) Tier {
	switch {
	case rank <= 0:
		return TierNone
	case rank <= PromoterMaxRank:
		return TierPromoter
	case rank <= InfluencerMaxRank:
		return TierInfluencer
	case rank <= AmbassadorMaxRank:
		return TierAmbassador
	default:
		return TierNone
	}
}

// RankedAccount is one leaderboard input row.
type RankedAccount struct {
	Username      string `json:"username"`
	ReferralCount int    `json:"referral_count"`
}

// RankedEntry is one classified leaderboard row.
type RankedEntry struct {
	Username      string `json:"username"`
	Tier          Tier   `json:"role"`
	ReferralCount int    `json:"referral_count"`
	Rank          int    `json:"rank"`
}

// Classification buckets ranked accounts by tier. Accounts ranked beyond
// AmbassadorMaxRank are omitted from every bucket.
type Classification struct {
	Promoters   []RankedEntry `json:"promoters"`
	Influencers []RankedEntry `json:"influencers"`
	Ambassadors []RankedEntry `json:"ambassadors"`
}

// Rank sorts accounts by referral count descending. The sort is stable, so
// accounts with equal counts keep their input order — stores supply input
// ordered by join time, making the tie-break "earlier joiner ranks first"
// and the whole report deterministic.
func Rank(accounts []RankedAccount) []RankedEntry {
	ordered := make([]RankedAccount, len(accounts))
	copy(ordered, accounts)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ReferralCount > ordered[j].ReferralCount
	})

	entries := make([]RankedEntry, len(ordered))
	for i, a := range ordered {
		rank := i + 1
		entries[i] = RankedEntry{
			Username:      a.Username,
			Tier:          TierForRank(rank),
			ReferralCount: a.ReferralCount,
			Rank:          rank,
		}
	}
	return entries
}

// Classify ranks accounts and buckets them into tiers.
func Classify(accounts []RankedAccount) Classification {
	var c Classification
	for _, e := range Rank(accounts) {
		switch e.Tier {
		case TierPromoter:
			c.Promoters = append(c.Promoters, e)
		case TierInfluencer:
			c.Influencers = append(c.Influencers, e)
		case TierAmbassador:
			c.Ambassadors = append(c.Ambassadors, e)
		}
	}
	return c
}

// RankOf locates a single account in the ranked report.
// Fails with ErrAccountNotFound when the username is absent.
func RankOf(accounts []RankedAccount, username string) (RankedEntry, error) {
	for _, e := range Rank(accounts) {
		if e.Username == username {
			return e, nil
		}
	}
	return RankedEntry{}, ErrAccountNotFound
}
