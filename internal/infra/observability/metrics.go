// Package observability holds the Prometheus metrics for the points engine.
// Metrics are served at /metrics when enabled in config.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles all engine counters. A nil *Metrics is a valid no-op
// receiver, so services can run unmetered in tests.
type Metrics struct {
	Registrations  prometheus.Counter
	Claims         prometheus.Counter
	PointsClaimed  prometheus.Counter
	StakesCreated  prometheus.Counter
	PointsStaked   prometheus.Counter
	StakesSettled  prometheus.Counter
	InterestPaid   prometheus.Counter
	ReferralPoints prometheus.Counter
	TasksCompleted prometheus.Counter
}

// New registers the engine metrics with reg. A nil reg uses the default
// Prometheus registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		Registrations: factory.NewCounter(prometheus.CounterOpts{
			Name: "tonance_registrations_total",
			Help: "Accounts registered.",
		}),
		Claims: factory.NewCounter(prometheus.CounterOpts{
			Name: "tonance_claims_total",
			Help: "Successful non-zero earning claims.",
		}),
		PointsClaimed: factory.NewCounter(prometheus.CounterOpts{
			Name: "tonance_points_claimed_total",
			Help: "Points credited by earning claims.",
		}),
		StakesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "tonance_stakes_created_total",
			Help: "Stakes created.",
		}),
		PointsStaked: factory.NewCounter(prometheus.CounterOpts{
			Name: "tonance_points_staked_total",
			Help: "Points locked into stakes.",
		}),
		StakesSettled: factory.NewCounter(prometheus.CounterOpts{
			Name: "tonance_stakes_settled_total",
			Help: "Stakes claimed after maturity.",
		}),
		InterestPaid: factory.NewCounter(prometheus.CounterOpts{
			Name: "tonance_interest_paid_total",
			Help: "Interest points paid out by settled stakes.",
		}),
		ReferralPoints: factory.NewCounter(prometheus.CounterOpts{
			Name: "tonance_referral_points_total",
			Help: "Points granted by referral bonuses and cascades.",
		}),
		TasksCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "tonance_tasks_completed_total",
			Help: "Task completions rewarded.",
		}),
	}
}

// ─── Nil-Safe Recorders ─────────────────────────────────────────────────────

// RecordRegistration counts one new account.
func (m *Metrics) RecordRegistration() {
	if m == nil {
		return
	}
	m.Registrations.Inc()
}

// RecordClaim counts one non-zero claim and its credited points.
func (m *Metrics) RecordClaim(points int64) {
	if m == nil {
		return
	}
	m.Claims.Inc()
	m.PointsClaimed.Add(float64(points))
}

// RecordStakeCreated counts one stake lock.
func (m *Metrics) RecordStakeCreated(principal int64) {
	if m == nil {
		return
	}
	m.StakesCreated.Inc()
	m.PointsStaked.Add(float64(principal))
}

// RecordStakeSettled counts one stake payout.
func (m *Metrics) RecordStakeSettled(interest int64) {
	if m == nil {
		return
	}
	m.StakesSettled.Inc()
	m.InterestPaid.Add(float64(interest))
}

// RecordReferralPoints counts points granted to a referrer chain.
func (m *Metrics) RecordReferralPoints(points int64) {
	if m == nil {
		return
	}
	m.ReferralPoints.Add(float64(points))
}

// RecordTaskCompleted counts one rewarded task completion.
func (m *Metrics) RecordTaskCompleted() {
	if m == nil {
		return
	}
	m.TasksCompleted.Inc()
}
