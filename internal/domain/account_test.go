package domain

import (
	"errors"
	"testing"
	"time"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestAccount() *Account {
	return NewAccount("acc-1", "12345", "alice", t0)
}

// ─── Earning Session Tests ──────────────────────────────────────────────────

func TestAccount_StartEarning(t *testing.T) {
	a := newTestAccount()

	if err := a.StartEarning(t0); err != nil {
		t.Fatalf("StartEarning() error: %v", err)
	}
	if !a.IsEarning {
		t.Error("IsEarning = false, want true")
	}
	if a.LastStartTime == nil || !a.LastStartTime.Equal(t0) {
		t.Errorf("LastStartTime = %v, want %v", a.LastStartTime, t0)
	}
}

func TestAccount_StartEarning_AlreadyEarning(t *testing.T) {
	a := newTestAccount()
	a.StartEarning(t0)

	err := a.StartEarning(t0.Add(time.Minute))
	if !errors.Is(err, ErrAlreadyEarning) {
		t.Errorf("error = %v, want ErrAlreadyEarning", err)
	}
}

func TestAccount_CalculateEarnings(t *testing.T) {
	tests := []struct {
		name    string
		role    Role
		elapsed time.Duration
		want    int64
	}{
		{"user half hour", RoleUser, 30 * time.Minute, 5400},
		{"user exactly one hour", RoleUser, time.Hour, 10800},
		{"user capped after one hour", RoleUser, 5 * time.Hour, 10800},
		{"user capped after a week", RoleUser, 7 * 24 * time.Hour, 10800},
		{"monthly booster uncapped", RoleMonthlyBooster, 2 * time.Hour, 21600},
		{"lifetime booster uncapped", RoleLifetimeBooster, 3 * time.Hour, 32400},
		{"monthly 3x", RoleMonthly3x, time.Hour, 32400},
		{"lifetime 6x", RoleLifetime6x, time.Hour, 64800},
		{"lifetime 6x long session", RoleLifetime6x, 10 * time.Hour, 648000},
		{"unknown role earns nothing", Role("Phantom"), time.Hour, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAccount()
			a.Role = tt.role
			if err := a.StartEarning(t0); err != nil {
				t.Fatalf("StartEarning() error: %v", err)
			}
			got := a.CalculateEarnings(t0.Add(tt.elapsed))
			if got != tt.want {
				t.Errorf("CalculateEarnings() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAccount_CalculateEarnings_Idle(t *testing.T) {
	a := newTestAccount()
	if got := a.CalculateEarnings(t0.Add(time.Hour)); got != 0 {
		t.Errorf("idle CalculateEarnings() = %d, want 0", got)
	}
}

func TestAccount_CalculateEarnings_Floored(t *testing.T) {
	a := newTestAccount()
	a.StartEarning(t0)
	// 1 second = 10800/3600 = 3 points exactly; 1.5 seconds = 4.5 → floor 4
	got := a.CalculateEarnings(t0.Add(1500 * time.Millisecond))
	if got != 4 {
		t.Errorf("CalculateEarnings() = %d, want 4", got)
	}
}

func TestAccount_Claim(t *testing.T) {
	a := newTestAccount()
	a.StartEarning(t0)
	now := t0.Add(30 * time.Minute)

	earned := a.Claim(now)
	if earned != 5400 {
		t.Fatalf("Claim() = %d, want 5400", earned)
	}
	if a.Balance != 5400 {
		t.Errorf("Balance = %d, want 5400", a.Balance)
	}
	if a.TotalEarnings != 5400 {
		t.Errorf("TotalEarnings = %d, want 5400", a.TotalEarnings)
	}
	if a.IsEarning {
		t.Error("IsEarning should be false after claim")
	}
	if a.LastStartTime != nil {
		t.Error("LastStartTime should be nil after claim")
	}
	if a.LastClaimTime == nil || !a.LastClaimTime.Equal(now) {
		t.Errorf("LastClaimTime = %v, want %v", a.LastClaimTime, now)
	}

	// Immediately after a claim the account is idle and accrues nothing.
	if got := a.CalculateEarnings(now); got != 0 {
		t.Errorf("CalculateEarnings() after claim = %d, want 0", got)
	}
}

func TestAccount_Claim_ZeroPreservesSession(t *testing.T) {
	a := newTestAccount()
	a.StartEarning(t0)

	// Claiming at the very start yields nothing and must not reset the session.
	if earned := a.Claim(t0); earned != 0 {
		t.Fatalf("Claim() = %d, want 0", earned)
	}
	if !a.IsEarning {
		t.Error("zero-claim must leave the session active")
	}
	if a.LastStartTime == nil {
		t.Error("zero-claim must keep LastStartTime")
	}
	if a.LastClaimTime != nil {
		t.Error("zero-claim must not set LastClaimTime")
	}
}

func TestAccount_Claim_Idle(t *testing.T) {
	a := newTestAccount()
	if earned := a.Claim(t0.Add(time.Hour)); earned != 0 {
		t.Errorf("Claim() on idle account = %d, want 0", earned)
	}
}

// ─── Balance Tests ──────────────────────────────────────────────────────────

func TestAccount_AddEarnings(t *testing.T) {
	a := newTestAccount()
	a.AddEarnings(30000)
	a.AddEarnings(15000)

	if a.Balance != 45000 {
		t.Errorf("Balance = %d, want 45000", a.Balance)
	}
	if a.TotalEarnings != 45000 {
		t.Errorf("TotalEarnings = %d, want 45000", a.TotalEarnings)
	}
}

func TestAccount_Debit(t *testing.T) {
	a := newTestAccount()
	a.AddEarnings(1000)

	if err := a.Debit(600); err != nil {
		t.Fatalf("Debit() error: %v", err)
	}
	if a.Balance != 400 {
		t.Errorf("Balance = %d, want 400", a.Balance)
	}
	// TotalEarnings is monotonic — a debit never lowers it.
	if a.TotalEarnings != 1000 {
		t.Errorf("TotalEarnings = %d, want 1000", a.TotalEarnings)
	}
}

func TestAccount_Debit_Insufficient(t *testing.T) {
	a := newTestAccount()
	a.AddEarnings(100)

	err := a.Debit(101)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("error = %v, want ErrInsufficientBalance", err)
	}
	if a.Balance != 100 {
		t.Errorf("failed debit must not change balance, got %d", a.Balance)
	}
}

// ─── Role Tests ─────────────────────────────────────────────────────────────

func TestAccount_SetRole(t *testing.T) {
	t.Run("duration sets expiry", func(t *testing.T) {
		a := newTestAccount()
		a.SetRole(RoleMonthly3x, 30, t0)
		if a.Role != RoleMonthly3x {
			t.Errorf("Role = %q", a.Role)
		}
		want := t0.AddDate(0, 0, 30)
		if a.RoleExpiry == nil || !a.RoleExpiry.Equal(want) {
			t.Errorf("RoleExpiry = %v, want %v", a.RoleExpiry, want)
		}
	})

	t.Run("lifetime clears expiry", func(t *testing.T) {
		a := newTestAccount()
		a.SetRole(RoleMonthly3x, 30, t0)
		a.SetRole(RoleLifetime6x, 0, t0)
		if a.RoleExpiry != nil {
			t.Errorf("RoleExpiry = %v, want nil", a.RoleExpiry)
		}
	})

	t.Run("non-lifetime without duration keeps previous expiry", func(t *testing.T) {
		a := newTestAccount()
		a.SetRole(RoleMonthly3x, 30, t0)
		prev := *a.RoleExpiry
		a.SetRole(RoleMonthlyBooster, 0, t0)
		if a.RoleExpiry == nil || !a.RoleExpiry.Equal(prev) {
			t.Errorf("RoleExpiry = %v, want %v", a.RoleExpiry, prev)
		}
	})
}

func TestAccount_CheckAndUpdateRole(t *testing.T) {
	a := newTestAccount()
	a.SetRole(RoleMonthly3x, 1, t0)
	a.StartEarning(t0)

	// Before expiry nothing happens.
	if reverted := a.CheckAndUpdateRole(t0.Add(12 * time.Hour)); reverted {
		t.Error("role reverted before expiry")
	}
	if a.Role != RoleMonthly3x {
		t.Errorf("Role = %q, want Monthly3xBooster", a.Role)
	}

	// After expiry the role reverts and the session is force-stopped.
	if reverted := a.CheckAndUpdateRole(t0.Add(25 * time.Hour)); !reverted {
		t.Error("role not reverted after expiry")
	}
	if a.Role != RoleUser {
		t.Errorf("Role = %q, want User", a.Role)
	}
	if a.RoleExpiry != nil {
		t.Error("RoleExpiry should be cleared")
	}
	if a.IsEarning {
		t.Error("expiry must force-stop the earning session")
	}
	if a.LastStartTime != nil {
		t.Error("LastStartTime should be cleared on forced stop")
	}
}

func TestRole_Valid(t *testing.T) {
	for _, r := range []Role{RoleUser, RoleMonthlyBooster, RoleLifetimeBooster, RoleMonthly3x, RoleLifetime6x} {
		if !r.Valid() {
			t.Errorf("Valid(%q) = false", r)
		}
	}
	if Role("Phantom").Valid() {
		t.Error("Valid(Phantom) = true")
	}
}

// ─── Cascade Table Tests ────────────────────────────────────────────────────

func TestCascadeBonus(t *testing.T) {
	want := []int64{6000, 3000, 1500, 750, 375}
	for level, w := range want {
		if got := CascadeBonus(level); got != w {
			t.Errorf("CascadeBonus(%d) = %d, want %d", level, got, w)
		}
	}
	if got := CascadeBonus(5); got != 0 {
		t.Errorf("CascadeBonus(5) = %d, want 0", got)
	}
	if got := CascadeBonus(-1); got != 0 {
		t.Errorf("CascadeBonus(-1) = %d, want 0", got)
	}
}
