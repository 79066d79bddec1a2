package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ByteForce-Labs/Tonance/internal/app/leaderboard"
	"github.com/ByteForce-Labs/Tonance/internal/app/ledger"
	"github.com/ByteForce-Labs/Tonance/internal/app/referral"
	"github.com/ByteForce-Labs/Tonance/internal/app/stakebook"
	"github.com/ByteForce-Labs/Tonance/internal/app/tasks"
	"github.com/ByteForce-Labs/Tonance/internal/infra/sqlite"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestServer(t *testing.T) (http.Handler, *fakeClock) {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	clock := &fakeClock{now: t0}
	srv := NewServer(
		db,
		ledger.NewService(db, db, clock, nil),
		stakebook.NewService(db, db, db, clock, nil),
		referral.NewService(db, db, clock, nil),
		leaderboard.NewService(db),
		tasks.NewService(db, db, db, clock, nil),
		clock,
	)
	return srv.Handler(), clock
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func register(t *testing.T, h http.Handler, telegramID, username, code string) {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/v1/register", map[string]string{
		"telegram_user_id": telegramID,
		"username":         username,
		"referral_code":    code,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d: %s", username, rec.Code, rec.Body.String())
	}
}

func TestHealth(t *testing.T) {
	h, _ := newTestServer(t)
	rec := doJSON(t, h, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRegister(t *testing.T) {
	h, _ := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/register", map[string]string{
		"telegram_user_id": "111",
		"username":         "alice",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var got struct {
		Balance  int64  `json:"balance"`
		Username string `json:"username"`
	}
	decode(t, rec, &got)
	if got.Balance != 30000 || got.Username != "alice" {
		t.Errorf("response = %+v", got)
	}

	// Duplicate and bad referral code are client errors.
	rec = doJSON(t, h, http.MethodPost, "/api/v1/register", map[string]string{
		"telegram_user_id": "111", "username": "other",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("duplicate status = %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodPost, "/api/v1/register", map[string]string{
		"telegram_user_id": "222", "username": "bob", "referral_code": "nobody",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad code status = %d", rec.Code)
	}
}

func TestRegister_BadBody(t *testing.T) {
	h, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/register", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestUserDetails(t *testing.T) {
	h, clock := newTestServer(t)
	register(t, h, "111", "alice", "")

	if rec := doJSON(t, h, http.MethodGet, "/api/v1/users/999", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown user status = %d", rec.Code)
	}

	if rec := doJSON(t, h, http.MethodPost, "/api/v1/users/111/start-earning", nil); rec.Code != http.StatusOK {
		t.Fatalf("start-earning status = %d: %s", rec.Code, rec.Body.String())
	}
	clock.Advance(30 * time.Minute)

	rec := doJSON(t, h, http.MethodGet, "/api/v1/users/111", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got struct {
		IsEarning       bool  `json:"is_earning"`
		CurrentEarnings int64 `json:"current_earnings"`
	}
	decode(t, rec, &got)
	if !got.IsEarning || got.CurrentEarnings != 5400 {
		t.Errorf("details = %+v, want earning with 5400 accrued", got)
	}
}

func TestEarningFlow(t *testing.T) {
	h, clock := newTestServer(t)
	register(t, h, "111", "alice", "")

	if rec := doJSON(t, h, http.MethodPost, "/api/v1/users/111/start-earning", nil); rec.Code != http.StatusOK {
		t.Fatal(rec.Code)
	}
	// Starting twice is a client error.
	if rec := doJSON(t, h, http.MethodPost, "/api/v1/users/111/start-earning", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("double start status = %d", rec.Code)
	}

	clock.Advance(2 * time.Hour)
	rec := doJSON(t, h, http.MethodPost, "/api/v1/users/111/claim", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("claim status = %d", rec.Code)
	}
	var got struct {
		Claimed int64 `json:"claimed"`
	}
	decode(t, rec, &got)
	if got.Claimed != 10800 {
		t.Errorf("claimed = %d, want 10800", got.Claimed)
	}
}

func TestSetRole(t *testing.T) {
	h, _ := newTestServer(t)
	register(t, h, "111", "alice", "")

	rec := doJSON(t, h, http.MethodPut, "/api/v1/users/111/role", map[string]interface{}{
		"role": "Monthly3xBooster", "duration_days": 30,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var got struct {
		Role string `json:"role"`
	}
	decode(t, rec, &got)
	if got.Role != "Monthly3xBooster" {
		t.Errorf("role = %q", got.Role)
	}

	rec = doJSON(t, h, http.MethodPut, "/api/v1/users/111/role", map[string]interface{}{"role": "Phantom"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid role status = %d", rec.Code)
	}
}

func TestReferralsEndpoint(t *testing.T) {
	h, _ := newTestServer(t)
	register(t, h, "111", "alice", "")
	register(t, h, "222", "bob", "alice")

	rec := doJSON(t, h, http.MethodGet, "/api/v1/users/111/referrals", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got struct {
		ReferralCode  string   `json:"referral_code"`
		ReferralCount int      `json:"referral_count"`
		Referrals     []string `json:"referrals"`
	}
	decode(t, rec, &got)
	if got.ReferralCode != "alice" || got.ReferralCount != 1 || len(got.Referrals) != 1 {
		t.Errorf("referrals = %+v", got)
	}
}

func TestGamePlay(t *testing.T) {
	h, _ := newTestServer(t)
	register(t, h, "111", "alice", "")

	rec := doJSON(t, h, http.MethodPost, "/api/v1/game/play", map[string]interface{}{
		"username": "alice", "score": 2500,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var got struct {
		GameScore int64 `json:"game_score"`
		Balance   int64 `json:"balance"`
	}
	decode(t, rec, &got)
	if got.GameScore != 2500 || got.Balance != 32500 {
		t.Errorf("game play = %+v", got)
	}
}

func TestStats(t *testing.T) {
	h, _ := newTestServer(t)
	register(t, h, "111", "alice", "")
	register(t, h, "222", "bob", "")

	rec := doJSON(t, h, http.MethodGet, "/api/v1/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got struct {
		TotalUsers int64 `json:"total_users"`
		TotalMined int64 `json:"total_mined"`
	}
	decode(t, rec, &got)
	if got.TotalUsers != 2 || got.TotalMined != 60000 {
		t.Errorf("stats = %+v", got)
	}
}

func TestStakeFlow(t *testing.T) {
	h, clock := newTestServer(t)
	register(t, h, "111", "alice", "")

	rec := doJSON(t, h, http.MethodPost, "/api/v1/stakes", map[string]interface{}{
		"telegram_user_id": "111", "amount": 1000, "period_days": 15,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	var stake struct {
		ID string `json:"id"`
	}
	decode(t, rec, &stake)

	// Not matured yet.
	rec = doJSON(t, h, http.MethodPost, "/api/v1/stakes/claim", map[string]interface{}{
		"telegram_user_id": "111", "stake_id": stake.ID,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("early claim status = %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/stakes/active/111", nil)
	var active []json.RawMessage
	decode(t, rec, &active)
	if len(active) != 1 {
		t.Errorf("active = %d, want 1", len(active))
	}

	clock.Advance(15 * 24 * time.Hour)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/stakes/claimable/111", nil)
	var claimable []json.RawMessage
	decode(t, rec, &claimable)
	if len(claimable) != 1 {
		t.Errorf("claimable = %d, want 1", len(claimable))
	}

	rec = doJSON(t, h, http.MethodPost, "/api/v1/stakes/claim", map[string]interface{}{
		"telegram_user_id": "111", "stake_id": stake.ID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("claim status = %d: %s", rec.Code, rec.Body.String())
	}
	var res struct {
		Principal int64 `json:"principal"`
		Interest  int64 `json:"interest"`
		Total     int64 `json:"total"`
	}
	decode(t, rec, &res)
	if res.Principal != 1000 || res.Interest != 100 || res.Total != 1100 {
		t.Errorf("claim result = %+v", res)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/v1/stakes", map[string]interface{}{
		"telegram_user_id": "111", "amount": 500, "period_days": 7,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid period status = %d", rec.Code)
	}
}

func TestLeaderboardEndpoints(t *testing.T) {
	h, _ := newTestServer(t)
	register(t, h, "1", "alice", "")
	for i := 0; i < 2; i++ {
		register(t, h, fmt.Sprintf("ref-%d", i), fmt.Sprintf("kid%d", i), "alice")
	}

	rec := doJSON(t, h, http.MethodGet, "/api/v1/leaderboard", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("leaderboard status = %d", rec.Code)
	}
	var board struct {
		Promoters []struct {
			Username string `json:"username"`
			Rank     int    `json:"rank"`
		} `json:"promoters"`
	}
	decode(t, rec, &board)
	if len(board.Promoters) == 0 || board.Promoters[0].Username != "alice" {
		t.Errorf("board = %+v", board)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/rank/alice", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("rank status = %d", rec.Code)
	}
	var entry struct {
		Rank int    `json:"rank"`
		Tier string `json:"role"`
	}
	decode(t, rec, &entry)
	if entry.Rank != 1 || entry.Tier != "Promoter" {
		t.Errorf("entry = %+v", entry)
	}

	if rec := doJSON(t, h, http.MethodGet, "/api/v1/rank/nobody", nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown rank status = %d", rec.Code)
	}
}

func TestTaskEndpoints(t *testing.T) {
	h, _ := newTestServer(t)
	register(t, h, "111", "alice", "")

	rec := doJSON(t, h, http.MethodPost, "/api/v1/task", map[string]interface{}{
		"topic": "Follow on X", "description": "Follow the official account",
		"link": "https://x.com/tonance", "points": 5000,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	var task struct {
		ID string `json:"id"`
	}
	decode(t, rec, &task)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/tasks/alice", nil)
	var available []json.RawMessage
	decode(t, rec, &available)
	if len(available) != 1 {
		t.Errorf("available tasks = %d, want 1", len(available))
	}

	rec = doJSON(t, h, http.MethodPost, "/api/v1/task/complete", map[string]interface{}{
		"username": "alice", "task_id": task.ID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("complete status = %d: %s", rec.Code, rec.Body.String())
	}
	var account struct {
		Balance int64 `json:"balance"`
	}
	decode(t, rec, &account)
	if account.Balance != 35000 {
		t.Errorf("balance = %d, want 35000", account.Balance)
	}

	// Repeating the completion is a client error.
	rec = doJSON(t, h, http.MethodPost, "/api/v1/task/complete", map[string]interface{}{
		"username": "alice", "task_id": task.ID,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("repeat complete status = %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPut, "/api/v1/task/"+task.ID, map[string]interface{}{
		"topic": "Follow on X", "description": "Follow the official account",
		"link": "https://x.com/tonance", "points": 6000,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodDelete, "/api/v1/task/"+task.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if rec := doJSON(t, h, http.MethodGet, "/api/v1/task/"+task.ID, nil); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d", rec.Code)
	}
}
