package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ByteForce-Labs/Tonance/internal/domain"
)

// ─── Accounts ───────────────────────────────────────────────────────────────

type registerRequest struct {
	TelegramUserID string `json:"telegram_user_id"`
	Username       string `json:"username"`
	ReferralCode   string `json:"referral_code,omitempty"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a, err := s.referrals.Register(req.TelegramUserID, req.Username, req.ReferralCode)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// userDetails is the account snapshot with its live session accrual.
type userDetails struct {
	*domain.Account
	CurrentEarnings int64 `json:"current_earnings"`
}

func (s *Server) handleUserDetails(w http.ResponseWriter, r *http.Request) {
	a, err := s.accountByTelegramID(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	a, earnings, err := s.ledger.Snapshot(a.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userDetails{Account: a, CurrentEarnings: earnings})
}

func (s *Server) handleStartEarning(w http.ResponseWriter, r *http.Request) {
	a, err := s.accountByTelegramID(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	a, err = s.ledger.StartEarning(a.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	a, err := s.accountByTelegramID(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	claimed, err := s.ledger.Claim(a.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"claimed": claimed})
}

type setRoleRequest struct {
	Role         string `json:"role"`
	DurationDays int    `json:"duration_days,omitempty"`
}

func (s *Server) handleSetRole(w http.ResponseWriter, r *http.Request) {
	a, err := s.accountByTelegramID(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var req setRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a, err = s.ledger.SetRole(a.ID, domain.Role(req.Role), req.DurationDays)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleReferrals(w http.ResponseWriter, r *http.Request) {
	a, err := s.accountByTelegramID(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"referral_code":  a.Username,
		"referral_count": len(a.Referrals),
		"referrals":      a.Referrals,
	})
}

type gamePlayRequest struct {
	Username string `json:"username"`
	Score    int64  `json:"score"`
}

func (s *Server) handleGamePlay(w http.ResponseWriter, r *http.Request) {
	var req gamePlayRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a, err := s.ledger.RecordGameScore(req.Username, req.Score)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.accounts.Stats(s.clock.Now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// ─── Stakes ─────────────────────────────────────────────────────────────────

type createStakeRequest struct {
	TelegramUserID string `json:"telegram_user_id"`
	Amount         int64  `json:"amount"`
	PeriodDays     int    `json:"period_days"`
}

func (s *Server) handleCreateStake(w http.ResponseWriter, r *http.Request) {
	var req createStakeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a, err := s.accounts.AccountByTelegramID(req.TelegramUserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	stake, err := s.stakebook.Create(a.ID, req.Amount, req.PeriodDays)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, stake)
}

type claimStakeRequest struct {
	TelegramUserID string `json:"telegram_user_id"`
	StakeID        string `json:"stake_id"`
}

func (s *Server) handleClaimStake(w http.ResponseWriter, r *http.Request) {
	var req claimStakeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a, err := s.accounts.AccountByTelegramID(req.TelegramUserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	res, err := s.stakebook.Claim(a.ID, req.StakeID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleActiveStakes(w http.ResponseWriter, r *http.Request) {
	s.writeStakes(w, r, s.stakebook.Active)
}

func (s *Server) handleClaimableStakes(w http.ResponseWriter, r *http.Request) {
	s.writeStakes(w, r, s.stakebook.Claimable)
}

func (s *Server) writeStakes(w http.ResponseWriter, r *http.Request, list func(string) ([]*domain.Stake, error)) {
	a, err := s.accountByTelegramID(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	stakes, err := list(a.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if stakes == nil {
		stakes = []*domain.Stake{}
	}
	writeJSON(w, http.StatusOK, stakes)
}

// ─── Leaderboard ────────────────────────────────────────────────────────────

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := s.board.Board()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (s *Server) handleRank(w http.ResponseWriter, r *http.Request) {
	entry, err := s.board.RankOf(chi.URLParam(r, "username"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// ─── Tasks ──────────────────────────────────────────────────────────────────

type taskRequest struct {
	Topic       string     `json:"topic"`
	Description string     `json:"description"`
	ImageURL    string     `json:"image_url,omitempty"`
	Link        string     `json:"link"`
	Points      int64      `json:"points"`
	Active      *bool      `json:"active,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := s.tasks.Create(req.Topic, req.Description, req.ImageURL, req.Link, req.Points, req.ExpiresAt)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	t, err := s.tasks.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	t, err := s.tasks.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var req taskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t.Topic = req.Topic
	t.Description = req.Description
	t.ImageURL = req.ImageURL
	t.Link = req.Link
	t.Points = req.Points
	t.ExpiresAt = req.ExpiresAt
	if req.Active != nil {
		t.Active = *req.Active
	}

	if err := s.tasks.Update(t); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := s.tasks.Delete(chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleTasksFor(w http.ResponseWriter, r *http.Request) {
	list, err := s.tasks.For(chi.URLParam(r, "username"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if list == nil {
		list = []*domain.Task{}
	}
	writeJSON(w, http.StatusOK, list)
}

type completeTaskRequest struct {
	Username string `json:"username"`
	TaskID   string `json:"task_id"`
}

func (s *Server) handleCompleteTask(w http.ResponseWriter, r *http.Request) {
	var req completeTaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	a, err := s.tasks.Complete(req.Username, req.TaskID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
