// Package api provides the Tonance HTTP server: registration, earning
// sessions, staking, referrals, leaderboard and the task catalog, all
// under /api/v1.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ByteForce-Labs/Tonance/internal/app/leaderboard"
	"github.com/ByteForce-Labs/Tonance/internal/app/ledger"
	"github.com/ByteForce-Labs/Tonance/internal/app/referral"
	"github.com/ByteForce-Labs/Tonance/internal/app/stakebook"
	"github.com/ByteForce-Labs/Tonance/internal/app/tasks"
	"github.com/ByteForce-Labs/Tonance/internal/domain"
)

// Server is the Tonance HTTP API server.
type Server struct {
	accounts  domain.AccountStore
	ledger    *ledger.Service
	stakebook *stakebook.Service
	referrals *referral.Service
	board     *leaderboard.Service
	tasks     *tasks.Service
	clock     domain.Clock

	metricsEnabled bool
}

// NewServer creates the API server over the application services.
func NewServer(
	accounts domain.AccountStore,
	ledgerSvc *ledger.Service,
	stakebookSvc *stakebook.Service,
	referralSvc *referral.Service,
	boardSvc *leaderboard.Service,
	tasksSvc *tasks.Service,
	clock domain.Clock,
) *Server {
	return &Server{
		accounts:  accounts,
		ledger:    ledgerSvc,
		stakebook: stakebookSvc,
		referrals: referralSvc,
		board:     boardSvc,
		tasks:     tasksSvc,
		clock:     clock,
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(time.Minute))
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Get("/users/{telegramID}", s.handleUserDetails)
		r.Post("/users/{telegramID}/start-earning", s.handleStartEarning)
		r.Post("/users/{telegramID}/claim", s.handleClaim)
		r.Put("/users/{telegramID}/role", s.handleSetRole)
		r.Get("/users/{telegramID}/referrals", s.handleReferrals)
		r.Post("/game/play", s.handleGamePlay)
		r.Get("/stats", s.handleStats)

		r.Post("/stakes", s.handleCreateStake)
		r.Post("/stakes/claim", s.handleClaimStake)
		r.Get("/stakes/active/{telegramID}", s.handleActiveStakes)
		r.Get("/stakes/claimable/{telegramID}", s.handleClaimableStakes)

		r.Get("/leaderboard", s.handleLeaderboard)
		r.Get("/rank/{username}", s.handleRank)

		r.Get("/tasks/{username}", s.handleTasksFor)
		r.Get("/task/{id}", s.handleGetTask)
		r.Post("/task", s.handleCreateTask)
		r.Put("/task/{id}", s.handleUpdateTask)
		r.Delete("/task/{id}", s.handleDeleteTask)
		r.Post("/task/complete", s.handleCompleteTask)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// accountByTelegramID resolves the path parameter every /users route keys on.
func (s *Server) accountByTelegramID(r *http.Request) (*domain.Account, error) {
	return s.accounts.AccountByTelegramID(chi.URLParam(r, "telegramID"))
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// statusFor maps a domain error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrStakeNotFound),
		errors.Is(err, domain.ErrTaskNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidPeriod),
		errors.Is(err, domain.ErrInvalidReferralCode),
		errors.Is(err, domain.ErrAccountExists),
		errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrAlreadyEarning),
		errors.Is(err, domain.ErrAlreadyClaimed),
		errors.Is(err, domain.ErrNotMatured),
		errors.Is(err, domain.ErrTaskCompleted):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps err to a status and writes it.
func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

// decodeJSON decodes the request body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// corsMiddleware adds CORS headers for the web client.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
