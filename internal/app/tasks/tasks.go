// Package tasks manages the reward-task catalog and once-only completion
// credits.
package tasks

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ByteForce-Labs/Tonance/internal/domain"
	"github.com/ByteForce-Labs/Tonance/internal/infra/dsa"
	"github.com/ByteForce-Labs/Tonance/internal/infra/observability"
)

// Service implements task catalog management and completion rewards.
type Service struct {
	accounts domain.AccountStore
	tasks    domain.TaskStore
	log      domain.EarningLog
	clock    domain.Clock
	locks    *dsa.KeyMutex
	metrics  *observability.Metrics
}

// NewService creates the tasks service. log and metrics may be nil.
func NewService(accounts domain.AccountStore, tasks domain.TaskStore, log domain.EarningLog, clock domain.Clock, metrics *observability.Metrics) *Service {
	return &Service{
		accounts: accounts,
		tasks:    tasks,
		log:      log,
		clock:    clock,
		locks:    dsa.NewKeyMutex(),
		metrics:  metrics,
	}
}

// Create adds a task to the catalog.
func (s *Service) Create(topic, description, imageURL, link string, points int64, expiresAt *time.Time) (*domain.Task, error) {
	if strings.TrimSpace(topic) == "" || strings.TrimSpace(description) == "" ||
		strings.TrimSpace(link) == "" || points <= 0 {
		return nil, domain.ErrInvalidInput
	}

	t := &domain.Task{
		ID:          uuid.NewString(),
		Topic:       topic,
		Description: description,
		ImageURL:    imageURL,
		Link:        link,
		Points:      points,
		Active:      true,
		ExpiresAt:   expiresAt,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.tasks.CreateTask(t); err != nil {
		return nil, err
	}
	return t, nil
}

// Get returns a task by id.
func (s *Service) Get(id string) (*domain.Task, error) {
	return s.tasks.Task(id)
}

// Update overwrites a task's catalog fields.
func (s *Service) Update(t *domain.Task) error {
	if t.Points <= 0 {
		return domain.ErrInvalidInput
	}
	return s.tasks.UpdateTask(t)
}

// Delete removes a task from the catalog. Existing completion records and
// credited rewards are untouched.
func (s *Service) Delete(id string) error {
	return s.tasks.DeleteTask(id)
}

// For returns the active tasks the named account has not completed.
func (s *Service) For(username string) ([]*domain.Task, error) {
	a, err := s.accounts.AccountByUsername(username)
	if err != nil {
		return nil, err
	}
	return s.tasks.TasksFor(a)
}

// Complete rewards the named account for a task, exactly once per task.
// Fails with ErrTaskCompleted on a repeat.
func (s *Service) Complete(username, taskID string) (*domain.Account, error) {
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

	t, err := s.tasks.Task(taskID)
	if err != nil {
		return nil, err
	}
	if a.HasCompletedTask(t.ID) {
		return nil, domain.ErrTaskCompleted
	}

	a.AddEarnings(t.Points)
	a.TasksCompleted = append(a.TasksCompleted, t.ID)
	a.LastActive = s.clock.Now()
	if err := s.tasks.CompleteTask(a, t); err != nil {
		return nil, err
	}

	if s.log != nil {
		_ = s.log.AppendEarning(domain.EarningEntry{
			AccountID:    a.ID,
			Source:       domain.SourceTask,
			Amount:       t.Points,
			BalanceAfter: a.Balance,
			Note:         t.Topic,
			At:           s.clock.Now(),
		})
	}
	s.metrics.RecordTaskCompleted()
	return a, nil
}
