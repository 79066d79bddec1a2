package domain

import "time"

// Task is a one-off reward the catalog offers to every account. Completing
// a task credits its points exactly once per account.
type Task struct {
	ID          string     `json:"id"`
	Topic       string     `json:"topic"`
	Description string     `json:"description"`
	ImageURL    string     `json:"image_url,omitempty"`
	Link        string     `json:"link"`
	Points      int64      `json:"points"`
	Active      bool       `json:"is_active"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
