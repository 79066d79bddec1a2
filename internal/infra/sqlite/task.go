package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/ByteForce-Labs/Tonance/internal/domain"
)

var _ domain.TaskStore = (*DB)(nil)

const taskColumns = `id, topic, description, image_url, link, points, is_active, expires_at, created_at`

// CreateTask inserts a catalog task.
func (db *DB) CreateTask(t *domain.Task) error {
	_, err := db.db.Exec(`
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID, t.Topic, t.Description, t.ImageURL, t.Link, t.Points,
		boolToInt(t.Active), encodeTimePtr(t.ExpiresAt), encodeTime(t.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// Task loads a task by id.
func (db *DB) Task(id string) (*domain.Task, error) {
	t, err := scanTask(db.db.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrTaskNotFound
	}
	return t, err
}

// UpdateTask overwrites a task's catalog fields.
func (db *DB) UpdateTask(t *domain.Task) error {
	res, err := db.db.Exec(`
		UPDATE tasks SET
			topic = ?, description = ?, image_url = ?, link = ?,
			points = ?, is_active = ?, expires_at = ?
		WHERE id = ?
	`,
		t.Topic, t.Description, t.ImageURL, t.Link,
		t.Points, boolToInt(t.Active), encodeTimePtr(t.ExpiresAt), t.ID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// DeleteTask removes a task from the catalog. Completion records stay.
func (db *DB) DeleteTask(id string) error {
	res, err := db.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

// TasksFor returns active tasks the account has not completed yet.
func (db *DB) TasksFor(a *domain.Account) ([]*domain.Task, error) {
	rows, err := db.db.Query(`
		SELECT `+taskColumns+` FROM tasks
		WHERE is_active = 1
		  AND id NOT IN (SELECT task_id FROM account_tasks WHERE account_id = ?)
		ORDER BY created_at
	`, a.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// CompleteTask persists the rewarded account and the completion record in
// one transaction. The primary key on (account, task) makes the reward
// once-only even under a race.
func (db *DB) CompleteTask(a *domain.Account, t *domain.Task) error {
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := updateAccountTx(tx, a); err != nil {
		return err
	}
	if _, err := tx.Exec(`
		INSERT INTO account_tasks (account_id, task_id, completed_at)
		VALUES (?, ?, ?)
	`, a.ID, t.ID, encodeTime(a.LastActive)); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrTaskCompleted
		}
		return fmt.Errorf("complete task: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	a.Version++
	return nil
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		t         domain.Task
		active    int
		expiresAt sql.NullString
		createdAt string
	)
	err := row.Scan(&t.ID, &t.Topic, &t.Description, &t.ImageURL, &t.Link,
		&t.Points, &active, &expiresAt, &createdAt)
	if err != nil {
		return nil, err
	}
	t.Active = active == 1
	if t.ExpiresAt, err = decodeTimePtr(expiresAt); err != nil {
		return nil, err
	}
	if t.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	return &t, nil
}
