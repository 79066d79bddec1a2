package sqlite

import (
	"fmt"

	"github.com/ByteForce-Labs/Tonance/internal/domain"
)

var _ domain.EarningLog = (*DB)(nil)

// AppendEarning records one balance movement in the append-only history.
func (db *DB) AppendEarning(e domain.EarningEntry) error {
	_, err := db.db.Exec(`
		INSERT INTO earning_log (account_id, source, amount, balance_after, note, at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.AccountID, string(e.Source), e.Amount, e.BalanceAfter, e.Note, encodeTime(e.At))
	if err != nil {
		return fmt.Errorf("append earning: %w", err)
	}
	return nil
}

// EarningHistory returns an account's most recent balance movements,
// newest first. A non-positive limit returns everything.
func (db *DB) EarningHistory(accountID string, limit int) ([]domain.EarningEntry, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := db.db.Query(`
		SELECT id, account_id, source, amount, balance_after, note, at
		FROM earning_log
		WHERE account_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.EarningEntry
	for rows.Next() {
		var (
			e      domain.EarningEntry
			source string
			at     string
		)
		if err := rows.Scan(&e.ID, &e.AccountID, &source, &e.Amount, &e.BalanceAfter, &e.Note, &at); err != nil {
			return nil, err
		}
		e.Source = domain.EarnSource(source)
		if e.At, err = decodeTime(at); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
