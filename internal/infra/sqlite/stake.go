package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/ByteForce-Labs/Tonance/internal/domain"
)

var _ domain.StakeStore = (*DB)(nil)

const stakeColumns = `id, owner, principal, period, interest_rate, end_date, claimed, created_at`

// CreateStake persists the debited owner and the new stake in one
// transaction, so a lock can never leave a state where the balance is
// debited without the stake existing or vice versa.
func (db *DB) CreateStake(owner *domain.Account, s *domain.Stake) error {
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := updateAccountTx(tx, owner); err != nil {
		return err
	}
	if _, err := tx.Exec(`
		INSERT INTO stakes (`+stakeColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		s.ID, s.Owner, s.Principal, s.Period, s.InterestRate,
		encodeTime(s.EndDate), boolToInt(s.Claimed), encodeTime(s.CreatedAt),
	); err != nil {
		return fmt.Errorf("create stake: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	owner.Version++
	return nil
}

// Stake loads a single stake by id.
func (db *DB) Stake(id string) (*domain.Stake, error) {
	return scanStake(db.db.QueryRow(`SELECT `+stakeColumns+` FROM stakes WHERE id = ?`, id))
}

// StakesByOwner returns all of an account's stakes, settled ones included.
func (db *DB) StakesByOwner(ownerID string) ([]*domain.Stake, error) {
	rows, err := db.db.Query(`
		SELECT `+stakeColumns+` FROM stakes WHERE owner = ? ORDER BY created_at
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Stake
	for rows.Next() {
		s, err := scanStakeRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// SettleStake persists the credited owner and flips the stake to claimed in
// one transaction. The claimed flip is guarded in SQL as well, so even a
// racing writer cannot produce a double payout.
func (db *DB) SettleStake(owner *domain.Account, s *domain.Stake) error {
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := updateAccountTx(tx, owner); err != nil {
		return err
	}

	res, err := tx.Exec(`UPDATE stakes SET claimed = 1 WHERE id = ? AND claimed = 0`, s.ID)
	if err != nil {
		return fmt.Errorf("settle stake: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrAlreadyClaimed
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	owner.Version++
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStake(row *sql.Row) (*domain.Stake, error) {
	s, err := scanStakeRows(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrStakeNotFound
	}
	return s, err
}

func scanStakeRows(row rowScanner) (*domain.Stake, error) {
	var (
		s                  domain.Stake
		endDate, createdAt string
		claimed            int
	)
	err := row.Scan(&s.ID, &s.Owner, &s.Principal, &s.Period, &s.InterestRate,
		&endDate, &claimed, &createdAt)
	if err != nil {
		return nil, err
	}
	s.Claimed = claimed == 1
	if s.EndDate, err = decodeTime(endDate); err != nil {
		return nil, err
	}
	if s.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	return &s, nil
}
