package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ByteForce-Labs/Tonance/internal/domain"
)

var _ domain.AccountStore = (*DB)(nil)

const accountColumns = `id, telegram_user_id, username, role, role_expiry,
	balance, total_earnings, game_score, is_earning,
	last_start_time, last_claim_time, referred_by, last_active, created_at, version`

// CreateAccount inserts a new account. Fails with ErrAccountExists when the
// telegram id or username is already taken.
func (db *DB) CreateAccount(a *domain.Account) error {
	_, err := db.db.Exec(`
		INSERT INTO accounts (`+accountColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		a.ID, a.TelegramUserID, a.Username, string(a.Role), encodeTimePtr(a.RoleExpiry),
		a.Balance, a.TotalEarnings, a.GameScore, boolToInt(a.IsEarning),
		encodeTimePtr(a.LastStartTime), encodeTimePtr(a.LastClaimTime),
		nullStr(a.ReferredBy), encodeTime(a.LastActive), encodeTime(a.CreatedAt), a.Version,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAccountExists
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// Account loads an account by primary id.
func (db *DB) Account(id string) (*domain.Account, error) {
	return db.loadAccount(`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
}

// AccountByTelegramID loads an account by its telegram user id.
func (db *DB) AccountByTelegramID(telegramUserID string) (*domain.Account, error) {
	return db.loadAccount(`SELECT `+accountColumns+` FROM accounts WHERE telegram_user_id = ?`, telegramUserID)
}

// AccountByUsername loads an account by username (the referral code).
func (db *DB) AccountByUsername(username string) (*domain.Account, error) {
	return db.loadAccount(`SELECT `+accountColumns+` FROM accounts WHERE username = ?`, username)
}

func (db *DB) loadAccount(query string, arg any) (*domain.Account, error) {
	a, err := scanAccount(db.db.QueryRow(query, arg))
	if err != nil {
		return nil, err
	}
	if a.Referrals, err = db.referralsOf(a.ID); err != nil {
		return nil, err
	}
	if a.TasksCompleted, err = db.completedTasksOf(a.ID); err != nil {
		return nil, err
	}
	return a, nil
}

func scanAccount(row *sql.Row) (*domain.Account, error) {
	var (
		a                       domain.Account
		role                    string
		roleExpiry, lastStart   sql.NullString
		lastClaim, referredBy   sql.NullString
		isEarning               int
		lastActive, createdAt   string
	)
	err := row.Scan(
		&a.ID, &a.TelegramUserID, &a.Username, &role, &roleExpiry,
		&a.Balance, &a.TotalEarnings, &a.GameScore, &isEarning,
		&lastStart, &lastClaim, &referredBy, &lastActive, &createdAt, &a.Version,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan account: %w", err)
	}

	a.Role = domain.Role(role)
	a.IsEarning = isEarning == 1
	a.ReferredBy = referredBy.String
	if a.RoleExpiry, err = decodeTimePtr(roleExpiry); err != nil {
		return nil, err
	}
	if a.LastStartTime, err = decodeTimePtr(lastStart); err != nil {
		return nil, err
	}
	if a.LastClaimTime, err = decodeTimePtr(lastClaim); err != nil {
		return nil, err
	}
	if a.LastActive, err = decodeTime(lastActive); err != nil {
		return nil, err
	}
	if a.CreatedAt, err = decodeTime(createdAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (db *DB) referralsOf(accountID string) ([]string, error) {
	return db.stringList(`
		SELECT referred_id FROM account_referrals
		WHERE referrer_id = ? ORDER BY rowid
	`, accountID)
}

func (db *DB) completedTasksOf(accountID string) ([]string, error) {
	return db.stringList(`
		SELECT task_id FROM account_tasks
		WHERE account_id = ? ORDER BY rowid
	`, accountID)
}

func (db *DB) stringList(query string, arg any) ([]string, error) {
	rows, err := db.db.Query(query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// UpdateAccount persists the account's scalar state. The update is
// version-checked: a concurrent writer makes it fail with ErrConflict.
// On success the in-memory version advances to match the stored row.
func (db *DB) UpdateAccount(a *domain.Account) error {
	if err := updateAccountTx(db.db, a); err != nil {
		return err
	}
	a.Version++
	return nil
}

// execer covers both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

func updateAccountTx(e execer, a *domain.Account) error {
	res, err := e.Exec(`
		UPDATE accounts SET
			role            = ?,
			role_expiry     = ?,
			balance         = ?,
			total_earnings  = ?,
			game_score      = ?,
			is_earning      = ?,
			last_start_time = ?,
			last_claim_time = ?,
			last_active     = ?,
			version         = version + 1
		WHERE id = ? AND version = ?
	`,
		string(a.Role), encodeTimePtr(a.RoleExpiry),
		a.Balance, a.TotalEarnings, a.GameScore, boolToInt(a.IsEarning),
		encodeTimePtr(a.LastStartTime), encodeTimePtr(a.LastClaimTime),
		encodeTime(a.LastActive),
		a.ID, a.Version,
	)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		if err := e.QueryRow(`SELECT COUNT(*) FROM accounts WHERE id = ?`, a.ID).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return domain.ErrAccountNotFound
		}
		return domain.ErrConflict
	}
	return nil
}

// LinkReferral persists the credited referrer and the new referral link in
// one transaction.
func (db *DB) LinkReferral(referrer *domain.Account, referredID string) error {
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := updateAccountTx(tx, referrer); err != nil {
		return err
	}
	if _, err := tx.Exec(`
		INSERT INTO account_referrals (referrer_id, referred_id, created_at)
		VALUES (?, ?, ?)
	`, referrer.ID, referredID, encodeTime(referrer.LastActive)); err != nil {
		return fmt.Errorf("link referral: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	referrer.Version++
	return nil
}

// ReferralLeaders returns every account with its referral count, ordered by
// creation time ascending so the classifier's stable sort breaks rank ties
// in favor of earlier joiners.
func (db *DB) ReferralLeaders() ([]domain.RankedAccount, error) {
	rows, err := db.db.Query(`
		SELECT a.username, COUNT(r.referred_id)
		FROM accounts a
		LEFT JOIN account_referrals r ON r.referrer_id = a.id
		GROUP BY a.id
		ORDER BY a.created_at ASC, a.rowid ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RankedAccount
	for rows.Next() {
		var ra domain.RankedAccount
		if err := rows.Scan(&ra.Username, &ra.ReferralCount); err != nil {
			return nil, err
		}
		out = append(out, ra)
	}
	return out, rows.Err()
}

// Stats aggregates the totals report: all users, all points ever mined,
// users who claimed within 24h and users active within the last hour.
func (db *DB) Stats(now time.Time) (domain.Stats, error) {
	var s domain.Stats

	err := db.db.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(total_earnings), 0) FROM accounts
	`).Scan(&s.TotalUsers, &s.TotalMined)
	if err != nil {
		return s, err
	}

	dayAgo := encodeTime(now.Add(-24 * time.Hour))
	err = db.db.QueryRow(`
		SELECT COUNT(*) FROM accounts
		WHERE last_claim_time IS NOT NULL AND datetime(last_claim_time) >= datetime(?)
	`, dayAgo).Scan(&s.DailyUsers)
	if err != nil {
		return s, err
	}

	hourAgo := encodeTime(now.Add(-time.Hour))
	err = db.db.QueryRow(`
		SELECT COUNT(*) FROM accounts WHERE datetime(last_active) >= datetime(?)
	`, hourAgo).Scan(&s.OnlineUsers)
	return s, err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
