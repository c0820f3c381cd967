// Package accounts implements the accounts table repository.
package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/couponkeeper/internal/common"
	"github.com/dmitrijs2005/couponkeeper/internal/dbx"
	"github.com/dmitrijs2005/couponkeeper/internal/server/models"
)

const accountColumns = `id, username, first_name, points, referrals, verified, referred_by,
		 referral_awarded, verify_token, pending_action, pending_payload, created_at, last_seen`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Upsert(ctx context.Context, id int64, username, firstName string) error {
	query :=
		`INSERT INTO accounts (id, username, first_name, last_seen)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (id) DO UPDATE SET
		   username = EXCLUDED.username,
		   first_name = EXCLUDED.first_name,
		   last_seen = now()
		 `

	if _, err := r.db.ExecContext(ctx, query, id, nullable(username), nullable(firstName)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts
		 WHERE id = $1
		 `
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByVerifyToken(ctx context.Context, token string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts
		 WHERE verify_token = $1
		 `
	return r.scanOne(r.db.QueryRowContext(ctx, query, token))
}

// LockByVerifyToken resolves the token and holds a row lock on the account
// until the surrounding transaction ends.
func (r *PostgresRepository) LockByVerifyToken(ctx context.Context, token string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts
		 WHERE verify_token = $1
		 FOR UPDATE
		 `
	return r.scanOne(r.db.QueryRowContext(ctx, query, token))
}

// SetReferredBy records the referrer once. It never overwrites an existing
// value, never points an account at itself and requires the referrer to
// exist.
func (r *PostgresRepository) SetReferredBy(ctx context.Context, id, referrerID int64) (bool, error) {
	query :=
		`UPDATE accounts SET referred_by = $2
		 WHERE id = $1 AND referred_by IS NULL AND id <> $2
		   AND EXISTS (SELECT 1 FROM accounts WHERE id = $2)
		 `
	return r.execOne(ctx, query, id, referrerID)
}

func (r *PostgresRepository) SetVerifyToken(ctx context.Context, id int64, token string) error {
	query :=
		`UPDATE accounts SET verify_token = $2
		 WHERE id = $1
		 `
	ok, err := r.execOne(ctx, query, id, token)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) MarkVerified(ctx context.Context, id int64) error {
	query :=
		`UPDATE accounts SET verified = true
		 WHERE id = $1
		 `
	ok, err := r.execOne(ctx, query, id)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrorNotFound
	}
	return nil
}

// Debit subtracts amount only when the balance covers it. It reports false
// when no row qualified.
func (r *PostgresRepository) Debit(ctx context.Context, id int64, amount int) (bool, error) {
	query :=
		`UPDATE accounts SET points = points - $2
		 WHERE id = $1 AND points >= $2
		 `
	return r.execOne(ctx, query, id, amount)
}

// ClaimReferralAward flips referral_awarded for an eligible account and
// returns its referrer. Only one caller can ever observe ok == true.
func (r *PostgresRepository) ClaimReferralAward(ctx context.Context, id int64) (int64, bool, error) {
	query :=
		`UPDATE accounts SET referral_awarded = true
		 WHERE id = $1 AND referral_awarded = false
		   AND verified = true AND referred_by IS NOT NULL
		 RETURNING referred_by
		 `

	var referrer int64
	err := r.db.QueryRowContext(ctx, query, id).Scan(&referrer)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("db error: %w", err)
	}
	return referrer, true, nil
}

func (r *PostgresRepository) CreditReferral(ctx context.Context, referrerID int64, points int) (bool, error) {
	query :=
		`UPDATE accounts SET points = points + $2, referrals = referrals + 1
		 WHERE id = $1
		 `
	return r.execOne(ctx, query, referrerID, points)
}

func (r *PostgresRepository) SetPending(ctx context.Context, id int64, p models.PendingAction) error {
	state, payload, err := p.Encode()
	if err != nil {
		return err
	}

	query :=
		`UPDATE accounts SET pending_action = $2, pending_payload = $3
		 WHERE id = $1
		 `
	ok, err := r.execOne(ctx, query, id, state, payload)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	query :=
		`SELECT id, username, first_name, referrals, points FROM accounts
		 ORDER BY referrals DESC, points DESC
		 LIMIT $1
		 `

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.LeaderboardEntry
	for rows.Next() {
		var (
			a                   models.Account
			username, firstName sql.NullString
		)
		if err := rows.Scan(&a.ID, &username, &firstName, &a.Referrals, &a.Points); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		a.Username, a.FirstName = username.String, firstName.String
		out = append(out, models.LeaderboardEntry{
			AccountID: a.ID,
			Name:      a.DisplayName(),
			Referrals: a.Referrals,
			Points:    a.Points,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) scanOne(row *sql.Row) (*models.Account, error) {
	var (
		a                   models.Account
		username, firstName sql.NullString
		referredBy          sql.NullInt64
		verifyToken         sql.NullString
		pendingAction       sql.NullString
		pendingPayload      []byte
	)

	err := row.Scan(&a.ID, &username, &firstName, &a.Points, &a.Referrals, &a.Verified, &referredBy,
		&a.ReferralAwarded, &verifyToken, &pendingAction, &pendingPayload, &a.CreatedAt, &a.LastSeen)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	a.Username, a.FirstName = username.String, firstName.String
	if referredBy.Valid {
		v := referredBy.Int64
		a.ReferredBy = &v
	}
	if verifyToken.Valid {
		v := verifyToken.String
		a.VerifyToken = &v
	}
	var state *string
	if pendingAction.Valid {
		state = &pendingAction.String
	}
	if a.Pending, err = models.DecodePendingAction(state, pendingPayload); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return &a, nil
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
