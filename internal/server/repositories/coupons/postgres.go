// Package coupons implements the coupon pool repository.
package coupons

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/couponkeeper/internal/common"
	"github.com/dmitrijs2005/couponkeeper/internal/dbx"
	"github.com/dmitrijs2005/couponkeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Insert adds an unused coupon. A code that already exists in any class is
// skipped and reported as false.
func (r *PostgresRepository) Insert(ctx context.Context, class models.CouponClass, code string) (bool, error) {
	query :=
		`INSERT INTO coupons (class, code)
		 VALUES ($1, $2)
		 ON CONFLICT (code) DO NOTHING
		 `

	res, err := r.db.ExecContext(ctx, query, string(class), code)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

// LockOldestUnused locks the lowest-id unused coupon of the class for the
// rest of the transaction. Rows already locked by a concurrent allocation
// are skipped, so two transactions never wait on the same coupon.
func (r *PostgresRepository) LockOldestUnused(ctx context.Context, class models.CouponClass) (*models.Coupon, error) {
	query :=
		`SELECT id, class, code, created_at FROM coupons
		 WHERE class = $1 AND NOT used
		 ORDER BY id
		 LIMIT 1
		 FOR UPDATE SKIP LOCKED
		 `

	var (
		c   models.Coupon
		cls string
	)
	err := r.db.QueryRowContext(ctx, query, string(class)).Scan(&c.ID, &cls, &c.Code, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	c.Class = models.CouponClass(cls)
	return &c, nil
}

// MarkUsed assigns the coupon to accountID. It reports false when the coupon
// was already used.
func (r *PostgresRepository) MarkUsed(ctx context.Context, id, accountID int64) (bool, error) {
	query :=
		`UPDATE coupons SET used = true, used_by = $2, used_at = now()
		 WHERE id = $1 AND NOT used
		 `

	res, err := r.db.ExecContext(ctx, query, id, accountID)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

// DeleteOldestUnused removes up to n unused coupons of the class, oldest
// first, and returns how many were removed.
func (r *PostgresRepository) DeleteOldestUnused(ctx context.Context, class models.CouponClass, n int) (int, error) {
	query :=
		`DELETE FROM coupons
		 WHERE id IN (
		   SELECT id FROM coupons
		   WHERE class = $1 AND NOT used
		   ORDER BY id
		   LIMIT $2
		   FOR UPDATE SKIP LOCKED
		 )
		 `

	res, err := r.db.ExecContext(ctx, query, string(class), n)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return int(affected), nil
}

// StockCounts returns the number of unused coupons per class. Every known
// class is present in the result, with zero when it has no stock.
func (r *PostgresRepository) StockCounts(ctx context.Context) (models.StockCounts, error) {
	query :=
		`SELECT class, COUNT(*) FROM coupons
		 WHERE NOT used
		 GROUP BY class
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	out := make(models.StockCounts, len(models.CouponClasses()))
	for _, c := range models.CouponClasses() {
		out[c] = 0
	}
	for rows.Next() {
		var (
			cls string
			n   int
		)
		if err := rows.Scan(&cls, &n); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		out[models.CouponClass(cls)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
