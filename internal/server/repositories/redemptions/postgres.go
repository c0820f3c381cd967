// Package redemptions implements the append-only redemption log.
package redemptions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/couponkeeper/internal/common"
	"github.com/dmitrijs2005/couponkeeper/internal/dbx"
	"github.com/dmitrijs2005/couponkeeper/internal/server/models"
)

// RequestConstraint makes a client request id usable once per account.
const RequestConstraint = "redemptions_request_id_key"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create appends a record and returns it with its id and timestamp filled
// in. A repeated request id yields common.ErrorAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, rd *models.Redemption) (*models.Redemption, error) {
	query :=
		`INSERT INTO redemptions (account_id, class, code, points_spent, request_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at
		 `

	var requestID sql.NullString
	if rd.RequestID != nil {
		requestID = sql.NullString{String: *rd.RequestID, Valid: true}
	}

	out := *rd
	err := r.db.QueryRowContext(ctx, query, rd.AccountID, string(rd.Class), rd.Code, rd.PointsSpent, requestID).
		Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err, RequestConstraint) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &out, nil
}

func (r *PostgresRepository) FindByRequest(ctx context.Context, accountID int64, requestID string) (*models.Redemption, error) {
	query :=
		`SELECT id, account_id, class, code, points_spent, request_id, created_at FROM redemptions
		 WHERE account_id = $1 AND request_id = $2
		 `

	var (
		rd  models.Redemption
		cls string
		req sql.NullString
	)
	err := r.db.QueryRowContext(ctx, query, accountID, requestID).
		Scan(&rd.ID, &rd.AccountID, &cls, &rd.Code, &rd.PointsSpent, &req, &rd.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	rd.Class = models.CouponClass(cls)
	if req.Valid {
		rd.RequestID = &req.String
	}
	return &rd, nil
}

// Recent returns the newest redemptions first, joined with the redeemer's
// display name.
func (r *PostgresRepository) Recent(ctx context.Context, limit int) ([]models.RedemptionView, error) {
	query :=
		`SELECT r.id, r.account_id, r.class, r.code, r.points_spent, r.created_at,
		        a.username, a.first_name
		 FROM redemptions r
		 LEFT JOIN accounts a ON a.id = r.account_id
		 ORDER BY r.id DESC
		 LIMIT $1
		 `

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.RedemptionView
	for rows.Next() {
		var (
			v                   models.RedemptionView
			cls                 string
			username, firstName sql.NullString
		)
		if err := rows.Scan(&v.ID, &v.AccountID, &cls, &v.Code, &v.PointsSpent, &v.CreatedAt, &username, &firstName); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		v.Class = models.CouponClass(cls)
		a := models.Account{ID: v.AccountID, Username: username.String, FirstName: firstName.String}
		v.Name = a.DisplayName()
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}
