// Package devices implements the device binding repository. A binding is a
// one-to-one pairing of a device digest and an account.
package devices

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/couponkeeper/internal/common"
	"github.com/dmitrijs2005/couponkeeper/internal/dbx"
	"github.com/dmitrijs2005/couponkeeper/internal/server/models"
)

// AccountConstraint is the unique constraint guarding one device per account.
const AccountConstraint = "device_bindings_account_id_key"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByDevice(ctx context.Context, deviceID string) (*models.DeviceBinding, error) {
	query :=
		`SELECT device_id, account_id, bound_at FROM device_bindings
		 WHERE device_id = $1
		 `
	return scan(r.db.QueryRowContext(ctx, query, deviceID))
}

func (r *PostgresRepository) GetByAccount(ctx context.Context, accountID int64) (*models.DeviceBinding, error) {
	query :=
		`SELECT device_id, account_id, bound_at FROM device_bindings
		 WHERE account_id = $1
		 `
	return scan(r.db.QueryRowContext(ctx, query, accountID))
}

// Bind records the pairing. Re-binding the same pair refreshes bound_at.
// It fails with common.ErrDeviceAlreadyBound when the device belongs to
// another account and with common.ErrAccountAlreadyBound when the account
// already has another device.
func (r *PostgresRepository) Bind(ctx context.Context, deviceID string, accountID int64) error {
	query :=
		`INSERT INTO device_bindings (device_id, account_id, bound_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (device_id) DO UPDATE SET bound_at = now()
		 WHERE device_bindings.account_id = EXCLUDED.account_id
		 `

	res, err := r.db.ExecContext(ctx, query, deviceID, accountID)
	if err != nil {
		if dbx.IsUniqueViolation(err, AccountConstraint) {
			return common.ErrAccountAlreadyBound
		}
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrDeviceAlreadyBound
	}
	return nil
}

func scan(row *sql.Row) (*models.DeviceBinding, error) {
	var b models.DeviceBinding
	if err := row.Scan(&b.DeviceID, &b.AccountID, &b.BoundAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &b, nil
}
