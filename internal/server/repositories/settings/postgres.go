// Package settings implements the versioned key/value settings repository.
package settings

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

func (r *PostgresRepository) Get(ctx context.Context, key models.SettingKey) (*models.Setting, error) {
	query :=
		`SELECT key, value, version, updated_at FROM settings
		 WHERE key = $1
		 `

	var (
		s models.Setting
		k string
	)
	err := r.db.QueryRowContext(ctx, query, string(key)).Scan(&k, &s.Value, &s.Version, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	s.Key = models.SettingKey(k)
	return &s, nil
}

// Put stores value under key, last writer wins, and returns the new
// version.
func (r *PostgresRepository) Put(ctx context.Context, key models.SettingKey, value []byte) (int64, error) {
	query :=
		`INSERT INTO settings (key, value, version, updated_at)
		 VALUES ($1, $2, 1, now())
		 ON CONFLICT (key) DO UPDATE SET
		   value = EXCLUDED.value,
		   version = settings.version + 1,
		   updated_at = now()
		 RETURNING version
		 `

	var version int64
	if err := r.db.QueryRowContext(ctx, query, string(key), value).Scan(&version); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return version, nil
}

// Merge shallow-merges the JSON object patch into the stored object, so
// concurrent writers of different top-level keys do not overwrite each other.
func (r *PostgresRepository) Merge(ctx context.Context, key models.SettingKey, patch []byte) (int64, error) {
	query :=
		`INSERT INTO settings (key, value, version, updated_at)
		 VALUES ($1, $2, 1, now())
		 ON CONFLICT (key) DO UPDATE SET
		   value = CASE WHEN jsonb_typeof(settings.value) = 'object'
		                THEN settings.value || EXCLUDED.value
		                ELSE EXCLUDED.value END,
		   version = settings.version + 1,
		   updated_at = now()
		 RETURNING version
		 `

	var version int64
	if err := r.db.QueryRowContext(ctx, query, string(key), patch).Scan(&version); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return version, nil
}
