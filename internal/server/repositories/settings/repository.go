package settings

import (
	"context"

	"github.com/dmitrijs2005/couponkeeper/internal/server/models"
)

type Repository interface {
	Get(ctx context.Context, key models.SettingKey) (*models.Setting, error)
	Put(ctx context.Context, key models.SettingKey, value []byte) (int64, error)
	Merge(ctx context.Context, key models.SettingKey, patch []byte) (int64, error)
}
