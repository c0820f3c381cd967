package devices

import (
	"context"

	"github.com/dmitrijs2005/couponkeeper/internal/server/models"
)

type Repository interface {
	GetByDevice(ctx context.Context, deviceID string) (*models.DeviceBinding, error)
	GetByAccount(ctx context.Context, accountID int64) (*models.DeviceBinding, error)
	Bind(ctx context.Context, deviceID string, accountID int64) error
}
