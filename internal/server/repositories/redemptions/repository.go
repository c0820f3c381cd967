package redemptions

import (
	"context"

	"github.com/dmitrijs2005/couponkeeper/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, r *models.Redemption) (*models.Redemption, error)
	FindByRequest(ctx context.Context, accountID int64, requestID string) (*models.Redemption, error)
	Recent(ctx context.Context, limit int) ([]models.RedemptionView, error)
}
