package coupons

import (
	"context"

	"github.com/dmitrijs2005/couponkeeper/internal/server/models"
)

type Repository interface {
	Insert(ctx context.Context, class models.CouponClass, code string) (bool, error)
	LockOldestUnused(ctx context.Context, class models.CouponClass) (*models.Coupon, error)
	MarkUsed(ctx context.Context, id, accountID int64) (bool, error)
	DeleteOldestUnused(ctx context.Context, class models.CouponClass, n int) (int, error)
	StockCounts(ctx context.Context) (models.StockCounts, error)
}
