// Package client talks to the loyalty gRPC endpoint on behalf of an admin
// account. It mints its own short-lived access tokens from the shared
// secret and maps gRPC statuses back to common errors.
package client

import (
	"context"

	gs "github.com/dmitrijs2005/couponkeeper/internal/server/grpc"
)

// AdminAPI is the surface the operator console uses.
type AdminAPI interface {
	Ping(ctx context.Context) error
	Overview(ctx context.Context) (*gs.AdminOverviewResponse, error)
	RecentRedemptions(ctx context.Context, limit int) ([]gs.RedemptionRow, error)
	AddCoupons(ctx context.Context, class string, codes []string) (*gs.AddCouponsResponse, error)
	RemoveCoupons(ctx context.Context, class string, n int) (int, error)
	CouponUploadURL(ctx context.Context, class string) (key, url string, err error)
	ImportCoupons(ctx context.Context, class, key string) (*gs.AddCouponsResponse, error)
	Begin(ctx context.Context, state, class string) (*gs.AdminReplyResponse, error)
	Input(ctx context.Context, text string) (*gs.AdminReplyResponse, error)
	Cancel(ctx context.Context) error
	Close() error
}
