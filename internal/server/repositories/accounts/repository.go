package accounts

import (
	"context"

	"github.com/dmitrijs2005/couponkeeper/internal/server/models"
)

type Repository interface {
	Upsert(ctx context.Context, id int64, username, firstName string) error
	Get(ctx context.Context, id int64) (*models.Account, error)
	GetByVerifyToken(ctx context.Context, token string) (*models.Account, error)
	LockByVerifyToken(ctx context.Context, token string) (*models.Account, error)
	SetReferredBy(ctx context.Context, id, referrerID int64) (bool, error)
	SetVerifyToken(ctx context.Context, id int64, token string) error
	MarkVerified(ctx context.Context, id int64) error
	Debit(ctx context.Context, id int64, amount int) (bool, error)
	ClaimReferralAward(ctx context.Context, id int64) (int64, bool, error)
	CreditReferral(ctx context.Context, referrerID int64, points int) (bool, error)
	SetPending(ctx context.Context, id int64, p models.PendingAction) error
	Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
}
