package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/couponkeeper/internal/common"
	"github.com/dmitrijs2005/couponkeeper/internal/dbx"
	"github.com/dmitrijs2005/couponkeeper/internal/logging"
	"github.com/dmitrijs2005/couponkeeper/internal/server/config"
	"github.com/dmitrijs2005/couponkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/couponkeeper/internal/server/models"
	"github.com/dmitrijs2005/couponkeeper/internal/server/repositories/repomanager"
)

// RedeemOption is one line of the redeem menu.
type RedeemOption struct {
	Class models.CouponClass
	Label string
	Cost  int
	Stock int
}

// RedeemMenu is what a verified account sees before choosing a class.
type RedeemMenu struct {
	Points  int
	Options []RedeemOption
}

// CouponService allocates coupons. Each allocation hands out a coupon to
// exactly one account and debits exactly the cost read at that moment.
type CouponService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	settings    *SettingsService
	notifier    Notifier
	metrics     *metrics.Metrics
	logger      logging.Logger
	operators   []int64
}

func NewCouponService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, s *SettingsService,
	n Notifier, mt *metrics.Metrics, l logging.Logger) *CouponService {
	return &CouponService{
		db:          db,
		repomanager: m,
		settings:    s,
		notifier:    n,
		metrics:     mt,
		logger:      l.With("module", "coupons"),
		operators:   cfg.AdminIDs,
	}
}

// Redeem spends points on one coupon of class.
//
// Debit, coupon claim and the redemption record commit together or not at
// all. A non-empty requestID makes the call idempotent per account: a retry
// returns the original redemption and spends nothing.
func (s *CouponService) Redeem(ctx context.Context, accountID int64, class models.CouponClass, requestID string) (*models.Redemption, error) {
	rd, replay, err := s.redeem(ctx, accountID, class, requestID)
	if replay {
		return rd, nil
	}

	s.metrics.Redemption(string(class), outcome(err))
	if err != nil {
		if common.IsBusiness(err) {
			s.logger.Info(ctx, "redeem rejected", "account_id", accountID, "class", class, "reason", common.Kind(err))
		} else {
			s.logger.Error(ctx, "redeem failed", "account_id", accountID, "class", class, "error", err)
		}
		return nil, err
	}

	s.logger.Info(ctx, "coupon redeemed", "account_id", accountID, "class", class, "coupon_id", rd.ID, "points", rd.PointsSpent)
	return rd, nil
}

func (s *CouponService) redeem(ctx context.Context, accountID int64, class models.CouponClass, requestID string) (*models.Redemption, bool, error) {
	if !class.Valid() {
		return nil, false, common.ErrInvalidInput
	}

	acc, err := s.repomanager.Accounts(s.db).Get(ctx, accountID)
	if err != nil {
		return nil, false, storeErr("load account", err)
	}
	if !acc.Verified {
		return nil, false, common.ErrNotVerified
	}

	if requestID != "" {
		prev, err := s.repomanager.Redemptions(s.db).FindByRequest(ctx, accountID, requestID)
		if err == nil {
			return prev, true, nil
		}
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, false, common.StoreError("find redemption", err)
		}
	}

	cost, err := s.settings.Cost(ctx, class)
	if err != nil {
		return nil, false, err
	}
	if acc.Points < cost {
		return nil, false, &common.InsufficientPointsError{Required: cost, Have: acc.Points}
	}

	var out *models.Redemption
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		accounts := s.repomanager.Accounts(tx)
		coupons := s.repomanager.Coupons(tx)

		ok, err := accounts.Debit(ctx, accountID, cost)
		if err != nil {
			return err
		}
		if !ok {
			have := 0
			if a, err := accounts.Get(ctx, accountID); err == nil {
				have = a.Points
			}
			return &common.InsufficientPointsError{Required: cost, Have: have}
		}

		c, err := coupons.LockOldestUnused(ctx, class)
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrOutOfStock
		}
		if err != nil {
			return err
		}

		ok, err = coupons.MarkUsed(ctx, c.ID, accountID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("coupon %d was used concurrently", c.ID)
		}

		rec := &models.Redemption{AccountID: accountID, Class: class, Code: c.Code, PointsSpent: cost}
		if requestID != "" {
			rec.RequestID = &requestID
		}
		out, err = s.repomanager.Redemptions(tx).Create(ctx, rec)
		return err
	})

	if errors.Is(err, common.ErrorAlreadyExists) && requestID != "" {
		prev, ferr := s.repomanager.Redemptions(s.db).FindByRequest(ctx, accountID, requestID)
		if ferr != nil {
			return nil, false, common.StoreError("find redemption", ferr)
		}
		return prev, true, nil
	}
	if err != nil {
		return nil, false, storeErr("redeem", err)
	}

	s.notifier.NotifyAll(s.operators, fmt.Sprintf("🎟️ Redeem: %s (%d) got %s (spent %d)",
		acc.DisplayName(), accountID, class.Label(), out.PointsSpent))
	return out, false, nil
}

// Menu returns the account's balance with cost and stock per class.
func (s *CouponService) Menu(ctx context.Context, accountID int64) (*RedeemMenu, error) {
	acc, err := s.repomanager.Accounts(s.db).Get(ctx, accountID)
	if err != nil {
		return nil, storeErr("load account", err)
	}
	if !acc.Verified {
		return nil, common.ErrNotVerified
	}

	costs, err := s.settings.Costs(ctx)
	if err != nil {
		return nil, err
	}
	stock, err := s.repomanager.Coupons(s.db).StockCounts(ctx)
	if err != nil {
		return nil, common.StoreError("stock counts", err)
	}

	menu := &RedeemMenu{Points: acc.Points}
	for _, c := range models.CouponClasses() {
		menu.Options = append(menu.Options, RedeemOption{Class: c, Label: c.Label(), Cost: costs[c], Stock: stock[c]})
	}
	return menu, nil
}
