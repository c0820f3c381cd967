package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/couponkeeper/internal/common"
	"github.com/dmitrijs2005/couponkeeper/internal/dbx"
	"github.com/dmitrijs2005/couponkeeper/internal/logging"
	"github.com/dmitrijs2005/couponkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/couponkeeper/internal/server/repositories/repomanager"
)

// ReferralService credits a referrer once per referred account.
type ReferralService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	metrics     *metrics.Metrics
	logger      logging.Logger
}

func NewReferralService(db *sql.DB, m repomanager.RepositoryManager, mt *metrics.Metrics, l logging.Logger) *ReferralService {
	return &ReferralService{db: db, repomanager: m, metrics: mt, logger: l.With("module", "referrals")}
}

// AwardIfEligible credits the referrer of accountID when the account is
// verified, has a referrer and was never awarded. Concurrent callers race on
// the awarded flag inside one transaction; exactly one of them gets ok.
func (s *ReferralService) AwardIfEligible(ctx context.Context, accountID int64) (int64, bool, error) {
	var (
		referrer int64
		awarded  bool
	)
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		accounts := s.repomanager.Accounts(tx)

		ref, ok, err := accounts.ClaimReferralAward(ctx, accountID)
		if err != nil || !ok {
			return err
		}

		credited, err := accounts.CreditReferral(ctx, ref, common.ReferralBonusPoints)
		if err != nil {
			return err
		}
		if !credited {
			return fmt.Errorf("referrer %d missing", ref)
		}

		referrer, awarded = ref, true
		return nil
	})
	if err != nil {
		s.logger.Error(ctx, "referral award failed", "account_id", accountID, "error", err)
		return 0, false, common.StoreError("award referral", err)
	}

	if awarded {
		s.metrics.ReferralAward()
		s.logger.Info(ctx, "referral awarded", "account_id", accountID, "referrer_id", referrer)
	}
	return referrer, awarded, nil
}
