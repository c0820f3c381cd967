package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/dmitrijs2005/couponkeeper/internal/common"
	"github.com/dmitrijs2005/couponkeeper/internal/cryptox"
	"github.com/dmitrijs2005/couponkeeper/internal/dbx"
	"github.com/dmitrijs2005/couponkeeper/internal/logging"
	"github.com/dmitrijs2005/couponkeeper/internal/server/config"
	"github.com/dmitrijs2005/couponkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/couponkeeper/internal/server/repositories/repomanager"
)

// VerifiedMessage is shown on the verification page after a successful bind.
const VerifiedMessage = "Verified successfully. Now go back and click Check Verification."

// bindAttempts bounds retries of the serializable bind transaction.
const bindAttempts = 3

// BindResult describes a successful bind.
type BindResult struct {
	AccountID       int64
	AlreadyVerified bool
	Message         string
}

// IdentityService pairs devices with accounts one-to-one and marks the
// account verified. Device ids are stored only as keyed digests.
type IdentityService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	gate        *ChannelGate
	digester    *cryptox.Digester
	metrics     *metrics.Metrics
	logger      logging.Logger
}

func NewIdentityService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, gate *ChannelGate,
	mt *metrics.Metrics, l logging.Logger) *IdentityService {
	return &IdentityService{
		db:          db,
		repomanager: m,
		gate:        gate,
		digester:    cryptox.NewDigester(cfg.DeviceIDKey),
		metrics:     mt,
		logger:      l.With("module", "identity"),
	}
}

// BindAndVerify binds deviceID to the account owning token.
//
// Channel membership is checked before the transaction. The bind itself runs
// serializable with the account row locked, so two concurrent binds can
// never leave one device on two accounts or one account on two devices.
// Repeating a successful bind with the same pair succeeds again.
func (s *IdentityService) BindAndVerify(ctx context.Context, token, deviceID string) (*BindResult, error) {
	res, err := s.bind(ctx, strings.TrimSpace(token), strings.TrimSpace(deviceID))
	s.metrics.Verification(outcome(err))

	if err != nil {
		if common.IsBusiness(err) {
			s.logger.Info(ctx, "bind rejected", "reason", common.Kind(err))
		} else {
			s.logger.Error(ctx, "bind failed", "error", err)
		}
		return nil, err
	}

	s.logger.Info(ctx, "device bound", "account_id", res.AccountID, "already_verified", res.AlreadyVerified)
	return res, nil
}

func (s *IdentityService) bind(ctx context.Context, token, deviceID string) (*BindResult, error) {
	if token == "" || deviceID == "" {
		return nil, common.ErrInvalidInput
	}

	acc, err := s.repomanager.Accounts(s.db).GetByVerifyToken(ctx, token)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrInvalidToken
	}
	if err != nil {
		return nil, common.StoreError("resolve token", err)
	}

	status, err := s.gate.Check(ctx, acc.ID)
	if err != nil {
		return nil, err
	}
	if !status.AllJoined() {
		return nil, &common.NotMemberError{Missing: status.Missing}
	}

	digest := s.digester.Digest(deviceID)

	var res *BindResult
	err = dbx.WithSerializableTx(ctx, s.db, bindAttempts, func(ctx context.Context, tx dbx.DBTX) error {
		accounts := s.repomanager.Accounts(tx)
		devices := s.repomanager.Devices(tx)

		a, err := accounts.LockByVerifyToken(ctx, token)
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidToken
		}
		if err != nil {
			return err
		}

		if b, err := devices.GetByDevice(ctx, digest); err == nil {
			if b.AccountID != a.ID {
				return &common.BindConflictError{AccountID: a.ID, Err: common.ErrDeviceAlreadyBound}
			}
		} else if !errors.Is(err, common.ErrorNotFound) {
			return err
		}

		if b, err := devices.GetByAccount(ctx, a.ID); err == nil {
			if b.DeviceID != digest {
				return &common.BindConflictError{AccountID: a.ID, Err: common.ErrAccountAlreadyBound}
			}
		} else if !errors.Is(err, common.ErrorNotFound) {
			return err
		}

		// A verified account is never re-bound here; its pairing, if any,
		// was checked above.
		if a.Verified {
			res = &BindResult{AccountID: a.ID, AlreadyVerified: true, Message: VerifiedMessage}
			return nil
		}

		if err := accounts.MarkVerified(ctx, a.ID); err != nil {
			return err
		}
		if err := devices.Bind(ctx, digest, a.ID); err != nil {
			if errors.Is(err, common.ErrDeviceAlreadyBound) || errors.Is(err, common.ErrAccountAlreadyBound) {
				return &common.BindConflictError{AccountID: a.ID, Err: err}
			}
			return err
		}

		res = &BindResult{AccountID: a.ID, Message: VerifiedMessage}
		return nil
	})
	if err != nil {
		return nil, storeErr("bind device", err)
	}
	return res, nil
}
