package services

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/couponkeeper/internal/common"
	"github.com/dmitrijs2005/couponkeeper/internal/dbx"
	"github.com/dmitrijs2005/couponkeeper/internal/logging"
	"github.com/dmitrijs2005/couponkeeper/internal/server/config"
	"github.com/dmitrijs2005/couponkeeper/internal/server/models"
	"github.com/dmitrijs2005/couponkeeper/internal/server/repositories/repomanager"
)

// RecentRedemptionsLimit is the default size of the redemption log.
const RecentRedemptionsLimit = 20

// AdminOverview is the admin panel summary.
type AdminOverview struct {
	Channels []string
	Costs    models.CostTable
	Stock    models.StockCounts
}

// AddResult counts the codes of a batch that were stored and those skipped
// because the code already exists.
type AddResult struct {
	Added   int
	Skipped int
}

// AdminReply is the answer to a wizard step. Handled is false when the
// account had no pending step, so the text was not meant for the wizard.
// Done is true when the step completed and the pending state was cleared.
type AdminReply struct {
	Handled bool
	Done    bool
	State   models.PendingState
	Text    string
}

// AdminService implements operator actions and the one-shot input wizard.
// Every method requires the caller to be a configured admin.
type AdminService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	settings    *SettingsService
	cfg         *config.Config
	logger      logging.Logger
}

func NewAdminService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, s *SettingsService, l logging.Logger) *AdminService {
	return &AdminService{
		db:          db,
		repomanager: m,
		settings:    s,
		cfg:         cfg,
		logger:      l.With("module", "admin"),
	}
}

func (s *AdminService) authorize(adminID int64) error {
	if !s.cfg.IsAdmin(adminID) {
		return common.ErrForbidden
	}
	return nil
}

func (s *AdminService) Overview(ctx context.Context, adminID int64) (*AdminOverview, error) {
	if err := s.authorize(adminID); err != nil {
		return nil, err
	}
	channels, err := s.settings.Channels(ctx)
	if err != nil {
		return nil, err
	}
	costs, err := s.settings.Costs(ctx)
	if err != nil {
		return nil, err
	}
	stock, err := s.repomanager.Coupons(s.db).StockCounts(ctx)
	if err != nil {
		return nil, common.StoreError("stock counts", err)
	}
	return &AdminOverview{Channels: channels, Costs: costs, Stock: stock}, nil
}

func (s *AdminService) StockCounts(ctx context.Context, adminID int64) (models.StockCounts, error) {
	if err := s.authorize(adminID); err != nil {
		return nil, err
	}
	stock, err := s.repomanager.Coupons(s.db).StockCounts(ctx)
	if err != nil {
		return nil, common.StoreError("stock counts", err)
	}
	return stock, nil
}

// RecentRedemptions returns the newest redemptions first. A non-positive
// limit means RecentRedemptionsLimit.
func (s *AdminService) RecentRedemptions(ctx context.Context, adminID int64, limit int) ([]models.RedemptionView, error) {
	if err := s.authorize(adminID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = RecentRedemptionsLimit
	}
	rows, err := s.repomanager.Redemptions(s.db).Recent(ctx, limit)
	if err != nil {
		return nil, common.StoreError("recent redemptions", err)
	}
	return rows, nil
}

// AddCoupons stores codes as unused coupons of class. Codes are trimmed and
// blanks dropped; codes that already exist are skipped.
func (s *AdminService) AddCoupons(ctx context.Context, adminID int64, class models.CouponClass, codes []string) (*AddResult, error) {
	if err := s.authorize(adminID); err != nil {
		return nil, err
	}
	res, err := s.addCoupons(ctx, class, codes)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "coupons added", "admin_id", adminID, "class", class, "added", res.Added, "skipped", res.Skipped)
	return res, nil
}

func (s *AdminService) addCoupons(ctx context.Context, class models.CouponClass, codes []string) (*AddResult, error) {
	if !class.Valid() {
		return nil, common.ErrInvalidInput
	}

	cleaned := make([]string, 0, len(codes))
	for _, c := range codes {
		if c = strings.TrimSpace(c); c != "" {
			cleaned = append(cleaned, c)
		}
	}

	res := &AddResult{}
	if len(cleaned) == 0 {
		return res, nil
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Coupons(tx)
		for _, code := range cleaned {
			ok, err := repo.Insert(ctx, class, code)
			if err != nil {
				return err
			}
			if ok {
				res.Added++
			} else {
				res.Skipped++
			}
		}
		return nil
	})
	if err != nil {
		return nil, common.StoreError("add coupons", err)
	}
	return res, nil
}

// RemoveUnusedCoupons deletes up to n unused coupons of class, oldest first.
func (s *AdminService) RemoveUnusedCoupons(ctx context.Context, adminID int64, class models.CouponClass, n int) (int, error) {
	if err := s.authorize(adminID); err != nil {
		return 0, err
	}
	if !class.Valid() || n < 1 {
		return 0, common.ErrInvalidInput
	}
	removed, err := s.repomanager.Coupons(s.db).DeleteOldestUnused(ctx, class, n)
	if err != nil {
		return 0, common.StoreError("remove coupons", err)
	}
	s.logger.Info(ctx, "coupons removed", "admin_id", adminID, "class", class, "removed", removed)
	return removed, nil
}

// Begin puts the admin into a wizard step and returns its prompt.
func (s *AdminService) Begin(ctx context.Context, adminID int64, state models.PendingState, class models.CouponClass) (*AdminReply, error) {
	if err := s.authorize(adminID); err != nil {
		return nil, err
	}
	p := models.PendingAction{State: state, Class: class}
	if p.IsIdle() || p.Validate() != nil {
		return nil, common.ErrInvalidInput
	}
	if err := s.repomanager.Accounts(s.db).SetPending(ctx, adminID, p); err != nil {
		return nil, storeErr("set pending", err)
	}
	return &AdminReply{Handled: true, State: state, Text: prompt(p)}, nil
}

// Cancel leaves any wizard step.
func (s *AdminService) Cancel(ctx context.Context, adminID int64) error {
	if err := s.authorize(adminID); err != nil {
		return err
	}
	if err := s.repomanager.Accounts(s.db).SetPending(ctx, adminID, models.PendingAction{}); err != nil {
		return storeErr("clear pending", err)
	}
	return nil
}

// HandleInput feeds free text to the admin's pending step. Malformed input
// keeps the step and answers with a hint; valid input applies the change
// and clears the step.
func (s *AdminService) HandleInput(ctx context.Context, adminID int64, text string) (*AdminReply, error) {
	if err := s.authorize(adminID); err != nil {
		return nil, err
	}
	acc, err := s.repomanager.Accounts(s.db).Get(ctx, adminID)
	if err != nil {
		return nil, storeErr("load account", err)
	}
	p := acc.Pending
	if p.IsIdle() {
		return &AdminReply{}, nil
	}

	text = strings.TrimSpace(text)
	retry := func(hint string) (*AdminReply, error) {
		return &AdminReply{Handled: true, State: p.State, Text: hint}, nil
	}

	var done string
	switch p.State {
	case models.StateAwaitingChannels:
		lines := nonBlankLines(text)
		if len(lines) < ChannelSlots {
			return retry("Send 5 lines:\n@ch1\n@ch2\n@ch3\n@ch4\n@ch5")
		}
		if err := s.settings.SetChannels(ctx, lines[:ChannelSlots]); err != nil {
			return nil, err
		}
		done = "✅ Channels updated!"

	case models.StateAwaitingPointValue:
		n, ok := digitsValue(text)
		if !ok {
			return retry("Send number only (example: 3)")
		}
		if err := s.settings.SetCost(ctx, p.Class, max(0, n)); err != nil {
			return nil, err
		}
		done = "✅ Points updated!"

	case models.StateAwaitingCouponCodes:
		res, err := s.addCoupons(ctx, p.Class, nonBlankLines(text))
		if err != nil {
			return nil, err
		}
		done = fmt.Sprintf("✅ Added %d coupons to %s", res.Added, p.Class.Label())
		if res.Skipped > 0 {
			done += fmt.Sprintf(" (%d duplicates skipped)", res.Skipped)
		}

	case models.StateAwaitingRemovalCount:
		n, ok := digitsValue(text)
		if !ok {
			return retry("Send number (example: 10)")
		}
		removed, err := s.repomanager.Coupons(s.db).DeleteOldestUnused(ctx, p.Class, max(1, n))
		if err != nil {
			return nil, common.StoreError("remove coupons", err)
		}
		done = fmt.Sprintf("✅ Removed %d coupons from %s", removed, p.Class.Label())
	}

	if err := s.repomanager.Accounts(s.db).SetPending(ctx, adminID, models.PendingAction{}); err != nil {
		return nil, storeErr("clear pending", err)
	}
	s.logger.Info(ctx, "admin step completed", "admin_id", adminID, "state", p.State, "class", p.Class)
	return &AdminReply{Handled: true, Done: true, State: models.StateIdle, Text: done}, nil
}

func prompt(p models.PendingAction) string {
	switch p.State {
	case models.StateAwaitingChannels:
		return "📢 Send 5 channels (5 lines):\n@ch1\n@ch2\n@ch3\n@ch4\n@ch5"
	case models.StateAwaitingPointValue:
		return fmt.Sprintf("Send new points for %s (example 3):", p.Class.Label())
	case models.StateAwaitingCouponCodes:
		return fmt.Sprintf("Send codes for %s one per line:", p.Class.Label())
	case models.StateAwaitingRemovalCount:
		return fmt.Sprintf("Send how many unused coupons to remove from %s:", p.Class.Label())
	}
	return ""
}

func nonBlankLines(text string) []string {
	var out []string
	for _, ln := range strings.Split(text, "\n") {
		if ln = strings.TrimSpace(ln); ln != "" {
			out = append(out, ln)
		}
	}
	return out
}

// digitsValue reads the number formed by all decimal digits in text, so
// "10 pcs" is 10. It reports false when text has no digits or the number
// does not fit an int.
func digitsValue(text string) (int, bool) {
	var b strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(b.String())
	if err != nil {
		return 0, false
	}
	return n, true
}
