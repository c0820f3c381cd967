package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/couponkeeper/internal/logging"
	"github.com/dmitrijs2005/couponkeeper/internal/server/models"
	"github.com/dmitrijs2005/couponkeeper/internal/server/services"
)

type fakeAccounts struct {
	touchID      int64
	touchRef     string
	acc          *models.Account
	stats        *services.Stats
	board        []models.LeaderboardEntry
	link         *services.VerifyLink
	verification *services.VerificationStatus
	err          error
}

func (f *fakeAccounts) Touch(_ context.Context, id int64, _, _, ref string) (*models.Account, error) {
	f.touchID, f.touchRef = id, ref
	return f.acc, f.err
}
func (f *fakeAccounts) Stats(context.Context, int64) (*services.Stats, error) { return f.stats, f.err }
func (f *fakeAccounts) Leaderboard(context.Context) ([]models.LeaderboardEntry, error) {
	return f.board, f.err
}
func (f *fakeAccounts) IssueVerifyToken(context.Context, int64) (*services.VerifyLink, error) {
	return f.link, f.err
}
func (f *fakeAccounts) CheckVerification(context.Context, int64) (*services.VerificationStatus, error) {
	return f.verification, f.err
}

type fakeCoupons struct {
	gotClass   models.CouponClass
	gotRequest string
	menu       *services.RedeemMenu
	rd         *models.Redemption
	err        error
}

func (f *fakeCoupons) Menu(context.Context, int64) (*services.RedeemMenu, error) { return f.menu, f.err }
func (f *fakeCoupons) Redeem(_ context.Context, _ int64, class models.CouponClass, requestID string) (*models.Redemption, error) {
	f.gotClass, f.gotRequest = class, requestID
	return f.rd, f.err
}

type fakeAdmin struct {
	gotState models.PendingState
	gotClass models.CouponClass
	gotCodes []string
	overview *services.AdminOverview
	reply    *services.AdminReply
	added    *services.AddResult
	removed  int
	recent   []models.RedemptionView
	err      error
}

func (f *fakeAdmin) Overview(context.Context, int64) (*services.AdminOverview, error) {
	return f.overview, f.err
}
func (f *fakeAdmin) Begin(_ context.Context, _ int64, st models.PendingState, c models.CouponClass) (*services.AdminReply, error) {
	f.gotState, f.gotClass = st, c
	return f.reply, f.err
}
func (f *fakeAdmin) HandleInput(context.Context, int64, string) (*services.AdminReply, error) {
	return f.reply, f.err
}
func (f *fakeAdmin) Cancel(context.Context, int64) error { return f.err }
func (f *fakeAdmin) AddCoupons(_ context.Context, _ int64, c models.CouponClass, codes []string) (*services.AddResult, error) {
	f.gotClass, f.gotCodes = c, codes
	return f.added, f.err
}
func (f *fakeAdmin) RemoveUnusedCoupons(context.Context, int64, models.CouponClass, int) (int, error) {
	return f.removed, f.err
}
func (f *fakeAdmin) RecentRedemptions(context.Context, int64, int) ([]models.RedemptionView, error) {
	return f.recent, f.err
}

type fakeImports struct {
	key, url string
	added    *services.AddResult
	err      error
}

func (f *fakeImports) CouponUploadURL(context.Context, int64, models.CouponClass) (string, string, error) {
	return f.key, f.url, f.err
}
func (f *fakeImports) ImportCoupons(context.Context, int64, models.CouponClass, string) (*services.AddResult, error) {
	return f.added, f.err
}

type testDeps struct {
	accounts *fakeAccounts
	coupons  *fakeCoupons
	admin    *fakeAdmin
	imports  *fakeImports
}

func newTestServer(secret string) (*GRPCServer, *testDeps) {
	d := &testDeps{&fakeAccounts{}, &fakeCoupons{}, &fakeAdmin{}, &fakeImports{}}
	s := NewGRPCServer("127.0.0.1:0", logging.Nop(), Services{
		Accounts: d.accounts,
		Coupons:  d.coupons,
		Admin:    d.admin,
		Imports:  d.imports,
	}, nil, secret)
	return s, d
}

func authed(id int64) context.Context {
	return context.WithValue(context.Background(), accountIDKey, id)
}

var fixedTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
