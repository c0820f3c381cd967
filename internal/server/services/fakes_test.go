package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/couponkeeper/internal/common"
	"github.com/dmitrijs2005/couponkeeper/internal/dbx"
	"github.com/dmitrijs2005/couponkeeper/internal/logging"
	"github.com/dmitrijs2005/couponkeeper/internal/server/config"
	"github.com/dmitrijs2005/couponkeeper/internal/server/models"
	"github.com/dmitrijs2005/couponkeeper/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/couponkeeper/internal/server/repositories/coupons"
	"github.com/dmitrijs2005/couponkeeper/internal/server/repositories/devices"
	"github.com/dmitrijs2005/couponkeeper/internal/server/repositories/redemptions"
	"github.com/dmitrijs2005/couponkeeper/internal/server/repositories/settings"
)

// --- in-memory store behind the repository interfaces ---

type fakeStore struct {
	mu          sync.Mutex
	accounts    map[int64]*models.Account
	coupons     []*models.Coupon
	nextCoupon  int64
	bindings    map[string]int64
	redemptions []*models.Redemption
	settings    map[models.SettingKey][]byte
	// fail makes the named method return the error.
	fail map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		accounts: map[int64]*models.Account{},
		bindings: map[string]int64{},
		settings: map[models.SettingKey][]byte{},
		fail:     map[string]error{},
	}
}

func (s *fakeStore) err(method string) error { return s.fail[method] }

func (s *fakeStore) addAccount(a models.Account) *models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := a
	s.accounts[a.ID] = &cp
	return &cp
}

func (s *fakeStore) account(id int64) models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.accounts[id]
}

func (s *fakeStore) addCoupons(class models.CouponClass, codes ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range codes {
		s.nextCoupon++
		s.coupons = append(s.coupons, &models.Coupon{ID: s.nextCoupon, Class: class, Code: c})
	}
}

type fakeRepoManager struct{ s *fakeStore }

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error   { return nil }
func (m *fakeRepoManager) Accounts(dbx.DBTX) accounts.Repository       { return &fakeAccounts{m.s} }
func (m *fakeRepoManager) Coupons(dbx.DBTX) coupons.Repository         { return &fakeCoupons{m.s} }
func (m *fakeRepoManager) Devices(dbx.DBTX) devices.Repository         { return &fakeDevices{m.s} }
func (m *fakeRepoManager) Redemptions(dbx.DBTX) redemptions.Repository { return &fakeRedemptions{m.s} }
func (m *fakeRepoManager) Settings(dbx.DBTX) settings.Repository       { return &fakeSettings{m.s} }

type fakeAccounts struct{ s *fakeStore }

func (f *fakeAccounts) Upsert(_ context.Context, id int64, username, firstName string) error {
	if err := f.s.err("Upsert"); err != nil {
		return err
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	a, ok := f.s.accounts[id]
	if !ok {
		a = &models.Account{ID: id, CreatedAt: time.Now()}
		f.s.accounts[id] = a
	}
	a.Username, a.FirstName, a.LastSeen = username, firstName, time.Now()
	return nil
}

func (f *fakeAccounts) Get(_ context.Context, id int64) (*models.Account, error) {
	if err := f.s.err("Get"); err != nil {
		return nil, err
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	a, ok := f.s.accounts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAccounts) GetByVerifyToken(_ context.Context, token string) (*models.Account, error) {
	if err := f.s.err("GetByVerifyToken"); err != nil {
		return nil, err
	}
	return f.byToken(token)
}

func (f *fakeAccounts) LockByVerifyToken(_ context.Context, token string) (*models.Account, error) {
	if err := f.s.err("LockByVerifyToken"); err != nil {
		return nil, err
	}
	return f.byToken(token)
}

func (f *fakeAccounts) byToken(token string) (*models.Account, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, a := range f.s.accounts {
		if a.VerifyToken != nil && *a.VerifyToken == token {
			cp := *a
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeAccounts) SetReferredBy(_ context.Context, id, referrerID int64) (bool, error) {
	if err := f.s.err("SetReferredBy"); err != nil {
		return false, err
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	a, ok := f.s.accounts[id]
	_, refOK := f.s.accounts[referrerID]
	if !ok || !refOK || a.ReferredBy != nil || id == referrerID {
		return false, nil
	}
	a.ReferredBy = &referrerID
	return true, nil
}

func (f *fakeAccounts) SetVerifyToken(_ context.Context, id int64, token string) error {
	if err := f.s.err("SetVerifyToken"); err != nil {
		return err
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	a, ok := f.s.accounts[id]
	if !ok {
		return common.ErrorNotFound
	}
	a.VerifyToken = &token
	return nil
}

func (f *fakeAccounts) MarkVerified(_ context.Context, id int64) error {
	if err := f.s.err("MarkVerified"); err != nil {
		return err
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	a, ok := f.s.accounts[id]
	if !ok {
		return common.ErrorNotFound
	}
	a.Verified = true
	return nil
}

func (f *fakeAccounts) Debit(_ context.Context, id int64, amount int) (bool, error) {
	if err := f.s.err("Debit"); err != nil {
		return false, err
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	a, ok := f.s.accounts[id]
	if !ok || a.Points < amount {
		return false, nil
	}
	a.Points -= amount
	return true, nil
}

func (f *fakeAccounts) ClaimReferralAward(_ context.Context, id int64) (int64, bool, error) {
	if err := f.s.err("ClaimReferralAward"); err != nil {
		return 0, false, err
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	a, ok := f.s.accounts[id]
	if !ok || a.ReferralAwarded || !a.Verified || a.ReferredBy == nil {
		return 0, false, nil
	}
	a.ReferralAwarded = true
	return *a.ReferredBy, true, nil
}

func (f *fakeAccounts) CreditReferral(_ context.Context, referrerID int64, points int) (bool, error) {
	if err := f.s.err("CreditReferral"); err != nil {
		return false, err
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	a, ok := f.s.accounts[referrerID]
	if !ok {
		return false, nil
	}
	a.Points += points
	a.Referrals++
	return true, nil
}

func (f *fakeAccounts) SetPending(_ context.Context, id int64, p models.PendingAction) error {
	if err := f.s.err("SetPending"); err != nil {
		return err
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	a, ok := f.s.accounts[id]
	if !ok {
		return common.ErrorNotFound
	}
	a.Pending = p
	return nil
}

func (f *fakeAccounts) Leaderboard(_ context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if err := f.s.err("Leaderboard"); err != nil {
		return nil, err
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []models.LeaderboardEntry
	for _, a := range f.s.accounts {
		out = append(out, models.LeaderboardEntry{AccountID: a.ID, Name: a.DisplayName(), Referrals: a.Referrals, Points: a.Points})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Referrals != out[j].Referrals {
			return out[i].Referrals > out[j].Referrals
		}
		return out[i].Points > out[j].Points
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeCoupons struct{ s *fakeStore }

func (f *fakeCoupons) Insert(_ context.Context, class models.CouponClass, code string) (bool, error) {
	if err := f.s.err("Insert"); err != nil {
		return false, err
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, c := range f.s.coupons {
		if c.Code == code {
			return false, nil
		}
	}
	f.s.nextCoupon++
	f.s.coupons = append(f.s.coupons, &models.Coupon{ID: f.s.nextCoupon, Class: class, Code: code})
	return true, nil
}

func (f *fakeCoupons) LockOldestUnused(_ context.Context, class models.CouponClass) (*models.Coupon, error) {
	if err := f.s.err("LockOldestUnused"); err != nil {
		return nil, err
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, c := range f.s.coupons {
		if c.Class == class && !c.Used {
			cp := *c
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeCoupons) MarkUsed(_ context.Context, id, accountID int64) (bool, error) {
	if err := f.s.err("MarkUsed"); err != nil {
		return false, err
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, c := range f.s.coupons {
		if c.ID == id && !c.Used {
			now := time.Now()
			c.Used, c.UsedBy, c.UsedAt = true, &accountID, &now
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCoupons) DeleteOldestUnused(_ context.Context, class models.CouponClass, n int) (int, error) {
	if err := f.s.err("DeleteOldestUnused"); err != nil {
		return 0, err
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	kept := f.s.coupons[:0]
	removed := 0
	for _, c := range f.s.coupons {
		if removed < n && c.Class == class && !c.Used {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	f.s.coupons = kept
	return removed, nil
}

func (f *fakeCoupons) StockCounts(context.Context) (models.StockCounts, error) {
	if err := f.s.err("StockCounts"); err != nil {
		return nil, err
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := models.StockCounts{}
	for _, c := range models.CouponClasses() {
		out[c] = 0
	}
	for _, c := range f.s.coupons {
		if !c.Used {
			out[c.Class]++
		}
	}
	return out, nil
}

type fakeDevices struct{ s *fakeStore }

func (f *fakeDevices) GetByDevice(_ context.Context, deviceID string) (*models.DeviceBinding, error) {
	if err := f.s.err("GetByDevice"); err != nil {
		return nil, err
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	acc, ok := f.s.bindings[deviceID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &models.DeviceBinding{DeviceID: deviceID, AccountID: acc}, nil
}

func (f *fakeDevices) GetByAccount(_ context.Context, accountID int64) (*models.DeviceBinding, error) {
	if err := f.s.err("GetByAccount"); err != nil {
		return nil, err
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for d, a := range f.s.bindings {
		if a == accountID {
			return &models.DeviceBinding{DeviceID: d, AccountID: a}, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeDevices) Bind(_ context.Context, deviceID string, accountID int64) error {
	if err := f.s.err("Bind"); err != nil {
		return err
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if acc, ok := f.s.bindings[deviceID]; ok && acc != accountID {
		return common.ErrDeviceAlreadyBound
	}
	for d, a := range f.s.bindings {
		if a == accountID && d != deviceID {
			return common.ErrAccountAlreadyBound
		}
	}
	f.s.bindings[deviceID] = accountID
	return nil
}

type fakeRedemptions struct{ s *fakeStore }

func (f *fakeRedemptions) Create(_ context.Context, r *models.Redemption) (*models.Redemption, error) {
	if err := f.s.err("Create"); err != nil {
		return nil, err
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if r.RequestID != nil {
		for _, x := range f.s.redemptions {
			if x.AccountID == r.AccountID && x.RequestID != nil && *x.RequestID == *r.RequestID {
				return nil, common.ErrorAlreadyExists
			}
		}
	}
	cp := *r
	cp.ID = int64(len(f.s.redemptions) + 1)
	cp.CreatedAt = time.Now()
	f.s.redemptions = append(f.s.redemptions, &cp)
	out := cp
	return &out, nil
}

func (f *fakeRedemptions) FindByRequest(_ context.Context, accountID int64, requestID string) (*models.Redemption, error) {
	if err := f.s.err("FindByRequest"); err != nil {
		return nil, err
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, x := range f.s.redemptions {
		if x.AccountID == accountID && x.RequestID != nil && *x.RequestID == requestID {
			cp := *x
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeRedemptions) Recent(_ context.Context, limit int) ([]models.RedemptionView, error) {
	if err := f.s.err("Recent"); err != nil {
		return nil, err
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []models.RedemptionView
	for i := len(f.s.redemptions) - 1; i >= 0 && len(out) < limit; i-- {
		r := f.s.redemptions[i]
		name := ""
		if a, ok := f.s.accounts[r.AccountID]; ok {
			name = a.DisplayName()
		}
		out = append(out, models.RedemptionView{Redemption: *r, Name: name})
	}
	return out, nil
}

type fakeSettings struct{ s *fakeStore }

func (f *fakeSettings) Get(_ context.Context, key models.SettingKey) (*models.Setting, error) {
	if err := f.s.err("SettingsGet"); err != nil {
		return nil, err
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	v, ok := f.s.settings[key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &models.Setting{Key: key, Value: v}, nil
}

func (f *fakeSettings) Put(_ context.Context, key models.SettingKey, value []byte) (int64, error) {
	if err := f.s.err("SettingsPut"); err != nil {
		return 0, err
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.settings[key] = value
	return 1, nil
}

func (f *fakeSettings) Merge(_ context.Context, key models.SettingKey, patch []byte) (int64, error) {
	if err := f.s.err("SettingsMerge"); err != nil {
		return 0, err
	}
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	cur := map[string]json.RawMessage{}
	if old, ok := f.s.settings[key]; ok {
		_ = json.Unmarshal(old, &cur)
	}
	var p map[string]json.RawMessage
	if err := json.Unmarshal(patch, &p); err != nil {
		return 0, err
	}
	for k, v := range p {
		cur[k] = v
	}
	merged, _ := json.Marshal(cur)
	f.s.settings[key] = merged
	return 1, nil
}

// --- collaborators ---

type fakeChecker struct {
	mu      sync.Mutex
	missing map[string]bool
	err     error
	calls   int
}

func (c *fakeChecker) IsMember(_ context.Context, chat string, _ int64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return false, c.err
	}
	return !c.missing[chat], nil
}

type sentNote struct {
	chatID int64
	text   string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNote
}

func (n *fakeNotifier) Notify(chatID int64, text string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNote{chatID, text})
	return true
}

func (n *fakeNotifier) NotifyAll(chatIDs []int64, text string) {
	for _, id := range chatIDs {
		n.Notify(id, text)
	}
}

func (n *fakeNotifier) messages() []sentNote {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentNote(nil), n.sent...)
}

// --- environment ---

const testAdminID int64 = 900

type testEnv struct {
	db       *sql.DB
	mock     sqlmock.Sqlmock
	store    *fakeStore
	cfg      *config.Config
	checker  *fakeChecker
	notifier *fakeNotifier

	settings  *SettingsService
	gate      *ChannelGate
	coupons   *CouponService
	identity  *IdentityService
	referrals *ReferralService
	accounts  *AccountService
	admin     *AdminService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := newFakeStore()
	db, mock := openTxDB(t, store)

	cfg := &config.Config{
		SecretKey:     "k",
		DeviceIDKey:   "dk",
		BotUsername:   "TestBot",
		PublicBaseURL: "https://loyalty.example/",
		AdminIDs:      []int64{testAdminID},
	}

	e := &testEnv{
		db:       db,
		mock:     mock,
		store:    store,
		cfg:      cfg,
		checker:  &fakeChecker{missing: map[string]bool{}},
		notifier: &fakeNotifier{},
	}
	rm := &fakeRepoManager{e.store}
	l := logging.Nop()

	e.settings = NewSettingsService(db, rm)
	e.gate = NewChannelGate(e.checker, e.settings, l)
	e.coupons = NewCouponService(db, rm, cfg, e.settings, e.notifier, nil, l)
	e.identity = NewIdentityService(db, rm, cfg, e.gate, nil, l)
	e.referrals = NewReferralService(db, rm, nil, l)
	e.accounts = NewAccountService(db, rm, cfg, e.gate, e.referrals, e.notifier, l)
	e.admin = NewAdminService(db, rm, cfg, e.settings, l)

	e.store.addAccount(models.Account{ID: testAdminID, FirstName: "Admin"})
	return e
}

func (e *testEnv) expectTx(commit bool) {
	e.mock.ExpectBegin()
	if commit {
		e.mock.ExpectCommit()
	} else {
		e.mock.ExpectRollback()
	}
}

func (e *testEnv) verify(t *testing.T) {
	t.Helper()
	if err := e.mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}
