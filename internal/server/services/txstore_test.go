package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/couponkeeper/internal/server/models"
)

var dsnSeq atomic.Int64

// openTxDB returns a sqlmock-backed *sql.DB whose transactions snapshot
// store on begin and put the snapshot back on rollback, so a rolled back
// unit leaves the fake store exactly as it found it.
func openTxDB(t *testing.T, store *fakeStore) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	dsn := fmt.Sprintf("fakestore-%s-%d", t.Name(), dsnSeq.Add(1))
	base, mock, err := sqlmock.NewWithDSN(dsn)
	if err != nil {
		t.Fatalf("sqlmock.NewWithDSN error: %v", err)
	}
	t.Cleanup(func() { _ = base.Close() })

	db := sql.OpenDB(&txConnector{dsn: dsn, inner: base.Driver(), store: store})
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

type txConnector struct {
	dsn   string
	inner driver.Driver
	store *fakeStore
}

func (c *txConnector) Connect(context.Context) (driver.Conn, error) {
	conn, err := c.inner.Open(c.dsn)
	if err != nil {
		return nil, err
	}
	return &txConn{Conn: conn, store: c.store}, nil
}

func (c *txConnector) Driver() driver.Driver { return c.inner }

type txConn struct {
	driver.Conn
	store *fakeStore
}

func (c *txConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

func (c *txConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	tx, err := c.Conn.(driver.ConnBeginTx).BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &txHandle{Tx: tx, store: c.store, snap: c.store.snapshot()}, nil
}

type txHandle struct {
	driver.Tx
	store *fakeStore
	snap  *fakeState
}

func (h *txHandle) Rollback() error {
	h.store.restore(h.snap)
	return h.Tx.Rollback()
}

type fakeState struct {
	accounts    map[int64]models.Account
	coupons     []models.Coupon
	nextCoupon  int64
	bindings    map[string]int64
	redemptions []*models.Redemption
	settings    map[models.SettingKey][]byte
}

func (s *fakeStore) snapshot() *fakeState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := &fakeState{
		accounts:    make(map[int64]models.Account, len(s.accounts)),
		nextCoupon:  s.nextCoupon,
		bindings:    make(map[string]int64, len(s.bindings)),
		redemptions: append([]*models.Redemption(nil), s.redemptions...),
		settings:    make(map[models.SettingKey][]byte, len(s.settings)),
	}
	for id, a := range s.accounts {
		st.accounts[id] = *a
	}
	for _, c := range s.coupons {
		st.coupons = append(st.coupons, *c)
	}
	for d, a := range s.bindings {
		st.bindings[d] = a
	}
	for k, v := range s.settings {
		st.settings[k] = v
	}
	return st
}

func (s *fakeStore) restore(st *fakeState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = make(map[int64]*models.Account, len(st.accounts))
	for id, a := range st.accounts {
		cp := a
		s.accounts[id] = &cp
	}
	s.coupons = s.coupons[:0]
	for _, c := range st.coupons {
		cp := c
		s.coupons = append(s.coupons, &cp)
	}
	s.nextCoupon = st.nextCoupon
	s.bindings = st.bindings
	s.redemptions = st.redemptions
	s.settings = st.settings
}
