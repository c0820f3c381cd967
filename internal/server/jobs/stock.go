// Package jobs holds recurring background work scheduled with gocron.
package jobs

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/dmitrijs2005/couponkeeper/internal/logging"
	"github.com/dmitrijs2005/couponkeeper/internal/server/config"
	"github.com/dmitrijs2005/couponkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/couponkeeper/internal/server/models"
	"github.com/dmitrijs2005/couponkeeper/internal/server/repositories/repomanager"
)

// Notifier delivers best-effort operator messages.
type Notifier interface {
	NotifyAll(chatIDs []int64, text string)
}

// LowStock is a class whose unused stock fell below the alert threshold.
type LowStock struct {
	Class models.CouponClass
	Count int
}

// StockReport checks coupon stock, publishes it as a gauge and tells the
// operators about classes running low.
type StockReport struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	notifier    Notifier
	metrics     *metrics.Metrics
	logger      logging.Logger
	operators   []int64
	threshold   int
}

func NewStockReport(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, n Notifier,
	mt *metrics.Metrics, l logging.Logger) *StockReport {
	return &StockReport{
		db:          db,
		repomanager: m,
		notifier:    n,
		metrics:     mt,
		logger:      l.With("module", "stock_report"),
		operators:   cfg.AdminIDs,
		threshold:   cfg.StockAlertThreshold,
	}
}

// Run performs one check and returns the classes below the threshold.
func (r *StockReport) Run(ctx context.Context) ([]LowStock, error) {
	stock, err := r.repomanager.Coupons(r.db).StockCounts(ctx)
	if err != nil {
		return nil, err
	}

	var low []LowStock
	for _, c := range models.CouponClasses() {
		n := stock[c]
		r.metrics.Stock(string(c), n)
		if n < r.threshold {
			low = append(low, LowStock{Class: c, Count: n})
		}
	}

	if len(low) > 0 {
		r.notifier.NotifyAll(r.operators, FormatLowStock(low))
		r.logger.Warn(ctx, "low coupon stock", "classes", len(low))
	}
	return low, nil
}

// FormatLowStock renders the operator alert.
func FormatLowStock(low []LowStock) string {
	var b strings.Builder
	b.WriteString("⚠️ Low coupon stock:")
	for _, l := range low {
		fmt.Fprintf(&b, "\n%s: %d left", l.Class.Label(), l.Count)
	}
	return b.String()
}

// Schedule runs the report every interval, starting now, until the returned
// scheduler is stopped. Overlapping runs are skipped.
func Schedule(ctx context.Context, r *StockReport, interval time.Duration) (*gocron.Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("stock check interval must be positive, got %s", interval)
	}

	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	_, err := s.Every(interval).Do(func() {
		if _, err := r.Run(ctx); err != nil {
			r.logger.Error(ctx, "stock report failed", "error", err)
		}
	})
	if err != nil {
		return nil, err
	}

	s.StartAsync()
	return s, nil
}
