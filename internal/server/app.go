// Package server wires the loyalty service together: storage, the
// messaging platform client, business services, the gRPC and HTTP
// endpoints, the notification queue and the stock report schedule.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/couponkeeper/internal/logging"
	"github.com/dmitrijs2005/couponkeeper/internal/server/config"
	"github.com/dmitrijs2005/couponkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/couponkeeper/internal/server/jobs"
	"github.com/dmitrijs2005/couponkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/couponkeeper/internal/server/notify"
	"github.com/dmitrijs2005/couponkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/couponkeeper/internal/server/services"
	"github.com/dmitrijs2005/couponkeeper/internal/server/telegram"

	gs "github.com/dmitrijs2005/couponkeeper/internal/server/grpc"
)

const (
	logMaxSizeMB  = 50
	logMaxBackups = 5
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	notifier    *notify.Notifier
	stock       *jobs.StockReport
	grpcServer  *gs.GRPCServer
	httpServer  *httpapi.Server
}

// NewApp builds every component from c. It does not touch the network;
// the database is first used by Run when migrations are applied.
func NewApp(c *config.Config) (*App, error) {
	logger := logging.New(logging.Options{
		Level:      c.LogLevel,
		File:       c.LogFile,
		MaxSizeMB:  logMaxSizeMB,
		MaxBackups: logMaxBackups,
	})

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	m := metrics.Default()
	rm := repomanager.NewPostgresRepositoryManager()
	tg := telegram.NewClient(c.TelegramAPIBase, c.BotToken)
	n := notify.New(tg, c.NotifyQueueSize, logger, m)

	settings := services.NewSettingsService(db, rm)
	gate := services.NewChannelGate(tg, settings, logger)
	referrals := services.NewReferralService(db, rm, m, logger)
	accounts := services.NewAccountService(db, rm, c, gate, referrals, n, logger)
	coupons := services.NewCouponService(db, rm, c, settings, n, m, logger)
	identity := services.NewIdentityService(db, rm, c, gate, m, logger)
	admin := services.NewAdminService(db, rm, c, settings, logger)
	imports := services.NewImportService(admin, c, logger)

	gsrv := gs.NewGRPCServer(c.EndpointAddrGRPC, logger, gs.Services{
		Accounts: accounts,
		Coupons:  coupons,
		Admin:    admin,
		Imports:  imports,
	}, m, c.SecretKey)

	hsrv := httpapi.NewServer(c.EndpointAddrHTTP, logger, identity, m, promhttp.Handler(),
		c.VerifyRateLimit, c.VerifyRateBurst)

	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		repomanager: rm,
		notifier:    n,
		stock:       jobs.NewStockReport(db, rm, c, n, m, logger),
		grpcServer:  gsrv,
		httpServer:  hsrv,
	}, nil
}

// Run applies migrations and serves until ctx is cancelled, SIGINT/SIGTERM
// arrives or one of the servers fails. Queued notifications are flushed
// before it returns.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()
	defer app.db.Close()

	app.logger.Info(ctx, "Starting app...")

	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations error: %w", err)
	}

	scheduler, err := jobs.Schedule(ctx, app.stock, app.config.StockCheckInterval)
	if err != nil {
		return err
	}
	defer scheduler.Stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		app.notifier.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return app.grpcServer.Run(gctx)
	})
	g.Go(func() error {
		return app.httpServer.Run(gctx)
	})

	err = g.Wait()
	if err != nil {
		app.logger.Error(ctx, "app stopped", "error", err)
		return err
	}
	app.logger.Info(ctx, "App stopped")
	return nil
}
