// Package grpc exposes the loyalty operations to the chat front-end over
// gRPC. Messages are plain Go structs carried by a JSON codec.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/couponkeeper/internal/logging"
	"github.com/dmitrijs2005/couponkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/couponkeeper/internal/server/models"
	"github.com/dmitrijs2005/couponkeeper/internal/server/services"
	"google.golang.org/grpc"
)

type AccountService interface {
	Touch(ctx context.Context, id int64, username, firstName, referralArg string) (*models.Account, error)
	Stats(ctx context.Context, id int64) (*services.Stats, error)
	Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error)
	IssueVerifyToken(ctx context.Context, id int64) (*services.VerifyLink, error)
	CheckVerification(ctx context.Context, id int64) (*services.VerificationStatus, error)
}

type CouponService interface {
	Menu(ctx context.Context, accountID int64) (*services.RedeemMenu, error)
	Redeem(ctx context.Context, accountID int64, class models.CouponClass, requestID string) (*models.Redemption, error)
}

type AdminService interface {
	Overview(ctx context.Context, adminID int64) (*services.AdminOverview, error)
	Begin(ctx context.Context, adminID int64, state models.PendingState, class models.CouponClass) (*services.AdminReply, error)
	HandleInput(ctx context.Context, adminID int64, text string) (*services.AdminReply, error)
	Cancel(ctx context.Context, adminID int64) error
	AddCoupons(ctx context.Context, adminID int64, class models.CouponClass, codes []string) (*services.AddResult, error)
	RemoveUnusedCoupons(ctx context.Context, adminID int64, class models.CouponClass, n int) (int, error)
	RecentRedemptions(ctx context.Context, adminID int64, limit int) ([]models.RedemptionView, error)
}

type ImportService interface {
	CouponUploadURL(ctx context.Context, adminID int64, class models.CouponClass) (string, string, error)
	ImportCoupons(ctx context.Context, adminID int64, class models.CouponClass, key string) (*services.AddResult, error)
}

// Services groups the business services the handlers call.
type Services struct {
	Accounts AccountService
	Coupons  CouponService
	Admin    AdminService
	Imports  ImportService
}

type GRPCServer struct {
	address   string
	accounts  AccountService
	coupons   CouponService
	admin     AdminService
	imports   ImportService
	metrics   *metrics.Metrics
	logger    logging.Logger
	jwtSecret []byte
}

func NewGRPCServer(a string, l logging.Logger, svc Services, m *metrics.Metrics, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		accounts:  svc.Accounts,
		coupons:   svc.Coupons,
		admin:     svc.Admin,
		imports:   svc.Imports,
		metrics:   m,
		jwtSecret: []byte(secretKey),
	}
}

// newServer builds a grpc.Server with the interceptor chain and this
// service registered.
func (s *GRPCServer) newServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{
		grpc.ChainUnaryInterceptor(s.metricsInterceptor, s.accessTokenInterceptor),
	}, opts...)
	srv := grpc.NewServer(opts...)
	RegisterLoyaltyServiceServer(srv, s)
	return srv
}

// Run serves until ctx is cancelled, then stops gracefully.
func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
