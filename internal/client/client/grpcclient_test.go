package client

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/dmitrijs2005/couponkeeper/internal/common"
	"github.com/dmitrijs2005/couponkeeper/internal/server/auth"

	gs "github.com/dmitrijs2005/couponkeeper/internal/server/grpc"
)

const testSecret = "test-secret"

// fakeLoyalty implements only what the tests call; anything else panics on
// the nil embedded interface.
type fakeLoyalty struct {
	gs.LoyaltyServiceServer
	lastAdd  *gs.AddCouponsRequest
	failWith error
}

func (f *fakeLoyalty) Ping(context.Context, *gs.Empty) (*gs.PingResponse, error) {
	return &gs.PingResponse{Status: "ok"}, nil
}

func (f *fakeLoyalty) AdminOverview(context.Context, *gs.Empty) (*gs.AdminOverviewResponse, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	return &gs.AdminOverviewResponse{Channels: []string{"@a"}, Stock: map[string]int{"500": 2}}, nil
}

func (f *fakeLoyalty) AddCoupons(_ context.Context, req *gs.AddCouponsRequest) (*gs.AddCouponsResponse, error) {
	f.lastAdd = req
	return &gs.AddCouponsResponse{Added: len(req.Codes)}, nil
}

func (f *fakeLoyalty) AdminInput(_ context.Context, req *gs.AdminInputRequest) (*gs.AdminReplyResponse, error) {
	return &gs.AdminReplyResponse{Handled: true, Done: true, Text: "got " + req.Text}, nil
}

type tokenAudit struct {
	seen        []int64
	expireFirst bool
}

// interceptor checks the token the way the server does and can reject the
// first call as expired.
func (a *tokenAudit) interceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler) (any, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	vals := md.Get(common.AccessTokenHeaderName)
	if len(vals) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}
	if a.expireFirst {
		a.expireFirst = false
		return nil, status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
	}
	id, err := auth.GetAccountIDFromToken(vals[0], []byte(testSecret))
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}
	a.seen = append(a.seen, id)
	return handler(ctx, req)
}

func startServer(t *testing.T, srv *fakeLoyalty, audit *tokenAudit) *GRPCClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer(grpc.UnaryInterceptor(audit.interceptor))
	gs.RegisterLoyaltyServiceServer(s, srv)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	c, err := NewGRPCClient("passthrough:///bufnet", 900, testSecret, time.Minute,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestGRPCClient_CallsCarryMintedToken(t *testing.T) {
	audit := &tokenAudit{}
	srv := &fakeLoyalty{}
	c := startServer(t, srv, audit)
	ctx := context.Background()

	require.NoError(t, c.Ping(ctx))

	ov, err := c.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"@a"}, ov.Channels)
	assert.Equal(t, 2, ov.Stock["500"])

	res, err := c.AddCoupons(ctx, "500", []string{"A", "B"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Added)
	assert.Equal(t, &gs.AddCouponsRequest{Class: "500", Codes: []string{"A", "B"}}, srv.lastAdd)

	reply, err := c.Input(ctx, "7")
	require.NoError(t, err)
	assert.Equal(t, "got 7", reply.Text)

	assert.Equal(t, []int64{900, 900, 900, 900}, audit.seen)
}

func TestGRPCClient_RemintsExpiredToken(t *testing.T) {
	audit := &tokenAudit{expireFirst: true}
	c := startServer(t, &fakeLoyalty{}, audit)

	minted := 0
	orig := generateToken
	generateToken = func(id int64, secret []byte, d time.Duration) (string, error) {
		minted++
		return auth.GenerateToken(id, secret, d)
	}
	t.Cleanup(func() { generateToken = orig })

	_, err := c.Overview(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, minted)
	assert.Equal(t, []int64{900}, audit.seen)
}

func TestGRPCClient_MapsStatusToCommonErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"forbidden", status.Error(codes.PermissionDenied, "not allowed"), common.ErrForbidden},
		{"invalid", status.Error(codes.InvalidArgument, "bad class"), common.ErrInvalidInput},
		{"not found", status.Error(codes.NotFound, "no such object"), common.ErrorNotFound},
		{"unavailable", status.Error(codes.Unavailable, "store unavailable"), common.ErrStoreUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := startServer(t, &fakeLoyalty{failWith: tt.err}, &tokenAudit{})

			_, err := c.Overview(context.Background())

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), status.Convert(tt.err).Message())
		})
	}
}

func TestGRPCClient_OtherCodesPassThrough(t *testing.T) {
	c := startServer(t, &fakeLoyalty{failWith: status.Error(codes.ResourceExhausted, "out of stock")}, &tokenAudit{})

	_, err := c.Overview(context.Background())

	assert.Equal(t, codes.ResourceExhausted, status.Code(err))
}
