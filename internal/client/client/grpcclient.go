package client

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/couponkeeper/internal/common"
	"github.com/dmitrijs2005/couponkeeper/internal/server/auth"

	gs "github.com/dmitrijs2005/couponkeeper/internal/server/grpc"
)

// generateToken is a seam for tests.
var generateToken = auth.GenerateToken

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      *gs.LoyaltyServiceClient
	accountID   int64
	secret      []byte
	validity    time.Duration
	accessToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)
	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) mint() error {
	token, err := generateToken(s.accountID, s.secret, s.validity)
	if err != nil {
		return err
	}
	s.accessToken = token
	return nil
}

// accessTokenInterceptor attaches the current token. When the server says
// it expired, a new one is minted and the call is retried once.
func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if s.accessToken == "" {
		if err := s.mint(); err != nil {
			return err
		}
	}

	err := invoker(withAccessToken(ctx, s.accessToken), method, req, reply, cc, opts...)
	if err == nil {
		return nil
	}

	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Unauthenticated || st.Message() != common.ErrTokenExpired.Error() {
		return err
	}

	if err := s.mint(); err != nil {
		return err
	}
	return invoker(withAccessToken(ctx, s.accessToken), method, req, reply, cc, opts...)
}

// NewGRPCClient prepares a client acting as accountID. No connection is made
// until the first call.
func NewGRPCClient(endpointURL string, accountID int64, secret string, validity time.Duration,
	opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{
		endpointURL: endpointURL,
		accountID:   accountID,
		secret:      []byte(secret),
		validity:    validity,
	}

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, opts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = gs.NewLoyaltyServiceClient(conn)
	return c, nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	if _, err := s.client.Ping(ctx); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) Overview(ctx context.Context) (*gs.AdminOverviewResponse, error) {
	resp, err := s.client.AdminOverview(ctx)
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) RecentRedemptions(ctx context.Context, limit int) ([]gs.RedemptionRow, error) {
	resp, err := s.client.RecentRedemptions(ctx, &gs.RecentRedemptionsRequest{Limit: limit})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Rows, nil
}

func (s *GRPCClient) AddCoupons(ctx context.Context, class string, codes []string) (*gs.AddCouponsResponse, error) {
	resp, err := s.client.AddCoupons(ctx, &gs.AddCouponsRequest{Class: class, Codes: codes})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) RemoveCoupons(ctx context.Context, class string, n int) (int, error) {
	resp, err := s.client.RemoveCoupons(ctx, &gs.RemoveCouponsRequest{Class: class, Count: n})
	if err != nil {
		return 0, s.mapError(err)
	}
	return resp.Removed, nil
}

func (s *GRPCClient) CouponUploadURL(ctx context.Context, class string) (string, string, error) {
	resp, err := s.client.CouponUploadURL(ctx, &gs.CouponUploadURLRequest{Class: class})
	if err != nil {
		return "", "", s.mapError(err)
	}
	return resp.Key, resp.URL, nil
}

func (s *GRPCClient) ImportCoupons(ctx context.Context, class, key string) (*gs.AddCouponsResponse, error) {
	resp, err := s.client.ImportCoupons(ctx, &gs.ImportCouponsRequest{Class: class, Key: key})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) Begin(ctx context.Context, state, class string) (*gs.AdminReplyResponse, error) {
	resp, err := s.client.AdminBegin(ctx, &gs.AdminBeginRequest{State: state, Class: class})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) Input(ctx context.Context, text string) (*gs.AdminReplyResponse, error) {
	resp, err := s.client.AdminInput(ctx, &gs.AdminInputRequest{Text: text})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) Cancel(ctx context.Context) error {
	if _, err := s.client.AdminCancel(ctx); err != nil {
		return s.mapError(err)
	}
	return nil
}

// mapError turns a gRPC status into the matching common error, keeping the
// server's message.
func (s *GRPCClient) mapError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}

	var base error
	switch st.Code() {
	case codes.InvalidArgument:
		base = common.ErrInvalidInput
	case codes.NotFound:
		base = common.ErrorNotFound
	case codes.PermissionDenied:
		base = common.ErrForbidden
	case codes.Unauthenticated:
		base = common.ErrorUnauthorized
	case codes.Unavailable:
		base = common.ErrStoreUnavailable
	default:
		return err
	}
	return fmt.Errorf("%w: %s", base, st.Message())
}
