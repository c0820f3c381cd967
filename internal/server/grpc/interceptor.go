package grpc

import (
	"context"
	"errors"
	"path"
	"time"

	"github.com/dmitrijs2005/couponkeeper/internal/common"
	"github.com/dmitrijs2005/couponkeeper/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const accountIDKey ctxKey = "accountID"

// publicMethods may be called without an access token.
var publicMethods = map[string]bool{
	FullMethod("Ping"): true,
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	if publicMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(common.AccessTokenHeaderName)
		if len(values) > 0 {
			accessToken = values[0]
		}
	}
	if len(accessToken) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	accountID, err := auth.GetAccountIDFromToken(accessToken, s.jwtSecret)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return nil, status.Error(codes.Unauthenticated, "token expired")
		}
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}

	ctx = context.WithValue(ctx, accountIDKey, accountID)
	return handler(ctx, req)
}

func (s *GRPCServer) metricsInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.metrics.RPC(path.Base(info.FullMethod), status.Code(err).String(), time.Since(start))
	return resp, err
}

// accountIDFromContext returns the caller id stored by the interceptor.
func accountIDFromContext(ctx context.Context) (int64, error) {
	id, ok := ctx.Value(accountIDKey).(int64)
	if !ok || id == 0 {
		return 0, status.Error(codes.Unauthenticated, "unauthenticated")
	}
	return id, nil
}
