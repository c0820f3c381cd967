package grpc

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "loyalty.v1.LoyaltyService"

// LoyaltyServiceServer is implemented by GRPCServer.
type LoyaltyServiceServer interface {
	Ping(context.Context, *Empty) (*PingResponse, error)
	Touch(context.Context, *TouchRequest) (*TouchResponse, error)
	Stats(context.Context, *Empty) (*StatsResponse, error)
	Leaderboard(context.Context, *Empty) (*LeaderboardResponse, error)
	IssueVerifyToken(context.Context, *Empty) (*VerifyLinkResponse, error)
	CheckVerification(context.Context, *Empty) (*CheckVerificationResponse, error)
	RedeemMenu(context.Context, *Empty) (*RedeemMenuResponse, error)
	Redeem(context.Context, *RedeemRequest) (*RedeemResponse, error)
	AdminOverview(context.Context, *Empty) (*AdminOverviewResponse, error)
	AdminBegin(context.Context, *AdminBeginRequest) (*AdminReplyResponse, error)
	AdminInput(context.Context, *AdminInputRequest) (*AdminReplyResponse, error)
	AdminCancel(context.Context, *Empty) (*AdminReplyResponse, error)
	AddCoupons(context.Context, *AddCouponsRequest) (*AddCouponsResponse, error)
	RemoveCoupons(context.Context, *RemoveCouponsRequest) (*RemoveCouponsResponse, error)
	CouponUploadURL(context.Context, *CouponUploadURLRequest) (*CouponUploadURLResponse, error)
	ImportCoupons(context.Context, *ImportCouponsRequest) (*AddCouponsResponse, error)
	RecentRedemptions(context.Context, *RecentRedemptionsRequest) (*RecentRedemptionsResponse, error)
}

// FullMethod returns the wire name of method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func unary[Req, Resp any](name string, call func(LoyaltyServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(LoyaltyServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(LoyaltyServiceServer), ctx, req.(*Req))
			})
		},
	}
}

// LoyaltyServiceDesc describes the service for grpc.Server.RegisterService.
var LoyaltyServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LoyaltyServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Ping", LoyaltyServiceServer.Ping),
		unary("Touch", LoyaltyServiceServer.Touch),
		unary("Stats", LoyaltyServiceServer.Stats),
		unary("Leaderboard", LoyaltyServiceServer.Leaderboard),
		unary("IssueVerifyToken", LoyaltyServiceServer.IssueVerifyToken),
		unary("CheckVerification", LoyaltyServiceServer.CheckVerification),
		unary("RedeemMenu", LoyaltyServiceServer.RedeemMenu),
		unary("Redeem", LoyaltyServiceServer.Redeem),
		unary("AdminOverview", LoyaltyServiceServer.AdminOverview),
		unary("AdminBegin", LoyaltyServiceServer.AdminBegin),
		unary("AdminInput", LoyaltyServiceServer.AdminInput),
		unary("AdminCancel", LoyaltyServiceServer.AdminCancel),
		unary("AddCoupons", LoyaltyServiceServer.AddCoupons),
		unary("RemoveCoupons", LoyaltyServiceServer.RemoveCoupons),
		unary("CouponUploadURL", LoyaltyServiceServer.CouponUploadURL),
		unary("ImportCoupons", LoyaltyServiceServer.ImportCoupons),
		unary("RecentRedemptions", LoyaltyServiceServer.RecentRedemptions),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "loyalty/v1/loyalty.proto",
}

// RegisterLoyaltyServiceServer registers srv on s.
func RegisterLoyaltyServiceServer(s grpc.ServiceRegistrar, srv LoyaltyServiceServer) {
	s.RegisterService(&LoyaltyServiceDesc, srv)
}

// LoyaltyServiceClient calls the service over cc using the JSON codec.
type LoyaltyServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewLoyaltyServiceClient(cc grpc.ClientConnInterface) *LoyaltyServiceClient {
	return &LoyaltyServiceClient{cc: cc}
}

func invoke[Req, Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in *Req, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	if err := cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *LoyaltyServiceClient) Ping(ctx context.Context, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[Empty, PingResponse](ctx, c.cc, "Ping", &Empty{}, opts)
}

func (c *LoyaltyServiceClient) Touch(ctx context.Context, in *TouchRequest, opts ...grpc.CallOption) (*TouchResponse, error) {
	return invoke[TouchRequest, TouchResponse](ctx, c.cc, "Touch", in, opts)
}

func (c *LoyaltyServiceClient) Stats(ctx context.Context, opts ...grpc.CallOption) (*StatsResponse, error) {
	return invoke[Empty, StatsResponse](ctx, c.cc, "Stats", &Empty{}, opts)
}

func (c *LoyaltyServiceClient) Leaderboard(ctx context.Context, opts ...grpc.CallOption) (*LeaderboardResponse, error) {
	return invoke[Empty, LeaderboardResponse](ctx, c.cc, "Leaderboard", &Empty{}, opts)
}

func (c *LoyaltyServiceClient) IssueVerifyToken(ctx context.Context, opts ...grpc.CallOption) (*VerifyLinkResponse, error) {
	return invoke[Empty, VerifyLinkResponse](ctx, c.cc, "IssueVerifyToken", &Empty{}, opts)
}

func (c *LoyaltyServiceClient) CheckVerification(ctx context.Context, opts ...grpc.CallOption) (*CheckVerificationResponse, error) {
	return invoke[Empty, CheckVerificationResponse](ctx, c.cc, "CheckVerification", &Empty{}, opts)
}

func (c *LoyaltyServiceClient) RedeemMenu(ctx context.Context, opts ...grpc.CallOption) (*RedeemMenuResponse, error) {
	return invoke[Empty, RedeemMenuResponse](ctx, c.cc, "RedeemMenu", &Empty{}, opts)
}

func (c *LoyaltyServiceClient) Redeem(ctx context.Context, in *RedeemRequest, opts ...grpc.CallOption) (*RedeemResponse, error) {
	return invoke[RedeemRequest, RedeemResponse](ctx, c.cc, "Redeem", in, opts)
}

func (c *LoyaltyServiceClient) AdminOverview(ctx context.Context, opts ...grpc.CallOption) (*AdminOverviewResponse, error) {
	return invoke[Empty, AdminOverviewResponse](ctx, c.cc, "AdminOverview", &Empty{}, opts)
}

func (c *LoyaltyServiceClient) AdminBegin(ctx context.Context, in *AdminBeginRequest, opts ...grpc.CallOption) (*AdminReplyResponse, error) {
	return invoke[AdminBeginRequest, AdminReplyResponse](ctx, c.cc, "AdminBegin", in, opts)
}

func (c *LoyaltyServiceClient) AdminInput(ctx context.Context, in *AdminInputRequest, opts ...grpc.CallOption) (*AdminReplyResponse, error) {
	return invoke[AdminInputRequest, AdminReplyResponse](ctx, c.cc, "AdminInput", in, opts)
}

func (c *LoyaltyServiceClient) AdminCancel(ctx context.Context, opts ...grpc.CallOption) (*AdminReplyResponse, error) {
	return invoke[Empty, AdminReplyResponse](ctx, c.cc, "AdminCancel", &Empty{}, opts)
}

func (c *LoyaltyServiceClient) AddCoupons(ctx context.Context, in *AddCouponsRequest, opts ...grpc.CallOption) (*AddCouponsResponse, error) {
	return invoke[AddCouponsRequest, AddCouponsResponse](ctx, c.cc, "AddCoupons", in, opts)
}

func (c *LoyaltyServiceClient) RemoveCoupons(ctx context.Context, in *RemoveCouponsRequest, opts ...grpc.CallOption) (*RemoveCouponsResponse, error) {
	return invoke[RemoveCouponsRequest, RemoveCouponsResponse](ctx, c.cc, "RemoveCoupons", in, opts)
}

func (c *LoyaltyServiceClient) CouponUploadURL(ctx context.Context, in *CouponUploadURLRequest, opts ...grpc.CallOption) (*CouponUploadURLResponse, error) {
	return invoke[CouponUploadURLRequest, CouponUploadURLResponse](ctx, c.cc, "CouponUploadURL", in, opts)
}

func (c *LoyaltyServiceClient) ImportCoupons(ctx context.Context, in *ImportCouponsRequest, opts ...grpc.CallOption) (*AddCouponsResponse, error) {
	return invoke[ImportCouponsRequest, AddCouponsResponse](ctx, c.cc, "ImportCoupons", in, opts)
}

func (c *LoyaltyServiceClient) RecentRedemptions(ctx context.Context, in *RecentRedemptionsRequest, opts ...grpc.CallOption) (*RecentRedemptionsResponse, error) {
	return invoke[RecentRedemptionsRequest, RecentRedemptionsResponse](ctx, c.cc, "RecentRedemptions", in, opts)
}
