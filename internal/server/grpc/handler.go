package grpc

import (
	"context"

	"github.com/dmitrijs2005/couponkeeper/internal/server/models"
)

func (s *GRPCServer) Ping(ctx context.Context, req *Empty) (*PingResponse, error) {

	return &PingResponse{Status: "OK"}, nil

}

func (s *GRPCServer) Touch(ctx context.Context, req *TouchRequest) (*TouchResponse, error) {
	id, err := accountIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	acc, err := s.accounts.Touch(ctx, id, req.Username, req.FirstName, req.StartParam)
	if err != nil {
		return nil, s.toStatus(ctx, "Touch", err)
	}

	return &TouchResponse{AccountID: acc.ID, Points: acc.Points, Verified: acc.Verified, ReferredBy: acc.ReferredBy}, nil
}

func (s *GRPCServer) Stats(ctx context.Context, req *Empty) (*StatsResponse, error) {
	id, err := accountIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	st, err := s.accounts.Stats(ctx, id)
	if err != nil {
		return nil, s.toStatus(ctx, "Stats", err)
	}

	return &StatsResponse{Points: st.Points, Referrals: st.Referrals, Verified: st.Verified, ReferralLink: st.ReferralLink}, nil
}

func (s *GRPCServer) Leaderboard(ctx context.Context, req *Empty) (*LeaderboardResponse, error) {
	rows, err := s.accounts.Leaderboard(ctx)
	if err != nil {
		return nil, s.toStatus(ctx, "Leaderboard", err)
	}

	resp := &LeaderboardResponse{Rows: make([]LeaderboardRow, 0, len(rows))}
	for _, r := range rows {
		resp.Rows = append(resp.Rows, LeaderboardRow{AccountID: r.AccountID, Name: r.Name, Referrals: r.Referrals, Points: r.Points})
	}
	return resp, nil
}

func (s *GRPCServer) IssueVerifyToken(ctx context.Context, req *Empty) (*VerifyLinkResponse, error) {
	id, err := accountIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	link, err := s.accounts.IssueVerifyToken(ctx, id)
	if err != nil {
		return nil, s.toStatus(ctx, "IssueVerifyToken", err)
	}

	return &VerifyLinkResponse{
		Token:     link.Token,
		URL:       link.URL,
		Channels:  link.Channels,
		Missing:   link.Missing,
		AllJoined: link.AllJoined,
	}, nil
}

func (s *GRPCServer) CheckVerification(ctx context.Context, req *Empty) (*CheckVerificationResponse, error) {
	id, err := accountIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	st, err := s.accounts.CheckVerification(ctx, id)
	if err != nil {
		return nil, s.toStatus(ctx, "CheckVerification", err)
	}

	return &CheckVerificationResponse{
		AllJoined:       st.AllJoined,
		Verified:        st.Verified,
		ReferralAwarded: st.ReferralAwarded,
		Channels:        st.Channels,
		Missing:         st.Missing,
		VerifyURL:       st.VerifyURL,
	}, nil
}

func (s *GRPCServer) RedeemMenu(ctx context.Context, req *Empty) (*RedeemMenuResponse, error) {
	id, err := accountIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	menu, err := s.coupons.Menu(ctx, id)
	if err != nil {
		return nil, s.toStatus(ctx, "RedeemMenu", err)
	}

	resp := &RedeemMenuResponse{Points: menu.Points, Options: make([]RedeemOption, 0, len(menu.Options))}
	for _, o := range menu.Options {
		resp.Options = append(resp.Options, RedeemOption{Class: string(o.Class), Label: o.Label, Cost: o.Cost, Stock: o.Stock})
	}
	return resp, nil
}

func (s *GRPCServer) Redeem(ctx context.Context, req *RedeemRequest) (*RedeemResponse, error) {
	id, err := accountIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rd, err := s.coupons.Redeem(ctx, id, models.CouponClass(req.Class), req.RequestID)
	if err != nil {
		return nil, s.toStatus(ctx, "Redeem", err)
	}

	return &RedeemResponse{
		RedemptionID: rd.ID,
		Class:        string(rd.Class),
		Label:        rd.Class.Label(),
		Code:         rd.Code,
		PointsSpent:  rd.PointsSpent,
		CreatedAt:    rd.CreatedAt,
	}, nil
}

func (s *GRPCServer) AdminOverview(ctx context.Context, req *Empty) (*AdminOverviewResponse, error) {
	id, err := accountIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	ov, err := s.admin.Overview(ctx, id)
	if err != nil {
		return nil, s.toStatus(ctx, "AdminOverview", err)
	}

	resp := &AdminOverviewResponse{Channels: ov.Channels, Costs: map[string]int{}, Stock: map[string]int{}}
	for c, v := range ov.Costs {
		resp.Costs[string(c)] = v
	}
	for c, v := range ov.Stock {
		resp.Stock[string(c)] = v
	}
	return resp, nil
}

func (s *GRPCServer) AdminBegin(ctx context.Context, req *AdminBeginRequest) (*AdminReplyResponse, error) {
	id, err := accountIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	r, err := s.admin.Begin(ctx, id, models.PendingState(req.State), models.CouponClass(req.Class))
	if err != nil {
		return nil, s.toStatus(ctx, "AdminBegin", err)
	}

	return &AdminReplyResponse{Handled: r.Handled, Done: r.Done, State: string(r.State), Text: r.Text}, nil
}

func (s *GRPCServer) AdminInput(ctx context.Context, req *AdminInputRequest) (*AdminReplyResponse, error) {
	id, err := accountIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	r, err := s.admin.HandleInput(ctx, id, req.Text)
	if err != nil {
		return nil, s.toStatus(ctx, "AdminInput", err)
	}

	return &AdminReplyResponse{Handled: r.Handled, Done: r.Done, State: string(r.State), Text: r.Text}, nil
}

func (s *GRPCServer) AdminCancel(ctx context.Context, req *Empty) (*AdminReplyResponse, error) {
	id, err := accountIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.admin.Cancel(ctx, id); err != nil {
		return nil, s.toStatus(ctx, "AdminCancel", err)
	}

	return &AdminReplyResponse{Handled: true, Done: true, Text: "Cancelled."}, nil
}

func (s *GRPCServer) AddCoupons(ctx context.Context, req *AddCouponsRequest) (*AddCouponsResponse, error) {
	id, err := accountIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	res, err := s.admin.AddCoupons(ctx, id, models.CouponClass(req.Class), req.Codes)
	if err != nil {
		return nil, s.toStatus(ctx, "AddCoupons", err)
	}

	return &AddCouponsResponse{Added: res.Added, Skipped: res.Skipped}, nil
}

func (s *GRPCServer) RemoveCoupons(ctx context.Context, req *RemoveCouponsRequest) (*RemoveCouponsResponse, error) {
	id, err := accountIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	n, err := s.admin.RemoveUnusedCoupons(ctx, id, models.CouponClass(req.Class), req.Count)
	if err != nil {
		return nil, s.toStatus(ctx, "RemoveCoupons", err)
	}

	return &RemoveCouponsResponse{Removed: n}, nil
}

func (s *GRPCServer) CouponUploadURL(ctx context.Context, req *CouponUploadURLRequest) (*CouponUploadURLResponse, error) {
	id, err := accountIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	key, url, err := s.imports.CouponUploadURL(ctx, id, models.CouponClass(req.Class))
	if err != nil {
		return nil, s.toStatus(ctx, "CouponUploadURL", err)
	}

	return &CouponUploadURLResponse{Key: key, URL: url}, nil
}

func (s *GRPCServer) ImportCoupons(ctx context.Context, req *ImportCouponsRequest) (*AddCouponsResponse, error) {
	id, err := accountIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	res, err := s.imports.ImportCoupons(ctx, id, models.CouponClass(req.Class), req.Key)
	if err != nil {
		return nil, s.toStatus(ctx, "ImportCoupons", err)
	}

	return &AddCouponsResponse{Added: res.Added, Skipped: res.Skipped}, nil
}

func (s *GRPCServer) RecentRedemptions(ctx context.Context, req *RecentRedemptionsRequest) (*RecentRedemptionsResponse, error) {
	id, err := accountIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.admin.RecentRedemptions(ctx, id, req.Limit)
	if err != nil {
		return nil, s.toStatus(ctx, "RecentRedemptions", err)
	}

	resp := &RecentRedemptionsResponse{Rows: make([]RedemptionRow, 0, len(rows))}
	for _, r := range rows {
		resp.Rows = append(resp.Rows, RedemptionRow{
			ID:          r.ID,
			AccountID:   r.AccountID,
			Name:        r.Name,
			Class:       string(r.Class),
			Code:        r.Code,
			PointsSpent: r.PointsSpent,
			CreatedAt:   r.CreatedAt,
		})
	}
	return resp, nil
}
