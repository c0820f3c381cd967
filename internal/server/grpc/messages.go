package grpc

import "time"

type Empty struct{}

type PingResponse struct {
	Status string `json:"status"`
}

type TouchRequest struct {
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	// StartParam is the argument of the bot's start command; a numeric id
	// there names the referrer.
	StartParam string `json:"start_param,omitempty"`
}

type TouchResponse struct {
	AccountID  int64  `json:"account_id"`
	Points     int    `json:"points"`
	Verified   bool   `json:"verified"`
	ReferredBy *int64 `json:"referred_by,omitempty"`
}

type StatsResponse struct {
	Points       int    `json:"points"`
	Referrals    int    `json:"referrals"`
	Verified     bool   `json:"verified"`
	ReferralLink string `json:"referral_link"`
}

type LeaderboardRow struct {
	AccountID int64  `json:"account_id"`
	Name      string `json:"name"`
	Referrals int    `json:"referrals"`
	Points    int    `json:"points"`
}

type LeaderboardResponse struct {
	Rows []LeaderboardRow `json:"rows"`
}

type VerifyLinkResponse struct {
	Token     string   `json:"token"`
	URL       string   `json:"url"`
	Channels  []string `json:"channels"`
	Missing   []string `json:"missing,omitempty"`
	AllJoined bool     `json:"all_joined"`
}

type CheckVerificationResponse struct {
	AllJoined       bool     `json:"all_joined"`
	Verified        bool     `json:"verified"`
	ReferralAwarded bool     `json:"referral_awarded"`
	Channels        []string `json:"channels"`
	Missing         []string `json:"missing,omitempty"`
	VerifyURL       string   `json:"verify_url,omitempty"`
}

type RedeemOption struct {
	Class string `json:"class"`
	Label string `json:"label"`
	Cost  int    `json:"cost"`
	Stock int    `json:"stock"`
}

type RedeemMenuResponse struct {
	Points  int            `json:"points"`
	Options []RedeemOption `json:"options"`
}

type RedeemRequest struct {
	Class string `json:"class"`
	// RequestID makes retries of the same redemption safe.
	RequestID string `json:"request_id,omitempty"`
}

type RedeemResponse struct {
	RedemptionID int64     `json:"redemption_id"`
	Class        string    `json:"class"`
	Label        string    `json:"label"`
	Code         string    `json:"code"`
	PointsSpent  int       `json:"points_spent"`
	CreatedAt    time.Time `json:"created_at"`
}

type AdminOverviewResponse struct {
	Channels []string       `json:"channels"`
	Costs    map[string]int `json:"costs"`
	Stock    map[string]int `json:"stock"`
}

type AdminBeginRequest struct {
	State string `json:"state"`
	Class string `json:"class,omitempty"`
}

type AdminInputRequest struct {
	Text string `json:"text"`
}

type AdminReplyResponse struct {
	Handled bool   `json:"handled"`
	Done    bool   `json:"done"`
	State   string `json:"state,omitempty"`
	Text    string `json:"text,omitempty"`
}

type AddCouponsRequest struct {
	Class string   `json:"class"`
	Codes []string `json:"codes"`
}

type AddCouponsResponse struct {
	Added   int `json:"added"`
	Skipped int `json:"skipped"`
}

type RemoveCouponsRequest struct {
	Class string `json:"class"`
	Count int    `json:"count"`
}

type RemoveCouponsResponse struct {
	Removed int `json:"removed"`
}

type CouponUploadURLRequest struct {
	Class string `json:"class"`
}

type CouponUploadURLResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type ImportCouponsRequest struct {
	Class string `json:"class"`
	Key   string `json:"key"`
}

type RecentRedemptionsRequest struct {
	Limit int `json:"limit,omitempty"`
}

type RedemptionRow struct {
	ID          int64     `json:"id"`
	AccountID   int64     `json:"account_id"`
	Name        string    `json:"name"`
	Class       string    `json:"class"`
	Code        string    `json:"code"`
	PointsSpent int       `json:"points_spent"`
	CreatedAt   time.Time `json:"created_at"`
}

type RecentRedemptionsResponse struct {
	Rows []RedemptionRow `json:"rows"`
}
