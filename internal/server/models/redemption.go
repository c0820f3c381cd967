package models

import "time"

// Redemption is an append-only record of a successful coupon allocation.
type Redemption struct {
	ID          int64
	AccountID   int64
	Class       CouponClass
	Code        string
	PointsSpent int
	RequestID   *string
	CreatedAt   time.Time
}

// RedemptionView is a redemption joined with the redeemer's display name,
// used by the operator log.
type RedemptionView struct {
	Redemption
	Name string
}
