package models

import "time"

// SettingKey names an entry of the fixed settings namespace.
type SettingKey string

const (
	SettingChannels    SettingKey = "force_join_channels"
	SettingRedeemRules SettingKey = "redeem_rules"
)

// Setting is a raw, versioned settings document.
type Setting struct {
	Key       SettingKey
	Value     []byte
	Version   int64
	UpdatedAt time.Time
}

// CostTable maps each coupon class to its point cost.
type CostTable map[CouponClass]int
