// Package models defines server-side data models persisted in the ledger
// database.
package models

import "time"

// Account is a messaging-platform user known to the service. ID is the
// external user id supplied by the platform.
type Account struct {
	ID              int64
	Username        string
	FirstName       string
	Points          int
	Referrals       int
	Verified        bool
	ReferredBy      *int64
	ReferralAwarded bool
	VerifyToken     *string
	Pending         PendingAction
	CreatedAt       time.Time
	LastSeen        time.Time
}

// DisplayName mirrors how the account is shown to other users: first name,
// then @username, then the raw id.
func (a *Account) DisplayName() string {
	if a.FirstName != "" {
		return a.FirstName
	}
	if a.Username != "" {
		return "@" + a.Username
	}
	return formatID(a.ID)
}

// LeaderboardEntry is one row of the referral leaderboard.
type LeaderboardEntry struct {
	AccountID int64
	Name      string
	Referrals int
	Points    int
}
