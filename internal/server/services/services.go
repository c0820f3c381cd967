// Package services contains server-side business logic: coupon allocation,
// device binding, referral awards, settings, account lifecycle and the admin
// wizard. Services take the database handle and a RepositoryManager and run
// multi-statement work inside dbx transactions.
package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/couponkeeper/internal/common"
	"github.com/dmitrijs2005/couponkeeper/internal/logging"
)

// Notifier queues best-effort messages. Implementations must not block.
type Notifier interface {
	Notify(chatID int64, text string) bool
	NotifyAll(chatIDs []int64, text string)
}

// MembershipChecker asks the messaging platform whether a user has joined a
// channel.
type MembershipChecker interface {
	IsMember(ctx context.Context, chat string, userID int64) (bool, error)
}

// MembershipStatus is the result of checking every configured channel.
type MembershipStatus struct {
	Channels []string
	Missing  []string
}

func (m MembershipStatus) AllJoined() bool { return len(m.Missing) == 0 }

// ChannelGate checks an account against the force-join channel list.
type ChannelGate struct {
	checker  MembershipChecker
	settings *SettingsService
	logger   logging.Logger
}

func NewChannelGate(c MembershipChecker, s *SettingsService, l logging.Logger) *ChannelGate {
	return &ChannelGate{checker: c, settings: s, logger: l.With("module", "channel_gate")}
}

// Check reads the channel list fresh and asks about each non-blank entry. A
// failed lookup counts as not joined.
func (g *ChannelGate) Check(ctx context.Context, accountID int64) (MembershipStatus, error) {
	channels, err := g.settings.Channels(ctx)
	if err != nil {
		return MembershipStatus{}, err
	}

	st := MembershipStatus{Channels: channels}
	for _, ch := range channels {
		if ch == "" {
			continue
		}
		ok, err := g.checker.IsMember(ctx, ch, accountID)
		if err != nil {
			g.logger.Warn(ctx, "membership lookup failed", "channel", ch, "account_id", accountID, "error", err)
		}
		if err != nil || !ok {
			st.Missing = append(st.Missing, ch)
		}
	}
	return st, nil
}

// storeErr leaves business outcomes untouched and marks everything else as
// a storage failure.
func storeErr(op string, err error) error {
	if err == nil || common.IsBusiness(err) || errors.Is(err, common.ErrStoreUnavailable) {
		return err
	}
	return common.StoreError(op, err)
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return common.Kind(err)
}
