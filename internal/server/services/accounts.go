package services

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/couponkeeper/internal/common"
	"github.com/dmitrijs2005/couponkeeper/internal/logging"
	"github.com/dmitrijs2005/couponkeeper/internal/server/config"
	"github.com/dmitrijs2005/couponkeeper/internal/server/models"
	"github.com/dmitrijs2005/couponkeeper/internal/server/repositories/repomanager"
)

// LeaderboardSize is the number of rows shown on the leaderboard.
const LeaderboardSize = 10

// Stats is an account's own summary.
type Stats struct {
	Points       int
	Referrals    int
	Verified     bool
	ReferralLink string
}

// VerifyLink is a fresh verification link plus the membership state at the
// time it was issued.
type VerifyLink struct {
	Token     string
	URL       string
	Channels  []string
	Missing   []string
	AllJoined bool
}

// VerificationStatus is the answer to "check verification".
type VerificationStatus struct {
	AllJoined       bool
	Verified        bool
	ReferralAwarded bool
	Channels        []string
	Missing         []string
	// VerifyURL is set while the account still has a step left.
	VerifyURL string
}

// AccountService covers first contact, stats, leaderboard and the
// verification round trip from the chat side.
type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	gate        *ChannelGate
	referrals   *ReferralService
	notifier    Notifier
	logger      logging.Logger
	botUsername string
	publicBase  string
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, gate *ChannelGate,
	r *ReferralService, n Notifier, l logging.Logger) *AccountService {
	return &AccountService{
		db:          db,
		repomanager: m,
		gate:        gate,
		referrals:   r,
		notifier:    n,
		logger:      l.With("module", "accounts"),
		botUsername: cfg.BotUsername,
		publicBase:  strings.TrimRight(cfg.PublicBaseURL, "/"),
	}
}

// Touch records a contact from the account, refreshing names and last seen.
// referralArg is the start parameter of a referral link; when it is a
// numeric id of another existing account and no referrer is set yet, that
// account becomes the referrer.
func (s *AccountService) Touch(ctx context.Context, id int64, username, firstName, referralArg string) (*models.Account, error) {
	if id <= 0 {
		return nil, common.ErrInvalidInput
	}

	repo := s.repomanager.Accounts(s.db)
	if err := repo.Upsert(ctx, id, strings.TrimSpace(username), strings.TrimSpace(firstName)); err != nil {
		return nil, common.StoreError("upsert account", err)
	}

	if ref, ok := parseReferral(referralArg); ok && ref != id {
		set, err := repo.SetReferredBy(ctx, id, ref)
		if err != nil {
			return nil, common.StoreError("set referrer", err)
		}
		if set {
			s.logger.Info(ctx, "referrer recorded", "account_id", id, "referrer_id", ref)
		}
	}

	acc, err := repo.Get(ctx, id)
	if err != nil {
		return nil, storeErr("load account", err)
	}
	return acc, nil
}

func (s *AccountService) Stats(ctx context.Context, id int64) (*Stats, error) {
	acc, err := s.repomanager.Accounts(s.db).Get(ctx, id)
	if err != nil {
		return nil, storeErr("load account", err)
	}
	return &Stats{
		Points:       acc.Points,
		Referrals:    acc.Referrals,
		Verified:     acc.Verified,
		ReferralLink: s.ReferralLink(id),
	}, nil
}

// ReferralLink is the deep link that opens the bot with id as referrer.
func (s *AccountService) ReferralLink(id int64) string {
	return fmt.Sprintf("https://t.me/%s?start=%d", s.botUsername, id)
}

func (s *AccountService) Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error) {
	rows, err := s.repomanager.Accounts(s.db).Leaderboard(ctx, LeaderboardSize)
	if err != nil {
		return nil, common.StoreError("leaderboard", err)
	}
	return rows, nil
}

// IssueVerifyToken stores a new verification token for the account and
// returns the page link. Earlier tokens of the account stop resolving.
func (s *AccountService) IssueVerifyToken(ctx context.Context, id int64) (*VerifyLink, error) {
	token, err := common.MakeRandToken(common.VerifyTokenSize)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	if err := s.repomanager.Accounts(s.db).SetVerifyToken(ctx, id, token); err != nil {
		return nil, storeErr("store token", err)
	}

	status, err := s.gate.Check(ctx, id)
	if err != nil {
		return nil, err
	}

	return &VerifyLink{
		Token:     token,
		URL:       s.verifyURL(token),
		Channels:  status.Channels,
		Missing:   status.Missing,
		AllJoined: status.AllJoined(),
	}, nil
}

// CheckVerification is pressed after the web step. It re-checks channel
// membership, then the verified flag, and on success awards the referral
// and tells the referrer. While a step is missing a fresh link is returned.
func (s *AccountService) CheckVerification(ctx context.Context, id int64) (*VerificationStatus, error) {
	link, err := s.IssueVerifyToken(ctx, id)
	if err != nil {
		return nil, err
	}

	st := &VerificationStatus{
		AllJoined: link.AllJoined,
		Channels:  link.Channels,
		Missing:   link.Missing,
		VerifyURL: link.URL,
	}
	if !st.AllJoined {
		return st, nil
	}

	acc, err := s.repomanager.Accounts(s.db).Get(ctx, id)
	if err != nil {
		return nil, storeErr("load account", err)
	}
	if !acc.Verified {
		return st, nil
	}
	st.Verified = true
	st.VerifyURL = ""

	referrer, awarded, err := s.referrals.AwardIfEligible(ctx, id)
	if err != nil {
		return nil, err
	}
	if awarded {
		st.ReferralAwarded = true
		s.notifier.Notify(referrer, fmt.Sprintf("✅ Referral Added!\nYou got +%d point because %s verified.",
			common.ReferralBonusPoints, acc.DisplayName()))
	}
	return st, nil
}

func (s *AccountService) verifyURL(token string) string {
	return s.publicBase + "/verify?token=" + url.QueryEscape(token)
}

func parseReferral(arg string) (int64, bool) {
	arg = strings.TrimSpace(arg)
	if arg == "" || strings.TrimLeft(arg, "0123456789") != "" {
		return 0, false
	}
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
