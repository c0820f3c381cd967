// Package common contains shared constants and sentinel errors used across
// couponkeeper components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the caller's
// access token.
const AccessTokenHeaderName = "access_token"

// VerifyTokenSize is the number of random bytes behind a verification token.
// Encoded with URL-safe base64 it yields a 32 character token.
const VerifyTokenSize = 24

// ReferralBonusPoints is credited to a referrer once per verified referral.
const ReferralBonusPoints = 1
