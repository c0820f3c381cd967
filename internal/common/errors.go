// Package common defines shared constants and sentinel errors used across
// the service layers. Callers should use errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Business outcomes. These are shown to the end user and never logged
	// as errors.
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidToken        = errors.New("invalid or expired token")
	ErrNotVerified         = errors.New("please verify first")
	ErrInsufficientPoints  = errors.New("not enough points")
	ErrOutOfStock          = errors.New("out of stock")
	ErrDeviceAlreadyBound  = errors.New("this device is already verified with another account")
	ErrAccountAlreadyBound = errors.New("this account is already verified on a different device")
	ErrNotMember           = errors.New("join all channels first")
	ErrForbidden           = errors.New("not allowed")

	// Infrastructure failure. Callers may retry.
	ErrStoreUnavailable = errors.New("store unavailable")

	// Auth errors (invalid or malformed access token).
	ErrorUnauthorized = errors.New("unauthorized")
	ErrTokenExpired   = errors.New("token expired")
)

// InsufficientPointsError carries the balance details of a rejected
// redemption. It matches ErrInsufficientPoints.
type InsufficientPointsError struct {
	Required int
	Have     int
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("not enough points: required %d, have %d", e.Required, e.Have)
}

func (e *InsufficientPointsError) Is(target error) bool {
	return target == ErrInsufficientPoints
}

// NotMemberError lists the channels the account has not joined yet. It
// matches ErrNotMember.
type NotMemberError struct {
	Missing []string
}

func (e *NotMemberError) Error() string {
	return fmt.Sprintf("join all channels first: missing %v", e.Missing)
}

func (e *NotMemberError) Is(target error) bool {
	return target == ErrNotMember
}

// BindConflictError reports a device bind refused because the device or
// the account is already paired elsewhere. AccountID is the account the
// verify token resolved to. It unwraps to ErrDeviceAlreadyBound or
// ErrAccountAlreadyBound.
type BindConflictError struct {
	AccountID int64
	Err       error
}

func (e *BindConflictError) Error() string { return e.Err.Error() }

func (e *BindConflictError) Unwrap() error { return e.Err }

// StoreError wraps an unexpected storage failure. It matches
// ErrStoreUnavailable and unwraps to the driver error.
func StoreError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, op, err)
}

// Kind names the error taxonomy bucket of err. Unknown errors are reported
// as "StoreUnavailable" so they are treated as retryable infrastructure
// failures at the edges.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInput):
		return "InvalidInput"
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrorNotFound):
		return "NotFound"
	case errors.Is(err, ErrNotVerified):
		return "NotVerified"
	case errors.Is(err, ErrInsufficientPoints):
		return "InsufficientPoints"
	case errors.Is(err, ErrOutOfStock):
		return "OutOfStock"
	case errors.Is(err, ErrDeviceAlreadyBound):
		return "DeviceAlreadyBound"
	case errors.Is(err, ErrAccountAlreadyBound):
		return "AccountAlreadyBound"
	case errors.Is(err, ErrNotMember):
		return "NotMember"
	case errors.Is(err, ErrForbidden):
		return "Forbidden"
	case errors.Is(err, ErrorUnauthorized), errors.Is(err, ErrTokenExpired):
		return "Unauthorized"
	default:
		return "StoreUnavailable"
	}
}

// IsBusiness reports whether err is an expected business outcome rather
// than an infrastructure failure.
func IsBusiness(err error) bool {
	return err != nil && Kind(err) != "StoreUnavailable"
}
