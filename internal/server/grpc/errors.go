package grpc

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/couponkeeper/internal/common"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// errorDomain tags ErrorInfo details produced by this service.
const errorDomain = "loyalty"

var kindCodes = map[string]codes.Code{
	"InvalidInput":        codes.InvalidArgument,
	"NotFound":            codes.NotFound,
	"NotVerified":         codes.FailedPrecondition,
	"InsufficientPoints":  codes.FailedPrecondition,
	"OutOfStock":          codes.ResourceExhausted,
	"DeviceAlreadyBound":  codes.AlreadyExists,
	"AccountAlreadyBound": codes.AlreadyExists,
	"NotMember":           codes.FailedPrecondition,
	"Forbidden":           codes.PermissionDenied,
	"Unauthorized":        codes.Unauthenticated,
	"StoreUnavailable":    codes.Unavailable,
}

// toStatus converts a service error to a gRPC status. Business outcomes
// keep their user-facing message; infrastructure failures are reported as
// Unavailable without internals. The error kind travels as ErrorInfo.Reason.
func (s *GRPCServer) toStatus(ctx context.Context, method string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return status.Error(codes.Canceled, err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return status.Error(codes.DeadlineExceeded, err.Error())
	}

	kind := common.Kind(err)
	msg := err.Error()
	if !common.IsBusiness(err) {
		s.logger.Error(ctx, "request failed", "method", method, "error", err)
		msg = common.ErrStoreUnavailable.Error()
	}

	info := &errdetails.ErrorInfo{Reason: kind, Domain: errorDomain}

	var ipe *common.InsufficientPointsError
	var nme *common.NotMemberError
	switch {
	case errors.As(err, &ipe):
		msg = common.ErrInsufficientPoints.Error()
		info.Metadata = map[string]string{"required": strconv.Itoa(ipe.Required), "have": strconv.Itoa(ipe.Have)}
	case errors.As(err, &nme):
		msg = common.ErrNotMember.Error()
		info.Metadata = map[string]string{"missing": strings.Join(nme.Missing, ",")}
	}

	st := status.New(kindCodes[kind], msg)
	if withInfo, derr := st.WithDetails(info); derr == nil {
		st = withInfo
	}
	return st.Err()
}

// ErrorKind returns the error kind a call failed with, or "" when err
// carries none.
func ErrorKind(err error) string {
	st, ok := status.FromError(err)
	if !ok {
		return ""
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok && info.Domain == errorDomain {
			return info.Reason
		}
	}
	return ""
}
