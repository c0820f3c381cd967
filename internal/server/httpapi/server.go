// Package httpapi serves the browser side of verification: the verify page
// and the bind endpoint it posts to, plus health and metrics.
package httpapi

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrijs2005/couponkeeper/internal/common"
	"github.com/dmitrijs2005/couponkeeper/internal/logging"
	"github.com/dmitrijs2005/couponkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/couponkeeper/internal/server/services"
)

//go:embed verify.html
var verifyPage []byte

const (
	maxBodyBytes    = 4 << 10
	shutdownTimeout = 5 * time.Second

	msgThrottled   = "Too many attempts. Please wait a moment and try again."
	msgUnavailable = "Service temporarily unavailable. Please try again."
)

// Binder performs the device bind behind POST /api/verify.
type Binder interface {
	BindAndVerify(ctx context.Context, token, deviceID string) (*services.BindResult, error)
}

type verifyRequest struct {
	Token    string `json:"token"`
	DeviceID string `json:"device_id"`
}

// verifyResponse always carries account_id; it is null when the token was
// never resolved to an account.
type verifyResponse struct {
	OK        bool   `json:"ok"`
	Message   string `json:"message"`
	AccountID *int64 `json:"account_id"`
}

type Server struct {
	address        string
	binder         Binder
	limiter        *RateLimiter
	metricsHandler http.Handler
	logger         logging.Logger
}

// NewServer wires the routes. metricsHandler serves GET /metrics; nil
// leaves the route out.
func NewServer(a string, l logging.Logger, b Binder, m *metrics.Metrics, metricsHandler http.Handler,
	perSecond float64, burst int) *Server {
	return &Server{
		address:        a,
		binder:         b,
		limiter:        NewRateLimiter(perSecond, burst, m),
		metricsHandler: metricsHandler,
		logger:         l.With("module", "http_server"),
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("OK"))
	})

	r.Get("/verify", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(verifyPage)
	})

	r.With(s.limiter.Middleware("/api/verify")).Post("/api/verify", s.handleVerify)

	if s.metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", s.metricsHandler)
	}
	return r
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, verifyResponse{Message: verifyMessage(common.ErrInvalidInput)})
		return
	}

	res, err := s.binder.BindAndVerify(r.Context(), req.Token, req.DeviceID)
	if err != nil {
		code := httpStatus(err)
		if code == http.StatusServiceUnavailable {
			s.logger.Error(r.Context(), "verify failed", "error", err)
		}
		resp := verifyResponse{Message: verifyMessage(err)}
		var bce *common.BindConflictError
		if errors.As(err, &bce) {
			resp.AccountID = &bce.AccountID
		}
		writeJSON(w, code, resp)
		return
	}

	writeJSON(w, http.StatusOK, verifyResponse{OK: true, Message: res.Message, AccountID: &res.AccountID})
}

// verifyMessage is the text shown on the page for a failed bind.
func verifyMessage(err error) string {
	var nme *common.NotMemberError
	switch {
	case errors.As(err, &nme) && len(nme.Missing) > 0:
		return "Join all channels first: " + strings.Join(nme.Missing, ", ")
	case errors.Is(err, common.ErrNotMember):
		return "Join all channels first."
	case errors.Is(err, common.ErrInvalidInput):
		return "Missing token/device."
	case errors.Is(err, common.ErrInvalidToken):
		return "Invalid or expired token."
	case errors.Is(err, common.ErrDeviceAlreadyBound):
		return "This device is already verified with another account."
	case errors.Is(err, common.ErrAccountAlreadyBound):
		return "This Telegram ID is already verified on a different device."
	}
	return msgUnavailable
}

func httpStatus(err error) int {
	switch common.Kind(err) {
	case "InvalidInput":
		return http.StatusBadRequest
	case "NotFound":
		return http.StatusNotFound
	case "DeviceAlreadyBound", "AccountAlreadyBound":
		return http.StatusConflict
	case "NotMember":
		return http.StatusForbidden
	}
	return http.StatusServiceUnavailable
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
