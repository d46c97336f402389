package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"aura/gateway/auth"
	"aura/observability/logging"
)

type contextKey string

const (
	// ContextKeyCaller holds the authenticated *auth.Caller.
	ContextKeyCaller contextKey = "gateway.caller"
	// ContextKeyBody holds the parsed request body (map[string]any). Handlers
	// must use it instead of re-reading the body so they act on exactly the
	// structure that was signature-checked.
	ContextKeyBody contextKey = "gateway.body"
)

// CallerFromContext returns the authenticated caller, or nil.
func CallerFromContext(ctx context.Context) *auth.Caller {
	caller, _ := ctx.Value(ContextKeyCaller).(*auth.Caller)
	return caller
}

// BodyFromContext returns the verified, parsed request body, or nil.
func BodyFromContext(ctx context.Context) map[string]any {
	body, _ := ctx.Value(ContextKeyBody).(map[string]any)
	return body
}

// Authenticator wraps signature verification as HTTP middleware.
type Authenticator struct {
	verifier *auth.Verifier
	logger   *slog.Logger
}

// NewAuthenticator builds the middleware around a Verifier.
func NewAuthenticator(verifier *auth.Verifier, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{verifier: verifier, logger: logger}
}

// Middleware verifies the request signature and attaches the caller and the
// parsed body to the request context.
func (a *Authenticator) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, auth.MaxBodyBytes))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					WriteError(w, r, http.StatusRequestEntityTooLarge, ReasonBadRequest, "request body too large")
					return
				}
				WriteError(w, r, http.StatusBadRequest, ReasonBadRequest, "failed to read request body")
				return
			}
			caller, parsed, err := a.verifier.Verify(r, body)
			if err != nil {
				a.logger.InfoContext(r.Context(), "auth_rejected",
					slog.String("error", err.Error()),
					slog.String("agent_did", r.Header.Get(auth.HeaderAgentID)),
					logging.MaskField("signature", r.Header.Get(auth.HeaderSignature)),
				)
				code := ReasonAuthBadSig
				switch {
				case errors.Is(err, auth.ErrMissingHeader):
					code = ReasonAuthMissing
				case errors.Is(err, auth.ErrMalformedID):
					code = ReasonAuthMalformed
				case errors.Is(err, auth.ErrStaleTimestamp):
					code = ReasonAuthExpired
				}
				WriteError(w, r, http.StatusUnauthorized, code, "authentication failed")
				return
			}
			ctx := context.WithValue(r.Context(), ContextKeyCaller, caller)
			if parsed != nil {
				ctx = context.WithValue(ctx, ContextKeyBody, parsed)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
