package middleware

import (
	"encoding/json"
	"net/http"

	"aura/internal/requestid"
)

// Stable reason codes returned to callers. Auth failures share the 401
// status and reveal only the code, never which verification step tripped.
const (
	ReasonAuthMissing     = "AUTH_MISSING"
	ReasonAuthMalformed   = "AUTH_MALFORMED"
	ReasonAuthExpired     = "AUTH_EXPIRED"
	ReasonAuthBadSig      = "AUTH_BAD_SIG"
	ReasonRateLimited     = "RATE_LIMITED"
	ReasonBadRequest      = "BAD_REQUEST"
	ReasonNotFound        = "NOT_FOUND"
	ReasonFeatureDisabled = "FEATURE_DISABLED"
	ReasonUpstream        = "UPSTREAM_UNAVAILABLE"
	ReasonInternal        = "INTERNAL"
)

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

// WriteError emits the JSON error envelope with the request's correlation id.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: errorBody{
		Code:      code,
		Message:   message,
		RequestID: requestid.FromContext(r.Context()),
	}})
}
