package routes

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"aura/gateway/middleware"
	"aura/internal/requestid"
	negotiationv1 "aura/proto/negotiation/v1"
)

// Deadlines on the engine RPCs so a stalled engine never wedges edge
// handlers; server write timeouts do not cancel the handler context.
const (
	negotiateTimeout  = 30 * time.Second
	dealStatusTimeout = 10 * time.Second
)

type negotiateResponse struct {
	SessionToken    string         `json:"session_token"`
	Status          string         `json:"status"`
	ValidUntil      int64          `json:"valid_until"`
	PaymentRequired bool           `json:"payment_required"`
	Data            map[string]any `json:"data,omitempty"`
	ActionRequired  map[string]any `json:"action_required,omitempty"`
}

func (h *handlers) negotiate(w http.ResponseWriter, r *http.Request) {
	caller := middleware.CallerFromContext(r.Context())
	body := middleware.BodyFromContext(r.Context())
	if caller == nil || body == nil {
		middleware.WriteError(w, r, http.StatusBadRequest, middleware.ReasonBadRequest, "missing request body")
		return
	}

	itemID, _ := body["item_id"].(string)
	if strings.TrimSpace(itemID) == "" {
		middleware.WriteError(w, r, http.StatusBadRequest, middleware.ReasonBadRequest, "item_id is required")
		return
	}
	bid, ok := numberField(body, "bid_amount")
	if !ok || bid <= 0 {
		middleware.WriteError(w, r, http.StatusBadRequest, middleware.ReasonBadRequest, "bid_amount must be a positive number")
		return
	}
	currency, _ := body["currency_code"].(string)
	if currency == "" {
		currency = "USD"
	}

	req := &negotiationv1.NegotiateRequest{
		RequestID:    requestid.FromContext(r.Context()),
		ItemID:       itemID,
		BidAmount:    bid,
		CurrencyCode: currency,
		Agent:        &negotiationv1.AgentIdentity{DID: caller.DID},
	}
	ctx, cancel := context.WithTimeout(r.Context(), negotiateTimeout)
	defer cancel()
	resp, err := h.engine.Negotiate(ctx, req)
	if err != nil {
		h.writeRPCError(w, r, err)
		return
	}

	out := negotiateResponse{
		SessionToken: resp.SessionToken,
		ValidUntil:   resp.ValidUntilTimestamp,
	}
	switch result := resp.Result.(type) {
	case *negotiationv1.ResultAccepted:
		out.Status = "accepted"
		out.Data = map[string]any{"final_price": result.Accepted.FinalPrice}
		switch reveal := result.Accepted.Reveal.(type) {
		case *negotiationv1.RevealReservationCode:
			out.Data["reservation_code"] = reveal.ReservationCode
		case *negotiationv1.RevealCryptoPayment:
			out.PaymentRequired = true
			out.Data["payment_instructions"] = paymentInstructionsJSON(reveal.CryptoPayment)
		}
	case *negotiationv1.ResultCountered:
		out.Status = "countered"
		out.Data = map[string]any{
			"proposed_price": result.Countered.ProposedPrice,
			"reason_code":    result.Countered.ReasonCode,
			"message":        result.Countered.HumanMessage,
		}
	case *negotiationv1.ResultRejected:
		out.Status = "rejected"
		out.Data = map[string]any{"reason_code": result.Rejected.ReasonCode}
	case *negotiationv1.ResultUIRequired:
		out.Status = "ui_required"
		out.ActionRequired = map[string]any{
			"template_id": result.UIRequired.TemplateID,
			"context":     result.UIRequired.ContextData,
		}
	default:
		middleware.WriteError(w, r, http.StatusInternalServerError, middleware.ReasonInternal, "engine returned no result")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func paymentInstructionsJSON(p *negotiationv1.CryptoPaymentInstructions) map[string]any {
	if p == nil {
		return nil
	}
	return map[string]any{
		"deal_id":        p.DealID,
		"wallet_address": p.WalletAddress,
		"amount":         p.Amount,
		"currency":       p.Currency,
		"memo":           p.Memo,
		"network":        p.Network,
		"expires_at":     p.ExpiresAt,
	}
}

// numberField reads a numeric body field that arrives as json.Number.
func numberField(body map[string]any, key string) (float64, bool) {
	switch v := body[key].(type) {
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case float64:
		return v, true
	default:
		return 0, false
	}
}

// writeRPCError maps engine status codes onto the HTTP surface.
func (h *handlers) writeRPCError(w http.ResponseWriter, r *http.Request, err error) {
	st, _ := status.FromError(err)
	h.logger.ErrorContext(r.Context(), "engine_rpc_failed",
		slog.String("request_id", requestid.FromContext(r.Context())),
		slog.String("code", st.Code().String()),
		slog.String("error", st.Message()),
	)
	switch st.Code() {
	case codes.InvalidArgument:
		middleware.WriteError(w, r, http.StatusBadRequest, middleware.ReasonBadRequest, st.Message())
	case codes.NotFound:
		middleware.WriteError(w, r, http.StatusNotFound, middleware.ReasonNotFound, st.Message())
	case codes.Unimplemented:
		middleware.WriteError(w, r, http.StatusNotImplemented, middleware.ReasonFeatureDisabled, st.Message())
	case codes.Unavailable:
		middleware.WriteError(w, r, http.StatusBadGateway, middleware.ReasonUpstream, st.Message())
	default:
		middleware.WriteError(w, r, http.StatusInternalServerError, middleware.ReasonInternal, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
