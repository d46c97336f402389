package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"aura/gateway/middleware"
	negotiationv1 "aura/proto/negotiation/v1"
)

type dealStatusResponse struct {
	Status              string         `json:"status"`
	Secret              map[string]any `json:"secret,omitempty"`
	Proof               map[string]any `json:"proof,omitempty"`
	PaymentInstructions map[string]any `json:"payment_instructions,omitempty"`
}

func (h *handlers) dealStatus(w http.ResponseWriter, r *http.Request) {
	dealID := chi.URLParam(r, "dealID")
	if _, err := uuid.Parse(dealID); err != nil {
		middleware.WriteError(w, r, http.StatusBadRequest, middleware.ReasonBadRequest, "deal id must be a UUID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), dealStatusTimeout)
	defer cancel()
	resp, err := h.engine.CheckDealStatus(ctx, &negotiationv1.CheckDealStatusRequest{DealID: dealID})
	if err != nil {
		h.writeRPCError(w, r, err)
		return
	}

	out := dealStatusResponse{Status: resp.Status}
	if resp.Secret != nil {
		out.Secret = map[string]any{
			"reservation_code": resp.Secret.ReservationCode,
			"item_name":        resp.Secret.ItemName,
			"final_price":      resp.Secret.FinalPrice,
			"paid_at":          resp.Secret.PaidAt,
		}
	}
	if resp.Proof != nil {
		out.Proof = map[string]any{
			"transaction_hash": resp.Proof.TransactionHash,
			"block_number":     resp.Proof.BlockNumber,
			"from_address":     resp.Proof.FromAddress,
			"confirmed_at":     resp.Proof.ConfirmedAt,
		}
	}
	out.PaymentInstructions = paymentInstructionsJSON(resp.PaymentInstructions)
	writeJSON(w, http.StatusOK, out)
}
