package routes

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"aura/gateway/auth"
	"aura/gateway/limiter"
	"aura/gateway/middleware"
	negotiationv1 "aura/proto/negotiation/v1"
)

type stubEngine struct {
	negotiateFn func(context.Context, *negotiationv1.NegotiateRequest) (*negotiationv1.NegotiateResponse, error)
	statusFn    func(context.Context, *negotiationv1.CheckDealStatusRequest) (*negotiationv1.CheckDealStatusResponse, error)
	checkErr    error
}

func (s *stubEngine) Negotiate(ctx context.Context, req *negotiationv1.NegotiateRequest) (*negotiationv1.NegotiateResponse, error) {
	if s.negotiateFn == nil {
		return nil, errors.New("unexpected Negotiate")
	}
	return s.negotiateFn(ctx, req)
}

func (s *stubEngine) CheckDealStatus(ctx context.Context, req *negotiationv1.CheckDealStatusRequest) (*negotiationv1.CheckDealStatusResponse, error) {
	if s.statusFn == nil {
		return nil, errors.New("unexpected CheckDealStatus")
	}
	return s.statusFn(ctx, req)
}

func (s *stubEngine) Check(context.Context, *negotiationv1.HealthCheckRequest) (*negotiationv1.HealthCheckResponse, error) {
	if s.checkErr != nil {
		return nil, s.checkErr
	}
	return &negotiationv1.HealthCheckResponse{Status: "SERVING"}, nil
}

type testEdge struct {
	handler http.Handler
	did     string
	priv    ed25519.PrivateKey
	now     time.Time
}

func newTestEdge(t *testing.T, engine EngineClient, rateLimit int64) *testEdge {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	now := time.Unix(1717171717, 0)
	clock := func() time.Time { return now }

	cfg := Config{
		Engine:        engine,
		Authenticator: middleware.NewAuthenticator(auth.NewVerifier(60*time.Second, clock), nil),
	}
	if rateLimit > 0 {
		cfg.Limiter = limiter.New(limiter.NewMemoryStore(clock), rateLimit, time.Minute, nil, clock)
	}
	return &testEdge{
		handler: New(cfg),
		did:     auth.DIDForKey(pub),
		priv:    priv,
		now:     now,
	}
}

func (e *testEdge) do(t *testing.T, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	ts := strconv.FormatInt(e.now.Unix(), 10)
	sig, err := auth.Sign(e.priv, method, path, ts, body)
	require.NoError(t, err)

	r := httptest.NewRequest(method, path, bytes.NewReader(body))
	r.Header.Set(auth.HeaderAgentID, e.did)
	r.Header.Set(auth.HeaderTimestamp, ts)
	r.Header.Set(auth.HeaderSignature, sig)
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, r)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestNegotiateAccepted(t *testing.T) {
	engine := &stubEngine{
		negotiateFn: func(_ context.Context, req *negotiationv1.NegotiateRequest) (*negotiationv1.NegotiateResponse, error) {
			require.Equal(t, "room-101", req.ItemID)
			require.Equal(t, 160.0, req.BidAmount)
			require.Equal(t, "USD", req.CurrencyCode)
			require.NotEmpty(t, req.Agent.DID)
			return &negotiationv1.NegotiateResponse{
				SessionToken:        "sess_req_abc",
				ValidUntilTimestamp: 1717172317,
				Result: &negotiationv1.ResultAccepted{Accepted: &negotiationv1.OfferAccepted{
					FinalPrice: 160,
					Reveal:     &negotiationv1.RevealReservationCode{ReservationCode: "RES-AbCdEfGhIjKl"},
				}},
			}, nil
		},
	}
	edge := newTestEdge(t, engine, 0)

	w := edge.do(t, "POST", "/v1/negotiate", []byte(`{"item_id":"room-101","bid_amount":160,"currency_code":"USD"}`))
	require.Equal(t, http.StatusOK, w.Code)

	out := decodeBody(t, w)
	require.Equal(t, "accepted", out["status"])
	require.Equal(t, false, out["payment_required"])
	data := out["data"].(map[string]any)
	require.Equal(t, 160.0, data["final_price"])
	require.Equal(t, "RES-AbCdEfGhIjKl", data["reservation_code"])
}

func TestNegotiateAcceptedWithPaymentLock(t *testing.T) {
	engine := &stubEngine{
		negotiateFn: func(context.Context, *negotiationv1.NegotiateRequest) (*negotiationv1.NegotiateResponse, error) {
			return &negotiationv1.NegotiateResponse{
				SessionToken: "sess_req_abc",
				Result: &negotiationv1.ResultAccepted{Accepted: &negotiationv1.OfferAccepted{
					FinalPrice: 160,
					Reveal: &negotiationv1.RevealCryptoPayment{CryptoPayment: &negotiationv1.CryptoPaymentInstructions{
						DealID:        "8b7a6c5d-1234-4abc-9def-001122334455",
						WalletAddress: "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin",
						Amount:        1.6,
						Currency:      "SOL",
						Memo:          "Zm9vYmFy",
						Network:       "devnet",
						ExpiresAt:     1717175317,
					}},
				}},
			}, nil
		},
	}
	edge := newTestEdge(t, engine, 0)

	w := edge.do(t, "POST", "/v1/negotiate", []byte(`{"item_id":"room-101","bid_amount":160}`))
	require.Equal(t, http.StatusOK, w.Code)

	out := decodeBody(t, w)
	require.Equal(t, true, out["payment_required"])
	instructions := out["data"].(map[string]any)["payment_instructions"].(map[string]any)
	require.Equal(t, 1.6, instructions["amount"])
	require.Equal(t, "SOL", instructions["currency"])
	require.Equal(t, "Zm9vYmFy", instructions["memo"])
}

func TestNegotiateCounteredAndUIRequired(t *testing.T) {
	engine := &stubEngine{
		negotiateFn: func(_ context.Context, req *negotiationv1.NegotiateRequest) (*negotiationv1.NegotiateResponse, error) {
			if req.BidAmount < 150 {
				return &negotiationv1.NegotiateResponse{
					Result: &negotiationv1.ResultCountered{Countered: &negotiationv1.OfferCountered{
						ProposedPrice: 150, ReasonCode: "BELOW_FLOOR", HumanMessage: "We can do 150.",
					}},
				}, nil
			}
			return &negotiationv1.NegotiateResponse{
				Result: &negotiationv1.ResultUIRequired{UIRequired: &negotiationv1.UIRequired{
					TemplateID:  "high_value_confirm",
					ContextData: map[string]string{"item_name": "Suite", "price": "1200"},
				}},
			}, nil
		},
	}
	edge := newTestEdge(t, engine, 0)

	w := edge.do(t, "POST", "/v1/negotiate", []byte(`{"item_id":"room-101","bid_amount":100}`))
	out := decodeBody(t, w)
	require.Equal(t, "countered", out["status"])
	require.Equal(t, 150.0, out["data"].(map[string]any)["proposed_price"])

	w = edge.do(t, "POST", "/v1/negotiate", []byte(`{"item_id":"room-101","bid_amount":1200}`))
	out = decodeBody(t, w)
	require.Equal(t, "ui_required", out["status"])
	action := out["action_required"].(map[string]any)
	require.Equal(t, "high_value_confirm", action["template_id"])
}

func TestNegotiateValidation(t *testing.T) {
	edge := newTestEdge(t, &stubEngine{}, 0)

	for _, body := range []string{
		`{"bid_amount":100}`,
		`{"item_id":"room-101"}`,
		`{"item_id":"room-101","bid_amount":-5}`,
		`{"item_id":"room-101","bid_amount":"many"}`,
	} {
		w := edge.do(t, "POST", "/v1/negotiate", []byte(body))
		require.Equal(t, http.StatusBadRequest, w.Code, "body %s", body)
	}
}

func TestNegotiateRequiresSignature(t *testing.T) {
	edge := newTestEdge(t, &stubEngine{}, 0)

	r := httptest.NewRequest("POST", "/v1/negotiate", bytes.NewReader([]byte(`{"item_id":"x","bid_amount":1}`)))
	w := httptest.NewRecorder()
	edge.handler.ServeHTTP(w, r)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	out := decodeBody(t, w)
	require.Equal(t, "AUTH_MISSING", out["error"].(map[string]any)["code"])
}

func TestNegotiateRateLimited(t *testing.T) {
	engine := &stubEngine{
		negotiateFn: func(context.Context, *negotiationv1.NegotiateRequest) (*negotiationv1.NegotiateResponse, error) {
			return &negotiationv1.NegotiateResponse{
				Result: &negotiationv1.ResultRejected{Rejected: &negotiationv1.OfferRejected{ReasonCode: "ITEM_NOT_FOUND"}},
			}, nil
		},
	}
	edge := newTestEdge(t, engine, 2)

	body := []byte(`{"item_id":"room-101","bid_amount":100}`)
	require.Equal(t, http.StatusOK, edge.do(t, "POST", "/v1/negotiate", body).Code)
	require.Equal(t, http.StatusOK, edge.do(t, "POST", "/v1/negotiate", body).Code)

	w := edge.do(t, "POST", "/v1/negotiate", body)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestEngineCallsCarryDeadlines(t *testing.T) {
	var negotiateDeadline, statusDeadline time.Duration
	engine := &stubEngine{
		negotiateFn: func(ctx context.Context, _ *negotiationv1.NegotiateRequest) (*negotiationv1.NegotiateResponse, error) {
			deadline, ok := ctx.Deadline()
			require.True(t, ok, "negotiate context must carry a deadline")
			negotiateDeadline = time.Until(deadline)
			return &negotiationv1.NegotiateResponse{
				Result: &negotiationv1.ResultRejected{Rejected: &negotiationv1.OfferRejected{ReasonCode: "ITEM_NOT_FOUND"}},
			}, nil
		},
		statusFn: func(ctx context.Context, _ *negotiationv1.CheckDealStatusRequest) (*negotiationv1.CheckDealStatusResponse, error) {
			deadline, ok := ctx.Deadline()
			require.True(t, ok, "status context must carry a deadline")
			statusDeadline = time.Until(deadline)
			return &negotiationv1.CheckDealStatusResponse{Status: "PENDING"}, nil
		},
	}
	edge := newTestEdge(t, engine, 0)

	w := edge.do(t, "POST", "/v1/negotiate", []byte(`{"item_id":"room-101","bid_amount":160}`))
	require.Equal(t, http.StatusOK, w.Code)
	require.Greater(t, negotiateDeadline, time.Duration(0))
	require.LessOrEqual(t, negotiateDeadline, negotiateTimeout)

	w = edge.do(t, "POST", "/v1/deals/8b7a6c5d-1234-4abc-9def-001122334455/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Greater(t, statusDeadline, time.Duration(0))
	require.LessOrEqual(t, statusDeadline, dealStatusTimeout)
}

func TestDealStatusValidation(t *testing.T) {
	edge := newTestEdge(t, &stubEngine{}, 0)
	w := edge.do(t, "POST", "/v1/deals/not-a-uuid/status", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDealStatusCodeMapping(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"not_found", status.Error(codes.NotFound, "deal not found"), http.StatusNotFound},
		{"disabled", status.Error(codes.Unimplemented, "crypto disabled"), http.StatusNotImplemented},
		{"unavailable", status.Error(codes.Unavailable, "store down"), http.StatusBadGateway},
		{"internal", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine := &stubEngine{
				statusFn: func(context.Context, *negotiationv1.CheckDealStatusRequest) (*negotiationv1.CheckDealStatusResponse, error) {
					return nil, tc.err
				},
			}
			edge := newTestEdge(t, engine, 0)
			w := edge.do(t, "POST", "/v1/deals/8b7a6c5d-1234-4abc-9def-001122334455/status", nil)
			require.Equal(t, tc.wantCode, w.Code)
		})
	}
}

func TestDealStatusPaid(t *testing.T) {
	engine := &stubEngine{
		statusFn: func(_ context.Context, req *negotiationv1.CheckDealStatusRequest) (*negotiationv1.CheckDealStatusResponse, error) {
			require.Equal(t, "8b7a6c5d-1234-4abc-9def-001122334455", req.DealID)
			return &negotiationv1.CheckDealStatusResponse{
				Status: "PAID",
				Secret: &negotiationv1.DealSecret{ReservationCode: "RES-AbCdEfGhIjKl", ItemName: "Standard Room", FinalPrice: 160, PaidAt: 1717171800},
				Proof:  &negotiationv1.PaymentProof{TransactionHash: "5sig", FromAddress: "4Nd1", ConfirmedAt: 1717171790},
			}, nil
		},
	}
	edge := newTestEdge(t, engine, 0)

	w := edge.do(t, "POST", "/v1/deals/8b7a6c5d-1234-4abc-9def-001122334455/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	out := decodeBody(t, w)
	require.Equal(t, "PAID", out["status"])
	require.Equal(t, "RES-AbCdEfGhIjKl", out["secret"].(map[string]any)["reservation_code"])
	require.Equal(t, "5sig", out["proof"].(map[string]any)["transaction_hash"])
}

func TestHealthEndpoints(t *testing.T) {
	edge := newTestEdge(t, &stubEngine{}, 0)

	r := httptest.NewRequest("GET", "/healthz", nil)
	w := httptest.NewRecorder()
	edge.handler.ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code)

	r = httptest.NewRequest("GET", "/readyz", nil)
	w = httptest.NewRecorder()
	edge.handler.ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ok", decodeBody(t, w)["dependencies"].(map[string]any)["engine"])

	degraded := newTestEdge(t, &stubEngine{checkErr: errors.New("dial refused")}, 0)
	r = httptest.NewRequest("GET", "/readyz", nil)
	w = httptest.NewRecorder()
	degraded.handler.ServeHTTP(w, r)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}
