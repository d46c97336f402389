// Package server exposes the negotiation engine over its internal gRPC
// surface and converts domain outcomes into stable reason codes.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"aura/core/market"
	"aura/core/storage"
	"aura/core/strategy"
	"aura/internal/requestid"
	negotiationv1 "aura/proto/negotiation/v1"
)

const sessionTTL = 600 * time.Second

// Config wires the Service.
type Config struct {
	Store         *storage.Store
	Market        *market.Market
	Strategy      strategy.PricingStrategy
	CryptoEnabled bool
	Logger        *slog.Logger
	NowFn         func() time.Time
	Registry      *prometheus.Registry
}

// Service implements negotiationv1.NegotiationServiceServer.
type Service struct {
	store         *storage.Store
	market        *market.Market
	strategy      strategy.PricingStrategy
	cryptoEnabled bool
	logger        *slog.Logger
	nowFn         func() time.Time
	outcomes      *prometheus.CounterVec
}

// New builds the Service. Market may be nil only when crypto is disabled.
func New(cfg Config) (*Service, error) {
	if cfg.Store == nil || cfg.Strategy == nil {
		return nil, errors.New("service requires store and strategy")
	}
	if cfg.CryptoEnabled && cfg.Market == nil {
		return nil, errors.New("crypto enabled without a market")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.NowFn == nil {
		cfg.NowFn = time.Now
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "engine",
		Name:      "negotiation_outcomes_total",
		Help:      "Negotiation turns by outcome.",
	}, []string{"outcome"})
	if cfg.Registry != nil {
		cfg.Registry.MustRegister(outcomes)
	}
	return &Service{
		store:         cfg.Store,
		market:        cfg.Market,
		strategy:      cfg.Strategy,
		cryptoEnabled: cfg.CryptoEnabled,
		logger:        cfg.Logger,
		nowFn:         cfg.NowFn,
		outcomes:      outcomes,
	}, nil
}

// Negotiate handles one negotiation turn.
func (s *Service) Negotiate(ctx context.Context, req *negotiationv1.NegotiateRequest) (*negotiationv1.NegotiateResponse, error) {
	reqID := req.RequestID
	if reqID == "" {
		reqID = requestid.FromIncoming(ctx)
	}
	if req.ItemID == "" || req.BidAmount <= 0 {
		return nil, status.Error(codes.InvalidArgument, "BAD_REQUEST")
	}
	if req.CurrencyCode != "" && req.CurrencyCode != "USD" {
		return nil, status.Error(codes.InvalidArgument, "UNSUPPORTED_CURRENCY")
	}
	buyerDID := ""
	reputation := 0.0
	if req.Agent != nil {
		buyerDID = req.Agent.DID
		reputation = req.Agent.ReputationScore
	}

	s.logger.InfoContext(ctx, "negotiation_started",
		slog.String("request_id", reqID),
		slog.String("item_id", req.ItemID),
		slog.String("agent_did", buyerDID),
	)

	item, err := s.store.GetItem(ctx, req.ItemID)
	if err != nil {
		s.logger.ErrorContext(ctx, "catalog_load_failed",
			slog.String("request_id", reqID),
			slog.String("error", err.Error()),
		)
		return nil, status.Error(codes.Unavailable, "STORE_UNAVAILABLE")
	}

	now := s.nowFn().UTC()
	resp := &negotiationv1.NegotiateResponse{
		SessionToken:        "sess_" + reqID,
		ValidUntilTimestamp: now.Add(sessionTTL).Unix(),
	}

	if item == nil || !item.Active {
		s.outcomes.WithLabelValues("rejected").Inc()
		resp.Result = &negotiationv1.ResultRejected{Rejected: &negotiationv1.OfferRejected{ReasonCode: "ITEM_NOT_FOUND"}}
		return resp, nil
	}

	decision, err := s.strategy.Evaluate(ctx, strategy.Item{
		ID:         item.ID,
		Name:       item.Name,
		BasePrice:  item.BasePrice,
		FloorPrice: item.FloorPrice,
	}, req.BidAmount, reputation, reqID)
	if err != nil {
		s.outcomes.WithLabelValues("error").Inc()
		return nil, status.Error(codes.Unavailable, "STRATEGY_UNAVAILABLE")
	}

	switch d := decision.(type) {
	case strategy.Accepted:
		accepted := &negotiationv1.OfferAccepted{FinalPrice: d.FinalPrice}
		if s.cryptoEnabled {
			_, instructions, err := s.market.Lock(ctx, item, d.FinalPrice, buyerDID)
			if err != nil {
				s.logger.ErrorContext(ctx, "payment_lock_failed",
					slog.String("request_id", reqID),
					slog.String("item_id", item.ID),
					slog.String("error", err.Error()),
				)
				return nil, status.Error(codes.Unavailable, "STORE_UNAVAILABLE")
			}
			accepted.Reveal = &negotiationv1.RevealCryptoPayment{CryptoPayment: &negotiationv1.CryptoPaymentInstructions{
				DealID:        instructions.DealID.String(),
				WalletAddress: instructions.WalletAddress,
				Amount:        instructions.Amount,
				Currency:      instructions.Currency,
				Memo:          instructions.Memo,
				Network:       instructions.Network,
				ExpiresAt:     instructions.ExpiresAt.Unix(),
			}}
		} else {
			code, err := market.NewReservationCode()
			if err != nil {
				return nil, status.Error(codes.Internal, "INTERNAL")
			}
			accepted.Reveal = &negotiationv1.RevealReservationCode{ReservationCode: code}
		}
		s.outcomes.WithLabelValues("accepted").Inc()
		s.logger.InfoContext(ctx, "offer_accepted",
			slog.String("request_id", reqID),
			slog.String("item_id", item.ID),
			slog.String("agent_did", buyerDID),
		)
		resp.Result = &negotiationv1.ResultAccepted{Accepted: accepted}
	case strategy.Countered:
		s.outcomes.WithLabelValues("countered").Inc()
		resp.Result = &negotiationv1.ResultCountered{Countered: &negotiationv1.OfferCountered{
			ProposedPrice: d.ProposedPrice,
			ReasonCode:    d.ReasonCode,
			HumanMessage:  d.Message,
		}}
	case strategy.Rejected:
		s.outcomes.WithLabelValues("rejected").Inc()
		resp.Result = &negotiationv1.ResultRejected{Rejected: &negotiationv1.OfferRejected{ReasonCode: d.ReasonCode}}
	case strategy.UIRequired:
		s.outcomes.WithLabelValues("ui_required").Inc()
		resp.Result = &negotiationv1.ResultUIRequired{UIRequired: &negotiationv1.UIRequired{
			TemplateID:  d.TemplateID,
			ContextData: d.Context,
		}}
	default:
		return nil, status.Error(codes.Internal, "INTERNAL")
	}
	return resp, nil
}

// CheckDealStatus reports a deal's settlement state.
func (s *Service) CheckDealStatus(ctx context.Context, req *negotiationv1.CheckDealStatusRequest) (*negotiationv1.CheckDealStatusResponse, error) {
	if !s.cryptoEnabled {
		return nil, status.Error(codes.Unimplemented, "FEATURE_DISABLED")
	}
	dealID, err := uuid.Parse(req.DealID)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "BAD_REQUEST")
	}

	view, err := s.market.Check(ctx, dealID)
	if err != nil {
		if errors.Is(err, market.ErrDealNotFound) {
			return nil, status.Error(codes.NotFound, "NOT_FOUND")
		}
		s.logger.ErrorContext(ctx, "deal_check_failed",
			slog.String("deal_id", req.DealID),
			slog.String("error", err.Error()),
		)
		return nil, status.Error(codes.Unavailable, "STORE_UNAVAILABLE")
	}

	resp := &negotiationv1.CheckDealStatusResponse{Status: string(view.Status)}
	if view.Secret != nil {
		resp.Secret = &negotiationv1.DealSecret{
			ReservationCode: view.Secret.ReservationCode,
			ItemName:        view.Secret.ItemName,
			FinalPrice:      view.Secret.FinalPrice,
			PaidAt:          view.Secret.PaidAt.Unix(),
		}
	}
	if view.Proof != nil {
		resp.Proof = &negotiationv1.PaymentProof{
			TransactionHash: view.Proof.TransactionHash,
			BlockNumber:     view.Proof.BlockNumber,
			FromAddress:     view.Proof.FromAddress,
			ConfirmedAt:     view.Proof.ConfirmedAt.Unix(),
		}
	}
	if view.Instructions != nil {
		resp.PaymentInstructions = &negotiationv1.CryptoPaymentInstructions{
			DealID:        view.Instructions.DealID.String(),
			WalletAddress: view.Instructions.WalletAddress,
			Amount:        view.Instructions.Amount,
			Currency:      view.Instructions.Currency,
			Memo:          view.Instructions.Memo,
			Network:       view.Instructions.Network,
			ExpiresAt:     view.Instructions.ExpiresAt.Unix(),
		}
	}
	return resp, nil
}

// Check probes the engine's own dependencies.
func (s *Service) Check(ctx context.Context, _ *negotiationv1.HealthCheckRequest) (*negotiationv1.HealthCheckResponse, error) {
	probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.store.Ping(probeCtx); err != nil {
		return nil, status.Error(codes.Unavailable, "STORE_UNAVAILABLE")
	}
	return &negotiationv1.HealthCheckResponse{Status: "SERVING"}, nil
}
