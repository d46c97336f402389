// Package market owns the deal lifecycle: locking an accepted offer behind
// an on-chain payment and settling it exactly once when the payment lands.
package market

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"aura/core/chain"
	"aura/core/storage"
)

// ErrDealNotFound reports an unknown deal id.
var ErrDealNotFound = errors.New("deal not found")

const (
	memoRetries         = 3
	defaultDealTTL      = time.Hour
	defaultProbeTimeout = 5 * time.Second
)

// Watcher is the slice of the chain layer the market needs.
type Watcher interface {
	VerifyPayment(ctx context.Context, amount float64, memo, currency string) (*chain.PaymentProof, error)
	Address() string
	Network() string
}

// Converter turns a fiat price into a settlement amount.
type Converter interface {
	Convert(usd float64, currency string) (float64, error)
}

// PaymentInstructions tell a buyer how to settle a locked deal.
type PaymentInstructions struct {
	DealID        uuid.UUID
	WalletAddress string
	Amount        float64
	Currency      string
	Memo          string
	Network       string
	ExpiresAt     time.Time
}

// Secret is the revealed reservation after settlement.
type Secret struct {
	ReservationCode string
	ItemName        string
	FinalPrice      float64
	PaidAt          time.Time
}

// StatusView is the answer to a settlement probe.
type StatusView struct {
	Status       storage.DealStatus
	Secret       *Secret
	Proof        *chain.PaymentProof
	Instructions *PaymentInstructions
}

// Config wires a Market.
type Config struct {
	Store        *storage.Store
	Watcher      Watcher
	Converter    Converter
	Secrets      *SecretBox
	Currency     string
	DealTTL      time.Duration
	ProbeTimeout time.Duration
	Logger       *slog.Logger
	NowFn        func() time.Time
}

// Market coordinates deal creation and settlement checks.
type Market struct {
	store        *storage.Store
	watcher      Watcher
	converter    Converter
	secrets      *SecretBox
	currency     string
	dealTTL      time.Duration
	probeTimeout time.Duration
	logger       *slog.Logger
	nowFn        func() time.Time
}

// New builds a Market.
func New(cfg Config) (*Market, error) {
	if cfg.Store == nil || cfg.Watcher == nil || cfg.Converter == nil || cfg.Secrets == nil {
		return nil, errors.New("market requires store, watcher, converter, and secret box")
	}
	if cfg.Currency == "" {
		cfg.Currency = "SOL"
	}
	if cfg.DealTTL <= 0 {
		cfg.DealTTL = defaultDealTTL
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = defaultProbeTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.NowFn == nil {
		cfg.NowFn = time.Now
	}
	return &Market{
		store:        cfg.Store,
		watcher:      cfg.Watcher,
		converter:    cfg.Converter,
		secrets:      cfg.Secrets,
		currency:     cfg.Currency,
		dealTTL:      cfg.DealTTL,
		probeTimeout: cfg.ProbeTimeout,
		logger:       cfg.Logger,
		nowFn:        cfg.NowFn,
	}, nil
}

// Lock creates a PENDING deal for an accepted offer. The reservation code is
// minted now, sealed, and only revealed once the payment is verified. Memo
// collisions are retried with fresh tokens; the unique index is the arbiter.
func (m *Market) Lock(ctx context.Context, item *storage.Item, finalPrice float64, buyerDID string) (*storage.Deal, *PaymentInstructions, error) {
	amount, err := m.converter.Convert(finalPrice, m.currency)
	if err != nil {
		return nil, nil, fmt.Errorf("convert price: %w", err)
	}
	code, err := NewReservationCode()
	if err != nil {
		return nil, nil, err
	}
	ciphertext, err := m.secrets.Seal([]byte(code))
	if err != nil {
		return nil, nil, fmt.Errorf("seal reservation code: %w", err)
	}

	now := m.nowFn().UTC()
	var deal *storage.Deal
	for attempt := 0; attempt < memoRetries; attempt++ {
		memo, err := NewPaymentMemo()
		if err != nil {
			return nil, nil, err
		}
		candidate := &storage.Deal{
			ID:               uuid.New(),
			ItemID:           item.ID,
			ItemName:         item.Name,
			BuyerDID:         buyerDID,
			FinalPrice:       finalPrice,
			CryptoAmount:     amount,
			Currency:         m.currency,
			PaymentMemo:      memo,
			WalletAddress:    m.watcher.Address(),
			Network:          m.watcher.Network(),
			SecretCiphertext: ciphertext,
			Status:           storage.StatusPending,
			ExpiresAt:        now.Add(m.dealTTL),
		}
		err = m.store.CreateDeal(ctx, candidate)
		if err == nil {
			deal = candidate
			break
		}
		if errors.Is(err, storage.ErrDuplicateMemo) {
			continue
		}
		return nil, nil, err
	}
	if deal == nil {
		return nil, nil, fmt.Errorf("exhausted %d memo attempts", memoRetries)
	}

	m.logger.InfoContext(ctx, "offer_locked_for_payment",
		slog.String("deal_id", deal.ID.String()),
		slog.String("item_id", deal.ItemID),
		slog.String("currency", deal.Currency),
		slog.String("memo", deal.PaymentMemo),
	)
	return deal, m.instructions(deal), nil
}

func (m *Market) instructions(deal *storage.Deal) *PaymentInstructions {
	return &PaymentInstructions{
		DealID:        deal.ID,
		WalletAddress: deal.WalletAddress,
		Amount:        deal.CryptoAmount,
		Currency:      deal.Currency,
		Memo:          deal.PaymentMemo,
		Network:       deal.Network,
		ExpiresAt:     deal.ExpiresAt,
	}
}

// Check resolves the current settlement state of a deal.
//
// PAID and EXPIRED are terminal and answered from the store alone; the chain
// is never probed again for them. A still-PENDING deal past its deadline is
// expired idempotently. Otherwise the chain is probed once: a verified
// payment settles the deal through the store's conditional update, and a
// probe failure degrades to PENDING rather than an error.
func (m *Market) Check(ctx context.Context, dealID uuid.UUID) (*StatusView, error) {
	deal, err := m.store.GetDeal(ctx, dealID)
	if err != nil {
		return nil, err
	}
	if deal == nil {
		return nil, ErrDealNotFound
	}

	switch deal.Status {
	case storage.StatusPaid:
		return m.paidView(deal)
	case storage.StatusExpired:
		return &StatusView{Status: storage.StatusExpired}, nil
	}

	now := m.nowFn().UTC()
	if now.After(deal.ExpiresAt) {
		won, err := m.store.MarkExpired(ctx, deal.ID)
		if err != nil {
			return nil, err
		}
		if won {
			m.logger.InfoContext(ctx, "deal_expired",
				slog.String("deal_id", deal.ID.String()),
				slog.String("item_id", deal.ItemID),
			)
		}
		return &StatusView{Status: storage.StatusExpired}, nil
	}

	probeCtx, cancel := context.WithTimeout(ctx, m.probeTimeout)
	defer cancel()
	proof, err := m.watcher.VerifyPayment(probeCtx, deal.CryptoAmount, deal.PaymentMemo, deal.Currency)
	if err != nil {
		m.logger.WarnContext(ctx, "chain_probe_failed",
			slog.String("deal_id", deal.ID.String()),
			slog.String("error", err.Error()),
		)
		return &StatusView{Status: storage.StatusPending, Instructions: m.instructions(deal)}, nil
	}
	if proof == nil {
		return &StatusView{Status: storage.StatusPending, Instructions: m.instructions(deal)}, nil
	}

	won, err := m.store.MarkPaid(ctx, deal.ID, proof.TransactionHash, proof.BlockNumber, proof.FromAddress, proof.ConfirmedAt)
	if err != nil {
		return nil, err
	}
	if won {
		// Logged once, by the poll that wins the conditional update.
		m.logger.InfoContext(ctx, "payment_verified",
			slog.String("deal_id", deal.ID.String()),
			slog.String("item_id", deal.ItemID),
			slog.String("transaction_hash", proof.TransactionHash),
		)
	}
	// Reload regardless of who won the race so the response reflects the
	// stored proof.
	settled, err := m.store.GetDeal(ctx, deal.ID)
	if err != nil {
		return nil, err
	}
	if settled == nil || settled.Status != storage.StatusPaid {
		return &StatusView{Status: storage.StatusPending, Instructions: m.instructions(deal)}, nil
	}
	return m.paidView(settled)
}

// paidView decrypts the sealed reservation and assembles the terminal PAID
// answer from stored fields only.
func (m *Market) paidView(deal *storage.Deal) (*StatusView, error) {
	plaintext, err := m.secrets.Open(deal.SecretCiphertext)
	if err != nil {
		return nil, fmt.Errorf("reveal secret for deal %s: %w", deal.ID, err)
	}
	paidAt := time.Time{}
	if deal.PaidAt != nil {
		paidAt = *deal.PaidAt
	}
	view := &StatusView{
		Status: storage.StatusPaid,
		Secret: &Secret{
			ReservationCode: string(plaintext),
			ItemName:        deal.ItemName,
			FinalPrice:      deal.FinalPrice,
			PaidAt:          paidAt,
		},
	}
	if deal.TransactionHash != nil {
		proof := &chain.PaymentProof{TransactionHash: *deal.TransactionHash, ConfirmedAt: paidAt}
		if deal.BlockNumber != nil {
			proof.BlockNumber = *deal.BlockNumber
		}
		if deal.FromAddress != nil {
			proof.FromAddress = *deal.FromAddress
		}
		view.Proof = proof
	}
	return view, nil
}
