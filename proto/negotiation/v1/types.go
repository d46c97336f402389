package negotiationv1

import (
	"sort"

	"google.golang.org/protobuf/encoding/protowire"
)

// AgentIdentity identifies the negotiating caller.
type AgentIdentity struct {
	DID             string
	ReputationScore float64
}

// MarshalWire implements Message.
func (m *AgentIdentity) MarshalWire() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, m.DID)
	b = appendDouble(b, 2, m.ReputationScore)
	return b, nil
}

// UnmarshalWire implements Message.
func (m *AgentIdentity) UnmarshalWire(data []byte) error {
	*m = AgentIdentity{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n, err := consumeString(data)
			if err != nil {
				return err
			}
			m.DID = v
			data = data[n:]
		case num == 2 && typ == protowire.Fixed64Type:
			v, n, err := consumeDouble(data)
			if err != nil {
				return err
			}
			m.ReputationScore = v
			data = data[n:]
		default:
			n, err := skipField(num, typ, data)
			if err != nil {
				return err
			}
			data = data[n:]
		}
	}
	return nil
}

// NegotiateRequest is a single negotiation turn from a caller.
type NegotiateRequest struct {
	RequestID    string
	ItemID       string
	BidAmount    float64
	CurrencyCode string
	Agent        *AgentIdentity
}

// MarshalWire implements Message.
func (m *NegotiateRequest) MarshalWire() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, m.RequestID)
	b = appendString(b, 2, m.ItemID)
	b = appendDouble(b, 3, m.BidAmount)
	b = appendString(b, 4, m.CurrencyCode)
	if m.Agent != nil {
		var err error
		b, err = appendMessage(b, 5, m.Agent)
		if err != nil {
			return nil, err
		}
	}
	return b, nil
}

// UnmarshalWire implements Message.
func (m *NegotiateRequest) UnmarshalWire(data []byte) error {
	*m = NegotiateRequest{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n, err := consumeString(data)
			if err != nil {
				return err
			}
			m.RequestID = v
			data = data[n:]
		case num == 2 && typ == protowire.BytesType:
			v, n, err := consumeString(data)
			if err != nil {
				return err
			}
			m.ItemID = v
			data = data[n:]
		case num == 3 && typ == protowire.Fixed64Type:
			v, n, err := consumeDouble(data)
			if err != nil {
				return err
			}
			m.BidAmount = v
			data = data[n:]
		case num == 4 && typ == protowire.BytesType:
			v, n, err := consumeString(data)
			if err != nil {
				return err
			}
			m.CurrencyCode = v
			data = data[n:]
		case num == 5 && typ == protowire.BytesType:
			raw, n, err := consumeBytes(data)
			if err != nil {
				return err
			}
			agent := new(AgentIdentity)
			if err := agent.UnmarshalWire(raw); err != nil {
				return err
			}
			m.Agent = agent
			data = data[n:]
		default:
			n, err := skipField(num, typ, data)
			if err != nil {
				return err
			}
			data = data[n:]
		}
	}
	return nil
}

// CryptoPaymentInstructions tell the caller how to settle a locked deal.
type CryptoPaymentInstructions struct {
	DealID        string
	WalletAddress string
	Amount        float64
	Currency      string
	Memo          string
	Network       string
	ExpiresAt     int64
}

// MarshalWire implements Message.
func (m *CryptoPaymentInstructions) MarshalWire() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, m.DealID)
	b = appendString(b, 2, m.WalletAddress)
	b = appendDouble(b, 3, m.Amount)
	b = appendString(b, 4, m.Currency)
	b = appendString(b, 5, m.Memo)
	b = appendString(b, 6, m.Network)
	b = appendInt64(b, 7, m.ExpiresAt)
	return b, nil
}

// UnmarshalWire implements Message.
func (m *CryptoPaymentInstructions) UnmarshalWire(data []byte) error {
	*m = CryptoPaymentInstructions{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n, err := consumeString(data)
			if err != nil {
				return err
			}
			m.DealID = v
			data = data[n:]
		case num == 2 && typ == protowire.BytesType:
			v, n, err := consumeString(data)
			if err != nil {
				return err
			}
			m.WalletAddress = v
			data = data[n:]
		case num == 3 && typ == protowire.Fixed64Type:
			v, n, err := consumeDouble(data)
			if err != nil {
				return err
			}
			m.Amount = v
			data = data[n:]
		case num == 4 && typ == protowire.BytesType:
			v, n, err := consumeString(data)
			if err != nil {
				return err
			}
			m.Currency = v
			data = data[n:]
		case num == 5 && typ == protowire.BytesType:
			v, n, err := consumeString(data)
			if err != nil {
				return err
			}
			m.Memo = v
			data = data[n:]
		case num == 6 && typ == protowire.BytesType:
			v, n, err := consumeString(data)
			if err != nil {
				return err
			}
			m.Network = v
			data = data[n:]
		case num == 7 && typ == protowire.VarintType:
			v, n, err := consumeInt64(data)
			if err != nil {
				return err
			}
			m.ExpiresAt = v
			data = data[n:]
		default:
			n, err := skipField(num, typ, data)
			if err != nil {
				return err
			}
			data = data[n:]
		}
	}
	return nil
}

// Reveal is the settlement artifact attached to an accepted offer: either an
// immediate reservation code or a payment lock. Exactly one variant exists;
// the variants are unexported implementations so no third state can be built.
type Reveal interface {
	isReveal()
}

// RevealReservationCode carries the reservation secret directly.
type RevealReservationCode struct {
	ReservationCode string
}

func (*RevealReservationCode) isReveal() {}

// RevealCryptoPayment defers the secret behind an on-chain payment.
type RevealCryptoPayment struct {
	CryptoPayment *CryptoPaymentInstructions
}

func (*RevealCryptoPayment) isReveal() {}

// OfferAccepted is the accepted branch of a negotiation decision.
type OfferAccepted struct {
	FinalPrice float64
	Reveal     Reveal
}

// MarshalWire implements Message.
func (m *OfferAccepted) MarshalWire() ([]byte, error) {
	var b []byte
	b = appendDouble(b, 1, m.FinalPrice)
	switch reveal := m.Reveal.(type) {
	case nil:
	case *RevealReservationCode:
		// Emit even when empty so the branch survives the round trip.
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendString(b, reveal.ReservationCode)
	case *RevealCryptoPayment:
		var err error
		b, err = appendMessage(b, 3, reveal.CryptoPayment)
		if err != nil {
			return nil, err
		}
	}
	return b, nil
}

// UnmarshalWire implements Message.
func (m *OfferAccepted) UnmarshalWire(data []byte) error {
	*m = OfferAccepted{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.Fixed64Type:
			v, n, err := consumeDouble(data)
			if err != nil {
				return err
			}
			m.FinalPrice = v
			data = data[n:]
		case num == 2 && typ == protowire.BytesType:
			v, n, err := consumeString(data)
			if err != nil {
				return err
			}
			m.Reveal = &RevealReservationCode{ReservationCode: v}
			data = data[n:]
		case num == 3 && typ == protowire.BytesType:
			raw, n, err := consumeBytes(data)
			if err != nil {
				return err
			}
			instructions := new(CryptoPaymentInstructions)
			if err := instructions.UnmarshalWire(raw); err != nil {
				return err
			}
			m.Reveal = &RevealCryptoPayment{CryptoPayment: instructions}
			data = data[n:]
		default:
			n, err := skipField(num, typ, data)
			if err != nil {
				return err
			}
			data = data[n:]
		}
	}
	return nil
}

// OfferCountered is the countered branch of a negotiation decision.
type OfferCountered struct {
	ProposedPrice float64
	ReasonCode    string
	HumanMessage  string
}

// MarshalWire implements Message.
func (m *OfferCountered) MarshalWire() ([]byte, error) {
	var b []byte
	b = appendDouble(b, 1, m.ProposedPrice)
	b = appendString(b, 2, m.ReasonCode)
	b = appendString(b, 3, m.HumanMessage)
	return b, nil
}

// UnmarshalWire implements Message.
func (m *OfferCountered) UnmarshalWire(data []byte) error {
	*m = OfferCountered{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.Fixed64Type:
			v, n, err := consumeDouble(data)
			if err != nil {
				return err
			}
			m.ProposedPrice = v
			data = data[n:]
		case num == 2 && typ == protowire.BytesType:
			v, n, err := consumeString(data)
			if err != nil {
				return err
			}
			m.ReasonCode = v
			data = data[n:]
		case num == 3 && typ == protowire.BytesType:
			v, n, err := consumeString(data)
			if err != nil {
				return err
			}
			m.HumanMessage = v
			data = data[n:]
		default:
			n, err := skipField(num, typ, data)
			if err != nil {
				return err
			}
			data = data[n:]
		}
	}
	return nil
}

// OfferRejected is the rejected branch of a negotiation decision.
type OfferRejected struct {
	ReasonCode string
}

// MarshalWire implements Message.
func (m *OfferRejected) MarshalWire() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, m.ReasonCode)
	return b, nil
}

// UnmarshalWire implements Message.
func (m *OfferRejected) UnmarshalWire(data []byte) error {
	*m = OfferRejected{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n, err := consumeString(data)
			if err != nil {
				return err
			}
			m.ReasonCode = v
			data = data[n:]
		default:
			n, err := skipField(num, typ, data)
			if err != nil {
				return err
			}
			data = data[n:]
		}
	}
	return nil
}

// UIRequired asks the caller to confirm through an out-of-band surface.
type UIRequired struct {
	TemplateID  string
	ContextData map[string]string
}

// MarshalWire implements Message.
func (m *UIRequired) MarshalWire() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, m.TemplateID)
	// Map entries are emitted in key order for deterministic output.
	keys := make([]string, 0, len(m.ContextData))
	for k := range m.ContextData {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		var entry []byte
		entry = appendString(entry, 1, k)
		entry = appendString(entry, 2, m.ContextData[k])
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, entry)
	}
	return b, nil
}

// UnmarshalWire implements Message.
func (m *UIRequired) UnmarshalWire(data []byte) error {
	*m = UIRequired{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n, err := consumeString(data)
			if err != nil {
				return err
			}
			m.TemplateID = v
			data = data[n:]
		case num == 2 && typ == protowire.BytesType:
			raw, n, err := consumeBytes(data)
			if err != nil {
				return err
			}
			key, value, err := consumeMapEntry(raw)
			if err != nil {
				return err
			}
			if m.ContextData == nil {
				m.ContextData = make(map[string]string)
			}
			m.ContextData[key] = value
			data = data[n:]
		default:
			n, err := skipField(num, typ, data)
			if err != nil {
				return err
			}
			data = data[n:]
		}
	}
	return nil
}

func consumeMapEntry(data []byte) (key, value string, err error) {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return "", "", protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n, err := consumeString(data)
			if err != nil {
				return "", "", err
			}
			key = v
			data = data[n:]
		case num == 2 && typ == protowire.BytesType:
			v, n, err := consumeString(data)
			if err != nil {
				return "", "", err
			}
			value = v
			data = data[n:]
		default:
			n, err := skipField(num, typ, data)
			if err != nil {
				return "", "", err
			}
			data = data[n:]
		}
	}
	return key, value, nil
}

// Result is the outcome branch of a NegotiateResponse. Variants are mutually
// exclusive by construction.
type Result interface {
	isResult()
}

// ResultAccepted wraps OfferAccepted.
type ResultAccepted struct {
	Accepted *OfferAccepted
}

func (*ResultAccepted) isResult() {}

// ResultCountered wraps OfferCountered.
type ResultCountered struct {
	Countered *OfferCountered
}

func (*ResultCountered) isResult() {}

// ResultRejected wraps OfferRejected.
type ResultRejected struct {
	Rejected *OfferRejected
}

func (*ResultRejected) isResult() {}

// ResultUIRequired wraps UIRequired.
type ResultUIRequired struct {
	UIRequired *UIRequired
}

func (*ResultUIRequired) isResult() {}

// NegotiateResponse is the engine's answer to a negotiation turn.
type NegotiateResponse struct {
	SessionToken        string
	ValidUntilTimestamp int64
	Result              Result
}

// MarshalWire implements Message.
func (m *NegotiateResponse) MarshalWire() ([]byte, error) {
	var b []byte
	var err error
	b = appendString(b, 1, m.SessionToken)
	b = appendInt64(b, 2, m.ValidUntilTimestamp)
	switch result := m.Result.(type) {
	case nil:
	case *ResultAccepted:
		if b, err = appendMessage(b, 3, result.Accepted); err != nil {
			return nil, err
		}
	case *ResultCountered:
		if b, err = appendMessage(b, 4, result.Countered); err != nil {
			return nil, err
		}
	case *ResultRejected:
		if b, err = appendMessage(b, 5, result.Rejected); err != nil {
			return nil, err
		}
	case *ResultUIRequired:
		if b, err = appendMessage(b, 6, result.UIRequired); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// UnmarshalWire implements Message. When a peer emits more than one result
// branch the last one wins, matching proto3 oneof semantics.
func (m *NegotiateResponse) UnmarshalWire(data []byte) error {
	*m = NegotiateResponse{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n, err := consumeString(data)
			if err != nil {
				return err
			}
			m.SessionToken = v
			data = data[n:]
		case num == 2 && typ == protowire.VarintType:
			v, n, err := consumeInt64(data)
			if err != nil {
				return err
			}
			m.ValidUntilTimestamp = v
			data = data[n:]
		case num == 3 && typ == protowire.BytesType:
			raw, n, err := consumeBytes(data)
			if err != nil {
				return err
			}
			accepted := new(OfferAccepted)
			if err := accepted.UnmarshalWire(raw); err != nil {
				return err
			}
			m.Result = &ResultAccepted{Accepted: accepted}
			data = data[n:]
		case num == 4 && typ == protowire.BytesType:
			raw, n, err := consumeBytes(data)
			if err != nil {
				return err
			}
			countered := new(OfferCountered)
			if err := countered.UnmarshalWire(raw); err != nil {
				return err
			}
			m.Result = &ResultCountered{Countered: countered}
			data = data[n:]
		case num == 5 && typ == protowire.BytesType:
			raw, n, err := consumeBytes(data)
			if err != nil {
				return err
			}
			rejected := new(OfferRejected)
			if err := rejected.UnmarshalWire(raw); err != nil {
				return err
			}
			m.Result = &ResultRejected{Rejected: rejected}
			data = data[n:]
		case num == 6 && typ == protowire.BytesType:
			raw, n, err := consumeBytes(data)
			if err != nil {
				return err
			}
			ui := new(UIRequired)
			if err := ui.UnmarshalWire(raw); err != nil {
				return err
			}
			m.Result = &ResultUIRequired{UIRequired: ui}
			data = data[n:]
		default:
			n, err := skipField(num, typ, data)
			if err != nil {
				return err
			}
			data = data[n:]
		}
	}
	return nil
}

// CheckDealStatusRequest asks for the settlement state of a locked deal.
type CheckDealStatusRequest struct {
	DealID string
}

// MarshalWire implements Message.
func (m *CheckDealStatusRequest) MarshalWire() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, m.DealID)
	return b, nil
}

// UnmarshalWire implements Message.
func (m *CheckDealStatusRequest) UnmarshalWire(data []byte) error {
	*m = CheckDealStatusRequest{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n, err := consumeString(data)
			if err != nil {
				return err
			}
			m.DealID = v
			data = data[n:]
		default:
			n, err := skipField(num, typ, data)
			if err != nil {
				return err
			}
			data = data[n:]
		}
	}
	return nil
}

// DealSecret is the revealed reservation after settlement.
type DealSecret struct {
	ReservationCode string
	ItemName        string
	FinalPrice      float64
	PaidAt          int64
}

// MarshalWire implements Message.
func (m *DealSecret) MarshalWire() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, m.ReservationCode)
	b = appendString(b, 2, m.ItemName)
	b = appendDouble(b, 3, m.FinalPrice)
	b = appendInt64(b, 4, m.PaidAt)
	return b, nil
}

// UnmarshalWire implements Message.
func (m *DealSecret) UnmarshalWire(data []byte) error {
	*m = DealSecret{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n, err := consumeString(data)
			if err != nil {
				return err
			}
			m.ReservationCode = v
			data = data[n:]
		case num == 2 && typ == protowire.BytesType:
			v, n, err := consumeString(data)
			if err != nil {
				return err
			}
			m.ItemName = v
			data = data[n:]
		case num == 3 && typ == protowire.Fixed64Type:
			v, n, err := consumeDouble(data)
			if err != nil {
				return err
			}
			m.FinalPrice = v
			data = data[n:]
		case num == 4 && typ == protowire.VarintType:
			v, n, err := consumeInt64(data)
			if err != nil {
				return err
			}
			m.PaidAt = v
			data = data[n:]
		default:
			n, err := skipField(num, typ, data)
			if err != nil {
				return err
			}
			data = data[n:]
		}
	}
	return nil
}

// PaymentProof records the on-chain evidence for a settled deal.
type PaymentProof struct {
	TransactionHash string
	BlockNumber     string
	FromAddress     string
	ConfirmedAt     int64
}

// MarshalWire implements Message.
func (m *PaymentProof) MarshalWire() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, m.TransactionHash)
	b = appendString(b, 2, m.BlockNumber)
	b = appendString(b, 3, m.FromAddress)
	b = appendInt64(b, 4, m.ConfirmedAt)
	return b, nil
}

// UnmarshalWire implements Message.
func (m *PaymentProof) UnmarshalWire(data []byte) error {
	*m = PaymentProof{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n, err := consumeString(data)
			if err != nil {
				return err
			}
			m.TransactionHash = v
			data = data[n:]
		case num == 2 && typ == protowire.BytesType:
			v, n, err := consumeString(data)
			if err != nil {
				return err
			}
			m.BlockNumber = v
			data = data[n:]
		case num == 3 && typ == protowire.BytesType:
			v, n, err := consumeString(data)
			if err != nil {
				return err
			}
			m.FromAddress = v
			data = data[n:]
		case num == 4 && typ == protowire.VarintType:
			v, n, err := consumeInt64(data)
			if err != nil {
				return err
			}
			m.ConfirmedAt = v
			data = data[n:]
		default:
			n, err := skipField(num, typ, data)
			if err != nil {
				return err
			}
			data = data[n:]
		}
	}
	return nil
}

// CheckDealStatusResponse reports the settlement state of a deal.
type CheckDealStatusResponse struct {
	Status              string
	Secret              *DealSecret
	Proof               *PaymentProof
	PaymentInstructions *CryptoPaymentInstructions
}

// MarshalWire implements Message.
func (m *CheckDealStatusResponse) MarshalWire() ([]byte, error) {
	var b []byte
	var err error
	b = appendString(b, 1, m.Status)
	if m.Secret != nil {
		if b, err = appendMessage(b, 2, m.Secret); err != nil {
			return nil, err
		}
	}
	if m.Proof != nil {
		if b, err = appendMessage(b, 3, m.Proof); err != nil {
			return nil, err
		}
	}
	if m.PaymentInstructions != nil {
		if b, err = appendMessage(b, 4, m.PaymentInstructions); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// UnmarshalWire implements Message.
func (m *CheckDealStatusResponse) UnmarshalWire(data []byte) error {
	*m = CheckDealStatusResponse{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n, err := consumeString(data)
			if err != nil {
				return err
			}
			m.Status = v
			data = data[n:]
		case num == 2 && typ == protowire.BytesType:
			raw, n, err := consumeBytes(data)
			if err != nil {
				return err
			}
			secret := new(DealSecret)
			if err := secret.UnmarshalWire(raw); err != nil {
				return err
			}
			m.Secret = secret
			data = data[n:]
		case num == 3 && typ == protowire.BytesType:
			raw, n, err := consumeBytes(data)
			if err != nil {
				return err
			}
			proof := new(PaymentProof)
			if err := proof.UnmarshalWire(raw); err != nil {
				return err
			}
			m.Proof = proof
			data = data[n:]
		case num == 4 && typ == protowire.BytesType:
			raw, n, err := consumeBytes(data)
			if err != nil {
				return err
			}
			instructions := new(CryptoPaymentInstructions)
			if err := instructions.UnmarshalWire(raw); err != nil {
				return err
			}
			m.PaymentInstructions = instructions
			data = data[n:]
		default:
			n, err := skipField(num, typ, data)
			if err != nil {
				return err
			}
			data = data[n:]
		}
	}
	return nil
}

// HealthCheckRequest probes engine liveness.
type HealthCheckRequest struct{}

// MarshalWire implements Message.
func (m *HealthCheckRequest) MarshalWire() ([]byte, error) { return nil, nil }

// UnmarshalWire implements Message.
func (m *HealthCheckRequest) UnmarshalWire(data []byte) error {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		n, err := skipField(num, typ, data)
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

// HealthCheckResponse reports engine dependency health.
type HealthCheckResponse struct {
	Status string
}

// MarshalWire implements Message.
func (m *HealthCheckResponse) MarshalWire() ([]byte, error) {
	var b []byte
	b = appendString(b, 1, m.Status)
	return b, nil
}

// UnmarshalWire implements Message.
func (m *HealthCheckResponse) UnmarshalWire(data []byte) error {
	*m = HealthCheckResponse{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protowire.ParseError(n)
		}
		data = data[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n, err := consumeString(data)
			if err != nil {
				return err
			}
			m.Status = v
			data = data[n:]
		default:
			n, err := skipField(num, typ, data)
			if err != nil {
				return err
			}
			data = data[n:]
		}
	}
	return nil
}
