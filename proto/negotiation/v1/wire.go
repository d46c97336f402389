// Package negotiationv1 defines the wire contract between the gateway and the
// engine. Messages are encoded in protobuf wire format with hand-written
// marshalers over encoding/protowire: field numbers follow negotiation.proto,
// unknown fields are skipped on decode so either side may add tagged fields
// without breaking the other.
package negotiationv1

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// CodecName identifies the content-subtype used on the internal RPC.
const CodecName = "aura-wire"

// Message is implemented by every wire type in this package.
type Message interface {
	MarshalWire() ([]byte, error)
	UnmarshalWire(data []byte) error
}

// Codec implements grpc encoding.Codec over the hand-written marshalers.
// Both ends force it explicitly; it is not registered globally.
type Codec struct{}

// Marshal encodes a wire message.
func (Codec) Marshal(v any) ([]byte, error) {
	msg, ok := v.(Message)
	if !ok {
		return nil, fmt.Errorf("aura-wire codec: %T does not implement negotiationv1.Message", v)
	}
	return msg.MarshalWire()
}

// Unmarshal decodes a wire message.
func (Codec) Unmarshal(data []byte, v any) error {
	msg, ok := v.(Message)
	if !ok {
		return fmt.Errorf("aura-wire codec: %T does not implement negotiationv1.Message", v)
	}
	return msg.UnmarshalWire(data)
}

// Name returns the codec's content-subtype.
func (Codec) Name() string { return CodecName }

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendDouble(b []byte, num protowire.Number, v float64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

func appendInt64(b []byte, num protowire.Number, v int64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(v))
}

func appendMessage(b []byte, num protowire.Number, m Message) ([]byte, error) {
	inner, err := m.MarshalWire()
	if err != nil {
		return nil, err
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, inner), nil
}

func consumeString(data []byte) (string, int, error) {
	v, n := protowire.ConsumeString(data)
	if n < 0 {
		return "", 0, protowire.ParseError(n)
	}
	return v, n, nil
}

func consumeDouble(data []byte) (float64, int, error) {
	v, n := protowire.ConsumeFixed64(data)
	if n < 0 {
		return 0, 0, protowire.ParseError(n)
	}
	return math.Float64frombits(v), n, nil
}

func consumeInt64(data []byte) (int64, int, error) {
	v, n := protowire.ConsumeVarint(data)
	if n < 0 {
		return 0, 0, protowire.ParseError(n)
	}
	return int64(v), n, nil
}

func consumeBytes(data []byte) ([]byte, int, error) {
	v, n := protowire.ConsumeBytes(data)
	if n < 0 {
		return nil, 0, protowire.ParseError(n)
	}
	return v, n, nil
}

// skipField advances past a field of unknown number, preserving forward
// compatibility with newer peers.
func skipField(num protowire.Number, typ protowire.Type, data []byte) (int, error) {
	n := protowire.ConsumeFieldValue(num, typ, data)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	return n, nil
}
