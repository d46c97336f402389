// Package requestid carries the correlation id that binds a single client
// request across the edge, the engine RPC, logs, and trace spans.
package requestid

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"

	"google.golang.org/grpc/metadata"
)

// MetadataKey is the gRPC metadata key used to propagate the correlation id
// from the edge into the engine.
const MetadataKey = "x-request-id"

// HeaderName is the HTTP header the edge accepts and echoes.
const HeaderName = "X-Request-ID"

type ctxKey struct{}

// New returns a fresh correlation id of the form req_<12 hex chars>.
func New() string {
	var buf [6]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand never fails on supported platforms; keep the request
		// traceable regardless.
		return "req_000000000000"
	}
	return "req_" + hex.EncodeToString(buf[:])
}

// WithRequestID stores the correlation id on the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the correlation id bound to the context, or "".
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Outgoing attaches the context's correlation id as outgoing gRPC metadata.
func Outgoing(ctx context.Context) context.Context {
	id := FromContext(ctx)
	if id == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, MetadataKey, id)
}

// FromIncoming extracts the correlation id from incoming gRPC metadata, or "".
func FromIncoming(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(MetadataKey)
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}
