// Package client dials the engine's internal RPC and exposes a typed handle
// the route handlers use. The correlation id travels as x-request-id
// metadata on every call.
package client

import (
	"context"
	"fmt"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"aura/internal/requestid"
	negotiationv1 "aura/proto/negotiation/v1"
)

// Engine is the gateway's view of the negotiation engine.
type Engine struct {
	conn *grpc.ClientConn
	rpc  negotiationv1.NegotiationServiceClient
}

// Dial connects to the engine at addr. The internal RPC runs on a private
// network, so transport credentials are plaintext.
func Dial(addr string) (*Engine, error) {
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	)
	if err != nil {
		return nil, fmt.Errorf("dial engine %s: %w", addr, err)
	}
	return &Engine{conn: conn, rpc: negotiationv1.NewNegotiationServiceClient(conn)}, nil
}

// Close tears down the connection.
func (e *Engine) Close() error {
	return e.conn.Close()
}

// Negotiate forwards one negotiation turn.
func (e *Engine) Negotiate(ctx context.Context, req *negotiationv1.NegotiateRequest) (*negotiationv1.NegotiateResponse, error) {
	return e.rpc.Negotiate(requestid.Outgoing(ctx), req)
}

// CheckDealStatus forwards a settlement status probe.
func (e *Engine) CheckDealStatus(ctx context.Context, req *negotiationv1.CheckDealStatusRequest) (*negotiationv1.CheckDealStatusResponse, error) {
	return e.rpc.CheckDealStatus(requestid.Outgoing(ctx), req)
}

// Check probes engine health.
func (e *Engine) Check(ctx context.Context, req *negotiationv1.HealthCheckRequest) (*negotiationv1.HealthCheckResponse, error) {
	return e.rpc.Check(requestid.Outgoing(ctx), req)
}
