package server

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"aura/internal/requestid"
	negotiationv1 "aura/proto/negotiation/v1"
)

// NewGRPCServer assembles the engine's gRPC server: forced wire codec,
// telemetry stats handler, and the interceptor chain, with the service
// registered.
func NewGRPCServer(svc *Service, logger *slog.Logger, rpcPerMinute int) *grpc.Server {
	if logger == nil {
		logger = slog.Default()
	}
	unary := []grpc.UnaryServerInterceptor{
		requestIDUnaryInterceptor(),
		loggingUnaryInterceptor(logger),
		recoveryUnaryInterceptor(logger),
	}
	if limiter := newRequestLimiter(rpcPerMinute); limiter != nil {
		unary = append(unary, limiter.unaryInterceptor())
	}
	server := grpc.NewServer(
		grpc.ForceServerCodec(negotiationv1.Codec{}),
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(unary...),
	)
	negotiationv1.RegisterNegotiationServiceServer(server, svc)
	return server
}

// requestIDUnaryInterceptor copies the edge's correlation id from incoming
// metadata onto the handler context.
func requestIDUnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if id := requestid.FromIncoming(ctx); id != "" {
			ctx = requestid.WithRequestID(ctx, id)
		}
		return handler(ctx, req)
	}
}

func loggingUnaryInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (_ any, err error) {
		start := time.Now()
		defer func() {
			logger.Info("grpc unary",
				"method", info.FullMethod,
				"code", status.Code(err).String(),
				"request_id", requestid.FromContext(ctx),
				"duration", time.Since(start),
			)
		}()
		return handler(ctx, req)
	}
}

func recoveryUnaryInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (_ any, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic in unary handler", "method", info.FullMethod, "panic", r)
				err = status.Error(codes.Internal, "internal server error")
			}
		}()
		return handler(ctx, req)
	}
}

type requestLimiter struct {
	limiter *rate.Limiter
}

func newRequestLimiter(perMinute int) *requestLimiter {
	if perMinute <= 0 {
		return nil
	}
	limit := rate.Every(time.Minute / time.Duration(perMinute))
	return &requestLimiter{limiter: rate.NewLimiter(limit, perMinute)}
}

func (r *requestLimiter) unaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !r.limiter.Allow() {
			return nil, status.Error(codes.ResourceExhausted, "rate limit exceeded")
		}
		return handler(ctx, req)
	}
}
