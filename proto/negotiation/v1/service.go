package negotiationv1

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "aura.negotiation.v1.NegotiationService"

const (
	MethodNegotiate       = "/" + ServiceName + "/Negotiate"
	MethodCheckDealStatus = "/" + ServiceName + "/CheckDealStatus"
	MethodCheck           = "/" + ServiceName + "/Check"
)

// NegotiationServiceServer is implemented by the engine.
type NegotiationServiceServer interface {
	Negotiate(context.Context, *NegotiateRequest) (*NegotiateResponse, error)
	CheckDealStatus(context.Context, *CheckDealStatusRequest) (*CheckDealStatusResponse, error)
	Check(context.Context, *HealthCheckRequest) (*HealthCheckResponse, error)
}

// RegisterNegotiationServiceServer registers srv on s. The server must be
// built with grpc.ForceServerCodec(Codec{}) so the hand-written marshalers
// are used for this service.
func RegisterNegotiationServiceServer(s grpc.ServiceRegistrar, srv NegotiationServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}

func negotiateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(NegotiateRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NegotiationServiceServer).Negotiate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: MethodNegotiate,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(NegotiationServiceServer).Negotiate(ctx, req.(*NegotiateRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func checkDealStatusHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CheckDealStatusRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NegotiationServiceServer).CheckDealStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: MethodCheckDealStatus,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(NegotiationServiceServer).CheckDealStatus(ctx, req.(*CheckDealStatusRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func checkHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(HealthCheckRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(NegotiationServiceServer).Check(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: MethodCheck,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(NegotiationServiceServer).Check(ctx, req.(*HealthCheckRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*NegotiationServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Negotiate", Handler: negotiateHandler},
		{MethodName: "CheckDealStatus", Handler: checkDealStatusHandler},
		{MethodName: "Check", Handler: checkHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "proto/negotiation/v1/negotiation.proto",
}

// NegotiationServiceClient is the client API for the engine RPC.
type NegotiationServiceClient interface {
	Negotiate(ctx context.Context, in *NegotiateRequest, opts ...grpc.CallOption) (*NegotiateResponse, error)
	CheckDealStatus(ctx context.Context, in *CheckDealStatusRequest, opts ...grpc.CallOption) (*CheckDealStatusResponse, error)
	Check(ctx context.Context, in *HealthCheckRequest, opts ...grpc.CallOption) (*HealthCheckResponse, error)
}

type negotiationServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewNegotiationServiceClient builds a client over cc. Every call forces the
// aura-wire codec so the connection needs no global codec registration.
func NewNegotiationServiceClient(cc grpc.ClientConnInterface) NegotiationServiceClient {
	return &negotiationServiceClient{cc: cc}
}

func (c *negotiationServiceClient) Negotiate(ctx context.Context, in *NegotiateRequest, opts ...grpc.CallOption) (*NegotiateResponse, error) {
	out := new(NegotiateResponse)
	opts = append([]grpc.CallOption{grpc.ForceCodec(Codec{})}, opts...)
	if err := c.cc.Invoke(ctx, MethodNegotiate, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *negotiationServiceClient) CheckDealStatus(ctx context.Context, in *CheckDealStatusRequest, opts ...grpc.CallOption) (*CheckDealStatusResponse, error) {
	out := new(CheckDealStatusResponse)
	opts = append([]grpc.CallOption{grpc.ForceCodec(Codec{})}, opts...)
	if err := c.cc.Invoke(ctx, MethodCheckDealStatus, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *negotiationServiceClient) Check(ctx context.Context, in *HealthCheckRequest, opts ...grpc.CallOption) (*HealthCheckResponse, error) {
	out := new(HealthCheckResponse)
	opts = append([]grpc.CallOption{grpc.ForceCodec(Codec{})}, opts...)
	if err := c.cc.Invoke(ctx, MethodCheck, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
