package grpc

// proto.go defines the gRPC server interface for fraud/v1/fraud.proto. The
// messages travel with the JSON codec registered in json_codec.go.

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	serviceName            = "fraud.v1.FraudDetectionService"
	PredictFullMethod      = "/" + serviceName + "/Predict"
	ScoreBatchFullMethod   = "/" + serviceName + "/ScoreBatch"
	healthServiceComponent = "fraud-detection"
)

// FraudDetectionServiceServer is the server API for FraudDetectionService.
type FraudDetectionServiceServer interface {
	Predict(context.Context, *PredictRequest) (*PredictResponse, error)
	ScoreBatch(context.Context, *ScoreBatchRequest) (*ScoreBatchResponse, error)
	mustEmbedUnimplementedFraudDetectionServiceServer()
}

// UnimplementedFraudDetectionServiceServer provides forward-compatible default implementations.
type UnimplementedFraudDetectionServiceServer struct{}

func (UnimplementedFraudDetectionServiceServer) Predict(context.Context, *PredictRequest) (*PredictResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Predict not implemented")
}
func (UnimplementedFraudDetectionServiceServer) ScoreBatch(context.Context, *ScoreBatchRequest) (*ScoreBatchResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ScoreBatch not implemented")
}
func (UnimplementedFraudDetectionServiceServer) mustEmbedUnimplementedFraudDetectionServiceServer() {}

// RegisterFraudDetectionServiceServer registers the service with the gRPC server.
func RegisterFraudDetectionServiceServer(s grpclib.ServiceRegistrar, srv FraudDetectionServiceServer) {
	s.RegisterService(&_FraudDetectionService_serviceDesc, srv)
}

var _FraudDetectionService_serviceDesc = grpclib.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*FraudDetectionServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "Predict", Handler: _FraudDetectionService_Predict_Handler},
		{MethodName: "ScoreBatch", Handler: _FraudDetectionService_ScoreBatch_Handler},
	},
	Streams:  []grpclib.StreamDesc{},
	Metadata: "fraud/v1/fraud.proto",
}

func _FraudDetectionService_Predict_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	req := new(PredictRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FraudDetectionServiceServer).Predict(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: PredictFullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FraudDetectionServiceServer).Predict(ctx, req.(*PredictRequest))
	}
	return interceptor(ctx, req, info, handler)
}

func _FraudDetectionService_ScoreBatch_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	req := new(ScoreBatchRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(FraudDetectionServiceServer).ScoreBatch(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: ScoreBatchFullMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(FraudDetectionServiceServer).ScoreBatch(ctx, req.(*ScoreBatchRequest))
	}
	return interceptor(ctx, req, info, handler)
}

// FraudDetectionServiceClient is the client API for FraudDetectionService.
type FraudDetectionServiceClient interface {
	Predict(ctx context.Context, in *PredictRequest, opts ...grpclib.CallOption) (*PredictResponse, error)
	ScoreBatch(ctx context.Context, in *ScoreBatchRequest, opts ...grpclib.CallOption) (*ScoreBatchResponse, error)
}

type fraudDetectionServiceClient struct {
	cc grpclib.ClientConnInterface
}

// NewFraudDetectionServiceClient creates a client that speaks the JSON codec.
func NewFraudDetectionServiceClient(cc grpclib.ClientConnInterface) FraudDetectionServiceClient {
	return &fraudDetectionServiceClient{cc: cc}
}

func (c *fraudDetectionServiceClient) Predict(ctx context.Context, in *PredictRequest, opts ...grpclib.CallOption) (*PredictResponse, error) {
	out := new(PredictResponse)
	opts = append([]grpclib.CallOption{grpclib.CallContentSubtype(codecName)}, opts...)
	if err := c.cc.Invoke(ctx, PredictFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *fraudDetectionServiceClient) ScoreBatch(ctx context.Context, in *ScoreBatchRequest, opts ...grpclib.CallOption) (*ScoreBatchResponse, error) {
	out := new(ScoreBatchResponse)
	opts = append([]grpclib.CallOption{grpclib.CallContentSubtype(codecName)}, opts...)
	if err := c.cc.Invoke(ctx, ScoreBatchFullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
