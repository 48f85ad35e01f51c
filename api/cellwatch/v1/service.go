// Package cellwatchv1 defines the cellwatch.v1.CellController gRPC
// service. Messages are protobuf well-known types, so the service needs no
// generated code:
//
//	service CellController {
//	  rpc ApplyOrder(google.protobuf.StringValue) returns (google.protobuf.Struct);
//	  rpc Reset(google.protobuf.Empty) returns (google.protobuf.Struct);
//	  rpc GetState(google.protobuf.Empty) returns (google.protobuf.Struct);
//	}
package cellwatchv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "cellwatch.v1.CellController"

// Full method names.
const (
	CellController_ApplyOrder_FullMethodName = "/" + ServiceName + "/ApplyOrder"
	CellController_Reset_FullMethodName      = "/" + ServiceName + "/Reset"
	CellController_GetState_FullMethodName   = "/" + ServiceName + "/GetState"
)

// CellControllerServer is the server API for the CellController service.
type CellControllerServer interface {
	ApplyOrder(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	Reset(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetState(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// RegisterCellControllerServer registers srv on s.
func RegisterCellControllerServer(s grpc.ServiceRegistrar, srv CellControllerServer) {
	s.RegisterService(&CellController_ServiceDesc, srv)
}

// CellController_ServiceDesc is the grpc.ServiceDesc for CellController.
var CellController_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CellControllerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ApplyOrder", Handler: applyOrderHandler},
		{MethodName: "Reset", Handler: resetHandler},
		{MethodName: "GetState", Handler: getStateHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "cellwatch/v1/cellwatch.proto",
}

func applyOrderHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CellControllerServer).ApplyOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CellController_ApplyOrder_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CellControllerServer).ApplyOrder(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func resetHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CellControllerServer).Reset(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CellController_Reset_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CellControllerServer).Reset(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func getStateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CellControllerServer).GetState(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CellController_GetState_FullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CellControllerServer).GetState(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// CellControllerClient is the client API for the CellController service.
type CellControllerClient interface {
	ApplyOrder(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error)
	Reset(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	GetState(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type cellControllerClient struct {
	cc grpc.ClientConnInterface
}

// NewCellControllerClient returns a client bound to cc.
func NewCellControllerClient(cc grpc.ClientConnInterface) CellControllerClient {
	return &cellControllerClient{cc}
}

func (c *cellControllerClient) ApplyOrder(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, CellController_ApplyOrder_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *cellControllerClient) Reset(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, CellController_Reset_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *cellControllerClient) GetState(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, CellController_GetState_FullMethodName, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
