package blockrpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const serviceName = "xdao.skipproof.blockrpc.v1.Blocks"

// BlocksServer is the server API for the Blocks gRPC service.
//
// Messages are protobuf well-known wrapper types so no codegen step is
// needed: blocks travel as BytesValue (canonical encoding), ids as
// StringValue (lowercase hex).
type BlocksServer interface {
	PutBlock(context.Context, *wrapperspb.BytesValue) (*wrapperspb.StringValue, error)
	GetBlock(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
	HasBlock(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
}

// UnimplementedBlocksServer can be embedded to have forward compatible implementations.
type UnimplementedBlocksServer struct{}

func (UnimplementedBlocksServer) PutBlock(context.Context, *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	return nil, status.Error(codes.Unimplemented, "method PutBlock not implemented")
}
func (UnimplementedBlocksServer) GetBlock(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	return nil, status.Error(codes.Unimplemented, "method GetBlock not implemented")
}
func (UnimplementedBlocksServer) HasBlock(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	return nil, status.Error(codes.Unimplemented, "method HasBlock not implemented")
}

func RegisterBlocksServer(s grpc.ServiceRegistrar, srv BlocksServer) {
	s.RegisterService(&Blocks_ServiceDesc, srv)
}

// BlocksClient is the client API for the Blocks gRPC service.
type BlocksClient interface {
	PutBlock(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	GetBlock(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	HasBlock(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error)
}

type blocksClient struct{ cc grpc.ClientConnInterface }

func NewBlocksClient(cc grpc.ClientConnInterface) BlocksClient { return &blocksClient{cc: cc} }

func (c *blocksClient) PutBlock(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	out := new(wrapperspb.StringValue)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/PutBlock", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *blocksClient) GetBlock(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/GetBlock", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *blocksClient) HasBlock(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/HasBlock", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func _Blocks_PutBlock_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.BytesValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BlocksServer).PutBlock(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/PutBlock"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(BlocksServer).PutBlock(ctx, req.(*wrapperspb.BytesValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _Blocks_GetBlock_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BlocksServer).GetBlock(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/GetBlock"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(BlocksServer).GetBlock(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func _Blocks_HasBlock_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BlocksServer).HasBlock(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/HasBlock"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(BlocksServer).HasBlock(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// Blocks_ServiceDesc is the grpc.ServiceDesc for the Blocks service.
var Blocks_ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*BlocksServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "PutBlock", Handler: _Blocks_PutBlock_Handler},
		{MethodName: "GetBlock", Handler: _Blocks_GetBlock_Handler},
		{MethodName: "HasBlock", Handler: _Blocks_HasBlock_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "blockrpc.proto",
}
