// Package proto describes the MenuScraperService gRPC service.
//
// Messages are google.protobuf.Struct documents carrying the same JSON shapes
// as the HTTP API, so the service needs no generated message types.
package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "menuscraper.MenuScraperService"

// Full method names, used by interceptors.
const (
	MethodSaveBatch     = "/" + ServiceName + "/SaveBatch"
	MethodListMenuItems = "/" + ServiceName + "/ListMenuItems"
	MethodHealth        = "/" + ServiceName + "/Health"
)

// MenuScraperServiceServer is the server API for MenuScraperService service.
type MenuScraperServiceServer interface {
	SaveBatch(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListMenuItems(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Health(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// UnimplementedMenuScraperServiceServer can be embedded to have forward compatible implementations.
type UnimplementedMenuScraperServiceServer struct{}

func (UnimplementedMenuScraperServiceServer) SaveBatch(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method SaveBatch not implemented")
}
func (UnimplementedMenuScraperServiceServer) ListMenuItems(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ListMenuItems not implemented")
}
func (UnimplementedMenuScraperServiceServer) Health(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Health not implemented")
}

func RegisterMenuScraperServiceServer(s grpc.ServiceRegistrar, srv MenuScraperServiceServer) {
	s.RegisterService(&_MenuScraperService_serviceDesc, srv)
}

func _MenuScraperService_SaveBatch_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MenuScraperServiceServer).SaveBatch(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: MethodSaveBatch,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MenuScraperServiceServer).SaveBatch(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _MenuScraperService_ListMenuItems_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MenuScraperServiceServer).ListMenuItems(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: MethodListMenuItems,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MenuScraperServiceServer).ListMenuItems(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func _MenuScraperService_Health_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(MenuScraperServiceServer).Health(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: MethodHealth,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(MenuScraperServiceServer).Health(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

var _MenuScraperService_serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MenuScraperServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "SaveBatch",
			Handler:    _MenuScraperService_SaveBatch_Handler,
		},
		{
			MethodName: "ListMenuItems",
			Handler:    _MenuScraperService_ListMenuItems_Handler,
		},
		{
			MethodName: "Health",
			Handler:    _MenuScraperService_Health_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "menuscraper.proto",
}

// MenuScraperServiceClient is the client API for MenuScraperService service.
type MenuScraperServiceClient interface {
	SaveBatch(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ListMenuItems(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Health(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type menuScraperServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewMenuScraperServiceClient(cc grpc.ClientConnInterface) MenuScraperServiceClient {
	return &menuScraperServiceClient{cc}
}

func (c *menuScraperServiceClient) SaveBatch(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodSaveBatch, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *menuScraperServiceClient) ListMenuItems(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodListMenuItems, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *menuScraperServiceClient) Health(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodHealth, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
