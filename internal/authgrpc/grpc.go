package authgrpc

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the gRPC service's fully-qualified name, as a .proto
// definition would declare it.
const ServiceName = "policethief.auth.AuthService"

func authenticateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(LoginRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AuthServer).Authenticate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/Authenticate"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AuthServer).Authenticate(ctx, req.(*LoginRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func refreshHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(RefreshRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AuthServer).Refresh(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/Refresh"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AuthServer).Refresh(ctx, req.(*RefreshRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func logoutHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(LogoutRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AuthServer).Logout(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ServiceName + "/Logout"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AuthServer).Logout(ctx, req.(*LogoutRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// serviceDesc is authored by hand in the shape protoc-gen-go-grpc
// would normally generate from an auth.proto file.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Authenticate", Handler: authenticateHandler},
		{MethodName: "Refresh", Handler: refreshHandler},
		{MethodName: "Logout", Handler: logoutHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "auth.proto",
}

// RegisterAuthServer registers srv on gs. gs must have been constructed
// with grpc.ForceServerCodec(jsonCodec{}) (see NewGRPCServer) since this
// service's messages are plain structs, not generated protobuf types.
func RegisterAuthServer(gs *grpc.Server, srv AuthServer) {
	gs.RegisterService(&serviceDesc, srv)
}

// NewGRPCServer builds a *grpc.Server configured with the JSON codec
// this hand-authored service needs, plus any caller-supplied options
// (e.g. interceptors).
func NewGRPCServer(opts ...grpc.ServerOption) *grpc.Server {
	all := append([]grpc.ServerOption{grpc.ForceServerCodec(jsonCodec{})}, opts...)
	return grpc.NewServer(all...)
}
