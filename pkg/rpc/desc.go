package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// unary adapts a typed service method into the grpc.MethodDesc handler
// shape. The service descriptors below are written by hand rather than
// generated, so this helper keeps each method entry to one line.
func unary[Req any, Resp any](fullMethod string, invoke func(srv any, ctx context.Context, req *Req) (*Resp, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := new(Req)
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return invoke(srv, ctx, req)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return invoke(srv, ctx, req.(*Req))
		}
		return interceptor(ctx, req, info, handler)
	}
}

// invoke performs a typed unary call with the cluster codec.
func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, fullMethod string, req any) (*Resp, error) {
	out := new(Resp)
	if err := cc.Invoke(ctx, fullMethod, req, out, CallOptions()...); err != nil {
		return nil, err
	}
	return out, nil
}
