package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// ClientNamenodeServer is the namenode surface clients call for file
// operations.
type ClientNamenodeServer interface {
	StoreFile(ctx context.Context, req *StoreFileRequest) (*StoreFileResponse, error)
	FetchFile(ctx context.Context, req *FetchFileRequest) (*FetchFileResponse, error)
	DeleteFile(ctx context.Context, req *DeleteFileRequest) (*DeleteFileResponse, error)
}

const clientNamenodeService = "ww.ClientNamenode"

// clientNamenodeDesc is a manually-defined gRPC ServiceDesc for
// ww.ClientNamenode. We register this by hand rather than generating
// stubs; the messages are plain structs carried by the msgpack codec.
var clientNamenodeDesc = grpc.ServiceDesc{
	ServiceName: clientNamenodeService,
	HandlerType: (*ClientNamenodeServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "StoreFile", Handler: unary("/ww.ClientNamenode/StoreFile", func(srv any, ctx context.Context, req *StoreFileRequest) (*StoreFileResponse, error) {
			return srv.(ClientNamenodeServer).StoreFile(ctx, req)
		})},
		{MethodName: "FetchFile", Handler: unary("/ww.ClientNamenode/FetchFile", func(srv any, ctx context.Context, req *FetchFileRequest) (*FetchFileResponse, error) {
			return srv.(ClientNamenodeServer).FetchFile(ctx, req)
		})},
		{MethodName: "DeleteFile", Handler: unary("/ww.ClientNamenode/DeleteFile", func(srv any, ctx context.Context, req *DeleteFileRequest) (*DeleteFileResponse, error) {
			return srv.(ClientNamenodeServer).DeleteFile(ctx, req)
		})},
	},
}

// RegisterClientNamenodeServer registers srv on s.
func RegisterClientNamenodeServer(s *grpc.Server, srv ClientNamenodeServer) {
	s.RegisterService(&clientNamenodeDesc, srv)
}

// ClientNamenodeClient is a typed client for ww.ClientNamenode.
type ClientNamenodeClient struct {
	cc grpc.ClientConnInterface
}

// NewClientNamenodeClient creates a client bound to a connection.
func NewClientNamenodeClient(cc grpc.ClientConnInterface) *ClientNamenodeClient {
	return &ClientNamenodeClient{cc: cc}
}

func (c *ClientNamenodeClient) StoreFile(ctx context.Context, req *StoreFileRequest) (*StoreFileResponse, error) {
	return invoke[StoreFileResponse](ctx, c.cc, "/ww.ClientNamenode/StoreFile", req)
}

func (c *ClientNamenodeClient) FetchFile(ctx context.Context, req *FetchFileRequest) (*FetchFileResponse, error) {
	return invoke[FetchFileResponse](ctx, c.cc, "/ww.ClientNamenode/FetchFile", req)
}

func (c *ClientNamenodeClient) DeleteFile(ctx context.Context, req *DeleteFileRequest) (*DeleteFileResponse, error) {
	return invoke[DeleteFileResponse](ctx, c.cc, "/ww.ClientNamenode/DeleteFile", req)
}
