package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// DatanodeNamenodeServer is the namenode surface datanodes call for
// registration, liveness, and state reconciliation.
type DatanodeNamenodeServer interface {
	Connection(ctx context.Context, req *ConnectionRequest) (*ConnectionResponse, error)
	HeartBeat(ctx context.Context, req *HeartBeatRequest) (*HeartBeatResponse, error)
	StateSync(ctx context.Context, req *StateSyncRequest) (*StateSyncResponse, error)
	StoreChunkTicket(ctx context.Context, req *StoreChunkTicketRequest) (*StoreChunkTicketResponse, error)
}

const datanodeNamenodeService = "ww.DatanodeNamenode"

var datanodeNamenodeDesc = grpc.ServiceDesc{
	ServiceName: datanodeNamenodeService,
	HandlerType: (*DatanodeNamenodeServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Connection", Handler: unary("/ww.DatanodeNamenode/Connection", func(srv any, ctx context.Context, req *ConnectionRequest) (*ConnectionResponse, error) {
			return srv.(DatanodeNamenodeServer).Connection(ctx, req)
		})},
		{MethodName: "HeartBeat", Handler: unary("/ww.DatanodeNamenode/HeartBeat", func(srv any, ctx context.Context, req *HeartBeatRequest) (*HeartBeatResponse, error) {
			return srv.(DatanodeNamenodeServer).HeartBeat(ctx, req)
		})},
		{MethodName: "StateSync", Handler: unary("/ww.DatanodeNamenode/StateSync", func(srv any, ctx context.Context, req *StateSyncRequest) (*StateSyncResponse, error) {
			return srv.(DatanodeNamenodeServer).StateSync(ctx, req)
		})},
		{MethodName: "StoreChunkTicket", Handler: unary("/ww.DatanodeNamenode/StoreChunkTicket", func(srv any, ctx context.Context, req *StoreChunkTicketRequest) (*StoreChunkTicketResponse, error) {
			return srv.(DatanodeNamenodeServer).StoreChunkTicket(ctx, req)
		})},
	},
}

// RegisterDatanodeNamenodeServer registers srv on s.
func RegisterDatanodeNamenodeServer(s *grpc.Server, srv DatanodeNamenodeServer) {
	s.RegisterService(&datanodeNamenodeDesc, srv)
}

// DatanodeNamenodeClient is a typed client for ww.DatanodeNamenode.
type DatanodeNamenodeClient struct {
	cc grpc.ClientConnInterface
}

// NewDatanodeNamenodeClient creates a client bound to a connection.
func NewDatanodeNamenodeClient(cc grpc.ClientConnInterface) *DatanodeNamenodeClient {
	return &DatanodeNamenodeClient{cc: cc}
}

func (c *DatanodeNamenodeClient) Connection(ctx context.Context, req *ConnectionRequest) (*ConnectionResponse, error) {
	return invoke[ConnectionResponse](ctx, c.cc, "/ww.DatanodeNamenode/Connection", req)
}

func (c *DatanodeNamenodeClient) HeartBeat(ctx context.Context, req *HeartBeatRequest) (*HeartBeatResponse, error) {
	return invoke[HeartBeatResponse](ctx, c.cc, "/ww.DatanodeNamenode/HeartBeat", req)
}

func (c *DatanodeNamenodeClient) StateSync(ctx context.Context, req *StateSyncRequest) (*StateSyncResponse, error) {
	return invoke[StateSyncResponse](ctx, c.cc, "/ww.DatanodeNamenode/StateSync", req)
}

func (c *DatanodeNamenodeClient) StoreChunkTicket(ctx context.Context, req *StoreChunkTicketRequest) (*StoreChunkTicketResponse, error) {
	return invoke[StoreChunkTicketResponse](ctx, c.cc, "/ww.DatanodeNamenode/StoreChunkTicket", req)
}
