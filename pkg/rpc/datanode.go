package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// DatanodeServer is the storage node surface. Clients call StoreChunk,
// CommitChunk, and FetchChunk; peers additionally call CreatePipeline;
// the namenode calls ReplicateChunk and DeleteChunk.
type DatanodeServer interface {
	StoreChunk(ctx context.Context, req *StoreChunkRequest) (*StoreChunkResponse, error)
	CommitChunk(ctx context.Context, req *CommitChunkRequest) (*CommitChunkResponse, error)
	FetchChunk(ctx context.Context, req *FetchChunkRequest) (*FetchChunkResponse, error)
	CreatePipeline(ctx context.Context, req *CreatePipelineRequest) (*CreatePipelineResponse, error)
	ReplicateChunk(ctx context.Context, req *ReplicateChunkRequest) (*ReplicateChunkResponse, error)
	DeleteChunk(ctx context.Context, req *DeleteChunkRequest) (*DeleteChunkResponse, error)
}

const datanodeService = "ww.Datanode"

var datanodeDesc = grpc.ServiceDesc{
	ServiceName: datanodeService,
	HandlerType: (*DatanodeServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "StoreChunk", Handler: unary("/ww.Datanode/StoreChunk", func(srv any, ctx context.Context, req *StoreChunkRequest) (*StoreChunkResponse, error) {
			return srv.(DatanodeServer).StoreChunk(ctx, req)
		})},
		{MethodName: "CommitChunk", Handler: unary("/ww.Datanode/CommitChunk", func(srv any, ctx context.Context, req *CommitChunkRequest) (*CommitChunkResponse, error) {
			return srv.(DatanodeServer).CommitChunk(ctx, req)
		})},
		{MethodName: "FetchChunk", Handler: unary("/ww.Datanode/FetchChunk", func(srv any, ctx context.Context, req *FetchChunkRequest) (*FetchChunkResponse, error) {
			return srv.(DatanodeServer).FetchChunk(ctx, req)
		})},
		{MethodName: "CreatePipeline", Handler: unary("/ww.Datanode/CreatePipeline", func(srv any, ctx context.Context, req *CreatePipelineRequest) (*CreatePipelineResponse, error) {
			return srv.(DatanodeServer).CreatePipeline(ctx, req)
		})},
		{MethodName: "ReplicateChunk", Handler: unary("/ww.Datanode/ReplicateChunk", func(srv any, ctx context.Context, req *ReplicateChunkRequest) (*ReplicateChunkResponse, error) {
			return srv.(DatanodeServer).ReplicateChunk(ctx, req)
		})},
		{MethodName: "DeleteChunk", Handler: unary("/ww.Datanode/DeleteChunk", func(srv any, ctx context.Context, req *DeleteChunkRequest) (*DeleteChunkResponse, error) {
			return srv.(DatanodeServer).DeleteChunk(ctx, req)
		})},
	},
}

// RegisterDatanodeServer registers srv on s.
func RegisterDatanodeServer(s *grpc.Server, srv DatanodeServer) {
	s.RegisterService(&datanodeDesc, srv)
}

// DatanodeClient is a typed client for ww.Datanode.
type DatanodeClient struct {
	cc grpc.ClientConnInterface
}

// NewDatanodeClient creates a client bound to a connection.
func NewDatanodeClient(cc grpc.ClientConnInterface) *DatanodeClient {
	return &DatanodeClient{cc: cc}
}

func (c *DatanodeClient) StoreChunk(ctx context.Context, req *StoreChunkRequest) (*StoreChunkResponse, error) {
	return invoke[StoreChunkResponse](ctx, c.cc, "/ww.Datanode/StoreChunk", req)
}

func (c *DatanodeClient) CommitChunk(ctx context.Context, req *CommitChunkRequest) (*CommitChunkResponse, error) {
	return invoke[CommitChunkResponse](ctx, c.cc, "/ww.Datanode/CommitChunk", req)
}

func (c *DatanodeClient) FetchChunk(ctx context.Context, req *FetchChunkRequest) (*FetchChunkResponse, error) {
	return invoke[FetchChunkResponse](ctx, c.cc, "/ww.Datanode/FetchChunk", req)
}

func (c *DatanodeClient) CreatePipeline(ctx context.Context, req *CreatePipelineRequest) (*CreatePipelineResponse, error) {
	return invoke[CreatePipelineResponse](ctx, c.cc, "/ww.Datanode/CreatePipeline", req)
}

func (c *DatanodeClient) ReplicateChunk(ctx context.Context, req *ReplicateChunkRequest) (*ReplicateChunkResponse, error) {
	return invoke[ReplicateChunkResponse](ctx, c.cc, "/ww.Datanode/ReplicateChunk", req)
}

func (c *DatanodeClient) DeleteChunk(ctx context.Context, req *DeleteChunkRequest) (*DeleteChunkResponse, error) {
	return invoke[DeleteChunkResponse](ctx, c.cc, "/ww.Datanode/DeleteChunk", req)
}
