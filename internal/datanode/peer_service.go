package datanode

import (
	"context"
	"fmt"

	"github.com/Lovepreet67/whispering-woods/pkg/pool"
	"github.com/Lovepreet67/whispering-woods/pkg/retry"
	"github.com/Lovepreet67/whispering-woods/pkg/rpc"
)

// PeerService issues calls to other datanodes: pipeline setup down the
// replica chain, commit propagation, and the replication target's
// store/commit pair.
type PeerService struct{}

// NewPeerService returns the peer call surface.
func NewPeerService() *PeerService {
	return &PeerService{}
}

func (p *PeerService) client(addrs string) (*rpc.DatanodeClient, error) {
	conn, err := pool.Grpc().Channel(addrs)
	if err != nil {
		return nil, err
	}
	return rpc.NewDatanodeClient(conn), nil
}

// CreatePipeline asks the next replica to extend the chain and returns
// the TCP address this node should stream to. hopTicket is the server
// ticket authorizing the hop.
func (p *PeerService) CreatePipeline(ctx context.Context, next rpc.DatanodeMeta, chunkID string, rest []rpc.DatanodeMeta, hopTicket string) (string, error) {
	client, err := p.client(next.Addrs)
	if err != nil {
		return "", err
	}
	var resp *rpc.CreatePipelineResponse
	err = retry.Do(ctx, 3, retry.DefaultBase, func() error {
		var callErr error
		resp, callErr = client.CreatePipeline(rpc.WithTicket(ctx, hopTicket), &rpc.CreatePipelineRequest{
			ChunkID:    chunkID,
			ReplicaSet: append([]rpc.DatanodeMeta{next}, rest...),
		})
		return callErr
	})
	if err != nil {
		return "", fmt.Errorf("create pipeline on %s: %w", next.ID, err)
	}
	return resp.Address, nil
}

// StoreChunk asks a replication target to accept a single-replica
// write and returns its TCP address.
func (p *PeerService) StoreChunk(ctx context.Context, target rpc.DatanodeMeta, chunkID, hopTicket string) (string, error) {
	client, err := p.client(target.Addrs)
	if err != nil {
		return "", err
	}
	var resp *rpc.StoreChunkResponse
	err = retry.Do(ctx, 3, retry.DefaultBase, func() error {
		var callErr error
		resp, callErr = client.StoreChunk(rpc.WithTicket(ctx, hopTicket), &rpc.StoreChunkRequest{
			ChunkID:    chunkID,
			ReplicaSet: []rpc.DatanodeMeta{target},
		})
		return callErr
	})
	if err != nil {
		return "", fmt.Errorf("store chunk on %s: %w", target.ID, err)
	}
	return resp.Address, nil
}

// CommitChunk forwards a commit to addrs with the stored hop ticket.
func (p *PeerService) CommitChunk(ctx context.Context, addrs, chunkID, hopTicket string) (bool, error) {
	client, err := p.client(addrs)
	if err != nil {
		return false, err
	}
	var resp *rpc.CommitChunkResponse
	err = retry.Do(ctx, 3, retry.DefaultBase, func() error {
		var callErr error
		resp, callErr = client.CommitChunk(rpc.WithTicket(ctx, hopTicket), &rpc.CommitChunkRequest{ChunkID: chunkID})
		return callErr
	})
	if err != nil {
		return false, fmt.Errorf("commit chunk via %s: %w", addrs, err)
	}
	return resp.Committed, nil
}
