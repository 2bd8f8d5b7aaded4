package namenode

import (
	"context"
	"fmt"

	"github.com/Lovepreet67/whispering-woods/internal/namenode/state"
	"github.com/Lovepreet67/whispering-woods/pkg/pool"
	"github.com/Lovepreet67/whispering-woods/pkg/rpc"
	"github.com/Lovepreet67/whispering-woods/pkg/ticket"
)

// DatanodeService issues the coordinator-initiated datanode calls used
// by the reconciliation loop. Transports come from the shared channel
// pool so the coordinator never owns a datanode's lifecycle.
type DatanodeService struct {
	namenodeID string
	mint       *ticket.Mint
}

// NewDatanodeService wires the repair dispatcher.
func NewDatanodeService(namenodeID string, mint *ticket.Mint) *DatanodeService {
	return &DatanodeService{namenodeID: namenodeID, mint: mint}
}

func (s *DatanodeService) client(addrs string) (*rpc.DatanodeClient, error) {
	conn, err := pool.Grpc().Channel(addrs)
	if err != nil {
		return nil, err
	}
	return rpc.NewDatanodeClient(conn), nil
}

// DeleteChunk asks holder to drop its copy of chunkID.
func (s *DatanodeService) DeleteChunk(ctx context.Context, holder state.DatanodeDetail, chunkID string) error {
	tkt, err := s.mint.MintTicket(s.namenodeID, holder.ID, ticket.DeleteChunk(chunkID))
	if err != nil {
		return fmt.Errorf("minting delete ticket: %w", err)
	}
	client, err := s.client(holder.GrpcAddrs)
	if err != nil {
		return err
	}
	_, err = client.DeleteChunk(rpc.WithTicket(ctx, tkt), &rpc.DeleteChunkRequest{ChunkID: chunkID})
	if err != nil {
		return fmt.Errorf("delete chunk %s on %s: %w", chunkID, holder.ID, err)
	}
	return nil
}

// ReplicateChunk asks source to copy chunkID onto target. The request
// carries two capabilities: one authorizing the call itself, and one —
// bound to the source as caller — that the source uses against the
// target's StoreChunk/CommitChunk surface.
func (s *DatanodeService) ReplicateChunk(ctx context.Context, source, target state.DatanodeDetail, chunkID string) error {
	callTicket, err := s.mint.MintTicket(s.namenodeID, source.ID, ticket.ReplicateChunk(chunkID))
	if err != nil {
		return fmt.Errorf("minting replicate ticket: %w", err)
	}
	hopTicket, err := s.mint.MintTicket(source.ID, target.ID, ticket.StoreChunk(chunkID))
	if err != nil {
		return fmt.Errorf("minting replica store ticket: %w", err)
	}
	client, err := s.client(source.GrpcAddrs)
	if err != nil {
		return err
	}
	_, err = client.ReplicateChunk(rpc.WithTicket(ctx, callTicket), &rpc.ReplicateChunkRequest{
		ChunkID: chunkID,
		Target:  rpc.DatanodeMeta{ID: target.ID, Name: target.Name, Addrs: target.GrpcAddrs},
		Ticket:  hopTicket,
	})
	if err != nil {
		return fmt.Errorf("replicate chunk %s from %s to %s: %w", chunkID, source.ID, target.ID, err)
	}
	return nil
}
