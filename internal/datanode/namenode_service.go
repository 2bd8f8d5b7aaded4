package datanode

import (
	"context"
	"fmt"

	"github.com/Lovepreet67/whispering-woods/pkg/pool"
	"github.com/Lovepreet67/whispering-woods/pkg/rpc"
)

// NamenodeService is the datanode's client side of the coordinator:
// registration, heartbeats, state sync, and peer-ticket requests.
type NamenodeService struct {
	namenodeAddrs string
	state         *State
}

// NewNamenodeService wires the coordinator call surface.
func NewNamenodeService(namenodeAddrs string, st *State) *NamenodeService {
	return &NamenodeService{namenodeAddrs: namenodeAddrs, state: st}
}

func (n *NamenodeService) client() (*rpc.DatanodeNamenodeClient, error) {
	conn, err := pool.Grpc().Channel(n.namenodeAddrs)
	if err != nil {
		return nil, err
	}
	return rpc.NewDatanodeNamenodeClient(conn), nil
}

// Connect registers this node with the coordinator.
func (n *NamenodeService) Connect(ctx context.Context) error {
	client, err := n.client()
	if err != nil {
		return err
	}
	resp, err := client.Connection(ctx, &rpc.ConnectionRequest{
		ID:    n.state.ID,
		Name:  n.state.Name,
		Addrs: n.state.GrpcAddrs,
	})
	if err != nil {
		return fmt.Errorf("connecting to namenode: %w", err)
	}
	if !resp.Connected {
		return fmt.Errorf("namenode refused connection: %s", resp.Msg)
	}
	return nil
}

// HeartBeat refreshes this node's liveness window.
func (n *NamenodeService) HeartBeat(ctx context.Context) error {
	client, err := n.client()
	if err != nil {
		return err
	}
	if _, err := client.HeartBeat(ctx, &rpc.HeartBeatRequest{DatanodeID: n.state.ID}); err != nil {
		return fmt.Errorf("sending heartbeat: %w", err)
	}
	return nil
}

// StateSync reports the committed chunk set and free space; the reply
// lists chunks to delete locally.
func (n *NamenodeService) StateSync(ctx context.Context, chunks []string, freeStorage uint64) ([]string, error) {
	client, err := n.client()
	if err != nil {
		return nil, err
	}
	resp, err := client.StateSync(ctx, &rpc.StateSyncRequest{
		ID:               n.state.ID,
		AvailableChunks:  chunks,
		AvailableStorage: freeStorage,
	})
	if err != nil {
		return nil, fmt.Errorf("sending state sync: %w", err)
	}
	return resp.ChunksToBeDeleted, nil
}

// StoreChunkTicket requests the capability this node needs to extend a
// pipeline to targetID.
func (n *NamenodeService) StoreChunkTicket(ctx context.Context, targetID, chunkID string) (string, error) {
	client, err := n.client()
	if err != nil {
		return "", err
	}
	resp, err := client.StoreChunkTicket(ctx, &rpc.StoreChunkTicketRequest{
		SourceID: n.state.ID,
		TargetID: targetID,
		ChunkID:  chunkID,
	})
	if err != nil {
		return "", fmt.Errorf("requesting pipeline ticket: %w", err)
	}
	return resp.Ticket, nil
}
