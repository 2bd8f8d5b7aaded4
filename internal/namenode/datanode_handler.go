package namenode

import (
	"context"
	"time"

	"github.com/Lovepreet67/whispering-woods/internal/logger"
	"github.com/Lovepreet67/whispering-woods/internal/namenode/state"
	"github.com/Lovepreet67/whispering-woods/pkg/rpc"
	"github.com/Lovepreet67/whispering-woods/pkg/ticket"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// DatanodeHandler serves the datanode-facing registration, liveness,
// state-sync, and peer-ticket operations.
type DatanodeHandler struct {
	st   *state.State
	mint *ticket.Mint
}

// NewDatanodeHandler wires the datanode surface.
func NewDatanodeHandler(st *state.State, mint *ticket.Mint) *DatanodeHandler {
	return &DatanodeHandler{st: st, mint: mint}
}

// Connection registers a datanode. A duplicate of an active node is
// refused; a stale node re-registers in place.
func (h *DatanodeHandler) Connection(ctx context.Context, req *rpc.ConnectionRequest) (*rpc.ConnectionResponse, error) {
	connected, msg := h.st.RegisterDatanode(req.ID, req.Name, req.Addrs, time.Now())
	if connected {
		logger.Info("datanode connected", "datanode_id", req.ID, "addrs", req.Addrs)
	} else {
		logger.Warn("datanode connection refused", "datanode_id", req.ID, "reason", msg)
	}
	return &rpc.ConnectionResponse{Connected: connected, Msg: msg}, nil
}

// HeartBeat refreshes a node's liveness window.
func (h *DatanodeHandler) HeartBeat(ctx context.Context, req *rpc.HeartBeatRequest) (*rpc.HeartBeatResponse, error) {
	alive := h.st.Heartbeat(req.DatanodeID, time.Now())
	return &rpc.HeartBeatResponse{ConnectionAlive: alive}, nil
}

// StateSync reconciles a node's chunk report and returns the chunks it
// should delete locally.
func (h *DatanodeHandler) StateSync(ctx context.Context, req *rpc.StateSyncRequest) (*rpc.StateSyncResponse, error) {
	toDelete := h.st.ApplyStateSync(req.ID, req.AvailableChunks, req.AvailableStorage, time.Now())
	if len(toDelete) > 0 {
		logger.Debug("state sync returning deletions", "datanode_id", req.ID, "chunks", len(toDelete))
	}
	return &rpc.StateSyncResponse{ChunksToBeDeleted: toDelete}, nil
}

// StoreChunkTicket mints the peer-hop capability a datanode needs to
// extend a write pipeline to the next replica.
func (h *DatanodeHandler) StoreChunkTicket(ctx context.Context, req *rpc.StoreChunkTicketRequest) (*rpc.StoreChunkTicketResponse, error) {
	tkt, err := h.mint.MintTicket(req.SourceID, req.TargetID, ticket.CreatePipeline(req.ChunkID))
	if err != nil {
		return nil, status.Errorf(codes.Internal, "minting pipeline ticket: %v", err)
	}
	return &rpc.StoreChunkTicketResponse{Ticket: tkt}, nil
}

var _ rpc.DatanodeNamenodeServer = (*DatanodeHandler)(nil)
