package datanode

import (
	"context"
	"errors"
	"io"

	"github.com/Lovepreet67/whispering-woods/internal/logger"
	"github.com/Lovepreet67/whispering-woods/pkg/chunkstore"
	"github.com/Lovepreet67/whispering-woods/pkg/packet"
	"github.com/Lovepreet67/whispering-woods/pkg/pool"
	"github.com/Lovepreet67/whispering-woods/pkg/rpc"
	"github.com/Lovepreet67/whispering-woods/pkg/ticket"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Handler serves the datanode control plane for clients, peers, and
// the coordinator.
type Handler struct {
	state     *State
	store     chunkstore.Store
	decrypter ticket.Decrypter
	namenode  *NamenodeService
	peers     *PeerService
}

// NewHandler wires the control plane.
func NewHandler(st *State, store chunkstore.Store, decrypter ticket.Decrypter, namenode *NamenodeService, peers *PeerService) *Handler {
	return &Handler{state: st, store: store, decrypter: decrypter, namenode: namenode, peers: peers}
}

// authorize decrypts the request's ticket and verifies it against the
// invoked operation. Any mismatch is PermissionDenied.
func (h *Handler) authorize(ctx context.Context, chunkID string, kinds ...ticket.OperationKind) (string, error) {
	raw, ok := rpc.TicketFromContext(ctx)
	if !ok {
		return "", status.Error(codes.PermissionDenied, "missing ticket")
	}
	st, err := h.decrypter.DecryptServerTicket(raw)
	if err != nil {
		return "", status.Errorf(codes.PermissionDenied, "invalid ticket: %v", err)
	}
	var verifyErr error
	for _, kind := range kinds {
		if verifyErr = st.Verify(h.state.ID, kind, chunkID); verifyErr == nil {
			return raw, nil
		}
	}
	return "", status.Errorf(codes.PermissionDenied, "ticket rejected: %v", verifyErr)
}

// setupPipeline extends the write chain to the next replica: it asks
// the namenode for a hop ticket, sends CreatePipeline down the chain,
// and registers the downstream TCP connection for the incoming write.
func (h *Handler) setupPipeline(ctx context.Context, chunkID string, replicaSet []rpc.DatanodeMeta) error {
	next := replicaSet[0]
	clientTicket, err := h.namenode.StoreChunkTicket(ctx, next.ID, chunkID)
	if err != nil {
		return status.Errorf(codes.Unavailable, "requesting pipeline ticket: %v", err)
	}
	// The namenode seals the grant for us; the inner envelope is what
	// the next replica can open.
	ct, err := h.decrypter.DecryptClientTicket(clientTicket)
	if err != nil {
		return status.Errorf(codes.Internal, "opening pipeline ticket: %v", err)
	}
	hopTicket := ct.EncryptedServerTicket

	tcpAddr, err := h.peers.CreatePipeline(ctx, next, chunkID, replicaSet[1:], hopTicket)
	if err != nil {
		return status.Errorf(codes.Unavailable, "extending pipeline: %v", err)
	}
	conn, err := pool.TCP().Dial(tcpAddr)
	if err != nil {
		return status.Errorf(codes.Unavailable, "dialing downstream data plane: %v", err)
	}
	h.state.RegisterPipeline(chunkID, conn, next.Addrs, hopTicket)
	logger.Debug("pipeline extended", "chunk_id", chunkID, "next_replica", next.ID, "tcp_addr", tcpAddr)
	return nil
}

// StoreChunk prepares this node to receive a chunk. With more than one
// replica left in the set it first builds the downstream pipeline;
// the reply is always this node's data-plane address.
func (h *Handler) StoreChunk(ctx context.Context, req *rpc.StoreChunkRequest) (*rpc.StoreChunkResponse, error) {
	if _, err := h.authorize(ctx, req.ChunkID, ticket.OpStoreChunk); err != nil {
		return nil, err
	}
	if len(req.ReplicaSet) > 1 {
		if err := h.setupPipeline(ctx, req.ChunkID, req.ReplicaSet[1:]); err != nil {
			return nil, err
		}
	}
	return &rpc.StoreChunkResponse{Address: h.state.TCPAddrs}, nil
}

// CreatePipeline is the peer-facing twin of StoreChunk: it recursively
// extends the chain and reports this node's data-plane address.
func (h *Handler) CreatePipeline(ctx context.Context, req *rpc.CreatePipelineRequest) (*rpc.CreatePipelineResponse, error) {
	if _, err := h.authorize(ctx, req.ChunkID, ticket.OpCreatePipeline); err != nil {
		return nil, err
	}
	if len(req.ReplicaSet) > 1 {
		if err := h.setupPipeline(ctx, req.ChunkID, req.ReplicaSet[1:]); err != nil {
			return nil, err
		}
	}
	return &rpc.CreatePipelineResponse{Address: h.state.TCPAddrs}, nil
}

// CommitChunk promotes the staged chunk. When a downstream replica is
// registered the commit travels tail-first: this node promotes only
// after the rest of the chain reported success, so the client sees
// success only if every replica committed.
func (h *Handler) CommitChunk(ctx context.Context, req *rpc.CommitChunkRequest) (*rpc.CommitChunkResponse, error) {
	if _, err := h.authorize(ctx, req.ChunkID, ticket.OpStoreChunk, ticket.OpCreatePipeline); err != nil {
		return nil, err
	}
	if nextAddr, hopTicket, ok := h.state.TakeNextReplica(req.ChunkID); ok {
		committed, err := h.peers.CommitChunk(ctx, nextAddr, req.ChunkID, hopTicket)
		if err != nil {
			return nil, status.Errorf(codes.Unavailable, "forwarding commit: %v", err)
		}
		if !committed {
			return nil, status.Errorf(codes.Internal, "downstream replica failed to commit chunk %s", req.ChunkID)
		}
	}
	committed, err := h.store.Commit(ctx, req.ChunkID)
	if err != nil {
		if errors.Is(err, chunkstore.ErrNotStaged) {
			return nil, status.Errorf(codes.NotFound, "chunk %s is not staged", req.ChunkID)
		}
		return nil, status.Errorf(codes.Internal, "committing chunk %s: %v", req.ChunkID, err)
	}
	logger.Info("chunk committed", "chunk_id", req.ChunkID)
	return &rpc.CommitChunkResponse{Committed: committed}, nil
}

// FetchChunk confirms this node serves the chunk and returns the
// data-plane address to read it from.
func (h *Handler) FetchChunk(ctx context.Context, req *rpc.FetchChunkRequest) (*rpc.FetchChunkResponse, error) {
	if _, err := h.authorize(ctx, req.ChunkID, ticket.OpFetchChunk); err != nil {
		return nil, err
	}
	if !h.state.HasChunk(req.ChunkID) {
		// The local cache refreshes every few seconds; consult the
		// store before refusing.
		if _, err := h.store.Size(ctx, req.ChunkID); err != nil {
			return nil, status.Errorf(codes.NotFound, "chunk %s not available", req.ChunkID)
		}
	}
	return &rpc.FetchChunkResponse{Address: h.state.TCPAddrs}, nil
}

// ReplicateChunk streams this node's committed copy to the target and
// commits it there. The request's embedded ticket is the capability
// this node presents on the target's store/commit surface.
func (h *Handler) ReplicateChunk(ctx context.Context, req *rpc.ReplicateChunkRequest) (*rpc.ReplicateChunkResponse, error) {
	if _, err := h.authorize(ctx, req.ChunkID, ticket.OpReplicateChunk); err != nil {
		return nil, err
	}
	ct, err := h.decrypter.DecryptClientTicket(req.Ticket)
	if err != nil {
		return nil, status.Errorf(codes.PermissionDenied, "invalid replication ticket: %v", err)
	}
	hopTicket := ct.EncryptedServerTicket

	size, err := h.store.Size(ctx, req.ChunkID)
	if err != nil {
		return nil, status.Errorf(codes.NotFound, "chunk %s not available on source: %v", req.ChunkID, err)
	}
	tcpAddr, err := h.peers.StoreChunk(ctx, req.Target, req.ChunkID, hopTicket)
	if err != nil {
		return nil, status.Errorf(codes.Unavailable, "preparing target: %v", err)
	}
	if err := h.streamChunk(ctx, req.ChunkID, size, tcpAddr, hopTicket); err != nil {
		return nil, status.Errorf(codes.Unavailable, "streaming to target: %v", err)
	}
	committed, err := h.peers.CommitChunk(ctx, req.Target.Addrs, req.ChunkID, hopTicket)
	if err != nil {
		return nil, status.Errorf(codes.Unavailable, "committing on target: %v", err)
	}
	logger.Info("chunk replicated", "chunk_id", req.ChunkID, "target", req.Target.ID)
	return &rpc.ReplicateChunkResponse{Replicated: committed}, nil
}

// streamChunk pushes the committed chunk over a fresh data-plane
// connection and checks the byte receipt.
func (h *Handler) streamChunk(ctx context.Context, chunkID string, size int64, tcpAddr, hopTicket string) error {
	conn, err := pool.TCP().Dial(tcpAddr)
	if err != nil {
		return err
	}
	defer conn.Close()

	header := packet.New()
	header.Set(packet.KeyMode, packet.ModeWrite)
	header.Set(packet.KeyChunkID, chunkID)
	header.SetInt(packet.KeyChunkSize, size)
	header.Set(packet.KeyTicket, hopTicket)
	if _, err := header.WriteTo(conn); err != nil {
		return err
	}

	r, err := h.store.Read(ctx, chunkID)
	if err != nil {
		return err
	}
	defer r.Close()
	if _, err := io.Copy(conn, r); err != nil {
		return err
	}
	reply, err := packet.Decode(conn)
	if err != nil {
		return err
	}
	received, err := reply.GetInt(packet.KeyBytesReceived)
	if err != nil {
		return err
	}
	if received != size {
		return status.Errorf(codes.Internal, "target received %d of %d bytes for chunk %s", received, size, chunkID)
	}
	return nil
}

// DeleteChunk drops the local committed copy.
func (h *Handler) DeleteChunk(ctx context.Context, req *rpc.DeleteChunkRequest) (*rpc.DeleteChunkResponse, error) {
	if _, err := h.authorize(ctx, req.ChunkID, ticket.OpDeleteChunk); err != nil {
		return nil, err
	}
	existed, err := h.store.Delete(ctx, req.ChunkID)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "deleting chunk %s: %v", req.ChunkID, err)
	}
	logger.Info("chunk deleted", "chunk_id", req.ChunkID, "existed", existed)
	return &rpc.DeleteChunkResponse{Existed: existed}, nil
}

var _ rpc.DatanodeServer = (*Handler)(nil)
