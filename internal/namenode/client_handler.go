package namenode

import (
	"context"
	"time"

	"github.com/Lovepreet67/whispering-woods/internal/logger"
	"github.com/Lovepreet67/whispering-woods/internal/namenode/ledger"
	"github.com/Lovepreet67/whispering-woods/internal/namenode/state"
	"github.com/Lovepreet67/whispering-woods/pkg/metrics"
	"github.com/Lovepreet67/whispering-woods/pkg/rpc"
	"github.com/Lovepreet67/whispering-woods/pkg/ticket"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ClientHandler serves the client-facing file operations.
type ClientHandler struct {
	st      *state.State
	planner ChunkPlanner
	policy  SelectionPolicy
	ledger  ledger.Recorder
	mint    *ticket.Mint
	metrics *metrics.NamenodeMetrics
}

// NewClientHandler wires the file-operation surface.
func NewClientHandler(st *state.State, planner ChunkPlanner, policy SelectionPolicy, rec ledger.Recorder, mint *ticket.Mint, m *metrics.NamenodeMetrics) *ClientHandler {
	return &ClientHandler{st: st, planner: planner, policy: policy, ledger: rec, mint: mint, metrics: m}
}

// StoreFile plans the chunk layout for a new file, records it in the
// ledger, places each chunk, and mints the first-hop ticket per chunk.
func (h *ClientHandler) StoreFile(ctx context.Context, req *rpc.StoreFileRequest) (*rpc.StoreFileResponse, error) {
	clientID, ok := rpc.NodeIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.PermissionDenied, "missing node id")
	}
	now := time.Now()
	chunks := h.planner.Plan(req.FileSize)
	logger.Debug("planned chunk layout", "file_name", req.FileName, "file_size", req.FileSize, "chunks", len(chunks))

	h.ledger.StoreFile(req.FileName, uint64(len(chunks)))
	chunkList := make([]rpc.ChunkMeta, 0, len(chunks))
	for i, chunk := range chunks {
		h.ledger.StoreChunk(req.FileName, uint64(i), chunk.ID, chunk.StartOffset, chunk.EndOffset)

		replicas, err := h.policy.DatanodesToStore(chunk.Size(), now)
		if err != nil {
			return nil, status.Errorf(codes.Internal, "placing chunk %s: %v", chunk.ID, err)
		}
		tkt, err := h.mint.MintTicket(clientID, replicas[0].ID, ticket.StoreChunk(chunk.ID))
		if err != nil {
			return nil, status.Errorf(codes.Internal, "minting ticket for chunk %s: %v", chunk.ID, err)
		}
		chunkList = append(chunkList, rpc.ChunkMeta{
			ID:          chunk.ID,
			StartOffset: chunk.StartOffset,
			EndOffset:   chunk.EndOffset,
			Locations:   toMetas(replicas),
			Ticket:      tkt,
		})
	}
	h.st.InstallFile(req.FileName, chunks)
	h.metrics.ObserveStoreFile(len(chunks))
	return &rpc.StoreFileResponse{FileName: req.FileName, ChunkList: chunkList}, nil
}

// FetchFile returns the chunk plan of an existing file, one serving
// replica and a read ticket per chunk.
func (h *ClientHandler) FetchFile(ctx context.Context, req *rpc.FetchFileRequest) (*rpc.FetchFileResponse, error) {
	clientID, ok := rpc.NodeIDFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.PermissionDenied, "missing node id")
	}
	now := time.Now()
	chunks, ok := h.st.FileChunks(req.FileName)
	if !ok {
		return nil, status.Errorf(codes.NotFound, "file %q not found", req.FileName)
	}
	chunkList := make([]rpc.ChunkMeta, 0, len(chunks))
	for i := range chunks {
		chunk := &chunks[i]
		serving, err := h.policy.DatanodeToServe(chunk, now)
		if err != nil {
			return nil, status.Errorf(codes.Internal, "selecting replica for chunk %s: %v", chunk.ID, err)
		}
		tkt, err := h.mint.MintTicket(clientID, serving.ID, ticket.FetchChunk(chunk.ID))
		if err != nil {
			return nil, status.Errorf(codes.Internal, "minting ticket for chunk %s: %v", chunk.ID, err)
		}
		chunkList = append(chunkList, rpc.ChunkMeta{
			ID:          chunk.ID,
			StartOffset: chunk.StartOffset,
			EndOffset:   chunk.EndOffset,
			Locations:   toMetas([]state.DatanodeDetail{serving}),
			Ticket:      tkt,
		})
	}
	return &rpc.FetchFileResponse{FileName: req.FileName, ChunkList: chunkList}, nil
}

// DeleteFile tombstones a file's chunks; storage reclamation rides the
// next state-sync of each holder.
func (h *ClientHandler) DeleteFile(ctx context.Context, req *rpc.DeleteFileRequest) (*rpc.DeleteFileResponse, error) {
	h.ledger.DeleteFile(req.FileName)
	ids, ok := h.st.RemoveFile(req.FileName, time.Now())
	if !ok {
		return &rpc.DeleteFileResponse{FilePresent: false}, nil
	}
	for _, id := range ids {
		h.ledger.DeleteChunk(req.FileName, id)
	}
	h.metrics.ObserveDeleteFile()
	logger.Info("file deleted", "file_name", req.FileName, "chunks", len(ids))
	return &rpc.DeleteFileResponse{FilePresent: true}, nil
}

func toMetas(nodes []state.DatanodeDetail) []rpc.DatanodeMeta {
	out := make([]rpc.DatanodeMeta, len(nodes))
	for i, d := range nodes {
		out[i] = rpc.DatanodeMeta{ID: d.ID, Name: d.Name, Addrs: d.GrpcAddrs}
	}
	return out
}

var _ rpc.ClientNamenodeServer = (*ClientHandler)(nil)
