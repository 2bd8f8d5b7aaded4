package namenode

import (
	"context"
	"testing"
	"time"

	"github.com/Lovepreet67/whispering-woods/internal/namenode/state"
	"github.com/Lovepreet67/whispering-woods/pkg/rpc"
	"github.com/Lovepreet67/whispering-woods/pkg/ticket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// nopRecorder satisfies ledger.Recorder for handler tests.
type nopRecorder struct{}

func (nopRecorder) StoreFile(string, uint64)                          {}
func (nopRecorder) StoreChunk(string, uint64, string, uint64, uint64) {}
func (nopRecorder) DeleteFile(string)                                 {}
func (nopRecorder) DeleteChunk(string, string)                        {}
func (nopRecorder) NodeKey(string, string)                            {}

type handlerFixture struct {
	handler   *ClientHandler
	st        *state.State
	mint      *ticket.Mint
	clientDec ticket.Decrypter
	nodeDecs  map[string]ticket.Decrypter
}

func newHandlerFixture(t *testing.T, datanodes ...string) *handlerFixture {
	t.Helper()
	st := state.New()
	mint := ticket.NewMint(ticket.NewAESGenerator())

	clientKey, err := mint.AddNodeKey("client-1")
	require.NoError(t, err)
	clientDec, err := ticket.NewAESDecrypter(clientKey)
	require.NoError(t, err)

	now := time.Now()
	nodeDecs := make(map[string]ticket.Decrypter)
	for _, id := range datanodes {
		key, err := mint.AddNodeKey(id)
		require.NoError(t, err)
		nodeDecs[id], err = ticket.NewAESDecrypter(key)
		require.NoError(t, err)
		st.RegisterDatanode(id, id, "addr-"+id, now)
		st.ApplyStateSync(id, nil, 1<<40, now)
	}

	policy := NewFirstFitPolicy(st, 3)
	handler := NewClientHandler(st, NewUUIDChunker(), policy, nopRecorder{}, mint, nil)
	return &handlerFixture{handler: handler, st: st, mint: mint, clientDec: clientDec, nodeDecs: nodeDecs}
}

// clientCtx mimics an inbound request carrying the caller's node id.
func clientCtx() context.Context {
	md := metadata.Pairs(rpc.NodeIDMetadataKey, "client-1")
	return metadata.NewIncomingContext(context.Background(), md)
}

func TestStoreFilePlansAndMints(t *testing.T) {
	fx := newHandlerFixture(t, "dn-1", "dn-2", "dn-3")

	resp, err := fx.handler.StoreFile(clientCtx(), &rpc.StoreFileRequest{FileName: "report.pdf", FileSize: MaxChunkSize + 1})
	require.NoError(t, err)
	require.Len(t, resp.ChunkList, 2)

	for _, chunk := range resp.ChunkList {
		require.Len(t, chunk.Locations, 3)
		first := chunk.Locations[0]

		// The outer envelope opens under the client's key; the inner
		// one verifies on the first replica for exactly this chunk.
		ct, err := fx.clientDec.DecryptClientTicket(chunk.Ticket)
		require.NoError(t, err)
		st, err := fx.nodeDecs[first.ID].DecryptServerTicket(ct.EncryptedServerTicket)
		require.NoError(t, err)
		assert.NoError(t, st.Verify(first.ID, ticket.OpStoreChunk, chunk.ID))
		assert.Error(t, st.Verify(first.ID, ticket.OpFetchChunk, chunk.ID))
	}

	// The plan is registered in metadata.
	chunks, ok := fx.st.FileChunks("report.pdf")
	require.True(t, ok)
	assert.Len(t, chunks, 2)
}

func TestStoreFileRequiresNodeID(t *testing.T) {
	fx := newHandlerFixture(t, "dn-1")
	_, err := fx.handler.StoreFile(context.Background(), &rpc.StoreFileRequest{FileName: "f", FileSize: 10})
	require.Error(t, err)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
}

func TestFetchFileUnknownName(t *testing.T) {
	fx := newHandlerFixture(t, "dn-1")
	_, err := fx.handler.FetchFile(clientCtx(), &rpc.FetchFileRequest{FileName: "missing"})
	require.Error(t, err)
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestFetchFileReturnsServingReplica(t *testing.T) {
	fx := newHandlerFixture(t, "dn-1", "dn-2", "dn-3")
	stored, err := fx.handler.StoreFile(clientCtx(), &rpc.StoreFileRequest{FileName: "f", FileSize: 10})
	require.NoError(t, err)
	chunkID := stored.ChunkList[0].ID

	// dn-2 reports a committed copy.
	fx.st.ApplyStateSync("dn-2", []string{chunkID}, 1<<40, time.Now())

	resp, err := fx.handler.FetchFile(clientCtx(), &rpc.FetchFileRequest{FileName: "f"})
	require.NoError(t, err)
	require.Len(t, resp.ChunkList, 1)
	require.Len(t, resp.ChunkList[0].Locations, 1)
	assert.Equal(t, "dn-2", resp.ChunkList[0].Locations[0].ID)

	// The fetch ticket verifies on the serving node for a read.
	ct, err := fx.clientDec.DecryptClientTicket(resp.ChunkList[0].Ticket)
	require.NoError(t, err)
	st, err := fx.nodeDecs["dn-2"].DecryptServerTicket(ct.EncryptedServerTicket)
	require.NoError(t, err)
	assert.NoError(t, st.Verify("dn-2", ticket.OpFetchChunk, chunkID))
}

func TestFetchFileNoActiveLocation(t *testing.T) {
	fx := newHandlerFixture(t, "dn-1")
	_, err := fx.handler.StoreFile(clientCtx(), &rpc.StoreFileRequest{FileName: "f", FileSize: 10})
	require.NoError(t, err)

	// No datanode ever reported the chunk: fetch cannot be served.
	_, err = fx.handler.FetchFile(clientCtx(), &rpc.FetchFileRequest{FileName: "f"})
	require.Error(t, err)
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestDeleteFileTombstonesChunks(t *testing.T) {
	fx := newHandlerFixture(t, "dn-1")
	stored, err := fx.handler.StoreFile(clientCtx(), &rpc.StoreFileRequest{FileName: "f", FileSize: 10})
	require.NoError(t, err)
	chunkID := stored.ChunkList[0].ID

	resp, err := fx.handler.DeleteFile(clientCtx(), &rpc.DeleteFileRequest{FileName: "f"})
	require.NoError(t, err)
	assert.True(t, resp.FilePresent)

	// The chunk record is now a tombstone: the next state sync from a
	// holder returns it for deletion.
	toDelete := fx.st.ApplyStateSync("dn-1", []string{chunkID}, 1<<40, time.Now())
	assert.Equal(t, []string{chunkID}, toDelete)

	// Deleting an absent file reports absence.
	resp, err = fx.handler.DeleteFile(clientCtx(), &rpc.DeleteFileRequest{FileName: "f"})
	require.NoError(t, err)
	assert.False(t, resp.FilePresent)
}
