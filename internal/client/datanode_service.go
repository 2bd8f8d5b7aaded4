package client

import (
	"context"
	"fmt"
	"io"
	"net"

	"github.com/Lovepreet67/whispering-woods/pkg/packet"
	"github.com/Lovepreet67/whispering-woods/pkg/pool"
	"github.com/Lovepreet67/whispering-woods/pkg/rpc"
)

// DatanodeService is the client's data-plane surface: it drives the
// gRPC store/fetch/commit handshakes and the framed TCP transfers.
type DatanodeService struct{}

// NewDatanodeService returns the datanode call surface.
func NewDatanodeService() *DatanodeService {
	return &DatanodeService{}
}

func (d *DatanodeService) client(addrs string) (*rpc.DatanodeClient, error) {
	conn, err := pool.Grpc().Channel(addrs)
	if err != nil {
		return nil, err
	}
	return rpc.NewDatanodeClient(conn), nil
}

// StoreChunk pushes one chunk through the replica pipeline: the gRPC
// StoreChunk handshake sets the pipeline up and returns the TCP
// address; the framed transfer follows; the byte receipt must match;
// CommitChunk promotes the chunk on every replica tail-first.
func (d *DatanodeService) StoreChunk(ctx context.Context, chunk rpc.ChunkMeta, serverTicket string, r io.Reader) error {
	if len(chunk.Locations) == 0 {
		return fmt.Errorf("chunk %s: empty replica set", chunk.ID)
	}
	first := chunk.Locations[0]
	client, err := d.client(first.Addrs)
	if err != nil {
		return err
	}
	resp, err := client.StoreChunk(rpc.WithTicket(ctx, serverTicket), &rpc.StoreChunkRequest{
		ChunkID:    chunk.ID,
		ReplicaSet: chunk.Locations,
	})
	if err != nil {
		return fmt.Errorf("store handshake with %s: %w", first.ID, err)
	}

	size := int64(chunk.EndOffset - chunk.StartOffset)
	conn, err := pool.TCP().Dial(resp.Address)
	if err != nil {
		return err
	}
	defer conn.Close()
	received, err := d.streamWrite(conn, chunk.ID, size, serverTicket, r)
	if err != nil {
		return err
	}
	if received != size {
		return fmt.Errorf("chunk %s: pipeline received %d of %d bytes", chunk.ID, received, size)
	}

	commit, err := client.CommitChunk(rpc.WithTicket(ctx, serverTicket), &rpc.CommitChunkRequest{ChunkID: chunk.ID})
	if err != nil {
		return fmt.Errorf("committing chunk %s: %w", chunk.ID, err)
	}
	if !commit.Committed {
		return fmt.Errorf("chunk %s: replica chain refused commit", chunk.ID)
	}
	return nil
}

func (d *DatanodeService) streamWrite(conn net.Conn, chunkID string, size int64, serverTicket string, r io.Reader) (int64, error) {
	header := packet.New()
	header.Set(packet.KeyMode, packet.ModeWrite)
	header.Set(packet.KeyChunkID, chunkID)
	header.SetInt(packet.KeyChunkSize, size)
	header.Set(packet.KeyTicket, serverTicket)
	if _, err := header.WriteTo(conn); err != nil {
		return 0, fmt.Errorf("sending write header: %w", err)
	}
	if _, err := io.Copy(conn, r); err != nil {
		return 0, fmt.Errorf("streaming chunk %s: %w", chunkID, err)
	}
	reply, err := packet.Decode(conn)
	if err != nil {
		return 0, fmt.Errorf("reading byte receipt: %w", err)
	}
	return reply.GetInt(packet.KeyBytesReceived)
}

// FetchChunk performs the gRPC fetch handshake with the serving
// replica and returns the TCP connection positioned at the start of
// the chunk bytes. The caller owns the connection.
func (d *DatanodeService) FetchChunk(ctx context.Context, chunk rpc.ChunkMeta, serverTicket string) (io.ReadCloser, error) {
	if len(chunk.Locations) == 0 {
		return nil, fmt.Errorf("chunk %s: no serving replica", chunk.ID)
	}
	serving := chunk.Locations[0]
	client, err := d.client(serving.Addrs)
	if err != nil {
		return nil, err
	}
	resp, err := client.FetchChunk(rpc.WithTicket(ctx, serverTicket), &rpc.FetchChunkRequest{ChunkID: chunk.ID})
	if err != nil {
		return nil, fmt.Errorf("fetch handshake with %s: %w", serving.ID, err)
	}
	conn, err := pool.TCP().Dial(resp.Address)
	if err != nil {
		return nil, err
	}
	header := packet.New()
	header.Set(packet.KeyMode, packet.ModeRead)
	header.Set(packet.KeyChunkID, chunk.ID)
	header.Set(packet.KeyTicket, serverTicket)
	if _, err := header.WriteTo(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sending read header: %w", err)
	}
	return conn, nil
}
