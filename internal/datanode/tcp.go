package datanode

import (
	"context"
	"fmt"
	"io"
	"net"

	"github.com/Lovepreet67/whispering-woods/internal/logger"
	"github.com/Lovepreet67/whispering-woods/pkg/chunkstore"
	"github.com/Lovepreet67/whispering-woods/pkg/packet"
	"github.com/Lovepreet67/whispering-woods/pkg/ticket"
)

// TCPService is the bulk data plane: one framed header per connection,
// then raw chunk bytes in whichever direction the mode dictates.
type TCPService struct {
	listener  net.Listener
	store     chunkstore.Store
	state     *State
	decrypter ticket.Decrypter
}

// NewTCPService binds the data-plane listener.
func NewTCPService(addr string, store chunkstore.Store, st *State, decrypter ticket.Decrypter) (*TCPService, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("binding tcp data plane on %s: %w", addr, err)
	}
	return &TCPService{listener: lis, store: store, state: st, decrypter: decrypter}, nil
}

// Addr returns the bound listener address.
func (s *TCPService) Addr() string {
	return s.listener.Addr().String()
}

// Serve accepts connections until ctx ends.
func (s *TCPService) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		_ = s.listener.Close()
	}()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accepting data-plane connection: %w", err)
		}
		go func() {
			defer conn.Close()
			if err := s.handleConnection(ctx, conn); err != nil {
				logger.Error("data-plane connection failed", "remote", conn.RemoteAddr().String(), "error", err)
			}
		}()
	}
}

func (s *TCPService) handleConnection(ctx context.Context, conn net.Conn) error {
	header, err := packet.Decode(conn)
	if err != nil {
		return err
	}
	chunkID, err := header.Get(packet.KeyChunkID)
	if err != nil {
		return err
	}
	mode, err := header.Get(packet.KeyMode)
	if err != nil {
		return err
	}
	rawTicket, err := header.Get(packet.KeyTicket)
	if err != nil {
		return err
	}
	st, err := s.decrypter.DecryptServerTicket(rawTicket)
	if err != nil {
		return fmt.Errorf("rejecting connection: %w", err)
	}

	switch mode {
	case packet.ModeWrite:
		// Store and pipeline hops both authorize a write.
		if err := st.Verify(s.state.ID, ticket.OpStoreChunk, chunkID); err != nil {
			if err2 := st.Verify(s.state.ID, ticket.OpCreatePipeline, chunkID); err2 != nil {
				return fmt.Errorf("rejecting write: %w", err)
			}
		}
		return s.handleWrite(ctx, conn, header, chunkID)
	case packet.ModeRead:
		if err := st.Verify(s.state.ID, ticket.OpFetchChunk, chunkID); err != nil {
			return fmt.Errorf("rejecting read: %w", err)
		}
		return s.handleRead(ctx, conn, chunkID)
	default:
		return fmt.Errorf("unknown transfer mode %q for chunk %s", mode, chunkID)
	}
}

// handleWrite consumes exactly chunk_size bytes, staging them locally
// and — when a pipeline is registered for the chunk — forwarding them
// to the downstream replica at the same time. The reply carries the
// smaller of the two acknowledged counts: the client treats anything
// short of chunk_size as a failed hop.
func (s *TCPService) handleWrite(ctx context.Context, conn net.Conn, header *packet.DataPacket, chunkID string) error {
	chunkSize, err := header.GetInt(packet.KeyChunkSize)
	if err != nil {
		return err
	}
	limited := io.LimitReader(conn, chunkSize)

	pipeline, outboundTicket, hasPipeline := s.state.TakePipelineConn(chunkID)
	var received int64
	if hasPipeline {
		defer pipeline.Close()
		downHeader := packet.New()
		downHeader.Set(packet.KeyMode, packet.ModeWrite)
		downHeader.Set(packet.KeyChunkID, chunkID)
		downHeader.SetInt(packet.KeyChunkSize, chunkSize)
		downHeader.Set(packet.KeyTicket, outboundTicket)
		if _, err := downHeader.WriteTo(pipeline); err != nil {
			return fmt.Errorf("sending pipeline header: %w", err)
		}
		local, downstream, err := teeToStoreAndPipeline(ctx, limited, s.store, chunkID, pipeline)
		if err != nil {
			logger.Error("pipelined write failed", "chunk_id", chunkID, "error", err)
			s.state.DropPipeline(chunkID)
		}
		received = min(local, downstream)
	} else {
		written, err := s.store.Write(ctx, chunkID, limited)
		if err != nil {
			logger.Error("staging chunk failed", "chunk_id", chunkID, "error", err)
			written = 0
		}
		received = written
	}

	reply := packet.New()
	reply.SetInt(packet.KeyBytesReceived, received)
	if _, err := reply.WriteTo(conn); err != nil {
		return fmt.Errorf("sending byte receipt: %w", err)
	}
	logger.Debug("chunk staged", "chunk_id", chunkID, "bytes_received", received, "pipelined", hasPipeline)
	return nil
}

// handleRead streams the committed chunk to the caller until EOF.
func (s *TCPService) handleRead(ctx context.Context, conn net.Conn, chunkID string) error {
	r, err := s.store.Read(ctx, chunkID)
	if err != nil {
		return fmt.Errorf("opening chunk %s: %w", chunkID, err)
	}
	defer r.Close()
	n, err := io.Copy(conn, r)
	if err != nil {
		return fmt.Errorf("streaming chunk %s: %w", chunkID, err)
	}
	logger.Debug("chunk served", "chunk_id", chunkID, "bytes", n)
	return nil
}
