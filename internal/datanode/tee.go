package datanode

import (
	"context"
	"fmt"
	"io"
	"net"

	"github.com/Lovepreet67/whispering-woods/internal/logger"
	"github.com/Lovepreet67/whispering-woods/pkg/chunkstore"
	"github.com/Lovepreet67/whispering-woods/pkg/packet"
	"golang.org/x/sync/errgroup"
)

// teeBufferSize is the producer's read granularity. The branch pipes
// hold no data of their own: each write waits until its sink reads it.
const teeBufferSize = 8 * 1024

// teeToStoreAndPipeline fans the inbound chunk stream to two sinks at
// once: the local staged write and the downstream replica's socket.
// The branches must drain concurrently — writing them in sequence
// deadlocks as soon as the downstream's socket buffer fills while the
// local copy still holds the source.
//
// It returns the byte counts each sink acknowledged: the local store's
// write count and the bytes_received reported by the downstream's
// reply packet.
func teeToStoreAndPipeline(ctx context.Context, src io.Reader, store chunkstore.Store, chunkID string, pipeline net.Conn) (localWritten, downstreamReceived int64, err error) {
	storeR, storeW := io.Pipe()
	pipeR, pipeW := io.Pipe()

	g, ctx := errgroup.WithContext(ctx)

	// Producer: every block goes to both pipes before the next read.
	g.Go(func() error {
		defer storeW.Close()
		defer pipeW.Close()
		buf := make([]byte, teeBufferSize)
		for {
			n, rerr := src.Read(buf)
			if n > 0 {
				if _, werr := storeW.Write(buf[:n]); werr != nil {
					return fmt.Errorf("tee: store branch: %w", werr)
				}
				if _, werr := pipeW.Write(buf[:n]); werr != nil {
					return fmt.Errorf("tee: pipeline branch: %w", werr)
				}
			}
			if rerr == io.EOF {
				return nil
			}
			if rerr != nil {
				return fmt.Errorf("tee: reading source: %w", rerr)
			}
		}
	})

	// Sink A: local staged write.
	g.Go(func() error {
		n, werr := store.Write(ctx, chunkID, storeR)
		localWritten = n
		if werr != nil {
			// Drain so the producer is never wedged on this branch.
			_, _ = io.Copy(io.Discard, storeR)
			return fmt.Errorf("tee: staging chunk: %w", werr)
		}
		return nil
	})

	// Sink B: downstream replica, then its byte-count receipt.
	g.Go(func() error {
		if _, werr := io.Copy(pipeline, pipeR); werr != nil {
			_, _ = io.Copy(io.Discard, pipeR)
			return fmt.Errorf("tee: streaming downstream: %w", werr)
		}
		reply, rerr := packet.Decode(pipeline)
		if rerr != nil {
			return fmt.Errorf("tee: reading downstream receipt: %w", rerr)
		}
		received, perr := reply.GetInt(packet.KeyBytesReceived)
		if perr != nil {
			logger.Warn("downstream receipt missing byte count", "chunk_id", chunkID, "error", perr)
			received = 0
		}
		downstreamReceived = received
		return nil
	})

	if err := g.Wait(); err != nil {
		return localWritten, downstreamReceived, err
	}
	return localWritten, downstreamReceived, nil
}
