package client

import (
	"context"
	"fmt"
	"os"

	"github.com/Lovepreet67/whispering-woods/internal/logger"
	"github.com/Lovepreet67/whispering-woods/pkg/retry"
	"github.com/Lovepreet67/whispering-woods/pkg/rpc"
	"github.com/Lovepreet67/whispering-woods/pkg/ticket"
	"golang.org/x/sync/errgroup"
)

// Runner executes the user-level file operations against the cluster.
type Runner struct {
	namenode  *NamenodeService
	datanode  *DatanodeService
	decrypter ticket.Decrypter
}

// NewRunner wires the client core. decrypter opens the outer client
// tickets the coordinator binds to this client's key.
func NewRunner(namenode *NamenodeService, datanode *DatanodeService, decrypter ticket.Decrypter) *Runner {
	return &Runner{namenode: namenode, datanode: datanode, decrypter: decrypter}
}

// hopTicket opens the outer envelope of a chunk's ticket and returns
// the inner server ticket the target replica can verify.
func (r *Runner) hopTicket(chunk rpc.ChunkMeta) (string, error) {
	ct, err := r.decrypter.DecryptClientTicket(chunk.Ticket)
	if err != nil {
		return "", fmt.Errorf("opening ticket for chunk %s: %w", chunk.ID, err)
	}
	return ct.EncryptedServerTicket, nil
}

// StoreFile uploads localPath under remoteName: one task per chunk,
// each streaming through its replica pipeline with retry. Any chunk
// failing after retries aborts the operation.
func (r *Runner) StoreFile(ctx context.Context, localPath, remoteName string) error {
	info, err := os.Stat(localPath)
	if err != nil {
		return fmt.Errorf("reading file metadata: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", localPath)
	}

	chunks, err := r.namenode.StoreFile(ctx, remoteName, uint64(info.Size()))
	if err != nil {
		return err
	}
	logger.Debug("got store plan", "file_name", remoteName, "chunks", len(chunks))
	chunker := NewFileChunker(localPath, chunks)

	g, ctx := errgroup.WithContext(ctx)
	for i := range chunks {
		chunk := chunks[i]
		idx := i
		serverTicket, err := r.hopTicket(chunk)
		if err != nil {
			return err
		}
		g.Go(func() error {
			return retry.Do(ctx, 3, retry.DefaultBase, func() error {
				src, err := chunker.Open(idx)
				if err != nil {
					return err
				}
				defer src.Close()
				return r.datanode.StoreChunk(ctx, chunk, serverTicket, src)
			})
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("store aborted: %w", err)
	}
	return nil
}

// FetchFile downloads remoteName into localPath. The target is
// pre-allocated to its final size; chunk tasks land concurrently at
// their own offsets. Any failure removes the partial file.
func (r *Runner) FetchFile(ctx context.Context, remoteName, localPath string) error {
	chunks, err := r.namenode.FetchFile(ctx, remoteName)
	if err != nil {
		return err
	}
	if len(chunks) == 0 {
		return fmt.Errorf("file %q has no chunks", remoteName)
	}
	fileSize := chunks[len(chunks)-1].EndOffset
	joiner, err := NewChunkJoiner(localPath, fileSize)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := range chunks {
		chunk := chunks[i]
		serverTicket, err := r.hopTicket(chunk)
		if err != nil {
			joiner.Abort()
			return err
		}
		g.Go(func() error {
			return retry.Do(ctx, 3, retry.DefaultBase, func() error {
				src, err := r.datanode.FetchChunk(ctx, chunk, serverTicket)
				if err != nil {
					return err
				}
				defer src.Close()
				return joiner.Join(chunk, src)
			})
		})
	}
	if err := g.Wait(); err != nil {
		logger.Info("fetch aborted, removing partial file", "path", localPath)
		joiner.Abort()
		return fmt.Errorf("fetch aborted: %w", err)
	}
	return nil
}

// DeleteFile removes remoteName from the cluster.
func (r *Runner) DeleteFile(ctx context.Context, remoteName string) error {
	present, err := r.namenode.DeleteFile(ctx, remoteName)
	if err != nil {
		return err
	}
	if !present {
		return fmt.Errorf("file %q not found", remoteName)
	}
	return nil
}
