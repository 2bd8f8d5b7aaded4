package client

import (
	"fmt"
	"io"
	"os"

	"github.com/Lovepreet67/whispering-woods/pkg/rpc"
)

// ChunkJoiner assembles fetched chunks into the target file. The file
// is pre-allocated to its final size up front so chunks can land
// concurrently at their own offsets, in any order; writers into
// disjoint ranges never conflict.
type ChunkJoiner struct {
	path string
}

// NewChunkJoiner creates the target file and reserves fileSize bytes
// by seeking to the last byte and writing a zero. Fails if the file
// already exists.
func NewChunkJoiner(path string, fileSize uint64) (*ChunkJoiner, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()
	if fileSize > 0 {
		if _, err := f.Seek(int64(fileSize-1), io.SeekStart); err != nil {
			return nil, fmt.Errorf("reserving %d bytes: %w", fileSize, err)
		}
		if _, err := f.Write([]byte{0}); err != nil {
			return nil, fmt.Errorf("reserving %d bytes: %w", fileSize, err)
		}
	}
	return &ChunkJoiner{path: path}, nil
}

// Join copies one chunk's bytes into its range. Every call opens an
// independent descriptor, so concurrent joins are safe.
func (j *ChunkJoiner) Join(chunk rpc.ChunkMeta, r io.Reader) error {
	f, err := os.OpenFile(j.path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("opening target: %w", err)
	}
	defer f.Close()
	if _, err := f.Seek(int64(chunk.StartOffset), io.SeekStart); err != nil {
		return fmt.Errorf("seeking to offset %d: %w", chunk.StartOffset, err)
	}
	n, err := io.Copy(f, io.LimitReader(r, int64(chunk.EndOffset-chunk.StartOffset)))
	if err != nil {
		return fmt.Errorf("writing chunk %s: %w", chunk.ID, err)
	}
	if uint64(n) != chunk.EndOffset-chunk.StartOffset {
		return fmt.Errorf("chunk %s: wrote %d of %d bytes", chunk.ID, n, chunk.EndOffset-chunk.StartOffset)
	}
	return nil
}

// Abort removes the partially assembled target.
func (j *ChunkJoiner) Abort() {
	_ = os.Remove(j.path)
}
