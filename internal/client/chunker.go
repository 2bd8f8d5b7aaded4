// Package client implements the client core: the file chunker, the
// parallel chunk uploader and downloader with retry, and the
// pre-allocated joiner that assembles out-of-order chunks.
package client

import (
	"fmt"
	"io"
	"os"

	"github.com/Lovepreet67/whispering-woods/pkg/rpc"
)

// FileChunker hands out one independent bounded reader per chunk of a
// local file, following the coordinator's plan. Each reader owns its
// own descriptor so chunk uploads can run concurrently.
type FileChunker struct {
	path   string
	chunks []rpc.ChunkMeta
}

// NewFileChunker builds a chunker over the local file for the given
// plan.
func NewFileChunker(path string, chunks []rpc.ChunkMeta) *FileChunker {
	return &FileChunker{path: path, chunks: chunks}
}

// chunkReader bounds reads to one chunk's range and closes the
// underlying descriptor.
type chunkReader struct {
	io.Reader
	f *os.File
}

func (r *chunkReader) Close() error { return r.f.Close() }

// Open returns a reader over chunk i's byte range.
func (c *FileChunker) Open(i int) (io.ReadCloser, error) {
	if i < 0 || i >= len(c.chunks) {
		return nil, fmt.Errorf("chunk index %d out of range", i)
	}
	chunk := c.chunks[i]
	f, err := os.Open(c.path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", c.path, err)
	}
	if _, err := f.Seek(int64(chunk.StartOffset), io.SeekStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("seeking to chunk %d offset %d: %w", i, chunk.StartOffset, err)
	}
	return &chunkReader{
		Reader: io.LimitReader(f, int64(chunk.EndOffset-chunk.StartOffset)),
		f:      f,
	}, nil
}
