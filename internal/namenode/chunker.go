// Package namenode implements the coordinator: chunk planning, replica
// placement, the metadata RPC surface, and the reconciliation control
// loop.
package namenode

import (
	"github.com/Lovepreet67/whispering-woods/internal/namenode/state"
	"github.com/google/uuid"
)

// MaxChunkSize is the upper bound of a single chunk's byte range.
const MaxChunkSize = 64 * 1024 * 1024

// ChunkPlanner splits a file size into chunk records.
type ChunkPlanner interface {
	// Plan partitions [0, size) into consecutive ranges of at most
	// MaxChunkSize, each with a fresh chunk id. size==0 yields a
	// single empty chunk so the file still has an addressable record.
	Plan(size uint64) []*state.ChunkDetail
}

// UUIDChunker is the default planner: fixed-size ranges, UUID ids.
type UUIDChunker struct {
	maxChunkSize uint64
}

// NewUUIDChunker returns a planner with the default chunk bound.
func NewUUIDChunker() *UUIDChunker {
	return &UUIDChunker{maxChunkSize: MaxChunkSize}
}

func (c *UUIDChunker) Plan(size uint64) []*state.ChunkDetail {
	if size == 0 {
		return []*state.ChunkDetail{state.NewChunkDetail(uuid.NewString(), 0, 0)}
	}
	chunks := make([]*state.ChunkDetail, 0, (size+c.maxChunkSize-1)/c.maxChunkSize)
	for start := uint64(0); start < size; start += c.maxChunkSize {
		end := start + c.maxChunkSize
		if end > size {
			end = size
		}
		chunks = append(chunks, state.NewChunkDetail(uuid.NewString(), start, end))
	}
	return chunks
}
