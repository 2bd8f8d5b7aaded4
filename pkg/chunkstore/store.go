// Package chunkstore provides the two-phase chunk store backing a
// datanode: bytes land in a staged area first and only become visible
// after an atomic commit rename.
package chunkstore

import (
	"context"
	"errors"
	"io"
)

// Common errors returned by Store implementations.
var (
	// ErrAlreadyStaged is returned when a write targets a chunk id
	// that already has a staged file.
	ErrAlreadyStaged = errors.New("chunk already staged")

	// ErrNotStaged is returned when a commit finds neither a staged
	// nor a committed form of the chunk.
	ErrNotStaged = errors.New("chunk not staged")

	// ErrChunkNotFound is returned when a read targets a chunk that
	// has not been committed.
	ErrChunkNotFound = errors.New("chunk not found")
)

// Store is the storage abstraction a datanode serves chunks from.
//
// A chunk is staged by Write, promoted by Commit, and visible to Read
// and List only after promotion. Chunks are immutable once committed.
type Store interface {
	// Write creates the staged form of id and copies r into it,
	// returning the exact byte count written. Fails with
	// ErrAlreadyStaged when a staged file for id exists.
	Write(ctx context.Context, id string, r io.Reader) (int64, error)

	// Commit atomically promotes the staged form of id. Committing an
	// already committed chunk succeeds; committing a chunk that exists
	// in neither form fails with ErrNotStaged.
	Commit(ctx context.Context, id string) (bool, error)

	// Read opens the committed form of id. Staged chunks are never
	// readable; missing chunks fail with ErrChunkNotFound.
	Read(ctx context.Context, id string) (io.ReadCloser, error)

	// Delete removes the committed form of id and reports whether it
	// existed. Idempotent.
	Delete(ctx context.Context, id string) (bool, error)

	// List returns the ids of all committed chunks.
	List(ctx context.Context) ([]string, error)

	// Size returns the byte size of the committed form of id.
	Size(ctx context.Context, id string) (int64, error)

	// FreeSpace returns the free bytes of the backing volume.
	FreeSpace() (uint64, error)
}
