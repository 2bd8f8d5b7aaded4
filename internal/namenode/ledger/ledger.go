// Package ledger persists coordinator metadata mutations as an
// append-only operation log and rebuilds the metadata from it at boot.
package ledger

import (
	"github.com/Lovepreet67/whispering-woods/internal/namenode/state"
)

// Recorder appends metadata mutations. Appends are asynchronous:
// producers enqueue and never block on file I/O.
type Recorder interface {
	// StoreFile records a file plan of n chunks.
	StoreFile(fileName string, chunks uint64)

	// StoreChunk records chunk order within fileName and its byte range.
	StoreChunk(fileName string, order uint64, chunkID string, startOffset, endOffset uint64)

	// DeleteFile records removal of a file entry.
	DeleteFile(fileName string)

	// DeleteChunk records the tombstoning of one chunk of fileName.
	DeleteChunk(fileName, chunkID string)

	// NodeKey records an issued ticket key so the keyring survives
	// restarts.
	NodeKey(nodeID, encodedKey string)
}

// Replayer reconstructs metadata from the log.
type Replayer interface {
	// Replay streams the log and returns the rebuilt metadata plus the
	// issued node keys. Malformed lines are logged and skipped.
	Replay() (*state.State, map[string]string, error)
}

// Ledger combines both halves.
type Ledger interface {
	Recorder
	Replayer

	// Close drains pending appends and releases the log file.
	Close() error
}
