// Package ticket implements the capability tokens that authorize every
// cross-node operation in the cluster.
//
// The namenode is the sole minter: it keeps one AES-256 key per node and
// wraps each grant in two encrypted envelopes. The inner ServerTicket is
// encrypted under the target node's key and names the operation, chunk,
// and target; the outer ClientTicket is encrypted under the source
// node's key and carries the inner envelope opaquely. A node can only
// open envelopes addressed to it.
package ticket

import (
	"encoding/json"
	"fmt"
	"time"
)

// TTL is how long a minted ticket stays valid.
const TTL = 300 * time.Second

// OperationKind discriminates what a ticket authorizes.
type OperationKind string

const (
	OpFetchChunk     OperationKind = "FetchChunk"
	OpStoreChunk     OperationKind = "StoreChunk"
	OpCreatePipeline OperationKind = "CreatePipeline"
	OpDeleteChunk    OperationKind = "DeleteChunk"
	OpReplicateChunk OperationKind = "ReplicateChunk"
)

// Operation binds an operation kind to the chunk it may touch.
type Operation struct {
	Kind    OperationKind `json:"kind"`
	ChunkID string        `json:"chunk_id"`
}

// FetchChunk returns the operation authorizing a read of chunkID.
func FetchChunk(chunkID string) Operation {
	return Operation{Kind: OpFetchChunk, ChunkID: chunkID}
}

// StoreChunk returns the operation authorizing a write of chunkID.
func StoreChunk(chunkID string) Operation {
	return Operation{Kind: OpStoreChunk, ChunkID: chunkID}
}

// CreatePipeline returns the operation authorizing a pipeline hop for chunkID.
func CreatePipeline(chunkID string) Operation {
	return Operation{Kind: OpCreatePipeline, ChunkID: chunkID}
}

// DeleteChunk returns the operation authorizing removal of chunkID.
func DeleteChunk(chunkID string) Operation {
	return Operation{Kind: OpDeleteChunk, ChunkID: chunkID}
}

// ReplicateChunk returns the operation authorizing re-replication of chunkID.
func ReplicateChunk(chunkID string) Operation {
	return Operation{Kind: OpReplicateChunk, ChunkID: chunkID}
}

// ServerTicket is the inner envelope, decryptable only by the target node.
type ServerTicket struct {
	TargetNodeID string    `json:"target_node_id"`
	Operation    Operation `json:"operation"`
	MintedAtSecs int64     `json:"minted_at_secs"`
	TTLSecs      int64     `json:"ttl_secs"`
}

// ClientTicket is the outer envelope, decryptable only by the source
// node. EncryptedServerTicket is forwarded over the wire as-is.
type ClientTicket struct {
	NodeID                string `json:"node_id"`
	EncryptedServerTicket string `json:"encrypted_server_ticket"`
	MintedAtSecs          int64  `json:"minted_at_secs"`
	TTLSecs               int64  `json:"ttl_secs"`
}

// Expired reports whether the ticket's validity window has passed.
func (t *ServerTicket) Expired(now time.Time) bool {
	return now.Unix() >= t.MintedAtSecs+t.TTLSecs
}

// Expired reports whether the ticket's validity window has passed.
func (t *ClientTicket) Expired(now time.Time) bool {
	return now.Unix() >= t.MintedAtSecs+t.TTLSecs
}

// Verify checks a decrypted server ticket against the request it
// accompanies: the target must be this node, the operation kind must
// match the invoked RPC, the chunk binding must match, and the ticket
// must not be expired.
func (t *ServerTicket) Verify(nodeID string, kind OperationKind, chunkID string) error {
	if t.TargetNodeID != nodeID {
		return fmt.Errorf("ticket targets node %q, not %q", t.TargetNodeID, nodeID)
	}
	if t.Operation.Kind != kind {
		return fmt.Errorf("ticket authorizes %s, not %s", t.Operation.Kind, kind)
	}
	if t.Operation.ChunkID != chunkID {
		return fmt.Errorf("ticket bound to chunk %q, not %q", t.Operation.ChunkID, chunkID)
	}
	if t.Expired(time.Now()) {
		return fmt.Errorf("ticket expired")
	}
	return nil
}

func (t *ServerTicket) marshal() ([]byte, error) { return json.Marshal(t) }

func (t *ClientTicket) marshal() ([]byte, error) { return json.Marshal(t) }

func unmarshalServer(b []byte) (*ServerTicket, error) {
	st := &ServerTicket{}
	if err := json.Unmarshal(b, st); err != nil {
		return nil, fmt.Errorf("decoding server ticket: %w", err)
	}
	return st, nil
}

func unmarshalClient(b []byte) (*ClientTicket, error) {
	ct := &ClientTicket{}
	if err := json.Unmarshal(b, ct); err != nil {
		return nil, fmt.Errorf("decoding client ticket: %w", err)
	}
	return ct, nil
}
