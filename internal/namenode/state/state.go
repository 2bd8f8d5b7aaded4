// Package state holds the coordinator's metadata: the file→chunks
// table, the chunk records, and the datanode registry. One exclusive
// mutex guards the whole structure; RPC handlers and the reconciliation
// loop take it briefly and clone what they need.
package state

import (
	"sort"
	"sync"
	"time"

	"github.com/Lovepreet67/whispering-woods/internal/logger"
)

// TombstoneTTL is how long a Deleted chunk record survives its last
// observation. A holder that reports the chunk after the record is gone
// is still told to delete it, since ApplyStateSync also returns ids the
// coordinator no longer tracks.
const TombstoneTTL = 23 * time.Second

// State is the coordinator metadata authority.
type State struct {
	mu sync.Mutex

	fileToChunks map[string][]string
	chunks       map[string]*ChunkDetail
	datanodes    map[string]*DatanodeDetail
}

// New returns empty metadata.
func New() *State {
	return &State{
		fileToChunks: make(map[string][]string),
		chunks:       make(map[string]*ChunkDetail),
		datanodes:    make(map[string]*DatanodeDetail),
	}
}

// InstallFile records a file plan: the ordered chunk list plus one
// record per chunk. Used by StoreFile and by ledger replay.
func (s *State) InstallFile(name string, chunks []*ChunkDetail) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
		s.chunks[c.ID] = c
	}
	s.fileToChunks[name] = ids
}

// FileChunks returns copies of a file's chunk records in order. The
// second return is false when the file is unknown.
func (s *State) FileChunks(name string) ([]ChunkDetail, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids, ok := s.fileToChunks[name]
	if !ok {
		return nil, false
	}
	out := make([]ChunkDetail, 0, len(ids))
	for _, id := range ids {
		if c, ok := s.chunks[id]; ok {
			out = append(out, cloneChunk(c))
		}
	}
	return out, true
}

// RemoveFile drops the file entry, tombstones its chunks, and returns
// the chunk ids. The second return is false when the file is unknown.
func (s *State) RemoveFile(name string, now time.Time) ([]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids, ok := s.fileToChunks[name]
	if !ok {
		return nil, false
	}
	delete(s.fileToChunks, name)
	for _, id := range ids {
		if c, ok := s.chunks[id]; ok {
			c.MarkDeleted(now)
		}
	}
	return ids, true
}

// MarkChunkDeleted tombstones a single chunk record (ledger replay).
func (s *State) MarkChunkDeleted(id string, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.chunks[id]; ok {
		c.MarkDeleted(now)
	}
}

// RegisterDatanode handles a Connection request. It returns true when
// the node is accepted: new registrations and re-registrations of a
// stale node connect; a duplicate of an active node is refused.
func (s *State) RegisterDatanode(id, name, addrs string, now time.Time) (bool, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.datanodes[id]; ok {
		if d.Active(now) {
			return false, "connection already exists for the specified id"
		}
		d.MarkHeartbeat(now)
		d.GrpcAddrs = addrs
		return true, "connection re-established"
	}
	s.datanodes[id] = NewDatanodeDetail(id, name, addrs, now)
	return true, "connected successfully"
}

// Heartbeat refreshes a node's liveness window; returns false for an
// unregistered node.
func (s *State) Heartbeat(id string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.datanodes[id]
	if !ok {
		return false
	}
	d.MarkHeartbeat(now)
	return true
}

// ApplyStateSync reconciles a datanode's report against the metadata
// and returns the chunk ids the node should delete locally: tombstoned
// chunks and chunks the coordinator no longer tracks.
func (s *State) ApplyStateSync(id string, availableChunks []string, freeStorage uint64, now time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d, ok := s.datanodes[id]; ok {
		d.SyncState(freeStorage, now)
	}

	reported := make(map[string]struct{}, len(availableChunks))
	var toDelete []string
	for _, chunkID := range availableChunks {
		reported[chunkID] = struct{}{}
		c, ok := s.chunks[chunkID]
		if !ok {
			toDelete = append(toDelete, chunkID)
			continue
		}
		if c.Deleted(now) {
			toDelete = append(toDelete, chunkID)
			continue
		}
		c.AddLocation(id)
	}
	// Anything this node used to hold but no longer reports is gone.
	for _, c := range s.chunks {
		if _, held := c.Locations[id]; !held {
			continue
		}
		if _, still := reported[c.ID]; !still {
			c.RemoveLocation(id)
		}
	}
	return toDelete
}

// Datanode returns a copy of one datanode record.
func (s *State) Datanode(id string) (DatanodeDetail, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.datanodes[id]
	if !ok {
		return DatanodeDetail{}, false
	}
	return *d, true
}

// ActiveDatanodes returns copies of the live nodes in deterministic
// (id-sorted) order.
func (s *State) ActiveDatanodes(now time.Time) []DatanodeDetail {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]DatanodeDetail, 0, len(s.datanodes))
	for _, d := range s.datanodes {
		if d.Active(now) {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Chunk returns a copy of one chunk record.
func (s *State) Chunk(id string) (ChunkDetail, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.chunks[id]
	if !ok {
		return ChunkDetail{}, false
	}
	return cloneChunk(c), true
}

// Reconcile runs one pass of the control-loop bookkeeping under the
// lock: tombstone GC, then removal of inactive datanodes from every
// location set. It returns copies of the surviving chunk records and
// the live datanodes for the replication policy to act on.
func (s *State) Reconcile(now time.Time) (chunks []ChunkDetail, active []DatanodeDetail) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, c := range s.chunks {
		if c.State.Kind == ChunkDeleted && now.Sub(c.State.DeletedAt) > TombstoneTTL {
			logger.Debug("garbage collecting chunk tombstone", "chunk_id", id)
			delete(s.chunks, id)
		}
	}

	inactive := make(map[string]struct{})
	for id, d := range s.datanodes {
		if !d.Active(now) {
			inactive[id] = struct{}{}
		}
	}
	for _, c := range s.chunks {
		for id := range inactive {
			c.RemoveLocation(id)
		}
	}

	chunks = make([]ChunkDetail, 0, len(s.chunks))
	for _, c := range s.chunks {
		chunks = append(chunks, cloneChunk(c))
	}
	for _, d := range s.datanodes {
		if d.Active(now) {
			active = append(active, *d)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].ID < active[j].ID })
	return chunks, active
}

// Snapshot publishes a consistent copy of the whole metadata view.
func (s *State) Snapshot(now time.Time) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Timestamp: now,
		Datanodes: make(map[string]DatanodeSnapshot, len(s.datanodes)),
		Files:     make(map[string][]string, len(s.fileToChunks)),
		Chunks:    make(map[string]ChunkSnapshot, len(s.chunks)),
	}
	for id, d := range s.datanodes {
		snap.Datanodes[id] = DatanodeSnapshot{
			Name:             d.Name,
			Addrs:            d.GrpcAddrs,
			Active:           d.Active(now),
			StorageRemaining: d.StorageRemaining,
		}
	}
	for name, ids := range s.fileToChunks {
		snap.Files[name] = append([]string(nil), ids...)
	}
	for id, c := range s.chunks {
		snap.Chunks[id] = ChunkSnapshot{
			StartOffset: c.StartOffset,
			EndOffset:   c.EndOffset,
			State:       c.State.Kind.String(),
			Locations:   c.LocationIDs(),
		}
	}
	return snap
}

func cloneChunk(c *ChunkDetail) ChunkDetail {
	out := *c
	out.Locations = make(map[string]struct{}, len(c.Locations))
	for id := range c.Locations {
		out.Locations[id] = struct{}{}
	}
	return out
}

func (k ChunkStateKind) String() string {
	switch k {
	case ChunkInitialized:
		return "initialized"
	case ChunkCommitted:
		return "committed"
	case ChunkDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}
