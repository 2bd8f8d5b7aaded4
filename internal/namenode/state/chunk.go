package state

import (
	"sort"
	"time"
)

// ChunkStateKind discriminates a chunk record's lifecycle phase.
type ChunkStateKind int

const (
	// ChunkInitialized: planned, no committed copy reported yet.
	ChunkInitialized ChunkStateKind = iota
	// ChunkCommitted: at least one datanode reported a committed copy.
	ChunkCommitted
	// ChunkDeleted: the owning file was deleted; the record is a
	// tombstone awaiting GC after the hosting datanodes drop the data.
	ChunkDeleted
)

// ChunkState is a tagged state: DeletedAt is only meaningful for
// ChunkDeleted.
type ChunkState struct {
	Kind      ChunkStateKind
	DeletedAt time.Time
}

// ChunkDetail is the coordinator-side record of one chunk.
type ChunkDetail struct {
	ID          string
	StartOffset uint64
	EndOffset   uint64
	State       ChunkState
	// Locations is the set of datanode IDs reported to hold a
	// committed copy.
	Locations map[string]struct{}
}

// NewChunkDetail returns a freshly planned chunk record.
func NewChunkDetail(id string, start, end uint64) *ChunkDetail {
	return &ChunkDetail{
		ID:          id,
		StartOffset: start,
		EndOffset:   end,
		State:       ChunkState{Kind: ChunkInitialized},
		Locations:   make(map[string]struct{}),
	}
}

// Size returns the chunk's byte length.
func (c *ChunkDetail) Size() uint64 {
	return c.EndOffset - c.StartOffset
}

// AddLocation records a committed copy on datanodeID.
func (c *ChunkDetail) AddLocation(datanodeID string) {
	c.State = ChunkState{Kind: ChunkCommitted}
	c.Locations[datanodeID] = struct{}{}
}

// RemoveLocation drops datanodeID from the location set.
func (c *ChunkDetail) RemoveLocation(datanodeID string) {
	delete(c.Locations, datanodeID)
}

// MarkDeleted turns the record into a tombstone.
func (c *ChunkDetail) MarkDeleted(now time.Time) {
	c.State = ChunkState{Kind: ChunkDeleted, DeletedAt: now}
}

// Deleted reports whether the record is a tombstone. Each observation
// refreshes the tombstone timestamp so the record outlives the next
// state-sync round that tells the holder to drop its copy.
func (c *ChunkDetail) Deleted(now time.Time) bool {
	if c.State.Kind != ChunkDeleted {
		return false
	}
	c.State.DeletedAt = now
	return true
}

// LocationIDs returns the location set as an id-sorted slice so
// policies iterate deterministically.
func (c *ChunkDetail) LocationIDs() []string {
	ids := make([]string, 0, len(c.Locations))
	for id := range c.Locations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ReplicationKind classifies a chunk against the intended replication
// factor.
type ReplicationKind int

const (
	ReplicationBalanced ReplicationKind = iota
	ReplicationUnder
	ReplicationOver
	ReplicationLost
)

// ReplicationStatus carries the classification and, for Under/Over,
// how many replicas are missing or extra.
type ReplicationStatus struct {
	Kind ReplicationKind
	K    int
}

// Replication derives the chunk's replication status from its live
// location count and the intended factor.
func (c *ChunkDetail) Replication(factor int) ReplicationStatus {
	n := len(c.Locations)
	switch {
	case n == 0:
		return ReplicationStatus{Kind: ReplicationLost}
	case n < factor:
		return ReplicationStatus{Kind: ReplicationUnder, K: factor - n}
	case n > factor:
		return ReplicationStatus{Kind: ReplicationOver, K: n - factor}
	default:
		return ReplicationStatus{Kind: ReplicationBalanced}
	}
}
