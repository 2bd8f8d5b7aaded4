package namenode

import (
	"fmt"
	"time"

	"github.com/Lovepreet67/whispering-woods/internal/namenode/state"
)

// SelectionPolicy decides where chunks live and which replica serves a
// read.
type SelectionPolicy interface {
	// DatanodesToStore returns the ordered replica set for a new chunk
	// of the given size.
	DatanodesToStore(chunkSize uint64, now time.Time) ([]state.DatanodeDetail, error)

	// DatanodeToServe returns the replica a client should read the
	// chunk from.
	DatanodeToServe(chunk *state.ChunkDetail, now time.Time) (state.DatanodeDetail, error)
}

// FirstFitPolicy picks the first replicationFactor active datanodes
// with room, in deterministic id order; reads go to the first active
// holder.
type FirstFitPolicy struct {
	st                *state.State
	replicationFactor int
}

// NewFirstFitPolicy returns the default policy.
func NewFirstFitPolicy(st *state.State, replicationFactor int) *FirstFitPolicy {
	return &FirstFitPolicy{st: st, replicationFactor: replicationFactor}
}

func (p *FirstFitPolicy) DatanodesToStore(chunkSize uint64, now time.Time) ([]state.DatanodeDetail, error) {
	var picked []state.DatanodeDetail
	for _, d := range p.st.ActiveDatanodes(now) {
		if d.StorageRemaining > chunkSize {
			picked = append(picked, d)
			if len(picked) == p.replicationFactor {
				break
			}
		}
	}
	if len(picked) == 0 {
		return nil, fmt.Errorf("no active datanode can hold a chunk of %d bytes", chunkSize)
	}
	return picked, nil
}

func (p *FirstFitPolicy) DatanodeToServe(chunk *state.ChunkDetail, now time.Time) (state.DatanodeDetail, error) {
	for _, id := range chunk.LocationIDs() {
		d, ok := p.st.Datanode(id)
		if !ok {
			continue
		}
		if d.Active(now) {
			return d, nil
		}
	}
	return state.DatanodeDetail{}, fmt.Errorf("no active location for chunk %s", chunk.ID)
}

var _ SelectionPolicy = (*FirstFitPolicy)(nil)
