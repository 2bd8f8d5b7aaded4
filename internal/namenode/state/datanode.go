package state

import "time"

// LivenessWindow is how long a datanode may stay silent before it is
// excluded from placement and location sets.
const LivenessWindow = 6 * time.Second

// DatanodeDetail is the coordinator-side record of one storage node.
type DatanodeDetail struct {
	ID               string
	Name             string
	GrpcAddrs        string
	StorageRemaining uint64
	LastHeartbeat    time.Time
}

// NewDatanodeDetail registers a node seen just now.
func NewDatanodeDetail(id, name, addrs string, now time.Time) *DatanodeDetail {
	return &DatanodeDetail{
		ID:            id,
		Name:          name,
		GrpcAddrs:     addrs,
		LastHeartbeat: now,
	}
}

// MarkHeartbeat refreshes the liveness window.
func (d *DatanodeDetail) MarkHeartbeat(now time.Time) {
	d.LastHeartbeat = now
}

// SyncState applies a state-sync report.
func (d *DatanodeDetail) SyncState(storageRemaining uint64, now time.Time) {
	d.StorageRemaining = storageRemaining
	d.LastHeartbeat = now
}

// Active reports whether the node heartbeat within the liveness window.
func (d *DatanodeDetail) Active(now time.Time) bool {
	return now.Sub(d.LastHeartbeat) <= LivenessWindow
}

// CanStore reports whether the node is live with room for a chunk of
// the given size.
func (d *DatanodeDetail) CanStore(size uint64, now time.Time) bool {
	return d.Active(now) && d.StorageRemaining > size
}
