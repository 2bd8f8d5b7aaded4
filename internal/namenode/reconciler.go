package namenode

import (
	"context"
	"time"

	"github.com/Lovepreet67/whispering-woods/internal/logger"
	"github.com/Lovepreet67/whispering-woods/internal/namenode/state"
	"github.com/Lovepreet67/whispering-woods/pkg/metrics"
)

// ReconcileInterval is the control-loop period.
const ReconcileInterval = 5 * time.Second

// Reconciler is the coordinator's control loop: tombstone GC, liveness
// sweeping, replication repair, and snapshot publishing.
type Reconciler struct {
	st       *state.State
	policy   SelectionPolicy
	service  *DatanodeService
	snaps    *state.SnapshotStore
	factor   int
	metrics  *metrics.NamenodeMetrics
	interval time.Duration
}

// NewReconciler wires the control loop.
func NewReconciler(st *state.State, policy SelectionPolicy, service *DatanodeService, snaps *state.SnapshotStore, factor int, m *metrics.NamenodeMetrics) *Reconciler {
	return &Reconciler{
		st:       st,
		policy:   policy,
		service:  service,
		snaps:    snaps,
		factor:   factor,
		metrics:  m,
		interval: ReconcileInterval,
	}
}

// Run drives the loop until ctx ends.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

// tick runs one reconciliation round. Repairs are fire-and-forget: a
// failure is logged and retried by a later round, never stalling the
// loop.
func (r *Reconciler) tick(ctx context.Context) {
	now := time.Now()
	chunks, active := r.st.Reconcile(now)
	r.metrics.SetClusterGauges(len(active), len(chunks))

	for i := range chunks {
		chunk := chunks[i]
		if chunk.State.Kind == state.ChunkDeleted || chunk.State.Kind == state.ChunkInitialized {
			continue
		}
		switch rs := chunk.Replication(r.factor); rs.Kind {
		case state.ReplicationUnder:
			r.repairUnder(ctx, chunk, active, rs.K)
		case state.ReplicationOver:
			r.repairOver(ctx, chunk, active, rs.K)
		case state.ReplicationLost:
			logger.Error("chunk lost: no live replica remains", "chunk_id", chunk.ID)
		case state.ReplicationBalanced:
		}
	}

	r.snaps.Publish(r.st.Snapshot(now))
}

// repairUnder dispatches one replication per missing copy: source is
// an active holder, target an active node not yet holding the chunk
// with room for it.
func (r *Reconciler) repairUnder(ctx context.Context, chunk state.ChunkDetail, active []state.DatanodeDetail, missing int) {
	holders := chunk.Locations
	var source *state.DatanodeDetail
	for _, d := range active {
		if _, ok := holders[d.ID]; ok {
			src := d
			source = &src
			break
		}
	}
	if source == nil {
		return
	}
	var targets []state.DatanodeDetail
	for _, d := range active {
		if _, ok := holders[d.ID]; ok {
			continue
		}
		if d.StorageRemaining > chunk.Size() {
			targets = append(targets, d)
			if len(targets) == missing {
				break
			}
		}
	}
	for _, target := range targets {
		src, tgt := *source, target
		logger.Info("dispatching replication repair", "chunk_id", chunk.ID, "source", src.ID, "target", tgt.ID)
		r.metrics.ObserveRepair("replicate")
		go func() {
			if err := r.service.ReplicateChunk(ctx, src, tgt, chunk.ID); err != nil {
				logger.Error("replication repair failed", "chunk_id", chunk.ID, "error", err)
			}
		}()
	}
}

// repairOver offloads the surplus copies from k active holders in
// parallel.
func (r *Reconciler) repairOver(ctx context.Context, chunk state.ChunkDetail, active []state.DatanodeDetail, surplus int) {
	var offload []state.DatanodeDetail
	for _, d := range active {
		if _, ok := chunk.Locations[d.ID]; ok {
			offload = append(offload, d)
			if len(offload) == surplus {
				break
			}
		}
	}
	for _, holder := range offload {
		h := holder
		logger.Info("dispatching over-replication offload", "chunk_id", chunk.ID, "holder", h.ID)
		r.metrics.ObserveRepair("offload")
		go func() {
			if err := r.service.DeleteChunk(ctx, h, chunk.ID); err != nil {
				logger.Error("offload failed", "chunk_id", chunk.ID, "holder", h.ID, "error", err)
			}
		}()
	}
}
