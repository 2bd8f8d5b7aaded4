package datanode

import (
	"context"
	"fmt"
	"time"

	"github.com/Lovepreet67/whispering-woods/internal/logger"
	"github.com/Lovepreet67/whispering-woods/pkg/chunkstore"
)

const (
	// heartbeatInterval paces the liveness signal.
	heartbeatInterval = 3 * time.Second

	// stateSyncEvery sends a full state report every Nth heartbeat.
	stateSyncEvery = 10

	// localRefreshInterval paces the on-disk reconciliation: refresh
	// the committed set, apply queued deletions, sweep expired staged
	// files.
	localRefreshInterval = 5 * time.Second

	// connectAttempts bounds registration retries before the process
	// gives up.
	connectAttempts = 5

	// connectBackoffBase scales linearly with the attempt number.
	connectBackoffBase = 5 * time.Second
)

// Reporter keeps the coordinator's view of this node current: a
// one-shot registration, the heartbeat loop with periodic state syncs,
// and the local disk reconciliation loop.
type Reporter struct {
	state    *State
	store    chunkstore.Store
	namenode *NamenodeService
}

// NewReporter wires the reporting loops.
func NewReporter(st *State, store chunkstore.Store, namenode *NamenodeService) *Reporter {
	return &Reporter{state: st, store: store, namenode: namenode}
}

// Connect registers with the coordinator, retrying with a growing
// delay. Failure after the final attempt is fatal for the process.
func (r *Reporter) Connect(ctx context.Context) error {
	var err error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		if err = r.namenode.Connect(ctx); err == nil {
			logger.Info("registered with namenode", "datanode_id", r.state.ID)
			return nil
		}
		logger.Warn("namenode registration failed", "attempt", attempt, "error", err)
		if attempt == connectAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(connectBackoffBase * time.Duration(attempt)):
		}
	}
	return fmt.Errorf("registering with namenode after %d attempts: %w", connectAttempts, err)
}

// Run drives the heartbeat and local reconciliation loops until ctx
// ends. Call after Connect succeeds.
func (r *Reporter) Run(ctx context.Context) {
	go r.heartbeatLoop(ctx)
	go r.localLoop(ctx)
}

func (r *Reporter) heartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	beat := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		beat++
		if beat%stateSyncEvery == 0 {
			r.stateSync(ctx)
			continue
		}
		if err := r.namenode.HeartBeat(ctx); err != nil {
			logger.Warn("heartbeat failed", "error", err)
		}
	}
}

// stateSync reports the committed set and free space, and queues the
// deletions the coordinator replies with.
func (r *Reporter) stateSync(ctx context.Context) {
	chunks, err := r.store.List(ctx)
	if err != nil {
		logger.Error("skipping state sync: listing chunks failed", "error", err)
		return
	}
	free, err := r.store.FreeSpace()
	if err != nil {
		logger.Error("skipping state sync: reading free space failed", "error", err)
		return
	}
	toDelete, err := r.namenode.StateSync(ctx, chunks, free)
	if err != nil {
		logger.Warn("state sync failed", "error", err)
		return
	}
	r.state.SetAvailableChunks(chunks)
	r.state.EnqueueDeletions(toDelete)
}

// localLoop reconciles runtime state against the disk: refreshes the
// committed set, applies queued deletions, and ages out staged files
// whose tickets can no longer be committed.
func (r *Reporter) localLoop(ctx context.Context) {
	ticker := time.NewTicker(localRefreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		for _, chunkID := range r.state.DrainDeletions() {
			existed, err := r.store.Delete(ctx, chunkID)
			if err != nil {
				logger.Error("applying requested deletion", "chunk_id", chunkID, "error", err)
				continue
			}
			logger.Info("applied requested deletion", "chunk_id", chunkID, "existed", existed)
		}
		if chunks, err := r.store.List(ctx); err == nil {
			r.state.SetAvailableChunks(chunks)
		} else {
			logger.Error("refreshing available chunks", "error", err)
		}
		if fs, ok := r.store.(*chunkstore.FileStore); ok {
			fs.SweepStaged(ctx, chunkstore.StagedTTL)
		}
	}
}
