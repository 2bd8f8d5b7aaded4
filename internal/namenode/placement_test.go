package namenode

import (
	"testing"
	"time"

	"github.com/Lovepreet67/whispering-woods/internal/namenode/state"
)

func seedCluster(t *testing.T, now time.Time, free map[string]uint64) *state.State {
	t.Helper()
	st := state.New()
	for id, remaining := range free {
		st.RegisterDatanode(id, id, "addr-"+id, now)
		st.ApplyStateSync(id, nil, remaining, now)
	}
	return st
}

func TestDatanodesToStorePicksFirstFit(t *testing.T) {
	now := time.Now()
	st := seedCluster(t, now, map[string]uint64{
		"dn-1": 1000,
		"dn-2": 50, // too small for the chunk below
		"dn-3": 1000,
		"dn-4": 1000,
	})
	policy := NewFirstFitPolicy(st, 3)

	picked, err := policy.DatanodesToStore(100, now)
	if err != nil {
		t.Fatalf("DatanodesToStore failed: %v", err)
	}
	if len(picked) != 3 {
		t.Fatalf("picked %d nodes, want 3", len(picked))
	}
	want := []string{"dn-1", "dn-3", "dn-4"}
	for i, d := range picked {
		if d.ID != want[i] {
			t.Errorf("picked[%d] = %s, want %s", i, d.ID, want[i])
		}
	}
}

func TestDatanodesToStoreExcludesStaleNodes(t *testing.T) {
	now := time.Now()
	st := seedCluster(t, now, map[string]uint64{"dn-1": 1000, "dn-2": 1000})
	policy := NewFirstFitPolicy(st, 3)

	// dn-2 misses the liveness window.
	later := now.Add(state.LivenessWindow + time.Second)
	st.Heartbeat("dn-1", later)

	picked, err := policy.DatanodesToStore(100, later)
	if err != nil {
		t.Fatalf("DatanodesToStore failed: %v", err)
	}
	for _, d := range picked {
		if d.ID == "dn-2" {
			t.Error("plan includes a datanode outside the liveness window")
		}
	}
}

func TestDatanodesToStoreNoCapacity(t *testing.T) {
	now := time.Now()
	st := seedCluster(t, now, map[string]uint64{"dn-1": 10})
	policy := NewFirstFitPolicy(st, 3)
	if _, err := policy.DatanodesToStore(100, now); err == nil {
		t.Error("DatanodesToStore found room on a full cluster")
	}
}

func TestDatanodeToServePrefersActiveHolder(t *testing.T) {
	now := time.Now()
	st := seedCluster(t, now, map[string]uint64{"dn-1": 100, "dn-2": 100})
	st.InstallFile("f", []*state.ChunkDetail{state.NewChunkDetail("c1", 0, 10)})
	st.ApplyStateSync("dn-1", []string{"c1"}, 100, now)
	st.ApplyStateSync("dn-2", []string{"c1"}, 100, now)

	policy := NewFirstFitPolicy(st, 3)
	chunk, _ := st.Chunk("c1")

	// Both hold it; the id-sorted first active holder serves.
	serving, err := policy.DatanodeToServe(&chunk, now)
	if err != nil {
		t.Fatalf("DatanodeToServe failed: %v", err)
	}
	if serving.ID != "dn-1" {
		t.Errorf("serving = %s, want dn-1", serving.ID)
	}

	// With dn-1 stale, dn-2 takes over.
	later := now.Add(state.LivenessWindow + time.Second)
	st.Heartbeat("dn-2", later)
	serving, err = policy.DatanodeToServe(&chunk, later)
	if err != nil {
		t.Fatalf("DatanodeToServe failed: %v", err)
	}
	if serving.ID != "dn-2" {
		t.Errorf("serving = %s, want dn-2", serving.ID)
	}

	// Nobody active: the chunk is unreachable.
	if _, err := policy.DatanodeToServe(&chunk, later.Add(state.LivenessWindow+time.Second)); err == nil {
		t.Error("DatanodeToServe found a replica with no active holder")
	}
}
