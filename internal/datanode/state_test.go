package datanode

import (
	"net"
	"testing"
)

func TestPipelineLifecycle(t *testing.T) {
	st := NewState("dn-1", "node one", "grpc:1", "tcp:1")

	a, b := net.Pipe()
	defer b.Close()
	st.RegisterPipeline("chunk-1", a, "dn-2-addr", "ticket-1")

	conn, ticket, ok := st.TakePipelineConn("chunk-1")
	if !ok || conn == nil {
		t.Fatal("TakePipelineConn missed a registered pipeline")
	}
	if ticket != "ticket-1" {
		t.Errorf("ticket = %q, want ticket-1", ticket)
	}
	// The connection moves to the caller; a second take finds nothing.
	if _, _, ok := st.TakePipelineConn("chunk-1"); ok {
		t.Error("TakePipelineConn handed the connection out twice")
	}

	// The commit hop is still known after the write consumed the conn.
	addr, ticket, ok := st.TakeNextReplica("chunk-1")
	if !ok {
		t.Fatal("TakeNextReplica missed the registered hop")
	}
	if addr != "dn-2-addr" || ticket != "ticket-1" {
		t.Errorf("hop = %q/%q, want dn-2-addr/ticket-1", addr, ticket)
	}
	// Entry is consumed by the commit.
	if _, _, ok := st.TakeNextReplica("chunk-1"); ok {
		t.Error("TakeNextReplica handed the hop out twice")
	}
	conn.Close()
}

func TestAvailableChunksAndDeletions(t *testing.T) {
	st := NewState("dn-1", "n", "g", "t")
	st.SetAvailableChunks([]string{"a", "b"})
	if !st.HasChunk("a") || st.HasChunk("zzz") {
		t.Error("HasChunk answers do not match the installed set")
	}
	if got := len(st.AvailableChunks()); got != 2 {
		t.Errorf("AvailableChunks = %d entries, want 2", got)
	}

	st.EnqueueDeletions([]string{"a"})
	st.EnqueueDeletions(nil)
	st.EnqueueDeletions([]string{"b"})
	drained := st.DrainDeletions()
	if len(drained) != 2 {
		t.Fatalf("DrainDeletions = %v, want two entries", drained)
	}
	if len(st.DrainDeletions()) != 0 {
		t.Error("DrainDeletions did not empty the queue")
	}
}
