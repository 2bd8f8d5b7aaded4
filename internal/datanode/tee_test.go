package datanode

import (
	"bytes"
	"context"
	"crypto/rand"
	"io"
	"net"
	"testing"

	"github.com/Lovepreet67/whispering-woods/pkg/chunkstore"
	"github.com/Lovepreet67/whispering-woods/pkg/packet"
)

// runDownstream consumes size bytes from conn like a downstream
// replica would, then replies with a byte receipt.
func runDownstream(t *testing.T, conn net.Conn, size int64, reported int64, sink *bytes.Buffer) chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() {
		defer close(done)
		if _, err := io.CopyN(sink, conn, size); err != nil {
			done <- err
			return
		}
		reply := packet.New()
		reply.SetInt(packet.KeyBytesReceived, reported)
		if _, err := reply.WriteTo(conn); err != nil {
			done <- err
		}
	}()
	return done
}

func TestTeeFansOutToBothSinks(t *testing.T) {
	ctx := context.Background()
	store, err := chunkstore.NewFileStore(chunkstore.Config{Root: t.TempDir()})
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	// Larger than the tee buffer so the producer loops.
	data := make([]byte, 64*1024+37)
	if _, err := rand.Read(data); err != nil {
		t.Fatalf("generating payload: %v", err)
	}

	upstream, downstream := net.Pipe()
	defer upstream.Close()
	defer downstream.Close()
	var received bytes.Buffer
	done := runDownstream(t, downstream, int64(len(data)), int64(len(data)), &received)

	local, remote, err := teeToStoreAndPipeline(ctx, bytes.NewReader(data), store, "chunk-1", upstream)
	if err != nil {
		t.Fatalf("tee failed: %v", err)
	}
	if derr := <-done; derr != nil {
		t.Fatalf("downstream failed: %v", derr)
	}

	if local != int64(len(data)) {
		t.Errorf("local written = %d, want %d", local, len(data))
	}
	if remote != int64(len(data)) {
		t.Errorf("downstream receipt = %d, want %d", remote, len(data))
	}
	if !bytes.Equal(received.Bytes(), data) {
		t.Error("downstream bytes differ from the source")
	}

	// The local branch staged an identical copy.
	if _, err := store.Commit(ctx, "chunk-1"); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	r, err := store.Read(ctx, "chunk-1")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	staged, err := io.ReadAll(r)
	r.Close()
	if err != nil {
		t.Fatalf("reading staged copy: %v", err)
	}
	if !bytes.Equal(staged, data) {
		t.Error("staged bytes differ from the source")
	}
}

func TestTeeReportsShortDownstream(t *testing.T) {
	ctx := context.Background()
	store, err := chunkstore.NewFileStore(chunkstore.Config{Root: t.TempDir()})
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	data := bytes.Repeat([]byte("x"), 4096)

	upstream, downstream := net.Pipe()
	defer upstream.Close()
	defer downstream.Close()
	var sink bytes.Buffer
	// The downstream consumes everything but acknowledges less: the
	// hop is treated as short by the caller via min(local, remote).
	done := runDownstream(t, downstream, int64(len(data)), 100, &sink)

	local, remote, err := teeToStoreAndPipeline(ctx, bytes.NewReader(data), store, "chunk-1", upstream)
	if err != nil {
		t.Fatalf("tee failed: %v", err)
	}
	if derr := <-done; derr != nil {
		t.Fatalf("downstream failed: %v", derr)
	}
	if local != int64(len(data)) {
		t.Errorf("local written = %d, want %d", local, len(data))
	}
	if remote != 100 {
		t.Errorf("downstream receipt = %d, want 100", remote)
	}
	if min(local, remote) != 100 {
		t.Errorf("receipt to upstream would be %d, want 100", min(local, remote))
	}
}
