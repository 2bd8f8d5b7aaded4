package client

import (
	"bytes"
	"crypto/rand"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/Lovepreet67/whispering-woods/pkg/rpc"
)

func TestChunkerBoundedReaders(t *testing.T) {
	data := make([]byte, 9000)
	if _, err := rand.Read(data); err != nil {
		t.Fatalf("generating payload: %v", err)
	}
	path := filepath.Join(t.TempDir(), "in.bin")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	chunks := []rpc.ChunkMeta{
		{ID: "c0", StartOffset: 0, EndOffset: 4096},
		{ID: "c1", StartOffset: 4096, EndOffset: 8192},
		{ID: "c2", StartOffset: 8192, EndOffset: 9000},
	}
	chunker := NewFileChunker(path, chunks)

	// Readers are independent: read the last chunk first.
	for _, i := range []int{2, 0, 1} {
		r, err := chunker.Open(i)
		if err != nil {
			t.Fatalf("Open(%d) failed: %v", i, err)
		}
		got, err := io.ReadAll(r)
		r.Close()
		if err != nil {
			t.Fatalf("reading chunk %d: %v", i, err)
		}
		want := data[chunks[i].StartOffset:chunks[i].EndOffset]
		if !bytes.Equal(got, want) {
			t.Errorf("chunk %d bytes differ from the file range", i)
		}
	}
}

func TestChunkerIndexOutOfRange(t *testing.T) {
	chunker := NewFileChunker("whatever", nil)
	if _, err := chunker.Open(0); err == nil {
		t.Error("Open accepted an index with no chunks")
	}
}
