package ledger

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openTestLedger(t *testing.T, path string) *FileLedger {
	t.Helper()
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return l
}

func TestRecordAndReplayRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.log")

	l := openTestLedger(t, path)
	l.StoreFile("report.pdf", 2)
	l.StoreChunk("report.pdf", 0, "chunk-a", 0, 100)
	l.StoreChunk("report.pdf", 1, "chunk-b", 100, 150)
	l.StoreFile("notes.txt", 1)
	l.StoreChunk("notes.txt", 0, "chunk-c", 0, 5)
	l.DeleteFile("notes.txt")
	l.DeleteChunk("notes.txt", "chunk-c")
	l.NodeKey("dn-1", "a2V5LWJ5dGVz")
	if err := l.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	replayed := openTestLedger(t, path)
	defer replayed.Close()
	st, keys, err := replayed.Replay()
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}

	chunks, ok := st.FileChunks("report.pdf")
	if !ok {
		t.Fatal("report.pdf missing after replay")
	}
	if len(chunks) != 2 || chunks[0].ID != "chunk-a" || chunks[1].ID != "chunk-b" {
		t.Errorf("replayed chunks = %v", chunks)
	}
	if chunks[1].StartOffset != 100 || chunks[1].EndOffset != 150 {
		t.Errorf("chunk-b range = [%d, %d), want [100, 150)", chunks[1].StartOffset, chunks[1].EndOffset)
	}
	if _, ok := st.FileChunks("notes.txt"); ok {
		t.Error("deleted file survived replay")
	}
	if keys["dn-1"] != "a2V5LWJ5dGVz" {
		t.Errorf("node keys = %v", keys)
	}
}

func TestReplaySkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.log")
	raw := "1700000000 store_file good.bin,1\n" +
		"garbage line\n" +
		"1700000001 store_chunk good.bin,0,chunk-x,0,10\n" +
		"1700000002 unknown_op whatever\n" +
		"1700000003 store_chunk bad-offsets,0,chunk-y,zero,ten\n"
	if err := os.WriteFile(path, []byte(raw), 0644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	l := openTestLedger(t, path)
	defer l.Close()
	st, _, err := l.Replay()
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	chunks, ok := st.FileChunks("good.bin")
	if !ok || len(chunks) != 1 || chunks[0].ID != "chunk-x" {
		t.Errorf("good records lost among malformed ones: %v", chunks)
	}
}

func TestReplayEmptyOnFirstBoot(t *testing.T) {
	l := openTestLedger(t, filepath.Join(t.TempDir(), "never-written.log"))
	defer l.Close()
	st, keys, err := l.Replay()
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if st == nil || len(keys) != 0 {
		t.Errorf("first boot replay: state=%v keys=%v", st, keys)
	}
}

func TestDeleteChunkMarksTombstone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.log")
	l := openTestLedger(t, path)
	l.StoreFile("f", 1)
	l.StoreChunk("f", 0, "chunk-a", 0, 10)
	l.DeleteFile("f")
	l.DeleteChunk("f", "chunk-a")
	if err := l.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	replayed := openTestLedger(t, path)
	defer replayed.Close()
	st, _, err := replayed.Replay()
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	c, ok := st.Chunk("chunk-a")
	if !ok {
		t.Fatal("chunk record missing after replay")
	}
	if !c.Deleted(time.Now()) {
		t.Errorf("chunk state = %v, want deleted tombstone", c.State.Kind)
	}
}
