package namenode

import "testing"

func TestPlanPartitionsContiguously(t *testing.T) {
	c := NewUUIDChunker()
	sizes := []uint64{1, 5, MaxChunkSize - 1, MaxChunkSize, MaxChunkSize + 1, 3*MaxChunkSize + 7}
	for _, size := range sizes {
		chunks := c.Plan(size)
		if len(chunks) == 0 {
			t.Fatalf("Plan(%d) returned no chunks", size)
		}
		if chunks[0].StartOffset != 0 {
			t.Errorf("Plan(%d): first chunk starts at %d, want 0", size, chunks[0].StartOffset)
		}
		if last := chunks[len(chunks)-1]; last.EndOffset != size {
			t.Errorf("Plan(%d): last chunk ends at %d, want %d", size, last.EndOffset, size)
		}
		seen := make(map[string]struct{})
		for i, chunk := range chunks {
			if chunk.Size() > MaxChunkSize {
				t.Errorf("Plan(%d): chunk %d spans %d bytes, over the bound", size, i, chunk.Size())
			}
			if i > 0 && chunk.StartOffset != chunks[i-1].EndOffset {
				t.Errorf("Plan(%d): gap between chunk %d and %d", size, i-1, i)
			}
			if len(chunk.ID) != 36 {
				t.Errorf("Plan(%d): chunk id %q is not a 36-char UUID", size, chunk.ID)
			}
			if _, dup := seen[chunk.ID]; dup {
				t.Errorf("Plan(%d): duplicate chunk id %q", size, chunk.ID)
			}
			seen[chunk.ID] = struct{}{}
		}
	}
}

func TestPlanExactBoundary(t *testing.T) {
	chunks := NewUUIDChunker().Plan(MaxChunkSize)
	if len(chunks) != 1 {
		t.Fatalf("Plan(MaxChunkSize) produced %d chunks, want 1", len(chunks))
	}
	if chunks[0].StartOffset != 0 || chunks[0].EndOffset != MaxChunkSize {
		t.Errorf("chunk range = [%d, %d), want [0, %d)", chunks[0].StartOffset, chunks[0].EndOffset, MaxChunkSize)
	}
}

func TestPlanJustOverBoundary(t *testing.T) {
	chunks := NewUUIDChunker().Plan(MaxChunkSize + 1)
	if len(chunks) != 2 {
		t.Fatalf("Plan(MaxChunkSize+1) produced %d chunks, want 2", len(chunks))
	}
	if chunks[0].EndOffset != MaxChunkSize {
		t.Errorf("first chunk ends at %d, want %d", chunks[0].EndOffset, uint64(MaxChunkSize))
	}
	if chunks[1].StartOffset != MaxChunkSize || chunks[1].EndOffset != MaxChunkSize+1 {
		t.Errorf("second chunk range = [%d, %d), want [%d, %d)", chunks[1].StartOffset, chunks[1].EndOffset, uint64(MaxChunkSize), uint64(MaxChunkSize+1))
	}
}

func TestPlanEmptyFile(t *testing.T) {
	chunks := NewUUIDChunker().Plan(0)
	if len(chunks) != 1 {
		t.Fatalf("Plan(0) produced %d chunks, want 1", len(chunks))
	}
	if chunks[0].StartOffset != 0 || chunks[0].EndOffset != 0 {
		t.Errorf("empty chunk range = [%d, %d), want [0, 0)", chunks[0].StartOffset, chunks[0].EndOffset)
	}
}
