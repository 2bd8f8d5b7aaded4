package rpc

import (
	"testing"

	"google.golang.org/grpc/encoding"
)

func TestCodecRegistered(t *testing.T) {
	if encoding.GetCodec(CodecName) == nil {
		t.Fatal("msgpack codec is not registered with the grpc runtime")
	}
}

func TestCodecRoundTrip(t *testing.T) {
	codec := encoding.GetCodec(CodecName)
	in := &StoreFileResponse{
		FileName: "f",
		ChunkList: []ChunkMeta{{
			ID:          "chunk-1",
			StartOffset: 0,
			EndOffset:   42,
			Locations: []DatanodeMeta{
				{ID: "dn-1", Name: "node one", Addrs: "host:7000"},
				{ID: "dn-2", Name: "node two", Addrs: "host:7001"},
			},
			Ticket: "dGlja2V0",
		}},
	}
	raw, err := codec.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	out := &StoreFileResponse{}
	if err := codec.Unmarshal(raw, out); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if out.FileName != in.FileName || len(out.ChunkList) != 1 {
		t.Fatalf("round trip lost data: %+v", out)
	}
	got, want := out.ChunkList[0], in.ChunkList[0]
	if got.ID != want.ID || got.EndOffset != want.EndOffset || got.Ticket != want.Ticket {
		t.Errorf("chunk meta mismatch: got %+v, want %+v", got, want)
	}
	if len(got.Locations) != 2 || got.Locations[1].Addrs != "host:7001" {
		t.Errorf("replica set mismatch: %+v", got.Locations)
	}
}
