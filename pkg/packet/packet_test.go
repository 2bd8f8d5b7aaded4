package packet

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestDecode(t *testing.T) {
	field1 := []byte("content_size:not a size bro")
	field2 := []byte("auth_type:jwt_token")

	var buf bytes.Buffer
	var size [4]byte
	binary.LittleEndian.PutUint32(size[:], uint32(len(field1)))
	buf.Write(size[:])
	buf.Write(field1)
	binary.LittleEndian.PutUint32(size[:], uint32(len(field2)))
	buf.Write(size[:])
	buf.Write(field2)
	binary.LittleEndian.PutUint32(size[:], 0)
	buf.Write(size[:])

	p, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	got, err := p.Get("auth_type")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != "jwt_token" {
		t.Errorf("Get(auth_type) = %q, want %q", got, "jwt_token")
	}
	// Values may themselves contain the separator; only the first
	// colon splits.
	got, err = p.Get("content_size")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != "not a size bro" {
		t.Errorf("Get(content_size) = %q, want %q", got, "not a size bro")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	p := New()
	p.Set(KeyMode, ModeWrite)
	p.Set(KeyChunkID, "chunk-1")
	p.SetInt(KeyChunkSize, 4096)
	p.Set(KeyTicket, "dGlja2V0")

	decoded, err := Decode(bytes.NewReader(p.Encode()))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	for _, key := range []string{KeyMode, KeyChunkID, KeyChunkSize, KeyTicket} {
		want, _ := p.Get(key)
		got, err := decoded.Get(key)
		if err != nil {
			t.Fatalf("Get(%s) failed: %v", key, err)
		}
		if got != want {
			t.Errorf("Get(%s) = %q, want %q", key, got, want)
		}
	}
	if n, err := decoded.GetInt(KeyChunkSize); err != nil || n != 4096 {
		t.Errorf("GetInt(chunk_size) = %d, %v; want 4096", n, err)
	}
}

func TestDecodeMalformedField(t *testing.T) {
	field := []byte("no separator here")
	var buf bytes.Buffer
	var size [4]byte
	binary.LittleEndian.PutUint32(size[:], uint32(len(field)))
	buf.Write(size[:])
	buf.Write(field)
	binary.LittleEndian.PutUint32(size[:], 0)
	buf.Write(size[:])

	if _, err := Decode(&buf); err == nil {
		t.Fatal("Decode accepted a field without a separator")
	}
}

func TestDecodeOversizedField(t *testing.T) {
	var buf bytes.Buffer
	var size [4]byte
	binary.LittleEndian.PutUint32(size[:], maxFieldSize+1)
	buf.Write(size[:])

	if _, err := Decode(&buf); err == nil {
		t.Fatal("Decode accepted an oversized field length")
	}
}

func TestGetMissingField(t *testing.T) {
	p := New()
	if _, err := p.Get("absent"); err == nil {
		t.Fatal("Get returned a value for an absent field")
	}
}

func TestGetIntRejectsNegative(t *testing.T) {
	p := New()
	p.Set(KeyChunkSize, "-5")
	if _, err := p.GetInt(KeyChunkSize); err == nil {
		t.Fatal("GetInt accepted a negative size")
	}
}
