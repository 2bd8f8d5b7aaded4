package ticket

import (
	"testing"
	"time"
)

// newCluster mints keys for a client and a datanode and returns the
// mint plus each side's decrypter.
func newCluster(t *testing.T) (*Mint, Decrypter, Decrypter) {
	t.Helper()
	gen := NewAESGenerator()
	mint := NewMint(gen)

	clientKey, err := mint.AddNodeKey("client-1")
	if err != nil {
		t.Fatalf("AddNodeKey(client-1) failed: %v", err)
	}
	nodeKey, err := mint.AddNodeKey("dn-1")
	if err != nil {
		t.Fatalf("AddNodeKey(dn-1) failed: %v", err)
	}

	clientDec, err := NewAESDecrypter(clientKey)
	if err != nil {
		t.Fatalf("NewAESDecrypter(client) failed: %v", err)
	}
	nodeDec, err := NewAESDecrypter(nodeKey)
	if err != nil {
		t.Fatalf("NewAESDecrypter(node) failed: %v", err)
	}
	return mint, clientDec, nodeDec
}

func TestMintAndDecryptRoundTrip(t *testing.T) {
	mint, clientDec, nodeDec := newCluster(t)

	raw, err := mint.MintTicket("client-1", "dn-1", StoreChunk("chunk-1"))
	if err != nil {
		t.Fatalf("MintTicket failed: %v", err)
	}

	// The source opens the outer envelope only.
	ct, err := clientDec.DecryptClientTicket(raw)
	if err != nil {
		t.Fatalf("DecryptClientTicket failed: %v", err)
	}
	if ct.NodeID != "client-1" {
		t.Errorf("client ticket bound to %q, want client-1", ct.NodeID)
	}

	// The target opens the forwarded inner envelope.
	st, err := nodeDec.DecryptServerTicket(ct.EncryptedServerTicket)
	if err != nil {
		t.Fatalf("DecryptServerTicket failed: %v", err)
	}
	if st.TargetNodeID != "dn-1" {
		t.Errorf("server ticket targets %q, want dn-1", st.TargetNodeID)
	}
	if st.Operation.Kind != OpStoreChunk || st.Operation.ChunkID != "chunk-1" {
		t.Errorf("server ticket operation = %+v, want StoreChunk(chunk-1)", st.Operation)
	}
	if err := st.Verify("dn-1", OpStoreChunk, "chunk-1"); err != nil {
		t.Errorf("Verify rejected a valid ticket: %v", err)
	}
}

func TestVerifyBindings(t *testing.T) {
	mint, clientDec, nodeDec := newCluster(t)

	raw, err := mint.MintTicket("client-1", "dn-1", StoreChunk("chunk-1"))
	if err != nil {
		t.Fatalf("MintTicket failed: %v", err)
	}
	ct, err := clientDec.DecryptClientTicket(raw)
	if err != nil {
		t.Fatalf("DecryptClientTicket failed: %v", err)
	}
	st, err := nodeDec.DecryptServerTicket(ct.EncryptedServerTicket)
	if err != nil {
		t.Fatalf("DecryptServerTicket failed: %v", err)
	}

	// A store ticket presented as a fetch is rejected.
	if err := st.Verify("dn-1", OpFetchChunk, "chunk-1"); err == nil {
		t.Error("Verify accepted an operation mismatch")
	}
	// A ticket bound to chunk-1 does not authorize chunk-2.
	if err := st.Verify("dn-1", OpStoreChunk, "chunk-2"); err == nil {
		t.Error("Verify accepted a chunk mismatch")
	}
	// A ticket for dn-1 is useless on dn-2.
	if err := st.Verify("dn-2", OpStoreChunk, "chunk-1"); err == nil {
		t.Error("Verify accepted a target mismatch")
	}
}

func TestVerifyExpiry(t *testing.T) {
	st := &ServerTicket{
		TargetNodeID: "dn-1",
		Operation:    FetchChunk("chunk-1"),
		MintedAtSecs: time.Now().Add(-10 * time.Minute).Unix(),
		TTLSecs:      300,
	}
	if err := st.Verify("dn-1", OpFetchChunk, "chunk-1"); err == nil {
		t.Error("Verify accepted an expired ticket")
	}
}

func TestWrongKeyCannotDecrypt(t *testing.T) {
	mint, _, _ := newCluster(t)

	otherGen := NewAESGenerator()
	otherMint := NewMint(otherGen)
	otherKey, err := otherMint.AddNodeKey("dn-2")
	if err != nil {
		t.Fatalf("AddNodeKey failed: %v", err)
	}
	otherDec, err := NewAESDecrypter(otherKey)
	if err != nil {
		t.Fatalf("NewAESDecrypter failed: %v", err)
	}

	raw, err := mint.MintTicket("client-1", "dn-1", StoreChunk("chunk-1"))
	if err != nil {
		t.Fatalf("MintTicket failed: %v", err)
	}
	if _, err := otherDec.DecryptClientTicket(raw); err == nil {
		t.Error("a foreign key decrypted the client ticket")
	}
}

func TestKeyRestoreRoundTrip(t *testing.T) {
	gen := NewAESGenerator()
	mint := NewMint(gen)
	key, err := mint.AddNodeKey("dn-1")
	if err != nil {
		t.Fatalf("AddNodeKey failed: %v", err)
	}

	// A fresh mint restored from the persisted key mints tickets the
	// same decrypter can open.
	restored := NewMint(NewAESGenerator())
	if err := restored.AddNodeKeyWith("dn-1", key); err != nil {
		t.Fatalf("AddNodeKeyWith failed: %v", err)
	}
	if err := restored.AddNodeKeyWith("client-1", key); err != nil {
		t.Fatalf("AddNodeKeyWith failed: %v", err)
	}
	raw, err := restored.MintTicket("client-1", "dn-1", DeleteChunk("chunk-9"))
	if err != nil {
		t.Fatalf("MintTicket failed: %v", err)
	}
	dec, err := NewAESDecrypter(key)
	if err != nil {
		t.Fatalf("NewAESDecrypter failed: %v", err)
	}
	if _, err := dec.DecryptClientTicket(raw); err != nil {
		t.Errorf("restored key failed to decrypt: %v", err)
	}
}

func TestAddNodeKeyWithRejectsBadKey(t *testing.T) {
	mint := NewMint(NewAESGenerator())
	if err := mint.AddNodeKeyWith("dn-1", "dG9vLXNob3J0"); err == nil {
		t.Error("AddNodeKeyWith accepted a short key")
	}
	if err := mint.AddNodeKeyWith("dn-1", "not base64!!"); err == nil {
		t.Error("AddNodeKeyWith accepted invalid base64")
	}
}
