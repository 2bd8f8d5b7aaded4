package ticket

import (
	"encoding/base64"
	"time"
)

// Mint assembles the double envelope: a ServerTicket sealed for the
// target wrapped in a ClientTicket sealed for the source. Only the
// namenode holds a Mint.
type Mint struct {
	generator Generator
}

// NewMint creates a Mint over the given keyring.
func NewMint(generator Generator) *Mint {
	return &Mint{generator: generator}
}

// MintTicket returns the base64 transport form of a ticket granting
// sourceID the right to invoke op on targetID.
func (m *Mint) MintTicket(sourceID, targetID string, op Operation) (string, error) {
	mintedAt := time.Now().Unix()
	ttlSecs := int64(TTL / time.Second)

	st := &ServerTicket{
		TargetNodeID: targetID,
		Operation:    op,
		MintedAtSecs: mintedAt,
		TTLSecs:      ttlSecs,
	}
	encryptedST, err := m.generator.EncryptServerTicket(st)
	if err != nil {
		return "", err
	}
	ct := &ClientTicket{
		NodeID:                sourceID,
		EncryptedServerTicket: base64.StdEncoding.EncodeToString(encryptedST),
		MintedAtSecs:          mintedAt,
		TTLSecs:               ttlSecs,
	}
	encryptedCT, err := m.generator.EncryptClientTicket(ct)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(encryptedCT), nil
}

// AddNodeKey mints a fresh key for nodeID (admin API key issuance).
func (m *Mint) AddNodeKey(nodeID string) (string, error) {
	return m.generator.UpsertNodeKey(nodeID)
}

// AddNodeKeyWith installs a known key for nodeID (ledger replay).
func (m *Mint) AddNodeKeyWith(nodeID, encodedKey string) error {
	return m.generator.UpsertNodeKeyWith(nodeID, encodedKey)
}
