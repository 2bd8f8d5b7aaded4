// Package datanode implements the storage node: the framed TCP data
// plane, the chunk control plane, and the state reporter that keeps the
// namenode's view current.
package datanode

import (
	"net"
	"sync"
)

// pipelineEntry is the in-flight write state for one chunk: the open
// TCP connection to the downstream replica, the downstream's gRPC
// address for commit propagation, and the server ticket authorizing
// the hop.
type pipelineEntry struct {
	conn           net.Conn
	nextReplica    string
	outboundTicket string
}

// State is the datanode's mutable runtime state: identity, addresses,
// and the per-chunk pipeline table. One mutex guards the maps; entries
// are inserted on StoreChunk/CreatePipeline and consumed on the write
// and commit paths.
type State struct {
	ID        string
	Name      string
	GrpcAddrs string
	TCPAddrs  string

	mu              sync.Mutex
	chunkToPipeline map[string]pipelineEntry
	availableChunks map[string]struct{}
	toBeDeleted     []string
}

// NewState returns runtime state for a node with the given identity.
func NewState(id, name, grpcAddrs, tcpAddrs string) *State {
	return &State{
		ID:              id,
		Name:            name,
		GrpcAddrs:       grpcAddrs,
		TCPAddrs:        tcpAddrs,
		chunkToPipeline: make(map[string]pipelineEntry),
		availableChunks: make(map[string]struct{}),
	}
}

// RegisterPipeline records the downstream hop for an in-flight chunk.
func (s *State) RegisterPipeline(chunkID string, conn net.Conn, nextReplica, outboundTicket string) {
	s.mu.Lock()
	s.chunkToPipeline[chunkID] = pipelineEntry{conn: conn, nextReplica: nextReplica, outboundTicket: outboundTicket}
	s.mu.Unlock()
}

// TakePipelineConn removes and returns the downstream connection for
// chunkID; the TCP write path owns it from then on. The remaining
// entry (address + ticket) stays for commit propagation.
func (s *State) TakePipelineConn(chunkID string) (net.Conn, string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.chunkToPipeline[chunkID]
	if !ok || entry.conn == nil {
		return nil, "", false
	}
	conn := entry.conn
	entry.conn = nil
	s.chunkToPipeline[chunkID] = entry
	return conn, entry.outboundTicket, true
}

// TakeNextReplica removes the pipeline entry for chunkID and returns
// the downstream's gRPC address and hop ticket for commit forwarding.
func (s *State) TakeNextReplica(chunkID string) (addr, outboundTicket string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, found := s.chunkToPipeline[chunkID]
	if !found || entry.nextReplica == "" {
		return "", "", false
	}
	delete(s.chunkToPipeline, chunkID)
	if entry.conn != nil {
		_ = entry.conn.Close()
	}
	return entry.nextReplica, entry.outboundTicket, true
}

// DropPipeline discards any pipeline state for chunkID.
func (s *State) DropPipeline(chunkID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.chunkToPipeline[chunkID]; ok && entry.conn != nil {
		_ = entry.conn.Close()
	}
	delete(s.chunkToPipeline, chunkID)
}

// SetAvailableChunks replaces the cached committed-chunk set.
func (s *State) SetAvailableChunks(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.availableChunks = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s.availableChunks[id] = struct{}{}
	}
}

// HasChunk reports whether the node believes it holds a committed copy.
func (s *State) HasChunk(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.availableChunks[id]
	return ok
}

// AvailableChunks returns the cached committed-chunk ids.
func (s *State) AvailableChunks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.availableChunks))
	for id := range s.availableChunks {
		out = append(out, id)
	}
	return out
}

// EnqueueDeletions adds namenode-requested deletions to the local queue.
func (s *State) EnqueueDeletions(ids []string) {
	if len(ids) == 0 {
		return
	}
	s.mu.Lock()
	s.toBeDeleted = append(s.toBeDeleted, ids...)
	s.mu.Unlock()
}

// DrainDeletions empties and returns the deletion queue.
func (s *State) DrainDeletions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.toBeDeleted
	s.toBeDeleted = nil
	return out
}
