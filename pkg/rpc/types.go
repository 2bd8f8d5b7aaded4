package rpc

// DatanodeMeta identifies one datanode in a replica set. Addrs is the
// node's external gRPC address; order within a replica set defines the
// write pipeline.
type DatanodeMeta struct {
	ID    string `msgpack:"id"`
	Name  string `msgpack:"name"`
	Addrs string `msgpack:"addrs"`
}

// ChunkMeta is one entry of a chunk plan: the chunk's byte range in the
// owning file, the replica set, and the capability ticket for the first
// hop.
type ChunkMeta struct {
	ID          string         `msgpack:"id"`
	StartOffset uint64         `msgpack:"start_offset"`
	EndOffset   uint64         `msgpack:"end_offset"`
	Locations   []DatanodeMeta `msgpack:"locations"`
	Ticket      string         `msgpack:"ticket"`
}

// Client↔Namenode messages.

type StoreFileRequest struct {
	FileName string `msgpack:"file_name"`
	FileSize uint64 `msgpack:"file_size"`
}

type StoreFileResponse struct {
	FileName  string      `msgpack:"file_name"`
	ChunkList []ChunkMeta `msgpack:"chunk_list"`
}

type FetchFileRequest struct {
	FileName string `msgpack:"file_name"`
}

type FetchFileResponse struct {
	FileName  string      `msgpack:"file_name"`
	ChunkList []ChunkMeta `msgpack:"chunk_list"`
}

type DeleteFileRequest struct {
	FileName string `msgpack:"file_name"`
}

type DeleteFileResponse struct {
	FilePresent bool `msgpack:"file_present"`
}

// Datanode↔Namenode messages.

type ConnectionRequest struct {
	ID    string `msgpack:"id"`
	Name  string `msgpack:"name"`
	Addrs string `msgpack:"addrs"`
}

type ConnectionResponse struct {
	Connected bool   `msgpack:"connected"`
	Msg       string `msgpack:"msg"`
}

type HeartBeatRequest struct {
	DatanodeID string `msgpack:"datanode_id"`
}

type HeartBeatResponse struct {
	ConnectionAlive bool `msgpack:"connection_alive"`
}

type StateSyncRequest struct {
	ID               string   `msgpack:"id"`
	AvailableChunks  []string `msgpack:"available_chunks"`
	AvailableStorage uint64   `msgpack:"available_storage"`
}

type StateSyncResponse struct {
	ChunksToBeDeleted []string `msgpack:"chunks_to_be_deleted"`
}

type StoreChunkTicketRequest struct {
	SourceID string `msgpack:"source_id"`
	TargetID string `msgpack:"target_id"`
	ChunkID  string `msgpack:"chunk_id"`
}

type StoreChunkTicketResponse struct {
	Ticket string `msgpack:"ticket"`
}

// Datanode service messages (client, peer, and namenode callers).

type StoreChunkRequest struct {
	ChunkID    string         `msgpack:"chunk_id"`
	ReplicaSet []DatanodeMeta `msgpack:"replica_set"`
}

type StoreChunkResponse struct {
	// Address is this datanode's external TCP address; the caller
	// streams the chunk bytes there.
	Address string `msgpack:"address"`
}

type CommitChunkRequest struct {
	ChunkID string `msgpack:"chunk_id"`
}

type CommitChunkResponse struct {
	Committed bool `msgpack:"committed"`
}

type FetchChunkRequest struct {
	ChunkID string `msgpack:"chunk_id"`
}

type FetchChunkResponse struct {
	Address string `msgpack:"address"`
}

type CreatePipelineRequest struct {
	ChunkID    string         `msgpack:"chunk_id"`
	ReplicaSet []DatanodeMeta `msgpack:"replica_set"`
}

type CreatePipelineResponse struct {
	Address string `msgpack:"address"`
}

type ReplicateChunkRequest struct {
	ChunkID string `msgpack:"chunk_id"`
	// Target is the datanode that should receive a new copy.
	Target DatanodeMeta `msgpack:"target"`
	// Ticket authorizes this node (the source) to call StoreChunk and
	// CommitChunk on the target; minted by the namenode.
	Ticket string `msgpack:"ticket"`
}

type ReplicateChunkResponse struct {
	Replicated bool `msgpack:"replicated"`
}

type DeleteChunkRequest struct {
	ChunkID string `msgpack:"chunk_id"`
}

type DeleteChunkResponse struct {
	Existed bool `msgpack:"existed"`
}
