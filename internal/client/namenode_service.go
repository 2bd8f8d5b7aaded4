package client

import (
	"context"
	"fmt"

	"github.com/Lovepreet67/whispering-woods/pkg/pool"
	"github.com/Lovepreet67/whispering-woods/pkg/rpc"
)

// NamenodeService is the client's coordinator surface.
type NamenodeService struct {
	clientID string
	addrs    string
}

// NewNamenodeService wires the coordinator calls for this client.
func NewNamenodeService(clientID, addrs string) *NamenodeService {
	return &NamenodeService{clientID: clientID, addrs: addrs}
}

func (n *NamenodeService) call(ctx context.Context) (*rpc.ClientNamenodeClient, context.Context, error) {
	conn, err := pool.Grpc().Channel(n.addrs)
	if err != nil {
		return nil, nil, err
	}
	return rpc.NewClientNamenodeClient(conn), rpc.WithNodeID(ctx, n.clientID), nil
}

// StoreFile requests a chunk plan for a new file.
func (n *NamenodeService) StoreFile(ctx context.Context, name string, size uint64) ([]rpc.ChunkMeta, error) {
	client, ctx, err := n.call(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := client.StoreFile(ctx, &rpc.StoreFileRequest{FileName: name, FileSize: size})
	if err != nil {
		return nil, fmt.Errorf("requesting store plan: %w", err)
	}
	return resp.ChunkList, nil
}

// FetchFile requests the chunk plan of an existing file.
func (n *NamenodeService) FetchFile(ctx context.Context, name string) ([]rpc.ChunkMeta, error) {
	client, ctx, err := n.call(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := client.FetchFile(ctx, &rpc.FetchFileRequest{FileName: name})
	if err != nil {
		return nil, fmt.Errorf("requesting fetch plan: %w", err)
	}
	return resp.ChunkList, nil
}

// DeleteFile removes a file from the cluster namespace.
func (n *NamenodeService) DeleteFile(ctx context.Context, name string) (bool, error) {
	client, ctx, err := n.call(ctx)
	if err != nil {
		return false, err
	}
	resp, err := client.DeleteFile(ctx, &rpc.DeleteFileRequest{FileName: name})
	if err != nil {
		return false, fmt.Errorf("deleting file: %w", err)
	}
	return resp.FilePresent, nil
}
