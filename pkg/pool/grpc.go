// Package pool holds the process-wide transport pools. The namenode
// needs handles to every datanode and each datanode needs a handle back
// to the namenode; both sides cache by address here instead of owning
// each other's lifecycle.
package pool

import (
	"fmt"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/backoff"
	"google.golang.org/grpc/credentials/insecure"
)

// DialTimeout bounds how long a new connection attempt may take.
const DialTimeout = 5 * time.Second

// GrpcPool caches one *grpc.ClientConn per address. Connections are
// multiplexed and safe for concurrent use, so callers share the cached
// handle.
type GrpcPool struct {
	mu    sync.Mutex
	conns map[string]*grpc.ClientConn
}

var grpcPool = &GrpcPool{conns: make(map[string]*grpc.ClientConn)}

// Grpc returns the process-wide gRPC channel pool.
func Grpc() *GrpcPool {
	return grpcPool
}

// Channel returns the cached connection for addr, dialing one if
// needed. gRPC dials lazily; the connect timeout applies to each
// underlying connection attempt.
func (p *GrpcPool) Channel(addr string) (*grpc.ClientConn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if conn, ok := p.conns[addr]; ok {
		return conn, nil
	}
	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithConnectParams(grpc.ConnectParams{
			Backoff:           backoff.DefaultConfig,
			MinConnectTimeout: DialTimeout,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", addr, err)
	}
	p.conns[addr] = conn
	return conn, nil
}

// Close tears down every cached connection. Used by tests.
func (p *GrpcPool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for addr, conn := range p.conns {
		_ = conn.Close()
		delete(p.conns, addr)
	}
}
