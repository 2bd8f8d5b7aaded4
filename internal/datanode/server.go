package datanode

import (
	"context"
	"fmt"
	"net"

	"github.com/Lovepreet67/whispering-woods/internal/logger"
	"github.com/Lovepreet67/whispering-woods/pkg/chunkstore"
	"github.com/Lovepreet67/whispering-woods/pkg/config"
	"github.com/Lovepreet67/whispering-woods/pkg/rpc"
	"github.com/Lovepreet67/whispering-woods/pkg/ticket"
	"google.golang.org/grpc"
)

// Server assembles and runs a storage node: the chunk store, the TCP
// data plane, the gRPC control plane, and the reporter loops.
type Server struct {
	cfg *config.DatanodeConfig

	state    *State
	store    *chunkstore.FileStore
	tcpSrv   *TCPService
	grpcSrv  *grpc.Server
	reporter *Reporter
}

// NewServer wires a datanode from its config.
func NewServer(cfg *config.DatanodeConfig) (*Server, error) {
	store, err := chunkstore.NewFileStore(chunkstore.Config{
		Root:                cfg.Storage.StoragePath,
		CreateMount:         cfg.Storage.CreateMount,
		MountSizeInMegaByte: cfg.Storage.MountSizeInMegaByte,
	})
	if err != nil {
		return nil, fmt.Errorf("preparing chunk store: %w", err)
	}

	decrypter, err := ticket.NewAESDecrypter(cfg.TicketKey)
	if err != nil {
		return nil, fmt.Errorf("loading ticket key: %w", err)
	}

	st := NewState(cfg.DatanodeID, cfg.DatanodeName, cfg.ExternalGrpcAddrs, cfg.ExternalTCPAddrs)
	namenode := NewNamenodeService(cfg.NamenodeAddrs, st)
	peers := NewPeerService()

	tcpSrv, err := NewTCPService(fmt.Sprintf(":%d", cfg.InternalTCPPort), store, st, decrypter)
	if err != nil {
		return nil, err
	}

	grpcSrv := grpc.NewServer()
	rpc.RegisterDatanodeServer(grpcSrv, NewHandler(st, store, decrypter, namenode, peers))

	return &Server{
		cfg:      cfg,
		state:    st,
		store:    store,
		tcpSrv:   tcpSrv,
		grpcSrv:  grpcSrv,
		reporter: NewReporter(st, store, namenode),
	}, nil
}

// Run registers with the coordinator and serves until ctx ends.
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.InternalGrpcPort))
	if err != nil {
		return fmt.Errorf("listening on grpc port: %w", err)
	}

	if err := s.reporter.Connect(ctx); err != nil {
		return err
	}
	s.reporter.Run(ctx)

	errCh := make(chan error, 2)
	go func() {
		logger.Info("datanode data plane listening", "addr", s.tcpSrv.Addr())
		errCh <- s.tcpSrv.Serve(ctx)
	}()
	go func() {
		logger.Info("datanode grpc listening", "addr", lis.Addr().String())
		errCh <- s.grpcSrv.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		s.grpcSrv.GracefulStop()
		return nil
	case err := <-errCh:
		s.grpcSrv.GracefulStop()
		return err
	}
}
