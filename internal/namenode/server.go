package namenode

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/Lovepreet67/whispering-woods/internal/logger"
	"github.com/Lovepreet67/whispering-woods/internal/namenode/api"
	"github.com/Lovepreet67/whispering-woods/internal/namenode/ledger"
	"github.com/Lovepreet67/whispering-woods/internal/namenode/state"
	"github.com/Lovepreet67/whispering-woods/pkg/config"
	"github.com/Lovepreet67/whispering-woods/pkg/metrics"
	"github.com/Lovepreet67/whispering-woods/pkg/rpc"
	"github.com/Lovepreet67/whispering-woods/pkg/ticket"
	"google.golang.org/grpc"
)

// shutdownTimeout bounds graceful teardown of the admin surface.
const shutdownTimeout = 10 * time.Second

// Server assembles and runs the coordinator: ledger replay, the gRPC
// services, the reconciliation loop, and the admin API.
type Server struct {
	cfg *config.NamenodeConfig

	st         *state.State
	ldg        ledger.Ledger
	mint       *ticket.Mint
	snaps      *state.SnapshotStore
	reconciler *Reconciler
	grpcSrv    *grpc.Server
	apiSrv     *api.Server
}

// NewServer boots coordinator state from the ledger and wires every
// subsystem. An unreadable ledger is fatal.
func NewServer(cfg *config.NamenodeConfig) (*Server, error) {
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
	}
	m := metrics.NewNamenodeMetrics()

	ldg, err := ledger.Open(cfg.LedgerFile)
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	st, nodeKeys, err := ldg.Replay()
	if err != nil {
		return nil, fmt.Errorf("replaying ledger: %w", err)
	}
	logger.Info("ledger replayed", "node_keys", len(nodeKeys))

	generator := ticket.NewAESGenerator()
	mint := ticket.NewMint(generator)
	for nodeID, key := range nodeKeys {
		if err := mint.AddNodeKeyWith(nodeID, key); err != nil {
			logger.Error("restoring node key from ledger", "node_id", nodeID, "error", err)
		}
	}

	policy := NewFirstFitPolicy(st, cfg.ReplicationFactor)
	snaps := state.NewSnapshotStore()
	service := NewDatanodeService(cfg.ID, mint)

	grpcSrv := grpc.NewServer()
	rpc.RegisterClientNamenodeServer(grpcSrv, NewClientHandler(st, NewUUIDChunker(), policy, ldg, mint, m))
	rpc.RegisterDatanodeNamenodeServer(grpcSrv, NewDatanodeHandler(st, mint))

	apiSrv := api.NewServer(api.Config{
		Port:       cfg.APIPort,
		Username:   cfg.APIUsername,
		Password:   cfg.APIPassword,
		JWTSignKey: cfg.APIJwtSignKey,
	}, mint, ldg, snaps)

	return &Server{
		cfg:        cfg,
		st:         st,
		ldg:        ldg,
		mint:       mint,
		snaps:      snaps,
		reconciler: NewReconciler(st, policy, service, snaps, cfg.ReplicationFactor, m),
		grpcSrv:    grpcSrv,
		apiSrv:     apiSrv,
	}, nil
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.InternalGrpcPort))
	if err != nil {
		return fmt.Errorf("listening on grpc port: %w", err)
	}

	go s.reconciler.Run(ctx)
	go func() {
		if err := s.apiSrv.Start(); err != nil {
			logger.Error("admin api stopped", "error", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("namenode grpc listening", "addr", lis.Addr().String())
		errCh <- s.grpcSrv.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		s.shutdown()
		return nil
	case err := <-errCh:
		s.shutdown()
		return err
	}
}

func (s *Server) shutdown() {
	s.grpcSrv.GracefulStop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.apiSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutting down admin api", "error", err)
	}
	if err := s.ldg.Close(); err != nil {
		logger.Error("closing ledger", "error", err)
	}
}
