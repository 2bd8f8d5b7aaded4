package rpc

import (
	"context"
	"errors"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

// fakeNamenode echoes enough state to prove the wire works.
type fakeNamenode struct {
	lastTicket string
	lastNodeID string
}

func (f *fakeNamenode) StoreFile(ctx context.Context, req *StoreFileRequest) (*StoreFileResponse, error) {
	f.lastNodeID, _ = NodeIDFromContext(ctx)
	return &StoreFileResponse{
		FileName: req.FileName,
		ChunkList: []ChunkMeta{{
			ID:          "chunk-1",
			StartOffset: 0,
			EndOffset:   req.FileSize,
			Locations:   []DatanodeMeta{{ID: "dn-1", Addrs: "host:1"}},
			Ticket:      "tkt",
		}},
	}, nil
}

func (f *fakeNamenode) FetchFile(ctx context.Context, req *FetchFileRequest) (*FetchFileResponse, error) {
	f.lastTicket, _ = TicketFromContext(ctx)
	return nil, status.Errorf(codes.NotFound, "file %q not found", req.FileName)
}

func (f *fakeNamenode) DeleteFile(ctx context.Context, req *DeleteFileRequest) (*DeleteFileResponse, error) {
	return &DeleteFileResponse{FilePresent: true}, nil
}

func dialFake(t *testing.T, srv ClientNamenodeServer) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	grpcSrv := grpc.NewServer()
	RegisterClientNamenodeServer(grpcSrv, srv)
	go func() { _ = grpcSrv.Serve(lis) }()
	t.Cleanup(grpcSrv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dialing bufconn: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestClientNamenodeOverWire(t *testing.T) {
	fake := &fakeNamenode{}
	client := NewClientNamenodeClient(dialFake(t, fake))
	ctx := WithNodeID(context.Background(), "client-1")

	resp, err := client.StoreFile(ctx, &StoreFileRequest{FileName: "f", FileSize: 42})
	if err != nil {
		t.Fatalf("StoreFile failed: %v", err)
	}
	if resp.FileName != "f" || len(resp.ChunkList) != 1 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if got := resp.ChunkList[0]; got.EndOffset != 42 || got.Locations[0].ID != "dn-1" {
		t.Errorf("chunk meta lost on the wire: %+v", got)
	}
	if fake.lastNodeID != "client-1" {
		t.Errorf("node id header = %q, want client-1", fake.lastNodeID)
	}
}

func TestStatusCodesCrossTheWire(t *testing.T) {
	client := NewClientNamenodeClient(dialFake(t, &fakeNamenode{}))

	_, err := client.FetchFile(context.Background(), &FetchFileRequest{FileName: "missing"})
	if err == nil {
		t.Fatal("FetchFile succeeded for a missing file")
	}
	if status.Code(err) != codes.NotFound {
		t.Errorf("status code = %v, want NotFound", status.Code(err))
	}
}

func TestTicketMetadataCrossesTheWire(t *testing.T) {
	fake := &fakeNamenode{}
	client := NewClientNamenodeClient(dialFake(t, fake))

	ctx := WithTicket(context.Background(), "b64-ticket")
	_, err := client.FetchFile(ctx, &FetchFileRequest{FileName: "x"})
	if err == nil {
		t.Fatal("expected NotFound")
	}
	var stErr interface{ GRPCStatus() *status.Status }
	if !errors.As(err, &stErr) {
		t.Fatalf("error is not a grpc status: %v", err)
	}
	if fake.lastTicket != "b64-ticket" {
		t.Errorf("ticket header = %q, want b64-ticket", fake.lastTicket)
	}
}
