// Package rpc defines the three gRPC services of the cluster — the
// client↔namenode, datanode↔namenode, and datanode↔datanode surfaces —
// together with their message types and thin typed clients.
//
// Messages travel as msgpack rather than protobuf: the service
// descriptors are written by hand (no protoc-gen-go-grpc stubs), and a
// msgpack codec is registered with the gRPC runtime so plain Go structs
// can cross the wire. Servers pick the codec from the request's
// content-subtype; clients force it on every call via CallOption.
package rpc

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// CodecName is the gRPC content-subtype the cluster speaks.
const CodecName = "msgpack"

// TicketMetadataKey is the request metadata header carrying the base64
// ticket on every authorized RPC.
const TicketMetadataKey = "ww-ticket"

func init() {
	encoding.RegisterCodec(msgpackCodec{})
}

type msgpackCodec struct{}

func (msgpackCodec) Marshal(v any) ([]byte, error) {
	b, err := msgpack.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("msgpack marshal: %w", err)
	}
	return b, nil
}

func (msgpackCodec) Unmarshal(data []byte, v any) error {
	if err := msgpack.Unmarshal(data, v); err != nil {
		return fmt.Errorf("msgpack unmarshal: %w", err)
	}
	return nil
}

func (msgpackCodec) Name() string { return CodecName }

// CallOptions returns the per-call options every typed client applies.
func CallOptions() []grpc.CallOption {
	return []grpc.CallOption{grpc.CallContentSubtype(CodecName)}
}
