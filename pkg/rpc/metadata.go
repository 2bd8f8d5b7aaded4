package rpc

import (
	"context"

	"google.golang.org/grpc/metadata"
)

// NodeIDMetadataKey is the request metadata header identifying the
// calling node to the ticket subsystem.
const NodeIDMetadataKey = "ww-node-id"

// WithNodeID attaches the caller's node id to the outgoing request
// metadata. The namenode binds minted client tickets to it.
func WithNodeID(ctx context.Context, nodeID string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, NodeIDMetadataKey, nodeID)
}

// NodeIDFromContext extracts the caller's node id header.
func NodeIDFromContext(ctx context.Context) (string, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", false
	}
	values := md.Get(NodeIDMetadataKey)
	if len(values) == 0 || values[0] == "" {
		return "", false
	}
	return values[0], true
}

// WithTicket attaches a base64 ticket to the outgoing request metadata.
func WithTicket(ctx context.Context, ticket string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, TicketMetadataKey, ticket)
}

// TicketFromContext extracts the ticket header from an incoming
// request. The second return is false when no ticket was sent.
func TicketFromContext(ctx context.Context) (string, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", false
	}
	values := md.Get(TicketMetadataKey)
	if len(values) == 0 || values[0] == "" {
		return "", false
	}
	return values[0], true
}
