package grpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls the ledger service with JSON-shaped request and response values
type Client struct {
	conn   grpc.ClientConnInterface
	token  string
	userID string
}

// NewClient creates a client that authenticates as userID with token
func NewClient(conn grpc.ClientConnInterface, token, userID string) *Client {
	return &Client{conn: conn, token: token, userID: userID}
}

// Call invokes method with req encoded as a Struct and decodes the reply
// into resp. resp may be nil when the reply is not needed.
func (c *Client) Call(ctx context.Context, method string, req, resp any) error {
	in, err := encode(req)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	ctx = metadata.AppendToOutgoingContext(ctx, AuthorizationKey, c.token, UserIDKey, c.userID)

	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, "/"+ServiceName+"/"+method, in, out); err != nil {
		return err
	}

	if resp == nil {
		return nil
	}

	if err := decode(out, resp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
