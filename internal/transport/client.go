package transport

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client talks to one plugin.
type Client struct {
	conn *grpc.ClientConn
}

// Dial creates a client for target. Without options the connection is
// insecure. The connection is established lazily.
func Dial(target string, opts ...grpc.DialOption) (*Client, error) {
	if len(opts) == 0 {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial plugin %s: %w", target, err)
	}
	return &Client{conn: conn}, nil
}

func (c *Client) Transform(ctx context.Context, req *Request) (*Response, error) {
	in, err := req.encode()
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, transformMethod, in, out); err != nil {
		return nil, err
	}
	return decodeResponse(out)
}

func (c *Client) Health(ctx context.Context) error {
	return c.conn.Invoke(ctx, healthMethod, &structpb.Struct{}, new(structpb.Struct))
}

func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
