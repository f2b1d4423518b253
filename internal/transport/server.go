package transport

import (
	"context"
	"errors"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"xform/internal/logging"
)

// Handler is implemented by plugins.
type Handler interface {
	Transform(ctx context.Context, req *Request) (*Response, error)
	Health(ctx context.Context) error
}

type Server struct {
	grpc *grpc.Server
	lis  net.Listener
}

// StartServer listens on addr and registers h. Call Serve to accept
// connections.
func StartServer(addr string, h Handler, opts ...grpc.ServerOption) (*Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewServer(lis, h, opts...), nil
}

// NewServer registers h on a new gRPC server bound to lis.
func NewServer(lis net.Listener, h Handler, opts ...grpc.ServerOption) *Server {
	s := &Server{
		grpc: grpc.NewServer(opts...),
		lis:  lis,
	}
	s.grpc.RegisterService(&serviceDesc, &adapter{h: h})
	return s
}

func (s *Server) Addr() string { return s.lis.Addr().String() }

func (s *Server) Serve() error {
	err := s.grpc.Serve(s.lis)
	if errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return err
}

func (s *Server) Stop() {
	s.grpc.GracefulStop()
}

// adapter maps the wire messages onto a Handler.
type adapter struct {
	h Handler
}

func (a *adapter) Transform(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decodeRequest(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	resp, err := a.h.Transform(ctx, req)
	if err != nil {
		logging.L().Warn("plugin transform failed", "input", req.Input, "err", err)
		return nil, toStatus(err)
	}
	if resp == nil {
		return nil, status.Error(codes.Internal, "plugin returned no response")
	}
	out, err := resp.encode()
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func (a *adapter) Health(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	if err := a.h.Health(ctx); err != nil {
		return nil, status.Error(codes.Unavailable, err.Error())
	}
	return &structpb.Struct{}, nil
}

func toStatus(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	return status.Error(codes.Unknown, err.Error())
}
