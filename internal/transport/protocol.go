package transport

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified name of the plugin service.
const ServiceName = "xform.plugin.v1.TransformPlugin"

const (
	transformMethod = "/" + ServiceName + "/Transform"
	healthMethod    = "/" + ServiceName + "/Health"
)

// Request is one remote invocation.
type Request struct {
	Input        string
	OutputDir    string
	Dependencies []string
	Parameters   map[string]any
}

// Response lists the files the plugin produced. A nil Outputs is sent as
// null and decodes back to nil, so the engine sees the null result.
type Response struct {
	Outputs []string
}

func (r *Request) encode() (*structpb.Struct, error) {
	params := r.Parameters
	if params == nil {
		params = map[string]any{}
	}
	return structpb.NewStruct(map[string]any{
		"input":        r.Input,
		"output_dir":   r.OutputDir,
		"dependencies": stringsToList(r.Dependencies),
		"parameters":   params,
	})
}

func decodeRequest(s *structpb.Struct) (*Request, error) {
	f := s.GetFields()
	req := &Request{
		Input:     f["input"].GetStringValue(),
		OutputDir: f["output_dir"].GetStringValue(),
	}
	if req.Input == "" {
		return nil, fmt.Errorf("request has no input")
	}
	deps, err := listToStrings(f["dependencies"])
	if err != nil {
		return nil, fmt.Errorf("dependencies: %w", err)
	}
	req.Dependencies = deps
	if p := f["parameters"].GetStructValue(); p != nil {
		req.Parameters = p.AsMap()
	}
	return req, nil
}

func (r *Response) encode() (*structpb.Struct, error) {
	var outs any
	if r.Outputs != nil {
		outs = stringsToList(r.Outputs)
	}
	return structpb.NewStruct(map[string]any{"outputs": outs})
}

func decodeResponse(s *structpb.Struct) (*Response, error) {
	v, ok := s.GetFields()["outputs"]
	if !ok {
		return nil, fmt.Errorf("response has no outputs")
	}
	if _, null := v.GetKind().(*structpb.Value_NullValue); null {
		return &Response{}, nil
	}
	if v.GetListValue() == nil {
		return nil, fmt.Errorf("outputs is not a list")
	}
	outs, err := listToStrings(v)
	if err != nil {
		return nil, fmt.Errorf("outputs: %w", err)
	}
	if outs == nil {
		outs = []string{}
	}
	return &Response{Outputs: outs}, nil
}

func stringsToList(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func listToStrings(v *structpb.Value) ([]string, error) {
	l := v.GetListValue()
	if l == nil {
		return nil, nil
	}
	out := make([]string, 0, len(l.GetValues()))
	for i, e := range l.GetValues() {
		s, ok := e.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, fmt.Errorf("element %d is not a string", i)
		}
		out = append(out, s.StringValue)
	}
	return out, nil
}

// pluginServer is the server side of the service descriptor.
type pluginServer interface {
	Transform(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Health(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*pluginServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Transform", Handler: transformHandler},
		{MethodName: "Health", Handler: healthHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "xform/plugin/v1/plugin.proto",
}

func transformHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(pluginServer).Transform(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: transformMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(pluginServer).Transform(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func healthHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(pluginServer).Health(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: healthMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(pluginServer).Health(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}
