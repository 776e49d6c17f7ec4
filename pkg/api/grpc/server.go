// Package grpcapi implements the tinyscript.v1.Script gRPC service. Requests
// and responses are google.protobuf.Struct messages, so any gRPC client can
// call it without generated stubs.
package grpcapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/tliron/commonlog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/lemonberrylabs/tinyscript/pkg/ast"
	"github.com/lemonberrylabs/tinyscript/pkg/diag"
	"github.com/lemonberrylabs/tinyscript/pkg/lexer"
	"github.com/lemonberrylabs/tinyscript/pkg/parser"
	"github.com/lemonberrylabs/tinyscript/pkg/runtime"
	"github.com/lemonberrylabs/tinyscript/pkg/store"
	"github.com/lemonberrylabs/tinyscript/pkg/types"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "tinyscript.v1.Script"

// Full method names, for clients calling through grpc.ClientConn.Invoke.
const (
	MethodTokenize   = "/" + ServiceName + "/Tokenize"
	MethodParse      = "/" + ServiceName + "/Parse"
	MethodRun        = "/" + ServiceName + "/Run"
	MethodRunSession = "/" + ServiceName + "/RunSession"
)

// ScriptServer is the server API of the Script service.
type ScriptServer interface {
	Tokenize(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Parse(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Run(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RunSession(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func unaryHandler(call func(ScriptServer, context.Context, *structpb.Struct) (*structpb.Struct, error), method string) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ScriptServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ScriptServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ScriptServiceDesc describes the Script service for grpc.Server.RegisterService.
var ScriptServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ScriptServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Tokenize", Handler: unaryHandler(ScriptServer.Tokenize, MethodTokenize)},
		{MethodName: "Parse", Handler: unaryHandler(ScriptServer.Parse, MethodParse)},
		{MethodName: "Run", Handler: unaryHandler(ScriptServer.Run, MethodRun)},
		{MethodName: "RunSession", Handler: unaryHandler(ScriptServer.RunSession, MethodRunSession)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "tinyscript/v1/script.proto",
}

// Server implements the Script service.
type Server struct {
	store *store.Store
	grpc  *grpc.Server
	log   commonlog.Logger
}

// New creates a new gRPC server wrapping the given store.
func New(s *store.Store) *Server {
	srv := &Server{
		store: s,
		log:   commonlog.GetLogger("tinyscript.grpc"),
	}

	gs := grpc.NewServer(grpc.UnaryInterceptor(srv.logUnary))
	gs.RegisterService(&ScriptServiceDesc, srv)
	srv.grpc = gs

	return srv
}

// Serve starts listening on the given address and serves gRPC requests.
func (s *Server) Serve(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	return s.grpc.Serve(lis)
}

// ServeListener serves gRPC requests on an existing listener.
func (s *Server) ServeListener(lis net.Listener) error {
	return s.grpc.Serve(lis)
}

// GracefulStop gracefully stops the gRPC server.
func (s *Server) GracefulStop() {
	s.grpc.GracefulStop()
}

func (s *Server) logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.log.Infof("%s %s %s", info.FullMethod, status.Code(err), time.Since(start))
	return resp, err
}

// --- Script Service ---

// Tokenize takes {"source"} and returns {"tokens": [...]}.
func (s *Server) Tokenize(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	src, err := sourceField(req, "source")
	if err != nil {
		return nil, err
	}

	tokens, err := lexer.Tokenize(src, s.store.LexerOptions()...)
	if err != nil {
		return nil, stageStatus(err)
	}
	items := make([]any, len(tokens))
	for i, tok := range tokens {
		items[i] = tok.Map()
	}
	return newStruct(map[string]any{"tokens": items})
}

// Parse takes {"source"} and returns {"statements": [...]}.
func (s *Server) Parse(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	src, err := sourceField(req, "source")
	if err != nil {
		return nil, err
	}

	stmts, err := parser.ParseSource(src, s.store.LexerOptions()...)
	if err != nil {
		return nil, stageStatus(err)
	}
	return newStruct(map[string]any{"statements": ast.Tree(stmts)})
}

// Run takes {"source"} and returns {"bindings": {...}} from a fresh interpreter.
func (s *Server) Run(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	src, err := sourceField(req, "source")
	if err != nil {
		return nil, err
	}

	interp, err := runtime.Run(src, s.store.LexerOptions()...)
	if err != nil {
		return nil, stageStatus(err)
	}
	return newStruct(map[string]any{"bindings": bindingsMap(interp.Environment().Bindings())})
}

// RunSession takes {"session", "source"} and runs source in a stored session.
func (s *Server) RunSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := sourceField(req, "session")
	if err != nil {
		return nil, err
	}
	src, err := sourceField(req, "source")
	if err != nil {
		return nil, err
	}

	sess, err := s.store.GetSession(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, status.Error(codes.NotFound, err.Error())
		}
		return nil, status.Error(codes.Internal, err.Error())
	}
	res := sess.Run(src)
	if res.Err != nil {
		return nil, stageStatus(res.Err)
	}
	return newStruct(map[string]any{
		"session":  sess.ID,
		"runs":     sess.Runs(),
		"bindings": bindingsMap(res.Bindings),
	})
}

// --- Helpers ---

// sourceField reads a required string field. A missing field reads as empty.
func sourceField(req *structpb.Struct, name string) (string, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return "", nil
	}
	sv, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", status.Errorf(codes.InvalidArgument, "%s must be a string", name)
	}
	return sv.StringValue, nil
}

func newStruct(m map[string]any) (*structpb.Struct, error) {
	st, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding response: %v", err)
	}
	return st, nil
}

func bindingsMap(bindings map[string]types.Value) map[string]any {
	out := make(map[string]any, len(bindings))
	for name, v := range bindings {
		out[name] = v.ToGoValue()
	}
	return out
}

// stageStatus maps a pipeline error to InvalidArgument carrying the diagnostic
// as a Struct detail.
func stageStatus(err error) error {
	d := diag.Describe(err)
	if d == nil {
		return status.Error(codes.Internal, err.Error())
	}

	fields := map[string]any{"stage": string(d.Stage), "kind": d.Kind}
	if d.Span != nil {
		fields["span"] = map[string]any{"start": d.Span.Start, "end": d.Span.End}
	}
	if d.Name != "" {
		fields["name"] = d.Name
	}

	st := status.New(codes.InvalidArgument, err.Error())
	detail, derr := structpb.NewStruct(fields)
	if derr != nil {
		return st.Err()
	}
	withDetails, derr := st.WithDetails(detail)
	if derr != nil {
		return st.Err()
	}
	return withDetails.Err()
}
