package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	pb "github.com/ppiankov/cellwatch/api/cellwatch/v1"
	"github.com/ppiankov/cellwatch/internal/config"
	"github.com/ppiankov/cellwatch/internal/controller"
	"github.com/ppiankov/cellwatch/internal/logging"
	"github.com/ppiankov/cellwatch/internal/service"
)

// Config holds gRPC server configuration.
type Config struct {
	Port       int
	ConfigPath string
	Service    *service.Service
	Logger     *slog.Logger
	// LevelVar, when set, follows log.level on reload.
	LevelVar *slog.LevelVar
}

// Server implements the CellController gRPC service.
type Server struct {
	svc        *service.Service
	cfg        Config
	logger     *slog.Logger
	grpcServer *grpc.Server
}

// New creates a gRPC server around an order service.
func New(cfg Config) (*Server, error) {
	if cfg.Service == nil {
		return nil, fmt.Errorf("server: service is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		svc:    cfg.Service,
		cfg:    cfg,
		logger: logger,
	}
	s.grpcServer = grpc.NewServer(grpc.ChainUnaryInterceptor(s.logCalls))

	pb.RegisterCellControllerServer(s.grpcServer, s)
	return s, nil
}

// Serve starts the gRPC server on the configured port. Blocks until stopped.
func (s *Server) Serve() error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.cfg.Port, err)
	}
	return s.grpcServer.Serve(lis)
}

// ServeOn starts the gRPC server on the given listener. For testing.
func (s *Server) ServeOn(lis net.Listener) error {
	return s.grpcServer.Serve(lis)
}

// GracefulStop gracefully shuts down the gRPC server.
func (s *Server) GracefulStop() {
	s.grpcServer.GracefulStop()
}

// ApplyOrder implements the ApplyOrder RPC. An oversized order is not an
// RPC error; the response shows the degraded state.
func (s *Server) ApplyOrder(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "missing order")
	}
	out := s.svc.ApplyOrder(service.SourceGRPC, req.GetValue())

	fields := stateOf(out.After).Fields()
	fields[pb.FieldOrderID] = structpb.NewStringValue(out.OrderID)
	fields[pb.FieldOversized] = structpb.NewBoolValue(out.Oversized)
	fields[pb.FieldApplied] = structpb.NewNumberValue(float64(out.Applied))
	fields[pb.FieldIgnored] = structpb.NewNumberValue(float64(out.Ignored))
	fields[pb.FieldLength] = structpb.NewNumberValue(float64(out.Length))
	return &structpb.Struct{Fields: fields}, nil
}

// Reset implements the Reset RPC.
func (s *Server) Reset(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error) {
	out := s.svc.Reset(service.SourceGRPC)
	fields := stateOf(out.After).Fields()
	fields[pb.FieldOrderID] = structpb.NewStringValue(out.OrderID)
	return &structpb.Struct{Fields: fields}, nil
}

// GetState implements the GetState RPC.
func (s *Server) GetState(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error) {
	return &structpb.Struct{Fields: stateOf(s.svc.State()).Fields()}, nil
}

// Reload re-reads the config file and applies it to the running service.
// Called by the hot-reloader on file change.
func (s *Server) Reload() error {
	cfg, hash, err := config.LoadWithHash(s.cfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to reload config: %w", err)
	}
	s.svc.Reconfigure(cfg, hash)
	if s.cfg.LevelVar != nil {
		lvl, err := logging.ParseLevel(cfg.Log.Level)
		if err != nil {
			s.logger.Warn("ignoring log level", "level", cfg.Log.Level, "error", err)
		} else {
			s.cfg.LevelVar.Set(lvl)
		}
	}
	return nil
}

func (s *Server) logCalls(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	resp, err := handler(ctx, req)
	if err != nil {
		s.logger.Warn("rpc failed", "method", info.FullMethod, "code", status.Code(err).String(), "error", err)
	} else {
		s.logger.Debug("rpc", "method", info.FullMethod)
	}
	return resp, err
}

func stateOf(s controller.Snapshot) pb.State {
	return pb.State{
		ConveyorRun:  s.ConveyorRun,
		EmergencyOK:  s.EmergencyOK,
		QualityScore: s.QualityScore,
		Compromised:  s.Compromised,
	}
}
