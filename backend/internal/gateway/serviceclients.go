package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	pb_grade "plp_smartgrade/backend/internal/pb/grade"
	"plp_smartgrade/backend/internal/shared"
)

// ServiceClients holds the gRPC clients of the backend services.
type ServiceClients struct {
	GradeClient pb_grade.GradeServiceClient

	gradeHealth healthpb.HealthClient
	conns       []*grpc.ClientConn
}

// ConnectGRPC creates a client connection to addr. Insecure credentials are
// used for internal node communication; the connection is established lazily.
func ConnectGRPC(addr string, cfg shared.GRPCConfig) (*grpc.ClientConn, error) {
	slog.Info("connecting to gRPC service", "addr", addr)

	conn, err := grpc.NewClient(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(cfg.MaxRecvMsgSize),
			grpc.MaxCallSendMsgSize(cfg.MaxSendMsgSize),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", addr, err)
	}
	return conn, nil
}

// NewServiceClients connects to every backend service named in config and
// logs a warning when one does not report SERVING yet.
func NewServiceClients(ctx context.Context, config *shared.GatewayConfig) (*ServiceClients, error) {
	gradeConn, err := ConnectGRPC(config.GradeServiceAddr, config.GRPC)
	if err != nil {
		return nil, err
	}

	clients := NewServiceClientsFromConn(gradeConn)
	clients.conns = append(clients.conns, gradeConn)

	checkCtx, cancel := context.WithTimeout(ctx, config.GRPC.ConnectionTimeout)
	defer cancel()
	if err := clients.CheckHealth(checkCtx); err != nil {
		slog.Warn("grade service is not ready yet", "addr", config.GradeServiceAddr, "error", err)
	}
	return clients, nil
}

// NewServiceClientsFromConn wraps an existing grade service connection.
// The caller keeps ownership of conn.
func NewServiceClientsFromConn(conn grpc.ClientConnInterface) *ServiceClients {
	return &ServiceClients{
		GradeClient: pb_grade.NewGradeServiceClient(conn),
		gradeHealth: healthpb.NewHealthClient(conn),
	}
}

// CheckHealth asks the grade service for its serving status.
func (sc *ServiceClients) CheckHealth(ctx context.Context) error {
	resp, err := sc.gradeHealth.Check(ctx, &healthpb.HealthCheckRequest{Service: pb_grade.ServiceName})
	if err != nil {
		return err
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("grade service status %s", resp.GetStatus())
	}
	return nil
}

// Close closes all underlying gRPC connections.
func (sc *ServiceClients) Close() {
	for _, conn := range sc.conns {
		if err := conn.Close(); err != nil {
			slog.Warn("error closing gRPC connection", "error", err)
		}
	}
}

// healthTimeout bounds the /healthz probe of the grade service
const healthTimeout = 2 * time.Second
