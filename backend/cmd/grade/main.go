package main

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"plp_smartgrade/backend/internal/grade"
	pb "plp_smartgrade/backend/internal/pb/grade"
	"plp_smartgrade/backend/internal/shared"
)

func main() {
	if err := shared.LoadEnv(".env"); err != nil {
		slog.Info("no .env file found, using system environment variables")
	}

	// 1. Load Configuration
	cfg, err := shared.LoadServiceConfig("grade-service")
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := shared.ValidateServiceConfig(cfg); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := shared.SetupLogging(cfg)
	shared.InitReporting(cfg)
	defer shared.FlushReporting()
	shared.PrintConfig(cfg)

	// 2. Connect to MongoDB
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, db, err := shared.ConnectMongoDB(ctx, &cfg.MongoDB)
	if err != nil {
		logger.Error("failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shared.DisconnectMongoDB(client); err != nil {
			logger.Error("error disconnecting from MongoDB", "error", err)
		}
	}()

	// 3. Create gRPC Server
	grpcServer := grpc.NewServer(
		grpc.MaxRecvMsgSize(cfg.GRPC.MaxRecvMsgSize),
		grpc.MaxSendMsgSize(cfg.GRPC.MaxSendMsgSize),
	)

	gradeService := grade.NewGradeService(grade.NewMongoStore(db))
	pb.RegisterGradeServiceServer(grpcServer, gradeService)

	// 4. Health and reflection
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(pb.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	// 5. Start Listening
	listener, err := net.Listen("tcp", ":"+cfg.ServicePort)
	if err != nil {
		logger.Error("failed to listen", "port", cfg.ServicePort, "error", err)
		os.Exit(1)
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("grade service listening", "port", cfg.ServicePort)
		serveErr <- grpcServer.Serve(listener)
	}()

	// 6. Graceful Shutdown
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		logger.Error("grade service stopped serving", "error", err)
	}

	logger.Info("shutting down grade service")
	healthServer.SetServingStatus(pb.ServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	grpcServer.GracefulStop()
	logger.Info("grade service stopped")
}
