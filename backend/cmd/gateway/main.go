package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"plp_smartgrade/backend/internal/activity"
	"plp_smartgrade/backend/internal/admin"
	"plp_smartgrade/backend/internal/auth"
	"plp_smartgrade/backend/internal/gateway"
	"plp_smartgrade/backend/internal/messaging"
	"plp_smartgrade/backend/internal/shared"
)

func main() {
	if err := shared.LoadEnv(".env"); err != nil {
		slog.Info("no .env file found, using system environment variables")
	}

	// 1. Load Configuration
	cfg, err := shared.LoadGatewayConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if err := shared.ValidateGatewayConfig(cfg); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger := shared.SetupLogging(&cfg.ServiceConfig)
	shared.InitReporting(&cfg.ServiceConfig)
	defer shared.FlushReporting()
	shared.PrintGatewayConfig(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Connect to MongoDB
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
	if err := shared.EnsureIndexes(ctx, db); err != nil {
		logger.Error("failed to create indexes", "error", err)
		os.Exit(1)
	}

	// 3. Initialize gRPC Clients
	serviceClients, err := gateway.NewServiceClients(ctx, cfg)
	if err != nil {
		logger.Error("failed to create service clients", "error", err)
		os.Exit(1)
	}
	defer serviceClients.Close()

	// 4. In-process services
	recorder := activity.NewMongoRecorder(db)
	authService := auth.NewService(
		auth.NewMongoStore(db),
		auth.NewMailer(cfg.Mail, logger),
		recorder,
		cfg.Security,
		cfg.PublicURL,
	)

	router := gateway.SetupRoutes(gateway.Dependencies{
		Auth:           authService,
		Admin:          admin.NewService(admin.NewMongoStore(db), recorder),
		Messages:       messaging.NewService(messaging.NewMongoStore(db), recorder),
		Clients:        serviceClients,
		CORS:           cfg.CORS,
		RequestTimeout: cfg.GRPC.RequestTimeout,
	})

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 65 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 5. Serve until a signal arrives, then shut down gracefully
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("gateway listening", "port", cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down gateway")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("gateway stopped with error", "error", err)
		return
	}
	logger.Info("gateway stopped")
}
