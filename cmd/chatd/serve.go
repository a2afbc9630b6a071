package main

import (
	"chat-rooms/infrastructure/grpc/server"
	"chat-rooms/infrastructure/httpapi"
	"chat-rooms/infrastructure/push"
	"chat-rooms/infrastructure/websocket"
	"chat-rooms/internal"
	"chat-rooms/observability"
	"chat-rooms/runtime"
	"chat-rooms/runtime/workers"
	"chat-rooms/services"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/spf13/cobra"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the WebSocket, HTTP and health servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			code, err := serve(cmd.Context(), opts.config)
			return withCode(code, err)
		},
	}
}

// serve wires every component, then blocks until a signal or a server failure.
// Returning instead of exiting lets the deferred store cleanup run.
func serve(ctx context.Context, config internal.Config) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logs.GetLoggerFromString(config.LogLevel)

	// 1. Stores
	st, err := openStores(ctx, config, logger)
	if err != nil {
		return exitRuntime, fmt.Errorf("store opening failed: %w", err)
	}
	defer st.close(logger)

	vapid, err := vapidKeys(config, logger)
	if err != nil {
		return exitConfig, err
	}

	// 2. Supervision & Orchestration
	monitoring := observability.NewMonitoringManager(logger)
	sup := workers.NewSupervisor(logger, config.RestartInterval)
	registry := runtime.NewRegistry(st.chats)
	broadcaster := runtime.NewBroadcaster(logger, registry, monitoring, config.SinkTimeout)
	dispatcher := runtime.NewDispatcher(logger, registry, st.subscriptions, monitoring, config.PushQueueSize)
	orchestrator := runtime.NewOrchestrator(logger, sup, registry, st.chats, broadcaster, dispatcher, monitoring)
	orchestrator.Add(workers.NewHeartbeatWorker(logger, monitoring, config.HeartbeatInterval))

	// 3. Context & Signals
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	pusher := push.NewWebPusher(logger, &http.Client{Timeout: config.PushTimeout}, vapid, config.PushTTL)
	if err := orchestrator.Start(ctx, config.PushWorkers, pusher, st.subscriptions, config.PushTimeout); err != nil {
		return exitRuntime, err
	}
	defer orchestrator.Stop()

	// 4. Transports
	chatService := services.NewChatService(orchestrator, services.Limits{
		MaxNameLength:    config.MaxNameLength,
		MaxMessageLength: config.MaxMessageLength,
	})
	subscriptionService := services.NewSubscriptionService(logger, dispatcher, vapid.PublicKey)
	wsServer := websocket.NewServer(logger, chatService, websocket.Config{
		AllowedOrigins: config.Origins(),
		BufferSize:     config.ConnectionBufferSize,
		MaxFrameSize:   config.MaxFrameSize,
		RatePerSecond:  config.RateLimitPerSecond,
		RateBurst:      config.RateLimitBurst,
	})
	httpServer := httpapi.NewServer(config.Address(),
		httpapi.NewHandler(logger, subscriptionService, monitoring).Routes(wsServer))
	healthServer := server.NewHealthServer(logger)

	healthListener, err := net.Listen("tcp", config.GrpcHealthAddress())
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", config.GrpcHealthAddress(), err)
	}

	errChan := make(chan error, 2)
	go func() {
		logger.Info("Starting HTTP server", "address", httpServer.Addr, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()
	go func() {
		if err := healthServer.Serve(healthListener); err != nil {
			errChan <- fmt.Errorf("gRPC health server error: %w", err)
		}
	}()
	healthServer.Ready()

	// 5. Wait for Stop or Error
	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case runErr = <-errChan:
		logger.Error("Server failure, shutting down", "error", runErr)
	}

	// 6. Graceful shutdown, bounded by SHUTDOWN_TIMEOUT
	logger.Info("Shutting down gracefully...")
	healthServer.Stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown incomplete", "error", err)
	}
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("WebSocket sessions still open at shutdown", "error", err)
	}
	logger.Info("Program stopped cleanly", "stats", monitoring)

	if runErr != nil {
		return exitRuntime, runErr
	}
	return exitOK, nil
}

// vapidKeys falls back to an ephemeral key pair so a dev server can start without configuration.
// Subscriptions made against ephemeral keys stop working after a restart.
func vapidKeys(config internal.Config, log *slog.Logger) (push.VAPID, error) {
	if config.VapidPublicKey != "" {
		return push.VAPID{
			PublicKey:  config.VapidPublicKey,
			PrivateKey: config.VapidPrivateKey,
			Subject:    config.VapidSubject,
		}, nil
	}
	vapid, err := push.GenerateVAPID()
	if err != nil {
		return push.VAPID{}, fmt.Errorf("vapid key generation failed: %w", err)
	}
	vapid.Subject = config.VapidSubject
	log.Warn("VAPID_PUBLIC_KEY is not set, using an ephemeral key pair", "public_key", vapid.PublicKey)
	return vapid, nil
}
