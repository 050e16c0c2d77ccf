package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Tyrowin/roomchat/internal/broker"
	"github.com/Tyrowin/roomchat/internal/server"
	"github.com/mama165/sdk-go/logs"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var addr, envFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat server until SIGINT or SIGTERM",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), envFile, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides SERVER_ADDR")
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "optional env file read before the environment")
	return cmd
}

// serve wires the broker and the HTTP server, then waits for a signal or a
// listener failure and shuts both down.
func serve(ctx context.Context, envFile, addr string) error {
	// 1. Configuration & Logger
	cfg, err := server.LoadConfig(envFile)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Addr = addr
	}
	log := logs.GetLoggerFromString(cfg.LogLevel)

	// 2. Context & Signals
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Broker, stopped only once every session has disconnected
	brokerCtx, stopBroker := context.WithCancel(context.Background())
	b := broker.NewBroker(log, broker.WithQueueSize(cfg.BrokerQueueSize))
	go func() { _ = b.Run(brokerCtx) }()
	defer func() {
		stopBroker()
		<-b.Done()
	}()

	// 4. HTTP server
	srv := server.NewServer(cfg, b, log)
	httpServer := server.CreateServer(cfg.Addr, srv.SetupRoutes())

	errChan := make(chan error, 1)
	go func() {
		if err := server.StartServer(httpServer, log); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 5. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 6. Final Cleanup
	var errs []error
	if err := server.ShutdownServer(httpServer, cfg.ShutdownTimeout, log); err != nil {
		errs = append(errs, err)
	}
	if err := srv.Shutdown(cfg.ShutdownTimeout); err != nil {
		errs = append(errs, fmt.Errorf("session shutdown: %w", err))
	}
	log.Info("Program stopped cleanly")
	return errors.Join(errs...)
}
