package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/me/rrsched/internal/config"
	"github.com/me/rrsched/internal/logging"
	"github.com/me/rrsched/internal/server"
	"github.com/me/rrsched/internal/store"
	"github.com/me/rrsched/internal/tracing"
)

func main() {
	cfg := config.DefaultServerConfig()
	cfg.ApplyEnv()

	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "Listen address")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flag.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (text, json)")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "Database path (default ~/.rrsched/rrsched.db)")
	flag.StringVar(&cfg.TraceFile, "trace-file", cfg.TraceFile, "Write OpenTelemetry spans to this file (empty disables tracing)")
	flag.IntVar(&cfg.MaxSessions, "max-sessions", cfg.MaxSessions, "Maximum number of live interactive sessions")
	flag.DurationVar(&cfg.MaxDelay, "max-step-delay", cfg.MaxDelay, "Upper bound on a session's per-step delay")
	debug := flag.Bool("debug", false, "Shorthand for --log-level=debug")

	flag.Parse()

	if *debug {
		cfg.LogLevel = "debug"
	}

	logger := logging.NewLogger("rrsched-server", logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)

	if cfg.TraceFile != "" {
		if err := tracing.Init("rrsched-server", server.Version, cfg.TraceFile); err != nil {
			fmt.Fprintf(os.Stderr, "init tracing: %v\n", err)
			os.Exit(1)
		}
		logger.Info("tracing enabled", "file", cfg.TraceFile)
	}

	dbPath, err := cfg.ResolveDBPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolve database path: %v\n", err)
		os.Exit(1)
	}

	// Open store and run migrations.
	st, err := store.NewSQLiteStore(dbPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.Migrate(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "migrate database: %v\n", err)
		os.Exit(1)
	}
	logger.Info("database ready", "path", dbPath)

	srv := server.New(cfg, st, logger)

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server starting", "addr", cfg.Addr, "max_sessions", cfg.MaxSessions)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown error: %v\n", err)
		os.Exit(1)
	}

	// Interrupted sessions are recorded before the store closes.
	srv.Close()

	if err := tracing.Shutdown(shutdownCtx); err != nil {
		logger.Error("tracing shutdown", "error", err)
	}
	logger.Info("server stopped")
}
