// Entry point for the formgrid HTTP service: chi router, shield middleware,
// SQLite store, optional MCP stdio transport.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/formgrid/formgrid/api"
	"github.com/formgrid/formgrid/dbopen"
	"github.com/formgrid/formgrid/form"
	"github.com/formgrid/formgrid/shield"
	"github.com/formgrid/formgrid/store"
)

func main() {
	cfg, err := loadConfig(os.Getenv("FORMGRID_CONFIG"))
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	// Logging.
	var lvl slog.Level
	switch cfg.LogLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Database.
	db, err := dbopen.Open(cfg.DBPath,
		dbopen.WithMkdirAll(),
		dbopen.WithSchema(store.Schema),
		dbopen.WithSchema(shield.Schema))
	if err != nil {
		slog.Error("open db", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Form service.
	svc, err := form.New(store.NewStore(db, store.WithLogger(logger)), &form.Config{
		RulesPath: cfg.RulesPath,
		Decompose: store.DecomposeConfig{KeepEmptyRows: cfg.KeepEmptyRows},
	}, logger)
	if err != nil {
		slog.Error("form service", "error", err)
		os.Exit(1)
	}

	// Optional MCP stdio transport.
	if cfg.MCPTransport == "stdio" {
		mcpSrv := mcp.NewServer(&mcp.Implementation{
			Name:    "formgrid",
			Version: "1.0.0",
		}, nil)
		svc.RegisterMCP(mcpSrv)
		go func() {
			slog.Info("MCP stdio starting")
			if err := mcpSrv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
				slog.Error("MCP stdio", "error", err)
			}
		}()
	}

	// Router.
	r := chi.NewRouter()
	stack, rl := shield.DefaultStack(db)
	for _, mw := range stack {
		r.Use(mw)
	}
	rl.StartReloader(ctx.Done())

	api.New(svc, logger, api.WithMaxUpload(cfg.MaxUploadBytes)).RegisterHTTP(r)

	// HTTP server.
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}
