package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xiaot623/docchat/internal/adapter/llm"
	"github.com/xiaot623/docchat/internal/adapter/session"
	"github.com/xiaot623/docchat/internal/adapter/vectorstore"
	"github.com/xiaot623/docchat/internal/config"
	"github.com/xiaot623/docchat/internal/observability"
	"github.com/xiaot623/docchat/internal/repository"
	"github.com/xiaot623/docchat/internal/service"
	handler "github.com/xiaot623/docchat/internal/transport/http"
	v1 "github.com/xiaot623/docchat/internal/transport/http/v1"
	"github.com/xiaot623/docchat/internal/transport/ws"
	"github.com/xiaot623/docchat/policy"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer closeLog()
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		fatal("invalid configuration", err)
	}

	slog.Info("starting docchat",
		"port", cfg.HTTPPort,
		"mode", cfg.Mode,
		"database", cfg.DatabaseURL,
		"weaviate", cfg.WeaviateURL,
		"model_provider", cfg.ModelProvider,
		"embed_provider", cfg.EmbedProvider)

	ctx := context.Background()

	// Initialize store
	db, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		fatal("failed to initialize store", err)
	}
	defer db.Close()

	// Initialize policy engine
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		fatal("failed to initialize policy engine", err)
	}

	// Initialize model adapters
	generator, err := llm.NewGenerator(ctx, cfg)
	if err != nil {
		if !cfg.IsDevelopment() {
			fatal("failed to initialize generator", err)
		}
		slog.Warn("generator unavailable, using mock", "error", err)
		generator = llm.NewMockClient()
	}

	embedder, err := vectorstore.NewEmbedder(ctx, cfg)
	if err != nil {
		if !cfg.IsDevelopment() {
			fatal("failed to initialize embedder", err)
		}
		slog.Warn("embedder unavailable, using hash embedder", "error", err)
		embedder = vectorstore.NewHashEmbedder(0)
	}

	retriever, err := vectorstore.NewWeaviateRetriever(vectorstore.WeaviateOptions{
		URL:       cfg.WeaviateURL,
		APIKey:    cfg.WeaviateAPIKey,
		ClassName: cfg.WeaviateClass,
		TopK:      cfg.TopK,
	}, embedder)
	if err != nil {
		fatal("failed to initialize retriever", err)
	}

	metrics := observability.NewMetrics()
	sessions := session.NewProvider(cfg.SessionSecret, cfg.SessionCookie)

	// Initialize service
	svc := service.New(db, retriever, generator, policyEngine, metrics, cfg)
	responder := service.SelectResponder(cfg.Mode, svc)

	// Initialize handlers
	h := v1.NewHandler(svc, responder, sessions, v1.Options{
		RequireIdentity: !cfg.IsDevelopment(),
		RequestTimeout:  cfg.RequestTimeout,
	})
	chatWS := ws.NewServer(responder, sessions, ws.Options{
		RequireIdentity: !cfg.IsDevelopment(),
		RequestTimeout:  cfg.RequestTimeout,
		MaxMessageSize:  cfg.WSMaxMessageSize,
		WriteTimeout:    cfg.WSWriteTimeout,
	})

	server := handler.NewExternalServer(h, chatWS, metrics)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			fatal("failed to start server", err)
		}
	}()

	slog.Info("API started", "port", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down docchat")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown server gracefully", "error", err)
	}

	slog.Info("docchat stopped")
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
