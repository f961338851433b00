package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/iammorganparry/memchat/internal/api"
	"github.com/iammorganparry/memchat/internal/auth"
	"github.com/iammorganparry/memchat/internal/chat"
	"github.com/iammorganparry/memchat/internal/config"
	"github.com/iammorganparry/memchat/internal/llm"
	"github.com/iammorganparry/memchat/internal/memory"
	"github.com/iammorganparry/memchat/internal/store"
)

func main() {
	// Config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	// SQLite
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Stores
	userStore := store.NewUserStore(db)
	conversationStore := store.NewConversationStore(db)
	memoryStore := store.NewMemoryStore(db)

	// Sessions
	sessions := auth.NewSessions(cfg.SessionSecret, time.Duration(cfg.SessionTTLHours)*time.Hour)

	// Memory service
	memorySvc := memory.NewService(memoryStore, logger)

	// Completion client
	completer, err := llm.New(cfg.LLMBaseURL, cfg.LLMToken, cfg.DefaultModel, time.Duration(cfg.LLMTimeoutSeconds)*time.Second)
	if err != nil {
		logger.Error("failed to create llm client", "error", err)
		os.Exit(1)
	}

	// Chat orchestration
	orchestrator := chat.NewOrchestrator(conversationStore, memorySvc, completer, logger, cfg.HistoryLimit, cfg.MemoryContextLimit)

	// Router
	router := api.NewRouter(api.RouterConfig{
		DB:            db,
		Users:         userStore,
		Conversations: conversationStore,
		Memories:      memorySvc,
		Orchestrator:  orchestrator,
		Sessions:      sessions,
		ClientOrigin:  cfg.ClientOrigin,
		SecureCookies: strings.HasPrefix(cfg.ClientOrigin, "https://"),
		WebDir:        cfg.WebDir,
		Logger:        logger,
	})

	// Server
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		// No write timeout: chat responses stream for as long as the
		// upstream completion takes.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("memchat server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-done
	logger.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("server stopped")
}
