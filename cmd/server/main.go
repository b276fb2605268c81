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

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/inamate/inamate/geometry-go/internal/auth"
	"github.com/inamate/inamate/geometry-go/internal/collab"
	"github.com/inamate/inamate/geometry-go/internal/config"
	"github.com/inamate/inamate/geometry-go/internal/engine"
	mw "github.com/inamate/inamate/geometry-go/internal/middleware"
	"github.com/inamate/inamate/geometry-go/internal/project"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)
	engine.SetLogger(logger.With("component", "engine"))

	authService := auth.NewService(cfg.JWTSecret)
	authHandler := auth.NewHandler(authService)

	solver := engine.NewSolver(cfg.SolverOptions())

	projectService := project.NewService(solver, authService)
	projectHandler := project.NewHandler(projectService)

	hub := collab.NewHub(projectService.State)
	go hub.Run()

	// HTTP edits reach websocket viewers too.
	projectService.OnApplied(func(constructionID string, applied *collab.Applied) {
		hub.BroadcastApplied(constructionID, "", applied)
	})
	projectService.OnDeleted(hub.CloseRoom)

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	projectHandler.Routes(r, authService.RequireEditToken)
	r.Handle("/api/constructions/{constructionId}/token",
		authService.RequireEditToken(http.HandlerFunc(authHandler.Refresh))).Methods("POST")

	// WebSocket endpoint
	originPatterns := cfg.OriginPatterns()
	r.HandleFunc("/ws/construction/{constructionId}", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, authService, originPatterns)
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")
		hub.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr, "maxPasses", cfg.MaxPasses)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

// handleWebSocket joins a client to a construction's room. Anyone may watch;
// a token scoped to the construction makes the connection an editor.
func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *collab.Hub, authSvc *auth.Service, originPatterns []string) {
	constructionID := mux.Vars(r)["constructionId"]

	canEdit := false
	if token := r.URL.Query().Get("token"); token != "" {
		if err := authSvc.Authorize(token, constructionID); err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		canEdit = true
	}

	displayName := r.URL.Query().Get("name")
	if displayName == "" {
		displayName = "Anonymous"
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originPatterns,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := collab.NewClient(hub, conn, clientID, displayName, constructionID, canEdit)

	hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
