// Package server provides the HTTP REST API for the memo generator.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/khartman/memoflow/internal/config"
	"github.com/khartman/memoflow/internal/generation"
	"github.com/khartman/memoflow/internal/history"
	"github.com/khartman/memoflow/internal/pipeline"
	"github.com/khartman/memoflow/internal/types"
)

// Server represents the HTTP server
type Server struct {
	httpServer   *http.Server
	orchestrator *pipeline.Orchestrator
	store        history.Store
	hub          *stateHub
	jwtService   *JWTService
	authHandler  *AuthHandler
}

// Config holds server configuration
type Config struct {
	Addr      string
	Password  string
	Generator generation.Generator
	Verifier  pipeline.Verifier
	History   history.Store
	Verbose   bool
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	if cfg.Password == "" {
		return nil, fmt.Errorf("server password is required")
	}

	s := &Server{
		store: cfg.History,
		hub:   newStateHub(),
	}

	// Initialize authentication services
	passwordConfig, err := config.NewPasswordConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create password config: %w", err)
	}
	passwordHash, err := passwordConfig.HashPassword(cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash server password: %w", err)
	}

	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT config: %w", err)
	}
	s.jwtService = NewJWTService(jwtConfig)
	s.authHandler = NewAuthHandler(passwordConfig, passwordHash, s.jwtService)

	orchestrator, err := pipeline.New(pipeline.Options{
		Generator:  cfg.Generator,
		Verifier:   cfg.Verifier,
		History:    cfg.History,
		OnProgress: s.hub.broadcast,
		Verbose:    cfg.Verbose,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}
	s.orchestrator = orchestrator

	// Setup router
	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("POST /run", s.withAuth(http.HandlerFunc(s.handleRun)))
	mux.Handle("GET /state", s.withAuth(http.HandlerFunc(s.handleState)))
	mux.Handle("GET /history", s.withAuth(http.HandlerFunc(s.handleHistory)))

	// Create HTTP server
	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.withLogging(s.withCORS(mux)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 600 * time.Second, // Long timeout for streamed pipeline runs
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Start begins listening for requests
func (s *Server) Start() error {
	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// Handler returns the server's root handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// withAuth requires a valid bearer token on the request.
func (s *Server) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := bearerToken(r)
		if err != nil {
			s.errorResponse(w, http.StatusUnauthorized, err.Error())
			return
		}
		if _, err := s.jwtService.ValidateToken(token); err != nil {
			s.errorResponse(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// bearerToken extracts the token from an Authorization: Bearer header.
func bearerToken(r *http.Request) (string, error) {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", fmt.Errorf("missing Authorization header")
	}
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return "", fmt.Errorf("Authorization header must use Bearer scheme")
	}
	return header[len(prefix):], nil
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleLogin handles login requests.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.authHandler.Login(w, r)
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// stateHub fans pipeline progress snapshots out to streaming subscribers.
type stateHub struct {
	mu   sync.Mutex
	subs map[chan types.RunState]struct{}
}

func newStateHub() *stateHub {
	return &stateHub{subs: make(map[chan types.RunState]struct{})}
}

// subscribe registers a new listener. The returned channel is buffered so a
// slow consumer never blocks the pipeline.
func (h *stateHub) subscribe() chan types.RunState {
	ch := make(chan types.RunState, 16)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *stateHub) unsubscribe(ch chan types.RunState) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
}

// broadcast delivers a snapshot to every subscriber, dropping it for
// subscribers whose buffer is full.
func (h *stateHub) broadcast(state types.RunState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- state:
		default:
		}
	}
}
