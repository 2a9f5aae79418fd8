// Package server provides the HTTP REST API for classification, chat,
// and history.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aqua777/go-ragserve/classify"
	"github.com/aqua777/go-ragserve/config"
	"github.com/aqua777/go-ragserve/embedding"
	"github.com/aqua777/go-ragserve/history"
	"github.com/aqua777/go-ragserve/index"
	"github.com/aqua777/go-ragserve/llm"
	"github.com/aqua777/go-ragserve/pipeline"
	"github.com/aqua777/go-ragserve/token"
)

const serviceName = "ragserve"

const shutdownTimeout = 30 * time.Second

// Config carries the assembled components the server serves with.
type Config struct {
	Settings *config.Settings
	Logger   *slog.Logger

	Store    history.Store
	Index    index.Index
	Embedder embedding.EmbeddingModel

	// Retriever and Classifier drive POST /classify through Pool.
	// POST /chat reuses Retriever with a per-request chat generator.
	Retriever  pipeline.Retriever
	Classifier *pipeline.Orchestrator
	Pool       *pipeline.Pool

	ChatLLM llm.LLMWithStructuredOutput
	Counter token.Counter
}

// Server is the HTTP front end of the service.
type Server struct {
	settings   *config.Settings
	logger     *slog.Logger
	store      history.Store
	index      index.Index
	embedder   embedding.EmbeddingModel
	retriever  pipeline.Retriever
	classifier *pipeline.Orchestrator
	pool       *pipeline.Pool
	chatLLM    llm.LLMWithStructuredOutput
	counter    token.Counter
	httpServer *http.Server
}

// New creates a server around the given components.
func New(cfg Config) (*Server, error) {
	if cfg.Settings == nil {
		return nil, errors.New("settings are required")
	}
	if cfg.Store == nil || cfg.Index == nil || cfg.Embedder == nil {
		return nil, errors.New("store, index and embedder are required")
	}
	if cfg.Retriever == nil || cfg.Classifier == nil || cfg.Pool == nil || cfg.ChatLLM == nil {
		return nil, errors.New("pipeline components are required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}

	s := &Server{
		settings:   cfg.Settings,
		logger:     logger,
		store:      cfg.Store,
		index:      cfg.Index,
		embedder:   cfg.Embedder,
		retriever:  cfg.Retriever,
		classifier: cfg.Classifier,
		pool:       cfg.Pool,
		chatLLM:    cfg.ChatLLM,
		counter:    cfg.Counter,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /pipeline", s.handlePipelineInfo)
	mux.HandleFunc("POST /classify", s.handleClassify)
	mux.HandleFunc("GET /history", s.handleListHistory)
	mux.HandleFunc("GET /history/{conversation_id}", s.handleGetConversation)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("POST /examples", s.handleUpsertExample)

	s.httpServer = &http.Server{
		Addr:         cfg.Settings.Addr(),
		Handler:      s.withRecovery(s.withLogging(s.withCORS(mux))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // long timeout for pipeline runs
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Start listens for requests until SIGINT or SIGTERM, then drains
// in-flight requests before returning.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-stop:
	}

	s.logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.store.Close()
	s.logger.Info("server stopped")
	return nil
}

// handleRoot returns service metadata and the endpoint list.
func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"service":    serviceName,
		"version":    pipeline.Version,
		"categories": classify.Categories,
		"endpoints": map[string]string{
			"GET /health":                    "service and dependency health",
			"POST /classify":                 "classify a news article",
			"GET /history":                   "list classification history",
			"POST /chat":                     "chat grounded on similar articles",
			"GET /history/{conversation_id}": "fetch a conversation",
			"GET /pipeline":                  "pipeline stages and version",
			"POST /examples":                 "add a labeled example",
		},
	})
}

// HealthResponse is the response of GET /health.
type HealthResponse struct {
	Status            string `json:"status"`
	Service           string `json:"service"`
	VectorStoreStatus string `json:"vector_store_status"`
	VectorStorePoints int64  `json:"vector_store_points"`
	DatabaseStatus    string `json:"database_status"`
}

// handleHealth probes the vector store and the database concurrently.
// Degraded dependencies are reported in the body; the endpoint itself
// still answers 200.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	var (
		stats   *index.Stats
		idxErr  error
		pingErr error
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		stats, idxErr = s.index.Stats(ctx)
		return nil
	})
	g.Go(func() error {
		pingErr = s.store.Ping(ctx)
		return nil
	})
	_ = g.Wait()

	resp := HealthResponse{
		Status:            "healthy",
		Service:           serviceName,
		VectorStoreStatus: "unavailable",
		DatabaseStatus:    "connected",
	}
	if idxErr != nil {
		s.logger.Warn("vector store probe failed", "error", idxErr)
		resp.Status = "degraded"
	} else {
		resp.VectorStoreStatus = stats.Status
		resp.VectorStorePoints = stats.Count
	}
	if pingErr != nil {
		s.logger.Warn("database probe failed", "error", pingErr)
		resp.Status = "degraded"
		resp.DatabaseStatus = "unavailable"
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handlePipelineInfo describes the pipeline stages and retrieval policy.
func (s *Server) handlePipelineInfo(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"version": pipeline.Version,
		"workers": s.pool.Size(),
		"stages": []map[string]string{
			{"name": "retrieve", "description": "embed the input and fetch similar labeled articles"},
			{"name": "generate", "description": "produce a structured result grounded on the retrieved articles"},
		},
		"retrieval": map[string]any{
			"top_k":           s.settings.TopK,
			"score_threshold": s.settings.ScoreThreshold,
		},
	})
}

// jsonResponse writes a JSON response.
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// errorResponse writes an error JSON response.
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// withRecovery converts handler panics into 500 responses.
func (s *Server) withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic while serving request",
					"method", r.Method, "path", r.URL.Path, "panic", rec)
				s.errorResponse(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// withLogging logs each request with its duration.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request handled",
			"method", r.Method, "path", r.URL.Path,
			"elapsed_ms", time.Since(start).Milliseconds())
	})
}

// withCORS adds CORS headers and answers preflight requests.
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
