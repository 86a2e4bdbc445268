package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dgallion1/docblocks/internal/config"
	"github.com/dgallion1/docblocks/internal/pipeline"
	"github.com/dgallion1/docblocks/internal/registry"
	"github.com/dgallion1/docblocks/internal/render"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for docblocks.
type Server struct {
	router       chi.Router
	sessions     *registry.Registry
	orchestrator *pipeline.Orchestrator
	renderer     *render.Renderer
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(sessions *registry.Registry, orch *pipeline.Orchestrator, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		sessions:     sessions,
		orchestrator: orch,
		renderer:     render.New(),
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/sessions", s.handleCreateSession)
		r.Route("/api/sessions/{sessionID}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Put("/", s.handleReloadSession)
			r.Delete("/", s.handleDeleteSession)
			r.Get("/view", s.handleViewSession)
			r.Get("/document", s.handleFlatten)
			r.Put("/blocks/{blockID}", s.handleUpdateBlock)
			r.Patch("/blocks/{blockID}/cells", s.handleUpdateCell)
			r.Post("/blocks/{blockID}/rows", s.handleAppendRow)
			r.Delete("/blocks/{blockID}/rows/{row}", s.handleDeleteRow)
			r.Post("/exports", s.handleSubmitExport)
		})

		r.Get("/api/exports/{jobID}/status", s.handleExportStatus)
		r.Get("/api/exports/{jobID}/download", s.handleExportDownload)
		r.Get("/api/stats/export", s.handleExportStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
