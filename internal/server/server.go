package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ppiankov/truthlens/internal/model"
	"github.com/ppiankov/truthlens/internal/pipeline"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

// UserHeader selects whose history a request reads and writes
const UserHeader = "X-TruthLens-User"

// Analyzer runs one analysis; it never fails
type Analyzer interface {
	Analyze(ctx context.Context, req model.AnalysisRequest) model.AnalysisResult
}

// HistoryStore is the persistence the API needs
type HistoryStore interface {
	Save(ctx context.Context, e model.HistoryEntry) (model.HistoryEntry, error)
	Get(ctx context.Context, user, id string) (model.HistoryEntry, error)
	List(ctx context.Context, f model.HistoryFilter) ([]model.HistoryEntry, error)
	Delete(ctx context.Context, user, id string) error
	Clear(ctx context.Context, user string) (int64, error)
}

// Server exposes analysis and history over HTTP
type Server struct {
	router      *chi.Mux
	analyzer    Analyzer
	history     HistoryStore // nil disables history routes
	renderer    *pipeline.Renderer
	defaultUser string
	addr        string
	now         func() time.Time
}

// New builds the server and its routes
func New(cfg model.ServerConfig, defaultUser string, analyzer Analyzer, history HistoryStore) *Server {
	if defaultUser == "" {
		defaultUser = "default"
	}

	s := &Server{
		router:      chi.NewRouter(),
		analyzer:    analyzer,
		history:     history,
		renderer:    pipeline.NewRenderer(),
		defaultUser: defaultUser,
		addr:        cfg.Addr,
		now:         time.Now,
	}

	s.setupMiddleware(cfg.AllowedOrigins)
	s.setupRoutes()

	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware(origins []string) {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// CORS should be first so preflights never reach handlers
	s.router.Use(cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", UserHeader},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}).Handler)

	s.router.Use(middleware.RequestID)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)

		r.Route("/history", func(r chi.Router) {
			r.Use(s.requireHistory)
			r.Get("/", s.handleListHistory)
			r.Delete("/", s.handleClearHistory)
			r.Get("/{id}", s.handleGetHistory)
			r.Delete("/{id}", s.handleDeleteHistory)
			r.Get("/{id}/export", s.handleExportHistory)
		})
	})
}

// ListenAndServe serves until ctx is done, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logrus.WithField("addr", s.addr).Info("api server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logrus.Info("api server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// requestLogger logs one line per request with logrus
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logrus.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"bytes":      ww.BytesWritten(),
			"duration":   time.Since(start).String(),
			"request_id": middleware.GetReqID(r.Context()),
		}).Debug("http request")
	})
}

func (s *Server) requireHistory(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.history == nil {
			writeError(w, http.StatusServiceUnavailable, "history is disabled")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// userFrom picks the history owner for a request
func (s *Server) userFrom(r *http.Request) string {
	if u := r.Header.Get(UserHeader); u != "" {
		return u
	}
	return s.defaultUser
}
