package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/daisi-lead-outreach/internal/scheduler"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/usecase"
	"gitlab.com/timkado/api/daisi-lead-outreach/internal/workerpool"
	"gitlab.com/timkado/api/daisi-lead-outreach/pkg/logger"
)

// Server exposes the outreach API over HTTP.
type Server struct {
	svc        *usecase.Service
	sched      *scheduler.Scheduler
	dispatcher *workerpool.Dispatcher
	production bool

	// readyCheck reports whether downstream dependencies are reachable.
	// Nil means always ready.
	readyCheck func(ctx context.Context) error

	httpServer *http.Server
}

// New creates the API server.
func New(
	svc *usecase.Service,
	sched *scheduler.Scheduler,
	dispatcher *workerpool.Dispatcher,
	port int,
	production bool,
	readyCheck func(ctx context.Context) error,
) *Server {
	s := &Server{
		svc:        svc,
		sched:      sched,
		dispatcher: dispatcher,
		production: production,
		readyCheck: readyCheck,
	}
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Router builds the chi route tree. Exposed separately for handler tests.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", requestIDHeader},
		MaxAge:         300,
	}))
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Route("/leads", func(r chi.Router) {
			r.Post("/", s.handleCreateLead)
			r.Get("/", s.handleListLeads)
			r.Get("/{id}", s.handleGetLead)
			r.Put("/{id}", s.handleUpdateLead)
			r.Delete("/{id}", s.handleDeleteLead)
			r.Get("/{id}/conversation", s.handleGetConversation)
			r.Get("/{id}/summary", s.handleGetSummary)
		})

		r.Route("/scraper", func(r chi.Router) {
			r.Post("/start", s.handleRunScraper)
			r.Get("/status/{id}", s.handleGetJob)
			r.Get("/jobs", s.handleListScraperJobs)
		})

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", s.handleListJobs)
			r.Get("/{id}", s.handleGetJob)
		})

		r.Route("/messaging", func(r chi.Router) {
			r.Post("/send", s.handleSendMessage)
			r.Post("/reply", s.handleReply)
			r.Post("/whatsapp/incoming", s.handleWhatsAppIncoming)
		})

		r.Route("/ai", func(r chi.Router) {
			r.Post("/generate-message", s.handleGenerateMessage)
			r.Post("/summarize-conversation", s.handleSummarizeConversation)
			r.Post("/extract-key-points", s.handleExtractKeyPoints)
		})

		r.Route("/scheduler", func(r chi.Router) {
			r.Post("/start-daily-job", s.handleStartDailyJob)
			r.Get("/status", s.handleSchedulerStatus)
			r.Post("/start", s.handleSchedulerStart)
			r.Post("/stop", s.handleSchedulerStop)
		})
	})

	return r
}

// Start begins serving. It blocks until the listener fails or Shutdown is
// called.
func (s *Server) Start() error {
	logger.Log.Info("HTTP server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
