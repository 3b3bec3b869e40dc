package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/autovista-ai/dealership-ai-platform/internal/conversation"
	httpmiddleware "github.com/autovista-ai/dealership-ai-platform/internal/http/middleware"
	"github.com/autovista-ai/dealership-ai-platform/internal/leads"
	"github.com/autovista-ai/dealership-ai-platform/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger              *logging.Logger
	LeadsHandler        *leads.Handler
	ConversationHandler *conversation.Handler
	MetricsHandler      http.Handler
	CORSAllowedOrigins  []string

	// Per-IP rate limit for the public API. Zero disables limiting.
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	if cfg.RateLimitPerSecond > 0 && cfg.RateLimitBurst > 0 {
		r.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
	}

	r.Get("/health", healthCheck)
	r.Get("/healthz", healthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api/v1", func(api chi.Router) {
		if cfg.ConversationHandler != nil {
			api.Route("/conversations", func(r chi.Router) {
				r.Post("/message", cfg.ConversationHandler.Message)
			})
		}

		if cfg.LeadsHandler != nil {
			api.Route("/leads", func(r chi.Router) {
				r.Post("/web", cfg.LeadsHandler.CreateWebLead)
				r.Get("/", cfg.LeadsHandler.ListLeads)
				r.Get("/{id}", cfg.LeadsHandler.GetLead)
				r.Patch("/{id}/status", cfg.LeadsHandler.UpdateStatus)
			})
		}
	})

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
