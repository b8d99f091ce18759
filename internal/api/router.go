// Package api exposes audits and websites over HTTP.
package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lighthouse_audit_service/internal/domain"
)

type AuditService interface {
	TriggerAudit(ctx context.Context, url string, opts domain.AuditOptions) (*domain.Audit, error)
	GetAudit(ctx context.Context, id string) (*domain.Audit, error)
	GetAudits(ctx context.Context, req domain.ListRequest) (*domain.ListResponse[domain.AuditListItem], error)
	DeleteAudit(ctx context.Context, id string) (*domain.Audit, error)
}

type WebsiteService interface {
	GetWebsites(ctx context.Context, websiteReq, auditReq domain.ListRequest) (*domain.ListResponse[domain.WebsiteBody], error)
	GetWebsiteByURL(ctx context.Context, url string, websiteReq, auditReq domain.ListRequest) (*domain.Website, error)
	GetWebsiteByAuditID(ctx context.Context, auditID string, websiteReq, auditReq domain.ListRequest) (*domain.Website, error)
}

type Options struct {
	UseCORS  bool
	LogLevel slog.Level
	// Gatherer backs /metrics; nil uses the default registry.
	Gatherer prometheus.Gatherer
	// RequestLogWriter receives access logs; nil means stdout.
	RequestLogWriter io.Writer
}

type Handler struct {
	audits   AuditService
	websites WebsiteService
	logger   *slog.Logger
}

func NewRouter(audits AuditService, websites WebsiteService, opts Options, logger *slog.Logger) http.Handler {
	h := &Handler{
		audits:   audits,
		websites: websites,
		logger:   logger.With("component", "api"),
	}

	writer := opts.RequestLogWriter
	if writer == nil {
		writer = os.Stdout
	}
	httpLogger := httplog.NewLogger("lighthouse-audit-service", httplog.Options{
		LogLevel: opts.LogLevel,
		JSON:     true,
		Concise:  true,
		Writer:   writer,
	})

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(httpLogger, []string{"/_ping", "/metrics"}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if opts.UseCORS {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/_ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Route("/audits", func(r chi.Router) {
			r.Post("/", h.triggerAudit)
			r.Get("/", h.listAudits)
			r.Get("/{auditId}", h.getAudit)
			r.Delete("/{auditId}", h.deleteAudit)
			r.Get("/{auditId}/website", h.getWebsiteByAuditID)
		})
		r.Route("/websites", func(r chi.Router) {
			r.Get("/", h.listWebsites)
			r.Get("/{websiteUrl}", h.getWebsiteByURL)
		})
	})

	return r
}
