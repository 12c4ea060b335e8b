// Package router assembles the HTTP surface.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/plumbline-ai/sarah-booking/internal/http/handlers"
	httpmiddleware "github.com/plumbline-ai/sarah-booking/internal/http/middleware"
	"github.com/plumbline-ai/sarah-booking/internal/observability/metrics"
	"github.com/plumbline-ai/sarah-booking/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger      *logging.Logger
	Metrics     *metrics.Metrics
	Check       *handlers.CheckHandler
	Booking     *handlers.BookingHandler
	PostCall    *handlers.PostCallHandler
	Inbound     *handlers.InboundHandler
	Diagnostics *handlers.DiagnosticsHandler
	Health      *handlers.HealthHandler

	MetricsHandler http.Handler
}

// New creates a Chi router with all routes configured. Chi answers wrong
// methods on registered paths with 405, which is the only non-200 the voice
// agent ever sees.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger, cfg.Metrics))
	}

	r.Get("/", cfg.Health.HandleHealth)
	r.Get("/health", cfg.Health.HandleHealth)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		// Voice-agent tools
		api.Post("/check-customer", cfg.Check.HandleCheckCustomer)
		api.Post("/check-availability", cfg.Check.HandleCheckAvailability)
		api.Post("/book-appointment", cfg.Booking.HandleBookAppointment)
		api.Post("/post-call", cfg.PostCall.HandlePostCall)
		api.Post("/inbound-webhook", cfg.Inbound.HandleInbound)

		// Operator diagnostics
		if cfg.Diagnostics != nil {
			api.Get("/st-config", cfg.Diagnostics.HandleSTConfig)
			api.Get("/campaign-debug", cfg.Diagnostics.HandleCampaigns)
			api.Get("/telecom-debug", cfg.Diagnostics.HandleCalls)
			api.Get("/invoice-debug", cfg.Diagnostics.HandleInvoices)
			api.Get("/pricebook-debug", cfg.Diagnostics.HandlePricebook)
			api.Get("/capacity-debug", cfg.Diagnostics.HandleCapacity)
			api.Get("/call-log-debug", cfg.Diagnostics.HandleCallLog)
		}
	})

	return r
}
