package api

import (
	_ "embed"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-openapi/runtime/middleware"

	"github.com/nossahistoria/romantic/auth"
	"github.com/nossahistoria/romantic/content"
	"github.com/nossahistoria/romantic/media"
)

// API holds the dependencies needed by the REST handlers.
type API struct {
	guard    *auth.Guard
	content  *content.Service
	uploader *media.Uploader
	audit    *auditLogger
	metrics  *metricsCollector
	now      func() time.Time
	secure   bool
}

//go:embed openapi.yaml
var openapiSpec []byte

// Option configures the API instance.
type Option func(*API)

// WithLogger sets the structured logger for audit events.
// If not set, a default JSON logger writing to stderr is used.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		a.audit = newAuditLogger(logger)
	}
}

// WithClock sets the clock used for the home page counters.
func WithClock(now func() time.Time) Option {
	return func(a *API) {
		a.now = now
	}
}

// WithAlertFunc sets the callback for login failure spikes. By default
// alerts are logged as warnings.
func WithAlertFunc(fn AlertFunc) Option {
	return func(a *API) {
		a.metrics = newMetricsCollector(fn)
	}
}

// New creates a new API instance. The guard protects every /admin route
// except login, logout and the session probe.
func New(guard *auth.Guard, svc *content.Service, uploader *media.Uploader, opts ...Option) *API {
	a := &API{
		guard:    guard,
		content:  svc,
		uploader: uploader,
		now:      time.Now,
		secure:   guard.Secure(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.audit == nil {
		a.audit = newAuditLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	}
	if a.metrics == nil {
		logger := a.audit.logger
		a.metrics = newMetricsCollector(func(e AlertEvent) {
			logger.Warn("alert", "type", e.Type, "count", e.Count, "threshold", e.Threshold)
		})
	}
	a.audit.metrics = a.metrics
	a.audit.now = a.now
	return a
}

// Router returns a chi.Router with all API routes mounted.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(openapiSpec)
	})

	r.Handle("/docs*", middleware.SwaggerUI(middleware.SwaggerUIOpts{
		SpecURL: "/api/v1/openapi.yaml",
		Path:    "api/v1/docs",
	}, nil))

	r.Handle("/redoc*", middleware.Redoc(middleware.RedocOpts{
		SpecURL: "/api/v1/openapi.yaml",
		Path:    "api/v1/redoc",
	}, nil))

	r.Get("/home", a.GetHome)
	r.Get("/settings", a.GetSettings)
	r.Get("/carousel", a.ListCarousel)
	r.Get("/quotes", a.ListQuotes)
	r.Get("/reasons", a.ListReasons)
	r.Get("/timeline", a.ListTimeline)
	r.Get("/letters", a.ListLetters)
	r.Get("/letters/{slugOrID}", a.GetLetter)

	r.Post("/admin/login", a.Login)
	r.Post("/admin/logout", a.Logout)
	r.Get("/admin/session", a.SessionStatus)

	// Session first so an anonymous request is refused before anything else runs.
	r.Group(func(r chi.Router) {
		r.Use(a.RequireSession)
		r.Use(a.CSRFMiddleware)

		r.Put("/admin/settings", a.SaveSettings)
		r.Post("/admin/uploads", a.UploadImage)

		r.Post("/admin/carousel", a.CreateCarousel)
		r.Put("/admin/carousel/{id}", a.UpdateCarousel)
		r.Delete("/admin/carousel/{id}", a.DeleteCarousel)

		r.Post("/admin/quotes", a.CreateQuote)
		r.Put("/admin/quotes/{id}", a.UpdateQuote)
		r.Delete("/admin/quotes/{id}", a.DeleteQuote)

		r.Post("/admin/timeline", a.CreateTimelinePost)
		r.Put("/admin/timeline/{id}", a.UpdateTimelinePost)
		r.Delete("/admin/timeline/{id}", a.DeleteTimelinePost)

		r.Post("/admin/letters", a.CreateLetter)
		r.Put("/admin/letters/{id}", a.UpdateLetter)
		r.Delete("/admin/letters/{id}", a.DeleteLetter)

		r.Post("/admin/reasons", a.CreateReason)
		r.Put("/admin/reasons/{id}", a.UpdateReason)
		r.Delete("/admin/reasons/{id}", a.DeleteReason)
	})

	return r
}

// MetricsHandler serves the Prometheus metrics collected by this API.
func (a *API) MetricsHandler() http.Handler {
	return a.metrics.handler()
}
