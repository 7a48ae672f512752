package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hunyuan3d/internal/http/handlers"
	"hunyuan3d/internal/infra"
	"hunyuan3d/internal/metrics"
	"hunyuan3d/internal/middleware"
)

// RouterOptions carries the cross-cutting settings of the router.
type RouterOptions struct {
	AllowedOrigins []string
	DefaultLocale  string
	Logger         infra.Logger
	// Registerer receives the HTTP collectors; nil skips registration.
	Registerer prometheus.Registerer
	// Gatherer backs /metrics; nil uses the default gatherer.
	Gatherer prometheus.Gatherer
}

func NewRouter(app *handlers.App, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	httpMetrics := metrics.NewMiddleware(app.ServiceName)
	if opts.Registerer != nil {
		httpMetrics.MustRegister(opts.Registerer)
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.Logger(opts.Logger),
		chimw.Recoverer,
		middleware.CORS(opts.AllowedOrigins),
		middleware.I18N(opts.DefaultLocale),
		httpMetrics.Handler,
	)

	r.Get("/", app.Health)
	r.Get("/openapi.json", app.OpenAPIJSON)
	r.Get("/docs", app.OpenAPIDocs)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) { mountJobRoutes(r, app) })
	// The browser frontend calls the same routes under /api.
	r.Route("/api", func(r chi.Router) {
		r.Get("/", app.Health)
		mountJobRoutes(r, app)
	})

	return r
}

func mountJobRoutes(r chi.Router, app *handlers.App) {
	r.Post("/submit-text", app.SubmitText)
	r.Post("/submit-image-url", app.SubmitImageURL)
	r.Post("/submit-image", app.SubmitImage)
	r.Get("/status/{job_id}", app.Status)
	r.Get("/jobs/{job_id}", app.Job)
	r.Get("/download/{job_id}/{index}", app.Download)
	r.Get("/archive/{job_id}", app.Archive)
}
