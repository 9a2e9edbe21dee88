package admin

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nilm987521/gofep/internal/admin/auth"
	"github.com/nilm987521/gofep/internal/logger"
	"github.com/nilm987521/gofep/pkg/metrics"
)

// NewRouter creates and configures the chi router with all middleware and
// routes.
//
// Routes:
//   - GET /health - Liveness probe
//   - GET /health/ready - Readiness probe
//   - GET /metrics - Prometheus exposition (404 when metrics are disabled)
//   - POST /api/v1/auth/login - Operator authentication
//   - POST /api/v1/auth/refresh - Token refresh
//   - GET /api/v1/auth/me - Current operator info
//   - GET /api/v1/status - Component states and uptime
//   - GET /api/v1/statistics - Traffic counters
//   - GET /api/v1/fields - Field table providers
//   - GET /api/v1/fields/{provider} - One provider's definitions
//   - POST /api/v1/fields/{provider}/reload - Reload from source (admin only)
//   - POST /api/v1/network/echo - 0800/301 round trip (admin only)
//   - POST /api/v1/network/signon - 0800/001 exchange (admin only)
//   - POST /api/v1/network/signoff - 0800/002 exchange (admin only)
//   - GET /api/v1/events/ws - Websocket event stream
func NewRouter(rt *Runtime, jwtService *auth.JWTService, users *auth.StaticStore) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	healthHandler := NewHealthHandler(rt)
	authHandler := NewAuthHandler(users, jwtService)
	statusHandler := NewStatusHandler(rt)
	fieldsHandler := NewFieldsHandler(rt.Tables, rt.Bus)
	networkHandler := NewNetworkHandler(rt.Gateway)
	eventsHandler := NewEventsHandler(rt.Bus)

	// Health and metrics - unauthenticated
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		r.Route("/health", func(r chi.Router) {
			r.Get("/", healthHandler.Liveness)
			r.Get("/ready", healthHandler.Readiness)
		})

		// Root redirect to health for convenience
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
		})

		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Event stream: long-lived, exempt from the request timeout.
		r.With(JWTAuth(jwtService)).Get("/events/ws", eventsHandler.Stream)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))

			// Auth routes - mostly unauthenticated
			r.Route("/auth", func(r chi.Router) {
				r.Post("/login", authHandler.Login)
				r.Post("/refresh", authHandler.Refresh)

				r.Group(func(r chi.Router) {
					r.Use(JWTAuth(jwtService))
					r.Get("/me", authHandler.Me)
				})
			})

			// Protected routes
			r.Group(func(r chi.Router) {
				r.Use(JWTAuth(jwtService))

				r.Get("/status", statusHandler.Status)
				r.Get("/statistics", statusHandler.Statistics)

				r.Route("/fields", func(r chi.Router) {
					r.Get("/", fieldsHandler.List)
					r.Get("/{provider}", fieldsHandler.Get)
					r.With(RequireAdmin()).Post("/{provider}/reload", fieldsHandler.Reload)
				})

				// Network management triggers touch the host link (admin only)
				r.Route("/network", func(r chi.Router) {
					r.Use(RequireAdmin())
					r.Post("/echo", networkHandler.Echo)
					r.Post("/signon", networkHandler.SignOn)
					r.Post("/signoff", networkHandler.SignOff)
				})
			})
		})
	})

	return r
}

// isQuietPath returns true for endpoints polled by machines: health probes
// and the Prometheus scrape.
func isQuietPath(path string) bool {
	return path == "/health" || strings.HasPrefix(path, "/health/") || path == "/metrics"
}

// requestLogger is a custom middleware that logs requests using the internal
// logger.
//
// It logs:
//   - Request start (DEBUG level): method, path, remote addr
//   - Request completion (INFO level): method, path, status, duration
//   - Health and metrics requests are logged at DEBUG level to reduce noise
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("admin API request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		// Wrap response writer to capture status code
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)

		logArgs := []any{
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", duration.String(),
		}

		if isQuietPath(r.URL.Path) {
			logger.Debug("admin API request completed", logArgs...)
		} else {
			logger.Info("admin API request completed", logArgs...)
		}
	})
}
