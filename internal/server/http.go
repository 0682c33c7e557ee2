package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/philly/devtools-relay/internal/adapters/api"
	"github.com/philly/devtools-relay/internal/adapters/rest"
	"github.com/philly/devtools-relay/internal/adapters/rest/middleware"
	"github.com/philly/devtools-relay/internal/platform/logger"
)

// publicPatterns are served without a bearer token. Everything else mutates
// relay state and goes through the auth middleware.
var publicPatterns = map[string]bool{
	"GET /api/v1/health/live":    true,
	"GET /api/v1/health/ready":   true,
	"GET /api/v1/connections":    true,
	"GET /api/v1/forwards":       true,
	"GET /api/v1/state":          true,
	"GET /api/v1/snapshots":      true,
	"GET /api/v1/snapshots/{id}": true,
}

// queryTokenPatterns accept the bearer token as the access_token query
// parameter, since browsers cannot set headers on websocket handshakes.
var queryTokenPatterns = []string{
	"GET /api/v1/stream",
}

// NewHTTPServer creates and configures the HTTP server with all routes
func NewHTTPServer(
	config Config,
	server api.ServerInterface,
	base *rest.BaseHandler,
	streams *rest.StreamHandler,
	auth *middleware.Auth,
	log logger.Logger,
) *http.Server {
	srv := &http.Server{
		Addr:         config.ServerAddress,
		Handler:      NewRouter(server, base, auth, log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	srv.RegisterOnShutdown(streams.Close)
	return srv
}

// NewRouter mounts the API under /api/v1 with route-aware authentication and
// request logging.
func NewRouter(server api.ServerInterface, base *rest.BaseHandler, auth *middleware.Auth, log logger.Logger) http.Handler {
	r := chi.NewRouter()

	protectedMiddlewares := []api.MiddlewareFunc{
		wrapMiddleware(auth.Middleware),
	}

	specificMiddlewares := make(map[string][]api.MiddlewareFunc, len(queryTokenPatterns))
	for _, pattern := range queryTokenPatterns {
		specificMiddlewares[pattern] = []api.MiddlewareFunc{wrapMiddleware(auth.QueryMiddleware)}
	}

	_ = api.HandlerWithOptions(server, api.ChiServerOptions{
		BaseURL:    "/api/v1",
		BaseRouter: r,
		Middlewares: []api.MiddlewareFunc{
			routeAwareChiMiddleware(publicPatterns, specificMiddlewares, protectedMiddlewares),
		},
		ErrorHandlerFunc: base.HandleParamError,
	})

	return withObservability(r, log)
}

// routeAwareChiMiddleware applies auth middlewares based on matched chi route pattern
func routeAwareChiMiddleware(
	public map[string]bool,
	specific map[string][]api.MiddlewareFunc,
	defaults []api.MiddlewareFunc,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// chi exposes the current route pattern via RouteContext
			routeCtx := chi.RouteContext(r.Context())
			method := r.Method
			if method == http.MethodHead {
				method = http.MethodGet
			}
			pattern := ""
			if routeCtx != nil {
				pattern = method + " " + routeCtx.RoutePattern()
			}

			// Public endpoints bypass
			if public[pattern] || public[method+" "+r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			// Endpoints with their own auth chain
			if middlewares, ok := specific[pattern]; ok {
				handler := next
				for i := len(middlewares) - 1; i >= 0; i-- {
					handler = middlewares[i](handler)
				}
				handler.ServeHTTP(w, r)
				return
			}

			// Default protected endpoints
			handler := next
			for i := len(defaults) - 1; i >= 0; i-- {
				handler = defaults[i](handler)
			}
			handler.ServeHTTP(w, r)
		})
	}
}

// wrapMiddleware converts a standard middleware to oapi-codegen's MiddlewareFunc
func wrapMiddleware(mw func(http.Handler) http.Handler) api.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return mw(next)
	}
}

// withObservability adds request logging
func withObservability(handler http.Handler, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Use chi's response writer wrapper to capture status code and bytes written
		wrr := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		handler.ServeHTTP(wrr, r)

		duration := time.Since(start)

		log.Info(r.Context(), "HTTP request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrr.Status(),
			"bytes", wrr.BytesWritten(),
			"duration_ms", duration.Milliseconds(),
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)
	})
}
