// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"

	bookingapifeature "github.com/dalemusser/stratasite/internal/app/features/bookingapi"
	changesfeature "github.com/dalemusser/stratasite/internal/app/features/changes"
	errorsfeature "github.com/dalemusser/stratasite/internal/app/features/errors"
	healthfeature "github.com/dalemusser/stratasite/internal/app/features/health"
	loginfeature "github.com/dalemusser/stratasite/internal/app/features/login"
	logoutfeature "github.com/dalemusser/stratasite/internal/app/features/logout"
	pagesapifeature "github.com/dalemusser/stratasite/internal/app/features/pagesapi"
	projectsapifeature "github.com/dalemusser/stratasite/internal/app/features/projectsapi"
	adminstore "github.com/dalemusser/stratasite/internal/app/store/admins"
	bookingstore "github.com/dalemusser/stratasite/internal/app/store/booking"
	pagestore "github.com/dalemusser/stratasite/internal/app/store/pages"
	projectstore "github.com/dalemusser/stratasite/internal/app/store/projects"
	"github.com/dalemusser/stratasite/internal/app/store/ratelimit"
	"github.com/dalemusser/stratasite/internal/app/system/auth"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// The route surface is a JSON API in two halves:
//   - Public reads (site content) with permissive CORS and no credentials
//   - Admin writes behind session cookies, CSRF-protected
//
// CSRF protection is global; gorilla/csrf only validates unsafe methods, so
// the public GETs pass through untouched. Every response carries an
// X-CSRF-Token header the admin frontend echoes back on mutations.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Create the session manager using app config.
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Fetch fresh admin data on each request so disabled accounts take
	// effect immediately.
	sessionMgr.SetAdminFetcher(adminstore.NewFetcher(deps.MongoDatabase, logger))

	// Create error logger for handlers.
	errLog := errorsfeature.NewErrorLogger(logger)

	// Rate limiting for login attempts (nil if disabled)
	var rateLimitStore *ratelimit.Store
	if appCfg.RateLimitEnabled {
		rateLimitStore = ratelimit.New(
			deps.MongoDatabase,
			appCfg.RateLimitLoginAttempts,
			appCfg.RateLimitLoginWindow,
			appCfg.RateLimitLoginLockout,
		)
	}

	// Entity stores over the document gateway.
	pages := pagestore.New(deps.Docs, deps.Cache, logger)
	projects := projectstore.New(deps.Docs, deps.Cache, deps.Uploader, logger)
	booking := bookingstore.New(deps.Docs, deps.Cache)

	r := chi.NewRouter()

	// Global middleware. The timeout bounds every request; CORS and
	// security headers come from core config; the session middleware loads
	// the admin into context when a session cookie is present.
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.CORSFromConfig(coreCfg))
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))
	r.Use(sessionMgr.LoadSessionAdmin)

	// CSRF protection. Cookie name is "stratasite_csrf" to avoid
	// collisions with other services on the same domain.
	csrfOpts := []csrf.Option{
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.CookieName("stratasite_csrf"),
		csrf.FieldName("csrf_token"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			logger.Warn("CSRF validation failed",
				zap.String("path", req.URL.Path),
				zap.String("method", req.Method),
				zap.String("reason", csrf.FailureReason(req).Error()),
			)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"CSRF token invalid or missing"}`))
		})),
	}
	// In dev mode, trust localhost origins for CSRF validation.
	if !secure {
		csrfOpts = append(csrfOpts, csrf.TrustedOrigins([]string{
			"localhost:8080",
			"localhost:3000",
			"127.0.0.1:8080",
			"127.0.0.1:3000",
		}))
	}
	if appCfg.SessionDomain != "" {
		csrfOpts = append(csrfOpts, csrf.Domain(appCfg.SessionDomain))
	}
	csrfProtect := csrf.Protect([]byte(appCfg.CSRFKey), csrfOpts...)

	// Expose the token on every response so the admin frontend can echo it
	// back in the X-CSRF-Token header on mutations.
	r.Use(func(next http.Handler) http.Handler {
		return csrfProtect(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("X-CSRF-Token", csrf.Token(req))
			next.ServeHTTP(w, req)
		}))
	})

	// Health check endpoints for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)

	// Uploaded files (local storage only). S3 storage serves files from
	// the bucket/CloudFront URL instead.
	if appCfg.StorageType == "local" || appCfg.StorageType == "" {
		r.Handle(appCfg.StorageLocalURL+"/*", fileserver.Handler(appCfg.StorageLocalURL, appCfg.StorageLocalPath))
	}

	// Admin authentication
	loginHandler := loginfeature.NewHandler(deps.MongoDatabase, sessionMgr, errLog, rateLimitStore, logger)
	r.Mount("/api/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, logger)
	r.Mount("/api/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

	// Site content API
	pagesHandler := pagesapifeature.NewHandler(pages, errLog, logger)
	r.Mount("/api/pages", pagesapifeature.Routes(pagesHandler, sessionMgr))

	projectsHandler := projectsapifeature.NewHandler(projects, errLog, logger)
	r.Mount("/api/projects", projectsapifeature.Routes(projectsHandler, sessionMgr))

	bookingHandler := bookingapifeature.NewHandler(booking, errLog, logger)
	r.Mount("/api/booking", bookingapifeature.Routes(bookingHandler, sessionMgr))

	// Change stream for the admin frontend (SSE)
	changesHandler := changesfeature.NewHandler(deps.Bus, logger)
	r.Mount("/api/changes", changesfeature.Routes(changesHandler, sessionMgr))

	// JSON errors for unmatched routes and wrong methods
	errorsHandler := errorsfeature.NewHandler()
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	return r, nil
}
