package routes

import (
	"io/fs"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/templui/ecoscan/assets"
	"github.com/templui/ecoscan/internal/app"
	"github.com/templui/ecoscan/internal/handler"
	"github.com/templui/ecoscan/internal/middleware"
)

// oauthProviders get routes whether or not they are configured; unconfigured
// ones answer 404.
var oauthProviders = []string{"google", "github"}

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	home := handler.NewHomeHandler(app.LandingService)
	health := handler.NewHealthHandler(app.DB)
	auth := handler.NewAuthHandler(app.AuthService, app.OAuthProviders)
	activity := handler.NewActivityHandler(app.ActivityService, app.Cfg.RedirectDelay)
	dashboard := handler.NewDashboardHandler(app.ActivityService)
	sessionEvents := handler.NewSessionHandler(app.AuthService)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	// Static files
	sub, _ := fs.Sub(assets.AssetsFS, ".")
	mux.Handle("GET /assets/", http.StripPrefix("/assets/", http.FileServer(http.FS(sub))))

	// Operations
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Home
	mux.HandleFunc("GET /{$}", home.HomePage)

	// Auth - Authentication flow (rate limited)
	rateLimiter := middleware.RateLimitAuth()

	mux.HandleFunc("GET /auth", middleware.RequireGuest(auth.AuthPage))
	mux.HandleFunc("POST /auth/sign-in", rateLimiter(middleware.RequireGuest(auth.SignIn)))
	mux.HandleFunc("POST /auth/sign-up", rateLimiter(middleware.RequireGuest(auth.SignUp)))
	mux.HandleFunc("GET /auth/verify-email/{token}", auth.VerifyEmail)
	mux.HandleFunc("POST /auth/logout", auth.Logout)

	// OAuth
	for _, name := range oauthProviders {
		mux.HandleFunc("GET /auth/"+name, rateLimiter(middleware.RequireGuest(auth.OAuthStart(name))))
		mux.HandleFunc("GET /auth/"+name+"/callback", rateLimiter(auth.OAuthCallback(name)))
	}

	// ============================================================================
	// PROTECTED ROUTES
	// ============================================================================

	mux.HandleFunc("GET /log-activity", middleware.RequireAuth(activity.LogActivityPage))
	mux.HandleFunc("POST /log-activity", middleware.RequireAuth(activity.LogActivity))
	mux.HandleFunc("GET /log-activity/preview", middleware.RequireAuth(activity.Preview))
	mux.HandleFunc("GET /dashboard", middleware.RequireAuth(dashboard.DashboardPage))
	mux.HandleFunc("GET /dashboard/export", middleware.RequireAuth(dashboard.Export))

	// The stream mounts its own session gate and reports a missing session as an event
	mux.HandleFunc("GET /session/events", sessionEvents.Events)

	// ============================================================================
	// FALLBACK
	// ============================================================================

	// 404
	mux.HandleFunc("/{path...}", home.NotFoundPage)

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.Config(app.Cfg), // Config must be first (CSRF and SecurityHeaders read it)
		middleware.NonceMiddleware, // Must be before SecurityHeaders
		middleware.SecurityHeaders,
		middleware.RequestLogging,
		middleware.CSRFProtection,
		middleware.AuthMiddleware(app.AuthService),
		middleware.WithURLPath,
	)

	return handler
}
