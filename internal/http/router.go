package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/imagify/imagify-api/internal/auth"
	"github.com/imagify/imagify-api/internal/billing"
	"github.com/imagify/imagify-api/internal/config"
	"github.com/imagify/imagify-api/internal/httputil"
	"github.com/imagify/imagify-api/internal/image"
	"github.com/imagify/imagify-api/internal/logging"
)

// Handlers groups the feature handlers mounted by the router
type Handlers struct {
	Auth    *auth.Handler
	Billing *billing.Handler
	Image   *image.Handler
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, h Handlers, authMiddleware *auth.Middleware, logger *logging.Logger) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", auth.TokenHeader},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	r.Use(SecurityHeaders)
	r.Use(LimitBody)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Compress(5))

	r.NotFound(handleNotFound)
	r.MethodNotAllowed(handleNotFound)

	r.Get("/", handleRoot)
	r.Get("/health", handleHealth)

	// Production builds will not have this route at all
	if cfg.Server.IsDevelopment() {
		logger.Info("swagger UI enabled at /swagger/*")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	}

	r.Route("/api/user", func(r chi.Router) {
		r.Post("/send-otp", h.Auth.SendOTP)
		r.Post("/verify-otp", h.Auth.VerifyOTP)
		r.Post("/register", h.Auth.Register)
		r.Post("/login", h.Auth.Login)
		r.Get("/plans", h.Billing.Plans)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireAuth)
			r.Get("/credits", h.Auth.Credits)
			r.Post("/credits", h.Auth.Credits)
			r.Post("/pay-razor", h.Billing.CreateOrder)
			r.Post("/verify-razor", h.Billing.VerifyPayment)
		})
	})

	r.Route("/api/image", func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth)
		r.Post("/generate-image", h.Image.Generate)
	})

	r.Get("/auth/google", h.Auth.GoogleLogin)
	r.Get("/auth/google/callback", h.Auth.GoogleCallback)

	return r
}

// handleRoot answers the liveness probe the web client pings
func handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("API Working"))
}

// handleHealth is a simple health check endpoint
// @Summary      Health check
// @Description  Check if the API is running
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /health [get]
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "api is running"}, http.StatusOK)
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, httputil.FailureResponse{Message: "Route not found", Code: "NOT_FOUND"}, http.StatusNotFound)
}
