package api

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hugh/go-contacts/internal/api/handlers"
	"github.com/hugh/go-contacts/internal/api/middleware"
	"github.com/hugh/go-contacts/internal/auth"
	"github.com/hugh/go-contacts/internal/avatars"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Router struct {
	chi.Router
}

type RouterConfig struct {
	DB             *gorm.DB
	Redis          *redis.Client
	Logger         *slog.Logger
	JWTService     *auth.JWTService
	AuthService    auth.Authenticator
	Contacts       handlers.ContactStore
	Avatars        avatars.Store
	MaxAvatarBytes int64
	AllowedOrigins []string           // CORS allowed origins
	RateLimiter    middleware.Limiter // per client IP, all routes
	MeRateLimiter  middleware.Limiter // per user, GET /me
	Clock          func() time.Time   // defaults to time.Now
}

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))
	r.Use(chimw.StripSlashes)

	if cfg.RateLimiter != nil {
		r.Use(middleware.RateLimit(cfg.RateLimiter, cfg.Logger))
	}

	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: !allowsAny(allowedOrigins),
		MaxAge:           300,
	}))

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis)
	authHandler := handlers.NewAuthHandler(cfg.AuthService, cfg.Logger)
	userHandler := handlers.NewUserHandler(cfg.AuthService, cfg.Avatars, cfg.MaxAvatarBytes, cfg.Logger)
	contactHandler := handlers.NewContactHandler(cfg.Contacts, cfg.Logger)
	if cfg.Clock != nil {
		contactHandler.WithClock(cfg.Clock)
	}

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Public auth endpoints
	r.Post("/register", authHandler.Register)
	r.Post("/login", authHandler.Login)
	r.Get("/verify_email", authHandler.VerifyEmail)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTService, cfg.AuthService, cfg.Logger))

		r.Group(func(r chi.Router) {
			if cfg.MeRateLimiter != nil {
				r.Use(middleware.RateLimitByUser(cfg.MeRateLimiter, cfg.Logger))
			}
			r.Get("/me", userHandler.Me)
		})
		r.Patch("/avatar", userHandler.UpdateAvatar)

		r.Route("/contacts", func(r chi.Router) {
			r.Get("/", contactHandler.List)
			r.Post("/", contactHandler.Create)
			r.Get("/{id}", contactHandler.Get)
			r.Put("/{id}", contactHandler.Update)
			r.Delete("/{id}", contactHandler.Delete)
		})

		r.Get("/search", contactHandler.Search)
		r.Get("/birthdays", contactHandler.Birthdays)
	})

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	return &Router{r}
}

func allowsAny(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
