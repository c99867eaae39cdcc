package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/ne3mer/retro/internal/api/handlers"
	"github.com/ne3mer/retro/internal/api/middleware"
	"github.com/ne3mer/retro/internal/api/response"
	"github.com/ne3mer/retro/internal/config"
	"github.com/ne3mer/retro/internal/service"
)

func NewRouter(services *service.Services, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Root route for API verification
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, map[string]any{
			"message":     "Retro API is running",
			"environment": cfg.Environment,
			"timestamp":   time.Now().Format(time.RFC3339),
		})
	})

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(services.Auth, services.Post, cfg)
	movieHandler := handlers.NewMovieHandler(services.Movie, cfg)
	postHandler := handlers.NewPostHandler(services.Post)

	authRequired := middleware.Auth(services.Auth, cfg)

	r.Route("/auth", func(r chi.Router) {
		// Credential endpoints are rate limited per IP
		r.Group(func(r chi.Router) {
			r.Use(httprate.LimitByIP(20, time.Minute))
			r.Post("/signup", authHandler.Signup)
			r.Post("/login", authHandler.Login)
		})

		r.Post("/logout", authHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(authRequired)
			r.Get("/me", authHandler.Me)
			r.Put("/profile", authHandler.UpdateProfile)
			r.Post("/favorites/{movieId}", authHandler.ToggleFavorite)
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/movies", func(r chi.Router) {
			r.Get("/top-rated", movieHandler.TopRated)
			r.Get("/{id}", movieHandler.Get)
		})

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", postHandler.List)
			r.Get("/categories", postHandler.Categories)
			r.Get("/tags", postHandler.Tags)
			r.Get("/{id}", postHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(authRequired)
				r.Get("/user", postHandler.ListMine)
				r.Post("/", postHandler.Create)
				r.Put("/{id}", postHandler.Update)
				r.Delete("/{id}", postHandler.Delete)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotFound, "Route not found")
	})

	return r
}
