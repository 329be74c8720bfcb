package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"freshr-backend/internal/handlers"
	"freshr-backend/internal/middleware"
	"freshr-backend/internal/websocket"
)

// Handlers groups everything the route table dispatches to.
type Handlers struct {
	Quiz         *handlers.QuizHandler
	Session      *handlers.SessionHandler
	Attempt      *handlers.AttemptHandler
	Profile      *handlers.ProfileHandler
	Analytics    *handlers.AnalyticsHandler
	Presentation *handlers.PresentationHandler
	// Health is optional; without it /health always answers ok.
	Health *handlers.HealthHandler
}

func New(
	jwtAuth *middleware.JWTAuth,
	h Handlers,
	generateLimiter *middleware.RateLimiter,
	wsHub *websocket.Hub,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(frontendURL))

	// Health check
	if h.Health != nil {
		r.Get("/health", h.Health.Get)
	} else {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"status":"ok"}`))
		})
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Token travels in the query string
		r.Get("/ws", wsHub.HandleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(jwtAuth.Middleware)

			// ──── Quiz Routes ────
			r.Route("/quiz", func(r chi.Router) {
				r.With(generateLimiter.Middleware).Post("/generate", h.Quiz.Generate)

				r.Post("/save", h.Quiz.Save)
				r.Get("/save", h.Quiz.List)
				r.Delete("/save", h.Quiz.Delete)

				r.Post("/sessions", h.Session.Create)
				r.Get("/sessions", h.Session.Get)

				r.Post("/attempts", h.Attempt.Submit)
				r.Get("/attempts", h.Attempt.List)

				r.Post("/favorites", h.Quiz.AddFavorite)
				r.Get("/favorites", h.Quiz.ListFavorites)
				r.Delete("/favorites", h.Quiz.RemoveFavorite)
			})

			// ──── Presentation Routes ────
			r.Route("/presentation", func(r chi.Router) {
				r.With(generateLimiter.Middleware).Post("/generate", h.Presentation.Generate)
				r.With(chimiddleware.Timeout(60 * time.Second)).Post("/export", h.Presentation.Export)
			})

			// ──── Profile & Analytics ────
			r.Get("/profile", h.Profile.Get)
			r.Put("/profile", h.Profile.Update)
			r.Post("/profile", h.Profile.Update)
			r.Get("/analytics", h.Analytics.Get)
		})
	})

	return r
}
