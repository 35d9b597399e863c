package routes

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/lobby-tracker/handlers"
	"github.com/Dosada05/lobby-tracker/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
)

type Options struct {
	AllowedOrigins []string
	// RateLimiter ограничивает только запросы на запись; nil отключает лимит.
	RateLimiter *middleware.RateLimiter
	Logger      *slog.Logger
}

func SetupRoutes(
	router chi.Router,
	opts Options,
	tournamentHandler *handlers.TournamentHandler,
	matchHandler *handlers.MatchHandler,
	compareHandler *handlers.CompareHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RequestLogger(opts.Logger))
	router.Use(chiMiddleware.Recoverer)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"Location"},
		MaxAge:         300,
	}))

	writeLimit := func(next http.Handler) http.Handler { return next }
	if opts.RateLimiter != nil {
		writeLimit = opts.RateLimiter.Middleware
	}

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	router.Route("/tournaments", func(r chi.Router) {
		r.With(writeLimit).Post("/", tournamentHandler.CreateHandler)

		r.Route("/{code}", func(r chi.Router) {
			r.Get("/", tournamentHandler.GetByCodeHandler)
			r.Get("/standings", tournamentHandler.StandingsHandler)
			r.Get("/players/{playerID}/matches", tournamentHandler.PlayerMatchesHandler)

			// Действия хоста
			r.Group(func(r chi.Router) {
				r.Use(writeLimit)

				r.Post("/reshuffle", tournamentHandler.ReshuffleHandler)
				r.Post("/matches/{index}/start", matchHandler.StartHandler)
				r.Post("/matches/{index}/results", matchHandler.SubmitResultsHandler)
			})
		})
	})

	router.Get("/compare", compareHandler.CompareHandler)
	router.Get("/ws/tournaments/{code}", webSocketHandler.ServeWs)
}
