package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/fieldbook/fieldbook-api/docs"
	"github.com/fieldbook/fieldbook-api/handlers"
	"github.com/fieldbook/fieldbook-api/middleware"
	"github.com/fieldbook/fieldbook-api/models"
)

type Options struct {
	JWTSecret      []byte
	AllowedOrigins []string
	Logger         *slog.Logger
}

// SetupRoutes mounts the API on router.
func SetupRoutes(
	router chi.Router,
	opts Options,
	tournamentHandler *handlers.TournamentHandler,
	bookingHandler *handlers.BookingHandler,
	webSocketHandler *handlers.WebSocketHandler,
	healthHandler *handlers.HealthHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(opts.JWTSecret, opts.Logger)
	adminOnly := middleware.Authorize(models.RoleAdmin)

	router.Get("/healthz", healthHandler.Healthz)

	docs.SwaggerInfo.BasePath = "/"
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Websocket-соединения живут дольше таймаута обычных запросов.
	router.Route("/ws", func(r chi.Router) {
		r.Get("/tournaments/{id}", webSocketHandler.ServeTournament)
		r.Get("/bookings/{date}", webSocketHandler.ServeSlots)
	})

	router.Group(func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(30 * time.Second))

		r.Route("/tournaments", func(r chi.Router) {
			r.Get("/", tournamentHandler.ListHandler)
			r.Get("/ongoing", tournamentHandler.ListOngoingHandler)
			r.Get("/{id}", tournamentHandler.GetByIDHandler)

			r.With(authenticate).Post("/{id}/register", tournamentHandler.RegisterHandler)

			r.Group(func(r chi.Router) {
				r.Use(authenticate, adminOnly)
				r.Post("/", tournamentHandler.CreateHandler)
				r.Patch("/{id}/status", tournamentHandler.UpdateStatusHandler)
				r.Put("/{id}/banner", tournamentHandler.UploadBannerHandler)
				r.Delete("/{id}", tournamentHandler.DeleteHandler)
			})
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Get("/available-slots", bookingHandler.AvailableSlotsHandler)
			r.Post("/", bookingHandler.CreateHandler)
			r.Get("/{orderId}", bookingHandler.GetHandler)
			r.With(authenticate, adminOnly).Patch("/{orderId}/cancel", bookingHandler.CancelHandler)
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"message":"route not found"}` + "\n"))
	})
}
