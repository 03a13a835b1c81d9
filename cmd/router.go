package cmd

import (
	"net/http"

	"roastme-backend/internal/config"
	"roastme-backend/internal/handlers"
	"roastme-backend/internal/middleware"
	"roastme-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

type routerDeps struct {
	admin            middleware.TokenValidator
	settings         middleware.FeatureChecker
	limiter          *middleware.FingerprintRateLimiter
	analyticsLimiter *middleware.FingerprintRateLimiter

	roasts     *handlers.RoastHandler
	stories    *handlers.StoryHandler
	adminH     *handlers.AdminHandler
	settingsH  *handlers.SettingsHandler
	uploads    *handlers.UploadHandler
	cron       *handlers.CronHandler
	websockets *handlers.WebSocketHandler
	analytics  *handlers.AnalyticsHandler
}

func newRouter(cfg *config.Config, d routerDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Cron-Key"},
		AllowCredentials: true,
	}).Handler)
	r.Use(middleware.Fingerprint)
	r.Use(middleware.AdminSession(d.admin))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/roasts", func(r chi.Router) {
			r.With(d.limiter.Middleware).Post("/", d.roasts.Submit)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireFeature(d.settings, services.FeatureLeaderboard))
				r.Get("/", d.roasts.Leaderboard)
				r.Get("/trending", d.roasts.Trending)
				r.With(middleware.RequireFeature(d.settings, services.FeatureVoting)).
					Post("/{id}/vote", d.roasts.Vote)
			})
		})

		r.Route("/stories", func(r chi.Router) {
			r.Use(middleware.RequireFeature(d.settings, services.FeatureStories))
			r.With(d.limiter.Middleware).Post("/", d.stories.Create)
			r.Get("/", d.stories.List)
			r.Get("/{id}", d.stories.Get)
			r.Post("/{id}/view", d.stories.View)
			r.Post("/{id}/react", d.stories.React)
		})

		r.With(d.limiter.Middleware).Post("/uploads", d.uploads.Presign)
		r.Get("/settings", d.settingsH.Public)
		r.With(d.analyticsLimiter.Middleware).Post("/analytics", d.analytics.Track)

		r.With(middleware.CronKey(cfg.Admin.CronKey)).Post("/cron/cleanup", d.cron.Cleanup)

		// Admin routes authorize inside the services so a rejected caller
		// learns nothing about the target
		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", d.adminH.Login)
			r.Post("/logout", d.adminH.Logout)
			r.Get("/content", d.adminH.ListContent)
			r.Delete("/content/{kind}/{id}", d.adminH.DeleteContent)
			r.Get("/roasts/{id}", d.adminH.GetRoast)
			r.Get("/stats", d.adminH.Stats)
			r.Get("/settings", d.settingsH.List)
			r.Put("/settings", d.settingsH.Update)
			r.Get("/analytics", d.analytics.List)
		})
	})

	r.Get("/ws", d.websockets.HandleWebSocket)

	return r
}
