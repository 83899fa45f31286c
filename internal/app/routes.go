package app

import (
	"net/http"

	"github.com/bimora/portal/internal/handler"
	"github.com/bimora/portal/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

func (app *App) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if app.config.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.RequestLogger(app.logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecurityHeaders(middleware.HeaderPolicy{HSTS: app.config.IsProduction()}))
	if len(app.config.Cors.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: app.config.Cors.TrustedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
			ExposedHeaders: []string{"RateLimit-Limit", "RateLimit-Remaining", "RateLimit-Reset", "Retry-After"},
			MaxAge:         300,
		}))
	}

	limits := app.config.RateLimit
	apiLimit := middleware.RateLimit(app.counter, middleware.Policy{
		Name:    "api",
		Max:     limits.API.Max,
		Window:  limits.API.Period,
		Message: "too many requests, please try again later",
		Key:     middleware.ByClientIP,
	}, app.logger)
	uploadLimit := middleware.RateLimit(app.counter, middleware.Policy{
		Name:    "upload",
		Max:     limits.Upload.Max,
		Window:  limits.Upload.Period,
		Message: "too many uploads, please try again later",
		Key:     middleware.ByClientIP,
	}, app.logger)
	reviewLimit := middleware.RateLimit(app.counter, middleware.Policy{
		Name:    "review",
		Max:     limits.Review.Max,
		Window:  limits.Review.Period,
		Message: "you can only submit one review per seller per hour",
		Key:     middleware.ByClientIPAndParam("id"),
	}, app.logger)
	loginThrottle := middleware.Throttle(rate.Limit(app.config.Login.PerMinute/60), app.config.Login.Burst)

	requireAuth := middleware.RequireAuthenticated(app.tokens)

	authHandler := handler.NewAuthHandler(app.logger, app.auth)
	adminsHandler := handler.NewAdminsHandler(app.logger, app.auth)
	sellersHandler := handler.NewSellersHandler(app.logger, app.backend.Sellers)
	reviewsHandler := handler.NewReviewsHandler(app.logger, app.reviews)
	subscribersHandler := handler.NewSubscribersHandler(app.logger, app.backend.Subscribers)
	uploadHandler := handler.NewUploadHandler(app.logger, app.images, int64(app.config.MaxUploadSizeMB)<<20)

	r.Route("/api", func(r chi.Router) {
		// Health check
		r.Get("/health", handler.Health(app.backend, app.backend.Name))

		r.Group(func(r chi.Router) {
			r.Use(apiLimit)

			r.With(loginThrottle).Post("/auth/login", authHandler.Login)
			r.With(requireAuth).Get("/auth/me", authHandler.Me)

			r.Get("/sellers", sellersHandler.List)
			r.Get("/sellers/{id}", sellersHandler.Get)
			r.Get("/sellers/{id}/reviews", reviewsHandler.List)
			r.With(reviewLimit).Post("/sellers/{id}/reviews", reviewsHandler.Create)

			r.Post("/newsletter-subscribe", subscribersHandler.Subscribe)

			r.With(uploadLimit, requireAuth).Post("/upload-image", uploadHandler.Upload)

			// Any admin
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)

				r.Post("/sellers", sellersHandler.Create)
				r.Patch("/sellers/{id}", sellersHandler.Update)
				r.Delete("/sellers/{id}", sellersHandler.Delete)

				r.With(middleware.RequireModerator()).Delete("/sellers/{id}/reviews/{reviewId}", reviewsHandler.Delete)

				// Super admin only
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireSuperAdmin())

					r.Get("/admins", adminsHandler.List)
					r.Post("/admins", adminsHandler.Create)
					r.Patch("/admins/{id}", adminsHandler.Update)
					r.Delete("/admins/{id}", adminsHandler.Delete)

					r.Get("/newsletter-subscribers", subscribersHandler.List)
					r.Delete("/newsletter-subscribers/{id}", subscribersHandler.Delete)
				})
			})
		})
	})
	return r
}
