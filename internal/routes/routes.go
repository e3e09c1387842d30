package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/marketsquad/authgate/internal/auth"
	"github.com/marketsquad/authgate/internal/handlers"
	"github.com/marketsquad/authgate/internal/middleware"
	"github.com/marketsquad/authgate/internal/repositories"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	tokenManager *auth.TokenManager,
	revocationRepo *repositories.TokenRevocationRepository,
) {
	rateLimitConfig := middleware.DefaultAuthRateLimit()

	router.Route("/api/v1/auth", func(r chi.Router) {
		// Credential logins, one entry point per role
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(rateLimitConfig))

			r.Post("/login/admin", authHandler.AdminLogin)
			r.Post("/login/provider", authHandler.ProviderLogin)
			r.Post("/login/customer", authHandler.CustomerLogin)
			r.Post("/login/serviceman", authHandler.ServicemanLogin)

			r.Post("/social-login", authHandler.SocialLogin)
			r.Post("/existing-account-check", authHandler.ExistingAccountCheck)
			r.Post("/social-registration", authHandler.SocialRegistration)
		})

		// Logout accepts requests with or without a valid session
		r.With(auth.OptionalMiddleware(tokenManager, revocationRepo)).
			Post("/logout", authHandler.Logout)
	})
}
