package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupPublicRoutes sets up the routes that work without a session
func setupPublicRoutes(r chi.Router, handlers *routeHandlers, gatherer prometheus.Gatherer) {
	r.Get("/healthz", handlers.healthHandler.health())
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Post("/session", handlers.sessionHandler.login())
	r.Delete("/session", handlers.sessionHandler.logout())
}

// setupAccountRoutes sets up the routes of a signed-in visitor
func setupAccountRoutes(r chi.Router, handlers *routeHandlers, sessions sessionMiddleware) {
	r.Group(func(r chi.Router) {
		r.Use(sessions.authenticate)

		// Account
		r.Get("/account/profile", handlers.accountHandler.getProfile())
		r.Put("/account/profile", handlers.accountHandler.updateProfile())
		r.Get("/account/login-history", handlers.accountHandler.loginHistory())
		r.Post("/account/login-history/{sessionID}/logout", handlers.accountHandler.logoutSession())
		r.Post("/account/2fa/{action}", handlers.accountHandler.twoFactor())
		r.Get("/account/email-preferences", handlers.accountHandler.getEmailPreferences())
		r.Put("/account/email-preferences", handlers.accountHandler.updateEmailPreferences())
		r.Delete("/account/email-preferences", handlers.accountHandler.resetEmailPreferences())

		// Subscription & payments
		r.Get("/account/subscription", handlers.subscriptionHandler.getSubscription())
		r.Post("/account/subscription", handlers.subscriptionHandler.subscribe())
		r.Delete("/account/subscription", handlers.subscriptionHandler.cancelSubscription())
		r.Delete("/account/payments/{paymentID}", handlers.subscriptionHandler.cancelPayment())
		r.Post("/account/payments/{paymentID}/invoice", handlers.subscriptionHandler.downloadInvoice())

		// Marketplace
		r.Get("/marketplace/purchased", handlers.marketplaceHandler.getPurchased())
		r.Post("/marketplace/projects/{projectID}/download", handlers.marketplaceHandler.downloadProject())
	})
}

// setupAdminRoutes sets up the editor routes, open to admin accounts only
func setupAdminRoutes(r chi.Router, handlers *routeHandlers, sessions sessionMiddleware) {
	r.Route("/admin", func(r chi.Router) {
		r.Use(sessions.authenticate)
		r.Use(sessions.requireAdmin)

		r.Get("/blog", handlers.blogHandler.list())
		r.Get("/blog/editor", handlers.blogHandler.state())
		r.Post("/blog", handlers.blogHandler.create())
		r.Put("/blog/{id}", handlers.blogHandler.update())
		r.Delete("/blog/{id}", handlers.blogHandler.delete())

		r.Get("/projects", handlers.projectHandler.list())
		r.Get("/projects/editor", handlers.projectHandler.state())
		r.Post("/projects", handlers.projectHandler.create())
		r.Put("/projects/{id}", handlers.projectHandler.update())
		r.Delete("/projects/{id}", handlers.projectHandler.delete())

		r.Get("/uploads/pending", handlers.uploadHandler.getPending())
		r.Post("/uploads/pending/{uploadID}/resume", handlers.uploadHandler.resume())
	})
}
