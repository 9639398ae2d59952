package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/astrafabric/astrafabric/app/controllers"
	"github.com/astrafabric/astrafabric/internal/pkg/constants"
	"github.com/astrafabric/astrafabric/internal/pkg/middleware"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// Static pages
	app.Get(constants.FeaturesRoute, controllers.HandleFeatures)
	app.Get(constants.PricingRoute, controllers.HandlePricing)

	// Health check for load balancers, no middleware beyond recovery
	app.Get("/healthz", controllers.HandleHealth)

	// Flash helpers
	app.Get("/flash/rate-limit", controllers.HandleFlashRateLimit)
	app.Get("/flash/payment-error", controllers.HandleFlashPaymentError)

	// Customer login via emailed link. The request endpoint is rate limited
	// so the form cannot be used to flood inboxes.
	app.Get("/dashboard/login", controllers.HandleDashboardLoginPage)
	app.Post("/dashboard/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
	}), controllers.HandleDashboardLoginRequest)
	app.Get("/dashboard/login/verify", controllers.HandleDashboardLoginVerify)
	app.Get("/dashboard/logout", middleware.RequireCustomer, controllers.HandleDashboardLogout)

	// Customer dashboard
	app.Get(constants.DashboardRoute, middleware.RequireCustomer, controllers.HandleDashboard)
	app.Get("/dashboard/api/metrics", middleware.RequireAPISessionAuth, controllers.HandleDashboardMetrics)

	// Social OAuth
	app.Get("/auth/:provider", controllers.HandleOAuthLogin)
	app.Get("/auth/:provider/callback", controllers.HandleOAuthCallback)
	app.Get("/auth/logout", controllers.HandleOAuthLogout)

	// Gateway webhooks (no CSRF, signature-verified in the payments service)
	app.Post(constants.WebhookNowPaymentsRoute, controllers.HandleNowPaymentsWebhook)
	app.Post(constants.WebhookFlutterwaveRoute, controllers.HandleFlutterwaveWebhook)

	// Browser redirect after a Flutterwave checkout
	app.Get(constants.FlutterwaveCallbackRoute, controllers.HandleFlutterwaveCallback)
	app.Get(constants.PaymentSuccessRoute, controllers.HandlePaymentSuccess)
	app.Get(constants.PaymentCancelRoute, controllers.HandlePaymentCancel)
}
