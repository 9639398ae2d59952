package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/astrafabric/astrafabric/app/controllers"
	"github.com/astrafabric/astrafabric/app/repository"
	"github.com/astrafabric/astrafabric/internal/pkg/database"
	"github.com/astrafabric/astrafabric/internal/pkg/env"
	"github.com/astrafabric/astrafabric/internal/pkg/middleware"
	"github.com/astrafabric/astrafabric/internal/pkg/notification"
	"github.com/astrafabric/astrafabric/internal/pkg/oauth"
	"github.com/astrafabric/astrafabric/internal/pkg/payments"
	"github.com/astrafabric/astrafabric/internal/pkg/session"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// init oauth providers
	oauth.Setup()

	// init repositories
	repository.InitializeFactory(database.GetDB())

	// Apply CustomerContext middleware globally as first middleware
	app.Use(middleware.CustomerContextMiddleware)

	installPaymentService()

	h.registerPublicRoutes(app)
	h.registerAdminRoutes(app)
	h.registerCSRFProtectedRoutes(app)
}

// installPaymentService builds the payments service and gateway clients from
// the environment and hands them to the controllers.
func installPaymentService() {
	cfg := payments.Config{
		BaseURL:               env.GetEnv("PUBLIC_DOMAIN", "http://localhost:8080"),
		NowPaymentsAPIKey:     env.GetEnv("NOWPAYMENTS_API_KEY", ""),
		NowPaymentsIPNSecret:  env.GetEnv("NOWPAYMENTS_IPN_SECRET", ""),
		NowPaymentsAPIURL:     env.GetEnv("NOWPAYMENTS_API_URL", ""),
		FlutterwaveSecretKey:  env.GetEnv("FLUTTERWAVE_SECRET_KEY", ""),
		FlutterwaveSecretHash: env.GetEnv("FLUTTERWAVE_SECRET_HASH", ""),
		FlutterwaveAPIURL:     env.GetEnv("FLUTTERWAVE_API_URL", ""),
		HTTPTimeout:           30 * time.Second,
	}

	svc := payments.NewServiceFromDB(database.GetDB(), cfg)
	svc.SetNotifier(notification.NewNotifier())

	controllers.InitPaymentControllers(
		svc,
		payments.NewNowPaymentsClient(cfg),
		payments.NewFlutterwaveClient(cfg),
	)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
