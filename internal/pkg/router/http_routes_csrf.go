package router

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"

	"github.com/astrafabric/astrafabric/app/controllers"
	"github.com/astrafabric/astrafabric/internal/pkg/constants"
	"github.com/astrafabric/astrafabric/internal/pkg/env"
	"github.com/astrafabric/astrafabric/internal/pkg/middleware"
)

func (h HttpRouter) registerCSRFProtectedRoutes(app *fiber.App) {
	csrfConf := csrf.Config{
		KeyLookup:      "form:_csrf",
		ContextKey:     "csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		Expiration:     1 * time.Hour,
		CookieSecure:   !env.IsDev(),
		Next: func(c *fiber.Ctx) bool {
			// Webhooks and the API authenticate by signature or key, a CSRF
			// token would only break gateway deliveries.
			return strings.HasPrefix(c.Path(), "/api/") ||
				strings.HasPrefix(c.Path(), "/webhooks/")
		},
	}

	group := app.Group("", cors.New(), csrf.New(csrfConf))
	group.Get(constants.PublicRoute, controllers.HandleHome)
	group.Get(constants.ContactRoute, controllers.HandleContactPage)
	group.Post(constants.ContactRoute, controllers.HandleContactSubmit)
	group.Get(constants.SubscribeRoute, controllers.HandleSubscribePage)
	group.Post(constants.SubscribeRoute, controllers.HandleSubscribeSubmit)
	group.Post(constants.CryptoInitiateRoute, controllers.HandleCryptoInitiate)
	group.Post(constants.CardInitiateRoute, controllers.HandleCardInitiate)

	// Admin login form
	group.Get("/admin/login", controllers.HandleAdminLoginPage)
	group.Post("/admin/login", controllers.HandleAdminLogin)
	group.Post("/admin/logout", middleware.RequireAdmin, controllers.HandleAdminLogout)
	group.Post("/admin/inquiries/:id/status", middleware.RequireAdmin, controllers.HandleAdminInquiryStatus)
}
