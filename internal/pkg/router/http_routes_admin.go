package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/astrafabric/astrafabric/app/controllers"
	"github.com/astrafabric/astrafabric/internal/pkg/constants"
	"github.com/astrafabric/astrafabric/internal/pkg/middleware"
)

func (h HttpRouter) registerAdminRoutes(app *fiber.App) {
	adminGroup := app.Group(constants.AdminRoute, middleware.RequireAdmin)
	adminGroup.Get("/", controllers.HandleAdminDashboard)

	// Commerce data
	adminGroup.Get("/payments", controllers.HandleAdminPayments)
	adminGroup.Get("/subscriptions", controllers.HandleAdminSubscriptions)

	// Webhook audit trail
	adminGroup.Get("/webhooks", controllers.HandleAdminWebhookLogs)
	adminGroup.Get("/webhooks/:id", controllers.HandleAdminWebhookLogDetail)

	// Contact inquiries
	adminGroup.Get("/inquiries", controllers.HandleAdminInquiries)

	// Background jobs
	adminGroup.Get("/queues/stats", controllers.HandleAdminQueueStats)
	adminGroup.Post("/queues/archive-sweep", controllers.HandleAdminArchiveSweep)
}
