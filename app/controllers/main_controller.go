package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/astrafabric/astrafabric/internal/pkg/cache"
	"github.com/astrafabric/astrafabric/internal/pkg/database"
	"github.com/astrafabric/astrafabric/internal/pkg/env"
	"github.com/astrafabric/astrafabric/internal/pkg/payments"
	"github.com/astrafabric/astrafabric/internal/pkg/statistics"
)

// HandleHome renders the public landing page
func HandleHome(c *fiber.Ctx) error {
	data := baseViewData(c, "AstraFabric - Automated Security Monitoring")
	data["ActiveSubscriptions"] = statistics.GetActiveSubscriptions()
	data["TotalCustomers"] = statistics.GetTotalCustomers()
	return c.Render("pages/home", data, "layouts/main")
}

// HandleFeatures renders the feature overview page
func HandleFeatures(c *fiber.Ctx) error {
	data := baseViewData(c, "Features | AstraFabric")
	return c.Render("pages/features", data, "layouts/main")
}

// HandlePricing renders the plan comparison page
func HandlePricing(c *fiber.Ctx) error {
	data := baseViewData(c, "Pricing | AstraFabric")
	data["Prices"] = payments.PriceTable()
	return c.Render("pages/pricing", data, "layouts/main")
}

// HandleHealth reports service health for load balancers and uptime checks.
// The database is pinged on every call; cache failures only degrade the
// response, they do not fail it.
func HandleHealth(c *fiber.Ctx) error {
	dbStatus := "ok"
	sqlDB, err := database.GetDB().DB()
	if err != nil || sqlDB.Ping() != nil {
		dbStatus = "unreachable"
	}

	cacheStatus := "ok"
	if client := cache.GetClient(); client == nil {
		cacheStatus = "unreachable"
	} else if err := client.Ping(c.Context()).Err(); err != nil {
		cacheStatus = "unreachable"
	}

	status := fiber.StatusOK
	if dbStatus != "ok" {
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"status":   dbStatus,
		"database": dbStatus,
		"cache":    cacheStatus,
		"version":  env.GetEnv("APP_VERSION", "1.0.0"),
	})
}
