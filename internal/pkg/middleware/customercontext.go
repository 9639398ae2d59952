package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/astrafabric/astrafabric/app/models"
	cctx "github.com/astrafabric/astrafabric/internal/pkg/customercontext"
	"github.com/astrafabric/astrafabric/internal/pkg/database"
	"github.com/astrafabric/astrafabric/internal/pkg/session"
)

// CustomerContextMiddleware sets up the complete visitor context for every
// request. This centralizes session handling so controllers never touch the
// session store directly for identity.
func CustomerContextMiddleware(c *fiber.Ctx) error {
	// Avoid interfering with Goth/Fiber session handling on OAuth routes.
	// Goth uses its own fiber session store and relies on per-request locals.
	// We skip our app session on /auth/* to prevent cross-store collisions.
	if strings.HasPrefix(c.Path(), "/auth/") {
		return c.Next()
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		setAnonymous(c)
		return c.Next()
	}

	customerID := sess.Get(cctx.KeyCustomerID)
	isAdmin, _ := sess.Get(cctx.KeyIsAdmin).(bool)
	if customerID == nil && !isAdmin {
		setAnonymous(c)
		return c.Next()
	}

	email := session.GetSessionValue(c, cctx.KeyCustomerEmail)

	ctx := cctx.CustomerContext{
		Email:      email,
		IsLoggedIn: true,
		IsAdmin:    isAdmin,
	}
	if id, ok := customerID.(uint); ok {
		ctx.CustomerID = id
		ctx.Plan = resolvePlan(c, id)
	}

	c.Locals("CUSTOMER_CONTEXT", ctx)
	c.Locals(cctx.KeyFromProtected, true)
	c.Locals(cctx.KeyCustomerID, ctx.CustomerID)
	c.Locals(cctx.KeyCustomerEmail, email)
	c.Locals(cctx.KeyIsAdmin, isAdmin)

	return c.Next()
}

func setAnonymous(c *fiber.Ctx) {
	c.Locals("CUSTOMER_CONTEXT", cctx.CustomerContext{
		IsLoggedIn: false,
		IsAdmin:    false,
	})
	c.Locals(cctx.KeyFromProtected, false)
	c.Locals(cctx.KeyIsAdmin, false)
}

// resolvePlan determines the customer's plan with a session-first strategy
// and caches the DB answer in the session for subsequent requests.
func resolvePlan(c *fiber.Ctx, customerID uint) string {
	if plan := session.GetSessionValue(c, "customer_plan"); plan != "" {
		return plan
	}

	plan := "none"
	if db := database.GetDB(); db != nil {
		var sub models.Subscription
		err := db.Where("customer_id = ? AND status = ?", customerID, models.SubscriptionStatusActive).
			Order("end_date DESC").
			First(&sub).Error
		if err == nil {
			plan = sub.Plan
		}
	}
	_ = session.SetSessionValue(c, "customer_plan", plan)
	return plan
}
