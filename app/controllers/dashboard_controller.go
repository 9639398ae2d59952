package controllers

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sujit-baniya/flash"
	"gorm.io/gorm"

	"github.com/astrafabric/astrafabric/app/repository"
	cctx "github.com/astrafabric/astrafabric/internal/pkg/customercontext"
	"github.com/astrafabric/astrafabric/internal/pkg/entitlements"
	"github.com/astrafabric/astrafabric/internal/pkg/env"
	"github.com/astrafabric/astrafabric/internal/pkg/metrics/counter"
	"github.com/astrafabric/astrafabric/internal/pkg/notification"
	"github.com/astrafabric/astrafabric/internal/pkg/security"
	"github.com/astrafabric/astrafabric/internal/pkg/session"
)

const loginTokenTTL = 15 * time.Minute

// HandleDashboardLoginPage renders the email login form
func HandleDashboardLoginPage(c *fiber.Ctx) error {
	if cctx.IsLoggedIn(c) {
		return c.Redirect("/dashboard", fiber.StatusSeeOther)
	}
	data := baseViewData(c, "Sign In | AstraFabric")
	return c.Render("pages/dashboard_login", data, "layouts/main")
}

// HandleDashboardLoginRequest emails a one-time login link. The response is
// the same whether or not the address exists, so the form cannot be used to
// probe for accounts.
func HandleDashboardLoginRequest(c *fiber.Ctx) error {
	email := strings.ToLower(strings.TrimSpace(c.FormValue("email")))
	fm := fiber.Map{"type": "success", "message": "If an account exists for this address, a sign-in link is on its way."}

	if email == "" {
		return flash.WithSuccess(c, fm).Redirect("/dashboard/login")
	}

	customer, err := repository.GetGlobalRepositories().Customer.GetByEmail(email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Errorf("[Dashboard] login lookup for %s failed: %v", email, err)
		}
		return flash.WithSuccess(c, fm).Redirect("/dashboard/login")
	}

	secret := env.GetEnv("APP_SECRET", "")
	token, err := security.GenerateLoginToken(customer.ID, customer.Email, loginTokenTTL, secret)
	if err != nil {
		log.Errorf("[Dashboard] login token for %s failed: %v", email, err)
		return flash.WithSuccess(c, fm).Redirect("/dashboard/login")
	}

	link := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", "http://localhost:8080"), "/") +
		"/dashboard/login/verify?token=" + url.QueryEscape(token)
	if err := notification.NewNotifier().LoginLink(customer.Email, link); err != nil {
		log.Errorf("[Dashboard] login mail to %s failed: %v", email, err)
	}

	return flash.WithSuccess(c, fm).Redirect("/dashboard/login")
}

// HandleDashboardLoginVerify validates a login token and opens the session
func HandleDashboardLoginVerify(c *fiber.Ctx) error {
	claims, err := security.VerifyLoginToken(c.Query("token"), env.GetEnv("APP_SECRET", ""))
	if err != nil {
		fm := fiber.Map{"type": "error", "message": "This sign-in link is invalid or has expired. Please request a new one."}
		return flash.WithError(c, fm).Redirect("/dashboard/login")
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		fm := fiber.Map{"type": "error", "message": "Could not start your session. Please try again."}
		return flash.WithError(c, fm).Redirect("/dashboard/login")
	}
	sess.Set(cctx.AuthKey, true)
	sess.Set(cctx.KeyCustomerID, claims.CustomerID)
	sess.Set(cctx.KeyCustomerEmail, claims.Email)
	if err := sess.Save(); err != nil {
		fm := fiber.Map{"type": "error", "message": "Could not start your session. Please try again."}
		return flash.WithError(c, fm).Redirect("/dashboard/login")
	}

	if err := repository.GetGlobalRepositories().Customer.RecordLogin(claims.CustomerID, time.Now()); err != nil {
		log.Warnf("[Dashboard] login stamp for customer %d failed: %v", claims.CustomerID, err)
	}
	if err := counter.AddCustomerLogin(claims.CustomerID); err != nil {
		log.Warnf("[Dashboard] login counter for customer %d failed: %v", claims.CustomerID, err)
	}

	return c.Redirect("/dashboard", fiber.StatusSeeOther)
}

// HandleDashboard renders the customer overview: plan entitlements, recent
// security events and the severity breakdown.
func HandleDashboard(c *fiber.Ctx) error {
	ctx := cctx.GetCustomerContext(c)
	repos := repository.GetGlobalRepositories()

	data := baseViewData(c, "Dashboard | AstraFabric")
	data["Entitlements"] = entitlements.ForPlan(ctx.Plan)

	sub, err := repos.Subscription.GetActiveByCustomerID(ctx.CustomerID)
	if err == nil {
		data["Subscription"] = sub
		data["DaysRemaining"] = sub.DaysRemaining(time.Now())
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Errorf("[Dashboard] subscription load for customer %d failed: %v", ctx.CustomerID, err)
	}

	events, err := repos.SecurityEvent.GetByCustomerID(ctx.CustomerID, 0, 20)
	if err != nil {
		log.Errorf("[Dashboard] event feed for customer %d failed: %v", ctx.CustomerID, err)
	}
	data["Events"] = events

	breakdown, err := repos.SecurityEvent.SeverityBreakdown(ctx.CustomerID)
	if err != nil {
		log.Errorf("[Dashboard] severity breakdown for customer %d failed: %v", ctx.CustomerID, err)
	}
	data["SeverityBreakdown"] = breakdown

	return c.Render("pages/dashboard", data, "layouts/main")
}

// HandleDashboardMetrics returns the numbers behind the dashboard widgets
func HandleDashboardMetrics(c *fiber.Ctx) error {
	ctx := cctx.GetCustomerContext(c)
	repos := repository.GetGlobalRepositories()

	total, err := repos.SecurityEvent.CountByCustomerID(ctx.CustomerID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "metrics unavailable"})
	}
	unresolved, err := repos.SecurityEvent.CountUnresolvedByCustomerID(ctx.CustomerID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "metrics unavailable"})
	}
	breakdown, err := repos.SecurityEvent.SeverityBreakdown(ctx.CustomerID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "metrics unavailable"})
	}

	return c.JSON(fiber.Map{
		"plan":         ctx.Plan,
		"entitlements": entitlements.ForPlan(ctx.Plan),
		"events": fiber.Map{
			"total":       total,
			"unresolved":  unresolved,
			"by_severity": breakdown,
		},
	})
}

// HandleDashboardLogout ends the customer session
func HandleDashboardLogout(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err == nil {
		if err := sess.Destroy(); err != nil {
			log.Warnf("[Dashboard] session destroy failed: %v", err)
		}
	}
	return c.Redirect("/", fiber.StatusSeeOther)
}
