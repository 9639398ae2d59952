package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	gothfiber "github.com/shareed2k/goth_fiber"
	"gorm.io/gorm"

	"github.com/astrafabric/astrafabric/app/models"
	"github.com/astrafabric/astrafabric/app/repository"
	cctx "github.com/astrafabric/astrafabric/internal/pkg/customercontext"
	"github.com/astrafabric/astrafabric/internal/pkg/metrics/counter"
	"github.com/astrafabric/astrafabric/internal/pkg/session"
)

// HandleOAuthLogin starts the provider flow (currently Google only)
func HandleOAuthLogin(c *fiber.Ctx) error {
	return gothfiber.BeginAuthHandler(c)
}

// HandleOAuthCallback completes the provider flow and logs the customer in.
// Accounts are matched by email; a first-time visitor gets a customer record
// so the dashboard works before any payment exists.
func HandleOAuthCallback(c *fiber.Ctx) error {
	u, err := gothfiber.CompleteUserAuth(c)
	if err != nil {
		log.Warnf("[OAuth] provider flow failed: %v", err)
		return c.Redirect("/dashboard/login", fiber.StatusSeeOther)
	}

	email := strings.ToLower(strings.TrimSpace(u.Email))
	if email == "" {
		log.Warnf("[OAuth] %s returned no email for user %s", u.Provider, u.UserID)
		return c.Redirect("/dashboard/login", fiber.StatusSeeOther)
	}

	repos := repository.GetGlobalRepositories()
	customer, err := repos.Customer.GetByEmail(email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		name := u.Name
		if name == "" {
			name = u.NickName
		}
		if name == "" {
			name = email
		}
		customer = &models.Customer{
			Email:    email,
			Name:     name,
			IsActive: true,
		}
		if err := repos.Customer.Create(customer); err != nil {
			log.Errorf("[OAuth] customer create for %s failed: %v", email, err)
			return c.Redirect("/dashboard/login", fiber.StatusSeeOther)
		}
	} else if err != nil {
		log.Errorf("[OAuth] customer lookup for %s failed: %v", email, err)
		return c.Redirect("/dashboard/login", fiber.StatusSeeOther)
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("session init failed")
	}
	sess.Set(cctx.AuthKey, true)
	sess.Set(cctx.KeyCustomerID, customer.ID)
	sess.Set(cctx.KeyCustomerEmail, customer.Email)
	if err := sess.Save(); err != nil {
		return c.Status(fiber.StatusInternalServerError).SendString("session save failed")
	}

	if err := repos.Customer.RecordLogin(customer.ID, time.Now()); err != nil {
		log.Warnf("[OAuth] login stamp for customer %d failed: %v", customer.ID, err)
	}
	if err := counter.AddCustomerLogin(customer.ID); err != nil {
		log.Warnf("[OAuth] login counter for customer %d failed: %v", customer.ID, err)
	}

	return c.Redirect("/dashboard", fiber.StatusSeeOther)
}

// HandleOAuthLogout clears the provider session and the app session
func HandleOAuthLogout(c *fiber.Ctx) error {
	if err := gothfiber.Logout(c); err != nil {
		log.Warnf("[OAuth] provider logout failed: %v", err)
	}
	return HandleDashboardLogout(c)
}
