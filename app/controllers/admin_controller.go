package controllers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sujit-baniya/flash"
	"gorm.io/gorm"

	"github.com/astrafabric/astrafabric/app/models"
	"github.com/astrafabric/astrafabric/app/repository"
	cctx "github.com/astrafabric/astrafabric/internal/pkg/customercontext"
	"github.com/astrafabric/astrafabric/internal/pkg/jobqueue"
	"github.com/astrafabric/astrafabric/internal/pkg/session"
	"github.com/astrafabric/astrafabric/internal/pkg/statistics"
)

// HandleAdminLoginPage renders the admin login form
func HandleAdminLoginPage(c *fiber.Ctx) error {
	if cctx.IsAdmin(c) {
		return c.Redirect("/admin", fiber.StatusSeeOther)
	}
	data := baseViewData(c, "Admin Login | AstraFabric")
	return c.Render("admin/login", data, "layouts/admin")
}

// HandleAdminLogin verifies admin credentials. Failed attempts count toward
// the account lockout; the error message never reveals which part was wrong.
func HandleAdminLogin(c *fiber.Ctx) error {
	username := c.FormValue("username")
	fm := fiber.Map{"type": "error", "message": "Invalid credentials."}

	admin, err := repository.GetGlobalRepositories().AdminUser.GetByUsername(username)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Errorf("[Admin] login lookup for %s failed: %v", username, err)
		}
		return flash.WithError(c, fm).Redirect("/admin/login")
	}

	now := time.Now()
	if !admin.IsActive || admin.IsLocked(now) {
		return flash.WithError(c, fm).Redirect("/admin/login")
	}

	ok := admin.CheckPassword(c.FormValue("password"), now)
	if !ok {
		if err := repository.GetGlobalRepositories().AdminUser.Save(admin); err != nil {
			log.Errorf("[Admin] failed-attempt save for %s failed: %v", username, err)
		}
		log.Warnf("[Admin] failed login for %s from %s", username, GetClientIP(c))
		return flash.WithError(c, fm).Redirect("/admin/login")
	}

	admin.LastLoginAt = &now
	if err := repository.GetGlobalRepositories().AdminUser.Save(admin); err != nil {
		log.Errorf("[Admin] login save for %s failed: %v", username, err)
	}

	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return flash.WithError(c, fm).Redirect("/admin/login")
	}
	sess.Set(cctx.AuthKey, true)
	sess.Set(cctx.KeyIsAdmin, true)
	sess.Set(cctx.KeyCustomerEmail, admin.Email)
	if err := sess.Save(); err != nil {
		return flash.WithError(c, fm).Redirect("/admin/login")
	}

	return c.Redirect("/admin", fiber.StatusSeeOther)
}

// HandleAdminLogout ends the admin session
func HandleAdminLogout(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err == nil {
		_ = sess.Destroy()
	}
	return c.Redirect("/admin/login", fiber.StatusSeeOther)
}

// HandleAdminDashboard renders the operations overview
func HandleAdminDashboard(c *fiber.Ctx) error {
	repos := repository.GetGlobalRepositories()
	data := baseViewData(c, "Admin | AstraFabric")

	statistics.UpdateCacheIfNeeded()
	data["Stats"] = statistics.GetStatisticsData()

	if pending, err := repos.Payment.CountByStatus(models.PaymentStatusPending); err == nil {
		data["PendingPayments"] = pending
	}
	if failed, err := repos.WebhookLog.CountFailed(); err == nil {
		data["FailedWebhooks"] = failed
	}

	monthStart := time.Now().AddDate(0, -1, 0)
	if revenue, err := repos.Payment.RevenueBetween(monthStart, time.Now()); err == nil {
		data["MonthRevenue"] = revenue
	} else {
		log.Errorf("[Admin] revenue query failed: %v", err)
	}

	return c.Render("admin/dashboard", data, "layouts/admin")
}

// HandleAdminPayments renders the payment list, optionally filtered by status
func HandleAdminPayments(c *fiber.Ctx) error {
	repos := repository.GetGlobalRepositories()
	page, offset := parsePagination(c)
	status := c.Query("status")

	var (
		paymentRows []models.Payment
		err         error
	)
	if status != "" {
		paymentRows, err = repos.Payment.ListByStatus(status, offset, defaultPageSize)
	} else {
		paymentRows, err = repos.Payment.List(offset, defaultPageSize)
	}
	if err != nil {
		log.Errorf("[Admin] payment list failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).SendString("failed to load payments")
	}

	data := baseViewData(c, "Payments | AstraFabric Admin")
	data["Payments"] = paymentRows
	data["Page"] = page
	data["NextPage"] = page + 1
	data["Status"] = status
	return c.Render("admin/payments", data, "layouts/admin")
}

// HandleAdminSubscriptions renders the subscription list
func HandleAdminSubscriptions(c *fiber.Ctx) error {
	repos := repository.GetGlobalRepositories()
	page, offset := parsePagination(c)

	subs, err := repos.Subscription.List(offset, defaultPageSize)
	if err != nil {
		log.Errorf("[Admin] subscription list failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).SendString("failed to load subscriptions")
	}

	data := baseViewData(c, "Subscriptions | AstraFabric Admin")
	data["Subscriptions"] = subs
	data["Page"] = page
	data["NextPage"] = page + 1
	return c.Render("admin/subscriptions", data, "layouts/admin")
}

// HandleAdminWebhookLogs renders the webhook audit trail
func HandleAdminWebhookLogs(c *fiber.Ctx) error {
	repos := repository.GetGlobalRepositories()
	page, offset := parsePagination(c)
	source := c.Query("source")

	var (
		logs []models.WebhookLog
		err  error
	)
	if source != "" {
		logs, err = repos.WebhookLog.ListBySource(source, offset, defaultPageSize)
	} else {
		logs, err = repos.WebhookLog.List(offset, defaultPageSize)
	}
	if err != nil {
		log.Errorf("[Admin] webhook log list failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).SendString("failed to load webhook logs")
	}

	data := baseViewData(c, "Webhook Logs | AstraFabric Admin")
	data["Logs"] = logs
	data["Page"] = page
	data["NextPage"] = page + 1
	data["Source"] = source
	return c.Render("admin/webhook_logs", data, "layouts/admin")
}

// HandleAdminWebhookLogDetail shows one delivery including raw payload
func HandleAdminWebhookLogDetail(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("invalid id")
	}

	logRow, err := repository.GetGlobalRepositories().WebhookLog.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).SendString("webhook log not found")
		}
		return c.Status(fiber.StatusInternalServerError).SendString("failed to load webhook log")
	}

	data := baseViewData(c, "Webhook Delivery | AstraFabric Admin")
	data["Log"] = logRow
	return c.Render("admin/webhook_log_detail", data, "layouts/admin")
}

// HandleAdminInquiries renders the contact inquiry list
func HandleAdminInquiries(c *fiber.Ctx) error {
	repos := repository.GetGlobalRepositories()
	page, offset := parsePagination(c)
	status := c.Query("status")

	var (
		inquiries []models.ContactInquiry
		err       error
	)
	if status != "" {
		inquiries, err = repos.ContactInquiry.ListByStatus(status, offset, defaultPageSize)
	} else {
		inquiries, err = repos.ContactInquiry.List(offset, defaultPageSize)
	}
	if err != nil {
		log.Errorf("[Admin] inquiry list failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).SendString("failed to load inquiries")
	}

	data := baseViewData(c, "Inquiries | AstraFabric Admin")
	data["Inquiries"] = inquiries
	data["Page"] = page
	data["NextPage"] = page + 1
	data["Status"] = status
	return c.Render("admin/inquiries", data, "layouts/admin")
}

// HandleAdminInquiryStatus updates the workflow status of an inquiry
func HandleAdminInquiryStatus(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("invalid id")
	}

	status := c.FormValue("status")
	switch status {
	case models.InquiryStatusNew, models.InquiryStatusAssigned, models.InquiryStatusClosed:
	default:
		return c.Status(fiber.StatusBadRequest).SendString("invalid status")
	}

	if err := repository.GetGlobalRepositories().ContactInquiry.UpdateStatus(uint(id), status); err != nil {
		log.Errorf("[Admin] inquiry %d status update failed: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).SendString("failed to update inquiry")
	}
	return c.Redirect("/admin/inquiries", fiber.StatusSeeOther)
}

// HandleAdminQueueStats returns background job queue numbers as JSON
func HandleAdminQueueStats(c *fiber.Ctx) error {
	queue := jobqueue.GetManager().GetQueue()

	stats, err := queue.GetJobStats(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "queue stats unavailable"})
	}
	queued, _ := queue.GetQueueSize(c.Context())
	processing, _ := queue.GetProcessingSize(c.Context())

	return c.JSON(fiber.Map{
		"running":    jobqueue.GetManager().IsRunning(),
		"queued":     queued,
		"processing": processing,
		"stats":      stats,
	})
}

// HandleAdminArchiveSweep manually triggers the webhook log archive sweep
func HandleAdminArchiveSweep(c *fiber.Ctx) error {
	if err := jobqueue.GetManager().RunArchiveSweepOnce(); err != nil {
		log.Errorf("[Admin] archive sweep failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "sweep queued"})
}
