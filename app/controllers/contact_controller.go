package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sujit-baniya/flash"

	"github.com/astrafabric/astrafabric/app/models"
	"github.com/astrafabric/astrafabric/app/repository"
	"github.com/astrafabric/astrafabric/internal/pkg/env"
	"github.com/astrafabric/astrafabric/internal/pkg/hcaptcha"
	"github.com/astrafabric/astrafabric/internal/pkg/notification"
)

// HandleContactPage renders the contact form
func HandleContactPage(c *fiber.Ctx) error {
	data := baseViewData(c, "Contact | AstraFabric")
	data["HCaptchaSiteKey"] = env.GetEnv("HCAPTCHA_SITE_KEY", "")
	return c.Render("pages/contact", data, "layouts/main")
}

// HandleContactSubmit validates and stores a contact form submission
func HandleContactSubmit(c *fiber.Ctx) error {
	// captcha first, before any parsing work
	if env.GetEnv("HCAPTCHA_SECRET", "") != "" {
		ok, err := hcaptcha.Verify(c.FormValue("h-captcha-response"))
		if err != nil || !ok {
			log.Warnf("[Contact] captcha rejected: %v", err)
			fm := fiber.Map{"type": "error", "message": "Captcha verification failed. Please try again."}
			return flash.WithError(c, fm).Redirect("/contact")
		}
	}

	inquiry := &models.ContactInquiry{
		Name:      c.FormValue("name"),
		Email:     c.FormValue("email"),
		Company:   c.FormValue("company"),
		Phone:     c.FormValue("phone"),
		Subject:   c.FormValue("subject"),
		Message:   c.FormValue("message"),
		IPAddress: GetClientIP(c),
		UserAgent: c.Get("User-Agent"),
	}

	if err := inquiry.Validate(); err != nil {
		fm := fiber.Map{"type": "error", "message": "Please fill in all required fields."}
		return flash.WithError(c, fm).Redirect("/contact")
	}

	repo := repository.GetGlobalRepositories().ContactInquiry
	if err := repo.Create(inquiry); err != nil {
		log.Errorf("[Contact] failed to store inquiry from %s: %v", inquiry.Email, err)
		fm := fiber.Map{"type": "error", "message": "Something went wrong. Please try again later."}
		return flash.WithError(c, fm).Redirect("/contact")
	}

	if err := notification.NewNotifier().ContactInquiryReceived(inquiry); err != nil {
		log.Warnf("[Contact] notification for inquiry %s failed: %v", inquiry.UUID, err)
	}

	fm := fiber.Map{"type": "success", "message": "Thank you. We will get back to you within one business day."}
	return flash.WithSuccess(c, fm).Redirect("/contact")
}
