package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"
)

// HandleFlashRateLimit sets a flash error and redirects to home
func HandleFlashRateLimit(c *fiber.Ctx) error {
	fm := fiber.Map{
		"type":    "error",
		"message": "Too many requests. Please wait a moment and try again.",
	}
	flash.WithError(c, fm)
	return c.Redirect("/", fiber.StatusSeeOther)
}

// HandleFlashPaymentError shows a generic checkout error from query string
// Query: ?msg=...
func HandleFlashPaymentError(c *fiber.Ctx) error {
	msg := c.Query("msg", "Checkout failed. Please try again.")
	if len(msg) > 300 {
		msg = msg[:300]
	}
	fm := fiber.Map{
		"type":    "error",
		"message": msg,
	}
	flash.WithError(c, fm)
	return c.Redirect("/subscribe", fiber.StatusSeeOther)
}
