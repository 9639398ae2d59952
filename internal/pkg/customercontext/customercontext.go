package customercontext

import "github.com/gofiber/fiber/v2"

// CustomerContext represents the complete visitor context for a request
type CustomerContext struct {
	CustomerID uint   `json:"customer_id"`
	Email      string `json:"email"`
	IsLoggedIn bool   `json:"is_logged_in"`
	IsAdmin    bool   `json:"is_admin"`
	Plan       string `json:"plan"`
}

// GetCustomerContext retrieves the customer context from fiber context
// Returns a default anonymous context if none is set
func GetCustomerContext(c *fiber.Ctx) CustomerContext {
	if ctx := c.Locals("CUSTOMER_CONTEXT"); ctx != nil {
		return ctx.(CustomerContext)
	}
	return CustomerContext{IsLoggedIn: false, IsAdmin: false}
}

// IsLoggedIn checks if the current visitor has a customer session
func IsLoggedIn(c *fiber.Ctx) bool {
	return GetCustomerContext(c).IsLoggedIn
}

// IsAdmin checks if the current visitor has an admin session
func IsAdmin(c *fiber.Ctx) bool {
	return GetCustomerContext(c).IsAdmin
}

// GetCustomerID returns the current customer's ID, or 0 if not logged in
func GetCustomerID(c *fiber.Ctx) uint {
	return GetCustomerContext(c).CustomerID
}

// GetEmail returns the current customer's email, or empty string if not logged in
func GetEmail(c *fiber.Ctx) string {
	return GetCustomerContext(c).Email
}
