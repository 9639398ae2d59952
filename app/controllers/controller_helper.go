package controllers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	cctx "github.com/astrafabric/astrafabric/internal/pkg/customercontext"
	"github.com/astrafabric/astrafabric/internal/pkg/utils"
)

const defaultPageSize = 25

// GetClientIP determines the actual client IP address considering proxies.
// Cloudflare and X-Forwarded-For headers win over the socket address.
func GetClientIP(c *fiber.Ctx) string {
	if cfIP := c.Get("CF-Connecting-IP"); cfIP != "" {
		return cfIP
	}

	if xff := c.Get("X-Forwarded-For"); xff != "" {
		// first entry is the original client
		parts := strings.Split(xff, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}

	ip := c.IP()
	// unwrap IPv4-mapped-IPv6 addresses (::ffff:192.168.1.1)
	if strings.HasPrefix(ip, "::ffff:") && strings.Contains(ip, ".") {
		return strings.TrimPrefix(ip, "::ffff:")
	}
	return ip
}

// parsePagination reads ?page= and returns the page number and DB offset.
func parsePagination(c *fiber.Ctx) (page int, offset int) {
	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	return page, (page - 1) * defaultPageSize
}

// baseViewData assembles the fiber.Map every rendered page starts from.
func baseViewData(c *fiber.Ctx, title string) fiber.Map {
	ctx := cctx.GetCustomerContext(c)
	csrfToken, _ := c.Locals("csrf").(string)
	data := fiber.Map{
		"Title":      title,
		"CSRFToken":  csrfToken,
		"IsLoggedIn": ctx.IsLoggedIn,
		"IsAdmin":    ctx.IsAdmin,
		"Email":      ctx.Email,
		"Plan":       ctx.Plan,
		"Flash":      flash.Get(c),
	}
	if ctx.IsLoggedIn && ctx.Email != "" {
		data["AvatarURL"] = utils.GetGravatarURL(ctx.Email, 80)
	}
	return data
}
