package oauth

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/middleware/session"
	redisstorage "github.com/gofiber/storage/redis"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
	gothfiber "github.com/shareed2k/goth_fiber"

	"github.com/astrafabric/astrafabric/internal/pkg/cache"
	"github.com/astrafabric/astrafabric/internal/pkg/env"
)

// OAuth state lives in Redis DB 2 so it never collides with the cache
// (DB 0) or customer sessions (DB 1).
const oauthRedisDB = 2

// Setup registers the Google provider and points goth_fiber's state store
// at Redis. Calling it again just re-registers the provider.
func Setup() {
	goth.UseProviders(
		google.New(
			env.GetEnv("GOOGLE_KEY", ""),
			env.GetEnv("GOOGLE_SECRET", ""),
			callbackBase()+"/auth/google/callback",
			"email", "profile",
		),
	)

	host, port := redisHostPort()
	opts := cache.GetClient().Options()

	gothfiber.SessionStore = session.New(session.Config{
		Storage: redisstorage.New(redisstorage.Config{
			Host:     host,
			Port:     port,
			Username: opts.Username,
			Password: opts.Password,
			Database: oauthRedisDB,
			Reset:    false,
		}),
		KeyLookup:      "cookie:" + gothic.SessionName,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
		CookieSecure:   !env.IsDev(),
		Expiration:     72 * time.Hour,
	})
}

func callbackBase() string {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	if base == "" {
		base = "http://localhost:" + env.GetEnv("APP_PORT", "8080")
	}
	return base
}

func redisHostPort() (string, int) {
	host, port := "127.0.0.1", 6379
	opts := cache.GetClient().Options()
	if opts == nil || opts.Addr == "" {
		return host, port
	}
	if h, p, err := net.SplitHostPort(opts.Addr); err == nil {
		host = h
		if parsed, err := strconv.Atoi(p); err == nil {
			port = parsed
		}
	} else {
		host = opts.Addr
	}
	return host, port
}
