package session

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage/redis"

	"github.com/astrafabric/astrafabric/internal/pkg/cache"
	"github.com/astrafabric/astrafabric/internal/pkg/env"
)

// Sessions live in Redis DB 1, alongside the cache in DB 0, so a cache
// flush never logs everyone out.
const sessionRedisDB = 1

var sessionStore *session.Store

// NewSessionStore wires the Fiber session middleware to the same Redis
// instance the cache layer already connects to.
func NewSessionStore() *session.Store {
	host, port, password := redisAddress()

	storage := redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: sessionRedisDB,
		Reset:    false,
	})

	sessionStore = session.New(session.Config{
		Storage:        storage,
		CookieHTTPOnly: true,
		CookieSecure:   !env.IsDev(),
		Expiration:     24 * time.Hour,
		KeyLookup:      "cookie:af_session",
	})

	return sessionStore
}

// redisAddress resolves host, port and password from the shared cache
// client, falling back to env defaults when the cache is not connected.
func redisAddress() (string, int, string) {
	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")

	if client := cache.GetClient(); client != nil {
		if h, p, err := net.SplitHostPort(client.Options().Addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		if p := client.Options().Password; p != "" {
			password = p
		}
	}
	return host, port, password
}

func GetSessionStore() *session.Store {
	return sessionStore
}

// SetSessionValue stores a string in the caller's session and saves it.
func SetSessionValue(c *fiber.Ctx, key, value string) error {
	if sessionStore == nil {
		return fmt.Errorf("session store not initialized")
	}
	sess, err := sessionStore.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %v", err)
	}
	sess.Set(key, value)
	return sess.Save()
}

// GetSessionValue returns the string stored under key, or "" when the
// session is missing or the value is not a string.
func GetSessionValue(c *fiber.Ctx, key string) string {
	if sessionStore == nil {
		return ""
	}
	sess, err := sessionStore.Get(c)
	if err != nil {
		return ""
	}
	if s, ok := sess.Get(key).(string); ok {
		return s
	}
	return ""
}
