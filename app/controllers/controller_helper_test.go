package controllers

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetClientIPHeaderPrecedence(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{
			name:    "cloudflare header wins",
			headers: map[string]string{"CF-Connecting-IP": "203.0.113.7", "X-Forwarded-For": "198.51.100.1"},
			want:    "203.0.113.7",
		},
		{
			name:    "first forwarded entry",
			headers: map[string]string{"X-Forwarded-For": "198.51.100.1, 10.0.0.2"},
			want:    "198.51.100.1",
		},
		{
			name:    "socket address fallback",
			headers: nil,
			want:    "0.0.0.0",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/ip", func(c *fiber.Ctx) error {
				return c.SendString(GetClientIP(c))
			})

			req := httptest.NewRequest("GET", "/ip", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			body := make([]byte, 64)
			n, _ := resp.Body.Read(body)
			assert.Equal(t, tc.want, string(body[:n]))
		})
	}
}

func TestParsePagination(t *testing.T) {
	app := fiber.New()
	app.Get("/list", func(c *fiber.Ctx) error {
		page, offset := parsePagination(c)
		return c.JSON(fiber.Map{"page": page, "offset": offset})
	})

	tests := []struct {
		url        string
		wantPage   int
		wantOffset int
	}{
		{"/list", 1, 0},
		{"/list?page=3", 3, 2 * defaultPageSize},
		{"/list?page=0", 1, 0},
		{"/list?page=-5", 1, 0},
		{"/list?page=abc", 1, 0},
	}

	for _, tc := range tests {
		resp, err := app.Test(httptest.NewRequest("GET", tc.url, nil), -1)
		require.NoError(t, err)
		var got struct {
			Page   int `json:"page"`
			Offset int `json:"offset"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Equal(t, tc.wantPage, got.Page, "url %s", tc.url)
		assert.Equal(t, tc.wantOffset, got.Offset, "url %s", tc.url)
	}
}
