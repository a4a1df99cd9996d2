package middleware

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/matryer/is"
	"github.com/xtayzy/uniCrew/config"
	"github.com/xtayzy/uniCrew/models"
)

func TestCORS(t *testing.T) {
	is := is.New(t)
	app := fiber.New()
	app.Use(CORS(CORSFromOrigins([]string{"https://unicrew.kz"})))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	req := httptest.NewRequest("OPTIONS", "/", nil)
	req.Header.Set("Origin", "https://unicrew.kz")
	resp, err := app.Test(req)
	is.NoErr(err)
	is.Equal(resp.StatusCode, fiber.StatusNoContent)
	is.Equal(resp.Header.Get("Access-Control-Allow-Origin"), "https://unicrew.kz")
	is.Equal(resp.Header.Get("Access-Control-Max-Age"), "3600")

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	resp, err = app.Test(req)
	is.NoErr(err)
	is.Equal(resp.StatusCode, fiber.StatusOK)
	is.Equal(resp.Header.Get("Access-Control-Allow-Origin"), "")
}

func TestCORSConfigFields(t *testing.T) {
	is := is.New(t)
	app := fiber.New()
	app.Use(CORS(CORSConfig{
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Authorization"},
		ExposedHeaders: []string{"Content-Length"},
		MaxAge:         60,
	}))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	req := httptest.NewRequest("OPTIONS", "/", nil)
	req.Header.Set("Origin", "https://any.kz")
	resp, err := app.Test(req)
	is.NoErr(err)
	is.Equal(resp.Header.Get("Access-Control-Allow-Origin"), "*")
	is.Equal(resp.Header.Get("Access-Control-Allow-Credentials"), "")
	is.Equal(resp.Header.Get("Access-Control-Allow-Methods"), "GET,POST")
	is.Equal(resp.Header.Get("Access-Control-Allow-Headers"), "Authorization")
	is.Equal(resp.Header.Get("Access-Control-Max-Age"), "60")

	// exposed headers matter on the actual response
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "https://any.kz")
	resp, err = app.Test(req)
	is.NoErr(err)
	is.Equal(resp.StatusCode, fiber.StatusOK)
	is.Equal(resp.Header.Get("Access-Control-Expose-Headers"), "Content-Length")
	is.Equal(resp.Header.Get("Access-Control-Max-Age"), "")
}

func TestRateLimitPerUser(t *testing.T) {
	is := is.New(t)
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		id := uint(1)
		if c.Get("X-User") == "2" {
			id = 2
		}
		c.Locals("user", &models.User{ID: id})
		return c.Next()
	})
	app.Post("/join", RateLimit("membership", 2, time.Minute, nil), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})

	hit := func(user string) int {
		req := httptest.NewRequest("POST", "/join", nil)
		req.Header.Set("X-User", user)
		resp, err := app.Test(req)
		is.NoErr(err)
		return resp.StatusCode
	}

	is.Equal(hit("1"), fiber.StatusCreated)
	is.Equal(hit("1"), fiber.StatusCreated)
	is.Equal(hit("1"), fiber.StatusTooManyRequests)
	// another user has their own budget
	is.Equal(hit("2"), fiber.StatusCreated)
}

func TestNewRateLimitStorage(t *testing.T) {
	is := is.New(t)
	is.True(NewRateLimitStorage(config.RedisConfig{Enabled: false}) == nil)

	s := NewRateLimitStorage(config.RedisConfig{Enabled: true, Address: "localhost:6379"})
	_, ok := s.(*RedisStorage)
	is.True(ok)
}

func TestAdminOnly(t *testing.T) {
	is := is.New(t)
	for _, admin := range []bool{false, true} {
		app := fiber.New()
		app.Get("/", func(c *fiber.Ctx) error {
			c.Locals("user", &models.User{ID: 1, IsAdmin: admin})
			return c.Next()
		}, AdminOnly(), func(c *fiber.Ctx) error {
			return c.SendString("ok")
		})

		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		is.NoErr(err)
		if admin {
			is.Equal(resp.StatusCode, fiber.StatusOK)
		} else {
			is.Equal(resp.StatusCode, fiber.StatusForbidden)
		}
	}
}
