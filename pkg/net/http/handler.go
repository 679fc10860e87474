package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// Ping returns HTTP Status 200 with response "pong".
func Ping(c *fiber.Ctx) error {
	return c.SendString("pong")
}

// Version returns HTTP Status 200 with the given version.
func Version(version string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return JSONResponse(c, fiber.StatusOK, fiber.Map{
			"version":     version,
			"requestDate": time.Now().UTC(),
		})
	}
}

// Welcome returns HTTP Status 200 with service info.
func Welcome(service string, description string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service":     service,
			"description": description,
		})
	}
}
