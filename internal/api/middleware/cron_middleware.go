package middleware

import (
	"crypto/subtle"
	"log"

	"github.com/gofiber/fiber/v2"
)

const CronSecretHeader = "X-Cron-Secret"

// CronSecret rejects trigger requests whose header does not match secret.
// An empty secret rejects everything. It runs before any handler touches
// the store.
func CronSecret(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		provided := c.Get(CronSecretHeader)
		if secret == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
			log.Printf("Rejected cron trigger %s from %s", c.Path(), c.IP())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}
		return c.Next()
	}
}
