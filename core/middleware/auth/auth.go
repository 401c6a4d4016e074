// Package auth gates the API behind the gateway key and extracts the caller
// identity established by the upstream identity provider.
package auth

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

// Header names set by the upstream gateway. Authentication itself happens
// there; this service only trusts and records the result.
const (
	HeaderApiKey  = "X-Api-Key"
	HeaderActorID = "X-Actor-Id"
	HeaderOrgID   = "X-Organization-Id"
)

// Config holds the settings for the auth middleware.
type Config struct {
	// ApiKey is the shared secret the gateway must present. An empty key
	// disables the check (local development only).
	ApiKey string
}

// New returns a middleware that rejects requests without a valid API key and
// stores the caller identity headers in the request locals.
func New(cfg Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.ApiKey != "" {
			provided := c.Get(HeaderApiKey)
			if subtle.ConstantTimeCompare([]byte(provided), []byte(cfg.ApiKey)) != 1 {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "invalid api key",
				})
			}
		}

		c.Locals("actor_id", c.Get(HeaderActorID))
		c.Locals("organization_id", c.Get(HeaderOrgID))
		return c.Next()
	}
}

// Caller returns the authenticated actor and organization for the request.
// ok is false when either is missing, meaning the gateway did not attach an
// identity and the request must be refused.
func Caller(c *fiber.Ctx) (actorID, orgID string, ok bool) {
	actorID, _ = c.Locals("actor_id").(string)
	orgID, _ = c.Locals("organization_id").(string)
	return actorID, orgID, actorID != "" && orgID != ""
}
