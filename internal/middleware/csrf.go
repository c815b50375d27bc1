package middleware

import (
	"time"

	"network/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/utils"
)

const (
	CSRFCookieName = "csrftoken"
	CSRFHeaderName = "X-CSRFToken"
)

// CSRF protects unsafe methods with a double-submit token: the csrftoken
// cookie must be echoed in the X-CSRFToken header. Safe requests receive the
// cookie. Issued tokens live in store, or in process memory when store is
// nil. When disabled the handler is a pass-through.
func CSRF(enabled, secure bool, store fiber.Storage) fiber.Handler {
	if !enabled {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	return csrf.New(csrf.Config{
		KeyLookup:      "header:" + CSRFHeaderName,
		CookieName:     CSRFCookieName,
		CookieSameSite: "Lax",
		CookieSecure:   secure,
		// Clients read the cookie to echo it.
		CookieHTTPOnly: false,
		Expiration:     12 * time.Hour,
		KeyGenerator:   utils.UUIDv4,
		ContextKey:     "csrf",
		Storage:        store,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("CSRF token missing or incorrect."))
		},
	})
}
