package http

import (
	"errors"

	userdomain "github.com/agrimandi/procurement-engine/internal/user/domain"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const actorLocal = "actor"

// RequireActor resolves the X-User-ID header against the user store and
// rejects requests from unknown actors. The resolved user lands in
// c.Locals for the handlers.
func (h *Handlers) RequireActor(c *fiber.Ctx) error {
	raw := c.Get("X-User-ID")
	if raw == "" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "missing X-User-ID header"})
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "invalid X-User-ID header"})
	}
	user, err := h.users.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, userdomain.ErrUserNotFound) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "unknown actor"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
	c.Locals(actorLocal, user)
	return c.Next()
}

// actor returns the resolved user, or uuid.Nil when the route did not go
// through RequireActor.
func actor(c *fiber.Ctx) uuid.UUID {
	if u, ok := c.Locals(actorLocal).(*userdomain.User); ok {
		return u.ID
	}
	return uuid.Nil
}
