package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/foxxcyber/pex/internal/services"
)

// GetProductAdvice returns handling guidance for a product's current status.
// Generation failures still answer 200 with the fallback text.
// GET /api/products/:id/advice
func (h *Handler) GetProductAdvice(c *fiber.Ctx) error {
	p, err := h.store.Get(c.Params("id"))
	if err != nil {
		return h.storeError(c, err, "get product")
	}

	advice := services.FallbackAdvice
	if h.advisor != nil {
		advice = h.advisor.Advice(c.Context(), p.Name, p.Status.Label())
	}

	return Success(c, fiber.Map{
		"product_id": p.ID,
		"status":     p.Status,
		"advice":     advice,
	})
}
