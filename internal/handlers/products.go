package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/foxxcyber/pex/internal/expiry"
	"github.com/foxxcyber/pex/internal/inventory"
	"github.com/foxxcyber/pex/internal/models"
)

// filterFromQuery reads search, start_date, end_date and status
func filterFromQuery(c *fiber.Ctx) (models.FilterSpec, error) {
	spec := models.FilterSpec{Search: c.Query("search")}

	for _, f := range []struct {
		param string
		dst   *string
	}{
		{"start_date", &spec.StartDate},
		{"end_date", &spec.EndDate},
	} {
		raw := c.Query(f.param)
		if raw == "" {
			continue
		}
		date, err := expiry.Normalize(raw)
		if err != nil {
			return models.FilterSpec{}, fmt.Errorf("%s must be a YYYY-MM-DD date", f.param)
		}
		*f.dst = date
	}

	status, ok := models.ParseStatus(c.Query("status"))
	if !ok {
		return models.FilterSpec{}, fmt.Errorf("unknown status %q", c.Query("status"))
	}
	spec.Status = status

	return spec, nil
}

// ListProducts returns the filtered view, most urgent first
// GET /api/products
func (h *Handler) ListProducts(c *fiber.Ctx) error {
	spec, err := filterFromQuery(c)
	if err != nil {
		return Error(c, fiber.StatusBadRequest, err.Error())
	}

	products := h.store.Query(spec)
	return SuccessWithMeta(c, products, &Meta{
		Total:         h.store.Len(),
		Filtered:      len(products),
		ActiveFilters: spec.ActiveCount(),
	})
}

// GetStats returns counts per status over the whole inventory
// GET /api/products/stats
func (h *Handler) GetStats(c *fiber.Ctx) error {
	return Success(c, h.store.Stats())
}

// GetProduct returns a single product
// GET /api/products/:id
func (h *Handler) GetProduct(c *fiber.Ctx) error {
	p, err := h.store.Get(c.Params("id"))
	if err != nil {
		return h.storeError(c, err, "get product")
	}
	return Success(c, p)
}

// CreateProduct adds a product
// POST /api/products
func (h *Handler) CreateProduct(c *fiber.Ctx) error {
	var draft models.ProductDraft
	if err := c.BodyParser(&draft); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	p, err := h.store.Add(c.Context(), draft)
	if err != nil {
		return h.storeError(c, err, "create product")
	}
	return Created(c, p)
}

// UpdateProduct applies the fields present in the body
// PUT /api/products/:id
func (h *Handler) UpdateProduct(c *fiber.Ctx) error {
	var draft models.ProductDraft
	if err := c.BodyParser(&draft); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	p, err := h.store.Update(c.Context(), c.Params("id"), draft)
	if err != nil {
		return h.storeError(c, err, "update product")
	}
	return Success(c, p)
}

// DeleteProduct removes a product. Unknown ids succeed with removed=false.
// DELETE /api/products/:id
func (h *Handler) DeleteProduct(c *fiber.Ctx) error {
	removed, err := h.store.Remove(c.Context(), c.Params("id"))
	if err != nil {
		return h.storeError(c, err, "delete product")
	}
	return Success(c, fiber.Map{"removed": removed})
}

// SellProduct takes a product out of expiry control.
// Like delete, an unknown id succeeds with sold=false.
// POST /api/products/:id/sell
func (h *Handler) SellProduct(c *fiber.Ctx) error {
	sold, err := h.store.Sell(c.Context(), c.Params("id"))
	if err != nil {
		return h.storeError(c, err, "sell product")
	}
	return Success(c, fiber.Map{"sold": sold})
}

// DeleteFiltered removes every product of the filtered view in one write.
// Without any filter the whole inventory would go, so all=true is required.
// DELETE /api/products
func (h *Handler) DeleteFiltered(c *fiber.Ctx) error {
	spec, err := filterFromQuery(c)
	if err != nil {
		return Error(c, fiber.StatusBadRequest, err.Error())
	}
	if spec.IsZero() && !c.QueryBool("all") {
		return Error(c, fiber.StatusBadRequest, "no filter given; pass all=true to delete every product")
	}

	ids := inventory.IDs(h.store.Query(spec))
	removed, err := h.store.RemoveMany(c.Context(), ids)
	if err != nil {
		return h.storeError(c, err, "delete products")
	}
	return Success(c, fiber.Map{"removed": removed})
}
