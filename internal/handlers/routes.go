package handlers

import "github.com/gofiber/fiber/v2"

// RegisterRoutes mounts the API on app
func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Products
	products := api.Group("/products")
	products.Get("/", h.ListProducts)
	products.Get("/stats", h.GetStats)
	products.Post("/", h.CreateProduct)
	products.Delete("/", h.DeleteFiltered)
	products.Get("/:id", h.GetProduct)
	products.Put("/:id", h.UpdateProduct)
	products.Delete("/:id", h.DeleteProduct)
	products.Post("/:id/sell", h.SellProduct)
	products.Get("/:id/advice", h.GetProductAdvice)

	// Reports
	reports := api.Group("/reports")
	reports.Get("/pdf", h.ExportPDF)
	reports.Get("/xlsx", h.ExportXLSX)
	reports.Get("/csv", h.ExportCSV)
	reports.Post("/pdf/archive", h.ArchivePDF)

	// Import
	api.Post("/import/csv", h.ImportCSV)
}
