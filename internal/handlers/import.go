package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/foxxcyber/pex/internal/report"
	"github.com/foxxcyber/pex/internal/services"
)

// ImportCSV adds the rows of an uploaded CSV file
// POST /api/import/csv (multipart field "file", optional dry_run=true)
func (h *Handler) ImportCSV(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "file is required")
	}

	f, err := fh.Open()
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "failed to read upload")
	}
	defer f.Close()

	summary, err := services.ImportCSV(c.Context(), h.store, f, c.QueryBool("dry_run"))
	if err != nil {
		switch {
		case errors.Is(err, report.ErrEmptyImport):
			return Error(c, fiber.StatusBadRequest, "no rows found in file")
		case errors.Is(err, report.ErrMalformedImport):
			return Error(c, fiber.StatusBadRequest, "failed to parse csv")
		}
		return h.storeError(c, err, "import csv")
	}

	h.log.Info().Int("imported", summary.Imported).Int("failed", len(summary.Failures)).Bool("dry_run", summary.DryRun).Msg("csv imported")
	return Success(c, summary)
}
