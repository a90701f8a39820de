package handlers

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/foxxcyber/pex/internal/report"
)

const (
	mimePDF  = "application/pdf"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimeCSV  = "text/csv; charset=utf-8"

	archiveLinkTTL = 24 * time.Hour
)

func (h *Handler) sendReport(c *fiber.Ctx, ext, contentType string, render func(*bytes.Buffer, time.Time) error) error {
	now := h.store.Now()

	var buf bytes.Buffer
	if err := render(&buf, now); err != nil {
		h.log.Error().Err(err).Str("format", ext).Msg("report rendering failed")
		return Error(c, fiber.StatusInternalServerError, "failed to render report")
	}

	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, report.Filename(ext, now)))
	return c.Send(buf.Bytes())
}

// ExportPDF renders the filtered view as the expiry report
// GET /api/reports/pdf
func (h *Handler) ExportPDF(c *fiber.Ctx) error {
	spec, err := filterFromQuery(c)
	if err != nil {
		return Error(c, fiber.StatusBadRequest, err.Error())
	}
	products := h.store.Query(spec)

	return h.sendReport(c, "pdf", mimePDF, func(buf *bytes.Buffer, now time.Time) error {
		return report.WritePDF(buf, products, now)
	})
}

// ExportXLSX renders the filtered view as a spreadsheet
// GET /api/reports/xlsx
func (h *Handler) ExportXLSX(c *fiber.Ctx) error {
	spec, err := filterFromQuery(c)
	if err != nil {
		return Error(c, fiber.StatusBadRequest, err.Error())
	}
	products := h.store.Query(spec)

	return h.sendReport(c, "xlsx", mimeXLSX, func(buf *bytes.Buffer, now time.Time) error {
		return report.WriteXLSX(buf, products, now)
	})
}

// ExportCSV renders the filtered view in the import layout
// GET /api/reports/csv
func (h *Handler) ExportCSV(c *fiber.Ctx) error {
	spec, err := filterFromQuery(c)
	if err != nil {
		return Error(c, fiber.StatusBadRequest, err.Error())
	}
	products := h.store.Query(spec)

	return h.sendReport(c, "csv", mimeCSV, func(buf *bytes.Buffer, _ time.Time) error {
		return report.WriteCSV(buf, products)
	})
}

// ArchivePDF renders the report, stores it in S3 and returns a download link
// POST /api/reports/pdf/archive
func (h *Handler) ArchivePDF(c *fiber.Ctx) error {
	if h.storage == nil {
		return Error(c, fiber.StatusServiceUnavailable, "report storage is not configured")
	}

	spec, err := filterFromQuery(c)
	if err != nil {
		return Error(c, fiber.StatusBadRequest, err.Error())
	}

	now := h.store.Now()
	var buf bytes.Buffer
	if err := report.WritePDF(&buf, h.store.Query(spec), now); err != nil {
		h.log.Error().Err(err).Msg("report rendering failed")
		return Error(c, fiber.StatusInternalServerError, "failed to render report")
	}

	archived, err := h.storage.ArchiveReport(c.Context(), report.Filename("pdf", now), mimePDF, buf.Bytes(), now, archiveLinkTTL)
	if err != nil {
		h.log.Error().Err(err).Msg("report upload failed")
		return Error(c, fiber.StatusBadGateway, "failed to archive report")
	}

	return Created(c, archived)
}
