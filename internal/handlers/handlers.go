package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/foxxcyber/pex/internal/inventory"
	"github.com/foxxcyber/pex/internal/services"
)

// Handler holds all handler dependencies
type Handler struct {
	store   *inventory.Store
	advisor *services.AdvisorService
	storage *services.StorageService
	log     zerolog.Logger
}

// New creates a new Handler instance. storage may be nil when S3 is not configured.
func New(store *inventory.Store, advisor *services.AdvisorService, storage *services.StorageService, logger zerolog.Logger) *Handler {
	return &Handler{
		store:   store,
		advisor: advisor,
		storage: storage,
		log:     logger,
	}
}

// ErrorHandler is a custom error handler for Fiber
func ErrorHandler(c *fiber.Ctx, err error) error {
	// Default to 500
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	return Error(c, code, message)
}

// APIResponse is a standard API response structure
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// Meta describes a filtered listing
type Meta struct {
	Total         int `json:"total"`
	Filtered      int `json:"filtered"`
	ActiveFilters int `json:"active_filters"`
}

// Success returns a successful response
func Success(c *fiber.Ctx, data interface{}) error {
	return c.JSON(APIResponse{
		Success: true,
		Data:    data,
	})
}

// Created returns a 201 response
func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(APIResponse{
		Success: true,
		Data:    data,
	})
}

// SuccessWithMeta returns a successful response with listing metadata
func SuccessWithMeta(c *fiber.Ctx, data interface{}, meta *Meta) error {
	return c.JSON(APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

// Error returns an error response
func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(APIResponse{
		Success: false,
		Error:   message,
	})
}

// storeError maps inventory errors to HTTP responses
func (h *Handler) storeError(c *fiber.Ctx, err error, action string) error {
	switch {
	case errors.Is(err, inventory.ErrValidation):
		return Error(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, inventory.ErrNotFound):
		return Error(c, fiber.StatusNotFound, "product not found")
	default:
		h.log.Error().Err(err).Str("action", action).Msg("inventory operation failed")
		return Error(c, fiber.StatusInternalServerError, "failed to "+action)
	}
}
