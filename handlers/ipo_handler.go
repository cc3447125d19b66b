package handlers

import (
	"errors"
	"strconv"

	"github.com/fenilmodi00/ipo-tracker/models"
	"github.com/fenilmodi00/ipo-tracker/services"
	"github.com/fenilmodi00/ipo-tracker/shared"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type IPOHandler struct {
	Query   *services.QueryService
	Lister  services.IPOLister
	Updater *services.UpdateService
}

// NewIPOHandler serves listings through lister (the cached or the plain query service)
func NewIPOHandler(query *services.QueryService, lister services.IPOLister, updater *services.UpdateService) *IPOHandler {
	if lister == nil {
		lister = query
	}
	return &IPOHandler{Query: query, Lister: lister, Updater: updater}
}

// GetIPOs returns one page of the requested tab
func (h *IPOHandler) GetIPOs(c *fiber.Ctx) error {
	params, err := h.Query.ParseParams(c.Query("tab"), c.Query("page"), c.Query("limit"), c.Query("search"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": errorMessage(err),
		})
	}

	page, err := h.Lister.ListIPOs(c.UserContext(), params)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": errorMessage(err),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": services.MsgFetchFailed,
		})
	}
	return c.JSON(page)
}

// UpdateIPO applies a partial update of Recommendation and apply_for_listing_gain
func (h *IPOHandler) UpdateIPO(c *fiber.Ctx) error {
	id := c.Params("id")

	var update models.IPOUpdate
	if err := c.App().Config().JSONDecoder(c.Body(), &update); err != nil {
		logrus.WithFields(logrus.Fields{
			"component": "ipo_handler",
			"ipo_id":    id,
			"error":     err,
		}).Debug("Rejected update body")
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	update.Source = services.SourceAPI

	result, err := h.Updater.UpdateIPO(c.UserContext(), id, update)
	if err != nil {
		return updateErrorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"modifiedCount": result.ModifiedCount,
	})
}

// GetIPOHistory returns the audit trail of one record, newest first
func (h *IPOHandler) GetIPOHistory(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit"))

	logs, err := h.Query.ListUpdateLogs(c.UserContext(), c.Params("id"), limit)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": errorMessage(err),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": services.MsgFetchFailed,
		})
	}
	return c.JSON(fiber.Map{
		"data": logs,
	})
}

func updateErrorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, shared.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": errorMessage(err),
		})
	case errors.Is(err, shared.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": services.MsgIPONotFound,
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   services.MsgUpdateFailed,
			"message": errorMessage(err),
		})
	}
}

// errorMessage returns the client-facing message of a service error
func errorMessage(err error) string {
	var serviceErr *shared.ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr.Message
	}
	return err.Error()
}
