package controllers

import (
	"github.com/clinicsim/clinicsim-server/pkg/models"
	"github.com/gofiber/fiber/v2"
)

// SessionHistoryController holds the dependencies for past session lookups.
type SessionHistoryController struct {
	SessionModel *models.SessionModel
}

// NewSessionHistoryController creates a new SessionHistoryController.
func NewSessionHistoryController(sm *models.SessionModel) *SessionHistoryController {
	return &SessionHistoryController{
		SessionModel: sm,
	}
}

// HandleFetchPastSessions fetches a paginated list of finished sessions.
func (shc *SessionHistoryController) HandleFetchPastSessions(c *fiber.Ctx) error {
	req := new(models.FetchPastSessionsReq)
	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	result, err := shc.SessionModel.FetchPastSessions(req)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(result)
}
