package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/trouble-tickets/internal/service"
)

// StatsHandler serves dashboard aggregations.
type StatsHandler struct {
	service *service.StatsService
}

// NewStatsHandler constructs handler.
func NewStatsHandler(statsService *service.StatsService) *StatsHandler {
	return &StatsHandler{service: statsService}
}

// Dashboard GET /stats/dashboard.
func (h *StatsHandler) Dashboard(c *fiber.Ctx) error {
	stats, err := h.service.Dashboard(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}
