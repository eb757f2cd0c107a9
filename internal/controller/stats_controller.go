package controller

import (
	"github.com/gofiber/fiber/v2"

	"propertyhub_backend/internal/service"
)

type StatsController struct {
	stats *service.StatsService
}

func NewStatsController(stats *service.StatsService) *StatsController {
	return &StatsController{stats: stats}
}

// GetDashboardStats admin dashboard istatistiklerini getirir
func (s *StatsController) GetDashboardStats(c *fiber.Ctx) error {
	stats, err := s.stats.GetStats(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}
