package controllers

import "github.com/gofiber/fiber/v2"

// HealthCheckController answers liveness probes.
type HealthCheckController struct{}

// NewHealthCheckController creates a new HealthCheckController.
func NewHealthCheckController() *HealthCheckController {
	return &HealthCheckController{}
}

func (hc *HealthCheckController) HandleHealthCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).SendString("Healthy")
}
