package jobs

import (
	"errors"

	"field-ops/core/logger"
	"field-ops/core/middleware/auth"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for jobs.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the jobs routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/jobs")
	group.Get("/", h.HandleListJobs)
	group.Get("/:id", h.HandleGetJob)
}

// HandleListJobs returns all jobs for the caller's organization.
// @Summary List Jobs
// @Description List all work orders visible to the caller's organization.
// @Tags jobs
// @Produce json
// @Success 200 {array} models.Job "Jobs"
// @Failure 401 {object} map[string]string "Missing caller identity"
// @Router /jobs [get]
func (h *Handler) HandleListJobs(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	_, orgID, ok := auth.Caller(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "missing caller identity",
		})
	}

	jobs, err := h.service.List(c.Context(), orgID)
	if err != nil {
		l.Error("Job list failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(jobs)
}

// HandleGetJob returns a single job.
// @Summary Get Job
// @Description Get one work order by id.
// @Tags jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} models.Job "Job"
// @Failure 404 {object} map[string]string "Not found"
// @Router /jobs/{id} [get]
func (h *Handler) HandleGetJob(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	_, orgID, ok := auth.Caller(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "missing caller identity",
		})
	}

	job, err := h.service.Get(c.Context(), orgID, c.Params("id"))
	if errors.Is(err, ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "job not found",
		})
	}
	if err != nil {
		l.Error("Job fetch failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(job)
}
