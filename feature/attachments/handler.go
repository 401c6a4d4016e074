package attachments

import (
	"field-ops/core/logger"
	"field-ops/core/middleware/auth"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for attachments.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the attachment routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/attachments")
	group.Get("/:jobId", h.HandleListAttachments)
	group.Get("/:jobId/:name", h.HandleDownloadAttachment)
	group.Post("/:jobId/:name", h.HandleUploadAttachment)
	group.Delete("/:jobId/:name", h.HandleRemoveAttachment)
}

// HandleListAttachments lists the attachments stored for a job.
// @Summary List Attachments
// @Tags attachments
// @Produce json
// @Param jobId path string true "Job ID"
// @Success 200 {array} string "Attachment names"
// @Router /attachments/{jobId} [get]
func (h *Handler) HandleListAttachments(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	_, orgID, ok := auth.Caller(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing caller identity"})
	}

	names, err := h.service.List(c.Context(), orgID, c.Params("jobId"))
	if err != nil {
		l.Error("Attachment list failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(names)
}

// HandleDownloadAttachment streams one attachment back to the caller.
// @Summary Download Attachment
// @Tags attachments
// @Produce octet-stream
// @Param jobId path string true "Job ID"
// @Param name path string true "Attachment name"
// @Success 200 {file} binary "Attachment content"
// @Router /attachments/{jobId}/{name} [get]
func (h *Handler) HandleDownloadAttachment(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	_, orgID, ok := auth.Caller(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing caller identity"})
	}

	reader, err := h.service.Download(c.Context(), orgID, c.Params("jobId"), c.Params("name"))
	if err != nil {
		l.Error("Attachment download failed", zap.Error(err))
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "attachment not found"})
	}
	return c.SendStream(reader)
}

// HandleUploadAttachment stores the request body as an attachment.
// @Summary Upload Attachment
// @Tags attachments
// @Accept octet-stream
// @Param jobId path string true "Job ID"
// @Param name path string true "Attachment name"
// @Success 201 {object} map[string]string "Stored"
// @Router /attachments/{jobId}/{name} [post]
func (h *Handler) HandleUploadAttachment(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	_, orgID, ok := auth.Caller(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing caller identity"})
	}

	body := c.Body()
	if len(body) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "empty attachment body"})
	}

	err := h.service.Upload(c.Context(), orgID, c.Params("jobId"), c.Params("name"), body, c.Get(fiber.HeaderContentType))
	if err != nil {
		l.Error("Attachment upload failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "stored"})
}

// HandleRemoveAttachment deletes one attachment.
// @Summary Remove Attachment
// @Tags attachments
// @Param jobId path string true "Job ID"
// @Param name path string true "Attachment name"
// @Success 200 {object} map[string]string "Removed"
// @Router /attachments/{jobId}/{name} [delete]
func (h *Handler) HandleRemoveAttachment(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	_, orgID, ok := auth.Caller(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing caller identity"})
	}

	if err := h.service.Remove(c.Context(), orgID, c.Params("jobId"), c.Params("name")); err != nil {
		l.Error("Attachment removal failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"status": "removed"})
}
