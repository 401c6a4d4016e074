package sync

import (
	"field-ops/core/logger"
	"field-ops/core/middleware/auth"
	"field-ops/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for the sync feature.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the sync routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/sync")
	group.Post("/mutations", h.HandlePushMutations)
}

// HandlePushMutations reconciles a batch of offline mutations.
// @Summary Push Offline Mutations
// @Description Merge a batch of locally-queued edits into server state. Every mutation gets its own result; conflicting fields are withheld and reported.
// @Tags sync
// @Accept json
// @Produce json
// @Param batch body object true "Mutation batch ({mutations: [...]})"
// @Success 200 {object} map[string]any "Per-mutation reconciliation results"
// @Failure 400 {object} map[string]string "Malformed batch"
// @Failure 401 {object} map[string]string "Missing caller identity"
// @Router /sync/mutations [post]
func (h *Handler) HandlePushMutations(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	actorID, orgID, ok := auth.Caller(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "missing caller identity",
		})
	}

	mutations, err := DecodeBatch(c.Body())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	caller := reconcile.Identity{ActorID: actorID, OrganizationID: orgID}
	results := h.service.Push(c.Context(), caller, mutations)

	applied, partial, rejected := tally(results)
	l.Info("sync batch reconciled",
		zap.String("actor_id", actorID),
		zap.Int("mutations", len(mutations)),
		zap.Int("applied", applied),
		zap.Int("partial", partial),
		zap.Int("rejected", rejected),
	)

	return c.JSON(fiber.Map{
		"success": true,
		"data":    results,
	})
}

func tally(results []reconcile.Result) (applied, partial, rejected int) {
	for _, r := range results {
		switch r.Outcome {
		case reconcile.OutcomeApplied:
			applied++
		case reconcile.OutcomePartial:
			partial++
		case reconcile.OutcomeRejected:
			rejected++
		}
	}
	return applied, partial, rejected
}
