package web

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/zzpkit/zzpkit/pkg/actions"
	"github.com/zzpkit/zzpkit/pkg/automation"
	"github.com/zzpkit/zzpkit/pkg/eventbus"
	"github.com/zzpkit/zzpkit/pkg/events"
	"github.com/zzpkit/zzpkit/pkg/models"
	"github.com/zzpkit/zzpkit/pkg/persistence"
	"github.com/zzpkit/zzpkit/pkg/workflow"
)

// userIDHeader carries the authenticated user, set by the gateway in
// front of this service.
const userIDHeader = "X-User-ID"

const defaultRunHistoryLimit = 20

type APIHandlers struct {
	persistence persistence.Persistence
	engine      *automation.Engine
	router      *workflow.Router
	registry    *actions.Registry
	publisher   eventbus.EventPublisher
	validate    *validator.Validate
	logger      *slog.Logger
}

func NewAPIHandlers(
	p persistence.Persistence,
	engine *automation.Engine,
	router *workflow.Router,
	registry *actions.Registry,
	publisher eventbus.EventPublisher,
	logger *slog.Logger,
) *APIHandlers {
	return &APIHandlers{
		persistence: p,
		engine:      engine,
		router:      router,
		registry:    registry,
		publisher:   publisher,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		logger:      logger.With("module", "web"),
	}
}

func (h *APIHandlers) userID(c fiber.Ctx) string {
	return c.Get(userIDHeader)
}

func (h *APIHandlers) ListAutomations(c fiber.Ctx) error {
	userID := h.userID(c)
	if userID == "" {
		return unauthorized(c, "missing user header")
	}

	automations, err := h.persistence.Automations().ListByUser(c.Context(), userID)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"automations": automations})
}

func (h *APIHandlers) GetAutomation(c fiber.Ctx) error {
	userID := h.userID(c)
	if userID == "" {
		return unauthorized(c, "missing user header")
	}

	record, err := h.persistence.Automations().GetByID(c.Context(), userID, c.Params("id"))
	if err != nil {
		return handleRepositoryError(c, err, "Automation")
	}

	return c.JSON(record)
}

func (h *APIHandlers) CreateAutomation(c fiber.Ctx) error {
	userID := h.userID(c)
	if userID == "" {
		return unauthorized(c, "missing user header")
	}

	var req CreateAutomationRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validate.Struct(&req); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.validateAutomationConfig(models.TriggerType(req.TriggerType), req.TriggerConfig, req.Actions); err != nil {
		return badRequest(c, err.Error())
	}

	now := time.Now().UTC()
	enabled := true

	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	record := &models.Automation{
		ID:            uuid.New().String(),
		UserID:        userID,
		Name:          req.Name,
		Category:      models.AutomationCategory(req.Category),
		Enabled:       enabled,
		TriggerType:   models.TriggerType(req.TriggerType),
		TriggerConfig: req.TriggerConfig,
		Conditions:    req.Conditions,
		Actions:       req.Actions,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if record.TriggerType == models.TriggerSchedule {
		record.NextRunAt = record.TriggerConfig.NextRun(now)
	}

	if err := h.persistence.Automations().Save(c.Context(), record); err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(record)
}

func (h *APIHandlers) UpdateAutomation(c fiber.Ctx) error {
	userID := h.userID(c)
	if userID == "" {
		return unauthorized(c, "missing user header")
	}

	record, err := h.persistence.Automations().GetByID(c.Context(), userID, c.Params("id"))
	if err != nil {
		return handleRepositoryError(c, err, "Automation")
	}

	var req UpdateAutomationRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validate.Struct(&req); err != nil {
		return badRequest(c, err.Error())
	}

	if req.Name != nil {
		record.Name = *req.Name
	}

	if req.TriggerConfig != nil {
		record.TriggerConfig = *req.TriggerConfig
	}

	if req.Conditions != nil {
		record.Conditions = req.Conditions
	}

	if req.Actions != nil {
		record.Actions = req.Actions
	}

	if req.Enabled != nil {
		record.Enabled = *req.Enabled
	}

	if err := h.validateAutomationConfig(record.TriggerType, record.TriggerConfig, record.Actions); err != nil {
		return badRequest(c, err.Error())
	}

	now := time.Now().UTC()
	record.UpdatedAt = now

	if record.TriggerType == models.TriggerSchedule && req.TriggerConfig != nil {
		record.NextRunAt = record.TriggerConfig.NextRun(now)
	}

	if err := h.persistence.Automations().Save(c.Context(), record); err != nil {
		return internalError(c, err)
	}

	return c.JSON(record)
}

func (h *APIHandlers) DeleteAutomation(c fiber.Ctx) error {
	userID := h.userID(c)
	if userID == "" {
		return unauthorized(c, "missing user header")
	}

	if err := h.persistence.Automations().Delete(c.Context(), userID, c.Params("id")); err != nil {
		return handleRepositoryError(c, err, "Automation")
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ListRuns(c fiber.Ctx) error {
	userID := h.userID(c)
	if userID == "" {
		return unauthorized(c, "missing user header")
	}

	// Ownership check before touching the run history.
	record, err := h.persistence.Automations().GetByID(c.Context(), userID, c.Params("id"))
	if err != nil {
		return handleRepositoryError(c, err, "Automation")
	}

	limit := defaultRunHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return badRequest(c, "Invalid limit")
		}

		limit = parsed
	}

	runs, err := h.persistence.Runs().ListByAutomation(c.Context(), record.ID, limit)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{"runs": runs})
}

// RouteWorkflowAction executes one workflow action and returns the
// router's envelope verbatim; routing failures are envelope failures,
// not HTTP errors.
func (h *APIHandlers) RouteWorkflowAction(c fiber.Ctx) error {
	var req WorkflowActionRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validate.Struct(&req); err != nil {
		return badRequest(c, err.Error())
	}

	wctx := models.WorkflowContext{UserID: h.userID(c)}
	if req.Context != nil {
		wctx = *req.Context
	}

	return c.JSON(h.router.Route(c.Context(), req.Action, req.Parameters, wctx))
}

// PublishEvent puts a domain event on the bus; the engine's subscriber
// picks it up asynchronously.
func (h *APIHandlers) PublishEvent(c fiber.Ctx) error {
	var req PublishEventRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c, "Invalid request body: "+err.Error())
	}

	if err := h.validate.Struct(&req); err != nil {
		return badRequest(c, err.Error())
	}

	userID := req.UserID
	if userID == "" {
		userID = h.userID(c)
	}

	if userID == "" {
		return badRequest(c, "user_id is required")
	}

	event := events.NewDomainEvent(events.EventType(req.Type), userID, req.Data)
	if err := h.publisher.Publish(c.Context(), event); err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"event_id": event.ID})
}

// RunScheduled triggers one engine tick. Exposed for external cron;
// the scheduler binary normally drives this.
func (h *APIHandlers) RunScheduled(c fiber.Ctx) error {
	if err := h.engine.RunScheduledAutomations(c.Context()); err != nil {
		return internalError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	if err := h.persistence.HealthCheck(c.Context()); err != nil {
		h.logger.Error("Health check failed", "error", err)

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": "unhealthy"})
	}

	return c.JSON(fiber.Map{"status": "healthy"})
}

// validateAutomationConfig is the save-time gate: trigger config shape,
// parseable schedule, known action types and parseable templates.
func (h *APIHandlers) validateAutomationConfig(triggerType models.TriggerType, config models.TriggerConfig, actionList []models.ActionItem) error {
	if err := validateTriggerConfig(triggerType, config); err != nil {
		return err
	}

	for _, action := range actionList {
		if !h.registry.Has(action.Type) {
			return fmt.Errorf("%w: %s", actions.ErrUnknownAction, action.Type)
		}
	}

	return validateActionTemplates(actionList)
}
