package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-ticket-service/internal/api/dto"
	"github.com/spec-kit/sla-ticket-service/internal/service"
	apperrors "github.com/spec-kit/sla-ticket-service/pkg/util/errorutil"
)

// OperationsHandler exposes the workflow operations: auto-assignment, escalation, the
// auto-close sweep, bulk category changes and agent statistics.
type OperationsHandler struct {
	assignment    *service.AssignmentService
	escalation    *service.EscalationService
	sweep         *service.SweepService
	reassign      *service.CategoryReassignService
	stats         *service.StatsService
	autoCloseDays int
}

// OperationsDependencies bundles the workflow services.
type OperationsDependencies struct {
	Assignment    *service.AssignmentService
	Escalation    *service.EscalationService
	Sweep         *service.SweepService
	Reassign      *service.CategoryReassignService
	Stats         *service.StatsService
	AutoCloseDays int
}

// NewOperationsHandler constructs handler.
func NewOperationsHandler(deps OperationsDependencies) *OperationsHandler {
	return &OperationsHandler{
		assignment:    deps.Assignment,
		escalation:    deps.Escalation,
		sweep:         deps.Sweep,
		reassign:      deps.Reassign,
		stats:         deps.Stats,
		autoCloseDays: deps.AutoCloseDays,
	}
}

// AutoAssign POST /api/tickets/operations/:id/auto-assign.
func (h *OperationsHandler) AutoAssign(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	ticket, err := h.assignment.AssignLeastBusy(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// Escalate POST /api/tickets/operations/:id/escalate.
func (h *OperationsHandler) Escalate(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.EscalateRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	if strings.TrimSpace(req.Reason) == "" {
		req.Reason = c.Query("reason")
	}
	ticket, escalation, err := h.escalation.Escalate(c.UserContext(), id, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.EscalationResultResponse{
		Ticket:     ticketResponse(ticket),
		Escalation: escalationResponse(escalation),
	}})
}

// AutoClose POST /api/tickets/operations/auto-close?days_threshold=N.
func (h *OperationsHandler) AutoClose(c *fiber.Ctx) error {
	days := h.autoCloseDays
	if raw := strings.TrimSpace(c.Query("days_threshold")); raw != "" {
		days = parseInt(raw, 0)
		if days <= 0 {
			return apperrors.NewValidationError("days_threshold must be a positive integer", map[string]any{"days_threshold": raw})
		}
	}
	closed, err := h.sweep.AutoCloseResolved(c.UserContext(), days)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SweepResultResponse{Count: closed}})
}

// AgentStats GET /api/tickets/operations/agents/:agentId/stats.
func (h *OperationsHandler) AgentStats(c *fiber.Ctx) error {
	agentID, err := idParam(c, "agentId")
	if err != nil {
		return err
	}
	start, err := requiredTimeQuery(c, "start_date")
	if err != nil {
		return err
	}
	end, err := requiredTimeQuery(c, "end_date")
	if err != nil {
		return err
	}
	stats, err := h.stats.AgentStats(c.UserContext(), agentID, start, end)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AgentStatsResponse{
		AgentID:                stats.AgentID,
		AgentName:              stats.AgentName,
		TotalTickets:           stats.TotalTickets,
		ClosedTickets:          stats.ClosedTickets,
		OverdueTickets:         stats.OverdueTickets,
		AvgResolutionTimeHours: stats.AvgResolutionTimeHours,
		StartDate:              stats.WindowStart,
		EndDate:                stats.WindowEnd,
	}})
}

// BulkUpdateCategory POST /api/tickets/operations/bulk-update-category.
func (h *OperationsHandler) BulkUpdateCategory(c *fiber.Ctx) error {
	var req dto.BulkUpdateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validUUID(map[string]string{
		"user_id":         req.UserID,
		"old_category_id": req.OldCategoryID,
		"new_category_id": req.NewCategoryID,
	}); err != nil {
		return err
	}
	updated, err := h.reassign.BulkReassignCategory(c.UserContext(),
		strings.TrimSpace(req.UserID),
		strings.TrimSpace(req.OldCategoryID),
		strings.TrimSpace(req.NewCategoryID))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SweepResultResponse{Count: updated}})
}
