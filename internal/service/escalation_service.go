package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
	"github.com/spec-kit/sla-ticket-service/internal/events"
	"github.com/spec-kit/sla-ticket-service/internal/repository"
	apperrors "github.com/spec-kit/sla-ticket-service/pkg/util/errorutil"
)

// DefaultEscalationReason is stored when the caller gives no reason.
const DefaultEscalationReason = "Automatic escalation due to overdue"

// EscalationService reassigns overdue tickets.
type EscalationService struct {
	workflow
	defaultReason string
}

// NewEscalationService creates the service. An empty defaultReason falls back to
// DefaultEscalationReason.
func NewEscalationService(deps WorkflowDependencies, defaultReason string) *EscalationService {
	if strings.TrimSpace(defaultReason) == "" {
		defaultReason = DefaultEscalationReason
	}
	return &EscalationService{workflow: newWorkflow(deps), defaultReason: defaultReason}
}

// Escalate moves an overdue, assigned ticket to the lowest-id active agent other than its
// current owner. The status is left as is.
func (s *EscalationService) Escalate(ctx context.Context, ticketID, reason string) (*domain.Ticket, *domain.TicketEscalation, error) {
	if strings.TrimSpace(reason) == "" {
		reason = s.defaultReason
	}

	var (
		ticket     *domain.Ticket
		escalation *domain.TicketEscalation
		pending    []events.Event
	)
	err := s.uow.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		var err error
		ticket, err = loadTicketForUpdate(ctx, store, ticketID)
		if err != nil {
			return err
		}

		now := s.now()
		if !ticket.IsOverdue(now) {
			return apperrors.NewNotOverdue(ticket.ID)
		}
		if !ticket.IsAssigned() {
			return apperrors.NewUnassigned(ticket.ID)
		}
		fromAgentID := ticket.AssignedAgentID()

		candidates, err := store.Agents.ListActiveExcluding(ctx, fromAgentID)
		if err != nil {
			return apperrors.MapError(err)
		}
		replacement := lowestIDAgent(candidates)
		if replacement == nil {
			return apperrors.NewNoAgentsAvailable("no other active agent to escalate to")
		}

		ticket.AssignAgent(replacement.ID, now)
		if err := store.Tickets.Update(ctx, ticket); err != nil {
			return apperrors.MapError(err)
		}

		escalation = &domain.TicketEscalation{
			TicketID:    ticket.ID,
			FromAgentID: fromAgentID,
			ToAgentID:   replacement.ID,
			Reason:      reason,
			CreatedAt:   now,
		}
		if err := store.Escalations.Create(ctx, escalation); err != nil {
			return apperrors.MapError(err)
		}
		if err := recordStatusChange(ctx, store, ticket, ticket.Status, domain.ActorEscalated, reasonEscalated, now); err != nil {
			return err
		}

		pending = append(pending, newEvent(events.EventTicketEscalated, ticket.ID, domain.ActorEscalated, now, events.TicketEscalatedPayload{
			EscalationID: escalation.ID,
			FromAgentID:  fromAgentID,
			ToAgentID:    replacement.ID,
			Reason:       reason,
		}))
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("ticket escalated",
		zap.String("ticket_id", ticket.ID),
		zap.String("from_agent_id", escalation.FromAgentID),
		zap.String("to_agent_id", escalation.ToAgentID))
	s.metrics.RecordWorkflow("escalate", "escalated", 1)
	s.publish(ctx, pending...)
	return ticket, escalation, nil
}
