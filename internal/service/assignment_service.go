package service

import (
	"context"
	"sort"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
	"github.com/spec-kit/sla-ticket-service/internal/events"
	"github.com/spec-kit/sla-ticket-service/internal/repository"
	apperrors "github.com/spec-kit/sla-ticket-service/pkg/util/errorutil"
)

// AssignmentService handles ticket assignment operations.
type AssignmentService struct {
	workflow
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps WorkflowDependencies) *AssignmentService {
	return &AssignmentService{workflow: newWorkflow(deps)}
}

// AssignLeastBusy gives an unassigned ticket to the active agent with the fewest non-closed
// tickets and moves it to IN_PROGRESS. Ties go to the lowest agent id.
func (s *AssignmentService) AssignLeastBusy(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	var (
		ticket  *domain.Ticket
		pending []events.Event
	)
	err := s.uow.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		var err error
		ticket, err = loadTicketForUpdate(ctx, store, ticketID)
		if err != nil {
			return err
		}
		if ticket.IsAssigned() {
			return apperrors.NewAlreadyAssigned(ticket.ID, ticket.AssignedAgentID())
		}

		agents, err := store.Agents.ListActive(ctx)
		if err != nil {
			return apperrors.MapError(err)
		}
		if len(agents) == 0 {
			return apperrors.NewNoAgentsAvailable("no active agents")
		}
		agent, err := leastBusyAgent(ctx, store.Tickets, agents)
		if err != nil {
			return err
		}

		now := s.now()
		oldStatus := ticket.Status
		ticket.AssignAgent(agent.ID, now)
		if err := ticket.ApplyTransition(domain.TicketStatusInProgress, now); err != nil {
			return err
		}
		if err := store.Tickets.Update(ctx, ticket); err != nil {
			return apperrors.MapError(err)
		}
		if err := recordStatusChange(ctx, store, ticket, oldStatus, domain.ActorSystem, reasonAutoAssignment, now); err != nil {
			return err
		}

		pending = append(pending,
			newEvent(events.EventTicketAssigned, ticket.ID, domain.ActorSystem, now, events.TicketAssignedPayload{
				AgentID:   agent.ID,
				Automatic: true,
			}),
			newEvent(events.EventTicketStatusChanged, ticket.ID, domain.ActorSystem, now, events.TicketStatusChangedPayload{
				OldStatus: oldStatus,
				NewStatus: ticket.Status,
				Comment:   reasonAutoAssignment,
			}),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.metrics.RecordWorkflow("auto_assign", "assigned", 1)
	s.publish(ctx, pending...)
	return ticket, nil
}

// AssignAgent sets the owner of a ticket to an explicit active agent. Status is unchanged.
func (s *AssignmentService) AssignAgent(ctx context.Context, ticketID, agentID string) (*domain.Ticket, error) {
	var (
		ticket  *domain.Ticket
		pending []events.Event
	)
	err := s.uow.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		agent, err := store.Agents.GetByID(ctx, agentID)
		if err != nil {
			return notFoundOr(err, "agent", map[string]any{"agent_id": agentID})
		}
		if !agent.Active {
			return apperrors.NewConflict("agent inactive", map[string]any{"agent_id": agentID})
		}

		ticket, err = loadTicketForUpdate(ctx, store, ticketID)
		if err != nil {
			return err
		}
		if ticket.Status == domain.TicketStatusClosed {
			return apperrors.NewConflict("ticket closed", map[string]any{"ticket_id": ticketID})
		}

		now := s.now()
		var previous *string
		if ticket.IsAssigned() {
			prev := ticket.AssignedAgentID()
			previous = &prev
		}
		ticket.AssignAgent(agent.ID, now)
		if err := store.Tickets.Update(ctx, ticket); err != nil {
			return apperrors.MapError(err)
		}
		if err := recordStatusChange(ctx, store, ticket, ticket.Status, domain.ActorStaff, "Assigned to agent "+agent.Name, now); err != nil {
			return err
		}
		pending = append(pending, newEvent(events.EventTicketAssigned, ticket.ID, domain.ActorStaff, now, events.TicketAssignedPayload{
			AgentID:         agent.ID,
			PreviousAgentID: previous,
		}))
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, pending...)
	return ticket, nil
}

// leastBusyAgent returns the first agent, by id, holding the minimum number of open tickets.
func leastBusyAgent(ctx context.Context, tickets repository.TicketRepository, agents []domain.Agent) (*domain.Agent, error) {
	ordered := append([]domain.Agent(nil), agents...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	var (
		best      *domain.Agent
		bestCount int64
	)
	for i := range ordered {
		count, err := tickets.CountOpenByAgent(ctx, ordered[i].ID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if best == nil || count < bestCount {
			best = &ordered[i]
			bestCount = count
		}
	}
	return best, nil
}

// lowestIDAgent returns the agent with the smallest id, or nil.
func lowestIDAgent(agents []domain.Agent) *domain.Agent {
	var best *domain.Agent
	for i := range agents {
		if best == nil || agents[i].ID < best.ID {
			best = &agents[i]
		}
	}
	return best
}
