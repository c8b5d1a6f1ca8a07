package service

import (
	"context"
	"time"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
	"github.com/spec-kit/sla-ticket-service/internal/repository"
	apperrors "github.com/spec-kit/sla-ticket-service/pkg/util/errorutil"
)

// StatsService aggregates agent workload figures.
type StatsService struct {
	workflow
}

// NewStatsService creates the service.
func NewStatsService(deps WorkflowDependencies) *StatsService {
	return &StatsService{workflow: newWorkflow(deps)}
}

// AgentStats summarizes the tickets assigned to agentID that were created within
// [start, end], both ends inclusive.
func (s *StatsService) AgentStats(ctx context.Context, agentID string, start, end time.Time) (*domain.AgentStats, error) {
	if end.Before(start) {
		return nil, apperrors.NewValidationError("end date precedes start date", map[string]any{
			"start_date": start,
			"end_date":   end,
		})
	}

	var (
		agent   *domain.Agent
		tickets []domain.Ticket
	)
	err := s.uow.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		var err error
		agent, err = store.Agents.GetByID(ctx, agentID)
		if err != nil {
			return notFoundOr(err, "agent", map[string]any{"agent_id": agentID})
		}
		tickets, err = store.Tickets.ListByAgentCreatedBetween(ctx, agentID, start, end)
		if err != nil {
			return apperrors.MapError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	stats := computeAgentStats(tickets, s.now())
	stats.AgentID = agent.ID
	stats.AgentName = agent.Name
	stats.WindowStart = start
	stats.WindowEnd = end
	return stats, nil
}

// computeAgentStats averages resolution time over closed tickets in whole hours, each
// ticket's duration truncated before summing.
func computeAgentStats(tickets []domain.Ticket, now time.Time) *domain.AgentStats {
	stats := &domain.AgentStats{TotalTickets: int64(len(tickets))}

	var (
		resolvedHours int64
		resolved      int64
	)
	for i := range tickets {
		t := &tickets[i]
		if t.Status == domain.TicketStatusClosed {
			stats.ClosedTickets++
		}
		if t.IsOverdue(now) {
			stats.OverdueTickets++
		}
		if t.ClosedAt != nil && !t.CreatedAt.IsZero() {
			resolvedHours += int64(t.ClosedAt.Sub(t.CreatedAt) / time.Hour)
			resolved++
		}
	}
	if resolved > 0 {
		stats.AvgResolutionTimeHours = float64(resolvedHours) / float64(resolved)
	}
	return stats
}
