package repository

import (
	"context"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
)

// TicketEscalationRepository stores escalation records.
type TicketEscalationRepository interface {
	Create(ctx context.Context, escalation *domain.TicketEscalation) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketEscalation, error)
}

type ticketEscalationRepository struct {
	db DBTX
}

// NewTicketEscalationRepository builds repository.
func NewTicketEscalationRepository(db DBTX) TicketEscalationRepository {
	return &ticketEscalationRepository{db: db}
}

func (r *ticketEscalationRepository) Create(ctx context.Context, escalation *domain.TicketEscalation) error {
	const query = `
        INSERT INTO ticket_escalations (ticket_id, escalated_from_agent_id, escalated_to_agent_id, reason, created_at)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id`
	return r.db.QueryRow(ctx, query,
		escalation.TicketID,
		escalation.FromAgentID,
		escalation.ToAgentID,
		escalation.Reason,
		escalation.CreatedAt,
	).Scan(&escalation.ID)
}

func (r *ticketEscalationRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketEscalation, error) {
	const query = `
        SELECT id, ticket_id, escalated_from_agent_id, escalated_to_agent_id, reason, created_at
        FROM ticket_escalations WHERE ticket_id=$1 ORDER BY created_at ASC, seq ASC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketEscalation
	for rows.Next() {
		var escalation domain.TicketEscalation
		if err := rows.Scan(
			&escalation.ID,
			&escalation.TicketID,
			&escalation.FromAgentID,
			&escalation.ToAgentID,
			&escalation.Reason,
			&escalation.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, escalation)
	}
	return result, rows.Err()
}
