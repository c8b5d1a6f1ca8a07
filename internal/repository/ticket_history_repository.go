package repository

import (
	"context"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
)

// TicketHistoryRepository stores audit entries. It is append-only: there is no update or
// delete.
type TicketHistoryRepository interface {
	Create(ctx context.Context, history *domain.TicketStatusHistory) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketStatusHistory, error)
}

type ticketHistoryRepository struct {
	db DBTX
}

// NewTicketHistoryRepository builds repository.
func NewTicketHistoryRepository(db DBTX) TicketHistoryRepository {
	return &ticketHistoryRepository{db: db}
}

func (r *ticketHistoryRepository) Create(ctx context.Context, history *domain.TicketStatusHistory) error {
	const query = `
        INSERT INTO ticket_status_history (ticket_id, old_status, new_status, changed_by, change_reason, created_at)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id`
	return r.db.QueryRow(ctx, query,
		history.TicketID,
		history.OldStatus,
		history.NewStatus,
		history.ChangedBy,
		history.Reason,
		history.CreatedAt,
	).Scan(&history.ID)
}

func (r *ticketHistoryRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketStatusHistory, error) {
	const query = `
        SELECT id, ticket_id, old_status, new_status, changed_by, change_reason, created_at
        FROM ticket_status_history WHERE ticket_id=$1 ORDER BY created_at ASC, seq ASC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketStatusHistory
	for rows.Next() {
		var history domain.TicketStatusHistory
		if err := rows.Scan(
			&history.ID,
			&history.TicketID,
			&history.OldStatus,
			&history.NewStatus,
			&history.ChangedBy,
			&history.Reason,
			&history.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, history)
	}
	return result, rows.Err()
}
