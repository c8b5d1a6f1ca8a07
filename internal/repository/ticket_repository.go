package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
)

// TicketFilter captures listing parameters. A zero Limit means no limit.
type TicketFilter struct {
	UserID        *string
	AgentID       *string
	CategoryID    *string
	Statuses      []domain.TicketStatus
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	UpdatedBefore *time.Time
	Limit         int
	Offset        int
}

// Matches applies the filter to an in-memory ticket.
func (f TicketFilter) Matches(t *domain.Ticket) bool {
	if f.UserID != nil && t.UserID != *f.UserID {
		return false
	}
	if f.AgentID != nil && t.AssignedAgentID() != *f.AgentID {
		return false
	}
	if f.CategoryID != nil && t.CategoryID != *f.CategoryID {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if s == t.Status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.CreatedFrom != nil && t.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && t.CreatedAt.After(*f.CreatedTo) {
		return false
	}
	if f.UpdatedBefore != nil && !t.UpdatedAt.Before(*f.UpdatedBefore) {
		return false
	}
	return true
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// GetByIDForUpdate loads the ticket and locks it until the unit of work ends.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Ticket, error)
	ListByAgent(ctx context.Context, agentID string) ([]domain.Ticket, error)
	ListByCategory(ctx context.Context, categoryID string) ([]domain.Ticket, error)
	ListByStatus(ctx context.Context, status domain.TicketStatus) ([]domain.Ticket, error)
	ListByUserAndCategory(ctx context.Context, userID, categoryID string) ([]domain.Ticket, error)
	ListByAgentCreatedBetween(ctx context.Context, agentID string, start, end time.Time) ([]domain.Ticket, error)
	ListOverdue(ctx context.Context, now time.Time) ([]domain.Ticket, error)
	ListResolvedBefore(ctx context.Context, threshold time.Time) ([]domain.Ticket, error)
	CountOpenByAgent(ctx context.Context, agentID string) (int64, error)
}

const ticketColumns = `id, title, description, status, user_id, agent_id, category_id, solution,
               created_at, updated_at, response_deadline, resolution_deadline, closed_at`

type ticketRepository struct {
	db DBTX
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db DBTX) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (title, description, status, user_id, agent_id, category_id, solution,
            created_at, updated_at, response_deadline, resolution_deadline, closed_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id`
	err := r.db.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.UserID,
		ticket.AgentID,
		ticket.CategoryID,
		ticket.Solution,
		ticket.CreatedAt,
		ticket.UpdatedAt,
		ticket.ResponseDeadline,
		ticket.ResolutionDeadline,
		ticket.ClosedAt,
	).Scan(&ticket.ID)
	return writeError(err)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, status=$3, agent_id=$4, category_id=$5,
            solution=$6, updated_at=$7, response_deadline=$8, resolution_deadline=$9, closed_at=$10
        WHERE id=$11`
	cmd, err := r.db.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.AgentID,
		ticket.CategoryID,
		ticket.Solution,
		ticket.UpdatedAt,
		ticket.ResponseDeadline,
		ticket.ResolutionDeadline,
		ticket.ClosedAt,
		ticket.ID,
	)
	if err != nil {
		return writeError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1 FOR UPDATE`
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	ticket, err := scanTicket(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, notFound(err)
	}
	return ticket, nil
}

func (r *ticketRepository) ListByUser(ctx context.Context, userID string) ([]domain.Ticket, error) {
	return r.ListWithFilter(ctx, TicketFilter{UserID: &userID})
}

func (r *ticketRepository) ListByAgent(ctx context.Context, agentID string) ([]domain.Ticket, error) {
	return r.ListWithFilter(ctx, TicketFilter{AgentID: &agentID})
}

func (r *ticketRepository) ListByCategory(ctx context.Context, categoryID string) ([]domain.Ticket, error) {
	return r.ListWithFilter(ctx, TicketFilter{CategoryID: &categoryID})
}

func (r *ticketRepository) ListByStatus(ctx context.Context, status domain.TicketStatus) ([]domain.Ticket, error) {
	return r.ListWithFilter(ctx, TicketFilter{Statuses: []domain.TicketStatus{status}})
}

func (r *ticketRepository) ListByUserAndCategory(ctx context.Context, userID, categoryID string) ([]domain.Ticket, error) {
	return r.ListWithFilter(ctx, TicketFilter{UserID: &userID, CategoryID: &categoryID})
}

func (r *ticketRepository) ListByAgentCreatedBetween(ctx context.Context, agentID string, start, end time.Time) ([]domain.Ticket, error) {
	return r.ListWithFilter(ctx, TicketFilter{AgentID: &agentID, CreatedFrom: &start, CreatedTo: &end})
}

func (r *ticketRepository) ListResolvedBefore(ctx context.Context, threshold time.Time) ([]domain.Ticket, error) {
	return r.ListWithFilter(ctx, TicketFilter{
		Statuses:      []domain.TicketStatus{domain.TicketStatusResolved},
		UpdatedBefore: &threshold,
	})
}

func (r *ticketRepository) ListOverdue(ctx context.Context, now time.Time) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets
        WHERE response_deadline < $1 OR resolution_deadline < $1
        ORDER BY created_at ASC, id ASC`
	rows, err := r.db.Query(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) CountOpenByAgent(ctx context.Context, agentID string) (int64, error) {
	const query = `SELECT COUNT(*) FROM tickets WHERE agent_id=$1 AND status <> $2`
	var count int64
	if err := r.db.QueryRow(ctx, query, agentID, domain.TicketStatusClosed).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := `SELECT ` + ticketColumns + ` FROM tickets`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		clauses = append(clauses, fmt.Sprintf("user_id=$%d", len(args)))
	}
	if filter.AgentID != nil {
		args = append(args, *filter.AgentID)
		clauses = append(clauses, fmt.Sprintf("agent_id=$%d", len(args)))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf("category_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.UpdatedBefore != nil {
		args = append(args, *filter.UpdatedBefore)
		clauses = append(clauses, fmt.Sprintf("updated_at < $%d", len(args)))
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at ASC, id ASC`, base, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.UserID,
		&ticket.AgentID,
		&ticket.CategoryID,
		&ticket.Solution,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ResponseDeadline,
		&ticket.ResolutionDeadline,
		&ticket.ClosedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}
