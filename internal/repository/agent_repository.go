package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
)

// AgentRepository handles persistence for support agents.
// Every list is ordered by id ascending so that selection over it is reproducible.
type AgentRepository interface {
	Create(ctx context.Context, agent *domain.Agent) error
	Update(ctx context.Context, agent *domain.Agent) error
	GetByID(ctx context.Context, id string) (*domain.Agent, error)
	List(ctx context.Context, filter AgentFilter) ([]domain.Agent, error)
	ListActive(ctx context.Context) ([]domain.Agent, error)
	ListActiveExcluding(ctx context.Context, excludedID string) ([]domain.Agent, error)
}

// AgentFilter defines query params for agent listing.
type AgentFilter struct {
	Active    *bool
	ExcludeID *string
	Limit     int
	Offset    int
}

const agentColumns = `id, name, email, active_flag, created_at, updated_at`

type agentRepository struct {
	db DBTX
}

// NewAgentRepository instantiates the repository.
func NewAgentRepository(db DBTX) AgentRepository {
	return &agentRepository{db: db}
}

func (r *agentRepository) Create(ctx context.Context, agent *domain.Agent) error {
	const query = `
        INSERT INTO agents (name, email, active_flag, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id`

	err := r.db.QueryRow(ctx, query,
		agent.Name,
		agent.Email,
		agent.Active,
		agent.CreatedAt,
		agent.UpdatedAt,
	).Scan(&agent.ID)
	return writeError(err)
}

func (r *agentRepository) Update(ctx context.Context, agent *domain.Agent) error {
	const query = `
        UPDATE agents
        SET name=$1, email=$2, active_flag=$3, updated_at=$4
        WHERE id=$5`

	cmd, err := r.db.Exec(ctx, query,
		agent.Name,
		agent.Email,
		agent.Active,
		agent.UpdatedAt,
		agent.ID,
	)
	if err != nil {
		return writeError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *agentRepository) GetByID(ctx context.Context, id string) (*domain.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents WHERE id=$1`

	agent, err := scanAgent(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return agent, nil
}

func (r *agentRepository) ListActive(ctx context.Context) ([]domain.Agent, error) {
	active := true
	return r.List(ctx, AgentFilter{Active: &active})
}

func (r *agentRepository) ListActiveExcluding(ctx context.Context, excludedID string) ([]domain.Agent, error) {
	active := true
	return r.List(ctx, AgentFilter{Active: &active, ExcludeID: &excludedID})
}

func (r *agentRepository) List(ctx context.Context, filter AgentFilter) ([]domain.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents`
	args := []any{}
	clauses := []string{}

	if filter.Active != nil {
		args = append(args, *filter.Active)
		clauses = append(clauses, fmt.Sprintf("active_flag=$%d", len(args)))
	}
	if filter.ExcludeID != nil {
		args = append(args, *filter.ExcludeID)
		clauses = append(clauses, fmt.Sprintf("id<>$%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	query += " ORDER BY id ASC"
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

	var result []domain.Agent
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *agent)
	}
	return result, rows.Err()
}

func scanAgent(row pgx.Row) (*domain.Agent, error) {
	var agent domain.Agent
	if err := row.Scan(
		&agent.ID,
		&agent.Name,
		&agent.Email,
		&agent.Active,
		&agent.CreatedAt,
		&agent.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &agent, nil
}
