package repository

import (
	"context"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
)

// SLARepository manages persistence for SLA policies.
type SLARepository interface {
	Create(ctx context.Context, sla *domain.SLAPolicy) error
	GetByID(ctx context.Context, id string) (*domain.SLAPolicy, error)
	List(ctx context.Context) ([]domain.SLAPolicy, error)
}

type slaRepository struct {
	db DBTX
}

// NewSLARepository constructs repository.
func NewSLARepository(db DBTX) SLARepository {
	return &slaRepository{db: db}
}

func (r *slaRepository) Create(ctx context.Context, sla *domain.SLAPolicy) error {
	const query = `
        INSERT INTO sla_policies (name, description, response_time_hours, resolution_time_hours, created_at)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id`
	err := r.db.QueryRow(ctx, query,
		sla.Name,
		sla.Description,
		sla.ResponseTimeHours,
		sla.ResolutionTimeHours,
		sla.CreatedAt,
	).Scan(&sla.ID)
	return writeError(err)
}

func (r *slaRepository) GetByID(ctx context.Context, id string) (*domain.SLAPolicy, error) {
	const query = `
        SELECT id, name, description, response_time_hours, resolution_time_hours, created_at
        FROM sla_policies WHERE id=$1`
	var sla domain.SLAPolicy
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&sla.ID,
		&sla.Name,
		&sla.Description,
		&sla.ResponseTimeHours,
		&sla.ResolutionTimeHours,
		&sla.CreatedAt,
	); err != nil {
		return nil, notFound(err)
	}
	return &sla, nil
}

func (r *slaRepository) List(ctx context.Context) ([]domain.SLAPolicy, error) {
	const query = `
        SELECT id, name, description, response_time_hours, resolution_time_hours, created_at
        FROM sla_policies ORDER BY name ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SLAPolicy
	for rows.Next() {
		var sla domain.SLAPolicy
		if err := rows.Scan(
			&sla.ID,
			&sla.Name,
			&sla.Description,
			&sla.ResponseTimeHours,
			&sla.ResolutionTimeHours,
			&sla.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, sla)
	}
	return result, rows.Err()
}
