package service

import (
	"context"
	"net/mail"
	"strings"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
	"github.com/spec-kit/sla-ticket-service/internal/repository"
	apperrors "github.com/spec-kit/sla-ticket-service/pkg/util/errorutil"
)

// CatalogService manages the reference records the workflow reads: agents, categories,
// SLA policies and users.
type CatalogService struct {
	workflow
}

// AgentListFilters define listing parameters.
type AgentListFilters struct {
	Active *bool
	Limit  int
	Offset int
}

// NewCatalogService constructs the service.
func NewCatalogService(deps WorkflowDependencies) *CatalogService {
	return &CatalogService{workflow: newWorkflow(deps)}
}

// CreateAgent adds an active agent. Emails are stored lower-cased.
func (s *CatalogService) CreateAgent(ctx context.Context, name, email string) (*domain.Agent, error) {
	name, email = strings.TrimSpace(name), strings.ToLower(strings.TrimSpace(email))
	if err := validateNameEmail(name, email); err != nil {
		return nil, err
	}
	now := s.now()
	agent := &domain.Agent{
		Name:      name,
		Email:     email,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.uow.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		if err := store.Agents.Create(ctx, agent); err != nil {
			return conflictOr(err, "agent email already exists", map[string]any{"email": email})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return agent, nil
}

// GetAgent fetches an agent.
func (s *CatalogService) GetAgent(ctx context.Context, id string) (*domain.Agent, error) {
	var agent *domain.Agent
	err := s.uow.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		var err error
		agent, err = store.Agents.GetByID(ctx, id)
		if err != nil {
			return notFoundOr(err, "agent", map[string]any{"agent_id": id})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return agent, nil
}

// ListAgents lists agents ordered by id.
func (s *CatalogService) ListAgents(ctx context.Context, filters AgentListFilters) ([]domain.Agent, error) {
	var agents []domain.Agent
	err := s.uow.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		var err error
		agents, err = store.Agents.List(ctx, repository.AgentFilter{
			Active: filters.Active,
			Limit:  filters.Limit,
			Offset: filters.Offset,
		})
		return err
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return agents, nil
}

// SetAgentActive toggles whether an agent takes part in assignment and escalation.
func (s *CatalogService) SetAgentActive(ctx context.Context, id string, active bool) (*domain.Agent, error) {
	var agent *domain.Agent
	err := s.uow.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		var err error
		agent, err = store.Agents.GetByID(ctx, id)
		if err != nil {
			return notFoundOr(err, "agent", map[string]any{"agent_id": id})
		}
		agent.Active = active
		agent.UpdatedAt = s.now()
		if err := store.Agents.Update(ctx, agent); err != nil {
			return apperrors.MapError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return agent, nil
}

// CreateCategory adds a category, optionally bound to an existing SLA policy.
func (s *CatalogService) CreateCategory(ctx context.Context, name, description string, slaID *string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	if slaID != nil && strings.TrimSpace(*slaID) == "" {
		slaID = nil
	}
	category := &domain.Category{
		Name:        name,
		Description: strings.TrimSpace(description),
		SLAID:       slaID,
		CreatedAt:   s.now(),
	}
	err := s.uow.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		if _, err := loadCategorySLA(ctx, store, category); err != nil {
			return err
		}
		if err := store.Categories.Create(ctx, category); err != nil {
			return conflictOr(err, "category name already exists", map[string]any{"name": name})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// GetCategory fetches a category.
func (s *CatalogService) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	var category *domain.Category
	err := s.uow.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		var err error
		category, err = store.Categories.GetByID(ctx, id)
		if err != nil {
			return notFoundOr(err, "category", map[string]any{"category_id": id})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// ListCategories lists categories by name.
func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	err := s.uow.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		var err error
		categories, err = store.Categories.List(ctx)
		return err
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return categories, nil
}

// CreateSLA adds an SLA policy. Both budgets must be positive.
func (s *CatalogService) CreateSLA(ctx context.Context, name, description string, responseHours, resolutionHours int) (*domain.SLAPolicy, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	if responseHours <= 0 || resolutionHours <= 0 {
		return nil, apperrors.NewValidationError("sla hours must be positive", map[string]any{
			"response_time_hours":   responseHours,
			"resolution_time_hours": resolutionHours,
		})
	}
	sla := &domain.SLAPolicy{
		Name:                name,
		Description:         strings.TrimSpace(description),
		ResponseTimeHours:   responseHours,
		ResolutionTimeHours: resolutionHours,
		CreatedAt:           s.now(),
	}
	err := s.uow.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		if err := store.SLAs.Create(ctx, sla); err != nil {
			return conflictOr(err, "sla name already exists", map[string]any{"name": name})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sla, nil
}

// GetSLA fetches an SLA policy.
func (s *CatalogService) GetSLA(ctx context.Context, id string) (*domain.SLAPolicy, error) {
	var sla *domain.SLAPolicy
	err := s.uow.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		var err error
		sla, err = store.SLAs.GetByID(ctx, id)
		if err != nil {
			return notFoundOr(err, "sla policy", map[string]any{"sla_id": id})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sla, nil
}

// ListSLAs lists SLA policies by name.
func (s *CatalogService) ListSLAs(ctx context.Context) ([]domain.SLAPolicy, error) {
	var slas []domain.SLAPolicy
	err := s.uow.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		var err error
		slas, err = store.SLAs.List(ctx)
		return err
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return slas, nil
}

// CreateUser registers an end-user.
func (s *CatalogService) CreateUser(ctx context.Context, name, email string) (*domain.User, error) {
	name, email = strings.TrimSpace(name), strings.ToLower(strings.TrimSpace(email))
	if err := validateNameEmail(name, email); err != nil {
		return nil, err
	}
	user := &domain.User{Name: name, Email: email, CreatedAt: s.now()}
	err := s.uow.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		if err := store.Users.Create(ctx, user); err != nil {
			return conflictOr(err, "user email already exists", map[string]any{"email": email})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUser fetches a user.
func (s *CatalogService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var user *domain.User
	err := s.uow.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		var err error
		user, err = store.Users.GetByID(ctx, id)
		if err != nil {
			return notFoundOr(err, "user", map[string]any{"user_id": id})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ListUsers lists users by registration time.
func (s *CatalogService) ListUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := s.uow.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		var err error
		users, err = store.Users.List(ctx)
		return err
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

func validateNameEmail(name, email string) error {
	details := map[string]any{}
	if name == "" {
		details["name"] = "required"
	}
	if _, err := mail.ParseAddress(email); err != nil {
		details["email"] = "invalid"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid payload", details)
	}
	return nil
}
