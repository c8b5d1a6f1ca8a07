package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
	"github.com/spec-kit/sla-ticket-service/internal/events"
	"github.com/spec-kit/sla-ticket-service/internal/repository"
	apperrors "github.com/spec-kit/sla-ticket-service/pkg/util/errorutil"
)

// TicketService coordinates single-ticket workflows.
type TicketService struct {
	workflow
	audit *AuditTrail
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	UserID      string
	CategoryID  string
	Title       string
	Description string
}

// TicketUpdateInput carries the editable fields; nil fields are left unchanged.
type TicketUpdateInput struct {
	Title       *string
	Description *string
	CategoryID  *string
}

// TicketListFilter describes listing filters.
type TicketListFilter struct {
	UserID     *string
	AgentID    *string
	CategoryID *string
	Status     *domain.TicketStatus
	Limit      int
	Offset     int
}

// NewTicketService constructs the service.
func NewTicketService(deps WorkflowDependencies) *TicketService {
	return &TicketService{
		workflow: newWorkflow(deps),
		audit:    NewAuditTrail(deps.UnitOfWork),
	}
}

// CreateTicket opens a ticket for an existing user in an existing category. Deadlines come
// from the category SLA, if it has one.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}

	var ticket *domain.Ticket
	err := s.uow.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		if _, err := store.Users.GetByID(ctx, input.UserID); err != nil {
			return notFoundOr(err, "user", map[string]any{"user_id": input.UserID})
		}
		category, err := store.Categories.GetByID(ctx, input.CategoryID)
		if err != nil {
			return notFoundOr(err, "category", map[string]any{"category_id": input.CategoryID})
		}
		sla, err := loadCategorySLA(ctx, store, category)
		if err != nil {
			return err
		}

		ticket = domain.NewTicket(input.UserID, category.ID, input.Title, input.Description, sla, s.now())
		if err := store.Tickets.Create(ctx, ticket); err != nil {
			return apperrors.MapError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, newEvent(events.EventTicketCreated, ticket.ID, domain.ActorSystem, ticket.CreatedAt, events.TicketCreatedPayload{
		UserID:             ticket.UserID,
		CategoryID:         ticket.CategoryID,
		Title:              ticket.Title,
		ResolutionDeadline: ticket.ResolutionDeadline,
	}))
	return ticket, nil
}

// GetTicket loads a ticket.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	var ticket *domain.Ticket
	err := s.uow.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		var err error
		ticket, err = loadTicket(ctx, store, ticketID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// ListTickets lists tickets oldest first.
func (s *TicketService) ListTickets(ctx context.Context, filter TicketListFilter) ([]domain.Ticket, error) {
	repoFilter := repository.TicketFilter{
		UserID:     filter.UserID,
		AgentID:    filter.AgentID,
		CategoryID: filter.CategoryID,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}
	if filter.Status != nil {
		repoFilter.Statuses = []domain.TicketStatus{*filter.Status}
	}

	var tickets []domain.Ticket
	err := s.uow.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		var err error
		tickets, err = store.Tickets.ListWithFilter(ctx, repoFilter)
		return err
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// ListOverdue returns tickets with a passed deadline, whatever their status.
func (s *TicketService) ListOverdue(ctx context.Context) ([]domain.Ticket, error) {
	var tickets []domain.Ticket
	err := s.uow.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		var err error
		tickets, err = store.Tickets.ListOverdue(ctx, s.now())
		return err
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// UpdateTicket edits title, description and category. A category change recomputes the
// deadlines and is audited; closed tickets keep their category.
func (s *TicketService) UpdateTicket(ctx context.Context, ticketID string, input TicketUpdateInput) (*domain.Ticket, error) {
	if input.Title != nil && strings.TrimSpace(*input.Title) == "" {
		return nil, apperrors.NewValidationError("title must not be blank", nil)
	}

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

		now := s.now()
		title, description := ticket.Title, ticket.Description
		if input.Title != nil {
			title = *input.Title
		}
		if input.Description != nil {
			description = *input.Description
		}
		ticket.UpdateDetails(title, description, now)

		if input.CategoryID != nil && *input.CategoryID != ticket.CategoryID {
			if ticket.Status == domain.TicketStatusClosed {
				return apperrors.NewConflict("closed ticket cannot change category", map[string]any{"ticket_id": ticketID})
			}
			category, err := store.Categories.GetByID(ctx, *input.CategoryID)
			if err != nil {
				return notFoundOr(err, "category", map[string]any{"category_id": *input.CategoryID})
			}
			sla, err := loadCategorySLA(ctx, store, category)
			if err != nil {
				return err
			}
			oldCategoryID := ticket.CategoryID
			ticket.ChangeCategory(category.ID, sla)
			reason := fmt.Sprintf("Category changed from %s to %s", oldCategoryID, category.ID)
			if err := recordStatusChange(ctx, store, ticket, ticket.Status, domain.ActorCategoryChanged, reason, now); err != nil {
				return err
			}
			pending = append(pending, newEvent(events.EventTicketCategoryChanged, ticket.ID, domain.ActorCategoryChanged, now, events.TicketCategoryChangedPayload{
				OldCategoryID: oldCategoryID,
				NewCategoryID: category.ID,
			}))
		}

		if err := store.Tickets.Update(ctx, ticket); err != nil {
			return apperrors.MapError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, pending...)
	return ticket, nil
}

// ChangeStatus moves a ticket through the state machine. CLOSED goes through the closing
// rule with comment as the solution.
func (s *TicketService) ChangeStatus(ctx context.Context, ticketID string, target domain.TicketStatus, comment string) (*domain.Ticket, error) {
	if !target.Valid() {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": target})
	}
	if target == domain.TicketStatusClosed {
		return s.close(ctx, ticketID, comment)
	}

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

		now := s.now()
		oldStatus := ticket.Status
		if err := ticket.ApplyTransition(target, now); err != nil {
			return err
		}
		if err := store.Tickets.Update(ctx, ticket); err != nil {
			return apperrors.MapError(err)
		}
		reason := strings.TrimSpace(comment)
		if reason == "" {
			reason = fmt.Sprintf("Status changed from %s to %s", oldStatus, target)
		}
		if err := recordStatusChange(ctx, store, ticket, oldStatus, domain.ActorStaff, reason, now); err != nil {
			return err
		}
		pending = append(pending, newEvent(events.EventTicketStatusChanged, ticket.ID, domain.ActorStaff, now, events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: ticket.Status,
			Comment:   comment,
		}))
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, pending...)
	return ticket, nil
}

// CloseTicket closes a RESOLVED ticket with a solution.
func (s *TicketService) CloseTicket(ctx context.Context, ticketID, solution string) (*domain.Ticket, error) {
	return s.close(ctx, ticketID, solution)
}

func (s *TicketService) close(ctx context.Context, ticketID, solution string) (*domain.Ticket, error) {
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

		now := s.now()
		oldStatus := ticket.Status
		if err := ticket.Close(solution, now); err != nil {
			return err
		}
		if err := store.Tickets.Update(ctx, ticket); err != nil {
			return apperrors.MapError(err)
		}
		if err := recordStatusChange(ctx, store, ticket, oldStatus, domain.ActorStaff, "Ticket closed", now); err != nil {
			return err
		}
		pending = append(pending, newEvent(events.EventTicketStatusChanged, ticket.ID, domain.ActorStaff, now, events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: ticket.Status,
		}))
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, pending...)
	return ticket, nil
}

// History returns the audit trail of a ticket.
func (s *TicketService) History(ctx context.Context, ticketID string) ([]domain.TicketStatusHistory, error) {
	return s.audit.History(ctx, ticketID)
}

// Escalations lists the escalation records of a ticket oldest first.
func (s *TicketService) Escalations(ctx context.Context, ticketID string) ([]domain.TicketEscalation, error) {
	var result []domain.TicketEscalation
	err := s.uow.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		if _, err := loadTicket(ctx, store, ticketID); err != nil {
			return err
		}
		records, err := store.Escalations.ListByTicket(ctx, ticketID)
		if err != nil {
			return apperrors.MapError(err)
		}
		result = records
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
