package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
	"github.com/spec-kit/sla-ticket-service/internal/events"
	"github.com/spec-kit/sla-ticket-service/internal/repository"
	apperrors "github.com/spec-kit/sla-ticket-service/pkg/util/errorutil"
)

// CategoryReassignService moves a user's tickets between categories.
type CategoryReassignService struct {
	workflow
}

// NewCategoryReassignService creates the service.
func NewCategoryReassignService(deps WorkflowDependencies) *CategoryReassignService {
	return &CategoryReassignService{workflow: newWorkflow(deps)}
}

// BulkReassignCategory moves every non-closed ticket of userID from oldCategoryID to
// newCategoryID, recomputing deadlines from each ticket's creation time, and returns how
// many tickets moved.
func (s *CategoryReassignService) BulkReassignCategory(ctx context.Context, userID, oldCategoryID, newCategoryID string) (int, error) {
	var (
		sla        *domain.SLAPolicy
		candidates []domain.Ticket
	)
	err := s.uow.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		category, err := store.Categories.GetByID(ctx, newCategoryID)
		if err != nil {
			return notFoundOr(err, "category", map[string]any{"category_id": newCategoryID})
		}
		if sla, err = loadCategorySLA(ctx, store, category); err != nil {
			return err
		}
		candidates, err = store.Tickets.ListByUserAndCategory(ctx, userID, oldCategoryID)
		if err != nil {
			return apperrors.MapError(err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	reason := fmt.Sprintf("Category changed from %s to %s", oldCategoryID, newCategoryID)
	updated, failed := 0, 0
	for _, candidate := range candidates {
		if candidate.Status == domain.TicketStatusClosed {
			continue
		}
		if err := ctx.Err(); err != nil {
			return updated, err
		}
		event, err := s.moveOne(ctx, candidate.ID, userID, oldCategoryID, newCategoryID, sla, reason)
		switch {
		case errors.Is(err, errStale):
			s.logger.Debug("category change skipped", zap.String("ticket_id", candidate.ID))
		case err != nil:
			failed++
			s.logger.Warn("category change failed", zap.String("ticket_id", candidate.ID), zap.Error(err))
		default:
			updated++
			s.publish(ctx, event)
		}
	}

	s.metrics.RecordWorkflow("bulk_reassign_category", "updated", updated)
	s.metrics.RecordWorkflow("bulk_reassign_category", "failed", failed)
	s.logger.Info("category reassignment finished",
		zap.String("user_id", userID),
		zap.String("from_category_id", oldCategoryID),
		zap.String("to_category_id", newCategoryID),
		zap.Int("updated", updated),
		zap.Int("failed", failed))
	return updated, nil
}

func (s *CategoryReassignService) moveOne(ctx context.Context, ticketID, userID, oldCategoryID, newCategoryID string, sla *domain.SLAPolicy, reason string) (events.Event, error) {
	var event events.Event
	err := s.uow.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		ticket, err := loadTicketForUpdate(ctx, store, ticketID)
		if err != nil {
			return err
		}
		if ticket.Status == domain.TicketStatusClosed || ticket.UserID != userID || ticket.CategoryID != oldCategoryID {
			return errStale
		}

		now := s.now()
		ticket.ChangeCategory(newCategoryID, sla)
		if err := store.Tickets.Update(ctx, ticket); err != nil {
			return apperrors.MapError(err)
		}
		if err := recordStatusChange(ctx, store, ticket, ticket.Status, domain.ActorCategoryChanged, reason, now); err != nil {
			return err
		}
		event = newEvent(events.EventTicketCategoryChanged, ticket.ID, domain.ActorCategoryChanged, now, events.TicketCategoryChangedPayload{
			OldCategoryID: oldCategoryID,
			NewCategoryID: newCategoryID,
		})
		return nil
	})
	return event, err
}
