package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
	"github.com/spec-kit/sla-ticket-service/internal/events"
	"github.com/spec-kit/sla-ticket-service/internal/repository"
	apperrors "github.com/spec-kit/sla-ticket-service/pkg/util/errorutil"
)

// errStale marks a sweep candidate that no longer matches the predicate once locked.
var errStale = errors.New("ticket changed since it was selected")

// SweepService runs the auto-close sweep.
type SweepService struct {
	workflow
}

// NewSweepService creates the service.
func NewSweepService(deps WorkflowDependencies) *SweepService {
	return &SweepService{workflow: newWorkflow(deps)}
}

// AutoCloseResolved closes every RESOLVED ticket whose last update is older than
// daysThreshold days and returns how many were closed. Each ticket commits on its own; a
// failing ticket is logged and skipped.
func (s *SweepService) AutoCloseResolved(ctx context.Context, daysThreshold int) (int, error) {
	if daysThreshold <= 0 {
		return 0, apperrors.NewValidationError("days threshold must be positive", map[string]any{"days_threshold": daysThreshold})
	}
	threshold := s.now().AddDate(0, 0, -daysThreshold)

	var candidates []domain.Ticket
	err := s.uow.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		var err error
		candidates, err = store.Tickets.ListResolvedBefore(ctx, threshold)
		return err
	})
	if err != nil {
		return 0, apperrors.MapError(err)
	}

	solution := fmt.Sprintf("Automatically closed after %d days in RESOLVED status", daysThreshold)
	reason := fmt.Sprintf("Auto-closed after %d days in RESOLVED", daysThreshold)

	closed, failed := 0, 0
	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			s.recordSweep(closed, failed)
			return closed, err
		}
		event, err := s.closeOne(ctx, candidate.ID, threshold, daysThreshold, solution, reason)
		switch {
		case errors.Is(err, errStale):
			s.logger.Debug("auto-close skipped", zap.String("ticket_id", candidate.ID))
		case err != nil:
			failed++
			s.logger.Warn("auto-close failed", zap.String("ticket_id", candidate.ID), zap.Error(err))
		default:
			closed++
			s.publish(ctx, event)
		}
	}

	s.recordSweep(closed, failed)
	s.logger.Info("auto-close sweep finished",
		zap.Int("days_threshold", daysThreshold),
		zap.Int("candidates", len(candidates)),
		zap.Int("closed", closed),
		zap.Int("failed", failed))
	return closed, nil
}

func (s *SweepService) closeOne(ctx context.Context, ticketID string, threshold time.Time, days int, solution, reason string) (events.Event, error) {
	var event events.Event
	err := s.uow.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		ticket, err := loadTicketForUpdate(ctx, store, ticketID)
		if err != nil {
			return err
		}
		if ticket.Status != domain.TicketStatusResolved || !ticket.UpdatedAt.Before(threshold) {
			return errStale
		}

		now := s.now()
		oldStatus := ticket.Status
		if err := ticket.Close(solution, now); err != nil {
			return err
		}
		if err := store.Tickets.Update(ctx, ticket); err != nil {
			return apperrors.MapError(err)
		}
		if err := recordStatusChange(ctx, store, ticket, oldStatus, domain.ActorAutoClosed, reason, now); err != nil {
			return err
		}
		event = newEvent(events.EventTicketAutoClosed, ticket.ID, domain.ActorAutoClosed, now, events.TicketAutoClosedPayload{
			DaysThreshold: days,
			ClosedAt:      now,
		})
		return nil
	})
	return event, err
}

func (s *SweepService) recordSweep(closed, failed int) {
	s.metrics.RecordWorkflow("auto_close", "closed", closed)
	s.metrics.RecordWorkflow("auto_close", "failed", failed)
}
