package service

import (
	"context"
	"time"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
	"github.com/spec-kit/sla-ticket-service/internal/repository"
	apperrors "github.com/spec-kit/sla-ticket-service/pkg/util/errorutil"
)

// Audit labels written by the workflow operations.
const (
	reasonAutoAssignment = "System auto-assignment"
	reasonEscalated      = "Ticket escalated due to overdue"
)

// AuditTrail reads the append-only status history of tickets.
type AuditTrail struct {
	uow repository.UnitOfWork
}

// NewAuditTrail creates the service.
func NewAuditTrail(uow repository.UnitOfWork) *AuditTrail {
	return &AuditTrail{uow: uow}
}

// History returns the entries of ticketID oldest first.
func (a *AuditTrail) History(ctx context.Context, ticketID string) ([]domain.TicketStatusHistory, error) {
	var history []domain.TicketStatusHistory
	err := a.uow.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		if _, err := loadTicket(ctx, store, ticketID); err != nil {
			return err
		}
		entries, err := store.History.ListByTicket(ctx, ticketID)
		if err != nil {
			return apperrors.MapError(err)
		}
		history = entries
		return nil
	})
	if err != nil {
		return nil, err
	}
	return history, nil
}

// recordStatusChange appends one entry for ticket. oldStatus is the status before the
// change; the new status is read from the ticket.
func recordStatusChange(ctx context.Context, store repository.Store, ticket *domain.Ticket, oldStatus domain.TicketStatus, actor, reason string, at time.Time) error {
	entry := &domain.TicketStatusHistory{
		TicketID:  ticket.ID,
		OldStatus: oldStatus,
		NewStatus: ticket.Status,
		ChangedBy: actor,
		Reason:    reason,
		CreatedAt: at,
	}
	if err := store.History.Create(ctx, entry); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}
