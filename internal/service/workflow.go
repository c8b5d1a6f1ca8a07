package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
	"github.com/spec-kit/sla-ticket-service/internal/events"
	"github.com/spec-kit/sla-ticket-service/internal/observability"
	"github.com/spec-kit/sla-ticket-service/internal/repository"
	apperrors "github.com/spec-kit/sla-ticket-service/pkg/util/errorutil"
)

// Clock returns the current time.
type Clock func() time.Time

// WorkflowDependencies bundles collaborators shared by the workflow services.
type WorkflowDependencies struct {
	UnitOfWork repository.UnitOfWork
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Clock      Clock
}

// workflow carries the shared collaborators. Events are buffered during a unit of work and
// published only after it commits.
type workflow struct {
	uow        repository.UnitOfWork
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	clock      Clock
}

func newWorkflow(deps WorkflowDependencies) workflow {
	w := workflow{
		uow:        deps.UnitOfWork,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		clock:      deps.Clock,
	}
	if w.logger == nil {
		w.logger = zap.NewNop()
	}
	if w.clock == nil {
		w.clock = func() time.Time { return time.Now().UTC() }
	}
	return w
}

func (w workflow) now() time.Time {
	return w.clock()
}

func (w workflow) publish(ctx context.Context, pending ...events.Event) {
	if w.dispatcher == nil {
		return
	}
	for _, event := range pending {
		if err := w.dispatcher.Publish(ctx, event); err != nil {
			w.logger.Warn("event handler failed",
				zap.String("event_type", string(event.Type)),
				zap.String("ticket_id", event.TicketID),
				zap.Error(err))
		}
	}
}

func newEvent(eventType events.EventType, ticketID, actor string, at time.Time, payload interface{}) events.Event {
	return events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		Actor:     actor,
		Timestamp: at,
		Payload:   payload,
	}
}

func loadTicketForUpdate(ctx context.Context, store repository.Store, ticketID string) (*domain.Ticket, error) {
	ticket, err := store.Tickets.GetByIDForUpdate(ctx, ticketID)
	if err != nil {
		return nil, notFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	return ticket, nil
}

func loadTicket(ctx context.Context, store repository.Store, ticketID string) (*domain.Ticket, error) {
	ticket, err := store.Tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, notFoundOr(err, "ticket", map[string]any{"ticket_id": ticketID})
	}
	return ticket, nil
}

func loadCategorySLA(ctx context.Context, store repository.Store, category *domain.Category) (*domain.SLAPolicy, error) {
	if !category.HasSLA() {
		return nil, nil
	}
	sla, err := store.SLAs.GetByID(ctx, *category.SLAID)
	if err != nil {
		return nil, notFoundOr(err, "sla policy", map[string]any{"sla_id": *category.SLAID})
	}
	return sla, nil
}

func notFoundOr(err error, resource string, details map[string]any) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource, details)
	}
	return apperrors.MapError(err)
}

func conflictOr(err error, message string, details map[string]any) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return apperrors.NewConflict(message, details)
	}
	return apperrors.MapError(err)
}
