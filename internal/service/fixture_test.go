package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
	"github.com/spec-kit/sla-ticket-service/internal/events"
	"github.com/spec-kit/sla-ticket-service/internal/observability"
	"github.com/spec-kit/sla-ticket-service/internal/repository"
	"github.com/spec-kit/sla-ticket-service/internal/repository/memory"
)

var baseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

const (
	userID       = "user-1"
	otherUserID  = "user-2"
	categoryID   = "cat-general"
	hardwareID   = "cat-hardware"
	noSLACatID   = "cat-misc"
	standardSLA  = "sla-standard"
	priorityLane = "sla-priority"
)

type fixture struct {
	store   *memory.Store
	now     time.Time
	metrics *observability.Metrics

	mu        sync.Mutex
	published []events.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: memory.NewStore(), now: baseTime, metrics: observability.NewMetrics()}
	f.seed(t, func(ctx context.Context, store repository.Store) error {
		for _, sla := range []domain.SLAPolicy{
			{ID: standardSLA, Name: "Standard", ResponseTimeHours: 4, ResolutionTimeHours: 24, CreatedAt: baseTime},
			{ID: priorityLane, Name: "Priority", ResponseTimeHours: 1, ResolutionTimeHours: 8, CreatedAt: baseTime},
		} {
			sla := sla
			if err := store.SLAs.Create(ctx, &sla); err != nil {
				return err
			}
		}
		std, prio := standardSLA, priorityLane
		for _, c := range []domain.Category{
			{ID: categoryID, Name: "General", SLAID: &std, CreatedAt: baseTime},
			{ID: hardwareID, Name: "Hardware", SLAID: &prio, CreatedAt: baseTime},
			{ID: noSLACatID, Name: "Misc", CreatedAt: baseTime},
		} {
			c := c
			if err := store.Categories.Create(ctx, &c); err != nil {
				return err
			}
		}
		for _, u := range []domain.User{
			{ID: userID, Name: "Ada", Email: "ada@example.com", CreatedAt: baseTime},
			{ID: otherUserID, Name: "Linus", Email: "linus@example.com", CreatedAt: baseTime},
		} {
			u := u
			if err := store.Users.Create(ctx, &u); err != nil {
				return err
			}
		}
		return nil
	})
	return f
}

func (f *fixture) deps() WorkflowDependencies {
	return f.depsWith(f.store)
}

func (f *fixture) depsWith(uow repository.UnitOfWork) WorkflowDependencies {
	dispatcher := events.NewInMemoryDispatcher()
	events.SubscribeAll(dispatcher, func(_ context.Context, e events.Event) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.published = append(f.published, e)
		return nil
	})
	return WorkflowDependencies{
		UnitOfWork: uow,
		Dispatcher: dispatcher,
		Logger:     zap.NewNop(),
		Metrics:    f.metrics,
		Clock:      func() time.Time { return f.now },
	}
}

func (f *fixture) eventTypes() []events.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	types := make([]events.EventType, 0, len(f.published))
	for _, e := range f.published {
		types = append(types, e.Type)
	}
	return types
}

func (f *fixture) seed(t *testing.T, fn func(ctx context.Context, store repository.Store) error) {
	t.Helper()
	require.NoError(t, f.store.WithinTx(context.Background(), fn))
}

func (f *fixture) addAgent(t *testing.T, id string, active bool) {
	t.Helper()
	f.seed(t, func(ctx context.Context, store repository.Store) error {
		return store.Agents.Create(ctx, &domain.Agent{
			ID:        id,
			Name:      "Agent " + id,
			Email:     id + "@support.example.com",
			Active:    active,
			CreatedAt: baseTime,
			UpdatedAt: baseTime,
		})
	})
}

// addTicket stores an OPEN ticket of userID in categoryID created at createdAt; mutate
// adjusts it before it is saved.
func (f *fixture) addTicket(t *testing.T, id string, createdAt time.Time, mutate func(*domain.Ticket)) {
	t.Helper()
	f.seed(t, func(ctx context.Context, store repository.Store) error {
		sla, err := store.SLAs.GetByID(ctx, standardSLA)
		if err != nil {
			return err
		}
		ticket := domain.NewTicket(userID, categoryID, "Printer on fire", "Third floor", sla, createdAt)
		ticket.ID = id
		if mutate != nil {
			mutate(ticket)
		}
		return store.Tickets.Create(ctx, ticket)
	})
}

func (f *fixture) ticket(t *testing.T, id string) *domain.Ticket {
	t.Helper()
	var ticket *domain.Ticket
	f.seed(t, func(ctx context.Context, store repository.Store) error {
		var err error
		ticket, err = store.Tickets.GetByID(ctx, id)
		return err
	})
	return ticket
}

func (f *fixture) history(t *testing.T, id string) []domain.TicketStatusHistory {
	t.Helper()
	var entries []domain.TicketStatusHistory
	f.seed(t, func(ctx context.Context, store repository.Store) error {
		var err error
		entries, err = store.History.ListByTicket(ctx, id)
		return err
	})
	return entries
}

func withStatus(status domain.TicketStatus) func(*domain.Ticket) {
	return func(t *domain.Ticket) { t.Status = status }
}

func assignedTo(agentID string, status domain.TicketStatus) func(*domain.Ticket) {
	return func(t *domain.Ticket) {
		id := agentID
		t.AgentID = &id
		t.Status = status
	}
}

func closedTicket(agentID string, closedAt time.Time) func(*domain.Ticket) {
	return func(t *domain.Ticket) {
		id := agentID
		at := closedAt
		t.AgentID = &id
		t.Status = domain.TicketStatusClosed
		t.Solution = "done"
		t.ClosedAt = &at
		t.UpdatedAt = closedAt
	}
}

// faultyUnitOfWork fails every ticket update for one id.
type faultyUnitOfWork struct {
	inner  repository.UnitOfWork
	failID string
}

func (u faultyUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, store repository.Store) error) error {
	return u.inner.WithinTx(ctx, func(ctx context.Context, store repository.Store) error {
		store.Tickets = failingTicketUpdates{TicketRepository: store.Tickets, failID: u.failID}
		return fn(ctx, store)
	})
}

type failingTicketUpdates struct {
	repository.TicketRepository
	failID string
}

func (r failingTicketUpdates) Update(ctx context.Context, ticket *domain.Ticket) error {
	if ticket.ID == r.failID {
		return errors.New("write rejected")
	}
	return r.TicketRepository.Update(ctx, ticket)
}
