package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
	"github.com/spec-kit/sla-ticket-service/internal/events"
	apperrors "github.com/spec-kit/sla-ticket-service/pkg/util/errorutil"
)

func ptr[T any](v T) *T {
	return &v
}

func TestCreateTicket(t *testing.T) {
	ctx := context.Background()

	t.Run("should open a ticket with deadlines from the category SLA", func(t *testing.T) {
		f := newFixture(t)

		ticket, err := NewTicketService(f.deps()).CreateTicket(ctx, TicketCreateInput{
			UserID:      userID,
			CategoryID:  categoryID,
			Title:       "  VPN drops  ",
			Description: "every hour",
		})
		require.NoError(t, err)

		assert.NotEmpty(t, ticket.ID)
		assert.Equal(t, "VPN drops", ticket.Title)
		assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
		assert.False(t, ticket.IsAssigned())
		require.NotNil(t, ticket.ResponseDeadline)
		assert.Equal(t, baseTime.Add(4*time.Hour), *ticket.ResponseDeadline)
		assert.Equal(t, baseTime.Add(24*time.Hour), *ticket.ResolutionDeadline)
		assert.Nil(t, ticket.ClosedAt)
		assert.Equal(t, []events.EventType{events.EventTicketCreated}, f.eventTypes())
	})

	t.Run("should leave deadlines empty without an SLA", func(t *testing.T) {
		f := newFixture(t)

		ticket, err := NewTicketService(f.deps()).CreateTicket(ctx, TicketCreateInput{UserID: userID, CategoryID: noSLACatID, Title: "Desk"})
		require.NoError(t, err)
		assert.Nil(t, ticket.ResponseDeadline)
		assert.Nil(t, ticket.ResolutionDeadline)
	})

	t.Run("should require an existing user and category", func(t *testing.T) {
		f := newFixture(t)
		svc := NewTicketService(f.deps())

		_, err := svc.CreateTicket(ctx, TicketCreateInput{UserID: "nobody", CategoryID: categoryID, Title: "x"})
		assert.True(t, errors.Is(err, apperrors.ErrNotFound))

		_, err = svc.CreateTicket(ctx, TicketCreateInput{UserID: userID, CategoryID: "cat-unknown", Title: "x"})
		assert.True(t, errors.Is(err, apperrors.ErrNotFound))

		_, err = svc.CreateTicket(ctx, TicketCreateInput{UserID: userID, CategoryID: categoryID, Title: "   "})
		assert.True(t, errors.Is(err, apperrors.ErrValidation))
	})
}

func TestChangeStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("should apply an allowed transition and audit the prior status", func(t *testing.T) {
		f := newFixture(t)
		f.addTicket(t, "t-1", baseTime, withStatus(domain.TicketStatusInProgress))
		f.now = baseTime.Add(time.Hour)

		ticket, err := NewTicketService(f.deps()).ChangeStatus(ctx, "t-1", domain.TicketStatusOnHold, "waiting on vendor")
		require.NoError(t, err)
		assert.Equal(t, domain.TicketStatusOnHold, ticket.Status)
		assert.Equal(t, f.now, ticket.UpdatedAt)

		history := f.history(t, "t-1")
		require.Len(t, history, 1)
		assert.Equal(t, domain.TicketStatusInProgress, history[0].OldStatus)
		assert.Equal(t, domain.TicketStatusOnHold, history[0].NewStatus)
		assert.Equal(t, "waiting on vendor", history[0].Reason)
		assert.Equal(t, domain.ActorStaff, history[0].ChangedBy)
	})

	t.Run("should reject a transition outside the table", func(t *testing.T) {
		f := newFixture(t)
		f.addTicket(t, "t-1", baseTime, nil)

		_, err := NewTicketService(f.deps()).ChangeStatus(ctx, "t-1", domain.TicketStatusResolved, "")
		assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition))
		assert.Equal(t, domain.TicketStatusOpen, f.ticket(t, "t-1").Status)
		assert.Empty(t, f.history(t, "t-1"))
	})

	t.Run("should route CLOSED through the closing rule", func(t *testing.T) {
		f := newFixture(t)
		f.addTicket(t, "t-1", baseTime, withStatus(domain.TicketStatusResolved))
		svc := NewTicketService(f.deps())

		_, err := svc.ChangeStatus(ctx, "t-1", domain.TicketStatusClosed, " ")
		assert.True(t, errors.Is(err, apperrors.ErrEmptySolution))

		ticket, err := svc.ChangeStatus(ctx, "t-1", domain.TicketStatusClosed, "replaced cable")
		require.NoError(t, err)
		assert.Equal(t, domain.TicketStatusClosed, ticket.Status)
		assert.Equal(t, "replaced cable", ticket.Solution)
		require.NotNil(t, ticket.ClosedAt)
	})

	t.Run("should reject an unknown status", func(t *testing.T) {
		f := newFixture(t)
		f.addTicket(t, "t-1", baseTime, nil)

		_, err := NewTicketService(f.deps()).ChangeStatus(ctx, "t-1", domain.TicketStatus("ARCHIVED"), "")
		assert.True(t, errors.Is(err, apperrors.ErrValidation))
	})
}

func TestCloseTicket(t *testing.T) {
	ctx := context.Background()

	t.Run("should refuse to close a ticket that is not resolved", func(t *testing.T) {
		f := newFixture(t)
		f.addTicket(t, "t-1", baseTime, withStatus(domain.TicketStatusInProgress))

		_, err := NewTicketService(f.deps()).CloseTicket(ctx, "t-1", "fixed")
		assert.True(t, errors.Is(err, apperrors.ErrInvalidCloseState))

		stored := f.ticket(t, "t-1")
		assert.Equal(t, domain.TicketStatusInProgress, stored.Status)
		assert.Empty(t, stored.Solution)
		assert.Nil(t, stored.ClosedAt)
	})

	t.Run("should close a resolved ticket", func(t *testing.T) {
		f := newFixture(t)
		f.addTicket(t, "t-1", baseTime, withStatus(domain.TicketStatusResolved))
		f.now = baseTime.Add(3 * time.Hour)

		ticket, err := NewTicketService(f.deps()).CloseTicket(ctx, "t-1", "rebooted")
		require.NoError(t, err)
		assert.Equal(t, f.now, *ticket.ClosedAt)

		history := f.history(t, "t-1")
		require.Len(t, history, 1)
		assert.Equal(t, domain.TicketStatusResolved, history[0].OldStatus)
		assert.Equal(t, domain.TicketStatusClosed, history[0].NewStatus)
	})
}

func TestUpdateTicket(t *testing.T) {
	ctx := context.Background()

	t.Run("should recompute deadlines and audit a category change", func(t *testing.T) {
		f := newFixture(t)
		f.addTicket(t, "t-1", baseTime, nil)
		f.now = baseTime.Add(5 * time.Hour)

		ticket, err := NewTicketService(f.deps()).UpdateTicket(ctx, "t-1", TicketUpdateInput{
			Title:      ptr("Laptop screen flickers"),
			CategoryID: ptr(hardwareID),
		})
		require.NoError(t, err)

		assert.Equal(t, "Laptop screen flickers", ticket.Title)
		assert.Equal(t, "Third floor", ticket.Description)
		assert.Equal(t, hardwareID, ticket.CategoryID)
		assert.Equal(t, baseTime.Add(time.Hour), *ticket.ResponseDeadline)
		assert.Equal(t, baseTime.Add(8*time.Hour), *ticket.ResolutionDeadline)

		history := f.history(t, "t-1")
		require.Len(t, history, 1)
		assert.Equal(t, domain.ActorCategoryChanged, history[0].ChangedBy)
		assert.Equal(t, []events.EventType{events.EventTicketCategoryChanged}, f.eventTypes())
	})

	t.Run("should edit text without an audit entry", func(t *testing.T) {
		f := newFixture(t)
		f.addTicket(t, "t-1", baseTime, nil)

		ticket, err := NewTicketService(f.deps()).UpdateTicket(ctx, "t-1", TicketUpdateInput{Description: ptr("second floor")})
		require.NoError(t, err)
		assert.Equal(t, "second floor", ticket.Description)
		assert.Empty(t, f.history(t, "t-1"))
	})

	t.Run("should keep the category of a closed ticket", func(t *testing.T) {
		f := newFixture(t)
		f.addTicket(t, "t-1", baseTime, closedTicket("agent-a", baseTime))

		_, err := NewTicketService(f.deps()).UpdateTicket(ctx, "t-1", TicketUpdateInput{CategoryID: ptr(hardwareID)})
		assert.True(t, errors.Is(err, apperrors.ErrConflict))
		assert.Equal(t, categoryID, f.ticket(t, "t-1").CategoryID)
	})
}

func TestTicketQueries(t *testing.T) {
	ctx := context.Background()

	t.Run("should return history oldest first across calls", func(t *testing.T) {
		f := newFixture(t)
		f.addAgent(t, "agent-a", true)
		f.addTicket(t, "t-1", baseTime, nil)
		svc := NewTicketService(f.deps())

		_, err := NewAssignmentService(f.deps()).AssignLeastBusy(ctx, "t-1")
		require.NoError(t, err)
		f.now = baseTime.Add(time.Hour)
		_, err = svc.ChangeStatus(ctx, "t-1", domain.TicketStatusResolved, "")
		require.NoError(t, err)
		f.now = baseTime.Add(2 * time.Hour)
		_, err = svc.CloseTicket(ctx, "t-1", "done")
		require.NoError(t, err)

		first, err := svc.History(ctx, "t-1")
		require.NoError(t, err)
		second, err := svc.History(ctx, "t-1")
		require.NoError(t, err)

		require.Len(t, first, 3)
		assert.Equal(t, first, second)
		for i := 1; i < len(first); i++ {
			assert.False(t, first[i].CreatedAt.Before(first[i-1].CreatedAt))
		}
		assert.Equal(t, domain.TicketStatusClosed, first[2].NewStatus)
	})

	t.Run("should fail history for an unknown ticket", func(t *testing.T) {
		f := newFixture(t)

		_, err := NewTicketService(f.deps()).History(ctx, "missing")
		assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("should filter tickets by status", func(t *testing.T) {
		f := newFixture(t)
		f.addTicket(t, "t-1", baseTime, nil)
		f.addTicket(t, "t-2", baseTime.Add(time.Minute), withStatus(domain.TicketStatusResolved))

		tickets, err := NewTicketService(f.deps()).ListTickets(ctx, TicketListFilter{Status: ptr(domain.TicketStatusResolved)})
		require.NoError(t, err)
		require.Len(t, tickets, 1)
		assert.Equal(t, "t-2", tickets[0].ID)
	})

	t.Run("should list overdue tickets regardless of status", func(t *testing.T) {
		f := newFixture(t)
		f.addTicket(t, "late", baseTime, nil)
		f.addTicket(t, "late-closed", baseTime, closedTicket("agent-a", baseTime.Add(time.Hour)))
		f.addTicket(t, "recent", baseTime.Add(10*time.Hour), nil)
		f.now = baseTime.Add(12 * time.Hour)

		tickets, err := NewTicketService(f.deps()).ListOverdue(ctx)
		require.NoError(t, err)

		ids := make([]string, 0, len(tickets))
		for _, ticket := range tickets {
			ids = append(ids, ticket.ID)
		}
		assert.ElementsMatch(t, []string{"late", "late-closed"}, ids)
	})
}
