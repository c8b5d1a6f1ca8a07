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

func TestAssignLeastBusy(t *testing.T) {
	ctx := context.Background()

	t.Run("should pick the agent with the fewest open tickets and start work", func(t *testing.T) {
		f := newFixture(t)
		f.addAgent(t, "agent-a", true)
		f.addAgent(t, "agent-z", true)
		f.addTicket(t, "busy-1", baseTime, assignedTo("agent-a", domain.TicketStatusInProgress))
		f.addTicket(t, "busy-2", baseTime, assignedTo("agent-a", domain.TicketStatusOnHold))
		f.addTicket(t, "t-1", baseTime, nil)

		ticket, err := NewAssignmentService(f.deps()).AssignLeastBusy(ctx, "t-1")
		require.NoError(t, err)

		assert.Equal(t, "agent-z", ticket.AssignedAgentID())
		assert.Equal(t, domain.TicketStatusInProgress, ticket.Status)
		assert.Equal(t, baseTime, ticket.UpdatedAt)

		stored := f.ticket(t, "t-1")
		assert.Equal(t, "agent-z", stored.AssignedAgentID())

		history := f.history(t, "t-1")
		require.Len(t, history, 1)
		assert.Equal(t, domain.TicketStatusOpen, history[0].OldStatus)
		assert.Equal(t, domain.TicketStatusInProgress, history[0].NewStatus)
		assert.Equal(t, domain.ActorSystem, history[0].ChangedBy)
		assert.Equal(t, "System auto-assignment", history[0].Reason)

		assert.Equal(t, []events.EventType{events.EventTicketAssigned, events.EventTicketStatusChanged}, f.eventTypes())
	})

	t.Run("should break ties by lowest agent id", func(t *testing.T) {
		f := newFixture(t)
		f.addAgent(t, "agent-c", true)
		f.addAgent(t, "agent-b", true)
		f.addAgent(t, "agent-d", true)
		f.addTicket(t, "t-1", baseTime, nil)

		ticket, err := NewAssignmentService(f.deps()).AssignLeastBusy(ctx, "t-1")
		require.NoError(t, err)
		assert.Equal(t, "agent-b", ticket.AssignedAgentID())
	})

	t.Run("should not count closed tickets as workload", func(t *testing.T) {
		f := newFixture(t)
		f.addAgent(t, "agent-a", true)
		f.addAgent(t, "agent-b", true)
		f.addTicket(t, "done-1", baseTime, closedTicket("agent-a", baseTime))
		f.addTicket(t, "done-2", baseTime, closedTicket("agent-a", baseTime))
		f.addTicket(t, "open-1", baseTime, assignedTo("agent-b", domain.TicketStatusInProgress))
		f.addTicket(t, "t-1", baseTime, nil)

		ticket, err := NewAssignmentService(f.deps()).AssignLeastBusy(ctx, "t-1")
		require.NoError(t, err)
		assert.Equal(t, "agent-a", ticket.AssignedAgentID())
	})

	t.Run("should skip inactive agents", func(t *testing.T) {
		f := newFixture(t)
		f.addAgent(t, "agent-a", false)
		f.addAgent(t, "agent-b", true)
		f.addTicket(t, "t-1", baseTime, nil)

		ticket, err := NewAssignmentService(f.deps()).AssignLeastBusy(ctx, "t-1")
		require.NoError(t, err)
		assert.Equal(t, "agent-b", ticket.AssignedAgentID())
	})

	t.Run("should fail when the ticket already has an agent", func(t *testing.T) {
		f := newFixture(t)
		f.addAgent(t, "agent-a", true)
		f.addTicket(t, "t-1", baseTime, assignedTo("agent-a", domain.TicketStatusOpen))

		_, err := NewAssignmentService(f.deps()).AssignLeastBusy(ctx, "t-1")
		assert.True(t, errors.Is(err, apperrors.ErrAlreadyAssigned))
		assert.Empty(t, f.history(t, "t-1"))
	})

	t.Run("should fail when no agent is active", func(t *testing.T) {
		f := newFixture(t)
		f.addAgent(t, "agent-a", false)
		f.addTicket(t, "t-1", baseTime, nil)

		_, err := NewAssignmentService(f.deps()).AssignLeastBusy(ctx, "t-1")
		assert.True(t, errors.Is(err, apperrors.ErrNoAgentsAvailable))
	})

	t.Run("should fail for an unknown ticket", func(t *testing.T) {
		f := newFixture(t)
		f.addAgent(t, "agent-a", true)

		_, err := NewAssignmentService(f.deps()).AssignLeastBusy(ctx, "missing")
		assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("should roll back the assignment when the ticket cannot start work", func(t *testing.T) {
		f := newFixture(t)
		f.addAgent(t, "agent-a", true)
		f.addTicket(t, "t-1", baseTime, withStatus(domain.TicketStatusResolved))

		_, err := NewAssignmentService(f.deps()).AssignLeastBusy(ctx, "t-1")
		assert.True(t, errors.Is(err, apperrors.ErrInvalidTransition))

		stored := f.ticket(t, "t-1")
		assert.False(t, stored.IsAssigned())
		assert.Equal(t, domain.TicketStatusResolved, stored.Status)
		assert.Empty(t, f.history(t, "t-1"))
		assert.Empty(t, f.eventTypes())
	})
}

func TestAssignAgent(t *testing.T) {
	ctx := context.Background()

	t.Run("should change the owner without touching the status", func(t *testing.T) {
		f := newFixture(t)
		f.addAgent(t, "agent-a", true)
		f.addAgent(t, "agent-b", true)
		f.addTicket(t, "t-1", baseTime, assignedTo("agent-a", domain.TicketStatusOnHold))
		f.now = baseTime.Add(2 * time.Hour)

		ticket, err := NewAssignmentService(f.deps()).AssignAgent(ctx, "t-1", "agent-b")
		require.NoError(t, err)

		assert.Equal(t, "agent-b", ticket.AssignedAgentID())
		assert.Equal(t, domain.TicketStatusOnHold, ticket.Status)
		assert.Equal(t, f.now, ticket.UpdatedAt)

		history := f.history(t, "t-1")
		require.Len(t, history, 1)
		assert.Equal(t, domain.ActorStaff, history[0].ChangedBy)
		assert.Equal(t, domain.TicketStatusOnHold, history[0].OldStatus)
	})

	t.Run("should reject an inactive agent", func(t *testing.T) {
		f := newFixture(t)
		f.addAgent(t, "agent-a", false)
		f.addTicket(t, "t-1", baseTime, nil)

		_, err := NewAssignmentService(f.deps()).AssignAgent(ctx, "t-1", "agent-a")
		assert.True(t, errors.Is(err, apperrors.ErrConflict))
	})

	t.Run("should reject an unknown agent", func(t *testing.T) {
		f := newFixture(t)
		f.addTicket(t, "t-1", baseTime, nil)

		_, err := NewAssignmentService(f.deps()).AssignAgent(ctx, "t-1", "ghost")
		assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	})
}
