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

func resolvedAt(updatedAt time.Time) func(*domain.Ticket) {
	return func(t *domain.Ticket) {
		t.Status = domain.TicketStatusResolved
		t.UpdatedAt = updatedAt
	}
}

func TestAutoCloseResolved(t *testing.T) {
	ctx := context.Background()
	day := 24 * time.Hour

	t.Run("should close tickets resolved longer than the threshold", func(t *testing.T) {
		f := newFixture(t)
		f.addTicket(t, "stale", baseTime, resolvedAt(baseTime))
		f.addTicket(t, "fresh", baseTime, resolvedAt(baseTime.Add(7*day)))
		f.addTicket(t, "working", baseTime, withStatus(domain.TicketStatusInProgress))
		f.now = baseTime.Add(10 * day)

		closed, err := NewSweepService(f.deps()).AutoCloseResolved(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, 1, closed)

		stale := f.ticket(t, "stale")
		assert.Equal(t, domain.TicketStatusClosed, stale.Status)
		require.NotNil(t, stale.ClosedAt)
		assert.Equal(t, f.now, *stale.ClosedAt)
		assert.Contains(t, stale.Solution, "7")

		history := f.history(t, "stale")
		require.Len(t, history, 1)
		assert.Equal(t, domain.ActorAutoClosed, history[0].ChangedBy)
		assert.Equal(t, domain.TicketStatusResolved, history[0].OldStatus)
		assert.Equal(t, domain.TicketStatusClosed, history[0].NewStatus)
		assert.Equal(t, "Auto-closed after 7 days in RESOLVED", history[0].Reason)

		assert.Equal(t, domain.TicketStatusResolved, f.ticket(t, "fresh").Status)
		assert.Equal(t, domain.TicketStatusInProgress, f.ticket(t, "working").Status)
		assert.Equal(t, []events.EventType{events.EventTicketAutoClosed}, f.eventTypes())
		assert.Equal(t, int64(1), f.metrics.Snapshot().Workflow["auto_close|closed"])
	})

	t.Run("should keep going when one ticket fails", func(t *testing.T) {
		f := newFixture(t)
		f.addTicket(t, "t-1", baseTime, resolvedAt(baseTime))
		f.addTicket(t, "t-2", baseTime.Add(time.Minute), resolvedAt(baseTime))
		f.addTicket(t, "t-3", baseTime.Add(2*time.Minute), resolvedAt(baseTime))
		f.now = baseTime.Add(30 * day)

		svc := NewSweepService(f.depsWith(faultyUnitOfWork{inner: f.store, failID: "t-2"}))
		closed, err := svc.AutoCloseResolved(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, 2, closed)

		assert.Equal(t, domain.TicketStatusClosed, f.ticket(t, "t-1").Status)
		assert.Equal(t, domain.TicketStatusResolved, f.ticket(t, "t-2").Status)
		assert.Empty(t, f.history(t, "t-2"))
		assert.Equal(t, domain.TicketStatusClosed, f.ticket(t, "t-3").Status)
		assert.Equal(t, int64(1), f.metrics.Snapshot().Workflow["auto_close|failed"])
	})

	t.Run("should return zero when nothing qualifies", func(t *testing.T) {
		f := newFixture(t)
		f.addTicket(t, "t-1", baseTime, resolvedAt(baseTime))
		f.now = baseTime.Add(day)

		closed, err := NewSweepService(f.deps()).AutoCloseResolved(ctx, 7)
		require.NoError(t, err)
		assert.Zero(t, closed)
	})

	t.Run("should reject a non-positive threshold", func(t *testing.T) {
		f := newFixture(t)

		_, err := NewSweepService(f.deps()).AutoCloseResolved(ctx, 0)
		assert.True(t, errors.Is(err, apperrors.ErrValidation))
	})

	t.Run("should stop on a cancelled context", func(t *testing.T) {
		f := newFixture(t)
		f.addTicket(t, "t-1", baseTime, resolvedAt(baseTime))
		f.now = baseTime.Add(30 * day)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		closed, err := NewSweepService(f.deps()).AutoCloseResolved(cancelled, 7)
		assert.Error(t, err)
		assert.Zero(t, closed)
		assert.Equal(t, domain.TicketStatusResolved, f.ticket(t, "t-1").Status)
	})
}
