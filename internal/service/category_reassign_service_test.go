package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
	apperrors "github.com/spec-kit/sla-ticket-service/pkg/util/errorutil"
)

func TestBulkReassignCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("should move open tickets and recompute deadlines from creation time", func(t *testing.T) {
		f := newFixture(t)
		created := baseTime.Add(-48 * time.Hour)
		f.addTicket(t, "open", created, nil)
		f.addTicket(t, "held", created, withStatus(domain.TicketStatusOnHold))
		f.addTicket(t, "done", created, closedTicket("agent-a", baseTime))
		f.addTicket(t, "theirs", created, func(ticket *domain.Ticket) { ticket.UserID = otherUserID })

		updated, err := NewCategoryReassignService(f.deps()).BulkReassignCategory(ctx, userID, categoryID, hardwareID)
		require.NoError(t, err)
		assert.Equal(t, 2, updated)

		for _, id := range []string{"open", "held"} {
			ticket := f.ticket(t, id)
			assert.Equal(t, hardwareID, ticket.CategoryID)
			require.NotNil(t, ticket.ResponseDeadline)
			require.NotNil(t, ticket.ResolutionDeadline)
			assert.Equal(t, created.Add(time.Hour), *ticket.ResponseDeadline)
			assert.Equal(t, created.Add(8*time.Hour), *ticket.ResolutionDeadline)
			assert.Equal(t, created, ticket.UpdatedAt)

			history := f.history(t, id)
			require.Len(t, history, 1)
			assert.Equal(t, domain.ActorCategoryChanged, history[0].ChangedBy)
			assert.Contains(t, history[0].Reason, categoryID)
			assert.Contains(t, history[0].Reason, hardwareID)
		}

		done := f.ticket(t, "done")
		assert.Equal(t, categoryID, done.CategoryID)
		assert.Empty(t, f.history(t, "done"))
		assert.Equal(t, categoryID, f.ticket(t, "theirs").CategoryID)
	})

	t.Run("should clear deadlines when the new category has no SLA", func(t *testing.T) {
		f := newFixture(t)
		f.addTicket(t, "open", baseTime, nil)

		updated, err := NewCategoryReassignService(f.deps()).BulkReassignCategory(ctx, userID, categoryID, noSLACatID)
		require.NoError(t, err)
		assert.Equal(t, 1, updated)

		ticket := f.ticket(t, "open")
		assert.Nil(t, ticket.ResponseDeadline)
		assert.Nil(t, ticket.ResolutionDeadline)
	})

	t.Run("should fail when the new category does not exist", func(t *testing.T) {
		f := newFixture(t)
		f.addTicket(t, "open", baseTime, nil)

		_, err := NewCategoryReassignService(f.deps()).BulkReassignCategory(ctx, userID, categoryID, "cat-unknown")
		assert.True(t, errors.Is(err, apperrors.ErrNotFound))
		assert.Equal(t, categoryID, f.ticket(t, "open").CategoryID)
	})

	t.Run("should count only tickets that were saved", func(t *testing.T) {
		f := newFixture(t)
		f.addTicket(t, "t-1", baseTime, nil)
		f.addTicket(t, "t-2", baseTime.Add(time.Minute), nil)

		svc := NewCategoryReassignService(f.depsWith(faultyUnitOfWork{inner: f.store, failID: "t-1"}))
		updated, err := svc.BulkReassignCategory(ctx, userID, categoryID, hardwareID)
		require.NoError(t, err)
		assert.Equal(t, 1, updated)
		assert.Equal(t, categoryID, f.ticket(t, "t-1").CategoryID)
		assert.Equal(t, hardwareID, f.ticket(t, "t-2").CategoryID)
	})

	t.Run("should reapply the current category when source and target match", func(t *testing.T) {
		f := newFixture(t)
		f.addTicket(t, "open", baseTime, func(tk *domain.Ticket) {
			tk.ResponseDeadline, tk.ResolutionDeadline = nil, nil
		})
		f.addTicket(t, "closed", baseTime.Add(time.Minute), closedTicket("agent-a", baseTime))

		updated, err := NewCategoryReassignService(f.deps()).BulkReassignCategory(ctx, userID, categoryID, categoryID)
		require.NoError(t, err)
		assert.Equal(t, 1, updated)

		ticket := f.ticket(t, "open")
		assert.Equal(t, categoryID, ticket.CategoryID)
		require.NotNil(t, ticket.ResolutionDeadline)
		assert.Equal(t, baseTime.Add(24*time.Hour), *ticket.ResolutionDeadline)

		history := f.history(t, "open")
		require.Len(t, history, 1)
		assert.Equal(t, domain.ActorCategoryChanged, history[0].ChangedBy)
		assert.Empty(t, f.history(t, "closed"))
	})

	t.Run("should keep the auto-close clock of moved tickets", func(t *testing.T) {
		f := newFixture(t)
		resolvedAt := baseTime.Add(time.Hour)
		f.addTicket(t, "resolved", baseTime, func(tk *domain.Ticket) {
			tk.Status = domain.TicketStatusResolved
			tk.UpdatedAt = resolvedAt
		})

		updated, err := NewCategoryReassignService(f.deps()).BulkReassignCategory(ctx, userID, categoryID, hardwareID)
		require.NoError(t, err)
		assert.Equal(t, 1, updated)
		assert.Equal(t, resolvedAt, f.ticket(t, "resolved").UpdatedAt)
	})
}
