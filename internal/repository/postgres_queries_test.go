package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/sla-ticket-service/internal/domain"
)

var errRecorded = errors.New("statement recorded")

// recordingDB captures the last statement and fails it so no rows are scanned.
type recordingDB struct {
	sql  string
	args []any
}

func (d *recordingDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	d.sql, d.args = sql, args
	return pgconn.CommandTag{}, errRecorded
}

func (d *recordingDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	d.sql, d.args = sql, args
	return nil, errRecorded
}

func (d *recordingDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	d.sql, d.args = sql, args
	return failedRow{}
}

type failedRow struct{}

func (failedRow) Scan(...any) error { return errRecorded }

func TestTicketListWithFilterSQL(t *testing.T) {
	ctx := context.Background()
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)
	before := from.Add(time.Hour)
	user, agent, category := "user-1", "agent-1", "cat-1"

	t.Run("should number placeholders in clause order", func(t *testing.T) {
		db := &recordingDB{}
		_, err := NewTicketRepository(db).ListWithFilter(ctx, TicketFilter{
			UserID:        &user,
			AgentID:       &agent,
			CategoryID:    &category,
			Statuses:      []domain.TicketStatus{domain.TicketStatusOpen, domain.TicketStatusReopened},
			CreatedFrom:   &from,
			CreatedTo:     &to,
			UpdatedBefore: &before,
			Limit:         10,
			Offset:        20,
		})
		require.ErrorIs(t, err, errRecorded)

		assert.Contains(t, db.sql, "WHERE 1=1 AND user_id=$1 AND agent_id=$2 AND category_id=$3 AND status IN ($4,$5) AND created_at >= $6 AND created_at <= $7 AND updated_at < $8")
		assert.Contains(t, db.sql, "ORDER BY created_at ASC, id ASC LIMIT 10 OFFSET 20")
		assert.Equal(t, []any{user, agent, category, domain.TicketStatusOpen, domain.TicketStatusReopened, from, to, before}, db.args)
	})

	t.Run("should list everything without clauses or limit", func(t *testing.T) {
		db := &recordingDB{}
		_, err := NewTicketRepository(db).ListWithFilter(ctx, TicketFilter{})
		require.ErrorIs(t, err, errRecorded)
		assert.Contains(t, db.sql, "WHERE 1=1 ORDER BY created_at ASC, id ASC")
		assert.NotContains(t, db.sql, "LIMIT")
		assert.Empty(t, db.args)
	})

	t.Run("should select resolved tickets untouched since the threshold", func(t *testing.T) {
		db := &recordingDB{}
		_, err := NewTicketRepository(db).ListResolvedBefore(ctx, before)
		require.ErrorIs(t, err, errRecorded)
		assert.Contains(t, db.sql, "status IN ($1) AND updated_at < $2")
		assert.Equal(t, []any{domain.TicketStatusResolved, before}, db.args)
	})
}

func TestTicketLockingSQL(t *testing.T) {
	db := &recordingDB{}
	_, err := NewTicketRepository(db).GetByIDForUpdate(context.Background(), "t-1")
	require.ErrorIs(t, err, errRecorded)
	assert.Contains(t, db.sql, "WHERE id=$1 FOR UPDATE")
	assert.Equal(t, []any{"t-1"}, db.args)
}

func TestAuditListingSQLOrdersByInsertion(t *testing.T) {
	ctx := context.Background()

	db := &recordingDB{}
	_, err := NewTicketHistoryRepository(db).ListByTicket(ctx, "t-1")
	require.ErrorIs(t, err, errRecorded)
	assert.Contains(t, db.sql, "WHERE ticket_id=$1 ORDER BY created_at ASC, seq ASC")
	assert.Equal(t, []any{"t-1"}, db.args)

	db = &recordingDB{}
	_, err = NewTicketEscalationRepository(db).ListByTicket(ctx, "t-1")
	require.ErrorIs(t, err, errRecorded)
	assert.Contains(t, db.sql, "WHERE ticket_id=$1 ORDER BY created_at ASC, seq ASC")
}

func TestAgentListSQL(t *testing.T) {
	db := &recordingDB{}
	_, err := NewAgentRepository(db).ListActiveExcluding(context.Background(), "agent-1")
	require.ErrorIs(t, err, errRecorded)
	assert.Contains(t, db.sql, "WHERE active_flag=$1 AND id<>$2 ORDER BY id ASC")
	assert.Equal(t, []any{true, "agent-1"}, db.args)
}
