package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound is returned when a lookup or update matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate record")
)

const uniqueViolation = "23505"

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store bundles the repositories bound to one database handle.
type Store struct {
	Tickets     TicketRepository
	Agents      AgentRepository
	Categories  CategoryRepository
	SLAs        SLARepository
	Users       UserRepository
	History     TicketHistoryRepository
	Escalations TicketEscalationRepository
}

// NewStore binds every Postgres repository to db.
func NewStore(db DBTX) Store {
	return Store{
		Tickets:     NewTicketRepository(db),
		Agents:      NewAgentRepository(db),
		Categories:  NewCategoryRepository(db),
		SLAs:        NewSLARepository(db),
		Users:       NewUserRepository(db),
		History:     NewTicketHistoryRepository(db),
		Escalations: NewTicketEscalationRepository(db),
	}
}

// UnitOfWork runs a workflow step atomically. fn receives a Store bound to the unit;
// returning an error rolls every write back.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, store Store) error) error
}

type postgresUnitOfWork struct {
	pool *pgxpool.Pool
}

// NewPostgresUnitOfWork wraps each unit in a pgx transaction.
func NewPostgresUnitOfWork(pool *pgxpool.Pool) UnitOfWork {
	return &postgresUnitOfWork{pool: pool}
}

func (u *postgresUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, store Store) error) (err error) {
	tx, err := u.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(ctx, NewStore(tx)); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func writeError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}
