package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Hanamant-YB/Land-Clearing-and-Plantation-Platform-sub000/internal/models"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pick returns tx when set, else the pool.
func pick(pool querier, tx pgx.Tx) querier {
	if tx != nil {
		return tx
	}
	return pool
}

// mapErr translates driver errors into the models taxonomy.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return models.ErrDuplicate
	}
	return err
}

// staleOnNoRows maps a guarded UPDATE that matched nothing to ErrStaleState.
func staleOnNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrStaleState
	}
	return mapErr(err)
}
