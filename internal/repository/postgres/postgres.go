package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"pdfreview/internal/repository"
)

const pgUniqueViolation = "23505"

// DBTX is implemented by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// mapError translates driver errors into repository errors.
// sql.ErrNoRows becomes ErrNotFound and a unique violation becomes ErrDuplicate.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return repository.ErrDuplicate
	}
	return err
}

// Store is a PostgreSQL implementation of repository.Store.
type Store struct {
	db        *sql.DB
	documents *DocumentPostgres
	requests  *ChangeRequestPostgres
}

// NewStore wires the PostgreSQL repositories around a shared connection pool.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:        db,
		documents: NewDocumentPostgres(db),
		requests:  NewChangeRequestPostgres(db),
	}
}

var _ repository.Store = (*Store)(nil)

func (s *Store) Documents() repository.DocumentRepository     { return s.documents }
func (s *Store) Requests() repository.ChangeRequestRepository { return s.requests }

func (s *Store) PingContext(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// WithinTx runs fn against repositories bound to a single *sql.Tx.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(txRepos{
		documents: NewDocumentPostgres(tx),
		requests:  NewChangeRequestPostgres(tx),
	}); err != nil {
		return err
	}

	return tx.Commit()
}

type txRepos struct {
	documents *DocumentPostgres
	requests  *ChangeRequestPostgres
}

func (t txRepos) Documents() repository.DocumentRepository     { return t.documents }
func (t txRepos) Requests() repository.ChangeRequestRepository { return t.requests }
