package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"pdfreview/internal/model"
	"pdfreview/internal/repository"
)

// ChangeRequestPostgres is a PostgreSQL implementation of repository.ChangeRequestRepository.
// Pending uniqueness per (document, kind) is enforced by the uq_change_requests_pending index.
type ChangeRequestPostgres struct {
	db DBTX
}

// NewChangeRequestPostgres creates a new ChangeRequestPostgres repository.
func NewChangeRequestPostgres(db DBTX) *ChangeRequestPostgres {
	return &ChangeRequestPostgres{db: db}
}

var _ repository.ChangeRequestRepository = (*ChangeRequestPostgres)(nil)

const requestColumns = `r.id, r.user_id, COALESCE(u.name, ''), r.document_id, r.kind, r.new_period, r.new_file, r.status, r.created_at, r.updated_at`

func scanChangeRequest(s scanner) (*model.ChangeRequest, error) {
	var (
		cr         model.ChangeRequest
		newPeriod  sql.NullTime
		newLocator sql.NullString
	)
	if err := s.Scan(
		&cr.ID,
		&cr.RequesterID,
		&cr.RequesterName,
		&cr.DocumentID,
		&cr.Kind,
		&newPeriod,
		&newLocator,
		&cr.Status,
		&cr.CreatedAt,
		&cr.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if newPeriod.Valid {
		t := newPeriod.Time
		cr.NewPeriod = &t
	}
	if newLocator.Valid {
		s := newLocator.String
		cr.NewLocator = &s
	}
	return &cr, nil
}

// Create inserts a new request row and returns the stored record.
func (r *ChangeRequestPostgres) Create(ctx context.Context, req *model.ChangeRequest) (*model.ChangeRequest, error) {
	const q = `
		WITH r AS (
			INSERT INTO change_requests (id, user_id, document_id, kind, new_period, new_file, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING *
		)
		SELECT ` + requestColumns + `
		FROM r LEFT JOIN users u ON u.id = r.user_id
	`
	var (
		newPeriod  sql.NullTime
		newLocator sql.NullString
	)
	if req.NewPeriod != nil {
		newPeriod = sql.NullTime{Time: *req.NewPeriod, Valid: true}
	}
	if req.NewLocator != nil {
		newLocator = sql.NullString{String: *req.NewLocator, Valid: true}
	}

	out, err := scanChangeRequest(r.db.QueryRowContext(ctx, q,
		req.ID,
		req.RequesterID,
		req.DocumentID,
		req.Kind,
		newPeriod,
		newLocator,
		req.Status,
		req.CreatedAt,
		req.UpdatedAt,
	))
	if err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

// FindByID fetches a single request by its ID.
func (r *ChangeRequestPostgres) FindByID(ctx context.Context, id string) (*model.ChangeRequest, error) {
	const q = `
		SELECT ` + requestColumns + `
		FROM change_requests r LEFT JOIN users u ON u.id = r.user_id
		WHERE r.id = $1
	`
	cr, err := scanChangeRequest(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, mapError(err)
	}
	return cr, nil
}

// FindForUpdate fetches a request and holds a row lock on it.
// Outside a transaction the lock is released as soon as the statement completes.
func (r *ChangeRequestPostgres) FindForUpdate(ctx context.Context, id string) (*model.ChangeRequest, error) {
	const q = `
		SELECT ` + requestColumns + `
		FROM change_requests r LEFT JOIN users u ON u.id = r.user_id
		WHERE r.id = $1
		FOR UPDATE OF r
	`
	cr, err := scanChangeRequest(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, mapError(err)
	}
	return cr, nil
}

// HasPending reports whether a PENDING request of the given kind exists for a document.
func (r *ChangeRequestPostgres) HasPending(ctx context.Context, documentID string, kind model.RequestKind) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM change_requests
			WHERE document_id = $1 AND kind = $2 AND status = 'PENDING'
		)
	`
	var exists bool
	if err := r.db.QueryRowContext(ctx, q, documentID, kind).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// UpdateStatus performs a conditional status transition.
func (r *ChangeRequestPostgres) UpdateStatus(ctx context.Context, id string, from, to model.RequestStatus, at time.Time) (*model.ChangeRequest, error) {
	const q = `
		WITH r AS (
			UPDATE change_requests
			SET status = $3, updated_at = $4
			WHERE id = $1 AND status = $2
			RETURNING *
		)
		SELECT ` + requestColumns + `
		FROM r LEFT JOIN users u ON u.id = r.user_id
	`
	cr, err := scanChangeRequest(r.db.QueryRowContext(ctx, q, id, from, to, at))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNoTransition
		}
		return nil, err
	}
	return cr, nil
}

// List returns requests using LIMIT/OFFSET pagination and a total count.
func (r *ChangeRequestPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.ChangeRequest], error) {
	const qCount = `SELECT COUNT(*) FROM change_requests`
	var total int
	if err := r.db.QueryRowContext(ctx, qCount).Scan(&total); err != nil {
		return nil, err
	}

	const qList = `
		SELECT ` + requestColumns + `
		FROM change_requests r LEFT JOIN users u ON u.id = r.user_id
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, qList, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.ChangeRequest, 0)
	for rows.Next() {
		cr, err := scanChangeRequest(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *cr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.ChangeRequest]{
		Items: items,
		Total: total,
	}, nil
}
