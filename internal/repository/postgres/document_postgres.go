package postgres

import (
	"context"
	"fmt"
	"strings"

	"pdfreview/internal/model"
	"pdfreview/internal/repository"
)

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type DocumentPostgres struct {
	db DBTX
}

// NewDocumentPostgres creates a new DocumentPostgres repository.
func NewDocumentPostgres(db DBTX) *DocumentPostgres {
	return &DocumentPostgres{db: db}
}

var _ repository.DocumentRepository = (*DocumentPostgres)(nil)

const documentColumns = `d.id, d.user_id, COALESCE(u.name, ''), d.file, d.period, d.valid, d.created_at, d.updated_at`

func scanDocument(s scanner) (*model.Document, error) {
	var d model.Document
	if err := s.Scan(
		&d.ID,
		&d.OwnerID,
		&d.OwnerName,
		&d.Locator,
		&d.Period,
		&d.Valid,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserts a new document row and returns the stored record.
func (r *DocumentPostgres) Create(ctx context.Context, doc *model.Document) (*model.Document, error) {
	const q = `
		WITH d AS (
			INSERT INTO documents (id, user_id, file, period, valid, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING *
		)
		SELECT ` + documentColumns + `
		FROM d LEFT JOIN users u ON u.id = d.user_id
	`
	row := r.db.QueryRowContext(ctx, q,
		doc.ID,
		doc.OwnerID,
		doc.Locator,
		doc.Period,
		doc.Valid,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	out, err := scanDocument(row)
	if err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

// FindByID fetches a single document by its ID.
func (r *DocumentPostgres) FindByID(ctx context.Context, id string) (*model.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents d LEFT JOIN users u ON u.id = d.user_id
		WHERE d.id = $1
	`
	d, err := scanDocument(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, mapError(err)
	}
	return d, nil
}

// FindForUpdate fetches a document and locks its row for the rest of the transaction.
// Only the documents row is locked; the users side of the join may be NULL.
func (r *DocumentPostgres) FindForUpdate(ctx context.Context, id string) (*model.Document, error) {
	const q = `
		SELECT ` + documentColumns + `
		FROM documents d LEFT JOIN users u ON u.id = d.user_id
		WHERE d.id = $1
		FOR UPDATE OF d
	`
	d, err := scanDocument(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		return nil, mapError(err)
	}
	return d, nil
}

// Update writes the columns set in ch against the current row and returns the stored record.
func (r *DocumentPostgres) Update(ctx context.Context, id string, ch repository.DocumentChanges) (*model.Document, error) {
	const q = `
		WITH d AS (
			UPDATE documents
			SET file = COALESCE($2, file),
				period = COALESCE($3, period),
				valid = COALESCE($4, valid),
				updated_at = $5
			WHERE id = $1
			RETURNING *
		)
		SELECT ` + documentColumns + `
		FROM d LEFT JOIN users u ON u.id = d.user_id
	`
	out, err := scanDocument(r.db.QueryRowContext(ctx, q,
		id,
		nullable(ch.Locator),
		nullable(ch.Period),
		nullable(ch.Valid),
		ch.UpdatedAt,
	))
	if err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

// List returns documents using LIMIT/OFFSET pagination and a total count.
func (r *DocumentPostgres) List(ctx context.Context, f repository.DocumentFilter, pq repository.PageQuery) (*repository.PageResult[model.Document], error) {
	where, args := documentWhere(f)

	var total int
	qCount := `SELECT COUNT(*) FROM documents d` + where
	if err := r.db.QueryRowContext(ctx, qCount, args...).Scan(&total); err != nil {
		return nil, err
	}

	qList := fmt.Sprintf(`
		SELECT %s
		FROM documents d LEFT JOIN users u ON u.id = d.user_id%s
		ORDER BY d.created_at DESC, d.id DESC
		LIMIT $%d OFFSET $%d
	`, documentColumns, where, len(args)+1, len(args)+2)
	rows, err := r.db.QueryContext(ctx, qList, append(args, pq.Limit, pq.Offset)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Document, 0)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Document]{
		Items: items,
		Total: total,
	}, nil
}

// Delete removes a document by ID. It does not return an error if the row does not exist.
func (r *DocumentPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM documents WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

func documentWhere(f repository.DocumentFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.OwnerID != "" {
		add("d.user_id = $%d", f.OwnerID)
	}
	if f.From != nil {
		add("d.period >= $%d", *f.From)
	}
	if f.To != nil {
		add("d.period <= $%d", *f.To)
	}
	if f.Month != 0 {
		add("EXTRACT(MONTH FROM d.period) = $%d", f.Month)
	}
	if f.Valid != nil {
		add("d.valid = $%d", *f.Valid)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// nullable passes a nil pointer as SQL NULL.
func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
