package repository

import (
	"context"
	"time"

	"pdfreview/internal/model"
)

// DocumentRepository defines data access for documents using SQL queries only.
// No business logic here: strictly persistence operations.
type DocumentRepository interface {
	// Create inserts a new document record and returns the stored row.
	Create(ctx context.Context, doc *model.Document) (*model.Document, error)

	// FindByID returns a document by its ID, or ErrNotFound.
	FindByID(ctx context.Context, id string) (*model.Document, error)

	// FindForUpdate is FindByID that also locks the row until the enclosing transaction ends.
	FindForUpdate(ctx context.Context, id string) (*model.Document, error)

	// Update writes only the columns set in ch and returns the stored record.
	// Returns ErrNotFound if the row does not exist.
	Update(ctx context.Context, id string, ch DocumentChanges) (*model.Document, error)

	// List returns a page of documents matching the filter, newest first, and the total count.
	List(ctx context.Context, f DocumentFilter, pq PageQuery) (*PageResult[model.Document], error)

	// Delete removes a document by ID. It returns nil if the row was deleted or did not exist.
	Delete(ctx context.Context, id string) error
}

// DocumentChanges is a partial document update. Nil fields keep the stored value,
// so concurrent writers touching different columns do not overwrite each other.
type DocumentChanges struct {
	Locator   *string
	Period    *time.Time
	Valid     *bool
	UpdatedAt time.Time
}

// DocumentFilter narrows a document listing. Zero values mean "no constraint".
// From and To are inclusive calendar dates. Month matches the period's month in any year.
type DocumentFilter struct {
	OwnerID string
	From    *time.Time
	To      *time.Time
	Month   int
	Valid   *bool
}
