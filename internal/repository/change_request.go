package repository

import (
	"context"
	"time"

	"pdfreview/internal/model"
)

// ChangeRequestRepository defines data access for change requests.
type ChangeRequestRepository interface {
	// Create inserts a request. Implementations must reject a second PENDING
	// request for the same (document, kind) with ErrDuplicate.
	Create(ctx context.Context, req *model.ChangeRequest) (*model.ChangeRequest, error)

	// FindByID returns a request by its ID, or ErrNotFound.
	FindByID(ctx context.Context, id string) (*model.ChangeRequest, error)

	// FindForUpdate is FindByID that also locks the row until the enclosing transaction ends.
	FindForUpdate(ctx context.Context, id string) (*model.ChangeRequest, error)

	// HasPending reports whether a PENDING request of kind exists for the document.
	HasPending(ctx context.Context, documentID string, kind model.RequestKind) (bool, error)

	// UpdateStatus moves a request from one status to another and stamps updated_at with at.
	// Returns ErrNoTransition if the row is missing or not in status from.
	UpdateStatus(ctx context.Context, id string, from, to model.RequestStatus, at time.Time) (*model.ChangeRequest, error)

	// List returns a page of requests, newest first, with requester names filled in.
	List(ctx context.Context, pq PageQuery) (*PageResult[model.ChangeRequest], error)
}
