package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"pdfreview/internal/model"
	"pdfreview/internal/repository"
)

var tracer = otel.Tracer("pdfreview/internal/service")

// RequestListResult is the service-level DTO for paginated change requests.
type RequestListResult struct {
	Items      []model.ChangeRequest `json:"data"`
	Pagination model.Pagination      `json:"pagination"`
}

// Resolution is the outcome of resolving a change request.
// Document is set only when an approval mutated it.
type Resolution struct {
	Request  model.ChangeRequest `json:"request"`
	Document *model.Document     `json:"pdf,omitempty"`
}

// ModerationService governs the change request state machine.
// PENDING moves to APPROVED or CANCELLED exactly once; both are terminal.
type ModerationService interface {
	// CreateChangeRequest records a PENDING request from the document owner.
	CreateChangeRequest(ctx context.Context, callerID, documentID string, payload ChangePayload) (*model.ChangeRequest, error)

	// ResolveChangeRequest approves or cancels a PENDING request. Administrator
	// capability is checked by the caller. An approval applies the change to the
	// document in the same transaction as the status update.
	ResolveChangeRequest(ctx context.Context, requestID string, decision model.RequestStatus) (*Resolution, error)

	// ListRequests returns requests newest first.
	ListRequests(ctx context.Context, page, limit int) (*RequestListResult, error)

	// GetRequest returns a single request by ID.
	GetRequest(ctx context.Context, requestID string) (*model.ChangeRequest, error)
}

// Recorder receives moderation events for metrics.
type Recorder interface {
	Submitted(kind model.RequestKind)
	Resolved(kind model.RequestKind, decision model.RequestStatus)
}

type noopRecorder struct{}

func (noopRecorder) Submitted(model.RequestKind)                     {}
func (noopRecorder) Resolved(model.RequestKind, model.RequestStatus) {}

// FileDiscarder removes stored objects that no document references.
type FileDiscarder interface {
	DiscardFile(ctx context.Context, locator string)
}

type noopDiscarder struct{}

func (noopDiscarder) DiscardFile(context.Context, string) {}

// Paging bounds list requests.
type Paging struct {
	DefaultLimit int
	MaxLimit     int
}

func (p Paging) normalize(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = p.DefaultLimit
	}
	if limit < 1 {
		limit = 10
	}
	if p.MaxLimit > 0 && limit > p.MaxLimit {
		limit = p.MaxLimit
	}
	return page, limit
}

// ModerationOption customizes a ModerationService.
type ModerationOption func(*moderationService)

// WithRecorder reports submissions and resolutions to r.
func WithRecorder(r Recorder) ModerationOption {
	return func(s *moderationService) { s.recorder = r }
}

// WithDiscarder reclaims the replacement file of a cancelled EDIT request.
func WithDiscarder(d FileDiscarder) ModerationOption {
	return func(s *moderationService) { s.discarder = d }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) ModerationOption {
	return func(s *moderationService) { s.now = now }
}

type moderationService struct {
	store     repository.Store
	logger    *slog.Logger
	paging    Paging
	recorder  Recorder
	discarder FileDiscarder
	now       func() time.Time
}

// NewModerationService constructs a ModerationService over the document store.
func NewModerationService(store repository.Store, logger *slog.Logger, paging Paging, opts ...ModerationOption) ModerationService {
	s := &moderationService{
		store:     store,
		logger:    logger.With("component", "moderation"),
		paging:    paging,
		recorder:  noopRecorder{},
		discarder: noopDiscarder{},
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *moderationService) CreateChangeRequest(ctx context.Context, callerID, documentID string, payload ChangePayload) (_ *model.ChangeRequest, err error) {
	ctx, span := tracer.Start(ctx, "moderation.CreateChangeRequest",
		trace.WithAttributes(attribute.String("document.id", documentID)))
	defer func() { endSpan(span, err) }()

	if documentID == "" {
		return nil, validationError("missing 'pdfId'")
	}
	if _, err := uuid.Parse(documentID); err != nil {
		return nil, validationError("invalid 'pdfId' format")
	}
	if payload == nil {
		return nil, validationError("missing request payload")
	}
	if err := payload.validate(); err != nil {
		return nil, err
	}
	kind := payload.Kind()
	span.SetAttributes(attribute.String("request.kind", string(kind)))

	doc, err := s.store.Documents().FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, "document not found")
		}
		return nil, storageError("failed to load document", err)
	}
	if err := AssertOwner(doc, callerID); err != nil {
		return nil, err
	}

	pending, err := s.store.Requests().HasPending(ctx, documentID, kind)
	if err != nil {
		return nil, storageError("failed to check pending requests", err)
	}
	if pending {
		return nil, pendingConflict(kind)
	}

	now := s.now()
	req := &model.ChangeRequest{
		ID:          uuid.NewString(),
		RequesterID: callerID,
		DocumentID:  documentID,
		Kind:        kind,
		Status:      model.RequestStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if edit, ok := payload.(EditPayload); ok {
		if edit.NewPeriod != nil {
			p := model.TruncatePeriod(*edit.NewPeriod)
			req.NewPeriod = &p
		}
		req.NewLocator = edit.NewLocator
	}

	// HasPending is advisory; the store's uniqueness constraint settles races.
	stored, err := s.store.Requests().Create(ctx, req)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, pendingConflict(kind)
		}
		return nil, storageError("failed to create request", err)
	}

	s.recorder.Submitted(kind)
	s.logger.InfoContext(ctx, "change request submitted",
		"request_id", stored.ID,
		"document_id", documentID,
		"kind", kind,
		"user_id", callerID,
	)
	return stored, nil
}

func (s *moderationService) ResolveChangeRequest(ctx context.Context, requestID string, decision model.RequestStatus) (_ *Resolution, err error) {
	ctx, span := tracer.Start(ctx, "moderation.ResolveChangeRequest",
		trace.WithAttributes(
			attribute.String("request.id", requestID),
			attribute.String("request.decision", string(decision)),
		))
	defer func() { endSpan(span, err) }()

	if requestID == "" {
		return nil, validationError("missing 'requestId'")
	}
	if _, err := uuid.Parse(requestID); err != nil {
		return nil, validationError("invalid 'requestId' format")
	}
	if decision != model.RequestStatusApproved && decision != model.RequestStatusCancelled {
		return nil, validationError("status must be either 'APPROVED' or 'CANCELLED'")
	}

	var res Resolution
	at := s.now()
	err = s.store.WithinTx(ctx, func(tx repository.Tx) error {
		req, err := tx.Requests().FindForUpdate(ctx, requestID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return newError(ErrNotFound, "request not found")
			}
			return storageError("failed to load request", err)
		}
		if req.Status != model.RequestStatusPending {
			return newError(ErrInvalidState, "only pending requests may be resolved")
		}

		if decision == model.RequestStatusApproved {
			doc, err := s.apply(ctx, tx, req, at)
			if err != nil {
				return err
			}
			res.Document = doc
		}

		updated, err := tx.Requests().UpdateStatus(ctx, requestID, model.RequestStatusPending, decision, at)
		if err != nil {
			if errors.Is(err, repository.ErrNoTransition) {
				return newError(ErrInvalidState, "only pending requests may be resolved")
			}
			return storageError("failed to update request status", err)
		}
		res.Request = *updated
		return nil
	})
	if err != nil {
		return nil, asServiceError("failed to resolve request", err)
	}

	// The rejected replacement is unreferenced once the cancellation commits.
	if decision == model.RequestStatusCancelled && res.Request.NewLocator != nil {
		s.discarder.DiscardFile(ctx, *res.Request.NewLocator)
	}

	s.recorder.Resolved(res.Request.Kind, decision)
	s.logger.InfoContext(ctx, "change request resolved",
		"request_id", requestID,
		"document_id", res.Request.DocumentID,
		"kind", res.Request.Kind,
		"decision", decision,
	)
	return &res, nil
}

// apply mutates the target document of an approved request. The document row
// stays locked until the transaction ends, and only the columns the request
// changes are written.
func (s *moderationService) apply(ctx context.Context, tx repository.Tx, req *model.ChangeRequest, at time.Time) (*model.Document, error) {
	doc, err := tx.Documents().FindForUpdate(ctx, req.DocumentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, "associated document not found")
		}
		return nil, storageError("failed to load document", err)
	}

	ch := repository.DocumentChanges{UpdatedAt: at}
	switch req.Kind {
	case model.RequestKindDelete:
		valid := false
		ch.Valid = &valid
	case model.RequestKindEdit:
		ch.Locator = req.NewLocator
		ch.Period = req.NewPeriod
	default:
		return nil, newError(ErrInvalidState, "unknown request type "+string(req.Kind))
	}

	updated, err := tx.Documents().Update(ctx, doc.ID, ch)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, "associated document not found")
		}
		return nil, storageError("failed to update document", err)
	}
	return updated, nil
}

func (s *moderationService) ListRequests(ctx context.Context, page, limit int) (*RequestListResult, error) {
	page, limit = s.paging.normalize(page, limit)

	res, err := s.store.Requests().List(ctx, repository.PageQuery{
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, storageError("failed to list requests", err)
	}
	return &RequestListResult{
		Items:      res.Items,
		Pagination: model.NewPagination(res.Total, page, limit),
	}, nil
}

func (s *moderationService) GetRequest(ctx context.Context, requestID string) (*model.ChangeRequest, error) {
	if _, err := uuid.Parse(requestID); err != nil {
		return nil, validationError("invalid 'requestId' format")
	}
	req, err := s.store.Requests().FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, "request not found")
		}
		return nil, storageError("failed to load request", err)
	}
	return req, nil
}

func pendingConflict(kind model.RequestKind) *Error {
	return newError(ErrConflict, "a pending "+string(kind)+" request already exists for this document")
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
