package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"pdfreview/internal/model"
	"pdfreview/internal/repository"
	"pdfreview/internal/storage"
)

const defaultContentType = "application/pdf"

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items      []model.Document `json:"data"`
	Pagination model.Pagination `json:"pagination"`
}

// FileInput is an uploaded file streamed to object storage.
type FileInput struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
}

// DocumentQuery selects a page of documents.
// Month and Year filter on a calendar month or year; Month alone matches that
// month in any year. From and To filter on an inclusive day range.
// The two forms are mutually exclusive.
type DocumentQuery struct {
	OwnerID string
	Month   int
	Year    int
	From    *time.Time
	To      *time.Time
	Valid   *bool
	Page    int
	Limit   int
}

// FileDownload is an open document file. The caller closes Body.
type FileDownload struct {
	Body        io.ReadCloser
	Filename    string
	ContentType string
	Size        int64
}

// DocumentPatch is an owner self-service edit. At least one field must be set.
type DocumentPatch struct {
	NewPeriod *time.Time
	File      *FileInput
}

// DocumentService defines the use cases for handling documents.
type DocumentService interface {
	// Upload streams the file to object storage and records a valid document owned by ownerID.
	// The stored object is removed again if the record cannot be saved.
	Upload(ctx context.Context, ownerID string, file FileInput, period time.Time) (*model.Document, error)

	// StoreFile uploads a replacement file ahead of an edit request and returns its locator.
	StoreFile(ctx context.Context, ownerID string, file FileInput) (string, error)

	// DiscardFile removes an object that ended up unreferenced. Failures are logged only.
	DiscardFile(ctx context.Context, locator string)

	// Get returns a document with a presigned download URL.
	Get(ctx context.Context, id string) (*model.Document, error)

	// Download opens the current file of a document for streaming.
	Download(ctx context.Context, id string) (*FileDownload, error)

	// List returns documents newest first.
	List(ctx context.Context, q DocumentQuery) (*DocumentListResult, error)

	// Update applies an owner self-service edit.
	Update(ctx context.Context, callerID, id string, patch DocumentPatch) (*model.Document, error)

	// Delete hard-deletes a document and its object. Only available when direct deletion is enabled.
	Delete(ctx context.Context, callerID, id string) error
}

// DocumentOptions configure a DocumentService.
type DocumentOptions struct {
	Paging        Paging
	PresignExpiry time.Duration
	DirectDelete  bool
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store  storage.Storage
	repo   repository.DocumentRepository
	logger *slog.Logger
	opts   DocumentOptions
	now    func() time.Time
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.Storage, repo repository.DocumentRepository, logger *slog.Logger, opts DocumentOptions) DocumentService {
	return &documentService{
		store:  store,
		repo:   repo,
		logger: logger.With("component", "documents"),
		opts:   opts,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *documentService) Upload(ctx context.Context, ownerID string, file FileInput, period time.Time) (*model.Document, error) {
	if period.IsZero() {
		return nil, validationError("missing 'date'")
	}
	key, err := s.put(ctx, ownerID, file)
	if err != nil {
		return nil, err
	}

	now := s.now()
	doc := &model.Document{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		Locator:   key,
		Period:    model.TruncatePeriod(period),
		Valid:     true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		// Rollback: delete the object from storage
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, storageError("db save failed", fmt.Errorf("%v; rollback delete failed: %v", err, delErr))
		}
		return nil, storageError("db save failed", err)
	}
	return stored, nil
}

func (s *documentService) StoreFile(ctx context.Context, ownerID string, file FileInput) (string, error) {
	return s.put(ctx, ownerID, file)
}

func (s *documentService) DiscardFile(ctx context.Context, locator string) {
	if locator == "" {
		return
	}
	if err := s.store.Delete(ctx, locator); err != nil {
		s.logger.WarnContext(ctx, "discard object failed", "key", locator, "error", err)
	}
}

// put uploads file under documents/<uuid><ext> and returns the key.
func (s *documentService) put(ctx context.Context, ownerID string, file FileInput) (string, error) {
	if file.Reader == nil {
		return "", validationError("file is required")
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext == "" {
		ext = ".pdf"
	}
	key := filepath.ToSlash(filepath.Join("documents", uuid.New().String()+ext))

	ct := file.ContentType
	if ct == "" {
		ct = defaultContentType
	}

	info, err := s.store.Put(ctx, key, file.Reader, storage.PutObjectOptions{
		Size:        file.Size,
		ContentType: ct,
		Metadata: map[string]string{
			"original-filename": file.Filename,
			"owner-id":          ownerID,
		},
	})
	if err != nil {
		return "", storageError("upload to storage", err)
	}
	return info.Key, nil
}

// Get returns a document by ID. A presign failure leaves DownloadURL empty.
func (s *documentService) Get(ctx context.Context, id string) (*model.Document, error) {
	doc, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.opts.PresignExpiry > 0 {
		u, err := s.store.PresignGet(ctx, doc.Locator, s.opts.PresignExpiry)
		if err != nil {
			s.logger.WarnContext(ctx, "presign failed", "document_id", id, "error", err)
		} else {
			doc.DownloadURL = u
		}
	}
	return doc, nil
}

func (s *documentService) Download(ctx context.Context, id string) (*FileDownload, error) {
	doc, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	body, info, err := s.store.Get(ctx, doc.Locator)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			s.logger.WarnContext(ctx, "document file missing", "document_id", id, "key", doc.Locator)
			return nil, newError(ErrNotFound, "document file not found")
		}
		return nil, storageError("failed to read document file", err)
	}
	ct := info.ContentType
	if ct == "" {
		ct = defaultContentType
	}
	return &FileDownload{
		Body:        body,
		Filename:    filepath.Base(doc.Locator),
		ContentType: ct,
		Size:        info.Size,
	}, nil
}

// List returns paginated documents without exposing repository types.
func (s *documentService) List(ctx context.Context, q DocumentQuery) (*DocumentListResult, error) {
	filter, err := q.filter()
	if err != nil {
		return nil, err
	}
	page, limit := s.opts.Paging.normalize(q.Page, q.Limit)

	res, err := s.repo.List(ctx, filter, repository.PageQuery{Limit: limit, Offset: (page - 1) * limit})
	if err != nil {
		return nil, storageError("failed to list documents", err)
	}
	return &DocumentListResult{
		Items:      res.Items,
		Pagination: model.NewPagination(res.Total, page, limit),
	}, nil
}

func (s *documentService) Update(ctx context.Context, callerID, id string, patch DocumentPatch) (*model.Document, error) {
	if patch.NewPeriod == nil && patch.File == nil {
		return nil, validationError("nothing to update: provide a new date or a new file")
	}
	doc, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := AssertOwner(doc, callerID); err != nil {
		return nil, err
	}

	oldKey := doc.Locator
	newKey := ""
	ch := repository.DocumentChanges{UpdatedAt: s.now()}
	if patch.File != nil {
		if newKey, err = s.put(ctx, callerID, *patch.File); err != nil {
			return nil, err
		}
		ch.Locator = &newKey
	}
	if patch.NewPeriod != nil {
		p := model.TruncatePeriod(*patch.NewPeriod)
		ch.Period = &p
	}

	updated, err := s.repo.Update(ctx, doc.ID, ch)
	if err != nil {
		s.DiscardFile(ctx, newKey)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, "document not found")
		}
		return nil, storageError("failed to update document", err)
	}
	if newKey != "" {
		s.DiscardFile(ctx, oldKey)
	}
	return updated, nil
}

// Delete removes a document from storage, then deletes its record.
func (s *documentService) Delete(ctx context.Context, callerID, id string) error {
	if !s.opts.DirectDelete {
		return newError(ErrForbidden, "direct deletion is disabled; submit a DELETE request instead")
	}
	doc, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := AssertOwner(doc, callerID); err != nil {
		return err
	}
	// Delete from storage first; if this fails, keep DB row to avoid orphaned storage reference loss
	if err := s.store.Delete(ctx, doc.Locator); err != nil {
		return storageError("delete storage", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storageError("failed to delete document", err)
	}
	s.logger.InfoContext(ctx, "document deleted", "document_id", id, "user_id", callerID)
	return nil
}

func (s *documentService) find(ctx context.Context, id string) (*model.Document, error) {
	if id == "" {
		return nil, validationError("id is required")
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, validationError("invalid id format")
	}
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrNotFound, "document not found")
		}
		return nil, storageError("failed to load document", err)
	}
	return doc, nil
}

func (q DocumentQuery) filter() (repository.DocumentFilter, error) {
	f := repository.DocumentFilter{OwnerID: q.OwnerID, Valid: q.Valid}

	hasMonthYear := q.Month != 0 || q.Year != 0
	if hasMonthYear && (q.From != nil || q.To != nil) {
		return f, validationError("use either month/year or from/to, not both")
	}

	switch {
	case q.Month != 0:
		if q.Month < 1 || q.Month > 12 {
			return f, validationError("month must be between 1 and 12")
		}
		if q.Year == 0 {
			f.Month = q.Month
			break
		}
		from := time.Date(q.Year, time.Month(q.Month), 1, 0, 0, 0, 0, time.UTC)
		to := from.AddDate(0, 1, -1)
		f.From, f.To = &from, &to
	case q.Year != 0:
		from := time.Date(q.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(q.Year, time.December, 31, 0, 0, 0, 0, time.UTC)
		f.From, f.To = &from, &to
	default:
		if q.From != nil {
			from := model.TruncatePeriod(*q.From)
			f.From = &from
		}
		if q.To != nil {
			to := model.TruncatePeriod(*q.To)
			f.To = &to
		}
		if f.From != nil && f.To != nil && f.To.Before(*f.From) {
			return f, validationError("'to' must not be before 'from'")
		}
	}
	return f, nil
}
