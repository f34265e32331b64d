package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pdfreview/internal/model"
	"pdfreview/internal/repository"
	repoMocks "pdfreview/internal/repository/mocks"
	"pdfreview/internal/storage"
	storeMocks "pdfreview/internal/storage/mocks"
)

func echoKey(_ context.Context, key string, _ io.Reader, _ storage.PutObjectOptions) storage.ObjectInfo {
	return storage.ObjectInfo{Key: key}
}

func TestDocumentService_Upload(t *testing.T) {
	ctx := context.Background()
	period := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name       string
		filename   string
		noReader   bool
		period     time.Time
		setupMocks func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository)
		wantErr    error
		wantErrMsg string
	}{
		{
			name:     "happy path",
			filename: "report.PDF",
			period:   period,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mStore.On("Put", ctx, mock.MatchedBy(func(key string) bool {
					return strings.HasPrefix(key, "documents/") && strings.HasSuffix(key, ".pdf")
				}), mock.Anything, mock.MatchedBy(func(opt storage.PutObjectOptions) bool {
					return opt.ContentType == "application/pdf" &&
						opt.Metadata["original-filename"] == "report.PDF" &&
						opt.Metadata["owner-id"] == "u1"
				})).Return(echoKey, nil)

				mRepo.On("Create", ctx, mock.MatchedBy(func(doc *model.Document) bool {
					return doc.OwnerID == "u1" && doc.Valid &&
						doc.Period.Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)) &&
						strings.HasPrefix(doc.Locator, "documents/")
				})).Return(func(_ context.Context, d *model.Document) *model.Document { return d }, nil)
			},
		},
		{
			name:       "validation error - nil reader",
			filename:   "a.pdf",
			noReader:   true,
			period:     period,
			setupMocks: func(*storeMocks.MockStorage, *repoMocks.MockDocumentRepository) {},
			wantErr:    ErrValidation,
		},
		{
			name:       "validation error - missing period",
			filename:   "a.pdf",
			setupMocks: func(*storeMocks.MockStorage, *repoMocks.MockDocumentRepository) {},
			wantErr:    ErrValidation,
		},
		{
			name:     "storage error",
			filename: "a.pdf",
			period:   period,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(storage.ObjectInfo{}, errors.New("storage fail"))
			},
			wantErr:    ErrStorage,
			wantErrMsg: "upload to storage: storage fail",
		},
		{
			name:     "repository error with successful rollback",
			filename: "a.pdf",
			period:   period,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).Return(echoKey, nil)
				mRepo.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))
				mStore.On("Delete", ctx, mock.Anything).Return(nil)
			},
			wantErr:    ErrStorage,
			wantErrMsg: "db save failed: db fail",
		},
		{
			name:     "repository error with failed rollback",
			filename: "a.pdf",
			period:   period,
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).Return(echoKey, nil)
				mRepo.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))
				mStore.On("Delete", ctx, mock.Anything).Return(errors.New("delete fail"))
			},
			wantErr:    ErrStorage,
			wantErrMsg: "rollback delete failed: delete fail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mRepo := new(repoMocks.MockDocumentRepository)
			svc := NewDocumentService(mStore, mRepo, discardLogger(), DocumentOptions{})

			tt.setupMocks(mStore, mRepo)

			in := FileInput{Filename: tt.filename, Size: 5}
			if !tt.noReader {
				in.Reader = strings.NewReader("%PDF-")
			}
			doc, err := svc.Upload(ctx, "u1", in, tt.period)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, doc)
				if tt.wantErrMsg != "" {
					assert.Contains(t, err.Error(), tt.wantErrMsg)
				}
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, doc.ID)
			}
			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
		})
	}
}

func TestDocumentService_Get(t *testing.T) {
	ctx := context.Background()
	id := uuid.NewString()
	expiry := 15 * time.Minute

	t.Run("with download url", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockDocumentRepository)
		svc := NewDocumentService(mStore, mRepo, discardLogger(), DocumentOptions{PresignExpiry: expiry})

		mRepo.On("FindByID", ctx, id).Return(&model.Document{ID: id, Locator: "documents/x.pdf"}, nil)
		mStore.On("PresignGet", ctx, "documents/x.pdf", expiry).Return("http://minio/x", nil)

		doc, err := svc.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "http://minio/x", doc.DownloadURL)
	})

	t.Run("presign failure leaves url empty", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockDocumentRepository)
		svc := NewDocumentService(mStore, mRepo, discardLogger(), DocumentOptions{PresignExpiry: expiry})

		mRepo.On("FindByID", ctx, id).Return(&model.Document{ID: id, Locator: "documents/x.pdf"}, nil)
		mStore.On("PresignGet", ctx, "documents/x.pdf", expiry).Return("", errors.New("unreachable"))

		doc, err := svc.Get(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, doc.DownloadURL)
	})

	t.Run("not found", func(t *testing.T) {
		mRepo := new(repoMocks.MockDocumentRepository)
		svc := NewDocumentService(new(storeMocks.MockStorage), mRepo, discardLogger(), DocumentOptions{})

		mRepo.On("FindByID", ctx, id).Return(nil, repository.ErrNotFound)

		_, err := svc.Get(ctx, id)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("invalid id", func(t *testing.T) {
		svc := NewDocumentService(new(storeMocks.MockStorage), new(repoMocks.MockDocumentRepository), discardLogger(), DocumentOptions{})
		_, err := svc.Get(ctx, "nope")
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestDocumentService_Download(t *testing.T) {
	ctx := context.Background()
	id := uuid.NewString()
	doc := &model.Document{ID: id, Locator: "documents/abc.pdf"}

	t.Run("streams the current file", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockDocumentRepository)
		svc := NewDocumentService(mStore, mRepo, discardLogger(), DocumentOptions{})

		body := io.NopCloser(strings.NewReader("%PDF-1.7"))
		mRepo.On("FindByID", ctx, id).Return(doc, nil)
		mStore.On("Get", ctx, "documents/abc.pdf").Return(body, storage.ObjectInfo{Size: 8}, nil)

		f, err := svc.Download(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "abc.pdf", f.Filename)
		assert.Equal(t, "application/pdf", f.ContentType)
		assert.Equal(t, int64(8), f.Size)
		b, _ := io.ReadAll(f.Body)
		assert.Equal(t, "%PDF-1.7", string(b))
	})

	t.Run("missing object is not found", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockDocumentRepository)
		svc := NewDocumentService(mStore, mRepo, discardLogger(), DocumentOptions{})

		mRepo.On("FindByID", ctx, id).Return(doc, nil)
		mStore.On("Get", ctx, "documents/abc.pdf").Return(nil, storage.ObjectInfo{}, storage.ErrObjectNotFound)

		_, err := svc.Download(ctx, id)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("backend failure", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockDocumentRepository)
		svc := NewDocumentService(mStore, mRepo, discardLogger(), DocumentOptions{})

		mRepo.On("FindByID", ctx, id).Return(doc, nil)
		mStore.On("Get", ctx, "documents/abc.pdf").Return(nil, storage.ObjectInfo{}, errors.New("timeout"))

		_, err := svc.Download(ctx, id)
		assert.ErrorIs(t, err, ErrStorage)
	})
}

func TestDocumentService_List(t *testing.T) {
	ctx := context.Background()
	from := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		query      DocumentQuery
		wantFilter func(f repository.DocumentFilter) bool
		wantPage   repository.PageQuery
		wantErr    error
	}{
		{
			name:  "owner with month and year",
			query: DocumentQuery{OwnerID: "u1", Month: 2, Year: 2024, Page: 2, Limit: 10},
			wantFilter: func(f repository.DocumentFilter) bool {
				return f.OwnerID == "u1" &&
					f.From.Equal(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)) &&
					f.To.Equal(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC))
			},
			wantPage: repository.PageQuery{Limit: 10, Offset: 10},
		},
		{
			name:  "year only",
			query: DocumentQuery{Year: 2023},
			wantFilter: func(f repository.DocumentFilter) bool {
				return f.From.Equal(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)) &&
					f.To.Equal(time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC))
			},
			wantPage: repository.PageQuery{Limit: 10, Offset: 0},
		},
		{
			name:  "valid flag passed through",
			query: DocumentQuery{Valid: ptr(false), Limit: 1000},
			wantFilter: func(f repository.DocumentFilter) bool {
				return f.Valid != nil && !*f.Valid && f.From == nil && f.To == nil
			},
			wantPage: repository.PageQuery{Limit: 100, Offset: 0},
		},
		{
			name:  "month without year matches any year",
			query: DocumentQuery{Month: 3},
			wantFilter: func(f repository.DocumentFilter) bool {
				return f.Month == 3 && f.From == nil && f.To == nil
			},
			wantPage: repository.PageQuery{Limit: 10, Offset: 0},
		},
		{name: "month out of range without year", query: DocumentQuery{Month: -1}, wantErr: ErrValidation},
		{name: "month out of range", query: DocumentQuery{Month: 13, Year: 2024}, wantErr: ErrValidation},
		{name: "range reversed", query: DocumentQuery{From: &from, To: &to}, wantErr: ErrValidation},
		{name: "mixed filter forms", query: DocumentQuery{Year: 2024, From: &from}, wantErr: ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockDocumentRepository)
			svc := NewDocumentService(new(storeMocks.MockStorage), mRepo, discardLogger(), DocumentOptions{
				Paging: Paging{DefaultLimit: 10, MaxLimit: 100},
			})

			if tt.wantErr == nil {
				mRepo.On("List", ctx, mock.MatchedBy(tt.wantFilter), tt.wantPage).
					Return(&repository.PageResult[model.Document]{Items: []model.Document{{ID: "a"}}, Total: 21}, nil)
			}

			res, err := svc.List(ctx, tt.query)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				mRepo.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Len(t, res.Items, 1)
			assert.Equal(t, 21, res.Pagination.Total)
			assert.Equal(t, tt.wantPage.Limit, res.Pagination.Limit)
			mRepo.AssertExpectations(t)
		})
	}
}

func TestDocumentService_Update(t *testing.T) {
	ctx := context.Background()
	id := uuid.NewString()
	newPeriod := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	owned := func() *model.Document {
		return &model.Document{ID: id, OwnerID: "u1", Locator: "documents/old.pdf", Valid: true}
	}
	echo := func(_ context.Context, _ string, ch repository.DocumentChanges) *model.Document {
		d := owned()
		if ch.Locator != nil {
			d.Locator = *ch.Locator
		}
		if ch.Period != nil {
			d.Period = *ch.Period
		}
		d.UpdatedAt = ch.UpdatedAt
		return d
	}

	t.Run("period only keeps file", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockDocumentRepository)
		svc := NewDocumentService(mStore, mRepo, discardLogger(), DocumentOptions{})

		mRepo.On("FindByID", ctx, id).Return(owned(), nil)
		mRepo.On("Update", ctx, id, mock.MatchedBy(func(ch repository.DocumentChanges) bool {
			return ch.Period != nil && ch.Period.Equal(newPeriod) && ch.Locator == nil && ch.Valid == nil
		})).Return(echo, nil)

		doc, err := svc.Update(ctx, "u1", id, DocumentPatch{NewPeriod: &newPeriod})
		require.NoError(t, err)
		assert.Equal(t, newPeriod, doc.Period)
		mStore.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("new file replaces and purges old object", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockDocumentRepository)
		svc := NewDocumentService(mStore, mRepo, discardLogger(), DocumentOptions{})

		mRepo.On("FindByID", ctx, id).Return(owned(), nil)
		mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).Return(echoKey, nil)
		mRepo.On("Update", ctx, id, mock.MatchedBy(func(ch repository.DocumentChanges) bool {
			return ch.Locator != nil && *ch.Locator != "documents/old.pdf" && ch.Period == nil && ch.Valid == nil
		})).Return(echo, nil)
		mStore.On("Delete", ctx, "documents/old.pdf").Return(nil)

		file := &FileInput{Reader: strings.NewReader("%PDF-"), Filename: "n.pdf", Size: 5}
		doc, err := svc.Update(ctx, "u1", id, DocumentPatch{File: file})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(doc.Locator, "documents/"))
		mStore.AssertExpectations(t)
	})

	t.Run("failed update discards new object", func(t *testing.T) {
		mStore := new(storeMocks.MockStorage)
		mRepo := new(repoMocks.MockDocumentRepository)
		svc := NewDocumentService(mStore, mRepo, discardLogger(), DocumentOptions{})

		mRepo.On("FindByID", ctx, id).Return(owned(), nil)
		mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).Return(echoKey, nil)
		mRepo.On("Update", ctx, id, mock.Anything).Return(nil, errors.New("db fail"))
		mStore.On("Delete", ctx, mock.MatchedBy(func(key string) bool { return key != "documents/old.pdf" })).Return(nil)

		file := &FileInput{Reader: strings.NewReader("%PDF-"), Filename: "n.pdf", Size: 5}
		_, err := svc.Update(ctx, "u1", id, DocumentPatch{File: file})
		assert.ErrorIs(t, err, ErrStorage)
		mStore.AssertExpectations(t)
	})

	t.Run("not the owner", func(t *testing.T) {
		mRepo := new(repoMocks.MockDocumentRepository)
		svc := NewDocumentService(new(storeMocks.MockStorage), mRepo, discardLogger(), DocumentOptions{})

		mRepo.On("FindByID", ctx, id).Return(owned(), nil)

		_, err := svc.Update(ctx, "u2", id, DocumentPatch{NewPeriod: &newPeriod})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("empty patch", func(t *testing.T) {
		svc := NewDocumentService(new(storeMocks.MockStorage), new(repoMocks.MockDocumentRepository), discardLogger(), DocumentOptions{})
		_, err := svc.Update(ctx, "u1", id, DocumentPatch{})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestDocumentService_Delete(t *testing.T) {
	ctx := context.Background()
	id := uuid.NewString()
	owned := &model.Document{ID: id, OwnerID: "u1", Locator: "documents/a.pdf"}

	tests := []struct {
		name         string
		directDelete bool
		callerID     string
		setupMocks   func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository)
		wantErr      error
	}{
		{
			name:         "disabled",
			directDelete: false,
			callerID:     "u1",
			setupMocks:   func(*storeMocks.MockStorage, *repoMocks.MockDocumentRepository) {},
			wantErr:      ErrForbidden,
		},
		{
			name:         "owner deletes",
			directDelete: true,
			callerID:     "u1",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", ctx, id).Return(owned, nil)
				mStore.On("Delete", ctx, "documents/a.pdf").Return(nil)
				mRepo.On("Delete", ctx, id).Return(nil)
			},
		},
		{
			name:         "not the owner",
			directDelete: true,
			callerID:     "u2",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", ctx, id).Return(owned, nil)
			},
			wantErr: ErrForbidden,
		},
		{
			name:         "storage failure keeps record",
			directDelete: true,
			callerID:     "u1",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", ctx, id).Return(owned, nil)
				mStore.On("Delete", ctx, "documents/a.pdf").Return(errors.New("s3 down"))
			},
			wantErr: ErrStorage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mRepo := new(repoMocks.MockDocumentRepository)
			svc := NewDocumentService(mStore, mRepo, discardLogger(), DocumentOptions{DirectDelete: tt.directDelete})

			tt.setupMocks(mStore, mRepo)

			err := svc.Delete(ctx, tt.callerID, id)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
		})
	}
}

func TestAssertOwner(t *testing.T) {
	doc := &model.Document{OwnerID: "u1"}
	assert.NoError(t, AssertOwner(doc, "u1"))
	assert.ErrorIs(t, AssertOwner(doc, "u2"), ErrForbidden)
	assert.ErrorIs(t, AssertOwner(doc, ""), ErrForbidden)
	assert.ErrorIs(t, AssertOwner(nil, "u1"), ErrForbidden)
}

func TestEditPayload_validate(t *testing.T) {
	p := time.Now()
	assert.NoError(t, EditPayload{NewPeriod: &p}.validate())
	assert.NoError(t, EditPayload{NewLocator: ptr("documents/x.pdf")}.validate())
	assert.ErrorIs(t, EditPayload{}.validate(), ErrValidation)
	assert.ErrorIs(t, EditPayload{NewLocator: ptr("  ")}.validate(), ErrValidation)
	assert.NoError(t, DeletePayload{}.validate())
}

func TestError(t *testing.T) {
	cause := errors.New("boom")
	err := storageError("save failed", cause)
	assert.ErrorIs(t, err, ErrStorage)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "save failed: boom", err.Error())

	wrapped := asServiceError("fallback", newError(ErrConflict, "dup"))
	assert.ErrorIs(t, wrapped, ErrConflict)
	assert.NotErrorIs(t, wrapped, ErrStorage)

	assert.ErrorIs(t, asServiceError("fallback", cause), ErrStorage)
}
