package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"pdfreview/internal/model"
	"pdfreview/internal/service"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Upload(ctx context.Context, ownerID string, file service.FileInput, period time.Time) (*model.Document, error) {
	args := m.Called(ctx, ownerID, file, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) StoreFile(ctx context.Context, ownerID string, file service.FileInput) (string, error) {
	args := m.Called(ctx, ownerID, file)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentService) DiscardFile(ctx context.Context, locator string) {
	m.Called(ctx, locator)
}

func (m *MockDocumentService) Get(ctx context.Context, id string) (*model.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Download(ctx context.Context, id string) (*service.FileDownload, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.FileDownload), args.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context, q service.DocumentQuery) (*service.DocumentListResult, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DocumentListResult), args.Error(1)
}

func (m *MockDocumentService) Update(ctx context.Context, callerID, id string, patch service.DocumentPatch) (*model.Document, error) {
	args := m.Called(ctx, callerID, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, callerID, id string) error {
	args := m.Called(ctx, callerID, id)
	return args.Error(0)
}
