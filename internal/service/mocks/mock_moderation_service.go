package mocks

import (
	"context"

	"pdfreview/internal/model"
	"pdfreview/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockModerationService struct {
	mock.Mock
}

func (m *MockModerationService) CreateChangeRequest(ctx context.Context, callerID, documentID string, payload service.ChangePayload) (*model.ChangeRequest, error) {
	args := m.Called(ctx, callerID, documentID, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ChangeRequest), args.Error(1)
}

func (m *MockModerationService) ResolveChangeRequest(ctx context.Context, requestID string, decision model.RequestStatus) (*service.Resolution, error) {
	args := m.Called(ctx, requestID, decision)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Resolution), args.Error(1)
}

func (m *MockModerationService) ListRequests(ctx context.Context, page, limit int) (*service.RequestListResult, error) {
	args := m.Called(ctx, page, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RequestListResult), args.Error(1)
}

func (m *MockModerationService) GetRequest(ctx context.Context, requestID string) (*model.ChangeRequest, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ChangeRequest), args.Error(1)
}
