package mocks

import (
	"context"
	"time"

	"pdfreview/internal/model"
	"pdfreview/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockChangeRequestRepository struct {
	mock.Mock
}

func (m *MockChangeRequestRepository) Create(ctx context.Context, req *model.ChangeRequest) (*model.ChangeRequest, error) {
	args := m.Called(ctx, req)
	if f, ok := args.Get(0).(func(context.Context, *model.ChangeRequest) *model.ChangeRequest); ok {
		return f(ctx, req), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ChangeRequest), args.Error(1)
}

func (m *MockChangeRequestRepository) FindByID(ctx context.Context, id string) (*model.ChangeRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ChangeRequest), args.Error(1)
}

func (m *MockChangeRequestRepository) FindForUpdate(ctx context.Context, id string) (*model.ChangeRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ChangeRequest), args.Error(1)
}

func (m *MockChangeRequestRepository) HasPending(ctx context.Context, documentID string, kind model.RequestKind) (bool, error) {
	args := m.Called(ctx, documentID, kind)
	return args.Bool(0), args.Error(1)
}

func (m *MockChangeRequestRepository) UpdateStatus(ctx context.Context, id string, from, to model.RequestStatus, at time.Time) (*model.ChangeRequest, error) {
	args := m.Called(ctx, id, from, to, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ChangeRequest), args.Error(1)
}

func (m *MockChangeRequestRepository) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.ChangeRequest], error) {
	args := m.Called(ctx, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.ChangeRequest]), args.Error(1)
}
