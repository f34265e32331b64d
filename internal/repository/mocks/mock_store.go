package mocks

import (
	"context"

	"pdfreview/internal/repository"
)

// MockStore runs transactions directly against its repository mocks.
// CommitErr, when set, is returned after fn succeeds.
type MockStore struct {
	Docs      *MockDocumentRepository
	Reqs      *MockChangeRequestRepository
	CommitErr error
	PingErr   error
}

func NewMockStore() *MockStore {
	return &MockStore{
		Docs: new(MockDocumentRepository),
		Reqs: new(MockChangeRequestRepository),
	}
}

func (m *MockStore) Documents() repository.DocumentRepository     { return m.Docs }
func (m *MockStore) Requests() repository.ChangeRequestRepository { return m.Reqs }

func (m *MockStore) WithinTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	if err := fn(m); err != nil {
		return err
	}
	return m.CommitErr
}

func (m *MockStore) PingContext(ctx context.Context) error {
	return m.PingErr
}
