package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"scoutapi/internal/model"
)

type MockRemoteAux struct {
	mock.Mock
}

func (m *MockRemoteAux) ListNotifications(ctx context.Context, userID string) ([]model.Notification, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Notification), args.Error(1)
}

func (m *MockRemoteAux) SaveNotification(ctx context.Context, userID, title, message string) (*model.Notification, error) {
	args := m.Called(ctx, userID, title, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Notification), args.Error(1)
}

func (m *MockRemoteAux) MarkNotificationRead(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRemoteAux) SaveSimilarPapers(ctx context.Context, rec model.SimilarPapers) (*model.SimilarPapers, error) {
	args := m.Called(ctx, rec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SimilarPapers), args.Error(1)
}

func (m *MockRemoteAux) GetSimilarPapers(ctx context.Context, paperID string) (*model.SimilarPapers, error) {
	args := m.Called(ctx, paperID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SimilarPapers), args.Error(1)
}
