package mocks

import (
	"context"
	"encoding/json"
	"io"

	"github.com/stretchr/testify/mock"

	"scoutapi/internal/model"
	"scoutapi/internal/ranking"
	"scoutapi/internal/service"
)

type MockPaperService struct {
	mock.Mock
}

func (m *MockPaperService) CurrentUser(ctx context.Context) service.UserInfo {
	args := m.Called(ctx)
	return args.Get(0).(service.UserInfo)
}

func (m *MockPaperService) SignOut(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockPaperService) Upload(ctx context.Context, r io.Reader, originalFilename, contentType string, size int64) (*model.Paper, error) {
	args := m.Called(ctx, r, originalFilename, contentType, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Paper), args.Error(1)
}

func (m *MockPaperService) List(ctx context.Context) ([]model.Paper, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Paper), args.Error(1)
}

func (m *MockPaperService) Search(ctx context.Context, query string, f ranking.Filters) ([]ranking.Result, error) {
	args := m.Called(ctx, query, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ranking.Result), args.Error(1)
}

func (m *MockPaperService) GetSummary(ctx context.Context, paperID string, targetAge int) (json.RawMessage, error) {
	args := m.Called(ctx, paperID, targetAge)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockPaperService) Summarize(ctx context.Context, paperID string, targetAge int) (json.RawMessage, error) {
	args := m.Called(ctx, paperID, targetAge)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockPaperService) GenerateCode(ctx context.Context, paperID, language, framework string) (*model.CodeGeneration, error) {
	args := m.Called(ctx, paperID, language, framework)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CodeGeneration), args.Error(1)
}

func (m *MockPaperService) CreateVisualization(ctx context.Context, paperID, vizType string) (*model.Visualization, error) {
	args := m.Called(ctx, paperID, vizType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Visualization), args.Error(1)
}

func (m *MockPaperService) Visualizations(ctx context.Context, paperID string) ([]model.Visualization, error) {
	args := m.Called(ctx, paperID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Visualization), args.Error(1)
}

func (m *MockPaperService) SimilarPapers(ctx context.Context, paperID, query string) ([]model.SimilarPaper, error) {
	args := m.Called(ctx, paperID, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SimilarPaper), args.Error(1)
}

func (m *MockPaperService) Notifications(ctx context.Context) ([]model.Notification, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Notification), args.Error(1)
}

func (m *MockPaperService) MarkNotificationRead(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
