package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"scoutapi/internal/model"
	"scoutapi/internal/repository"
)

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) ListPapers(ctx context.Context, userID string) ([]model.Paper, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Paper), args.Error(1)
}

func (m *MockBackend) SavePaper(ctx context.Context, in repository.NewPaper) (*model.Paper, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Paper), args.Error(1)
}

func (m *MockBackend) GetSummary(ctx context.Context, paperID string, targetAge int) (*model.Summary, error) {
	args := m.Called(ctx, paperID, targetAge)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Summary), args.Error(1)
}

func (m *MockBackend) SaveSummary(ctx context.Context, in repository.NewSummary) (*model.Summary, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Summary), args.Error(1)
}

func (m *MockBackend) SaveCode(ctx context.Context, in repository.NewCodeGeneration) (*model.CodeGeneration, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CodeGeneration), args.Error(1)
}

func (m *MockBackend) SaveVisualization(ctx context.Context, in repository.NewVisualization) (*model.Visualization, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Visualization), args.Error(1)
}

func (m *MockBackend) ListVisualizations(ctx context.Context, paperID string) ([]model.Visualization, error) {
	args := m.Called(ctx, paperID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Visualization), args.Error(1)
}
