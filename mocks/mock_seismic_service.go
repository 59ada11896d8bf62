package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"geosismica/internal/repository"
	"geosismica/internal/service"
)

// MockSeismicService is a mock implementation of service.SeismicService.
type MockSeismicService struct {
	mock.Mock
}

func (m *MockSeismicService) Session(ctx context.Context, id string) (*repository.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Session), args.Error(1)
}

func (m *MockSeismicService) Upload(ctx context.Context, sessionID string, input service.UploadInput) (*repository.Session, error) {
	args := m.Called(ctx, sessionID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Session), args.Error(1)
}

func (m *MockSeismicService) Analyze(ctx context.Context, sessionID string) (*repository.Session, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.Session), args.Error(1)
}

func (m *MockSeismicService) Report(ctx context.Context, sessionID string) ([]byte, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
