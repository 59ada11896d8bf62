package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"geosismica/pkg/models"
)

// MockAnalyzer is a mock implementation of analysis.Analyzer.
type MockAnalyzer struct {
	mock.Mock
}

func (m *MockAnalyzer) Analyze(ctx context.Context, file *models.UploadedFile) models.Outcome {
	args := m.Called(ctx, file)
	return args.Get(0).(models.Outcome)
}
