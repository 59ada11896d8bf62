package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "geosismica/internal/errors"
	"geosismica/pkg/models"
)

func TestOutcomeError(t *testing.T) {
	tests := []struct {
		name    string
		outcome models.Outcome
		want    apperrors.ErrorType
	}{
		{"server", models.ServerError(503), apperrors.ErrorTypeServer},
		{"malformed", models.MalformedBody(200, errors.New("invalid character '<'")), apperrors.ErrorTypeMalformed},
		{"transport", models.TransportFailure(errors.New("connection refused"), false), apperrors.ErrorTypeTransport},
		{"timeout", models.TransportFailure(errors.New("deadline exceeded"), true), apperrors.ErrorTypeTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, apperrors.IsType(outcomeError(tt.outcome), tt.want))
		})
	}
}

func TestOutcomeEvent_FailureCarriesClassifiedError(t *testing.T) {
	ev := outcomeEvent("s1", models.ServerError(500))

	assert.Equal(t, "analysis_failed", string(ev.Type))
	assert.Equal(t, 500, ev.StatusCode)
	assert.Contains(t, ev.ErrorMessage, "status 500")
}
