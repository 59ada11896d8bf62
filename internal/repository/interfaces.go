package repository

import (
	"context"
	"time"

	"geosismica/pkg/models"
)

// SessionRepository keeps per-session interaction state. Implementations
// must never share state between session ids.
type SessionRepository interface {
	// Create starts an empty session with a fresh id
	Create(ctx context.Context) (*Session, error)

	// Get returns a copy of the session
	Get(ctx context.Context, id string) (*Session, error)

	// Save replaces the stored state of s.ID
	Save(ctx context.Context, s *Session) error

	// Delete drops the session and everything it holds
	Delete(ctx context.Context, id string) error
}

// Session is one user's page state: at most one upload and at most one live
// analysis outcome. Values referenced from a stored Session are treated as
// immutable; updates go through Save with new values.
type Session struct {
	ID        string
	File      *models.UploadedFile
	Preview   *models.Preview
	Outcome   *models.Outcome
	Rejection string
	UpdatedAt time.Time
}

// ResetForUpload drops the previous file, preview and outcome.
func (s *Session) ResetForUpload() {
	s.File = nil
	s.Preview = nil
	s.Outcome = nil
	s.Rejection = ""
}
