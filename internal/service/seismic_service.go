package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"geosismica/internal/analysis"
	apperrors "geosismica/internal/errors"
	"geosismica/internal/observer"
	"geosismica/internal/render"
	"geosismica/internal/repository"
	"geosismica/pkg/models"
	"geosismica/pkg/validation"
)

// SeismicService drives one page interaction cycle per session: hold an
// upload, run the remote analysis on demand, expose the report.
type SeismicService interface {
	// Session returns the session for id, or a fresh one when id is unknown
	Session(ctx context.Context, id string) (*repository.Session, error)

	// Upload replaces the session's file. Rejected files leave the session
	// without a file and with the rejection text set.
	Upload(ctx context.Context, sessionID string, input UploadInput) (*repository.Session, error)

	// Analyze sends the held file to the endpoint and stores the outcome,
	// replacing any previous one.
	Analyze(ctx context.Context, sessionID string) (*repository.Session, error)

	// Report returns the decoded PDF of the live result.
	Report(ctx context.Context, sessionID string) ([]byte, error)
}

// UploadInput is a file as received from the upload form
type UploadInput struct {
	Filename    string
	ContentType string
	Data        []byte
}

type seismicService struct {
	sessions  repository.SessionRepository
	analyzer  analysis.Analyzer
	validator *validation.UploadValidator
	events    observer.Subject
}

func NewSeismicService(
	sessions repository.SessionRepository,
	analyzer analysis.Analyzer,
	validator *validation.UploadValidator,
	events observer.Subject,
) SeismicService {
	return &seismicService{
		sessions:  sessions,
		analyzer:  analyzer,
		validator: validator,
		events:    events,
	}
}

func (s *seismicService) Session(ctx context.Context, id string) (*repository.Session, error) {
	if id != "" {
		sess, err := s.sessions.Get(ctx, id)
		if err == nil {
			return sess, nil
		}
		if !errors.Is(err, repository.ErrSessionNotFound) {
			return nil, apperrors.NewInternalError("failed to load session", err)
		}
	}
	sess, err := s.sessions.Create(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to create session", err)
	}
	return sess, nil
}

func (s *seismicService) Upload(ctx context.Context, sessionID string, input UploadInput) (*repository.Session, error) {
	sess, err := s.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sess.ResetForUpload()

	preview, err := s.accept(input)
	if err != nil {
		sess.Rejection = rejectionText(err)
		s.events.Notify(ctx, observer.Event{
			Type:         observer.UploadRejected,
			SessionID:    sess.ID,
			Filename:     input.Filename,
			SizeBytes:    int64(len(input.Data)),
			ErrorMessage: sess.Rejection,
		})
		if saveErr := s.sessions.Save(ctx, sess); saveErr != nil {
			return nil, apperrors.NewInternalError("failed to save session", saveErr)
		}
		return sess, err
	}

	sess.File = &models.UploadedFile{
		Filename:    input.Filename,
		ContentType: detectContentType(input),
		Data:        input.Data,
		UploadedAt:  time.Now(),
	}
	sess.Preview = preview
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, apperrors.NewInternalError("failed to save session", err)
	}

	s.events.Notify(ctx, observer.Event{
		Type:      observer.UploadAccepted,
		SessionID: sess.ID,
		Filename:  sess.File.Filename,
		SizeBytes: sess.File.Size(),
		Metadata: map[string]interface{}{
			"content_type": sess.File.ContentType,
			"width":        preview.Width,
			"height":       preview.Height,
		},
	})
	return sess, nil
}

func (s *seismicService) accept(input UploadInput) (*models.Preview, error) {
	if err := s.validator.Validate(input.Filename, int64(len(input.Data))); err != nil {
		return nil, err
	}
	// The preview decodes its own reader over input.Data; the bytes stay as uploaded.
	preview, err := render.BuildPreview(input.Data)
	if err != nil {
		return nil, apperrors.NewValidationError("No se pudo leer la imagen; verifica que sea un PNG o JPG válido", err)
	}
	return preview, nil
}

func (s *seismicService) Analyze(ctx context.Context, sessionID string) (*repository.Session, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, apperrors.NewValidationError("Primero carga una línea sísmica", err)
		}
		return nil, apperrors.NewInternalError("failed to load session", err)
	}
	if sess.File == nil || len(sess.File.Data) == 0 {
		return sess, apperrors.NewValidationError("Primero carga una línea sísmica", nil)
	}

	// The previous outcome is never shown next to the new one.
	sess.Outcome = nil
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, apperrors.NewInternalError("failed to save session", err)
	}

	s.events.Notify(ctx, observer.Event{
		Type:      observer.AnalysisStarted,
		SessionID: sess.ID,
		Filename:  sess.File.Filename,
		SizeBytes: sess.File.Size(),
	})

	// Runs to completion or timeout even if the browser goes away.
	outcome := s.analyzer.Analyze(context.WithoutCancel(ctx), sess.File)

	s.events.Notify(ctx, outcomeEvent(sess.ID, outcome))

	sess.Outcome = &outcome
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, apperrors.NewInternalError("failed to save session", err)
	}
	return sess, nil
}

func (s *seismicService) Report(ctx context.Context, sessionID string) ([]byte, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, apperrors.NewNotFoundError("no report available", err)
	}
	if sess.Outcome == nil || !sess.Outcome.IsSuccess() || sess.Outcome.Result == nil || sess.Outcome.Result.PDF == nil {
		return nil, apperrors.NewNotFoundError("no report available", nil)
	}
	data, err := render.DecodeWire(*sess.Outcome.Result.PDF)
	if err != nil {
		return nil, apperrors.NewNotFoundError("report could not be decoded", err)
	}
	return data, nil
}

func outcomeEvent(sessionID string, o models.Outcome) observer.Event {
	ev := observer.Event{
		SessionID:      sessionID,
		Outcome:        string(o.Kind),
		StatusCode:     o.StatusCode,
		ProcessingTime: o.Duration,
	}
	if o.IsSuccess() {
		ev.Type = observer.AnalysisCompleted
		ev.Metadata = map[string]interface{}{
			"has_image":       o.Result.ProcessedImage != nil,
			"has_description": o.Result.Description != nil,
			"has_pdf":         o.Result.PDF != nil,
		}
		return ev
	}
	ev.Type = observer.AnalysisFailed
	ev.ErrorMessage = outcomeError(o).Error()
	if o.Kind == models.OutcomeTransportFailure {
		ev.Metadata = map[string]interface{}{"timeout": o.Timeout}
	}
	return ev
}

// outcomeError classifies a failed outcome for logs and events.
func outcomeError(o models.Outcome) error {
	switch o.Kind {
	case models.OutcomeServerError:
		return apperrors.NewServerError(o.StatusCode)
	case models.OutcomeMalformedBody:
		return apperrors.NewMalformedBodyError(o.Message, nil)
	case models.OutcomeTransportFailure:
		if o.Timeout {
			return apperrors.NewTimeoutError(o.Message, nil)
		}
		return apperrors.NewTransportError(o.Message, nil)
	default:
		return apperrors.NewInternalError("unknown outcome "+string(o.Kind), nil)
	}
}

func detectContentType(input UploadInput) string {
	if strings.HasPrefix(input.ContentType, "image/") {
		return input.ContentType
	}
	if mt := mimetype.Detect(input.Data); strings.HasPrefix(mt.String(), "image/") {
		return mt.String()
	}
	return http.DetectContentType(input.Data)
}

func rejectionText(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return err.Error()
}
