package models

import (
	"fmt"
	"time"
)

// Wire names of the optional fields in the endpoint's JSON answer.
const (
	FieldProcessedImage = "imagen_procesada"
	FieldDescription    = "descripcion"
	FieldPDF            = "pdf"
)

// AnalysisResult is the endpoint's answer. Every field is optional; nil means
// the endpoint did not send it. Binary fields stay base64 encoded as on the wire.
type AnalysisResult struct {
	ProcessedImage *string `json:"imagen_procesada,omitempty"`
	Description    *string `json:"descripcion,omitempty"`
	PDF            *string `json:"pdf,omitempty"`
}

// IsEmpty reports whether none of the three fields was present.
func (r *AnalysisResult) IsEmpty() bool {
	return r == nil || (r.ProcessedImage == nil && r.Description == nil && r.PDF == nil)
}

// OutcomeKind tags which variant an Outcome holds.
type OutcomeKind string

const (
	OutcomeSuccess          OutcomeKind = "success"
	OutcomeServerError      OutcomeKind = "server_error"
	OutcomeMalformedBody    OutcomeKind = "malformed_body"
	OutcomeTransportFailure OutcomeKind = "transport_failure"
)

// Outcome is the classified result of exactly one analysis attempt.
//
// Result is set only for OutcomeSuccess. StatusCode carries the endpoint's
// status for every kind except OutcomeTransportFailure. Message holds the
// underlying error text for OutcomeTransportFailure and OutcomeMalformedBody.
type Outcome struct {
	Kind       OutcomeKind
	Result     *AnalysisResult
	StatusCode int
	Message    string
	Timeout    bool
	Duration   time.Duration
}

func Success(statusCode int, result *AnalysisResult) Outcome {
	if result == nil {
		result = &AnalysisResult{}
	}
	return Outcome{Kind: OutcomeSuccess, StatusCode: statusCode, Result: result}
}

func ServerError(statusCode int) Outcome {
	return Outcome{Kind: OutcomeServerError, StatusCode: statusCode}
}

func MalformedBody(statusCode int, cause error) Outcome {
	o := Outcome{Kind: OutcomeMalformedBody, StatusCode: statusCode}
	if cause != nil {
		o.Message = cause.Error()
	}
	return o
}

func TransportFailure(cause error, timeout bool) Outcome {
	o := Outcome{Kind: OutcomeTransportFailure, Timeout: timeout}
	if cause != nil {
		o.Message = cause.Error()
	}
	return o
}

func (o Outcome) IsSuccess() bool {
	return o.Kind == OutcomeSuccess
}

func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeSuccess:
		return fmt.Sprintf("Success(%d)", o.StatusCode)
	case OutcomeServerError:
		return fmt.Sprintf("ServerError(%d)", o.StatusCode)
	case OutcomeMalformedBody:
		return "MalformedBody"
	case OutcomeTransportFailure:
		return fmt.Sprintf("TransportFailure(%s)", o.Message)
	default:
		return string(o.Kind)
	}
}

// UploadedFile is the file a session holds until the user asks for analysis.
// Data is kept exactly as received.
type UploadedFile struct {
	Filename    string
	ContentType string
	Data        []byte
	UploadedAt  time.Time
}

// Size returns the number of raw bytes held.
func (f *UploadedFile) Size() int64 {
	if f == nil {
		return 0
	}
	return int64(len(f.Data))
}

// Preview is the normalised PNG rendition of an upload, as a data URI.
type Preview struct {
	Src    string
	Width  int
	Height int
	Format string
}
