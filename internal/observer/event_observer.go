package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// EventType represents the type of page event
type EventType string

const (
	UploadAccepted    EventType = "upload_accepted"
	UploadRejected    EventType = "upload_rejected"
	AnalysisStarted   EventType = "analysis_started"
	AnalysisCompleted EventType = "analysis_completed"
	AnalysisFailed    EventType = "analysis_failed"
)

// Event describes something that happened in one session
type Event struct {
	Type           EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	SessionID      string                 `json:"session_id"`
	Filename       string                 `json:"filename,omitempty"`
	SizeBytes      int64                  `json:"size_bytes,omitempty"`
	Outcome        string                 `json:"outcome,omitempty"`
	StatusCode     int                    `json:"status_code,omitempty"`
	ProcessingTime time.Duration          `json:"processing_time,omitempty"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event Event)
	Name() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	Notify(ctx context.Context, event Event)
}

// LoggingObserver logs events
type LoggingObserver struct {
	logger *logrus.Logger
}

func NewLoggingObserver(logger *logrus.Logger) *LoggingObserver {
	return &LoggingObserver{logger: logger}
}

func (o *LoggingObserver) OnEvent(ctx context.Context, event Event) {
	fields := logrus.Fields{
		"event_type": event.Type,
		"session_id": event.SessionID,
	}
	if event.Filename != "" {
		fields["filename"] = event.Filename
		fields["size_bytes"] = event.SizeBytes
	}
	if event.Outcome != "" {
		fields["outcome"] = event.Outcome
	}
	if event.StatusCode != 0 {
		fields["status_code"] = event.StatusCode
	}
	if event.ProcessingTime > 0 {
		fields["processing_time_ms"] = event.ProcessingTime.Milliseconds()
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.Type {
	case UploadAccepted:
		entry.Info("Seismic line uploaded")
	case UploadRejected:
		entry.Warn("Upload rejected")
	case AnalysisStarted:
		entry.Info("Seismic line analysis started")
	case AnalysisCompleted:
		entry.Info("Seismic line analysis completed")
	case AnalysisFailed:
		entry.Error("Seismic line analysis failed")
	default:
		entry.Info("Page event")
	}
}

func (o *LoggingObserver) Name() string {
	return "logging_observer"
}

// StatsObserver counts events for the health endpoint
type StatsObserver struct {
	mu                  sync.RWMutex
	uploads             int64
	rejectedUploads     int64
	analyses            int64
	completed           int64
	failed              int64
	failuresByOutcome   map[string]int64
	totalProcessingTime time.Duration
}

func NewStatsObserver() *StatsObserver {
	return &StatsObserver{failuresByOutcome: make(map[string]int64)}
}

func (o *StatsObserver) OnEvent(ctx context.Context, event Event) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.Type {
	case UploadAccepted:
		o.uploads++
	case UploadRejected:
		o.rejectedUploads++
	case AnalysisStarted:
		o.analyses++
	case AnalysisCompleted:
		o.completed++
		o.totalProcessingTime += event.ProcessingTime
	case AnalysisFailed:
		o.failed++
		o.failuresByOutcome[event.Outcome]++
	}
}

func (o *StatsObserver) Name() string {
	return "stats_observer"
}

// Stats is a point-in-time copy of the counters
type Stats struct {
	Uploads           int64            `json:"uploads"`
	RejectedUploads   int64            `json:"rejected_uploads"`
	Analyses          int64            `json:"analyses"`
	Completed         int64            `json:"completed"`
	Failed            int64            `json:"failed"`
	FailuresByOutcome map[string]int64 `json:"failures_by_outcome,omitempty"`
	AvgProcessingMs   int64            `json:"avg_processing_ms"`
}

func (o *StatsObserver) Snapshot() Stats {
	o.mu.RLock()
	defer o.mu.RUnlock()

	s := Stats{
		Uploads:           o.uploads,
		RejectedUploads:   o.rejectedUploads,
		Analyses:          o.analyses,
		Completed:         o.completed,
		Failed:            o.failed,
		FailuresByOutcome: make(map[string]int64, len(o.failuresByOutcome)),
	}
	for k, v := range o.failuresByOutcome {
		s.FailuresByOutcome[k] = v
	}
	if o.completed > 0 {
		s.AvgProcessingMs = (o.totalProcessingTime / time.Duration(o.completed)).Milliseconds()
	}
	return s
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

func NewEventPublisher() *EventPublisher {
	return &EventPublisher{observers: make([]Observer, 0)}
}

func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.Name() == observer.Name() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// Notify delivers event to every observer in subscription order, on the
// caller's goroutine. A panicking observer does not stop the others.
func (p *EventPublisher) Notify(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, obs := range observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logrus.WithField("observer", obs.Name()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}()
	}
}
