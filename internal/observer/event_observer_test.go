package observer

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

type panickyObserver struct{}

func (panickyObserver) OnEvent(ctx context.Context, event Event) { panic("boom") }
func (panickyObserver) Name() string                             { return "panicky" }

func TestStatsObserver_Counts(t *testing.T) {
	stats := NewStatsObserver()
	pub := NewEventPublisher()
	pub.Subscribe(stats)
	ctx := context.Background()

	pub.Notify(ctx, Event{Type: UploadAccepted, SessionID: "a"})
	pub.Notify(ctx, Event{Type: UploadRejected, SessionID: "a"})
	pub.Notify(ctx, Event{Type: AnalysisStarted, SessionID: "a"})
	pub.Notify(ctx, Event{Type: AnalysisCompleted, SessionID: "a", ProcessingTime: 2 * time.Second})
	pub.Notify(ctx, Event{Type: AnalysisStarted, SessionID: "b"})
	pub.Notify(ctx, Event{Type: AnalysisFailed, SessionID: "b", Outcome: "server_error"})

	s := stats.Snapshot()
	assert.Equal(t, int64(1), s.Uploads)
	assert.Equal(t, int64(1), s.RejectedUploads)
	assert.Equal(t, int64(2), s.Analyses)
	assert.Equal(t, int64(1), s.Completed)
	assert.Equal(t, int64(1), s.Failed)
	assert.Equal(t, int64(1), s.FailuresByOutcome["server_error"])
	assert.Equal(t, int64(2000), s.AvgProcessingMs)
}

func TestEventPublisher_PanicIsContained(t *testing.T) {
	stats := NewStatsObserver()
	pub := NewEventPublisher()
	pub.Subscribe(panickyObserver{})
	pub.Subscribe(stats)

	assert.NotPanics(t, func() {
		pub.Notify(context.Background(), Event{Type: UploadAccepted})
	})
	assert.Equal(t, int64(1), stats.Snapshot().Uploads)
}

func TestEventPublisher_Unsubscribe(t *testing.T) {
	stats := NewStatsObserver()
	pub := NewEventPublisher()
	pub.Subscribe(stats)
	pub.Unsubscribe(stats)

	pub.Notify(context.Background(), Event{Type: UploadAccepted})
	assert.Equal(t, int64(0), stats.Snapshot().Uploads)
}

func TestLoggingObserver_Fields(t *testing.T) {
	var buf bytes.Buffer
	log := logrus.New()
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.JSONFormatter{})

	NewLoggingObserver(log).OnEvent(context.Background(), Event{
		Type:       AnalysisFailed,
		SessionID:  "s-1",
		Outcome:    "transport_failure",
		StatusCode: 0,
		Metadata:   map[string]interface{}{"timeout": true},
	})

	out := buf.String()
	assert.Contains(t, out, `"event_type":"analysis_failed"`)
	assert.Contains(t, out, `"session_id":"s-1"`)
	assert.Contains(t, out, `"timeout":true`)
	assert.Contains(t, out, `"level":"error"`)
	assert.NotContains(t, out, "status_code")
}
