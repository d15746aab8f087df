package instrument

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Tracer is the real Instrumenter: spans and events go to the buffer.
type Tracer struct {
	buffer *EventBuffer
}

func NewTracer(buffer *EventBuffer) *Tracer {
	return &Tracer{buffer: buffer}
}

func (t *Tracer) StartSpan(ctx context.Context, source, component, action string) (context.Context, Span) {
	s := &tracedSpan{
		buffer:    t.buffer,
		start:     time.Now(),
		spanID:    uuid.New().String(),
		source:    source,
		component: component,
		action:    action,
		userID:    userIDFrom(ctx),
	}
	if parent := currentSpan(ctx); parent != nil {
		s.traceID = parent.TraceID()
		s.parentSpanID = parent.SpanID()
	} else {
		s.traceID = uuid.New().String()
	}
	return context.WithValue(ctx, spanKey, Span(s)), s
}

func (t *Tracer) EmitBusinessEvent(ctx context.Context, action, entity, recordID string, metadata map[string]any) {
	e := Event{
		SpanID:    uuid.New().String(),
		EventType: "business",
		Action:    action,
		Entity:    entity,
		RecordID:  recordID,
		UserID:    userIDFrom(ctx),
		Metadata:  metadata,
	}
	if parent := currentSpan(ctx); parent != nil {
		e.TraceID = parent.TraceID()
		e.ParentSpanID = parent.SpanID()
	} else {
		e.TraceID = uuid.New().String()
	}
	t.buffer.Enqueue(e)
}

type tracedSpan struct {
	buffer       *EventBuffer
	start        time.Time
	traceID      string
	spanID       string
	parentSpanID string
	source       string
	component    string
	action       string
	entity       string
	recordID     string
	userID       string
	status       string
	metadata     map[string]any
}

func (s *tracedSpan) End() {
	status := s.status
	if status == "" {
		status = "ok"
	}
	s.buffer.Enqueue(Event{
		TraceID:      s.traceID,
		SpanID:       s.spanID,
		ParentSpanID: s.parentSpanID,
		EventType:    "span",
		Source:       s.source,
		Component:    s.component,
		Action:       s.action,
		Entity:       s.entity,
		RecordID:     s.recordID,
		UserID:       s.userID,
		DurationMs:   time.Since(s.start).Milliseconds(),
		Status:       status,
		Metadata:     s.metadata,
	})
}

func (s *tracedSpan) SetStatus(status string) { s.status = status }

func (s *tracedSpan) SetMetadata(key string, value any) {
	if s.metadata == nil {
		s.metadata = make(map[string]any)
	}
	s.metadata[key] = value
}

func (s *tracedSpan) SetEntity(entity, recordID string) {
	s.entity = entity
	s.recordID = recordID
}

func (s *tracedSpan) TraceID() string { return s.traceID }
func (s *tracedSpan) SpanID() string  { return s.spanID }

type userIDKey struct{}

// WithUserID records the authenticated user id for subsequent spans.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey{}, id)
}

func userIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey{}).(string)
	return id
}
