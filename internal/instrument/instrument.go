package instrument

import "context"

// Event is one row bound for the _events table: an HTTP request span, a rule
// evaluation span, or a custom business event.
type Event struct {
	TraceID      string
	SpanID       string
	ParentSpanID string
	EventType    string // "span" or "business"
	Source       string // "http", "engine", ...
	Component    string
	Action       string
	Entity       string
	RecordID     string
	UserID       string
	DurationMs   int64
	Status       string
	Metadata     map[string]any
}

// Span is a single timed operation.
type Span interface {
	End()
	SetStatus(status string)
	SetMetadata(key string, value any)
	SetEntity(entity, recordID string)
	TraceID() string
	SpanID() string
}

// Instrumenter creates spans and emits events. The request middleware picks
// a real or noop instrumenter per request and stores it on the context.
type Instrumenter interface {
	StartSpan(ctx context.Context, source, component, action string) (context.Context, Span)
	EmitBusinessEvent(ctx context.Context, action, entity, recordID string, metadata map[string]any)
}

type ctxKey int

const (
	instrumenterKey ctxKey = iota
	spanKey
)

// WithInstrumenter stores the instrumenter on the context.
func WithInstrumenter(ctx context.Context, inst Instrumenter) context.Context {
	return context.WithValue(ctx, instrumenterKey, inst)
}

// GetInstrumenter returns the context's instrumenter, or a noop one.
func GetInstrumenter(ctx context.Context) Instrumenter {
	if inst, ok := ctx.Value(instrumenterKey).(Instrumenter); ok {
		return inst
	}
	return NoopInstrumenter{}
}

func currentSpan(ctx context.Context) Span {
	span, _ := ctx.Value(spanKey).(Span)
	return span
}
