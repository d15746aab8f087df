package instrument

import "context"

// Every evaluation path calls through an Instrumenter unconditionally, so
// disabled instrumentation and sampled-out requests get these do-nothing
// implementations instead of nil checks at each call site.

// NoopInstrumenter drops spans and business events.
type NoopInstrumenter struct{}

func (NoopInstrumenter) StartSpan(ctx context.Context, source, component, action string) (context.Context, Span) {
	return ctx, NoopSpan{}
}

func (NoopInstrumenter) EmitBusinessEvent(ctx context.Context, action, entity, recordID string, metadata map[string]any) {
}

// NoopSpan ignores everything recorded on it.
type NoopSpan struct{}

func (NoopSpan) End()                             {}
func (NoopSpan) SetStatus(status string)          {}
func (NoopSpan) SetMetadata(key string, value any) {}
func (NoopSpan) SetEntity(entity, recordID string) {}
func (NoopSpan) TraceID() string                  { return "" }
func (NoopSpan) SpanID() string                   { return "" }
