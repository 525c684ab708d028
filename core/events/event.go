package events

import (
	"log/slog"

	"stakevault/core/types"
)

// Event represents a structured state change emitted by the vault.
type Event interface {
	EventType() string
	Event() *types.Event
}

// Emitter broadcasts events to downstream subscribers (e.g. RPC, indexers).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter is a helper that satisfies the Emitter interface while discarding
// all events. It is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// LogEmitter writes every event to a structured logger. The daemon wires it as
// the default emitter so committed operations leave an audit trail.
type LogEmitter struct {
	logger *slog.Logger
}

// NewLogEmitter creates an emitter over the supplied logger. A nil logger
// falls back to slog.Default.
func NewLogEmitter(logger *slog.Logger) *LogEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogEmitter{logger: logger}
}

// Emit implements the Emitter interface.
func (l *LogEmitter) Emit(evt Event) {
	if l == nil || evt == nil {
		return
	}
	payload := evt.Event()
	if payload == nil {
		return
	}
	attrs := make([]any, 0, len(payload.Attributes)*2+2)
	attrs = append(attrs, "event", payload.Type)
	for k, v := range payload.Attributes {
		attrs = append(attrs, k, v)
	}
	l.logger.Info("event emitted", attrs...)
}
