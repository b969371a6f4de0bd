package service

import (
	"context"
	"log/slog"
	"sync"
)

// ─────────────────────────────────────────────────────────────
// EventEmitter: decouples services from whatever shows messages
// ─────────────────────────────────────────────────────────────

// EventEmitter delivers events to the operator-facing surface (terminal,
// MCP client). Services receive this interface so they stay testable with
// a mock emitter.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

// Event names emitted by the services.
const (
	EventWarning = "notify:warning"
	EventSuccess = "notify:success"
	EventError   = "notify:error"
)

// Notice is the payload of the notify:* events.
type Notice struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// LogEmitter writes notify:* events through slog. Used by the CLI.
type LogEmitter struct {
	Log *slog.Logger
}

func (e LogEmitter) Emit(ctx context.Context, event string, data any) {
	log := e.Log
	if log == nil {
		log = slog.Default()
	}
	n, ok := data.(Notice)
	if !ok {
		log.InfoContext(ctx, event, "data", data)
		return
	}
	switch event {
	case EventWarning:
		log.WarnContext(ctx, n.Message, "kind", n.Kind)
	case EventError:
		log.ErrorContext(ctx, n.Message, "kind", n.Kind)
	default:
		log.InfoContext(ctx, n.Message, "kind", n.Kind)
	}
}

// NopEmitter discards every event.
type NopEmitter struct{}

func (NopEmitter) Emit(context.Context, string, any) {}

// MockEmitter is a test-friendly EventEmitter that records all calls.
type MockEmitter struct {
	mu     sync.Mutex
	Events []EmittedEvent
}

// EmittedEvent holds a single recorded emission for test assertions.
type EmittedEvent struct {
	Event string
	Data  any
}

func (m *MockEmitter) Emit(_ context.Context, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, EmittedEvent{Event: event, Data: data})
}

// Count returns how many events named event were emitted with the given
// notice kind; an empty kind matches any.
func (m *MockEmitter) Count(event, kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.Events {
		if e.Event != event {
			continue
		}
		if kind == "" {
			n++
			continue
		}
		if notice, ok := e.Data.(Notice); ok && notice.Kind == kind {
			n++
		}
	}
	return n
}
