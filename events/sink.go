package events

import (
	"sync"

	"go.uber.org/zap"
)

// Sink receives committed events.
type Sink interface {
	Emit(e Event)
}

// Discard drops every event.
var Discard Sink = discard{}

type discard struct{}

func (discard) Emit(Event) {}

// Recorder keeps events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

// Of returns the recorded events of type T in emission order.
func Of[T Event](r *Recorder) []T {
	var out []T
	for _, e := range r.Events() {
		if v, ok := e.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

// LogSink writes events through zap at info level.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(e Event) {
	s.logger.Info(e.EventName(), zap.Object("event", e))
}

// Multi fans events out to every sink in order.
type Multi []Sink

func (m Multi) Emit(e Event) {
	for _, s := range m {
		s.Emit(e)
	}
}

// Buffer holds the events of one call until it commits.
type Buffer struct {
	events []Event
}

func (b *Buffer) Add(e Event) {
	b.events = append(b.events, e)
}

func (b *Buffer) Len() int {
	return len(b.events)
}

// Flush emits the buffered events to sink and empties the buffer.
func (b *Buffer) Flush(sink Sink) {
	for _, e := range b.events {
		sink.Emit(e)
	}
	b.events = nil
}

// Drop empties the buffer without emitting.
func (b *Buffer) Drop() {
	b.events = nil
}
