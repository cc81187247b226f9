package comm

import (
	"context"

	fx "github.com/robotalks/sensorlink.go/pkg/framework"
	"github.com/robotalks/sensorlink.go/pkg/l0/frame"
)

// ReadingHandler is called when a frame is received.
type ReadingHandler interface {
	HandleReading(context.Context, frame.Reading) error
}

// HandleReadingFunc is func type of ReadingHandler.
type HandleReadingFunc func(context.Context, frame.Reading) error

// HandleReading implements ReadingHandler.
func (f HandleReadingFunc) HandleReading(ctx context.Context, r frame.Reading) error {
	return f(ctx, r)
}

// FrameWriter receives raw frames, e.g. a Sender bridging to another link.
type FrameWriter interface {
	WriteFrame(frame.Frame) error
}

// StateNotifier is called when stream sync state changed.
type StateNotifier interface {
	StateChanged(context.Context, frame.SyncState)
}

// StateChangedFunc is func type of StateNotifier.
type StateChangedFunc func(context.Context, frame.SyncState)

// StateChanged implements StateNotifier.
func (f StateChangedFunc) StateChanged(ctx context.Context, state frame.SyncState) {
	f(ctx, state)
}

// HandlerMux dispatches a reading to multiple handlers.
type HandlerMux struct {
	Handlers []ReadingHandler
}

// Add adds more handlers. nil is skipped.
func (m *HandlerMux) Add(handlers ...ReadingHandler) *HandlerMux {
	for _, h := range handlers {
		if h != nil {
			m.Handlers = append(m.Handlers, h)
		}
	}
	return m
}

// HandleReading implements ReadingHandler. All handlers are called even if
// some of them fail.
func (m *HandlerMux) HandleReading(ctx context.Context, r frame.Reading) error {
	var errs fx.AggregatedError
	for _, h := range m.Handlers {
		errs.Add(h.HandleReading(ctx, r))
	}
	return errs.Aggregate()
}
