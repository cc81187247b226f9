package comm

import (
	"context"
	"io"
	"sync"

	"github.com/golang/glog"

	fx "github.com/robotalks/sensorlink.go/pkg/framework"
	l0 "github.com/robotalks/sensorlink.go/pkg/l0/comm"
	"github.com/robotalks/sensorlink.go/pkg/l0/frame"
)

// Pipe reads frames from a FrameReader, hands the decoded readings to
// Handler and optionally forwards the raw frames to Forward.
type Pipe struct {
	Reader  FrameReader
	Handler l0.ReadingHandler
	Forward FrameWriter

	frames uint64
	lock   sync.Mutex
}

// NewPipe creates a Pipe with given FrameReader.
func NewPipe(r FrameReader) *Pipe {
	return &Pipe{Reader: r}
}

// Frames returns the number of frames passed through.
func (p *Pipe) Frames() uint64 {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.frames
}

// Run implements Runnable.
func (p *Pipe) Run(ctx context.Context) error {
	return fx.RunWithContextCancel(ctx, func() { p.Close() }, func() error {
		for {
			f, err := p.Reader.ReadFrame()
			if err != nil {
				return err
			}
			p.lock.Lock()
			p.frames++
			p.lock.Unlock()
			if err := p.pass(ctx, f); err != nil {
				return err
			}
		}
	})
}

func (p *Pipe) pass(ctx context.Context, f frame.Frame) error {
	if w := p.Forward; w != nil {
		if err := w.WriteFrame(f); err != nil {
			return err
		}
	}
	if h := p.Handler; h != nil {
		if err := h.HandleReading(ctx, f.Decode()); err != nil {
			glog.Errorf("handle frame %d error: %v", f.ID(), err)
		}
	}
	return nil
}

// Close implements io.Closer.
func (p *Pipe) Close() error {
	if closer, ok := p.Reader.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// AddToLoop implements LoopAdder.
func (p *Pipe) AddToLoop(loop *fx.Loop) {
	loop.AddRunnable(p)
}
