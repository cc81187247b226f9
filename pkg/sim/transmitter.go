package sim

import (
	"github.com/golang/glog"

	fx "github.com/robotalks/sensorlink.go/pkg/framework"
	"github.com/robotalks/sensorlink.go/pkg/l0/frame"
)

// FrameSender sends encoded frames, e.g. *comm.Sender.
type FrameSender interface {
	SendFrame(frame.Frame) error
}

// Transmitter samples Source and sends a frame on loop iterations.
type Transmitter struct {
	Source Source
	Sender FrameSender
	// Every sends on every N-th iteration, 0 or 1 sends on all.
	Every uint64
	// Debug receives a printed copy of each frame.
	Debug func(b []byte) error

	sent uint64
}

// NewTransmitter creates a Transmitter.
func NewTransmitter(src Source, sender FrameSender) *Transmitter {
	return &Transmitter{Source: src, Sender: sender}
}

// Sent returns the number of frames sent.
func (t *Transmitter) Sent() uint64 {
	return t.sent
}

// Control implements Controller.
func (t *Transmitter) Control(cc fx.ControlContext) error {
	if t.Every > 1 && cc.Iteration()%t.Every != 0 {
		return nil
	}
	id, values := t.Source.Sample(cc.Time())
	f := frame.EncodeFrame(id, values)
	if err := t.Sender.SendFrame(f); err != nil {
		return err
	}
	t.sent++
	glog.V(2).Infof("sent %s", f)
	if t.Debug != nil {
		return t.Debug(f[:])
	}
	return nil
}

// AddToLoop implements LoopAdder.
func (t *Transmitter) AddToLoop(l *fx.Loop) {
	l.AddController(t)
}
