// Package sim provides simulated sensor sources for the frame sender.
package sim

import (
	"math"
	"time"

	"github.com/robotalks/sensorlink.go/pkg/l0/frame"
)

// Values are the 4 values carried by a frame.
type Values = [frame.NumValues]float64

// Source produces a sample for a frame at the given time.
type Source interface {
	Sample(t time.Time) (id byte, values Values)
}

// SourceFunc is the func form of Source.
type SourceFunc func(t time.Time) (byte, Values)

// Sample implements Source.
func (f SourceFunc) Sample(t time.Time) (byte, Values) {
	return f(t)
}

// Constant always samples the same values.
func Constant(id byte, values Values) Source {
	return SourceFunc(func(time.Time) (byte, Values) {
		return id, values
	})
}

// Waveform samples sine waves, one per value:
// Offset[i] + Amplitude[i] * sin(2*pi*(t-Start)/Period + Phase[i]).
type Waveform struct {
	ID        byte
	Amplitude Values
	Offset    Values
	// Phase in radians.
	Phase  Values
	Period time.Duration
	Start  time.Time
}

// Sample implements Source.
func (w *Waveform) Sample(t time.Time) (byte, Values) {
	var values Values
	var x float64
	if w.Period > 0 {
		x = 2 * math.Pi * float64(t.Sub(w.Start)) / float64(w.Period)
	}
	for i := range values {
		values[i] = w.Offset[i] + w.Amplitude[i]*math.Sin(x+w.Phase[i])
	}
	return w.ID, values
}

// RoundRobin samples one source after another, so interleaved ids share
// the link like the telemetry frames of a real device.
type RoundRobin struct {
	Sources []Source

	next int
}

// Sample implements Source.
func (r *RoundRobin) Sample(t time.Time) (byte, Values) {
	src := r.Sources[r.next%len(r.Sources)]
	r.next = (r.next + 1) % len(r.Sources)
	return src.Sample(t)
}
