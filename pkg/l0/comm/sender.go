package comm

import (
	"io"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/sensorlink.go/pkg/l0/frame"
)

// Sender encodes and writes frames to a byte sink.
type Sender struct {
	// Writer is the byte sink, e.g. a serial port.
	Writer io.Writer
	// Debug receives DebugPrint lines. When nil, they go to the log.
	Debug io.Writer

	lock sync.Mutex
}

// NewSender creates a Sender writing to w.
func NewSender(w io.Writer) *Sender {
	return &Sender{Writer: w}
}

// Transmit encodes id and four values and writes the 14-byte frame.
// No acknowledgement is expected; only write errors are reported.
func (s *Sender) Transmit(id byte, v0, v1, v2, v3 float64) error {
	return s.SendFrame(frame.EncodeFrame(id, [frame.NumValues]float64{v0, v1, v2, v3}))
}

// SendFrame writes an encoded frame in a single write.
// Concurrent calls never interleave frames on the sink.
func (s *Sender) SendFrame(f frame.Frame) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	n, err := s.Writer.Write(f[:])
	if err == nil && n < frame.Size {
		err = io.ErrShortWrite
	}
	if err != nil {
		return err
	}
	if glog.V(2) {
		glog.Infof("SND %s", f)
	}
	return nil
}

// WriteFrame implements l1 comm FrameWriter.
func (s *Sender) WriteFrame(f frame.Frame) error {
	return s.SendFrame(f)
}

// DebugPrint writes the bytes as "frame = [...]" to the diagnostic sink.
func (s *Sender) DebugPrint(b []byte) error {
	line := frame.Format(b)
	if s.Debug == nil {
		glog.Info(line)
		return nil
	}
	_, err := io.WriteString(s.Debug, line+"\n")
	return err
}
