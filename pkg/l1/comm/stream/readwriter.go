package stream

import (
	"bufio"
	"io"

	"github.com/robotalks/sensorlink.go/pkg/l0/frame"
)

// ReadWriter implements FrameReadWriter over a byte stream.
// Frames are written back to back; reading resynchronizes on the checksum
// like a serial receiver, so the stream may start in the middle of a frame.
type ReadWriter struct {
	rw     io.ReadWriter
	reader *bufio.Reader
	parser frame.Parser
}

// New creates a ReadWriter with io.ReadWriter.
func New(s io.ReadWriter) *ReadWriter {
	return &ReadWriter{rw: s, reader: bufio.NewReader(s)}
}

// WithAccept installs an id filter used while syncing.
func (p *ReadWriter) WithAccept(accept func(id byte) bool) *ReadWriter {
	p.parser.Accept = accept
	return p
}

// Dropped returns the number of bytes skipped to find frames.
func (p *ReadWriter) Dropped() uint64 {
	return p.parser.Dropped()
}

// ReadFrame implements FrameReader.
func (p *ReadWriter) ReadFrame() (frame.Frame, error) {
	for {
		b, err := p.reader.ReadByte()
		if err != nil {
			return frame.Frame{}, err
		}
		if pr := p.parser.Parse(b); pr.Frame != nil {
			return *pr.Frame, nil
		}
	}
}

// WriteFrame implements FrameWriter.
func (p *ReadWriter) WriteFrame(f frame.Frame) error {
	_, err := p.rw.Write(f[:])
	return err
}

// Close implements io.Closer if the underlying stream is closable.
func (p *ReadWriter) Close() error {
	if closer, ok := p.rw.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
