// Package comm moves L0 frames over L1 transports.
package comm

import "github.com/robotalks/sensorlink.go/pkg/l0/frame"

// FrameReader reads frames.
type FrameReader interface {
	ReadFrame() (frame.Frame, error)
}

// FrameWriter writes frames.
type FrameWriter interface {
	WriteFrame(frame.Frame) error
}

// FrameReadWriter reads/writes frames.
type FrameReadWriter interface {
	FrameReader
	FrameWriter
}
