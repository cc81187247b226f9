// Package serial opens serial ports carrying sensor frames.
package serial

import (
	"io"
	"time"

	"github.com/golang/glog"
	"go.bug.st/serial"
)

// Port is the minimal interface of an opened serial port.
type Port interface {
	io.ReadWriteCloser
}

// TimeoutPort is a Port supporting read timeouts.
// Read returns 0 bytes without error when the timeout expires.
type TimeoutPort interface {
	Port
	SetReadTimeout(time.Duration) error
}

// Opener opens a port, replaceable in tests.
type Opener func(path string, opts PortOptions) (Port, error)

// Open opens the serial port at path.
func Open(path string, opts PortOptions) (Port, error) {
	mode, err := opts.Mode()
	if err != nil {
		return nil, err
	}
	port, err := serial.Open(path, mode)
	if err != nil {
		return nil, err
	}
	glog.Infof("opened %s (%d baud)", path, mode.BaudRate)
	return port, nil
}

// SetReadTimeout sets the read timeout when port is a TimeoutPort, so a
// reader can detect idle gaps on the line. It reports whether it was set.
func SetReadTimeout(port Port, timeout time.Duration) (bool, error) {
	tp, ok := port.(TimeoutPort)
	if !ok {
		return false, nil
	}
	if err := tp.SetReadTimeout(timeout); err != nil {
		return false, err
	}
	return true, nil
}

// Ports lists the serial ports available on the system.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}
