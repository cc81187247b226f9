package comm

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/sensorlink.go/pkg/l0/frame"
)

// DefaultIdleTimeout is the default gap after which a partially received
// frame is discarded.
const DefaultIdleTimeout = 100 * time.Millisecond

// Receiver reads frames from a byte source.
type Receiver struct {
	Reader   io.Reader
	Handler  ReadingHandler
	Notifier StateNotifier
	// Forward optionally receives the raw frames before Handler.
	Forward FrameWriter
	// Accept optionally filters frames by id while syncing.
	Accept func(id byte) bool
	// Timeout is the idle gap discarding a partial frame. 0 disables it.
	Timeout time.Duration
	// ReadTimeout is set to true if Reader already returns on timeout
	// (0 bytes or a timeout error), e.g. a serial port with a read timeout.
	ReadTimeout bool

	state   frame.SyncState
	frames  uint64
	dropped uint64
	lock    sync.RWMutex

	idleTimer <-chan time.Time
	parser    frame.Parser
}

// Stats reports receiver counters.
type Stats struct {
	Frames  uint64
	Dropped uint64
}

// NewReceiver creates a Receiver.
func NewReceiver(r io.Reader) *Receiver {
	return &Receiver{
		Reader:  r,
		Timeout: DefaultIdleTimeout,
	}
}

// State gets the sync state.
func (r *Receiver) State() frame.SyncState {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.state
}

// Stats gets the counters.
func (r *Receiver) Stats() Stats {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return Stats{Frames: r.frames, Dropped: r.dropped}
}

// Run reads the byte source until it fails or ctx is done.
func (r *Receiver) Run(ctx context.Context) error {
	r.parser.Accept = r.Accept
	r.applyParseResult(ctx, r.parser.Reset())

	if r.ReadTimeout {
		buf := make([]byte, frame.Size)
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			n, err := r.Reader.Read(buf)
			if err != nil {
				if !os.IsTimeout(err) {
					return err
				}
				n = 0
			}
			if n == 0 {
				r.applyParseResult(ctx, r.parser.Timeout())
				continue
			}
			r.parseBytes(ctx, buf[:n])
		}
	}

	dataCh, errCh := make(chan []byte), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go r.readLoop(subCtx, dataCh, errCh)
	for {
		select {
		case data := <-dataCh:
			r.parseBytes(ctx, data)
		case err := <-errCh:
			return err
		case <-ctx.Done():
			return ctx.Err()
		case <-r.idleTimer:
			r.idleTimer = nil
			r.applyParseResult(ctx, r.parser.Timeout())
		}
	}
}

func (r *Receiver) readLoop(ctx context.Context, dataCh chan []byte, errCh chan error) {
	for {
		buf := make([]byte, frame.Size)
		n, err := r.Reader.Read(buf)
		if err != nil {
			errCh <- err
			return
		}
		if n == 0 {
			continue
		}
		select {
		case dataCh <- buf[:n]:
		case <-ctx.Done():
			return
		}
	}
}

func (r *Receiver) parseBytes(ctx context.Context, data []byte) {
	for _, b := range data {
		r.applyParseResult(ctx, r.parser.Parse(b))
	}
	if r.Timeout > 0 && !r.ReadTimeout {
		if r.parser.State().IsReceiving() {
			r.idleTimer = time.After(r.Timeout)
		} else {
			r.idleTimer = nil
		}
	}
}

func (r *Receiver) applyParseResult(ctx context.Context, pr frame.ParseResult) {
	var notifier StateNotifier
	r.lock.Lock()
	if r.state != pr.State {
		r.state = pr.State
		notifier = r.Notifier
	}
	r.dropped += uint64(pr.Dropped)
	if pr.Frame != nil {
		r.frames++
	}
	r.lock.Unlock()

	if pr.Dropped > 0 && glog.V(1) {
		glog.Warningf("dropped %d bytes", pr.Dropped)
	}
	if notifier != nil {
		notifier.StateChanged(ctx, pr.State)
	}
	if pr.Frame == nil {
		return
	}
	if glog.V(2) {
		glog.Infof("RCV %s", pr.Frame)
	}
	if w := r.Forward; w != nil {
		if err := w.WriteFrame(*pr.Frame); err != nil {
			glog.Errorf("forward frame %d error: %v", pr.Frame.ID(), err)
		}
	}
	if h := r.Handler; h != nil {
		if err := h.HandleReading(ctx, pr.Frame.Decode()); err != nil {
			glog.Errorf("handle frame %d error: %v", pr.Frame.ID(), err)
		}
	}
}
