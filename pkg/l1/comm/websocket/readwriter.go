package websocket

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	l0 "github.com/robotalks/sensorlink.go/pkg/l0/comm"
	"github.com/robotalks/sensorlink.go/pkg/l0/frame"
)

// ReadWriter implements FrameReadWriter, one binary message per frame.
type ReadWriter websocket.Conn

// New wraps websocket.Conn.
func New(conn *websocket.Conn) *ReadWriter {
	return (*ReadWriter)(conn)
}

// Dial connects to a websocket frame server.
func Dial(url, origin string) (*ReadWriter, error) {
	conn, err := websocket.Dial(url, "", origin)
	if err != nil {
		return nil, err
	}
	return New(conn), nil
}

// ReadFrame implements FrameReader. Messages which are not valid frames
// are rejected with frame.ErrFrameSize or *frame.ChecksumError.
func (p *ReadWriter) ReadFrame() (frame.Frame, error) {
	var msg []byte
	if err := websocket.Message.Receive((*websocket.Conn)(p), &msg); err != nil {
		return frame.Frame{}, err
	}
	return frame.FromBytes(msg)
}

// WriteFrame implements FrameWriter.
func (p *ReadWriter) WriteFrame(f frame.Frame) error {
	return websocket.Message.Send((*websocket.Conn)(p), f[:])
}

// Close implements io.Closer.
func (p *ReadWriter) Close() error {
	return (*websocket.Conn)(p).Close()
}

// Broadcaster is a FrameWriter serving frames to websocket clients.
// Slow clients drop frames instead of blocking the writer.
// Frames sent by clients go to Commands.
type Broadcaster struct {
	QueueSize int
	Commands  l0.FrameWriter

	clients map[chan frame.Frame]*websocket.Conn
	lock    sync.Mutex
}

// DefaultQueueSize is the default per-client queue length.
const DefaultQueueSize = 64

// NewBroadcaster creates a Broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{QueueSize: DefaultQueueSize}
}

// WriteFrame implements FrameWriter.
func (b *Broadcaster) WriteFrame(f frame.Frame) error {
	b.lock.Lock()
	defer b.lock.Unlock()
	for ch := range b.clients {
		select {
		case ch <- f:
		default:
		}
	}
	return nil
}

// Clients returns the number of connected clients.
func (b *Broadcaster) Clients() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return len(b.clients)
}

// Handler returns the http.Handler accepting websocket clients.
func (b *Broadcaster) Handler() http.Handler {
	return websocket.Handler(b.serve)
}

// Serve serves websocket clients on addr until ctx is done.
func (b *Broadcaster) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return b.ServeListener(ctx, ln)
}

// ServeListener serves websocket clients on ln until ctx is done, then
// disconnects all clients.
func (b *Broadcaster) ServeListener(ctx context.Context, ln net.Listener) error {
	server := &http.Server{Handler: b.Handler()}
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ln)
	}()
	glog.Infof("serving frames on ws://%s", ln.Addr())
	select {
	case <-ctx.Done():
		server.Close()
		<-errCh
		b.disconnect()
		return ctx.Err()
	case err := <-errCh:
		b.disconnect()
		return err
	}
}

// hijacked connections are not closed by http.Server.Close.
func (b *Broadcaster) disconnect() {
	b.lock.Lock()
	defer b.lock.Unlock()
	for _, conn := range b.clients {
		conn.Close()
	}
}

func (b *Broadcaster) serve(conn *websocket.Conn) {
	size := b.QueueSize
	if size <= 0 {
		size = DefaultQueueSize
	}
	ch := make(chan frame.Frame, size)
	b.lock.Lock()
	if b.clients == nil {
		b.clients = make(map[chan frame.Frame]*websocket.Conn)
	}
	b.clients[ch] = conn
	b.lock.Unlock()
	defer func() {
		b.lock.Lock()
		delete(b.clients, ch)
		b.lock.Unlock()
	}()

	addr := conn.Request().RemoteAddr
	glog.V(1).Infof("websocket client %s connected", addr)
	rw := New(conn)
	closed := make(chan struct{})
	go func() {
		b.receive(addr, rw)
		close(closed)
	}()
	for {
		select {
		case <-closed:
			glog.V(1).Infof("websocket client %s disconnected", addr)
			return
		case f := <-ch:
			if err := rw.WriteFrame(f); err != nil {
				glog.V(1).Infof("websocket client %s: %v", addr, err)
				rw.Close()
				<-closed
				return
			}
		}
	}
}

// receive passes frames sent by the client to Commands until the
// connection fails.
func (b *Broadcaster) receive(addr string, rw *ReadWriter) {
	for {
		f, err := rw.ReadFrame()
		var csErr *frame.ChecksumError
		switch {
		case errors.Is(err, frame.ErrFrameSize) || errors.As(err, &csErr):
			glog.Warningf("websocket client %s: %v", addr, err)
			continue
		case err != nil:
			return
		}
		if b.Commands == nil {
			glog.Warningf("websocket client %s: no device for command %v", addr, f)
			continue
		}
		if err := b.Commands.WriteFrame(f); err != nil {
			glog.Errorf("websocket client %s: command error: %v", addr, err)
		}
	}
}
