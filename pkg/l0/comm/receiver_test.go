package comm

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/sensorlink.go/pkg/l0/frame"
)

// scriptedReader returns chunks in order. A nil chunk simulates a read
// timeout (0 bytes, no error). io.EOF follows the last chunk.
type scriptedReader struct {
	chunks [][]byte
}

func (r *scriptedReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		return 0, io.EOF
	}
	chunk := r.chunks[0]
	if len(chunk) > len(p) {
		r.chunks[0] = chunk[len(p):]
		return copy(p, chunk), nil
	}
	r.chunks = r.chunks[1:]
	return copy(p, chunk), nil
}

type receiverTestCtx struct {
	t        *testing.T
	readings []frame.Reading
	states   []frame.SyncState
	lock     sync.Mutex
}

func newReceiverTestCtx(t *testing.T, r *Receiver) *receiverTestCtx {
	tctx := &receiverTestCtx{t: t}
	r.Handler = HandleReadingFunc(func(ctx context.Context, reading frame.Reading) error {
		tctx.lock.Lock()
		defer tctx.lock.Unlock()
		tctx.readings = append(tctx.readings, reading)
		return nil
	})
	r.Notifier = StateChangedFunc(func(ctx context.Context, state frame.SyncState) {
		tctx.lock.Lock()
		defer tctx.lock.Unlock()
		tctx.states = append(tctx.states, state)
	})
	return tctx
}

func (c *receiverTestCtx) expectIDs(ids ...byte) *receiverTestCtx {
	c.lock.Lock()
	defer c.lock.Unlock()
	actual := make([]byte, 0, len(c.readings))
	for _, r := range c.readings {
		actual = append(actual, r.ID)
	}
	require.Equal(c.t, ids, actual)
	return c
}

var (
	testFrame1 = frame.EncodeFrame(1, [frame.NumValues]float64{1.5, -2.25, 0, 100.1})
	testFrame2 = frame.EncodeFrame(2, [frame.NumValues]float64{-1, 2, -3, 4})
)

func concat(chunks ...[]byte) (b []byte) {
	for _, c := range chunks {
		b = append(b, c...)
	}
	return
}

func TestReceiverStream(t *testing.T) {
	pr, pw := io.Pipe()
	r := NewReceiver(pr)
	tctx := newReceiverTestCtx(t, r)

	go func() {
		pw.Write(concat([]byte{0xde, 0xad, 0xbe}, testFrame1[:], testFrame2[:]))
		pw.Close()
	}()
	err := r.Run(context.Background())
	require.Equal(t, io.EOF, err)

	tctx.expectIDs(1, 2)
	require.Equal(t, Stats{Frames: 2, Dropped: 3}, r.Stats())
	require.Equal(t, frame.SyncStateReady, r.State())
	require.InDelta(t, -2.25, tctx.readings[0].Values[1], 1e-9)
	require.InDelta(t, 100.1, tctx.readings[0].Values[3], 1e-9)
}

func TestReceiverIdleTimeout(t *testing.T) {
	pr, pw := io.Pipe()
	r := NewReceiver(pr)
	r.Timeout = 20 * time.Millisecond
	tctx := newReceiverTestCtx(t, r)

	go func() {
		pw.Write(testFrame1[:5])
		time.Sleep(100 * time.Millisecond)
		pw.Write(concat(testFrame2[:], testFrame1[:]))
		pw.Close()
	}()
	require.Equal(t, io.EOF, r.Run(context.Background()))

	tctx.expectIDs(2, 1)
	require.Equal(t, Stats{Frames: 2, Dropped: 5}, r.Stats())
	require.Equal(t, frame.SyncStateReceiving, tctx.states[0])
}

func TestReceiverReadTimeout(t *testing.T) {
	r := NewReceiver(&scriptedReader{chunks: [][]byte{
		testFrame1[:5],
		nil,
		concat(testFrame2[:], testFrame1[:]),
	}})
	r.ReadTimeout = true
	tctx := newReceiverTestCtx(t, r)

	require.Equal(t, io.EOF, r.Run(context.Background()))
	tctx.expectIDs(2, 1)
	require.Equal(t, Stats{Frames: 2, Dropped: 5}, r.Stats())
}

func TestReceiverAccept(t *testing.T) {
	r := NewReceiver(&scriptedReader{chunks: [][]byte{concat(testFrame2[:], testFrame1[:])}})
	r.Accept = func(id byte) bool { return id == 1 }
	tctx := newReceiverTestCtx(t, r)

	require.Equal(t, io.EOF, r.Run(context.Background()))
	tctx.expectIDs(1)
}

func TestReceiverHandlerError(t *testing.T) {
	r := NewReceiver(&scriptedReader{chunks: [][]byte{concat(testFrame1[:], testFrame2[:])}})
	var ids []byte
	r.Handler = HandleReadingFunc(func(ctx context.Context, reading frame.Reading) error {
		ids = append(ids, reading.ID)
		return errors.New("handler failure")
	})
	require.Equal(t, io.EOF, r.Run(context.Background()))
	require.Equal(t, []byte{1, 2}, ids)
}

func TestReceiverCancel(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	r := NewReceiver(pr)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- r.Run(ctx)
	}()
	cancel()
	select {
	case err := <-errCh:
		require.Equal(t, context.Canceled, err)
	case <-time.After(time.Second):
		t.Fatal("receiver didn't stop")
	}
}

func TestSenderToReceiver(t *testing.T) {
	pr, pw := io.Pipe()
	s := NewSender(pw)
	r := NewReceiver(pr)
	tctx := newReceiverTestCtx(t, r)

	go func() {
		for i := 0; i < 10; i++ {
			s.Transmit(byte(i), float64(i)+0.25, -float64(i), 65535.5, 0)
		}
		pw.Close()
	}()
	require.Equal(t, io.EOF, r.Run(context.Background()))

	require.Len(t, tctx.readings, 10)
	for i, reading := range tctx.readings {
		require.Equal(t, byte(i), reading.ID)
		require.InDelta(t, float64(i)+0.25, reading.Values[0], 1e-9)
		require.InDelta(t, -float64(i), reading.Values[1], 1e-9)
		require.InDelta(t, 65535.5, reading.Values[2], 1e-9)
		require.Equal(t, 0.0, reading.Values[3])
	}
}

type frameRecorder struct {
	frames []frame.Frame
}

func (r *frameRecorder) WriteFrame(f frame.Frame) error {
	r.frames = append(r.frames, f)
	return nil
}

func TestReceiverForward(t *testing.T) {
	r := NewReceiver(&scriptedReader{chunks: [][]byte{concat([]byte{9}, testFrame1[:], testFrame2[:])}})
	fwd := &frameRecorder{}
	r.Forward = fwd
	require.Equal(t, io.EOF, r.Run(context.Background()))
	require.Equal(t, []frame.Frame{testFrame1, testFrame2}, fwd.frames)
}

func TestHandlerMux(t *testing.T) {
	var calls int
	ok := HandleReadingFunc(func(context.Context, frame.Reading) error {
		calls++
		return nil
	})
	failure := errors.New("failure")
	fail := HandleReadingFunc(func(context.Context, frame.Reading) error {
		calls++
		return failure
	})

	mux := (&HandlerMux{}).Add(ok, nil, ok)
	require.NoError(t, mux.HandleReading(context.Background(), testFrame1.Decode()))
	require.Equal(t, 2, calls)

	mux.Add(fail)
	err := mux.HandleReading(context.Background(), testFrame1.Decode())
	require.Error(t, err)
	require.Contains(t, err.Error(), "failure")
	require.Equal(t, 5, calls)
}
