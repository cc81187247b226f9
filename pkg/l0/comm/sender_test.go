package comm

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/sensorlink.go/pkg/l0/frame"
)

type shortWriter struct{}

func (w *shortWriter) Write(p []byte) (int, error) {
	return len(p) / 2, nil
}

type failWriter struct {
	err error
}

func (w *failWriter) Write(p []byte) (int, error) {
	return 0, w.err
}

type lockedBuffer struct {
	buf  bytes.Buffer
	lock sync.Mutex
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	// one byte at a time to expose interleaving
	for _, c := range p {
		b.buf.WriteByte(c)
	}
	return len(p), nil
}

func TestTransmit(t *testing.T) {
	var buf bytes.Buffer
	s := NewSender(&buf)
	require.NoError(t, s.Transmit(7, 1.5, -2.25, 0, 100.1))
	require.Equal(t, []byte{7, 0, 1, 50, 0, 2, 153, 0, 0, 128, 0, 100, 10, 195}, buf.Bytes())

	require.NoError(t, s.Transmit(7, 1.5, -2.25, 0, 100.1))
	require.Equal(t, buf.Bytes()[:frame.Size], buf.Bytes()[frame.Size:])
}

func TestTransmitErrors(t *testing.T) {
	s := NewSender(&shortWriter{})
	require.Equal(t, io.ErrShortWrite, s.Transmit(1, 1, 2, 3, 4))

	failure := errors.New("port closed")
	s = NewSender(&failWriter{err: failure})
	require.Equal(t, failure, s.Transmit(1, 1, 2, 3, 4))
}

func TestTransmitConcurrent(t *testing.T) {
	var out lockedBuffer
	s := NewSender(&out)
	var wg sync.WaitGroup
	for id := 1; id <= 8; id++ {
		wg.Add(1)
		go func(id byte) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				assert.NoError(t, s.Transmit(id, float64(i), -float64(i), 0.5, 1.25))
			}
		}(byte(id))
	}
	wg.Wait()

	data := out.buf.Bytes()
	require.Len(t, data, 8*50*frame.Size)
	for off := 0; off < len(data); off += frame.Size {
		_, err := frame.DecodeFrame(data[off : off+frame.Size])
		require.NoError(t, err)
	}
}

func TestDebugPrint(t *testing.T) {
	var debug bytes.Buffer
	s := &Sender{Writer: io.Discard, Debug: &debug}
	f := frame.EncodeFrame(7, [frame.NumValues]float64{1.5, -2.25, 0, 100.1})
	require.NoError(t, s.DebugPrint(f[:]))
	require.Equal(t, "frame = [7,0,1,50,0,2,153,0,0,128,0,100,10,195]\n", debug.String())

	s.Debug = nil
	require.NoError(t, s.DebugPrint(f[:]))
}
