// Package record writes received readings to CSV.
package record

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/robotalks/sensorlink.go/pkg/l0/frame"
)

// Header is the first CSV row.
var Header = []string{"time", "id", "channel", "v0", "v1", "v2", "v3"}

// TimeFormat formats the time column.
const TimeFormat = time.RFC3339Nano

// ChannelNamer names the channel of a frame id.
type ChannelNamer interface {
	ChannelName(id byte) string
}

// Recorder appends one CSV row per reading.
type Recorder struct {
	Channels ChannelNamer
	Now      func() time.Time
	// FlushEvery flushes after the number of rows, 0 or 1 flushes every row.
	FlushEvery int

	w       *csv.Writer
	closer  io.Closer
	started bool
	pending int
	lock    sync.Mutex
}

// New creates a Recorder writing to w.
// The header is written before the first row.
func New(w io.Writer) *Recorder {
	r := &Recorder{w: csv.NewWriter(w), Now: time.Now}
	if closer, ok := w.(io.Closer); ok {
		r.closer = closer
	}
	return r
}

// Create creates or truncates the file and records into it.
func Create(path string) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return New(f), nil
}

// Row formats a reading as a CSV row.
func Row(at time.Time, channel string, r frame.Reading) []string {
	row := make([]string, 0, len(Header))
	row = append(row, at.UTC().Format(TimeFormat), strconv.Itoa(int(r.ID)), channel)
	for _, v := range r.Values {
		row = append(row, frame.FormatValue(v))
	}
	return row
}

// HandleReading implements ReadingHandler.
func (r *Recorder) HandleReading(ctx context.Context, reading frame.Reading) error {
	var channel string
	if r.Channels != nil {
		channel = r.Channels.ChannelName(reading.ID)
	}
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	row := Row(now(), channel, reading)

	r.lock.Lock()
	defer r.lock.Unlock()
	if !r.started {
		if err := r.w.Write(Header); err != nil {
			return err
		}
		r.started = true
	}
	if err := r.w.Write(row); err != nil {
		return err
	}
	r.pending++
	if r.pending >= r.FlushEvery {
		return r.flush()
	}
	return nil
}

func (r *Recorder) flush() error {
	r.pending = 0
	r.w.Flush()
	return r.w.Error()
}

// Flush writes buffered rows.
func (r *Recorder) Flush() error {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.flush()
}

// Close flushes and closes the underlying writer if closable.
func (r *Recorder) Close() error {
	err := r.Flush()
	if r.closer != nil {
		if cerr := r.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
