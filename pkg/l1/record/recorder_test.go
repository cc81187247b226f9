package record

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/sensorlink.go/pkg/l0/frame"
)

type channels map[byte]string

func (c channels) ChannelName(id byte) string { return c[id] }

func TestRecorder(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)
	r.Channels = channels{7: "gyro"}
	at := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	r.Now = func() time.Time { return at }

	ctx := context.Background()
	require.NoError(t, r.HandleReading(ctx, frame.EncodeFrame(7, [frame.NumValues]float64{1.5, -2.25, 0, 100.1}).Decode()))
	require.NoError(t, r.HandleReading(ctx, frame.Reading{ID: 8, Values: [frame.NumValues]float64{1, 2, 3, 4}}))
	require.Equal(t, "time,id,channel,v0,v1,v2,v3\n"+
		"2020-01-02T03:04:05Z,7,gyro,1.50,-2.25,0.00,100.10\n"+
		"2020-01-02T03:04:05Z,8,,1.00,2.00,3.00,4.00\n", buf.String())
	require.NoError(t, r.Close())
}

func TestRecorderFlushEvery(t *testing.T) {
	readRows := func(buf *bytes.Buffer) [][]string {
		rows, err := csv.NewReader(bytes.NewReader(buf.Bytes())).ReadAll()
		require.NoError(t, err)
		return rows
	}
	ctx := context.Background()

	var buf bytes.Buffer
	r := New(&buf)
	r.FlushEvery = 2
	require.NoError(t, r.HandleReading(ctx, frame.Reading{ID: 1}))
	require.Zero(t, buf.Len())
	require.NoError(t, r.HandleReading(ctx, frame.Reading{ID: 2}))
	rows := readRows(&buf)
	require.Len(t, rows, 3)
	require.Equal(t, Header, rows[0])
	require.NoError(t, r.HandleReading(ctx, frame.Reading{ID: 3}))
	require.Len(t, readRows(&buf), 3)
	require.NoError(t, r.HandleReading(ctx, frame.Reading{ID: 4}))
	require.Len(t, readRows(&buf), 5)

	for _, every := range []int{0, 1} {
		buf.Reset()
		r := New(&buf)
		r.FlushEvery = every
		require.NoError(t, r.HandleReading(ctx, frame.Reading{ID: 1}))
		require.Len(t, readRows(&buf), 2, "FlushEvery=%d", every)
	}
}

func TestCreate(t *testing.T) {
	dir, err := os.MkdirTemp("", "record")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "readings.csv")
	r, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, r.HandleReading(context.Background(), frame.Reading{ID: 1}))
	require.NoError(t, r.Close())

	rows, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(rows), "time,id,channel")
}
