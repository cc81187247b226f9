package env

import (
	"bytes"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/sensorlink.go/pkg/l1/serial"
)

func TestParseChannelMap(t *testing.T) {
	m, err := ParseChannelMap(" 1=gyro, 2 = raw ,")
	require.NoError(t, err)
	require.Equal(t, ChannelMap{1: "gyro", 2: "raw"}, m)
	require.Equal(t, "1=gyro,2=raw", m.String())
	require.Equal(t, "gyro", m.ChannelName(1))
	require.Equal(t, "id9", m.ChannelName(9))
	require.True(t, m.Accept(2))
	require.False(t, m.Accept(3))

	for _, s := range []string{"1", "x=gyro", "256=gyro", "1=", "1=a/b", "1=#", "1=cmd", "2=raw,3= cmd "} {
		_, err := ParseChannelMap(s)
		require.Error(t, err, s)
	}
}

func TestLoadEnv(t *testing.T) {
	vars := map[string]string{
		EnvPort:     "tcp://localhost:7000",
		EnvBaud:     "9600",
		EnvMQTTURL:  "mqtt://broker/s/",
		EnvRecord:   "out.csv",
		EnvChannels: "1=rate",
		EnvWSAddr:   ":8080",
	}
	conf := NewConfig()
	require.NoError(t, conf.LoadEnv(func(key string) string { return vars[key] }))
	require.Equal(t, "tcp://localhost:7000", conf.Port)
	require.True(t, conf.IsTCP())
	require.Equal(t, 9600, conf.Serial.BaudRate)
	require.Equal(t, "mqtt://broker/s/", conf.MQTTURL)
	require.Equal(t, "out.csv", conf.Record)
	require.Equal(t, ChannelMap{1: "rate"}, conf.Channels)
	require.Equal(t, ":8080", conf.WSAddr)

	vars = map[string]string{EnvBaud: "fast"}
	require.Error(t, NewConfig().LoadEnv(func(key string) string { return vars[key] }))
	vars = map[string]string{EnvChannels: "rate"}
	require.Error(t, NewConfig().LoadEnv(func(key string) string { return vars[key] }))
}

func TestNewConfigCopiesChannels(t *testing.T) {
	conf := NewConfig()
	conf.Channels[200] = "tmp"
	require.NotContains(t, Default().Channels, byte(200))
}

func TestAccept(t *testing.T) {
	conf := NewConfig()
	conf.Channels = ChannelMap{1: "rate"}
	require.Nil(t, conf.Accept())
	conf.Strict = true
	accept := conf.Accept()
	require.NotNil(t, accept)
	require.True(t, accept(1))
	require.False(t, accept(2))
}

type testPort struct {
	bytes.Buffer
}

func (p *testPort) Close() error { return nil }

func TestOpenPort(t *testing.T) {
	var opened string
	var opts serial.PortOptions
	saved := Opener
	defer func() { Opener = saved }()
	Opener = func(path string, o serial.PortOptions) (serial.Port, error) {
		opened, opts = path, o
		return &testPort{}, nil
	}

	conf := NewConfig()
	conf.Port = "/dev/ttyACM0"
	conf.Serial.BaudRate = 57600
	port, err := conf.OpenPort()
	require.NoError(t, err)
	require.NoError(t, port.Close())
	require.Equal(t, "/dev/ttyACM0", opened)
	require.Equal(t, 57600, opts.BaudRate)

	conf.Port = ""
	_, err = conf.OpenPort()
	require.Error(t, err)
}

type testTimeoutPort struct {
	testPort
	timeout time.Duration
	err     error
	closed  bool
}

func (p *testTimeoutPort) SetReadTimeout(d time.Duration) error {
	p.timeout = d
	return p.err
}

func (p *testTimeoutPort) Close() error {
	p.closed = true
	return nil
}

func TestOpenPortReadTimeout(t *testing.T) {
	port := &testTimeoutPort{}
	saved := Opener
	defer func() { Opener = saved }()
	Opener = func(path string, o serial.PortOptions) (serial.Port, error) {
		return port, nil
	}

	conf := NewConfig()
	conf.Port = "/dev/ttyACM0"
	conf.IdleTimeout = 30 * time.Millisecond
	opened, err := conf.OpenPort()
	require.NoError(t, err)
	require.Equal(t, 30*time.Millisecond, port.timeout)
	r := conf.NewReceiver(opened)
	require.True(t, r.ReadTimeout)
	require.Equal(t, 30*time.Millisecond, r.Timeout)

	require.False(t, conf.NewReceiver(&testPort{}).ReadTimeout)
	conf.IdleTimeout = 0
	require.False(t, conf.NewReceiver(opened).ReadTimeout)

	port = &testTimeoutPort{err: errors.New("unsupported")}
	conf.IdleTimeout = time.Second
	_, err = conf.OpenPort()
	require.Error(t, err)
	require.True(t, port.closed)
}

func TestOpenPortTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			conn.Write([]byte("ok"))
			conn.Close()
		}
	}()

	conf := NewConfig()
	conf.Port = TCPScheme + ln.Addr().String()
	port, err := conf.OpenPort()
	require.NoError(t, err)
	defer port.Close()
	data, err := io.ReadAll(port)
	require.NoError(t, err)
	require.Equal(t, "ok", string(data))
}

func TestNewQueue(t *testing.T) {
	conf := NewConfig()
	conf.MQTTURL = ""
	q, err := conf.NewQueue("test")
	require.NoError(t, err)
	require.Nil(t, q)

	conf.MQTTURL = "mqtt://localhost:1883/sensors/?client-id=me"
	q, err = conf.NewQueue("test")
	require.NoError(t, err)
	require.Equal(t, "sensors/", q.TopicPrefix)
	reader := q.Client.OptionsReader()
	require.Equal(t, "me", reader.ClientID())

	conf.MQTTURL = "http://localhost"
	_, err = conf.NewQueue("test")
	require.Error(t, err)
}

func TestNewRecorder(t *testing.T) {
	conf := NewConfig()
	conf.Record = ""
	rec, err := conf.NewRecorder()
	require.NoError(t, err)
	require.Nil(t, rec)

	conf.Record = "-"
	rec, err = conf.NewRecorder()
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.NoError(t, rec.Close())
}

func TestWebsocketPort(t *testing.T) {
	conf := NewConfig()
	conf.Port = "ws://localhost:1/"
	require.True(t, conf.IsWebsocket())
	_, err := conf.OpenPort()
	require.Error(t, err)
	conf.Port = "/dev/ttyS0"
	require.False(t, conf.IsWebsocket())
	_, err = conf.DialWebsocket()
	require.Error(t, err)
}

func TestFilePort(t *testing.T) {
	dir, err := os.MkdirTemp("", "env")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "capture.bin")
	require.NoError(t, os.WriteFile(path, []byte{1, 2}, 0644))

	conf := NewConfig()
	conf.Port = FileScheme + path
	require.True(t, conf.IsFile())
	_, err = conf.OpenPort()
	require.Error(t, err)
	f, err := conf.OpenFile()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	conf.Port = FileScheme + filepath.Join(dir, "missing.bin")
	_, err = conf.OpenFile()
	require.Error(t, err)
	conf.Port = path
	_, err = conf.OpenFile()
	require.Error(t, err)
}
