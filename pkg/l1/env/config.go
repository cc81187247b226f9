// Package env configures sensorlink programs from flags and environment.
package env

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"

	l0 "github.com/robotalks/sensorlink.go/pkg/l0/comm"
	"github.com/robotalks/sensorlink.go/pkg/l1/comm/mqtt"
	"github.com/robotalks/sensorlink.go/pkg/l1/comm/websocket"
	"github.com/robotalks/sensorlink.go/pkg/l1/record"
	"github.com/robotalks/sensorlink.go/pkg/l1/serial"
)

// TCPScheme prefixes a Port which is dialed over TCP instead of opened as a
// serial device, e.g. tcp://localhost:7000.
const TCPScheme = "tcp://"

// FileScheme prefixes a Port which replays a raw byte capture,
// e.g. file:///tmp/capture.bin.
const FileScheme = "file://"

// Port prefixes of websocket frame servers, e.g. ws://host:8080/.
const (
	WSScheme  = "ws://"
	WSSScheme = "wss://"
)

// Config provides common options of sensorlink programs.
type Config struct {
	// Port is the serial device path, tcp://host:port, file://capture, or
	// the ws:// URL of another daemon serving frames.
	Port   string
	Serial serial.PortOptions
	// IdleTimeout discards a partial frame when the port goes quiet.
	IdleTimeout time.Duration

	Channels ChannelMap
	// Strict accepts only ids listed in Channels.
	Strict bool

	// MQTTURL specifies the MQTT broker to publish readings.
	// e.g. mqtt://host:port/topic-prefix/
	MQTTURL string
	// MQTTValues publishes each value on its own topic as well.
	MQTTValues bool

	// WSAddr serves raw frames to websocket clients.
	WSAddr string

	// Record is the CSV file readings are appended to, "-" for stdout.
	Record string
}

// Environment variables overriding defaults.
const (
	EnvPort     = "SENSORLINK_SERIAL"
	EnvBaud     = "SENSORLINK_BAUD"
	EnvMQTTURL  = "SENSORLINK_MQTT_URL"
	EnvRecord   = "SENSORLINK_RECORD"
	EnvChannels = "SENSORLINK_CHANNELS"
	EnvWSAddr   = "SENSORLINK_WS_ADDR"
)

// Opener opens serial ports, replaceable in tests.
var Opener serial.Opener = serial.Open

var defaultConfig = Config{
	Port:        "/dev/ttyUSB0",
	Serial:      serial.PortOptions{BaudRate: serial.DefaultBaudRate},
	IdleTimeout: l0.DefaultIdleTimeout,
	Channels:    ChannelMap{},
	MQTTValues:  true,
}

func init() {
	if err := defaultConfig.LoadEnv(os.Getenv); err != nil {
		log.Fatalln(err)
	}
}

// LoadEnv overrides the config with environment variables.
func (c *Config) LoadEnv(getenv func(string) string) error {
	if val := getenv(EnvPort); val != "" {
		c.Port = val
	}
	if val := getenv(EnvBaud); val != "" {
		baud, err := strconv.Atoi(val)
		if err != nil || baud <= 0 {
			return fmt.Errorf("invalid %s: %q", EnvBaud, val)
		}
		c.Serial.BaudRate = baud
	}
	if val := getenv(EnvMQTTURL); val != "" {
		c.MQTTURL = val
	}
	if val := getenv(EnvRecord); val != "" {
		c.Record = val
	}
	if val := getenv(EnvChannels); val != "" {
		channels, err := ParseChannelMap(val)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvChannels, err)
		}
		c.Channels = channels
	}
	if val := getenv(EnvWSAddr); val != "" {
		c.WSAddr = val
	}
	return nil
}

// SetupFlags sets up command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Port, "port", defaultConfig.Port, "Serial device, tcp://host:port, file://capture or ws://host:port/ of another daemon.")
	flag.IntVar(&defaultConfig.Serial.BaudRate, "baud", defaultConfig.Serial.BaudRate, "Serial baud rate.")
	flag.StringVar(&defaultConfig.Serial.Parity, "parity", defaultConfig.Serial.Parity, "Serial parity: N, E, O.")
	flag.DurationVar(&defaultConfig.IdleTimeout, "idle-timeout", defaultConfig.IdleTimeout, "Discard partial frames after idle.")
	flag.Var(defaultConfig.Channels, "channels", "Channel names, e.g. 1=rate,2=raw.")
	flag.BoolVar(&defaultConfig.Strict, "strict", defaultConfig.Strict, "Accept only ids listed in -channels.")
	flag.StringVar(&defaultConfig.MQTTURL, "mqtt", defaultConfig.MQTTURL, "MQTT broker URL, e.g. mqtt://localhost:1883/sensors/.")
	flag.BoolVar(&defaultConfig.MQTTValues, "mqtt-values", defaultConfig.MQTTValues, "Publish each value on its own topic.")
	flag.StringVar(&defaultConfig.WSAddr, "ws", defaultConfig.WSAddr, "Serve frames over websocket on address.")
	flag.StringVar(&defaultConfig.Record, "record", defaultConfig.Record, "Record readings to CSV file, - for stdout.")
}

// Default gets the default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	conf.Channels = make(ChannelMap, len(defaultConfig.Channels))
	for id, name := range defaultConfig.Channels {
		conf.Channels[id] = name
	}
	return &conf
}

// Accept returns the id filter, nil when all ids are accepted.
func (c *Config) Accept() func(id byte) bool {
	if !c.Strict || len(c.Channels) == 0 {
		return nil
	}
	return c.Channels.Accept
}

// IsTCP tells if Port is dialed over TCP.
func (c *Config) IsTCP() bool {
	return strings.HasPrefix(c.Port, TCPScheme)
}

// IsWebsocket tells if Port is a websocket frame server.
func (c *Config) IsWebsocket() bool {
	return strings.HasPrefix(c.Port, WSScheme) || strings.HasPrefix(c.Port, WSSScheme)
}

// IsFile tells if Port replays a capture file.
func (c *Config) IsFile() bool {
	return strings.HasPrefix(c.Port, FileScheme)
}

// OpenFile opens the capture file at Port.
func (c *Config) OpenFile() (*os.File, error) {
	if !c.IsFile() {
		return nil, fmt.Errorf("not a file URL: %q", c.Port)
	}
	return os.Open(strings.TrimPrefix(c.Port, FileScheme))
}

// DialWebsocket connects to the websocket frame server at Port.
func (c *Config) DialWebsocket() (*websocket.ReadWriter, error) {
	if !c.IsWebsocket() {
		return nil, fmt.Errorf("not a websocket URL: %q", c.Port)
	}
	rw, err := websocket.Dial(c.Port, "http://localhost/")
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", c.Port, err)
	}
	glog.Infof("connected %s", c.Port)
	return rw, nil
}

// OpenPort opens the serial port or dials the TCP address.
func (c *Config) OpenPort() (io.ReadWriteCloser, error) {
	if c.Port == "" {
		return nil, fmt.Errorf("port must be specified")
	}
	if c.IsWebsocket() {
		return nil, fmt.Errorf("websocket %s carries frames, not bytes", c.Port)
	}
	if c.IsFile() {
		return nil, fmt.Errorf("capture %s is read only", c.Port)
	}
	if c.IsTCP() {
		conn, err := net.Dial("tcp", strings.TrimPrefix(c.Port, TCPScheme))
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", c.Port, err)
		}
		glog.Infof("connected %s", c.Port)
		return conn, nil
	}
	port, err := Opener(c.Port, c.Serial)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", c.Port, err)
	}
	if c.IdleTimeout > 0 {
		if _, err := serial.SetReadTimeout(port, c.IdleTimeout); err != nil {
			port.Close()
			return nil, fmt.Errorf("set read timeout %s: %w", c.Port, err)
		}
	}
	return port, nil
}

// NewReceiver creates a Receiver on a port opened by OpenPort. Serial ports
// with a read timeout detect idle gaps on the line directly.
func (c *Config) NewReceiver(port io.Reader) *l0.Receiver {
	r := l0.NewReceiver(port)
	r.Accept = c.Accept()
	r.Timeout = c.IdleTimeout
	if _, ok := port.(serial.TimeoutPort); ok && c.IdleTimeout > 0 {
		r.ReadTimeout = true
	}
	return r
}

// MustOpenPort opens the port and fails on error.
func (c *Config) MustOpenPort() io.ReadWriteCloser {
	port, err := c.OpenPort()
	if err != nil {
		log.Fatalln(err)
	}
	return port
}

// NewQueue creates the MQTT queue, nil if MQTTURL is not configured.
// The client id defaults to ClientID(role).
func (c *Config) NewQueue(role string) (*mqtt.Queue, error) {
	if c.MQTTURL == "" {
		return nil, nil
	}
	opts, prefix, err := mqtt.ClientOptionsFromURL(c.MQTTURL)
	if err != nil {
		return nil, fmt.Errorf("invalid MQTT URL: %w", err)
	}
	if opts.ClientID == "" {
		opts.SetClientID(ClientID(role))
	}
	return mqtt.NewQueue(opts, prefix), nil
}

// NewRecorder creates the CSV recorder, nil if Record is not configured.
func (c *Config) NewRecorder() (*record.Recorder, error) {
	var rec *record.Recorder
	switch c.Record {
	case "":
		return nil, nil
	case "-":
		rec = record.New(nopCloser{os.Stdout})
	default:
		r, err := record.Create(c.Record)
		if err != nil {
			return nil, err
		}
		rec = r
	}
	rec.Channels = c.Channels
	return rec, nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
