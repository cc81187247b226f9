// Package sh provides the interactive shell for sensor links.
package sh

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/abiosoft/ishell"

	l0 "github.com/robotalks/sensorlink.go/pkg/l0/comm"
	"github.com/robotalks/sensorlink.go/pkg/l0/frame"
	"github.com/robotalks/sensorlink.go/pkg/l1/env"
	"github.com/robotalks/sensorlink.go/pkg/l1/serial"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	AutoOpen    bool

	Shell  *ishell.Shell
	Config *env.Config
	Conn   *Conn
	// Out receives watched readings, defaults to the shell output.
	Out io.Writer

	lock sync.Mutex
}

// Conn is an opened port with a running receiver.
type Conn struct {
	Name     string
	Port     io.ReadWriteCloser
	Sender   *l0.Sender
	Receiver *l0.Receiver

	cancel   func()
	done     chan error
	watching bool
	lock     sync.Mutex
}

const (
	shellKey       = "$shell"
	unopenedPrompt = "[none] > "
)

var (
	// flags

	evalOnly bool

	// commands
	commands = []*ishell.Cmd{
		&PortsCmd,
		&OpenCmd,
		&CloseCmd,
		&WatchCmd,
		&StatsCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(conf *env.Config) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		Shell:       ishell.New(),
		Config:      conf,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unopenedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeOpened wraps command func requiring an opened port.
func MustBeOpened(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Current() == nil {
			c.Err(fmt.Errorf("port not opened"))
			return
		}
		fn(c)
	}
}

// WithAutoOpen sets AutoOpen.
func (s *Shell) WithAutoOpen(en bool) *Shell {
	s.AutoOpen = en
	return s
}

// Current returns the opened connection.
func (s *Shell) Current() *Conn {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.Conn
}

// FormatReading prints a reading for display.
func FormatReading(r frame.Reading, channel string) string {
	values := make([]string, len(r.Values))
	for i, v := range r.Values {
		values[i] = frame.FormatValue(v)
	}
	return fmt.Sprintf("%s(%d): %s", channel, r.ID, strings.Join(values, " "))
}

func (s *Shell) setPrompt(prompt string) {
	if s.Shell != nil {
		s.Shell.SetPrompt(prompt)
	}
}

func (s *Shell) output() io.Writer {
	if s.Out != nil {
		return s.Out
	}
	return shellWriter{s.Shell}
}

type shellWriter struct {
	sh *ishell.Shell
}

func (w shellWriter) Write(p []byte) (int, error) {
	w.sh.Print(string(p))
	return len(p), nil
}

// OpenWith attaches an already opened port, replacing the current one.
func (s *Shell) OpenWith(name string, port io.ReadWriteCloser) *Conn {
	conn := &Conn{
		Name:     name,
		Port:     port,
		Sender:   l0.NewSender(port),
		Receiver: s.Config.NewReceiver(port),
		done:     make(chan error, 1),
	}
	conn.Sender.Debug = s.output()
	conn.Receiver.Handler = l0.HandleReadingFunc(func(ctx context.Context, r frame.Reading) error {
		if conn.Watching() {
			fmt.Fprintln(s.output(), FormatReading(r, s.Config.Channels.ChannelName(r.ID)))
		}
		return nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	conn.cancel = cancel
	go func() {
		conn.done <- conn.Receiver.Run(ctx)
	}()

	s.lock.Lock()
	prev := s.Conn
	s.Conn = conn
	s.lock.Unlock()
	if prev != nil {
		prev.Close()
	}
	s.setPrompt(fmt.Sprintf("[%s] > ", name))
	return conn
}

// Open opens a port and starts receiving.
func (s *Shell) Open(path string, baud int) (*Conn, error) {
	conf := *s.Config
	conf.Port = path
	if baud > 0 {
		conf.Serial.BaudRate = baud
	}
	port, err := conf.OpenPort()
	if err != nil {
		return nil, err
	}
	return s.OpenWith(path, port), nil
}

// Close closes the current port.
func (s *Shell) Close() error {
	s.lock.Lock()
	conn := s.Conn
	s.Conn = nil
	s.lock.Unlock()
	if conn == nil {
		return nil
	}
	s.setPrompt(unopenedPrompt)
	return conn.Close()
}

// Watching tells if received readings are printed.
func (c *Conn) Watching() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.watching
}

// SetWatching enables/disables printing received readings.
func (c *Conn) SetWatching(en bool) {
	c.lock.Lock()
	c.watching = en
	c.lock.Unlock()
}

// Close stops the receiver and closes the port.
func (c *Conn) Close() error {
	c.cancel()
	err := c.Port.Close()
	<-c.done
	return err
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoOpen && s.Config.Port != "" {
		if s.Interactive {
			s.Shell.Printf("Opening %s ...\n", s.Config.Port)
		}
		if _, err := s.Open(s.Config.Port, 0); err != nil {
			log.Fatalf("open %q failed: %v", s.Config.Port, err)
		}
	}
	defer s.Close()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// PortsCmd lists serial ports.
	PortsCmd = ishell.Cmd{
		Name:    "ports",
		Aliases: []string{"l"},
		Help:    "list serial ports",
		Func: func(c *ishell.Context) {
			ports, err := serial.Ports()
			if err != nil {
				c.Err(err)
				return
			}
			if len(ports) == 0 {
				c.Println("No serial ports found")
				return
			}
			for _, port := range ports {
				c.Println(port)
			}
		},
	}

	// OpenCmd opens a port.
	OpenCmd = ishell.Cmd{
		Name:    "open",
		Aliases: []string{"o"},
		Help:    "PATH|tcp://HOST:PORT [BAUD]",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("PATH required"))
				return
			}
			var baud int
			if len(c.Args) > 1 {
				if _, err := fmt.Sscanf(c.Args[1], "%d", &baud); err != nil || baud <= 0 {
					c.Err(fmt.Errorf("invalid BAUD: %q", c.Args[1]))
					return
				}
			}
			if _, err := ShellFrom(c).Open(c.Args[0], baud); err != nil {
				c.Err(err)
			}
		},
	}

	// CloseCmd closes current port.
	CloseCmd = ishell.Cmd{
		Name:    "close",
		Aliases: []string{"c"},
		Help:    "",
		Func: func(c *ishell.Context) {
			if err := ShellFrom(c).Close(); err != nil {
				c.Err(err)
			}
		},
	}

	// WatchCmd toggles printing received readings.
	WatchCmd = ishell.Cmd{
		Name:    "watch",
		Aliases: []string{"w"},
		Help:    "[on|off]",
		Func: MustBeOpened(func(c *ishell.Context) {
			conn := ShellFrom(c).Current()
			en := !conn.Watching()
			if len(c.Args) > 0 {
				switch c.Args[0] {
				case "on":
					en = true
				case "off":
					en = false
				default:
					c.Err(fmt.Errorf("expect on or off"))
					return
				}
			}
			conn.SetWatching(en)
			if en {
				c.Println("watching")
			} else {
				c.Println("not watching")
			}
		}),
	}

	// StatsCmd prints receiver counters.
	StatsCmd = ishell.Cmd{
		Name: "stats",
		Help: "",
		Func: MustBeOpened(func(c *ishell.Context) {
			conn := ShellFrom(c).Current()
			stats := conn.Receiver.Stats()
			c.Printf("%s: %d frames, %d bytes dropped, state %d\n",
				conn.Name, stats.Frames, stats.Dropped, conn.Receiver.State())
		}),
	}
)

// Main is a helper to provide a single call in main.
// The port is opened on start only if given by flag or environment.
func Main() {
	flag.Parse()
	autoOpen := os.Getenv(env.EnvPort) != ""
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "port" {
			autoOpen = true
		}
	})
	New(env.NewConfig()).WithAutoOpen(autoOpen).Run(flag.Args()...)
}
