// Package link assembles the receiving end of a sensor link: a frame source
// feeding the recorder, the MQTT publisher and the websocket server.
package link

import (
	"context"
	"errors"
	"io"

	"github.com/golang/glog"

	fx "github.com/robotalks/sensorlink.go/pkg/framework"
	l0 "github.com/robotalks/sensorlink.go/pkg/l0/comm"
	"github.com/robotalks/sensorlink.go/pkg/l0/frame"
	"github.com/robotalks/sensorlink.go/pkg/l1/comm"
	"github.com/robotalks/sensorlink.go/pkg/l1/comm/mqtt"
	"github.com/robotalks/sensorlink.go/pkg/l1/comm/stream"
	"github.com/robotalks/sensorlink.go/pkg/l1/comm/websocket"
	"github.com/robotalks/sensorlink.go/pkg/l1/env"
	"github.com/robotalks/sensorlink.go/pkg/l1/record"
)

// CommandTopic receives readings to be sent back to the device, relative to
// the MQTT topic prefix.
const CommandTopic = env.CommandChannel

// Role names the daemon in the MQTT client id.
const Role = "linkd"

// Link is the receiving daemon.
type Link struct {
	Config      *env.Config
	Handlers    l0.HandlerMux
	Queue       *mqtt.Queue
	Recorder    *record.Recorder
	Broadcaster *websocket.Broadcaster
	Receiver    *l0.Receiver
	Pipe        *comm.Pipe
	// Commands writes frames back to the device, nil when replaying.
	Commands comm.FrameWriter

	port    io.Closer
	closers []io.Closer
}

// New opens the port and the configured outputs.
func New(conf *env.Config) (*Link, error) {
	l := &Link{Config: conf}
	if err := l.openOutputs(); err != nil {
		l.Close()
		return nil, err
	}
	if err := l.openSource(); err != nil {
		l.Close()
		return nil, err
	}
	if l.Broadcaster != nil && l.Commands != nil {
		l.Broadcaster.Commands = l.Commands
	}
	if l.Queue != nil {
		sub := mqtt.Subscribe(l.Queue, CommandTopic, l0.HandleReadingFunc(l.sendCommand))
		l.closers = append(l.closers, sub)
	}
	return l, nil
}

func (l *Link) openOutputs() error {
	rec, err := l.Config.NewRecorder()
	if err != nil {
		return err
	}
	if rec != nil {
		l.Recorder = rec
		l.Handlers.Add(rec)
		l.closers = append(l.closers, rec)
	}
	q, err := l.Config.NewQueue(Role)
	if err != nil {
		return err
	}
	if q != nil {
		l.Queue = q
		pub := mqtt.NewPublisher(q, l.Config.Channels)
		pub.Values = l.Config.MQTTValues
		l.Handlers.Add(pub)
	}
	if l.Config.WSAddr != "" {
		l.Broadcaster = websocket.NewBroadcaster()
	}
	return nil
}

func (l *Link) openSource() error {
	switch {
	case l.Config.IsWebsocket():
		rw, err := l.Config.DialWebsocket()
		if err != nil {
			return err
		}
		l.port, l.Commands = rw, rw
		l.openPipe(rw)
		return nil
	case l.Config.IsFile():
		f, err := l.Config.OpenFile()
		if err != nil {
			return err
		}
		l.port = f
		l.openPipe(stream.New(f).WithAccept(l.Config.Accept()))
		return nil
	}
	port, err := l.Config.OpenPort()
	if err != nil {
		return err
	}
	l.port, l.Commands = port, l0.NewSender(port)
	l.Receiver = l.Config.NewReceiver(port)
	l.Receiver.Handler = &l.Handlers
	if l.Broadcaster != nil {
		l.Receiver.Forward = l.Broadcaster
	}
	return nil
}

func (l *Link) openPipe(r comm.FrameReader) {
	l.Pipe = comm.NewPipe(r)
	l.Pipe.Handler = &l.Handlers
	if l.Broadcaster != nil {
		l.Pipe.Forward = l.Broadcaster
	}
}

func (l *Link) sendCommand(ctx context.Context, r frame.Reading) error {
	glog.V(1).Infof("command %d %v", r.ID, r.Values)
	if l.Commands == nil {
		return errors.New("no device to send commands to")
	}
	return l.Commands.WriteFrame(frame.EncodeFrame(r.ID, r.Values))
}

// Run implements Runnable.
func (l *Link) Run(ctx context.Context) error {
	if l.Queue != nil {
		if err := l.Queue.Connect(); err != nil {
			return err
		}
	}
	runner := fx.NewRunnerWith(ctx)
	if l.Broadcaster != nil {
		runner.Go(fx.RunFunc(func(ctx context.Context) error {
			return l.Broadcaster.Serve(ctx, l.Config.WSAddr)
		}))
	}
	if l.Pipe != nil {
		runner.Go(l.Pipe)
	} else {
		runner.Go(fx.RunFunc(func(ctx context.Context) error {
			return fx.RunWithContextCloser(ctx, l.port, func() error {
				return l.Receiver.Run(ctx)
			})
		}))
	}
	return runner.Wait()
}

// Close closes the port and outputs.
func (l *Link) Close() error {
	errs := &fx.AggregatedError{}
	for _, c := range l.closers {
		errs.Add(c.Close())
	}
	l.closers = nil
	if l.port != nil {
		l.port.Close()
		l.port = nil
	}
	if l.Queue != nil {
		l.Queue.Close()
	}
	return errs.Aggregate()
}
