package mqtt

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"

	fx "github.com/robotalks/sensorlink.go/pkg/framework"
	l0 "github.com/robotalks/sensorlink.go/pkg/l0/comm"
	"github.com/robotalks/sensorlink.go/pkg/l0/frame"
	"github.com/robotalks/sensorlink.go/pkg/l1/msgs"
)

// DefaultPublishTimeout is how long Publisher waits for a publish.
const DefaultPublishTimeout = time.Second

// Pubber publishes payloads on topics.
type Pubber interface {
	Pub(topic string, payload []byte) paho.Token
}

// ChannelNamer names the channel of a frame id.
type ChannelNamer interface {
	ChannelName(id byte) string
}

// DefaultChannelName is used when no ChannelNamer is configured.
func DefaultChannelName(id byte) string {
	return "id" + strconv.Itoa(int(id))
}

// Publisher publishes readings.
// The protobuf encoded Reading goes to <channel>, and each value goes to
// <channel>/<index> as decimal text.
type Publisher struct {
	Queue    Pubber
	Channels ChannelNamer
	Values   bool
	Timeout  time.Duration
	Now      func() time.Time
}

// NewPublisher creates a Publisher on Queue.
func NewPublisher(q Pubber, channels ChannelNamer) *Publisher {
	return &Publisher{
		Queue:    q,
		Channels: channels,
		Values:   true,
		Timeout:  DefaultPublishTimeout,
		Now:      time.Now,
	}
}

// ChannelName names the channel of a frame id.
func (p *Publisher) ChannelName(id byte) string {
	if p.Channels != nil {
		if name := p.Channels.ChannelName(id); name != "" {
			return name
		}
	}
	return DefaultChannelName(id)
}

// HandleReading implements l0.ReadingHandler.
func (p *Publisher) HandleReading(ctx context.Context, r frame.Reading) error {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	channel := p.ChannelName(r.ID)
	payload, err := msgs.NewReading(r, channel, now()).Encode()
	if err != nil {
		return fmt.Errorf("encode reading %d: %w", r.ID, err)
	}
	tokens := []paho.Token{p.Queue.Pub(channel, payload)}
	if p.Values {
		for i, v := range r.Values {
			topic := channel + "/" + strconv.Itoa(i)
			tokens = append(tokens, p.Queue.Pub(topic, []byte(frame.FormatValue(v))))
		}
	}
	glog.V(2).Infof("PUB %s %v", channel, r.Values)
	return p.wait(ctx, tokens)
}

func (p *Publisher) wait(ctx context.Context, tokens []paho.Token) error {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultPublishTimeout
	}
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d < timeout {
			timeout = d
		}
	}
	errs := &fx.AggregatedError{}
	for _, token := range tokens {
		if !token.WaitTimeout(timeout) {
			errs.Add(fmt.Errorf("publish timeout"))
			continue
		}
		errs.Add(token.Error())
	}
	return errs.Aggregate()
}

// Subscriber delivers readings published by a Publisher.
type Subscriber struct {
	Handler l0.ReadingHandler
	// Except lists topics, relative to the prefix, which are not readings.
	Except []string

	sub *Subscription
}

// Subscribe subscribes readings on filter, e.g. "+" for all channels,
// skipping the topics in except.
func Subscribe(q *Queue, filter string, handler l0.ReadingHandler, except ...string) *Subscriber {
	s := &Subscriber{Handler: handler, Except: except}
	s.sub = q.Sub(filter, s.handle)
	return s
}

// Close implements io.Closer.
func (s *Subscriber) Close() error {
	return s.sub.Close()
}

func (s *Subscriber) handle(topic string, payload []byte) {
	// per-value topics are skipped
	if strings.Contains(topic, "/") {
		return
	}
	for _, t := range s.Except {
		if t == topic {
			return
		}
	}
	m, err := msgs.DecodeReading(payload)
	if err != nil {
		glog.Warningf("invalid reading on %q: %v", topic, err)
		return
	}
	r, err := m.FrameReading()
	if err != nil {
		glog.Warningf("invalid reading on %q: %v", topic, err)
		return
	}
	if err := s.Handler.HandleReading(context.Background(), r); err != nil {
		glog.Errorf("handle reading on %q error: %v", topic, err)
	}
}
