package msgs

import (
	"fmt"
	"time"

	"github.com/golang/protobuf/proto"

	"github.com/robotalks/sensorlink.go/pkg/l0/frame"
)

// Reading mirrors sensorlink.v1.Reading.
type Reading struct {
	Id          uint32    `protobuf:"varint,1,opt,name=id,proto3" json:"id,omitempty"`
	Channel     string    `protobuf:"bytes,2,opt,name=channel,proto3" json:"channel,omitempty"`
	Values      []float64 `protobuf:"fixed64,3,rep,packed,name=values,proto3" json:"values,omitempty"`
	TimestampNs int64     `protobuf:"varint,4,opt,name=timestamp_ns,json=timestampNs,proto3" json:"timestamp_ns,omitempty"`
}

// Reset implements proto.Message.
func (m *Reading) Reset() { *m = Reading{} }

// String implements proto.Message.
func (m *Reading) String() string { return proto.CompactTextString(m) }

// ProtoMessage implements proto.Message.
func (*Reading) ProtoMessage() {}

// GetId returns Id.
func (m *Reading) GetId() uint32 {
	if m != nil {
		return m.Id
	}
	return 0
}

// GetChannel returns Channel.
func (m *Reading) GetChannel() string {
	if m != nil {
		return m.Channel
	}
	return ""
}

// GetValues returns Values.
func (m *Reading) GetValues() []float64 {
	if m != nil {
		return m.Values
	}
	return nil
}

// GetTimestampNs returns TimestampNs.
func (m *Reading) GetTimestampNs() int64 {
	if m != nil {
		return m.TimestampNs
	}
	return 0
}

// NewReading creates a Reading message from a decoded frame.
func NewReading(r frame.Reading, channel string, at time.Time) *Reading {
	values := make([]float64, len(r.Values))
	copy(values, r.Values[:])
	return &Reading{
		Id:          uint32(r.ID),
		Channel:     channel,
		Values:      values,
		TimestampNs: at.UnixNano(),
	}
}

// Time returns the timestamp.
func (m *Reading) Time() time.Time {
	return time.Unix(0, m.GetTimestampNs())
}

// FrameReading converts the message back to a frame.Reading.
func (m *Reading) FrameReading() (frame.Reading, error) {
	var r frame.Reading
	if m.GetId() > 0xff {
		return r, fmt.Errorf("reading id %d out of range", m.GetId())
	}
	if n := len(m.GetValues()); n != frame.NumValues {
		return r, fmt.Errorf("reading has %d values, want %d", n, frame.NumValues)
	}
	r.ID = byte(m.Id)
	copy(r.Values[:], m.Values)
	return r, nil
}

// Encode encodes the message.
func (m *Reading) Encode() ([]byte, error) {
	return proto.Marshal(m)
}

// DecodeReading decodes a Reading message.
func DecodeReading(data []byte) (*Reading, error) {
	m := &Reading{}
	if err := proto.Unmarshal(data, m); err != nil {
		return nil, err
	}
	return m, nil
}
