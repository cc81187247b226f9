// Package frame provides shell commands to encode, decode and send frames.
package frame

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/sensorlink.go/pkg/cli/sh"
	"github.com/robotalks/sensorlink.go/pkg/l0/frame"
)

// ParseFrameArgs parses ID V0 V1 V2 V3.
func ParseFrameArgs(args []string) (byte, [frame.NumValues]float64, error) {
	var values [frame.NumValues]float64
	if len(args) != frame.NumValues+1 {
		return 0, values, fmt.Errorf("ID V0 V1 V2 V3 required")
	}
	id, err := strconv.ParseUint(args[0], 10, 8)
	if err != nil {
		return 0, values, fmt.Errorf("invalid ID: %v", err)
	}
	for i := range values {
		if values[i], err = strconv.ParseFloat(args[i+1], 64); err != nil {
			return 0, values, fmt.Errorf("invalid V%d: %v", i, err)
		}
	}
	return byte(id), values, nil
}

// Encode encodes ID V0 V1 V2 V3 into a frame.
func Encode(args []string) (frame.Frame, error) {
	id, values, err := ParseFrameArgs(args)
	if err != nil {
		return frame.Frame{}, err
	}
	return frame.EncodeFrame(id, values), nil
}

// Decode decodes 14 bytes given as separate arguments or a printed frame.
func Decode(args []string) (frame.Reading, error) {
	b, err := frame.ParseBytes(strings.Join(args, " "))
	if err != nil {
		return frame.Reading{}, err
	}
	return frame.DecodeFrame(b)
}

var (
	// EncodeCmd prints the encoded frame.
	EncodeCmd = ishell.Cmd{
		Name:    "encode",
		Aliases: []string{"enc"},
		Help:    "ID V0 V1 V2 V3",
		Func: func(c *ishell.Context) {
			f, err := Encode(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(f.String())
		},
	}

	// DecodeCmd prints the decoded reading.
	DecodeCmd = ishell.Cmd{
		Name:    "decode",
		Aliases: []string{"dec"},
		Help:    "B0 B1 ... B13",
		Func: func(c *ishell.Context) {
			r, err := Decode(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			s := sh.ShellFrom(c)
			c.Println(sh.FormatReading(r, s.Config.Channels.ChannelName(r.ID)))
		},
	}

	// SendCmd transmits a frame on the opened port.
	SendCmd = ishell.Cmd{
		Name:    "send",
		Aliases: []string{"s"},
		Help:    "ID V0 V1 V2 V3",
		Func: sh.MustBeOpened(func(c *ishell.Context) {
			id, v, err := ParseFrameArgs(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sender := sh.ShellFrom(c).Current().Sender
			if err := sender.Transmit(id, v[0], v[1], v[2], v[3]); err != nil {
				c.Err(err)
				return
			}
			f := frame.EncodeFrame(id, v)
			sender.DebugPrint(f[:])
		}),
	}
)

func init() {
	sh.AddCmds(
		&EncodeCmd,
		&DecodeCmd,
		&SendCmd,
	)
}
