package sim

import (
	"flag"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Config defines the simulated sensor.
type Config struct {
	IDs       string
	Amplitude float64
	Offset    float64
	Period    time.Duration
	// Rate is frames per second.
	Rate  float64
	Debug bool
}

// Defaults
const (
	DefaultIDs               = "1,2"
	DefaultAmplitude         = 100
	DefaultPeriod            = 4 * time.Second
	DefaultRate      float64 = 50
)

var defaultConfig = Config{
	IDs:       DefaultIDs,
	Amplitude: DefaultAmplitude,
	Period:    DefaultPeriod,
	Rate:      DefaultRate,
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.IDs, "ids", defaultConfig.IDs, "Comma separated frame ids to simulate.")
	flag.Float64Var(&defaultConfig.Amplitude, "amplitude", defaultConfig.Amplitude, "Amplitude of simulated values.")
	flag.Float64Var(&defaultConfig.Offset, "offset", defaultConfig.Offset, "Offset of simulated values.")
	flag.DurationVar(&defaultConfig.Period, "period", defaultConfig.Period, "Period of simulated waves.")
	flag.Float64Var(&defaultConfig.Rate, "rate", defaultConfig.Rate, "Frames per second.")
	flag.BoolVar(&defaultConfig.Debug, "debug", defaultConfig.Debug, "Print each frame sent.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates the default configuration.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// ParseIDs parses comma separated frame ids.
func ParseIDs(s string) ([]byte, error) {
	var ids []byte
	for _, field := range strings.Split(s, ",") {
		if field = strings.TrimSpace(field); field == "" {
			continue
		}
		id, err := strconv.ParseUint(field, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid frame id %q: %w", field, err)
		}
		ids = append(ids, byte(id))
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("at least one frame id is required")
	}
	return ids, nil
}

// Interval is the loop interval to send at Rate.
func (c *Config) Interval() time.Duration {
	if c.Rate <= 0 {
		return time.Second
	}
	return time.Duration(float64(time.Second) / c.Rate)
}

// NewSource creates a round robin of waveforms, one per id.
// Values of a waveform are a quarter period apart.
func (c *Config) NewSource(start time.Time) (Source, error) {
	ids, err := ParseIDs(c.IDs)
	if err != nil {
		return nil, err
	}
	rr := &RoundRobin{}
	for _, id := range ids {
		w := &Waveform{ID: id, Period: c.Period, Start: start}
		for i := range w.Phase {
			w.Amplitude[i] = c.Amplitude
			w.Offset[i] = c.Offset
			w.Phase[i] = float64(i) * math.Pi / 2
		}
		rr.Sources = append(rr.Sources, w)
	}
	return rr, nil
}
