package env

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// CommandChannel is the topic reserved for readings sent back to the device,
// it can't name a channel.
const CommandChannel = "cmd"

// ChannelMap names frame ids, e.g. parsed from "1=gyro,2=raw".
type ChannelMap map[byte]string

// ParseChannelMap parses comma separated ID=NAME pairs.
func ParseChannelMap(s string) (ChannelMap, error) {
	m := make(ChannelMap)
	if err := m.Set(s); err != nil {
		return nil, err
	}
	return m, nil
}

// Set implements flag.Value, adding pairs to the map.
func (m ChannelMap) Set(s string) error {
	for _, pair := range strings.Split(s, ",") {
		if pair = strings.TrimSpace(pair); pair == "" {
			continue
		}
		pos := strings.Index(pair, "=")
		if pos < 0 {
			return fmt.Errorf("invalid channel %q, expect ID=NAME", pair)
		}
		id, err := strconv.ParseUint(strings.TrimSpace(pair[:pos]), 10, 8)
		if err != nil {
			return fmt.Errorf("invalid channel id in %q: %w", pair, err)
		}
		name := strings.TrimSpace(pair[pos+1:])
		if name == "" || strings.ContainsAny(name, "/+#") {
			return fmt.Errorf("invalid channel name in %q", pair)
		}
		if name == CommandChannel {
			return fmt.Errorf("channel name %q is reserved", name)
		}
		m[byte(id)] = name
	}
	return nil
}

// String implements flag.Value.
func (m ChannelMap) String() string {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	pairs := make([]string, len(ids))
	for n, id := range ids {
		pairs[n] = strconv.Itoa(id) + "=" + m[byte(id)]
	}
	return strings.Join(pairs, ",")
}

// ChannelName returns the configured name or "id<N>".
func (m ChannelMap) ChannelName(id byte) string {
	if name, ok := m[id]; ok {
		return name
	}
	return "id" + strconv.Itoa(int(id))
}

// Accept reports if the id is configured.
func (m ChannelMap) Accept(id byte) bool {
	_, ok := m[id]
	return ok
}
