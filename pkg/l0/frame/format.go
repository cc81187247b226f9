package frame

import (
	"strconv"
	"strings"
)

// Format renders bytes as "frame = [b0,b1,...]" in decimal.
func Format(b []byte) string {
	var sb strings.Builder
	sb.WriteString("frame = [")
	for i, v := range b {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(int(v)))
	}
	sb.WriteByte(']')
	return sb.String()
}

// String implements fmt.Stringer.
func (f Frame) String() string {
	return Format(f[:])
}

// ParseBytes parses decimal byte values separated by commas and/or spaces,
// optionally wrapped in brackets, i.e. the output of Format without the
// "frame = " prefix.
func ParseBytes(s string) ([]byte, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "frame ="))
	s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	b := make([]byte, 0, len(fields))
	for _, field := range fields {
		v, err := strconv.ParseUint(field, 10, 8)
		if err != nil {
			return nil, err
		}
		b = append(b, byte(v))
	}
	return b, nil
}

// FormatValue renders a decoded value with the 2 decimals a frame carries.
// Negative zero renders as "0.00".
func FormatValue(v float64) string {
	if v == 0 {
		v = 0
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
