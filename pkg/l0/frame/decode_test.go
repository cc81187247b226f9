package frame

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeNumber(t *testing.T) {
	testCases := []struct {
		name   string
		number EncodedNumber
		expect float64
	}{
		{"positive", EncodedNumber{0, 1, 50}, 1.5},
		{"negative", EncodedNumber{0, 2, 0x80 | 25}, -2.25},
		{"high byte", EncodedNumber{0x01, 0x02, 75}, 258.75},
		{"max", EncodedNumber{0xff, 0xff, 99}, 65535.99},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.InDelta(t, tc.expect, DecodeNumber(tc.number), 1e-9)
		})
	}
}

func TestDecodeZeroKeepsSign(t *testing.T) {
	v := DecodeNumber(EncodeNumber(0))
	require.Equal(t, 0.0, v)
	require.True(t, math.Signbit(v))
}

func TestRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 10000; i++ {
		v := (rnd.Float64()*2 - 1) * 65535
		decoded := DecodeNumber(EncodeNumber(v))
		require.InDelta(t, v, decoded, 0.01, "value %v", v)
		if v < 0 {
			require.True(t, decoded <= 0, "value %v decoded as %v", v, decoded)
		} else {
			require.True(t, decoded >= 0, "value %v decoded as %v", v, decoded)
		}
	}
}

func TestRoundTripDecimals(t *testing.T) {
	for _, v := range []float64{0.1, 0.2, 0.3, 1.01, 99.99, -99.99, 100.1, 655.35, -1234.56, 65535.99} {
		require.InDelta(t, v, DecodeNumber(EncodeNumber(v)), 1e-9, "value %v", v)
	}
}

func TestDecodeFrame(t *testing.T) {
	values := [NumValues]float64{1.5, -2.25, 0, 100.1}
	f := EncodeFrame(7, values)
	r, err := DecodeFrame(f[:])
	require.NoError(t, err)
	require.Equal(t, byte(7), r.ID)
	for i, v := range values {
		require.InDelta(t, v, r.Values[i], 1e-9)
	}
	require.Equal(t, r, f.Decode())
}

func TestDecodeFrameErrors(t *testing.T) {
	f := EncodeFrame(7, [NumValues]float64{1, 2, 3, 4})

	_, err := DecodeFrame(f[:Size-1])
	require.Equal(t, ErrFrameSize, err)
	_, err = DecodeFrame(append(f.Bytes(), 0))
	require.Equal(t, ErrFrameSize, err)

	corrupted := f.Bytes()
	corrupted[2]++
	_, err = DecodeFrame(corrupted)
	require.Equal(t, &ChecksumError{Want: f.Checksum() + 1, Got: f.Checksum()}, err)
	require.EqualError(t, err, "checksum mismatch: want 18, got 17")
}

func TestChecksumMissesReordering(t *testing.T) {
	f := EncodeFrame(7, [NumValues]float64{1.5, -2.25, 0, 100.1})
	swapped := f
	swapped[1], swapped[2] = swapped[2], swapped[1]
	require.NotEqual(t, f, swapped)
	require.True(t, swapped.Valid())
}
