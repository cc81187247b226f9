package frame

import "math"

const (
	// Size is the length of an encoded frame in bytes.
	Size = 14
	// NumValues is the number of values carried by a frame.
	NumValues = 4
	// NumberSize is the length of an EncodedNumber in bytes.
	NumberSize = 3

	// MaxMagnitude is the largest integer part representable without wrapping.
	MaxMagnitude = 0xffff
	// MaxFraction is the largest fraction (in hundredths) stored in a number.
	MaxFraction = 99

	// SignBit is set in the sign|fraction byte when the value is <= 0.
	SignBit byte = 0x80
	// FractionMask selects the fraction bits of the sign|fraction byte.
	FractionMask byte = 0x7f

	checksumOffset = Size - 1

	magnitudeModulo = MaxMagnitude + 1
)

// EncodedNumber is the 3-byte sign/magnitude/fraction form of a value.
type EncodedNumber [NumberSize]byte

// Frame is an encoded frame ready to be written to the wire.
type Frame [Size]byte

// EncodeNumber quantizes a finite value into an EncodedNumber.
// Integer parts >= 65536 wrap modulo 65536. Non-finite input gives an
// unspecified result.
func EncodeNumber(v float64) (n EncodedNumber) {
	abs := math.Abs(v)
	whole := math.Floor(abs)
	// explicit conversion keeps the product rounded, never fused
	scaled := float64((abs - whole) * 100)
	fraction := math.Floor(scaled + representationError(abs, scaled))
	if fraction > MaxFraction {
		fraction = MaxFraction
	}
	magnitude := uint16(uint32(math.Mod(whole, magnitudeModulo)))

	n[0] = byte(magnitude >> 8)
	n[1] = byte(magnitude)
	n[2] = byte(fraction) & FractionMask
	if v <= 0 {
		n[2] |= SignBit
	}
	return
}

// representationError bounds the error carried into scaled by storing abs
// in binary, e.g. 99.99 is stored as 99.98999...
func representationError(abs, scaled float64) float64 {
	return 100*ulp(abs) + ulp(scaled)
}

func ulp(v float64) float64 {
	return math.Nextafter(v, math.Inf(1)) - v
}

// Magnitude returns the 16-bit integer part.
func (n EncodedNumber) Magnitude() uint16 {
	return uint16(n[0])<<8 | uint16(n[1])
}

// Fraction returns the fractional part in hundredths.
func (n EncodedNumber) Fraction() byte {
	return n[2] & FractionMask
}

// NonPositive reports whether the sign bit is set.
func (n EncodedNumber) NonPositive() bool {
	return n[2]&SignBit != 0
}

// EncodeFrame encodes id and values into a Frame with its checksum.
func EncodeFrame(id byte, values [NumValues]float64) (f Frame) {
	f[0] = id
	for i, v := range values {
		n := EncodeNumber(v)
		copy(f[1+i*NumberSize:], n[:])
	}
	f[checksumOffset] = Checksum(f[:], Size)
	return
}

// ID returns the frame id.
func (f Frame) ID() byte {
	return f[0]
}

// Number returns the i-th encoded number.
func (f Frame) Number(i int) (n EncodedNumber) {
	copy(n[:], f[1+i*NumberSize:])
	return
}

// Checksum returns the checksum byte stored in the frame.
func (f Frame) Checksum() byte {
	return f[checksumOffset]
}

// Valid reports whether the stored checksum matches the content.
func (f Frame) Valid() bool {
	return f[checksumOffset] == Checksum(f[:], Size)
}

// Bytes returns the frame as a slice.
func (f Frame) Bytes() []byte {
	b := make([]byte, Size)
	copy(b, f[:])
	return b
}

// Checksum sums packet[0:n-1] and returns the low 8 bits.
// The last of the n bytes is the checksum slot and is excluded, so the
// checksum of a complete frame is Checksum(frame, Size).
// It panics if n is outside [1, len(packet)].
func Checksum(packet []byte, n int) byte {
	if n < 1 || n > len(packet) {
		panic("frame: checksum length out of range")
	}
	var sum uint32
	for _, b := range packet[:n-1] {
		sum += uint32(b)
	}
	return byte(sum & 0xff)
}
