package frame

// Reading is the decoded content of a frame.
type Reading struct {
	ID     byte
	Values [NumValues]float64
}

// DecodeNumber reconstructs sign * (magnitude + fraction/100).
// A set sign bit always yields a non-positive value, including -0.
func DecodeNumber(n EncodedNumber) float64 {
	v := float64(n.Magnitude()) + float64(n.Fraction())/100
	if n.NonPositive() {
		v = -v
	}
	return v
}

// Decode decodes a frame without checking the checksum.
func (f Frame) Decode() (r Reading) {
	r.ID = f.ID()
	for i := range r.Values {
		r.Values[i] = DecodeNumber(f.Number(i))
	}
	return
}

// DecodeFrame validates size and checksum and decodes b.
func DecodeFrame(b []byte) (Reading, error) {
	f, err := FromBytes(b)
	if err != nil {
		return Reading{}, err
	}
	return f.Decode(), nil
}

// FromBytes copies b into a Frame after validating size and checksum.
func FromBytes(b []byte) (f Frame, err error) {
	if len(b) != Size {
		return f, ErrFrameSize
	}
	copy(f[:], b)
	if want := Checksum(b, Size); want != f.Checksum() {
		return f, &ChecksumError{Want: want, Got: f.Checksum()}
	}
	return f, nil
}
