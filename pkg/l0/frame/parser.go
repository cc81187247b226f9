package frame

// Parser finds frames in a byte stream.
// It keeps the last Size bytes received and emits them as a frame once the
// checksum matches. Otherwise the oldest byte is dropped and the window
// slides by one byte until it lines up with a frame boundary again.
type Parser struct {
	// Accept optionally rejects frames by id, which reduces false
	// matches while syncing on a stream with known ids.
	Accept func(id byte) bool

	window  Frame
	recvLen int
	synced  bool
	dropped uint64
}

// SyncState indicates the state of the stream.
type SyncState int

const (
	// SyncStateSyncing means no frame boundary has been found yet.
	SyncStateSyncing SyncState = 0
	// SyncStateReady means the last frame ended on the previous byte.
	SyncStateReady SyncState = 0x01
	// SyncStateReceiving means a frame is partially received.
	SyncStateReceiving SyncState = 0x02
)

// IsReady indicates if the stream is aligned on frame boundaries.
func (s SyncState) IsReady() bool {
	return s&SyncStateReady != 0
}

// IsReceiving indicates if it's in the middle of a frame.
func (s SyncState) IsReceiving() bool {
	return s&SyncStateReceiving != 0
}

// ParseResult indicates the result after one parsing step.
type ParseResult struct {
	State   SyncState
	Frame   *Frame
	Dropped int
}

// State gets the current sync state.
func (p *Parser) State() SyncState {
	var s SyncState
	if p.synced {
		s |= SyncStateReady
	}
	if p.recvLen > 0 {
		s |= SyncStateReceiving
	}
	return s
}

// Dropped returns the total number of bytes discarded so far.
func (p *Parser) Dropped() uint64 {
	return p.dropped
}

// Reset discards any partial frame and starts syncing again.
func (p *Parser) Reset() (pr ParseResult) {
	pr.Dropped = p.recvLen
	p.dropped += uint64(p.recvLen)
	p.recvLen, p.synced = 0, false
	pr.State = p.State()
	return
}

// Parse consumes one byte.
func (p *Parser) Parse(b byte) (pr ParseResult) {
	p.window[p.recvLen] = b
	p.recvLen++
	if p.recvLen == Size {
		if p.window.Valid() && (p.Accept == nil || p.Accept(p.window.ID())) {
			f := p.window
			pr.Frame = &f
			p.recvLen, p.synced = 0, true
		} else {
			copy(p.window[:], p.window[1:])
			p.recvLen--
			p.synced = false
			p.dropped++
			pr.Dropped = 1
		}
	}
	pr.State = p.State()
	return
}

// Timeout notifies the parser that the stream went idle.
// A partially received frame is stale at this point and discarded.
func (p *Parser) Timeout() (pr ParseResult) {
	if p.recvLen > 0 {
		pr.Dropped = p.recvLen
		p.dropped += uint64(p.recvLen)
		p.recvLen = 0
	}
	pr.State = p.State()
	return
}
