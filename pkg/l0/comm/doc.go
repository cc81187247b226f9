// Package comm sends and receives L0 sensor frames over a byte stream.
package comm

// The link is one-way and fire-and-forget: the sender writes frames to a
// byte sink (e.g. serial port) and never waits for a reply, the receiver
// reads the byte stream, finds frame boundaries using the checksum and
// hands decoded readings to a ReadingHandler.
//
// Producer: sensor firmware (or Sender)
// Consumer: L1 receiver
