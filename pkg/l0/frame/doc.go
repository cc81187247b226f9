// Package frame provides the L0 sensor frame codec.
package frame

// L0 frames are sent by sensor firmware over a peer-to-peer byte channel
// (e.g. serial port) and carry an id plus four quantized readings.
//
//	offset  meaning
//	0       id
//	1-3     value 0: magnitude high, magnitude low, sign|fraction
//	4-6     value 1
//	7-9     value 2
//	10-12   value 3
//	13      checksum: low 8 bits of the sum of bytes 0-12
//
// Each value keeps the integer part of |v| in 16 bits (wrapping modulo
// 65536), the fractional part in hundredths (0-99) in bits 0-6 of the third
// byte and the sign in bit 7, which is set for any value <= 0.
//
// There is no sync byte. A receiver finds frame boundaries by sliding over
// the byte stream until the checksum matches, see Parser.
//
// Producer: sensor firmware
// Consumer: L1 receiver
