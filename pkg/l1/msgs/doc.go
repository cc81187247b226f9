// Package msgs defines the messages L1 components exchange over brokers.
//
// The schema is proto/sensorlink/v1/reading.proto; messages are encoded
// with github.com/golang/protobuf.
package msgs
