package hal

import (
	"context"
	"fmt"
)

// Speed represents the USB connection speed.
type Speed uint8

// USB speed constants (USB 2.0 Specification).
const (
	SpeedUnknown Speed = iota // Not connected or unknown
	SpeedLow                  // Low Speed (1.5 Mbit/s)
	SpeedFull                 // Full Speed (12 Mbit/s)
	SpeedHigh                 // High Speed (480 Mbit/s)
)

// String returns a human-readable speed name.
func (s Speed) String() string {
	switch s {
	case SpeedLow:
		return "Low Speed"
	case SpeedFull:
		return "Full Speed"
	case SpeedHigh:
		return "High Speed"
	default:
		return fmt.Sprintf("Unknown (%d)", s)
	}
}

// MaxPacketSize0 returns the maximum endpoint zero packet size at this speed.
func (s Speed) MaxPacketSize0() uint16 {
	switch s {
	case SpeedLow:
		return 8
	case SpeedFull, SpeedHigh:
		return 64
	default:
		return 8
	}
}

// SetupPacket represents a USB SETUP packet in the HAL layer.
// This is a fixed-size, zero-allocation structure for SETUP transactions.
type SetupPacket struct {
	RequestType uint8  // Request characteristics
	Request     uint8  // Specific request
	Value       uint16 // Request-specific value
	Index       uint16 // Request-specific index
	Length      uint16 // Number of bytes to transfer
}

// SetupPacketSize is the size of a USB SETUP packet in bytes.
const SetupPacketSize = 8

// ParseSetupPacket parses raw bytes into a SetupPacket.
// Returns false if data is too short.
func ParseSetupPacket(data []byte, out *SetupPacket) bool {
	if len(data) < SetupPacketSize {
		return false
	}
	out.RequestType = data[0]
	out.Request = data[1]
	out.Value = uint16(data[2]) | uint16(data[3])<<8
	out.Index = uint16(data[4]) | uint16(data[5])<<8
	out.Length = uint16(data[6]) | uint16(data[7])<<8
	return true
}

// MarshalTo writes the setup packet to buf.
// Returns the number of bytes written (8), or 0 if buf is too small.
func (s *SetupPacket) MarshalTo(buf []byte) int {
	if len(buf) < SetupPacketSize {
		return 0
	}
	buf[0] = s.RequestType
	buf[1] = s.Request
	buf[2] = byte(s.Value)
	buf[3] = byte(s.Value >> 8)
	buf[4] = byte(s.Index)
	buf[5] = byte(s.Index >> 8)
	buf[6] = byte(s.Length)
	buf[7] = byte(s.Length >> 8)
	return SetupPacketSize
}

// ControlEndpoint is the raw capability of endpoint zero that the descriptor
// tree borrows: buffered byte transfer plus notification of alternate
// setting changes.
//
// The reference held by a descriptor is non-owning. The caller manages the
// endpoint's lifetime (it must outlive the descriptor tree) and serializes
// access when several interfaces share one endpoint: the descriptor
// subsystem assumes at most one active enumeration or setting-change
// sequence at a time.
type ControlEndpoint interface {
	// Write sends data to the host over the control IN pipe.
	// Blocks until the data is sent or the context is cancelled.
	Write(ctx context.Context, data []byte) error

	// Read receives data from the host over the control OUT pipe into buf.
	// The transport owns receive buffering; buf is filled per call.
	// Returns the number of bytes read.
	Read(ctx context.Context, buf []byte) (int, error)

	// MaxPacketSize returns the endpoint zero maximum packet size.
	MaxPacketSize() uint16

	// SettingChanged informs the transport that the interface with the
	// given number committed a new active alternate setting.
	SettingChanged(number, alt uint8)
}

// ControlTransport is the full endpoint zero surface driven by the
// enumeration loop. Transport implementations own timeouts and
// cancellation; the descriptor tree never schedules I/O of its own.
type ControlTransport interface {
	ControlEndpoint

	// Init prepares the transport for use.
	// The context can be used to cancel initialization.
	Init(ctx context.Context) error

	// Close releases the transport's resources.
	Close() error

	// ReadSetup blocks until a SETUP packet is available or the context is
	// cancelled. The caller provides the output buffer to avoid allocation.
	ReadSetup(ctx context.Context, out *SetupPacket) error

	// SetAddress records the device address assigned by the host.
	SetAddress(address uint8) error

	// Stall rejects the current control transfer.
	Stall() error

	// Ack completes a successful no-data or OUT control transfer with a
	// zero-length packet.
	Ack() error
}
