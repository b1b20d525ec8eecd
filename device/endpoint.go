package device

import (
	"encoding/binary"
	"fmt"

	"github.com/PhazonicRidley/libhal/pkg"
)

// Endpoint transfer types (USB 2.0 Spec Table 9-13).
const (
	EndpointTypeControl     = 0x00 // Control transfer
	EndpointTypeIsochronous = 0x01 // Isochronous transfer
	EndpointTypeBulk        = 0x02 // Bulk transfer
	EndpointTypeInterrupt   = 0x03 // Interrupt transfer
)

// Endpoint directions.
const (
	EndpointDirectionOut = 0x00 // Host to device
	EndpointDirectionIn  = 0x80 // Device to host
)

// EndpointDescriptorSize is the packed size of an endpoint descriptor in bytes.
const EndpointDescriptorSize = 7

// EndpointDescriptor represents a USB endpoint descriptor (7 bytes).
type EndpointDescriptor struct {
	Address       uint8  // Endpoint address (including direction)
	Attributes    uint8  // Endpoint attributes (transfer type, etc.)
	MaxPacketSize uint16 // Maximum packet size
	Interval      uint8  // Polling interval (for interrupt/isochronous)
}

// MarshalTo serializes the endpoint descriptor to buf.
// Returns the number of bytes written (always 7 if buf is large enough).
func (e *EndpointDescriptor) MarshalTo(buf []byte) int {
	if len(buf) < EndpointDescriptorSize {
		return 0
	}
	buf[0] = EndpointDescriptorSize
	buf[1] = byte(DescriptorTypeEndpoint)
	buf[2] = e.Address
	buf[3] = e.Attributes
	binary.LittleEndian.PutUint16(buf[4:6], e.MaxPacketSize)
	buf[6] = e.Interval
	return EndpointDescriptorSize
}

// ParseEndpointDescriptor parses an endpoint descriptor from bytes into out.
// Returns an error if the data is too short or the descriptor type is wrong.
func ParseEndpointDescriptor(data []byte, out *EndpointDescriptor) error {
	if len(data) < EndpointDescriptorSize {
		return pkg.ErrDescriptorTooShort
	}
	if data[1] != byte(DescriptorTypeEndpoint) {
		return pkg.ErrDescriptorTypeMismatch
	}
	out.Address = data[2]
	out.Attributes = data[3]
	out.MaxPacketSize = binary.LittleEndian.Uint16(data[4:6])
	out.Interval = data[6]
	return nil
}

// Number returns the endpoint number (0-15).
func (e *EndpointDescriptor) Number() uint8 {
	return e.Address & 0x0F
}

// Direction returns the endpoint direction (EndpointDirectionIn or EndpointDirectionOut).
func (e *EndpointDescriptor) Direction() uint8 {
	return e.Address & 0x80
}

// IsIn returns true if this is an IN endpoint (device to host).
func (e *EndpointDescriptor) IsIn() bool {
	return e.Direction() == EndpointDirectionIn
}

// TransferType returns the transfer type (Control, Isochronous, Bulk, or Interrupt).
func (e *EndpointDescriptor) TransferType() uint8 {
	return e.Attributes & 0x03
}

// Endpoint is a mutable handle to a data endpoint object, scoped to its
// interface's currently active alternate setting. Transfer semantics belong
// to the concrete transport implementation behind the handle.
type Endpoint interface {
	// Descriptor returns the endpoint's 7-byte descriptor record.
	Descriptor() *EndpointDescriptor
}

// TransferTypeName returns a human-readable transfer type name.
func TransferTypeName(t uint8) string {
	switch t & 0x03 {
	case EndpointTypeControl:
		return "Control"
	case EndpointTypeIsochronous:
		return "Isochronous"
	case EndpointTypeBulk:
		return "Bulk"
	case EndpointTypeInterrupt:
		return "Interrupt"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}

// DirectionName returns a human-readable direction name.
func DirectionName(dir uint8) string {
	if dir == EndpointDirectionIn {
		return "IN"
	}
	return "OUT"
}
