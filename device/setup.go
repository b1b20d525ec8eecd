package device

import (
	"encoding/binary"
	"fmt"

	"github.com/PhazonicRidley/libhal/pkg"
)

// Standard request codes served during enumeration (USB 2.0 Spec Table 9-4).
const (
	RequestGetStatus        = 0x00
	RequestClearFeature     = 0x01
	RequestSetFeature       = 0x03
	RequestSetAddress       = 0x05
	RequestGetDescriptor    = 0x06
	RequestSetDescriptor    = 0x07
	RequestGetConfiguration = 0x08
	RequestSetConfiguration = 0x09
	RequestGetInterface     = 0x0A
	RequestSetInterface     = 0x0B
	RequestSynchFrame       = 0x0C
)

// Feature selectors (USB 2.0 Spec Table 9-6).
const (
	FeatureEndpointHalt       = 0x00 // Endpoint halt feature
	FeatureDeviceRemoteWakeup = 0x01 // Device remote wakeup
	FeatureTestMode           = 0x02 // Test mode
)

// bmRequestType packs direction (bit 7), type (bits 6-5), and recipient
// (bits 4-0) into one byte (USB 2.0 Spec Table 9-2).
const (
	RequestTypeDirectionMask = 0x80
	RequestTypeTypeMask      = 0x60
	RequestTypeRecipientMask = 0x1F
)

// Direction field of bmRequestType.
const (
	RequestDirectionHostToDevice = 0x00
	RequestDirectionDeviceToHost = 0x80
)

// Type field of bmRequestType.
const (
	RequestTypeStandard = 0x00
	RequestTypeClass    = 0x20
	RequestTypeVendor   = 0x40
)

// Recipient field of bmRequestType.
const (
	RequestRecipientDevice    = 0x00
	RequestRecipientInterface = 0x01
	RequestRecipientEndpoint  = 0x02
	RequestRecipientOther     = 0x03
)

// SetupPacket is the 8-byte request header carried by every control
// transfer. The Value, Index, and Length fields are request-specific;
// typed accessors below decode the common interpretations.
type SetupPacket struct {
	RequestType uint8  // bmRequestType: direction, type, recipient
	Request     uint8  // bRequest: specific request code
	Value       uint16 // wValue: request-specific parameter
	Index       uint16 // wIndex: request-specific index
	Length      uint16 // wLength: number of bytes to transfer
}

// SetupPacketSize is the size of a USB SETUP packet in bytes.
const SetupPacketSize = 8

// ParseSetupPacket decodes 8 little-endian wire bytes into out.
// Fails with pkg.ErrSetupPacketTooShort if fewer are supplied.
func ParseSetupPacket(data []byte, out *SetupPacket) error {
	if len(data) < SetupPacketSize {
		return pkg.ErrSetupPacketTooShort
	}
	out.RequestType = data[0]
	out.Request = data[1]
	out.Value = binary.LittleEndian.Uint16(data[2:4])
	out.Index = binary.LittleEndian.Uint16(data[4:6])
	out.Length = binary.LittleEndian.Uint16(data[6:8])
	return nil
}

// MarshalTo serializes the setup packet to buf.
// Returns the number of bytes written (always 8 if buf is large enough).
func (s *SetupPacket) MarshalTo(buf []byte) int {
	if len(buf) < SetupPacketSize {
		return 0
	}
	buf[0] = s.RequestType
	buf[1] = s.Request
	binary.LittleEndian.PutUint16(buf[2:4], s.Value)
	binary.LittleEndian.PutUint16(buf[4:6], s.Index)
	binary.LittleEndian.PutUint16(buf[6:8], s.Length)
	return SetupPacketSize
}

// Direction returns the direction field of bmRequestType.
func (s *SetupPacket) Direction() uint8 {
	return s.RequestType & RequestTypeDirectionMask
}

// IsDeviceToHost reports whether the data phase flows device to host.
func (s *SetupPacket) IsDeviceToHost() bool {
	return s.Direction() == RequestDirectionDeviceToHost
}

// IsHostToDevice reports whether the data phase flows host to device.
func (s *SetupPacket) IsHostToDevice() bool {
	return s.Direction() == RequestDirectionHostToDevice
}

// Type returns the type field of bmRequestType.
func (s *SetupPacket) Type() uint8 {
	return s.RequestType & RequestTypeTypeMask
}

// IsStandard reports whether this is a standard request.
func (s *SetupPacket) IsStandard() bool {
	return s.Type() == RequestTypeStandard
}

// IsClass reports whether this is a class-specific request.
func (s *SetupPacket) IsClass() bool {
	return s.Type() == RequestTypeClass
}

// IsVendor reports whether this is a vendor-specific request.
func (s *SetupPacket) IsVendor() bool {
	return s.Type() == RequestTypeVendor
}

// Recipient returns the recipient field of bmRequestType.
func (s *SetupPacket) Recipient() uint8 {
	return s.RequestType & RequestTypeRecipientMask
}

// IsDeviceRecipient reports whether the request addresses the device.
func (s *SetupPacket) IsDeviceRecipient() bool {
	return s.Recipient() == RequestRecipientDevice
}

// IsInterfaceRecipient reports whether the request addresses an interface.
func (s *SetupPacket) IsInterfaceRecipient() bool {
	return s.Recipient() == RequestRecipientInterface
}

// IsEndpointRecipient reports whether the request addresses an endpoint.
func (s *SetupPacket) IsEndpointRecipient() bool {
	return s.Recipient() == RequestRecipientEndpoint
}

// DescriptorType decodes the wValue high byte of a GET_DESCRIPTOR request.
func (s *SetupPacket) DescriptorType() DescriptorType {
	return DescriptorType(s.Value >> 8)
}

// DescriptorIndex decodes the wValue low byte of a GET_DESCRIPTOR request.
func (s *SetupPacket) DescriptorIndex() uint8 {
	return uint8(s.Value & 0xFF)
}

// InterfaceNumber decodes wIndex for an interface-recipient request.
func (s *SetupPacket) InterfaceNumber() uint8 {
	return uint8(s.Index & 0xFF)
}

// EndpointAddress decodes wIndex for an endpoint-recipient request.
func (s *SetupPacket) EndpointAddress() uint8 {
	return uint8(s.Index & 0xFF)
}

// String renders the packet for log output.
func (s *SetupPacket) String() string {
	dir := "OUT"
	if s.IsDeviceToHost() {
		dir = "IN"
	}
	reqType := "Standard"
	switch s.Type() {
	case RequestTypeClass:
		reqType = "Class"
	case RequestTypeVendor:
		reqType = "Vendor"
	}
	recip := "Device"
	switch s.Recipient() {
	case RequestRecipientInterface:
		recip = "Interface"
	case RequestRecipientEndpoint:
		recip = "Endpoint"
	case RequestRecipientOther:
		recip = "Other"
	}
	return fmt.Sprintf("SETUP[%s %s %s] Request=0x%02X Value=0x%04X Index=0x%04X Length=%d",
		dir, reqType, recip, s.Request, s.Value, s.Index, s.Length)
}
