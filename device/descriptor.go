package device

import (
	"encoding/binary"
	"unicode/utf16"

	"github.com/PhazonicRidley/libhal/device/hal"
	"github.com/PhazonicRidley/libhal/pkg"
)

// Dispatch receives successive chunks of a composed descriptor byte stream.
// Each view is valid only for the duration of the call and must not be
// retained or modified. The concatenation of all views, in invocation
// order, forms the complete stream.
type Dispatch func(p []byte)

// Descriptor is the contract shared by every descriptor variant. Pack
// writes the two mandatory header bytes {bLength, bDescriptorType} followed
// by the variant payload into the buffer established at construction, and
// returns the filled portion.
//
// Buffer sizing is established once at construction; the buffer must remain
// valid for the descriptor's entire lifetime.
type Descriptor interface {
	Pack() []byte
}

// descriptor is the embeddable base of the descriptor variants. It owns no
// storage: data is borrowed for the lifetime of the variant.
type descriptor struct {
	data   []byte
	length uint8
	dtype  DescriptorType
}

// packHeader writes the shared two-byte header and returns the packed view.
// Variants call it before packing their payload, so the first two bytes of
// any packed descriptor are always {length, type}.
func (d *descriptor) packHeader() []byte {
	d.data[0] = d.length
	d.data[1] = byte(d.dtype)
	return d.data[:d.length]
}

// PackU16LE packs a 16-bit value into two bytes, low byte first.
func PackU16LE(v uint16) [2]byte {
	return [2]byte{byte(v), byte(v >> 8)}
}

// DeviceDescriptorSize is the packed size of a device descriptor in bytes.
const DeviceDescriptorSize = 18

// DeviceInfo carries the caller-supplied fields of a device descriptor.
type DeviceInfo struct {
	USBVersion        uint16    // USB specification version (BCD)
	Class             ClassCode // Device class code
	SubClass          uint8     // Subclass code
	Protocol          uint8     // Protocol code
	VendorID          uint16    // Vendor ID
	ProductID         uint16    // Product ID
	DeviceVersion     uint16    // Device release number (BCD)
	ManufacturerIndex uint8     // Index of manufacturer string
	ProductIndex      uint8     // Index of product string
	SerialIndex       uint8     // Index of serial number string
	NumConfigurations uint8     // Number of configurations
}

// DeviceDescriptor is the 18-byte USB device descriptor.
type DeviceDescriptor struct {
	descriptor
	info           DeviceInfo
	maxPacketSize0 uint8
}

// NewDeviceDescriptor constructs a device descriptor over buf, which must
// hold at least DeviceDescriptorSize bytes and remain valid for the
// descriptor's lifetime. bMaxPacketSize0 is derived from the control
// endpoint's maximum packet size, clamped to the endpoint zero ceiling.
func NewDeviceDescriptor(buf []byte, ctrl hal.ControlEndpoint, info DeviceInfo) (*DeviceDescriptor, error) {
	if len(buf) < DeviceDescriptorSize {
		return nil, pkg.ErrBufferTooSmall
	}
	mps := uint16(8)
	if ctrl != nil {
		mps = ctrl.MaxPacketSize()
	}
	if mps > 64 {
		// EP0 ceiling for USB 2.0 high speed and below
		mps = 64
	}
	return &DeviceDescriptor{
		descriptor: descriptor{
			data:   buf,
			length: DeviceDescriptorSize,
			dtype:  DescriptorTypeDevice,
		},
		info:           info,
		maxPacketSize0: uint8(mps),
	}, nil
}

// MaxPacketSize0 returns the derived bMaxPacketSize0 value.
func (d *DeviceDescriptor) MaxPacketSize0() uint8 {
	return d.maxPacketSize0
}

// SetNumConfigurations records the configuration count. The enumeration
// driver owns configuration numbering and calls this once the composed
// configuration list is known.
func (d *DeviceDescriptor) SetNumConfigurations(n uint8) {
	d.info.NumConfigurations = n
}

// Pack serializes the descriptor into the buffer supplied at construction.
func (d *DeviceDescriptor) Pack() []byte {
	b := d.packHeader()
	binary.LittleEndian.PutUint16(b[2:4], d.info.USBVersion)
	b[4] = byte(d.info.Class)
	b[5] = d.info.SubClass
	b[6] = d.info.Protocol
	b[7] = d.maxPacketSize0
	binary.LittleEndian.PutUint16(b[8:10], d.info.VendorID)
	binary.LittleEndian.PutUint16(b[10:12], d.info.ProductID)
	binary.LittleEndian.PutUint16(b[12:14], d.info.DeviceVersion)
	b[14] = d.info.ManufacturerIndex
	b[15] = d.info.ProductIndex
	b[16] = d.info.SerialIndex
	b[17] = d.info.NumConfigurations
	return b
}

// DeviceRecord is the parsed form of an 18-byte device descriptor.
type DeviceRecord struct {
	USBVersion        uint16    // USB specification version (BCD)
	Class             ClassCode // Device class code
	SubClass          uint8     // Subclass code
	Protocol          uint8     // Protocol code
	MaxPacketSize0    uint8     // Endpoint zero maximum packet size
	VendorID          uint16    // Vendor ID
	ProductID         uint16    // Product ID
	DeviceVersion     uint16    // Device release number (BCD)
	ManufacturerIndex uint8     // Index of manufacturer string
	ProductIndex      uint8     // Index of product string
	SerialIndex       uint8     // Index of serial number string
	NumConfigurations uint8     // Number of configurations
}

// ParseDeviceDescriptor parses a device descriptor from bytes into out.
// Returns an error if the data is too short or the descriptor type is wrong.
func ParseDeviceDescriptor(data []byte, out *DeviceRecord) error {
	if len(data) < DeviceDescriptorSize {
		return pkg.ErrDescriptorTooShort
	}
	if data[1] != byte(DescriptorTypeDevice) {
		return pkg.ErrDescriptorTypeMismatch
	}
	out.USBVersion = binary.LittleEndian.Uint16(data[2:4])
	out.Class = ClassCode(data[4])
	out.SubClass = data[5]
	out.Protocol = data[6]
	out.MaxPacketSize0 = data[7]
	out.VendorID = binary.LittleEndian.Uint16(data[8:10])
	out.ProductID = binary.LittleEndian.Uint16(data[10:12])
	out.DeviceVersion = binary.LittleEndian.Uint16(data[12:14])
	out.ManufacturerIndex = data[14]
	out.ProductIndex = data[15]
	out.SerialIndex = data[16]
	out.NumConfigurations = data[17]
	return nil
}

// maxStringUnits is the number of UTF-16 code units that fit within the
// 255-byte descriptor ceiling.
const maxStringUnits = (255 - 2) / 2

// LangIDUSEnglish is the language ID for US English.
const LangIDUSEnglish = 0x0409

// StringDescriptor is a USB string descriptor: a two-byte header followed
// by a UTF-16LE payload. Index zero carries the supported language IDs
// instead of text.
type StringDescriptor struct {
	descriptor
	units []uint16
}

// NewStringDescriptor constructs a string descriptor for s over buf. The
// encoded form is truncated to the 255-byte descriptor ceiling on a code
// unit boundary; buf must hold the encoded length and remain valid for the
// descriptor's lifetime.
func NewStringDescriptor(buf []byte, s string) (*StringDescriptor, error) {
	units := utf16.Encode([]rune(s))
	if len(units) > maxStringUnits {
		units = units[:maxStringUnits]
	}
	return newStringDescriptor(buf, units)
}

// NewLanguageDescriptor constructs the language ID descriptor served at
// string index zero.
func NewLanguageDescriptor(buf []byte, langIDs ...uint16) (*StringDescriptor, error) {
	if len(langIDs) > maxStringUnits {
		return nil, pkg.ErrOutOfDomain
	}
	return newStringDescriptor(buf, langIDs)
}

func newStringDescriptor(buf []byte, units []uint16) (*StringDescriptor, error) {
	length := 2 + 2*len(units)
	if len(buf) < length {
		return nil, pkg.ErrBufferTooSmall
	}
	return &StringDescriptor{
		descriptor: descriptor{
			data:   buf,
			length: uint8(length),
			dtype:  DescriptorTypeString,
		},
		units: units,
	}, nil
}

// Pack serializes the descriptor into the buffer supplied at construction.
func (s *StringDescriptor) Pack() []byte {
	b := s.packHeader()
	for i, u := range s.units {
		binary.LittleEndian.PutUint16(b[2+2*i:], u)
	}
	return b
}
