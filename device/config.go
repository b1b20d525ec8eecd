package device

import (
	"encoding/binary"

	"github.com/PhazonicRidley/libhal/pkg"
)

// ConfigurationDescriptorSize is the packed size of the configuration
// descriptor header in bytes; wTotalLength extends past it.
const ConfigurationDescriptorSize = 9

// Configuration bmAttributes bits (USB 2.0 Spec Table 9-10).
const (
	ConfigAttrReserved     = 0x80 // Always set
	ConfigAttrSelfPowered  = 0x40 // Device is self-powered
	ConfigAttrRemoteWakeup = 0x20 // Device supports remote wakeup
)

// Configuration aggregates an ordered group of interfaces under a single
// 9-byte configuration header. The header is packed once at construction;
// accessors decode from the packed bytes, and AssignNumber and
// AssignStringIndex are the only mutations afterward.
//
// The interface slice is borrowed and must not change after construction:
// wTotalLength is computed once from the interfaces' active settings.
type Configuration struct {
	descriptor
	packed [ConfigurationDescriptorSize]byte
	ifaces []Interface
}

// NewConfiguration constructs a configuration over ifaces, packing the
// header immediately. bNumInterfaces and wTotalLength are derived from the
// supplied interfaces; bConfigurationValue and iConfiguration start at zero
// until assigned by the enumeration driver.
func NewConfiguration(ifaces []Interface, selfPowered, remoteWakeup bool, maxPower uint8) *Configuration {
	c := &Configuration{ifaces: ifaces}
	c.descriptor = descriptor{
		data:   c.packed[:],
		length: ConfigurationDescriptorSize,
		dtype:  DescriptorTypeConfiguration,
	}

	total := uint16(ConfigurationDescriptorSize)
	for _, i := range ifaces {
		total += i.TotalLength()
	}

	attrs := uint8(ConfigAttrReserved)
	if selfPowered {
		attrs |= ConfigAttrSelfPowered
	}
	if remoteWakeup {
		attrs |= ConfigAttrRemoteWakeup
	}

	c.packHeader()
	binary.LittleEndian.PutUint16(c.packed[2:4], total)
	c.packed[4] = uint8(len(ifaces))
	c.packed[5] = 0
	c.packed[6] = 0
	c.packed[7] = attrs
	c.packed[8] = maxPower
	return c
}

// TotalLength returns wTotalLength: the header plus every interface's
// descriptor bytes under its active setting at construction time.
func (c *Configuration) TotalLength() uint16 {
	return binary.LittleEndian.Uint16(c.packed[2:4])
}

// InterfaceCount returns bNumInterfaces.
func (c *Configuration) InterfaceCount() uint8 {
	return c.packed[4]
}

// Number returns bConfigurationValue.
func (c *Configuration) Number() uint8 {
	return c.packed[5]
}

// StringIndex returns iConfiguration.
func (c *Configuration) StringIndex() uint8 {
	return c.packed[6]
}

// Attributes returns the self-powered and remote-wakeup bits of
// bmAttributes.
func (c *Configuration) Attributes() (selfPowered, remoteWakeup bool) {
	return c.packed[7]&ConfigAttrSelfPowered != 0,
		c.packed[7]&ConfigAttrRemoteWakeup != 0
}

// MaxPower returns bMaxPower in 2 mA units.
func (c *Configuration) MaxPower() uint8 {
	return c.packed[8]
}

// AssignNumber records bConfigurationValue in the packed header. The
// enumeration driver calls it before the configuration is first
// transmitted.
func (c *Configuration) AssignNumber(number uint8) {
	c.packed[5] = number
}

// AssignStringIndex records iConfiguration in the packed header.
func (c *Configuration) AssignStringIndex(index uint8) {
	c.packed[6] = index
}

// Interfaces returns the borrowed interface slice in descriptor order.
func (c *Configuration) Interfaces() []Interface {
	return c.ifaces
}

// Interface returns the member interface with the given number, or
// pkg.ErrOutOfDomain if none matches.
func (c *Configuration) Interface(number uint8) (Interface, error) {
	for _, i := range c.ifaces {
		if i.Number() == number {
			return i, nil
		}
	}
	return nil, pkg.ErrOutOfDomain
}

// WriteDescriptors pushes the packed configuration header, then each
// interface's descriptor stream in order, to dispatch. The concatenation is
// the full GET_DESCRIPTOR(CONFIGURATION) response body.
func (c *Configuration) WriteDescriptors(dispatch Dispatch) {
	dispatch(c.Pack())
	for _, i := range c.ifaces {
		i.WriteDescriptors(dispatch)
	}
}

// Pack returns the maintained 9-byte header.
func (c *Configuration) Pack() []byte {
	return c.packHeader()
}

// ConfigurationHeader is the parsed form of a configuration descriptor
// header. wTotalLength counts bytes beyond the 9-byte header as well.
type ConfigurationHeader struct {
	TotalLength    uint16 // Header plus all interface and endpoint bytes
	InterfaceCount uint8  // Number of interfaces
	Number         uint8  // Configuration value
	StringIndex    uint8  // Index of the configuration string descriptor
	Attributes     uint8  // bmAttributes (bit 7 reserved, 6 self-powered, 5 remote wakeup)
	MaxPower       uint8  // Maximum power in 2 mA units
}

// ParseConfigurationDescriptor parses a configuration descriptor header
// from bytes into out. Returns an error if the data is too short or the
// descriptor type is wrong.
func ParseConfigurationDescriptor(data []byte, out *ConfigurationHeader) error {
	if len(data) < ConfigurationDescriptorSize {
		return pkg.ErrDescriptorTooShort
	}
	if data[1] != byte(DescriptorTypeConfiguration) {
		return pkg.ErrDescriptorTypeMismatch
	}
	out.TotalLength = binary.LittleEndian.Uint16(data[2:4])
	out.InterfaceCount = data[4]
	out.Number = data[5]
	out.StringIndex = data[6]
	out.Attributes = data[7]
	out.MaxPower = data[8]
	return nil
}
