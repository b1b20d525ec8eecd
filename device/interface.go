package device

import (
	"context"

	"github.com/apex/log"

	"github.com/PhazonicRidley/libhal/device/hal"
	"github.com/PhazonicRidley/libhal/pkg"
)

// InterfaceDescriptorSize is the packed size of an interface descriptor in bytes.
const InterfaceDescriptorSize = 9

// Setting describes one alternate setting of an interface: its endpoint
// count, class identity, and string index.
type Setting struct {
	NumEndpoints uint8     // Number of endpoints (excluding EP0)
	Class        ClassCode // Interface class code
	SubClass     uint8     // Subclass code
	Protocol     uint8     // Protocol code
	StringIndex  uint8     // Index of the interface string descriptor
}

// NewSetting validates and returns an interface setting. The class code
// must be legal for an interface; ClassPerInterface, ClassHub, and
// ClassBillboard fail with pkg.ErrOutOfDomain at construction, never later.
func NewSetting(numEndpoints uint8, class ClassCode, subClass, protocol, stringIndex uint8) (Setting, error) {
	if !class.ValidForInterface() {
		return Setting{}, pkg.ErrOutOfDomain
	}
	return Setting{
		NumEndpoints: numEndpoints,
		Class:        class,
		SubClass:     subClass,
		Protocol:     protocol,
		StringIndex:  stringIndex,
	}, nil
}

// Interface is implemented by every concrete USB interface type. The
// configuration layer relies on TotalLength matching exactly the number of
// bytes WriteDescriptors pushes, without re-verifying the equality.
type Interface interface {
	// Number returns the immutable interface number.
	Number() uint8

	// SelectedSetting returns the active alternate setting index.
	SelectedSetting() uint8

	// SetSetting selects the alternate setting registered at index.
	SetSetting(index uint8) error

	// Setting returns the setting registered at index.
	Setting(index uint8) (Setting, error)

	// TotalLength returns the exact number of bytes WriteDescriptors pushes.
	TotalLength() uint16

	// WriteDescriptors pushes the packed interface header, followed by
	// every owned endpoint descriptor, to dispatch in class-defined order.
	WriteDescriptors(dispatch Dispatch)

	// AcquireEndpoint returns the endpoint with the given number, scoped
	// to the currently active alternate setting.
	AcquireEndpoint(number uint8) (Endpoint, error)
}

// InterfaceDescriptor is the embeddable core of a USB interface: the packed
// 9-byte header, the registry of alternate settings, and a borrowed control
// endpoint used to propagate setting changes. Concrete interface types embed
// it and supply endpoint ownership, WriteDescriptors, and TotalLength.
//
// The settings map and the control endpoint are borrowed: both must outlive
// the descriptor, and the map must not be mutated after construction.
type InterfaceDescriptor struct {
	descriptor
	packed   [InterfaceDescriptorSize]byte
	settings map[uint8]Setting
	ctrl     hal.ControlEndpoint
}

// NewInterfaceDescriptor constructs an interface descriptor and immediately
// selects alternate setting index 0 as active. It fails with
// pkg.ErrOutOfDomain if index 0 is absent from settings or if any supplied
// setting declares an illegal class code.
func NewInterfaceDescriptor(number uint8, ctrl hal.ControlEndpoint, settings map[uint8]Setting) (*InterfaceDescriptor, error) {
	if _, ok := settings[0]; !ok {
		return nil, pkg.ErrOutOfDomain
	}
	for _, s := range settings {
		if !s.Class.ValidForInterface() {
			return nil, pkg.ErrOutOfDomain
		}
	}

	i := &InterfaceDescriptor{settings: settings, ctrl: ctrl}
	i.descriptor = descriptor{
		data:   i.packed[:],
		length: InterfaceDescriptorSize,
		dtype:  DescriptorTypeInterface,
	}
	i.packHeader()
	i.packed[2] = number
	if err := i.SetSetting(0); err != nil {
		return nil, err
	}
	return i, nil
}

// Number returns the interface number from the packed header.
func (i *InterfaceDescriptor) Number() uint8 {
	return i.packed[2]
}

// SelectedSetting returns the active alternate setting index from the
// packed header.
func (i *InterfaceDescriptor) SelectedSetting() uint8 {
	return i.packed[3]
}

// Setting returns the setting registered at index, or pkg.ErrOutOfDomain
// if the index is absent from the registry.
func (i *InterfaceDescriptor) Setting(index uint8) (Setting, error) {
	s, ok := i.settings[index]
	if !ok {
		return Setting{}, pkg.ErrOutOfDomain
	}
	return s, nil
}

// SetSetting selects the alternate setting registered at index, rewriting
// the mutable header bytes from the found setting and notifying the control
// endpoint. The header commits only after a successful lookup; on failure
// the active setting and header are unchanged. This is the only path by
// which the packed header changes after construction.
func (i *InterfaceDescriptor) SetSetting(index uint8) error {
	s, ok := i.settings[index]
	if !ok {
		return pkg.ErrOutOfDomain
	}
	i.packed[3] = index
	i.packed[4] = s.NumEndpoints
	i.packed[5] = byte(s.Class)
	i.packed[6] = s.SubClass
	i.packed[7] = s.Protocol
	i.packed[8] = s.StringIndex

	if i.ctrl != nil {
		i.ctrl.SettingChanged(i.Number(), index)
	}
	pkg.LogDebug(pkg.ComponentInterface, "alternate setting selected", log.Fields{
		"interface": i.Number(),
		"setting":   index,
		"class":     s.Class.String(),
	})
	return nil
}

// Pack returns the maintained 9-byte header. The payload is packed in place
// at construction and by SetSetting; Pack performs no recomputation.
func (i *InterfaceDescriptor) Pack() []byte {
	return i.packHeader()
}

// CtrlWrite delegates raw byte transfer to the associated control endpoint.
// The endpoint owns any buffering; this descriptor buffers nothing.
func (i *InterfaceDescriptor) CtrlWrite(ctx context.Context, data []byte) error {
	if i.ctrl == nil {
		return pkg.ErrNotConnected
	}
	return i.ctrl.Write(ctx, data)
}

// CtrlRead delegates raw byte reception to the associated control endpoint.
func (i *InterfaceDescriptor) CtrlRead(ctx context.Context, buf []byte) (int, error) {
	if i.ctrl == nil {
		return 0, pkg.ErrNotConnected
	}
	return i.ctrl.Read(ctx, buf)
}

// StaticInterface is an Interface whose endpoint complement is fixed per
// alternate setting. It covers interfaces that declare their endpoints up
// front; class drivers with dynamic descriptor layouts implement Interface
// directly.
type StaticInterface struct {
	*InterfaceDescriptor
	endpoints map[uint8][]Endpoint
}

// NewStaticInterface constructs a static interface. endpoints maps each
// alternate setting index to the endpoints owned under that setting, in
// descriptor order; every registered setting's complement must match its
// declared NumEndpoints.
func NewStaticInterface(number uint8, ctrl hal.ControlEndpoint, settings map[uint8]Setting, endpoints map[uint8][]Endpoint) (*StaticInterface, error) {
	for index, s := range settings {
		if int(s.NumEndpoints) != len(endpoints[index]) {
			return nil, pkg.ErrOutOfDomain
		}
	}
	base, err := NewInterfaceDescriptor(number, ctrl, settings)
	if err != nil {
		return nil, err
	}
	return &StaticInterface{InterfaceDescriptor: base, endpoints: endpoints}, nil
}

// TotalLength returns the exact number of bytes WriteDescriptors pushes for
// the currently active setting.
func (s *StaticInterface) TotalLength() uint16 {
	n := len(s.endpoints[s.SelectedSetting()])
	return InterfaceDescriptorSize + uint16(n)*EndpointDescriptorSize
}

// WriteDescriptors pushes the packed interface header, then each owned
// endpoint descriptor of the active setting, to dispatch.
func (s *StaticInterface) WriteDescriptors(dispatch Dispatch) {
	dispatch(s.Pack())

	var buf [EndpointDescriptorSize]byte
	for _, ep := range s.endpoints[s.SelectedSetting()] {
		n := ep.Descriptor().MarshalTo(buf[:])
		dispatch(buf[:n])
	}
}

// AcquireEndpoint returns the endpoint with the given number under the
// active setting, or pkg.ErrOutOfDomain if no such endpoint exists.
func (s *StaticInterface) AcquireEndpoint(number uint8) (Endpoint, error) {
	for _, ep := range s.endpoints[s.SelectedSetting()] {
		if ep.Descriptor().Number() == number {
			return ep, nil
		}
	}
	return nil, pkg.ErrOutOfDomain
}

// InterfaceHeader is the parsed form of a 9-byte interface descriptor.
type InterfaceHeader struct {
	Number           uint8     // Interface number
	AlternateSetting uint8     // Active alternate setting index
	NumEndpoints     uint8     // Number of endpoints (excluding EP0)
	Class            ClassCode // Interface class code
	SubClass         uint8     // Subclass code
	Protocol         uint8     // Protocol code
	StringIndex      uint8     // Index of the interface string descriptor
}

// ParseInterfaceDescriptor parses an interface descriptor from bytes into
// out. Returns an error if the data is too short or the descriptor type is
// wrong.
func ParseInterfaceDescriptor(data []byte, out *InterfaceHeader) error {
	if len(data) < InterfaceDescriptorSize {
		return pkg.ErrDescriptorTooShort
	}
	if data[1] != byte(DescriptorTypeInterface) {
		return pkg.ErrDescriptorTypeMismatch
	}
	out.Number = data[2]
	out.AlternateSetting = data[3]
	out.NumEndpoints = data[4]
	out.Class = ClassCode(data[5])
	out.SubClass = data[6]
	out.Protocol = data[7]
	out.StringIndex = data[8]
	return nil
}

// Compile-time interface check
var _ Interface = (*StaticInterface)(nil)
