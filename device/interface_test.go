package device

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/PhazonicRidley/libhal/pkg"
)

// mockControlEndpoint records writes and setting notifications.
type mockControlEndpoint struct {
	written       []byte
	read          []byte
	maxPacketSize uint16
	changes       [][2]uint8
}

func (m *mockControlEndpoint) Write(_ context.Context, data []byte) error {
	m.written = append(m.written, data...)
	return nil
}

func (m *mockControlEndpoint) Read(_ context.Context, buf []byte) (int, error) {
	n := copy(buf, m.read)
	m.read = m.read[n:]
	return n, nil
}

func (m *mockControlEndpoint) MaxPacketSize() uint16 {
	return m.maxPacketSize
}

func (m *mockControlEndpoint) SettingChanged(number, alt uint8) {
	m.changes = append(m.changes, [2]uint8{number, alt})
}

func fixedControlEndpoint(mps uint16) *mockControlEndpoint {
	return &mockControlEndpoint{maxPacketSize: mps}
}

func testSettings() map[uint8]Setting {
	return map[uint8]Setting{
		0: {NumEndpoints: 0, Class: ClassVendor},
		1: {NumEndpoints: 2, Class: ClassHID, SubClass: 1, Protocol: 2, StringIndex: 7},
	}
}

func TestNewSetting_IllegalClass(t *testing.T) {
	for _, c := range []ClassCode{ClassPerInterface, ClassHub, ClassBillboard} {
		if _, err := NewSetting(1, c, 0, 0, 0); !errors.Is(err, pkg.ErrOutOfDomain) {
			t.Errorf("NewSetting(%s) error = %v, want ErrOutOfDomain", c, err)
		}
	}
}

func TestNewInterfaceDescriptor(t *testing.T) {
	iface, err := NewInterfaceDescriptor(3, nil, testSettings())
	if err != nil {
		t.Fatalf("NewInterfaceDescriptor error: %v", err)
	}

	if iface.Number() != 3 {
		t.Errorf("Number() = %d, want 3", iface.Number())
	}
	if iface.SelectedSetting() != 0 {
		t.Errorf("SelectedSetting() = %d, want 0", iface.SelectedSetting())
	}

	b := iface.Pack()
	want := []byte{9, byte(DescriptorTypeInterface), 3, 0, 0, byte(ClassVendor), 0, 0, 0}
	if !bytes.Equal(b, want) {
		t.Errorf("packed = % X, want % X", b, want)
	}
}

func TestNewInterfaceDescriptor_MissingDefaultSetting(t *testing.T) {
	settings := map[uint8]Setting{
		1: {NumEndpoints: 0, Class: ClassVendor},
	}
	if _, err := NewInterfaceDescriptor(0, nil, settings); !errors.Is(err, pkg.ErrOutOfDomain) {
		t.Errorf("error = %v, want ErrOutOfDomain", err)
	}
}

func TestNewInterfaceDescriptor_IllegalClass(t *testing.T) {
	settings := map[uint8]Setting{
		0: {NumEndpoints: 0, Class: ClassVendor},
		2: {NumEndpoints: 0, Class: ClassHub},
	}
	if _, err := NewInterfaceDescriptor(0, nil, settings); !errors.Is(err, pkg.ErrOutOfDomain) {
		t.Errorf("error = %v, want ErrOutOfDomain", err)
	}
}

func TestInterfaceDescriptor_SetSetting(t *testing.T) {
	iface, err := NewInterfaceDescriptor(2, nil, testSettings())
	if err != nil {
		t.Fatalf("NewInterfaceDescriptor error: %v", err)
	}

	if err := iface.SetSetting(1); err != nil {
		t.Fatalf("SetSetting(1) error: %v", err)
	}
	if iface.SelectedSetting() != 1 {
		t.Errorf("SelectedSetting() = %d, want 1", iface.SelectedSetting())
	}

	b := iface.Pack()
	want := []byte{9, byte(DescriptorTypeInterface), 2, 1, 2, byte(ClassHID), 1, 2, 7}
	if !bytes.Equal(b, want) {
		t.Errorf("packed = % X, want % X", b, want)
	}
}

func TestInterfaceDescriptor_SetSettingAbsent(t *testing.T) {
	iface, err := NewInterfaceDescriptor(0, nil, testSettings())
	if err != nil {
		t.Fatalf("NewInterfaceDescriptor error: %v", err)
	}

	var before [InterfaceDescriptorSize]byte
	copy(before[:], iface.Pack())

	if err := iface.SetSetting(5); !errors.Is(err, pkg.ErrOutOfDomain) {
		t.Fatalf("SetSetting(5) error = %v, want ErrOutOfDomain", err)
	}
	if iface.SelectedSetting() != 0 {
		t.Errorf("SelectedSetting() = %d after failed select, want 0", iface.SelectedSetting())
	}
	if !bytes.Equal(iface.Pack(), before[:]) {
		t.Errorf("header changed after failed select: % X, want % X", iface.Pack(), before[:])
	}
}

func TestInterfaceDescriptor_SettingChangedNotification(t *testing.T) {
	ctrl := fixedControlEndpoint(64)
	iface, err := NewInterfaceDescriptor(1, ctrl, testSettings())
	if err != nil {
		t.Fatalf("NewInterfaceDescriptor error: %v", err)
	}

	if err := iface.SetSetting(1); err != nil {
		t.Fatalf("SetSetting(1) error: %v", err)
	}

	// Construction selects setting 0, then the explicit select follows.
	want := [][2]uint8{{1, 0}, {1, 1}}
	if len(ctrl.changes) != len(want) {
		t.Fatalf("notifications = %v, want %v", ctrl.changes, want)
	}
	for i := range want {
		if ctrl.changes[i] != want[i] {
			t.Errorf("notification %d = %v, want %v", i, ctrl.changes[i], want[i])
		}
	}
}

func TestInterfaceDescriptor_Setting(t *testing.T) {
	iface, err := NewInterfaceDescriptor(0, nil, testSettings())
	if err != nil {
		t.Fatalf("NewInterfaceDescriptor error: %v", err)
	}

	s, err := iface.Setting(1)
	if err != nil {
		t.Fatalf("Setting(1) error: %v", err)
	}
	if s.Class != ClassHID || s.NumEndpoints != 2 {
		t.Errorf("Setting(1) = %+v", s)
	}

	if _, err := iface.Setting(9); !errors.Is(err, pkg.ErrOutOfDomain) {
		t.Errorf("Setting(9) error = %v, want ErrOutOfDomain", err)
	}
}

func TestInterfaceDescriptor_CtrlNotConnected(t *testing.T) {
	iface, err := NewInterfaceDescriptor(0, nil, testSettings())
	if err != nil {
		t.Fatalf("NewInterfaceDescriptor error: %v", err)
	}

	if err := iface.CtrlWrite(context.Background(), []byte{1}); !errors.Is(err, pkg.ErrNotConnected) {
		t.Errorf("CtrlWrite error = %v, want ErrNotConnected", err)
	}
	if _, err := iface.CtrlRead(context.Background(), make([]byte, 4)); !errors.Is(err, pkg.ErrNotConnected) {
		t.Errorf("CtrlRead error = %v, want ErrNotConnected", err)
	}
}

func testEndpoints() map[uint8][]Endpoint {
	return map[uint8][]Endpoint{
		0: {},
		1: {
			&staticEndpoint{desc: EndpointDescriptor{
				Address: 1 | EndpointDirectionIn, Attributes: EndpointTypeBulk, MaxPacketSize: 64,
			}},
			&staticEndpoint{desc: EndpointDescriptor{
				Address: 1, Attributes: EndpointTypeBulk, MaxPacketSize: 64,
			}},
		},
	}
}

type staticEndpoint struct {
	desc EndpointDescriptor
}

func (e *staticEndpoint) Descriptor() *EndpointDescriptor {
	return &e.desc
}

func TestNewStaticInterface_EndpointCountMismatch(t *testing.T) {
	endpoints := testEndpoints()
	endpoints[1] = endpoints[1][:1]
	if _, err := NewStaticInterface(0, nil, testSettings(), endpoints); !errors.Is(err, pkg.ErrOutOfDomain) {
		t.Errorf("error = %v, want ErrOutOfDomain", err)
	}
}

func TestStaticInterface_TotalLength(t *testing.T) {
	iface, err := NewStaticInterface(0, nil, testSettings(), testEndpoints())
	if err != nil {
		t.Fatalf("NewStaticInterface error: %v", err)
	}

	if got := iface.TotalLength(); got != InterfaceDescriptorSize {
		t.Errorf("TotalLength() = %d, want %d", got, InterfaceDescriptorSize)
	}

	if err := iface.SetSetting(1); err != nil {
		t.Fatalf("SetSetting(1) error: %v", err)
	}
	want := uint16(InterfaceDescriptorSize + 2*EndpointDescriptorSize)
	if got := iface.TotalLength(); got != want {
		t.Errorf("TotalLength() = %d, want %d", got, want)
	}
}

func TestStaticInterface_WriteDescriptors(t *testing.T) {
	iface, err := NewStaticInterface(0, nil, testSettings(), testEndpoints())
	if err != nil {
		t.Fatalf("NewStaticInterface error: %v", err)
	}
	if err := iface.SetSetting(1); err != nil {
		t.Fatalf("SetSetting(1) error: %v", err)
	}

	var stream []byte
	iface.WriteDescriptors(func(p []byte) {
		stream = append(stream, p...)
	})

	if len(stream) != int(iface.TotalLength()) {
		t.Fatalf("stream length = %d, want %d", len(stream), iface.TotalLength())
	}
	if stream[0] != InterfaceDescriptorSize || stream[1] != byte(DescriptorTypeInterface) {
		t.Errorf("stream header = % X", stream[:2])
	}
	if stream[9] != EndpointDescriptorSize || stream[10] != byte(DescriptorTypeEndpoint) {
		t.Errorf("first endpoint header = % X", stream[9:11])
	}
	if stream[11] != 1|EndpointDirectionIn {
		t.Errorf("first endpoint address = 0x%02X, want 0x81", stream[11])
	}
}

func TestParseInterfaceDescriptor_RoundTrip(t *testing.T) {
	iface, err := NewInterfaceDescriptor(2, nil, testSettings())
	if err != nil {
		t.Fatalf("NewInterfaceDescriptor error: %v", err)
	}
	if err := iface.SetSetting(1); err != nil {
		t.Fatalf("SetSetting(1) error: %v", err)
	}

	var parsed InterfaceHeader
	if err := ParseInterfaceDescriptor(iface.Pack(), &parsed); err != nil {
		t.Fatalf("parse error: %v", err)
	}
	want := InterfaceHeader{
		Number:           2,
		AlternateSetting: 1,
		NumEndpoints:     2,
		Class:            ClassHID,
		SubClass:         1,
		Protocol:         2,
		StringIndex:      7,
	}
	if parsed != want {
		t.Errorf("parsed = %+v, want %+v", parsed, want)
	}
}

func TestParseInterfaceDescriptor_Errors(t *testing.T) {
	var parsed InterfaceHeader
	if err := ParseInterfaceDescriptor(make([]byte, 4), &parsed); !errors.Is(err, pkg.ErrDescriptorTooShort) {
		t.Errorf("short data error = %v, want ErrDescriptorTooShort", err)
	}

	data := make([]byte, InterfaceDescriptorSize)
	data[0] = InterfaceDescriptorSize
	data[1] = byte(DescriptorTypeEndpoint)
	if err := ParseInterfaceDescriptor(data, &parsed); !errors.Is(err, pkg.ErrDescriptorTypeMismatch) {
		t.Errorf("wrong type error = %v, want ErrDescriptorTypeMismatch", err)
	}
}

func TestStaticInterface_AcquireEndpoint(t *testing.T) {
	iface, err := NewStaticInterface(0, nil, testSettings(), testEndpoints())
	if err != nil {
		t.Fatalf("NewStaticInterface error: %v", err)
	}

	// Setting 0 has no endpoints.
	if _, err := iface.AcquireEndpoint(1); !errors.Is(err, pkg.ErrOutOfDomain) {
		t.Errorf("AcquireEndpoint(1) error = %v, want ErrOutOfDomain", err)
	}

	if err := iface.SetSetting(1); err != nil {
		t.Fatalf("SetSetting(1) error: %v", err)
	}
	ep, err := iface.AcquireEndpoint(1)
	if err != nil {
		t.Fatalf("AcquireEndpoint(1) error: %v", err)
	}
	if ep.Descriptor().Number() != 1 {
		t.Errorf("endpoint number = %d, want 1", ep.Descriptor().Number())
	}

	if _, err := iface.AcquireEndpoint(9); !errors.Is(err, pkg.ErrOutOfDomain) {
		t.Errorf("AcquireEndpoint(9) error = %v, want ErrOutOfDomain", err)
	}
}
