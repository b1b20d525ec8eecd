package device

import "fmt"

// DescriptorType identifies a descriptor's bDescriptorType wire value
// (USB 2.0 Spec Table 9-5).
type DescriptorType uint8

// USB descriptor type codes.
const (
	DescriptorTypeDevice               DescriptorType = 0x01
	DescriptorTypeConfiguration        DescriptorType = 0x02
	DescriptorTypeString               DescriptorType = 0x03
	DescriptorTypeInterface            DescriptorType = 0x04
	DescriptorTypeEndpoint             DescriptorType = 0x05
	DescriptorTypeDeviceQualifier      DescriptorType = 0x06
	DescriptorTypeOtherSpeedConfig     DescriptorType = 0x07
	DescriptorTypeInterfacePower       DescriptorType = 0x08
	DescriptorTypeOTG                  DescriptorType = 0x09
	DescriptorTypeDebug                DescriptorType = 0x0A
	DescriptorTypeInterfaceAssociation DescriptorType = 0x0B
	DescriptorTypeBOS                  DescriptorType = 0x0F
	DescriptorTypeDeviceCapability     DescriptorType = 0x10
)

// String returns a human-readable descriptor type name.
func (t DescriptorType) String() string {
	switch t {
	case DescriptorTypeDevice:
		return "Device"
	case DescriptorTypeConfiguration:
		return "Configuration"
	case DescriptorTypeString:
		return "String"
	case DescriptorTypeInterface:
		return "Interface"
	case DescriptorTypeEndpoint:
		return "Endpoint"
	case DescriptorTypeDeviceQualifier:
		return "Device Qualifier"
	case DescriptorTypeOtherSpeedConfig:
		return "Other Speed Configuration"
	case DescriptorTypeInterfacePower:
		return "Interface Power"
	case DescriptorTypeOTG:
		return "OTG"
	case DescriptorTypeDebug:
		return "Debug"
	case DescriptorTypeInterfaceAssociation:
		return "Interface Association"
	case DescriptorTypeBOS:
		return "BOS"
	case DescriptorTypeDeviceCapability:
		return "Device Capability"
	default:
		return fmt.Sprintf("Unknown (0x%02X)", uint8(t))
	}
}

// ClassCode identifies a standard USB device or interface class.
type ClassCode uint8

// USB class codes.
const (
	ClassPerInterface ClassCode = 0x00 // Class defined at interface level
	ClassAudio        ClassCode = 0x01 // Audio class
	ClassCDC          ClassCode = 0x02 // Communications and CDC Control
	ClassHID          ClassCode = 0x03 // Human Interface Device
	ClassPhysical     ClassCode = 0x05 // Physical
	ClassImage        ClassCode = 0x06 // Still Imaging
	ClassPrinter      ClassCode = 0x07 // Printer
	ClassMassStorage  ClassCode = 0x08 // Mass Storage
	ClassHub          ClassCode = 0x09 // Hub
	ClassCDCData      ClassCode = 0x0A // CDC-Data
	ClassSmartCard    ClassCode = 0x0B // Smart Card
	ClassContentSec   ClassCode = 0x0D // Content Security
	ClassVideo        ClassCode = 0x0E // Video
	ClassHealthcare   ClassCode = 0x0F // Personal Healthcare
	ClassAudioVideo   ClassCode = 0x10 // Audio/Video Devices
	ClassBillboard    ClassCode = 0x11 // Billboard Device Class
	ClassUSBCBridge   ClassCode = 0x12 // USB Type-C Bridge
	ClassBulkDisplay  ClassCode = 0x13 // USB Bulk Display Protocol
	ClassMCTP         ClassCode = 0x14 // MCTP over USB Protocol Endpoint
	ClassI3C          ClassCode = 0x3C // I3C Device
	ClassDiagnostic   ClassCode = 0xDC // Diagnostic Device
	ClassWireless     ClassCode = 0xE0 // Wireless Controller
	ClassMisc         ClassCode = 0xEF // Miscellaneous
	ClassAppSpecific  ClassCode = 0xFE // Application Specific
	ClassVendor       ClassCode = 0xFF // Vendor Specific
)

// ValidForInterface reports whether the class code may be declared by an
// interface descriptor. ClassPerInterface, ClassHub, and ClassBillboard are
// reserved for the device level (USB 2.0 Spec section 9.6.5).
func (c ClassCode) ValidForInterface() bool {
	switch c {
	case ClassPerInterface, ClassHub, ClassBillboard:
		return false
	}
	return true
}

// String returns a human-readable class name.
func (c ClassCode) String() string {
	switch c {
	case ClassPerInterface:
		return "Per-Interface"
	case ClassAudio:
		return "Audio"
	case ClassCDC:
		return "Communications"
	case ClassHID:
		return "Human Interface Device"
	case ClassPhysical:
		return "Physical"
	case ClassImage:
		return "Still Imaging"
	case ClassPrinter:
		return "Printer"
	case ClassMassStorage:
		return "Mass Storage"
	case ClassHub:
		return "Hub"
	case ClassCDCData:
		return "CDC-Data"
	case ClassSmartCard:
		return "Smart Card"
	case ClassContentSec:
		return "Content Security"
	case ClassVideo:
		return "Video"
	case ClassHealthcare:
		return "Personal Healthcare"
	case ClassAudioVideo:
		return "Audio/Video"
	case ClassBillboard:
		return "Billboard"
	case ClassUSBCBridge:
		return "USB Type-C Bridge"
	case ClassBulkDisplay:
		return "Bulk Display"
	case ClassMCTP:
		return "MCTP"
	case ClassI3C:
		return "I3C"
	case ClassDiagnostic:
		return "Diagnostic"
	case ClassWireless:
		return "Wireless Controller"
	case ClassMisc:
		return "Miscellaneous"
	case ClassAppSpecific:
		return "Application Specific"
	case ClassVendor:
		return "Vendor Specific"
	default:
		return fmt.Sprintf("Unknown (0x%02X)", uint8(c))
	}
}
