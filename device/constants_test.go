package device

import "testing"

func TestClassCode_ValidForInterface(t *testing.T) {
	illegal := []ClassCode{ClassPerInterface, ClassHub, ClassBillboard}
	for _, c := range illegal {
		if c.ValidForInterface() {
			t.Errorf("ValidForInterface(%s) = true, want false", c)
		}
	}

	legal := []ClassCode{ClassAudio, ClassCDC, ClassHID, ClassMassStorage,
		ClassVideo, ClassVendor, ClassMisc}
	for _, c := range legal {
		if !c.ValidForInterface() {
			t.Errorf("ValidForInterface(%s) = false, want true", c)
		}
	}
}

func TestClassCode_String(t *testing.T) {
	if s := ClassHID.String(); s != "Human Interface Device" {
		t.Errorf("ClassHID.String() = %q", s)
	}
	if s := ClassCode(0x42).String(); s != "Unknown (0x42)" {
		t.Errorf("unknown class String() = %q", s)
	}
}

func TestDescriptorType_String(t *testing.T) {
	if s := DescriptorTypeConfiguration.String(); s != "Configuration" {
		t.Errorf("DescriptorTypeConfiguration.String() = %q", s)
	}
	if s := DescriptorType(0xEE).String(); s != "Unknown (0xEE)" {
		t.Errorf("unknown type String() = %q", s)
	}
}
