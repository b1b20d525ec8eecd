package hal

import "testing"

func TestSpeed_MaxPacketSize0(t *testing.T) {
	tests := []struct {
		speed Speed
		want  uint16
	}{
		{SpeedLow, 8},
		{SpeedFull, 64},
		{SpeedHigh, 64},
		{SpeedUnknown, 8},
	}
	for _, tt := range tests {
		if got := tt.speed.MaxPacketSize0(); got != tt.want {
			t.Errorf("%s MaxPacketSize0() = %d, want %d", tt.speed, got, tt.want)
		}
	}
}

func TestSpeed_String(t *testing.T) {
	if s := SpeedFull.String(); s != "Full Speed" {
		t.Errorf("SpeedFull.String() = %q", s)
	}
	if s := Speed(9).String(); s != "Unknown (9)" {
		t.Errorf("unknown speed String() = %q", s)
	}
}

func TestSetupPacket_RoundTrip(t *testing.T) {
	original := SetupPacket{
		RequestType: 0x80,
		Request:     0x06,
		Value:       0x0302,
		Index:       0x0409,
		Length:      255,
	}

	var buf [SetupPacketSize]byte
	if n := original.MarshalTo(buf[:]); n != SetupPacketSize {
		t.Fatalf("MarshalTo = %d, want %d", n, SetupPacketSize)
	}

	var parsed SetupPacket
	if !ParseSetupPacket(buf[:], &parsed) {
		t.Fatal("ParseSetupPacket returned false")
	}
	if parsed != original {
		t.Errorf("parsed = %+v, want %+v", parsed, original)
	}
}

func TestParseSetupPacket_TooShort(t *testing.T) {
	var parsed SetupPacket
	if ParseSetupPacket(make([]byte, 7), &parsed) {
		t.Error("expected false for short data")
	}
}

func TestSetupPacket_MarshalToShortBuffer(t *testing.T) {
	s := SetupPacket{Request: 1}
	if n := s.MarshalTo(make([]byte, 4)); n != 0 {
		t.Errorf("MarshalTo short buffer = %d, want 0", n)
	}
}
