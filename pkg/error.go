package pkg

import "errors"

// Descriptor subsystem errors.
var (
	// ErrOutOfDomain indicates an argument outside the legal domain: an
	// illegal interface class code, a missing alternate setting at
	// construction, or a lookup by an index absent from a registry.
	ErrOutOfDomain = errors.New("argument out of domain")

	// ErrBufferTooSmall indicates the provided buffer is too small.
	ErrBufferTooSmall = errors.New("buffer too small")

	// ErrDescriptorTooShort indicates the descriptor data is too short.
	ErrDescriptorTooShort = errors.New("descriptor too short")

	// ErrDescriptorTypeMismatch indicates the descriptor type does not match expected.
	ErrDescriptorTypeMismatch = errors.New("descriptor type mismatch")

	// ErrSetupPacketTooShort indicates the setup packet data is too short.
	ErrSetupPacketTooShort = errors.New("setup packet too short")

	// ErrInvalidRequest indicates an invalid or unsupported control request.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrNotSupported indicates an unsupported operation or feature.
	ErrNotSupported = errors.New("not supported")

	// ErrNotConnected indicates no control endpoint is associated.
	ErrNotConnected = errors.New("control endpoint not connected")
)
