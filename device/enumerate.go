package device

import (
	"context"
	"errors"

	"github.com/apex/log"

	"github.com/PhazonicRidley/libhal/device/hal"
	"github.com/PhazonicRidley/libhal/pkg"
)

// MaxDescriptorResponseSize bounds the staging buffer for a composed
// GET_DESCRIPTOR response.
const MaxDescriptorResponseSize = 512

// MaxStrings is the number of string descriptor slots, including the
// language descriptor at index zero.
const MaxStrings = 16

// Enumerator drives the device side of USB enumeration over a control
// transport: it parses SETUP packets, serves the standard requests, and
// stages composed descriptor streams for transmission.
//
// An Enumerator is single-threaded. One goroutine owns it, typically the
// one running Serve; descriptors and configurations must not be mutated
// elsewhere while it runs.
type Enumerator struct {
	device  *DeviceDescriptor
	configs []*Configuration
	strings [MaxStrings]*StringDescriptor
	ctrl    hal.ControlTransport
	active  uint8
	buf     [MaxDescriptorResponseSize]byte
}

// NewEnumerator constructs an enumerator over the given transport, device
// descriptor, and configurations. Configuration values are assigned
// sequentially from 1 in slice order, and the device descriptor's
// configuration count is recorded.
func NewEnumerator(ctrl hal.ControlTransport, dev *DeviceDescriptor, configs []*Configuration) *Enumerator {
	for i, c := range configs {
		c.AssignNumber(uint8(i + 1))
		if int(c.TotalLength()) > MaxDescriptorResponseSize {
			pkg.LogWarn(pkg.ComponentEnumerate, "configuration exceeds staging buffer", log.Fields{
				"configuration": i + 1,
				"totalLength":   c.TotalLength(),
				"limit":         MaxDescriptorResponseSize,
			})
		}
	}
	dev.SetNumConfigurations(uint8(len(configs)))
	return &Enumerator{
		device:  dev,
		configs: configs,
		ctrl:    ctrl,
	}
}

// SetString registers a string descriptor at the given index. Index zero is
// the language descriptor.
func (e *Enumerator) SetString(index uint8, s *StringDescriptor) error {
	if index >= MaxStrings {
		return pkg.ErrOutOfDomain
	}
	e.strings[index] = s
	return nil
}

// ActiveConfiguration returns the configuration value selected by the host,
// or zero while the device is unconfigured.
func (e *Enumerator) ActiveConfiguration() uint8 {
	return e.active
}

// Configuration returns the configuration with the given value, or
// pkg.ErrOutOfDomain if none matches.
func (e *Enumerator) Configuration(number uint8) (*Configuration, error) {
	for _, c := range e.configs {
		if c.Number() == number {
			return c, nil
		}
	}
	return nil, pkg.ErrOutOfDomain
}

// HandleSetup serves one standard SETUP request. Class and vendor requests,
// and standard requests the device side does not implement, fail with
// pkg.ErrNotSupported so the caller can stall.
func (e *Enumerator) HandleSetup(ctx context.Context, setup *SetupPacket) error {
	if !setup.IsStandard() {
		return pkg.ErrNotSupported
	}

	pkg.LogDebug(pkg.ComponentEnumerate, "handling setup", log.Fields{
		"setup": setup.String(),
	})

	switch setup.Recipient() {
	case RequestRecipientDevice:
		return e.handleDeviceRequest(ctx, setup)
	case RequestRecipientInterface:
		return e.handleInterfaceRequest(ctx, setup)
	default:
		return pkg.ErrNotSupported
	}
}

func (e *Enumerator) handleDeviceRequest(ctx context.Context, setup *SetupPacket) error {
	switch setup.Request {
	case RequestGetStatus:
		var status [2]byte
		if c := e.currentConfiguration(); c != nil {
			if self, _ := c.Attributes(); self {
				status[0] = 0x01
			}
		}
		return e.ctrl.Write(ctx, status[:])

	case RequestSetAddress:
		if err := e.ctrl.SetAddress(uint8(setup.Value)); err != nil {
			return err
		}
		return e.ctrl.Ack()

	case RequestGetDescriptor:
		return e.handleGetDescriptor(ctx, setup)

	case RequestGetConfiguration:
		return e.ctrl.Write(ctx, []byte{e.active})

	case RequestSetConfiguration:
		number := uint8(setup.Value)
		if number != 0 {
			if _, err := e.Configuration(number); err != nil {
				return err
			}
		}
		e.active = number
		pkg.LogInfo(pkg.ComponentEnumerate, "configuration selected", log.Fields{
			"configuration": number,
		})
		return e.ctrl.Ack()

	default:
		return pkg.ErrNotSupported
	}
}

func (e *Enumerator) handleInterfaceRequest(ctx context.Context, setup *SetupPacket) error {
	iface, err := e.activeInterface(setup.InterfaceNumber())
	if err != nil {
		return err
	}

	switch setup.Request {
	case RequestGetStatus:
		var status [2]byte
		return e.ctrl.Write(ctx, status[:])

	case RequestGetInterface:
		return e.ctrl.Write(ctx, []byte{iface.SelectedSetting()})

	case RequestSetInterface:
		if err := iface.SetSetting(uint8(setup.Value)); err != nil {
			return err
		}
		return e.ctrl.Ack()

	default:
		return pkg.ErrNotSupported
	}
}

// currentConfiguration resolves the configuration the host selected,
// falling back to the first one while the device is unconfigured. Returns
// nil when no configurations exist.
func (e *Enumerator) currentConfiguration() *Configuration {
	if e.active != 0 {
		if c, err := e.Configuration(e.active); err == nil {
			return c
		}
	}
	if len(e.configs) > 0 {
		return e.configs[0]
	}
	return nil
}

// activeInterface resolves an interface number against the current
// configuration.
func (e *Enumerator) activeInterface(number uint8) (Interface, error) {
	config := e.currentConfiguration()
	if config == nil {
		return nil, pkg.ErrOutOfDomain
	}
	return config.Interface(number)
}

func (e *Enumerator) handleGetDescriptor(ctx context.Context, setup *SetupPacket) error {
	var data []byte

	switch setup.DescriptorType() {
	case DescriptorTypeDevice:
		data = e.device.Pack()

	case DescriptorTypeConfiguration:
		index := int(setup.DescriptorIndex())
		if index >= len(e.configs) {
			return pkg.ErrOutOfDomain
		}
		c := e.configs[index]
		// A stream longer than the staging buffer would truncate while the
		// header still advertises the full wTotalLength; stall instead.
		if int(c.TotalLength()) > MaxDescriptorResponseSize {
			return pkg.ErrBufferTooSmall
		}
		data = e.stageConfiguration(c)

	case DescriptorTypeString:
		index := setup.DescriptorIndex()
		if index >= MaxStrings || e.strings[index] == nil {
			return pkg.ErrOutOfDomain
		}
		data = e.strings[index].Pack()

	default:
		return pkg.ErrNotSupported
	}

	if uint16(len(data)) > setup.Length {
		data = data[:setup.Length]
	}
	return e.ctrl.Write(ctx, data)
}

// stageConfiguration collects the configuration's pushed descriptor stream
// into the staging buffer. The dispatch views are copied immediately; none
// outlive the push.
func (e *Enumerator) stageConfiguration(c *Configuration) []byte {
	n := 0
	c.WriteDescriptors(func(p []byte) {
		n += copy(e.buf[n:], p)
	})
	return e.buf[:n]
}

// Serve reads SETUP packets from the transport and handles them until the
// context is cancelled or the transport fails. Requests that cannot be
// served are answered with a stall and do not terminate the loop.
func (e *Enumerator) Serve(ctx context.Context) error {
	if err := e.ctrl.Init(ctx); err != nil {
		return err
	}

	var raw hal.SetupPacket
	var setup SetupPacket
	for {
		if err := e.ctrl.ReadSetup(ctx, &raw); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			pkg.LogError(pkg.ComponentEnumerate, "setup read failed", log.Fields{
				"error": err.Error(),
			})
			return err
		}

		setup = SetupPacket{
			RequestType: raw.RequestType,
			Request:     raw.Request,
			Value:       raw.Value,
			Index:       raw.Index,
			Length:      raw.Length,
		}

		if err := e.HandleSetup(ctx, &setup); err != nil {
			pkg.LogWarn(pkg.ComponentEnumerate, "stalling request", log.Fields{
				"setup": setup.String(),
				"error": err.Error(),
			})
			if err := e.ctrl.Stall(); err != nil {
				return err
			}
		}
	}
}
