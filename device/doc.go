// Package device implements the device-side USB descriptor subsystem:
// descriptor assembly, the interface and configuration hierarchy, and the
// enumeration request loop.
//
// It is platform-agnostic and reaches hardware through the
// [github.com/PhazonicRidley/libhal/device/hal] transport contracts. A
// concrete [hal.ControlTransport] carries endpoint zero; the descriptor
// tree never schedules I/O of its own.
//
// # Architecture
//
// The subsystem is organized around a small set of types:
//
//   - [DeviceDescriptor], [StringDescriptor], and [EndpointDescriptor] are
//     the flat wire records
//   - [InterfaceDescriptor] maintains the mutable 9-byte interface header
//     and the registry of alternate settings
//   - [StaticInterface] adds a fixed endpoint complement per setting
//   - [Configuration] aggregates interfaces under a packed 9-byte header
//   - [Enumerator] serves the standard requests over a control transport
//
// # Descriptor Streaming
//
// Composed descriptors are pushed, not gathered: WriteDescriptors hands
// successive byte views to a [Dispatch] callback, and the concatenation of
// the views is the full stream. Views are valid only during the call.
//
// # Packed Headers
//
// Interface and configuration headers are packed in place at construction
// and kept current thereafter. Accessors such as
// [InterfaceDescriptor.SelectedSetting] decode from the packed bytes, so a
// descriptor's wire form and its observable state can never disagree.
//
// # Concurrency
//
// The descriptor tree is single-threaded. One goroutine owns a device's
// descriptors and its [Enumerator]; no internal locking is performed.
//
// # Errors
//
// Arguments outside a type's legal domain, such as an interface class code
// reserved for the device level or an unregistered alternate setting index,
// fail with [pkg.ErrOutOfDomain] at the call that received them.
//
// # Example
//
//	iface, _ := device.NewStaticInterface(0, transport, settings, endpoints)
//	config := device.NewConfiguration([]device.Interface{iface}, true, false, 50)
//	dev, _ := device.NewDeviceDescriptor(buf, transport, info)
//	enum := device.NewEnumerator(transport, dev, []*device.Configuration{config})
//	enum.Serve(ctx)
//
// A FIFO-based transport for testing is available in
// [github.com/PhazonicRidley/libhal/device/hal/fifo].
package device
