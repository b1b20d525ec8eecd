// Package hal defines the transport contracts between the descriptor
// subsystem and a concrete USB controller or simulation backend.
//
// Two interfaces are exposed:
//
//   - [ControlEndpoint] is the narrow capability a descriptor borrows: raw
//     buffered read/write of byte sequences on endpoint zero, plus
//     notification of alternate setting changes.
//   - [ControlTransport] extends it with the SETUP, STALL, and ACK
//     operations the enumeration loop drives.
//
// A FIFO-based transport for testing and simulation is available in
// [github.com/PhazonicRidley/libhal/device/hal/fifo].
package hal
