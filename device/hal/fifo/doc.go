// Package fifo implements a control transport over named pipes (FIFOs).
//
// It is intended for testing and simulation: a host-side process and the
// device-side descriptor subsystem exchange framed control messages through
// the filesystem, so enumeration can be exercised without hardware.
//
// # Architecture
//
// Each device instance creates a unique subdirectory under a shared bus
// directory:
//
//	/tmp/usb-bus/                    # Bus directory (shared with host)
//	└── device-{uuid}/               # Device subdirectory (unique per device)
//	    ├── host_to_device           # SETUP and OUT data from host
//	    └── device_to_host           # IN data, ACK, and STALL to host
//
// The UUID suffix allows multiple simulated devices to share one bus
// directory, including parallel test runs.
//
// # Framing
//
// Every message is {type u8, length u16 LE, payload}. SETUP packets carry
// an 8-byte payload; DATA messages carry up to [MaxPayload] bytes; ACK,
// STALL, setting, and address messages round out the protocol.
//
// # In-Process Use
//
// [New] builds a transport over any reader/writer pair, so tests can drive
// a device through io.Pipe without touching the filesystem:
//
//	hostR, devW := io.Pipe()
//	devR, hostW := io.Pipe()
//	transport := fifo.New(devR, devW)
//
// [Open] builds the pipe-backed form:
//
//	transport, err := fifo.Open("/tmp/usb-bus")
//	// host side attaches under transport.DeviceDir()
package fifo
