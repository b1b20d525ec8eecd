package fifo

import (
	"context"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/apex/log"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"github.com/PhazonicRidley/libhal/device/hal"
	"github.com/PhazonicRidley/libhal/pkg"
)

// MaxPayload is the maximum message payload size.
const MaxPayload = 512

// Message types for the FIFO protocol (must match the host side).
const (
	msgSetup   = 0x01 // SETUP packet from host
	msgData    = 0x02 // DATA payload, either direction
	msgAck     = 0x03 // ACK response
	msgStall   = 0x05 // STALL response
	msgSetting = 0x06 // Alternate setting change notification
	msgAddress = 0x13 // Device address assignment
)

// headerSize is type (1) plus length (2).
const headerSize = 3

// FIFO file names inside the device directory.
const (
	fifoHostToDevice = "host_to_device"
	fifoDeviceToHost = "device_to_host"
)

// Transport implements hal.ControlTransport over a framed byte stream.
// Messages are {type u8, length u16 LE, payload}.
//
// Two backings are supported: a pair of named pipes under a shared bus
// directory (via Open), or any reader/writer pair such as io.Pipe ends
// (via New). A Transport is single-threaded like the descriptor tree it
// serves.
type Transport struct {
	r io.Reader
	w io.Writer

	// Named pipe backing; nil for stream-backed transports.
	deviceDir    string
	hostToDevice *os.File
	deviceToHost *os.File

	address  uint8
	initDone bool

	// Buffered OUT payloads received while waiting for a SETUP packet.
	pending []byte

	readBuf  [headerSize + MaxPayload]byte
	writeBuf [headerSize + MaxPayload]byte
}

// New constructs a stream-backed transport over the given reader/writer
// pair. Intended for in-process testing with io.Pipe.
func New(r io.Reader, w io.Writer) *Transport {
	return &Transport{r: r, w: w, initDone: true}
}

// Open constructs a pipe-backed transport, creating a unique device
// directory under busDir with the two control FIFOs inside it. The pipes
// are opened by Init; the host side opens the same paths from DeviceDir.
func Open(busDir string) (*Transport, error) {
	if err := os.MkdirAll(busDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create bus dir")
	}
	deviceDir := filepath.Join(busDir, "device-"+uuid.NewString())
	if err := os.Mkdir(deviceDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create device dir")
	}
	for _, name := range []string{fifoHostToDevice, fifoDeviceToHost} {
		if err := unix.Mkfifo(filepath.Join(deviceDir, name), 0o666); err != nil {
			os.RemoveAll(deviceDir)
			return nil, errors.Wrapf(err, "mkfifo %s", name)
		}
	}
	return &Transport{deviceDir: deviceDir}, nil
}

// DeviceDir returns the device directory path, or the empty string for a
// stream-backed transport.
func (t *Transport) DeviceDir() string {
	return t.deviceDir
}

// Init opens the control pipes. Opening read-write keeps the open from
// blocking before the host attaches. Init is a no-op for stream-backed
// transports.
func (t *Transport) Init(ctx context.Context) error {
	if t.initDone {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	h2d, err := os.OpenFile(filepath.Join(t.deviceDir, fifoHostToDevice), os.O_RDWR, 0)
	if err != nil {
		return errors.Wrap(err, "open host_to_device")
	}
	d2h, err := os.OpenFile(filepath.Join(t.deviceDir, fifoDeviceToHost), os.O_RDWR, 0)
	if err != nil {
		h2d.Close()
		return errors.Wrap(err, "open device_to_host")
	}

	t.hostToDevice = h2d
	t.deviceToHost = d2h
	t.r = h2d
	t.w = d2h
	t.initDone = true

	pkg.LogInfo(pkg.ComponentTransport, "fifo transport initialized", log.Fields{
		"deviceDir": t.deviceDir,
	})
	return nil
}

// Close releases the pipes and removes the device directory.
func (t *Transport) Close() error {
	if t.hostToDevice != nil {
		t.hostToDevice.Close()
		t.hostToDevice = nil
	}
	if t.deviceToHost != nil {
		t.deviceToHost.Close()
		t.deviceToHost = nil
	}
	if t.deviceDir != "" {
		os.RemoveAll(t.deviceDir)
	}
	t.initDone = false
	return nil
}

// ReadSetup blocks until a SETUP frame arrives. DATA frames received in the
// meantime are buffered for Read; other frame types are skipped.
func (t *Transport) ReadSetup(ctx context.Context, out *hal.SetupPacket) error {
	if !t.initDone {
		return pkg.ErrNotConnected
	}
	for {
		msgType, payload, err := t.readFrame(ctx)
		if err != nil {
			return err
		}
		switch msgType {
		case msgSetup:
			if !hal.ParseSetupPacket(payload, out) {
				return pkg.ErrSetupPacketTooShort
			}
			return nil
		case msgData:
			t.pending = append(t.pending, payload...)
		default:
			pkg.LogWarn(pkg.ComponentTransport, "unexpected message type", log.Fields{
				"type": msgType,
			})
		}
	}
}

// Read returns buffered OUT data, reading DATA frames from the stream when
// the buffer is empty.
func (t *Transport) Read(ctx context.Context, buf []byte) (int, error) {
	if !t.initDone {
		return 0, pkg.ErrNotConnected
	}
	for len(t.pending) == 0 {
		msgType, payload, err := t.readFrame(ctx)
		if err != nil {
			return 0, err
		}
		if msgType != msgData {
			pkg.LogWarn(pkg.ComponentTransport, "expected DATA message", log.Fields{
				"type": msgType,
			})
			continue
		}
		t.pending = append(t.pending, payload...)
	}
	n := copy(buf, t.pending)
	t.pending = t.pending[n:]
	return n, nil
}

// Write sends data to the host as one or more DATA frames.
func (t *Transport) Write(ctx context.Context, data []byte) error {
	if !t.initDone {
		return pkg.ErrNotConnected
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		chunk := data
		if len(chunk) > MaxPayload {
			chunk = chunk[:MaxPayload]
		}
		if err := t.writeFrame(msgData, chunk); err != nil {
			return err
		}
		data = data[len(chunk):]
		if len(data) == 0 {
			return nil
		}
	}
}

// MaxPacketSize returns the endpoint zero packet size. The FIFO link
// simulates a full speed device.
func (t *Transport) MaxPacketSize() uint16 {
	return hal.SpeedFull.MaxPacketSize0()
}

// SetAddress records the address assigned by the host and echoes it back
// over the link.
func (t *Transport) SetAddress(address uint8) error {
	t.address = address
	pkg.LogDebug(pkg.ComponentTransport, "address set", log.Fields{
		"address": address,
	})
	return t.writeFrame(msgAddress, []byte{address})
}

// Address returns the address recorded by SetAddress.
func (t *Transport) Address() uint8 {
	return t.address
}

// Stall rejects the current control transfer.
func (t *Transport) Stall() error {
	if !t.initDone {
		return pkg.ErrNotConnected
	}
	return t.writeFrame(msgStall, nil)
}

// Ack completes a control transfer with a zero-length response.
func (t *Transport) Ack() error {
	if !t.initDone {
		return pkg.ErrNotConnected
	}
	return t.writeFrame(msgAck, nil)
}

// SettingChanged notifies the host side of a committed alternate setting.
// Link errors are logged rather than returned; the setting change itself
// has already committed.
func (t *Transport) SettingChanged(number, alt uint8) {
	if !t.initDone {
		return
	}
	if err := t.writeFrame(msgSetting, []byte{number, alt}); err != nil {
		pkg.LogError(pkg.ComponentTransport, "setting notification failed", log.Fields{
			"interface": number,
			"setting":   alt,
			"error":     err.Error(),
		})
	}
}

// readFrame reads one {type, length, payload} frame. The returned payload
// aliases the internal read buffer and is valid until the next read.
func (t *Transport) readFrame(ctx context.Context) (byte, []byte, error) {
	header := t.readBuf[:headerSize]
	if err := t.readFull(ctx, header); err != nil {
		return 0, nil, err
	}
	length := int(binary.LittleEndian.Uint16(header[1:3]))
	if length > MaxPayload {
		return 0, nil, pkg.ErrBufferTooSmall
	}
	payload := t.readBuf[headerSize : headerSize+length]
	if err := t.readFull(ctx, payload); err != nil {
		return 0, nil, err
	}
	return header[0], payload, nil
}

// readFull fills buf from the stream. Pipe-backed transports poll with a
// short read deadline so cancellation is honored between partial reads.
func (t *Transport) readFull(ctx context.Context, buf []byte) error {
	if t.hostToDevice == nil {
		// Stream backing blocks in the reader; check before, not during.
		if err := ctx.Err(); err != nil {
			return err
		}
		_, err := io.ReadFull(t.r, buf)
		return errors.Wrap(err, "read frame")
	}

	total := 0
	for total < len(buf) {
		if err := ctx.Err(); err != nil {
			return err
		}
		t.hostToDevice.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
		n, err := t.hostToDevice.Read(buf[total:])
		total += n
		if err != nil {
			if os.IsTimeout(err) {
				continue
			}
			return errors.Wrap(err, "read frame")
		}
	}
	return nil
}

// writeFrame sends one {type, length, payload} frame.
func (t *Transport) writeFrame(msgType byte, payload []byte) error {
	if len(payload) > MaxPayload {
		return pkg.ErrBufferTooSmall
	}
	buf := t.writeBuf[:headerSize+len(payload)]
	buf[0] = msgType
	binary.LittleEndian.PutUint16(buf[1:3], uint16(len(payload)))
	copy(buf[headerSize:], payload)
	_, err := t.w.Write(buf)
	return errors.Wrap(err, "write frame")
}

// Compile-time interface check
var _ hal.ControlTransport = (*Transport)(nil)
