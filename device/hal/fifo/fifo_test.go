package fifo

import (
	"context"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PhazonicRidley/libhal/device/hal"
)

// frame builds one protocol message.
func frame(msgType byte, payload []byte) []byte {
	buf := make([]byte, headerSize+len(payload))
	buf[0] = msgType
	binary.LittleEndian.PutUint16(buf[1:3], uint16(len(payload)))
	copy(buf[headerSize:], payload)
	return buf
}

// testLink wires a transport to host-side pipe ends.
type testLink struct {
	transport *Transport
	hostW     *io.PipeWriter
	hostR     *io.PipeReader
}

func newTestLink() *testLink {
	devR, hostW := io.Pipe()
	hostR, devW := io.Pipe()
	return &testLink{
		transport: New(devR, devW),
		hostW:     hostW,
		hostR:     hostR,
	}
}

// readFrame reads one message from the device on the host side.
func (l *testLink) readFrame(t *testing.T) (byte, []byte) {
	t.Helper()
	header := make([]byte, headerSize)
	_, err := io.ReadFull(l.hostR, header)
	require.NoError(t, err)
	payload := make([]byte, binary.LittleEndian.Uint16(header[1:3]))
	_, err = io.ReadFull(l.hostR, payload)
	require.NoError(t, err)
	return header[0], payload
}

func TestTransport_ReadSetup(t *testing.T) {
	link := newTestLink()

	setup := hal.SetupPacket{
		RequestType: 0x80,
		Request:     0x06,
		Value:       0x0100,
		Length:      18,
	}
	var raw [hal.SetupPacketSize]byte
	setup.MarshalTo(raw[:])

	go func() {
		link.hostW.Write(frame(msgSetup, raw[:]))
	}()

	var out hal.SetupPacket
	err := link.transport.ReadSetup(context.Background(), &out)
	require.NoError(t, err)
	assert.Equal(t, setup, out)
}

func TestTransport_ReadSetupBuffersData(t *testing.T) {
	link := newTestLink()

	setup := hal.SetupPacket{RequestType: 0x21, Request: 0x09, Length: 4}
	var raw [hal.SetupPacketSize]byte
	setup.MarshalTo(raw[:])

	go func() {
		// OUT data delivered ahead of the SETUP frame stays buffered.
		link.hostW.Write(frame(msgData, []byte{0xDE, 0xAD, 0xBE, 0xEF}))
		link.hostW.Write(frame(msgSetup, raw[:]))
	}()

	var out hal.SetupPacket
	err := link.transport.ReadSetup(context.Background(), &out)
	require.NoError(t, err)
	assert.Equal(t, setup, out)

	buf := make([]byte, 8)
	n, err := link.transport.Read(context.Background(), buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, buf[:n])
}

func TestTransport_Write(t *testing.T) {
	link := newTestLink()

	done := make(chan error, 1)
	go func() {
		done <- link.transport.Write(context.Background(), []byte{1, 2, 3})
	}()

	msgType, payload := link.readFrame(t)
	assert.Equal(t, byte(msgData), msgType)
	assert.Equal(t, []byte{1, 2, 3}, payload)
	require.NoError(t, <-done)
}

func TestTransport_WriteChunks(t *testing.T) {
	link := newTestLink()

	data := make([]byte, MaxPayload+100)
	for i := range data {
		data[i] = byte(i)
	}

	done := make(chan error, 1)
	go func() {
		done <- link.transport.Write(context.Background(), data)
	}()

	_, first := link.readFrame(t)
	assert.Len(t, first, MaxPayload)
	_, second := link.readFrame(t)
	assert.Len(t, second, 100)
	require.NoError(t, <-done)

	assert.Equal(t, data, append(first, second...))
}

func TestTransport_AckStall(t *testing.T) {
	link := newTestLink()

	go func() {
		link.transport.Ack()
		link.transport.Stall()
	}()

	msgType, payload := link.readFrame(t)
	assert.Equal(t, byte(msgAck), msgType)
	assert.Empty(t, payload)

	msgType, payload = link.readFrame(t)
	assert.Equal(t, byte(msgStall), msgType)
	assert.Empty(t, payload)
}

func TestTransport_SetAddress(t *testing.T) {
	link := newTestLink()

	go link.transport.SetAddress(5)

	msgType, payload := link.readFrame(t)
	assert.Equal(t, byte(msgAddress), msgType)
	assert.Equal(t, []byte{5}, payload)
	assert.Equal(t, uint8(5), link.transport.Address())
}

func TestTransport_SettingChanged(t *testing.T) {
	link := newTestLink()

	go link.transport.SettingChanged(1, 2)

	msgType, payload := link.readFrame(t)
	assert.Equal(t, byte(msgSetting), msgType)
	assert.Equal(t, []byte{1, 2}, payload)
}

func TestTransport_MaxPacketSize(t *testing.T) {
	link := newTestLink()
	assert.Equal(t, hal.SpeedFull.MaxPacketSize0(), link.transport.MaxPacketSize())
}

func TestOpen(t *testing.T) {
	busDir := t.TempDir()

	transport, err := Open(busDir)
	require.NoError(t, err)
	defer transport.Close()

	require.NotEmpty(t, transport.DeviceDir())
	for _, name := range []string{fifoHostToDevice, fifoDeviceToHost} {
		info, err := os.Stat(filepath.Join(transport.DeviceDir(), name))
		require.NoError(t, err)
		assert.Equal(t, os.ModeNamedPipe, info.Mode()&os.ModeNamedPipe, name)
	}

	require.NoError(t, transport.Init(context.Background()))

	// Host side delivers a SETUP frame through the filesystem.
	setup := hal.SetupPacket{RequestType: 0x80, Request: 0x06, Value: 0x0100, Length: 8}
	var raw [hal.SetupPacketSize]byte
	setup.MarshalTo(raw[:])

	host, err := os.OpenFile(
		filepath.Join(transport.DeviceDir(), fifoHostToDevice), os.O_WRONLY, 0)
	require.NoError(t, err)
	defer host.Close()
	_, err = host.Write(frame(msgSetup, raw[:]))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var out hal.SetupPacket
	require.NoError(t, transport.ReadSetup(ctx, &out))
	assert.Equal(t, setup, out)

	deviceDir := transport.DeviceDir()
	require.NoError(t, transport.Close())
	_, err = os.Stat(deviceDir)
	assert.True(t, os.IsNotExist(err), "device dir removed on close")
}
