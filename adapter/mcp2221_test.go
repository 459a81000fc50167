package adapter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/hdc1080"
)

type fakeHID struct {
	requests  [][]byte
	responses [][]byte
	closed    int
	writeErr  error
}

func (f *fakeHID) Write(b []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	f.requests = append(f.requests, append([]byte(nil), b...))
	return len(b), nil
}

func (f *fakeHID) Read(b []byte) (int, error) {
	if len(f.responses) == 0 {
		return 0, errors.New("no response queued")
	}
	copy(b, f.responses[0])
	f.responses = f.responses[1:]
	return len(b), nil
}

func (f *fakeHID) Close() error {
	f.closed++
	return nil
}

func report(b ...byte) []byte {
	r := make([]byte, reportSize)
	copy(r, b)
	return r
}

func newTestAdapter(dev *fakeHID) *MCP2221 {
	a := NewMCP2221(WithResponseWait(0))
	a.open = func(int) (hidDevice, error) { return dev, nil }
	return a
}

func TestMCP2221_WriteToAddr(t *testing.T) {
	dev := &fakeHID{responses: [][]byte{report(cmdWriteData, 0x00)}}
	a := newTestAdapter(dev)
	err := a.WriteToAddr(context.Background(), 0x40, []byte{0x02, 0x10, 0x00})
	require.NoError(t, err)
	require.Len(t, dev.requests, 1)
	assert.Equal(t, []byte{0x90, 0x03, 0x00, 0x80, 0x02, 0x10, 0x00}, dev.requests[0][:7])
	assert.Len(t, dev.requests[0], reportSize)
	assert.Equal(t, 1, dev.closed)
}

func TestMCP2221_WriteBusy(t *testing.T) {
	dev := &fakeHID{responses: [][]byte{report(cmdWriteData, statusBusy)}}
	a := newTestAdapter(dev)
	err := a.WriteToAddr(context.Background(), 0x40, []byte{0x00})
	assert.ErrorIs(t, err, hdc1080.ErrBusBusy)
}

func TestMCP2221_ReadFromAddr(t *testing.T) {
	dev := &fakeHID{responses: [][]byte{
		report(cmdReadData, 0x00),
		report(cmdGetI2CData, 0x00, 0x00, 0x02, 0x10, 0x50),
	}}
	a := newTestAdapter(dev)
	buf := make([]byte, 2)
	err := a.ReadFromAddr(context.Background(), 0x40, buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x10, 0x50}, buf)
	require.Len(t, dev.requests, 2)
	assert.Equal(t, []byte{0x91, 0x02, 0x00, 0x81}, dev.requests[0][:4])
	assert.Equal(t, byte(0x40), dev.requests[1][0])
}

func TestMCP2221_NoStopWriteThenRestartRead(t *testing.T) {
	dev := &fakeHID{responses: [][]byte{
		report(cmdWriteDataNoStop, 0x00),
		report(cmdReadDataRestart, 0x00),
		report(cmdGetI2CData, 0x00, 0x00, 0x02, 0x10, 0x50),
		report(cmdReadData, 0x00),
		report(cmdGetI2CData, 0x00, 0x00, 0x02, 0x00, 0x00),
	}}
	a := newTestAdapter(dev)
	ctx := context.Background()
	require.NoError(t, a.WriteToAddrNoStop(ctx, 0x40, []byte{0xFF}))
	require.NoError(t, a.ReadFromAddr(ctx, 0x40, make([]byte, 2)))
	require.NoError(t, a.ReadFromAddr(ctx, 0x40, make([]byte, 2)))
	require.Len(t, dev.requests, 5)
	assert.Equal(t, []byte{0x94, 0x01, 0x00, 0x80, 0xFF}, dev.requests[0][:5])
	assert.Equal(t, byte(0x93), dev.requests[1][0])
	assert.Equal(t, byte(0x91), dev.requests[3][0], "restart applies to a single read")
}

func TestMCP2221_ReadErrors(t *testing.T) {
	ctx := context.Background()
	t.Run("engine error", func(t *testing.T) {
		dev := &fakeHID{responses: [][]byte{report(cmdReadData, 0x00), report(cmdGetI2CData, readEngineError)}}
		err := newTestAdapter(dev).ReadFromAddr(ctx, 0x40, make([]byte, 2))
		assert.ErrorIs(t, err, ErrCommandFailed)
	})
	t.Run("size mismatch", func(t *testing.T) {
		dev := &fakeHID{responses: [][]byte{report(cmdReadData, 0x00), report(cmdGetI2CData, 0x00, 0x00, 0x04)}}
		err := newTestAdapter(dev).ReadFromAddr(ctx, 0x40, make([]byte, 2))
		assert.ErrorContains(t, err, "expected 2, got 4")
	})
	t.Run("device write", func(t *testing.T) {
		dev := &fakeHID{writeErr: errors.New("usb gone")}
		err := newTestAdapter(dev).ReadFromAddr(ctx, 0x40, make([]byte, 2))
		assert.ErrorContains(t, err, "usb gone")
	})
	t.Run("no device", func(t *testing.T) {
		a := NewMCP2221(WithResponseWait(0))
		a.open = func(int) (hidDevice, error) { return nil, ErrDeviceNotFound }
		err := a.ReadFromAddr(ctx, 0x40, make([]byte, 2))
		assert.ErrorIs(t, err, ErrDeviceNotFound)
	})
	t.Run("oversized buffer", func(t *testing.T) {
		err := newTestAdapter(&fakeHID{}).ReadFromAddr(ctx, 0x40, make([]byte, reportSize))
		assert.Error(t, err)
	})
}

func TestMCP2221_ReleaseBus(t *testing.T) {
	resp := report(cmdStatus, 0x00)
	resp[9], resp[10] = 0x03, 0x00
	resp[11], resp[12] = 0x02, 0x00
	resp[13] = 1
	resp[14] = 0x76
	resp[15] = 0x10
	resp[16], resp[17] = 0x80, 0x00
	resp[25] = 1
	dev := &fakeHID{responses: [][]byte{resp}}
	a := newTestAdapter(dev)
	a.restart = true
	status, err := a.ReleaseBus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []byte{0x10, 0x00, 0x10}, dev.requests[0][:3])
	assert.False(t, a.restart)
	assert.Equal(t, &MCP2221Status{
		I2CDataBufferCounter:   1,
		I2CSpeedDivider:        0x76,
		I2CTimeout:             0x10,
		CurrentAddress:         "8000",
		LastWriteRequestedSize: 3,
		LastWriteSentSize:      2,
		ReadPending:            1,
	}, status)
}
