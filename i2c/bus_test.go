package i2c

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gobot.io/x/gobot/v2/drivers/i2c"
	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/physic"
)

func TestGenericBus_Playback(t *testing.T) {
	pb := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x40, W: []byte{0xFF}},
			{Addr: 0x40, R: []byte{0x10, 0x50}},
			{Addr: 0x40, W: []byte{0x02, 0x10, 0x00}},
		},
		DontPanic: true,
	}
	bus := NewGenericBusFrom(pb)
	ctx := context.Background()

	require.NoError(t, bus.WriteToAddrNoStop(ctx, 0x40, []byte{0xFF}))
	buf := make([]byte, 2)
	require.NoError(t, bus.ReadFromAddr(ctx, 0x40, buf))
	assert.Equal(t, []byte{0x10, 0x50}, buf)
	require.NoError(t, bus.WriteToAddr(ctx, 0x40, []byte{0x02, 0x10, 0x00}))
	require.NoError(t, bus.SetSpeed(400*physic.KiloHertz))
	require.NoError(t, bus.Release(ctx))
	assert.NoError(t, bus.Close())
}

func TestGenericBus_UnexpectedTransaction(t *testing.T) {
	pb := &i2ctest.Playback{
		Ops:       []i2ctest.IO{{Addr: 0x40, W: []byte{0x00}}},
		DontPanic: true,
	}
	bus := NewGenericBusFrom(pb)
	err := bus.WriteToAddr(context.Background(), 0x41, []byte{0x01})
	assert.ErrorContains(t, err, "could not write to i2c bus 41")
}

type fakeConnection struct {
	i2c.Connection
	read    []byte
	written [][]byte
	closed  bool
	err     error
}

func (c *fakeConnection) Read(b []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	return copy(b, c.read), nil
}

func (c *fakeConnection) Write(b []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	c.written = append(c.written, append([]byte(nil), b...))
	return len(b), nil
}

func (c *fakeConnection) Close() error {
	c.closed = true
	return nil
}

type fakeConnector struct {
	conns  map[int]*fakeConnection
	opened []int
	busNr  int
}

func (f *fakeConnector) GetI2cConnection(address int, busNr int) (i2c.Connection, error) {
	f.opened = append(f.opened, address)
	f.busNr = busNr
	conn, ok := f.conns[address]
	if !ok {
		return nil, errors.New("no device")
	}
	return conn, nil
}

func (f *fakeConnector) DefaultI2cBus() int {
	return 0
}

func TestGobotBus(t *testing.T) {
	conn := &fakeConnection{read: []byte{0x10, 0x50}}
	connector := &fakeConnector{conns: map[int]*fakeConnection{0x40: conn}}
	bus := NewGobotBus(connector, 1)
	ctx := context.Background()

	require.NoError(t, bus.WriteToAddrNoStop(ctx, 0x40, []byte{0xFF}))
	buf := make([]byte, 2)
	require.NoError(t, bus.ReadFromAddr(ctx, 0x40, buf))
	assert.Equal(t, []byte{0x10, 0x50}, buf)
	assert.Equal(t, [][]byte{{0xFF}}, conn.written)
	assert.Equal(t, []int{0x40}, connector.opened, "connection is reused")
	assert.Equal(t, 1, connector.busNr)

	require.NoError(t, bus.Close())
	assert.True(t, conn.closed)
}

func TestGobotBus_Errors(t *testing.T) {
	ctx := context.Background()
	conn := &fakeConnection{read: []byte{0x10}}
	bus := NewGobotBus(&fakeConnector{conns: map[int]*fakeConnection{0x40: conn}}, 0)

	err := bus.ReadFromAddr(ctx, 0x41, make([]byte, 2))
	assert.ErrorContains(t, err, "could not open i2c connection")

	err = bus.ReadFromAddr(ctx, 0x40, make([]byte, 2))
	assert.ErrorContains(t, err, "short read")

	conn.err = errors.New("nack")
	err = bus.WriteToAddr(ctx, 0x40, []byte{0x00})
	assert.ErrorContains(t, err, "nack")
}
