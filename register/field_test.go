package register

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/hdc1080"
)

type registerBus struct {
	regs     map[byte]uint16
	pointer  byte
	noStop   int
	writes   [][]byte
	readErr  error
	writeErr error
}

func newRegisterBus(regs map[byte]uint16) *registerBus {
	return &registerBus{regs: regs}
}

func (b *registerBus) WriteToAddrNoStop(ctx context.Context, address byte, buffer []byte) error {
	b.noStop++
	b.pointer = buffer[0]
	return nil
}

func (b *registerBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	if b.writeErr != nil {
		return b.writeErr
	}
	b.writes = append(b.writes, append([]byte(nil), buffer...))
	b.pointer = buffer[0]
	switch len(buffer) {
	case 2:
		b.regs[buffer[0]] = uint16(buffer[1])
	case 3:
		b.regs[buffer[0]] = binary.BigEndian.Uint16(buffer[1:])
	}
	return nil
}

func (b *registerBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	if b.readErr != nil {
		return b.readErr
	}
	val := b.regs[b.pointer]
	if len(buffer) == 1 {
		buffer[0] = byte(val)
		return nil
	}
	binary.BigEndian.PutUint16(buffer, val)
	return nil
}

func (b *registerBus) Release(ctx context.Context) error {
	return nil
}

var _ hdc1080.I2CBus = &registerBus{}

func TestField_Read(t *testing.T) {
	tests := []struct {
		field    Field
		reg      uint16
		expected uint16
	}{
		{Field{Register: 0x02, Width: 1, Offset: 15}, 0x8000, 1},
		{Field{Register: 0x02, Width: 1, Offset: 12}, 0x1000, 1},
		{Field{Register: 0x02, Width: 1, Offset: 12}, 0xEFFF, 0},
		{Field{Register: 0x02, Width: 2, Offset: 8}, 0x0300, 3},
		{Field{Register: 0x02, Width: 2, Offset: 8}, 0x0200, 2},
		{Field{Register: 0x02, Width: 16}, 0x1050, 0x1050},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%d@%d/%#04x", test.field.Width, test.field.Offset, test.reg), func(t *testing.T) {
			bus := newRegisterBus(map[byte]uint16{0x02: test.reg})
			val, err := test.field.Read(context.Background(), bus, 0x40)
			require.NoError(t, err)
			assert.Equal(t, test.expected, val)
			assert.Equal(t, 1, bus.noStop)
		})
	}
}

func TestField_ReadLittleEndian(t *testing.T) {
	bus := newRegisterBus(map[byte]uint16{0x10: 0x3412})
	f := Field{Register: 0x10, Width: 16, Order: binary.LittleEndian}
	val, err := f.Read(context.Background(), bus, 0x40)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), val)
}

func TestField_ReadSingleByte(t *testing.T) {
	bus := newRegisterBus(map[byte]uint16{0x01: 0x00A5})
	f := Field{Register: 0x01, Size: 1, Width: 4, Offset: 4}
	val, err := f.Read(context.Background(), bus, 0x40)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x0A), val)
}

func TestField_ReadSigned(t *testing.T) {
	bus := newRegisterBus(map[byte]uint16{0x05: 0x0E00})
	f := Field{Register: 0x05, Width: 4, Offset: 8, Signed: true}
	val, err := f.ReadSigned(context.Background(), bus, 0x40)
	require.NoError(t, err)
	assert.Equal(t, int16(-2), val)

	f.Signed = false
	val, err = f.ReadSigned(context.Background(), bus, 0x40)
	require.NoError(t, err)
	assert.Equal(t, int16(14), val)
}

func TestField_WritePreservesOtherBits(t *testing.T) {
	tests := []struct {
		name     string
		field    Field
		initial  uint16
		value    uint16
		expected uint16
	}{
		{"set mode", Field{Register: 0x02, Width: 1, Offset: 12}, 0x8500, 1, 0x9500},
		{"clear mode", Field{Register: 0x02, Width: 1, Offset: 12}, 0xFFFF, 0, 0xEFFF},
		{"humidity 8bit", Field{Register: 0x02, Width: 2, Offset: 8}, 0x1500, 2, 0x1600},
		{"humidity 14bit", Field{Register: 0x02, Width: 2, Offset: 8}, 0xFFFF, 0, 0xFCFF},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			bus := newRegisterBus(map[byte]uint16{0x02: test.initial})
			err := test.field.Write(context.Background(), bus, 0x40, test.value)
			require.NoError(t, err)
			assert.Equal(t, test.expected, bus.regs[0x02])
			require.Len(t, bus.writes, 1)
			assert.Equal(t, []byte{0x02, byte(test.expected >> 8), byte(test.expected)}, bus.writes[0])

			val, err := test.field.Read(context.Background(), bus, 0x40)
			require.NoError(t, err)
			assert.Equal(t, test.value, val)
		})
	}
}

func TestField_WriteOverflow(t *testing.T) {
	bus := newRegisterBus(map[byte]uint16{0x02: 0x1000})
	f := Field{Register: 0x02, Width: 1, Offset: 12}
	err := f.Write(context.Background(), bus, 0x40, 2)
	assert.ErrorIs(t, err, ErrValueOverflow)
	assert.Empty(t, bus.writes)
	assert.Equal(t, 0, bus.noStop)
	assert.Equal(t, uint16(0x1000), bus.regs[0x02])
}

func TestField_BusErrors(t *testing.T) {
	failure := errors.New("nack")
	f := Field{Register: 0x02, Width: 1, Offset: 12}

	bus := newRegisterBus(map[byte]uint16{})
	bus.readErr = failure
	_, err := f.Read(context.Background(), bus, 0x40)
	var busErr *hdc1080.BusError
	require.ErrorAs(t, err, &busErr)
	assert.Equal(t, "read", busErr.Op)
	assert.Equal(t, byte(0x40), busErr.Addr)
	assert.ErrorIs(t, err, failure)

	bus = newRegisterBus(map[byte]uint16{})
	bus.writeErr = failure
	err = f.Write(context.Background(), bus, 0x41, 1)
	require.ErrorAs(t, err, &busErr)
	assert.Equal(t, "write", busErr.Op)
	assert.Equal(t, byte(0x41), busErr.Addr)
}
