// Package register implements bit-field access to device registers over I2C.
//
// A Field describes a group of bits inside a 1 or 2 byte register. Reads fetch
// the whole register and extract the bits; writes perform read-modify-write so
// that neighbouring fields keep their current values.
package register

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/mklimuk/hdc1080"
)

var ErrValueOverflow = fmt.Errorf("value does not fit in field")

type Field struct {
	// Register is the register pointer written before every access.
	Register byte
	// Size of the register in bytes (1 or 2).
	Size int
	// Width of the field in bits.
	Width uint
	// Offset of the least significant bit of the field.
	Offset uint
	// Order of the register bytes on the wire. Defaults to big endian.
	Order  binary.ByteOrder
	Signed bool
}

func (f Field) mask() uint16 {
	return uint16((1<<f.Width)-1) << f.Offset
}

func (f Field) order() binary.ByteOrder {
	if f.Order == nil {
		return binary.BigEndian
	}
	return f.Order
}

// Read returns the unsigned value of the field.
func (f Field) Read(ctx context.Context, bus hdc1080.I2CBus, addr byte) (uint16, error) {
	reg, err := f.readRegister(ctx, bus, addr)
	if err != nil {
		return 0, err
	}
	return (reg & f.mask()) >> f.Offset, nil
}

// ReadSigned returns the field value sign-extended from Width bits when the
// field is signed. Unsigned fields are returned as is.
func (f Field) ReadSigned(ctx context.Context, bus hdc1080.I2CBus, addr byte) (int16, error) {
	val, err := f.Read(ctx, bus, addr)
	if err != nil {
		return 0, err
	}
	if !f.Signed || f.Width == 0 || f.Width >= 16 {
		return int16(val), nil
	}
	shift := 16 - f.Width
	return int16(val<<shift) >> shift, nil
}

// Write replaces the field bits with value and writes the whole register back.
func (f Field) Write(ctx context.Context, bus hdc1080.I2CBus, addr byte, value uint16) error {
	if f.Width < 16 && value>>f.Width != 0 {
		return fmt.Errorf("%w: %#x is wider than %d bits", ErrValueOverflow, value, f.Width)
	}
	reg, err := f.readRegister(ctx, bus, addr)
	if err != nil {
		return err
	}
	reg &^= f.mask()
	reg |= value << f.Offset
	out := make([]byte, 1+f.size())
	out[0] = f.Register
	f.encode(out[1:], reg)
	return hdc1080.NewBusError("write", addr, bus.WriteToAddr(ctx, addr, out))
}

func (f Field) size() int {
	if f.Size == 1 {
		return 1
	}
	return 2
}

func (f Field) readRegister(ctx context.Context, bus hdc1080.I2CBus, addr byte) (uint16, error) {
	err := bus.WriteToAddrNoStop(ctx, addr, []byte{f.Register})
	if err != nil {
		return 0, hdc1080.NewBusError("write", addr, err)
	}
	buf := make([]byte, f.size())
	err = bus.ReadFromAddr(ctx, addr, buf)
	if err != nil {
		return 0, hdc1080.NewBusError("read", addr, err)
	}
	return f.decode(buf), nil
}

func (f Field) decode(buf []byte) uint16 {
	if len(buf) == 1 {
		return uint16(buf[0])
	}
	return f.order().Uint16(buf)
}

func (f Field) encode(buf []byte, reg uint16) {
	if len(buf) == 1 {
		buf[0] = byte(reg)
		return
	}
	f.order().PutUint16(buf, reg)
}
