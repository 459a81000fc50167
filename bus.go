package hdc1080

import (
	"context"
	"fmt"
)

var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

// RepeatedStartWriter writes to a device without terminating the transaction
// with a stop condition, so the following read is issued as a repeated start.
type RepeatedStartWriter interface {
	WriteToAddrNoStop(ctx context.Context, address byte, buffer []byte) error
}

type I2CBus interface {
	AddressableReader
	AddressableWriter
	RepeatedStartWriter
}

// BusError wraps a failed transport operation.
type BusError struct {
	Op   string
	Addr byte
	Err  error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("i2c %s at %#x: %v", e.Op, e.Addr, e.Err)
}

func (e *BusError) Unwrap() error {
	return e.Err
}

// NewBusError returns nil when err is nil so it can wrap transport calls inline.
func NewBusError(op string, addr byte, err error) error {
	if err == nil {
		return nil
	}
	return &BusError{Op: op, Addr: addr, Err: err}
}
