package environment

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/hdc1080"
	"github.com/mklimuk/hdc1080/register"
)

// HDC1080 default 7-bit I2C address. The address is fixed in silicon.
const HDC1080DefaultAddress = 0x40

const hdc1080DeviceID = 0x1050

// Register map
const (
	hdc1080RegData        byte = 0x00
	hdc1080RegTemperature byte = 0x00
	hdc1080RegHumidity    byte = 0x01
	hdc1080RegConfig      byte = 0x02
	hdc1080RegDeviceID    byte = 0xFF
)

var ErrDeviceNotFound = fmt.Errorf("hdc1080: device not found")

// Configuration register layout (bit 15 is the MSB of the big endian word).
var (
	hdc1080DeviceIDField       = register.Field{Register: hdc1080RegDeviceID, Width: 16}
	hdc1080ResetField          = register.Field{Register: hdc1080RegConfig, Width: 1, Offset: 15}
	hdc1080ModeField           = register.Field{Register: hdc1080RegConfig, Width: 1, Offset: 12}
	hdc1080TempResolutionField = register.Field{Register: hdc1080RegConfig, Width: 1, Offset: 10}
	hdc1080HumResolutionField  = register.Field{Register: hdc1080RegConfig, Width: 2, Offset: 8}
)

type HDC1080Opts struct {
	Address         byte
	ConversionDelay time.Duration
	ResetDelay      time.Duration
}

type HDC1080Opt func(*HDC1080Opts)

func WithAddress(address byte) HDC1080Opt {
	return func(o *HDC1080Opts) {
		o.Address = address
	}
}

func WithConversionDelay(delay time.Duration) HDC1080Opt {
	return func(o *HDC1080Opts) {
		o.ConversionDelay = delay
	}
}

func WithResetDelay(delay time.Duration) HDC1080Opt {
	return func(o *HDC1080Opts) {
		o.ResetDelay = delay
	}
}

// HDC1080 represents Texas Instruments HDC1080 Low Power, High Accuracy Digital
// Humidity Sensor with Temperature Sensor.
// See: https://www.ti.com/lit/ds/symlink/hdc1080.pdf
//
// Typical usage:
//
//	s, err := NewHDC1080(ctx, bus)
//	t, h, err := s.GetTempAndHum(ctx)
//
// The driver keeps no register state; every getter issues a bus transaction.
// It is not safe for concurrent use, callers sharing a bus must serialize access.
type HDC1080 struct {
	transport hdc1080.I2CBus
	config    HDC1080Opts
}

// NewHDC1080 verifies the device identification register and returns a driver
// bound to the given bus. ErrDeviceNotFound is returned when the register does
// not hold the HDC1080 device ID.
func NewHDC1080(ctx context.Context, trans hdc1080.I2CBus, opts ...HDC1080Opt) (*HDC1080, error) {
	config := HDC1080Opts{
		Address:         HDC1080DefaultAddress,
		ConversionDelay: 30 * time.Millisecond,
		ResetDelay:      500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(&config)
	}
	s := &HDC1080{transport: trans, config: config}
	id, err := hdc1080DeviceIDField.Read(ctx, trans, config.Address)
	if err != nil {
		return nil, err
	}
	if id != hdc1080DeviceID {
		return nil, fmt.Errorf("%w: unexpected device id %#04x at %#x", ErrDeviceNotFound, id, config.Address)
	}
	return s, nil
}

func (s *HDC1080) Address() byte {
	return s.config.Address
}

func (s *HDC1080) OperationMode(ctx context.Context) (OperationMode, error) {
	code, err := hdc1080ModeField.Read(ctx, s.transport, s.config.Address)
	if err != nil {
		return 0, err
	}
	return operationModeValues[code], nil
}

func (s *HDC1080) SetOperationMode(ctx context.Context, mode OperationMode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: operation mode %d", ErrInvalidSetting, byte(mode))
	}
	return hdc1080ModeField.Write(ctx, s.transport, s.config.Address, uint16(mode))
}

func (s *HDC1080) TemperatureResolution(ctx context.Context) (TemperatureResolution, error) {
	code, err := hdc1080TempResolutionField.Read(ctx, s.transport, s.config.Address)
	if err != nil {
		return 0, err
	}
	return temperatureResolutionValues[code], nil
}

func (s *HDC1080) SetTemperatureResolution(ctx context.Context, res TemperatureResolution) error {
	if !res.Valid() {
		return fmt.Errorf("%w: temperature resolution %d", ErrInvalidSetting, byte(res))
	}
	return hdc1080TempResolutionField.Write(ctx, s.transport, s.config.Address, uint16(res))
}

func (s *HDC1080) HumidityResolution(ctx context.Context) (HumidityResolution, error) {
	code, err := hdc1080HumResolutionField.Read(ctx, s.transport, s.config.Address)
	if err != nil {
		return 0, err
	}
	if int(code) >= len(humidityResolutionValues) {
		return 0, fmt.Errorf("%w: reserved humidity resolution code %#b", ErrInvalidSetting, code)
	}
	return humidityResolutionValues[code], nil
}

func (s *HDC1080) SetHumidityResolution(ctx context.Context, res HumidityResolution) error {
	if !res.Valid() {
		return fmt.Errorf("%w: humidity resolution %d", ErrInvalidSetting, byte(res))
	}
	return hdc1080HumResolutionField.Write(ctx, s.transport, s.config.Address, uint16(res))
}

// Settings reads all configurable fields.
func (s *HDC1080) Settings(ctx context.Context) (Settings, error) {
	var res Settings
	var err error
	if res.OperationMode, err = s.OperationMode(ctx); err != nil {
		return res, err
	}
	if res.TemperatureResolution, err = s.TemperatureResolution(ctx); err != nil {
		return res, err
	}
	if res.HumidityResolution, err = s.HumidityResolution(ctx); err != nil {
		return res, err
	}
	return res, nil
}

// Apply validates all settings before writing any of them.
func (s *HDC1080) Apply(ctx context.Context, settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	if err := s.SetOperationMode(ctx, settings.OperationMode); err != nil {
		return fmt.Errorf("hdc1080: could not set operation mode: %w", err)
	}
	if err := s.SetTemperatureResolution(ctx, settings.TemperatureResolution); err != nil {
		return fmt.Errorf("hdc1080: could not set temperature resolution: %w", err)
	}
	if err := s.SetHumidityResolution(ctx, settings.HumidityResolution); err != nil {
		return fmt.Errorf("hdc1080: could not set humidity resolution: %w", err)
	}
	return nil
}

// Reset sets the software reset bit and waits for the device to settle.
// Completion is not verified.
func (s *HDC1080) Reset(ctx context.Context) error {
	err := hdc1080ResetField.Write(ctx, s.transport, s.config.Address, 1)
	if err != nil {
		return err
	}
	slog.Debug("hdc1080 reset requested", "addr", s.config.Address, "settle", s.config.ResetDelay)
	time.Sleep(s.config.ResetDelay)
	return nil
}

// GetTemperature performs a single temperature conversion and returns the
// result in Celsius.
//
// Side effect: the operation mode is switched to temperature-and-humidity
// before the conversion when needed and is always left at
// temperature-or-humidity afterwards, whatever it was before the call. Use
// GetTemperaturePreservingMode to keep the previous mode.
func (s *HDC1080) GetTemperature(ctx context.Context) (float32, error) {
	raw, err := s.singleRead(ctx, hdc1080RegTemperature, false)
	if err != nil {
		return 0, err
	}
	return convertTemperature(raw), nil
}

// GetHumidity performs a single humidity conversion and returns relative
// humidity in %RH. It has the same operation mode side effect as
// GetTemperature.
func (s *HDC1080) GetHumidity(ctx context.Context) (float32, error) {
	raw, err := s.singleRead(ctx, hdc1080RegHumidity, false)
	if err != nil {
		return 0, err
	}
	return convertHumidity(raw), nil
}

// GetTemperaturePreservingMode is GetTemperature restoring the operation mode
// that was active before the call.
func (s *HDC1080) GetTemperaturePreservingMode(ctx context.Context) (float32, error) {
	raw, err := s.singleRead(ctx, hdc1080RegTemperature, true)
	if err != nil {
		return 0, err
	}
	return convertTemperature(raw), nil
}

// GetHumidityPreservingMode is GetHumidity restoring the operation mode that
// was active before the call.
func (s *HDC1080) GetHumidityPreservingMode(ctx context.Context) (float32, error) {
	raw, err := s.singleRead(ctx, hdc1080RegHumidity, true)
	if err != nil {
		return 0, err
	}
	return convertHumidity(raw), nil
}

// GetTempAndHum triggers a combined conversion and returns temperature in
// Celsius and relative humidity in %RH. The configuration register is not
// touched.
func (s *HDC1080) GetTempAndHum(ctx context.Context) (float32, float32, error) {
	resp, err := s.trigger(ctx, hdc1080RegData, true, 4)
	if err != nil {
		return 0, 0, err
	}
	return convertTemperature(resp[0:2]), convertHumidity(resp[2:4]), nil
}

// Sense performs a combined conversion and stores the result in env using
// periph units. Pressure is always zero.
func (s *HDC1080) Sense(ctx context.Context, env *physic.Env) error {
	env.Temperature = 0
	env.Pressure = 0
	env.Humidity = 0
	temp, hum, err := s.GetTempAndHum(ctx)
	if err != nil {
		return err
	}
	env.Temperature = physic.ZeroCelsius + physic.Temperature(float64(temp)*float64(physic.Celsius))
	env.Humidity = physic.RelativeHumidity(float64(hum) * float64(physic.PercentRH))
	return nil
}

// Precision stores the smallest measurable step for the configured
// resolutions in env.
func (s *HDC1080) Precision(ctx context.Context, env *physic.Env) error {
	tres, err := s.TemperatureResolution(ctx)
	if err != nil {
		return err
	}
	hres, err := s.HumidityResolution(ctx)
	if err != nil {
		return err
	}
	env.Temperature = physic.Temperature(165.0 / float64(int(1)<<tres.Bits()) * float64(physic.Celsius))
	env.Humidity = physic.RelativeHumidity(100.0 / float64(int(1)<<hres.Bits()) * float64(physic.PercentRH))
	env.Pressure = 0
	return nil
}

func (s *HDC1080) singleRead(ctx context.Context, pointer byte, preserve bool) ([]byte, error) {
	mode, err := s.OperationMode(ctx)
	if err != nil {
		return nil, err
	}
	if mode == ModeTemperatureOrHumidity {
		slog.Debug("hdc1080 switching operation mode for single read", "from", mode, "to", ModeTemperatureAndHumidity)
		if err := s.SetOperationMode(ctx, ModeTemperatureAndHumidity); err != nil {
			return nil, err
		}
	}
	resp, err := s.trigger(ctx, pointer, false, 2)
	if err != nil {
		return nil, err
	}
	restore := ModeTemperatureOrHumidity
	if preserve {
		restore = mode
	}
	if err := s.SetOperationMode(ctx, restore); err != nil {
		return nil, err
	}
	return resp, nil
}

// trigger writes the measurement pointer, waits for the conversion and reads
// the result.
func (s *HDC1080) trigger(ctx context.Context, pointer byte, stop bool, size int) ([]byte, error) {
	var err error
	if stop {
		err = s.transport.WriteToAddr(ctx, s.config.Address, []byte{pointer})
	} else {
		err = s.transport.WriteToAddrNoStop(ctx, s.config.Address, []byte{pointer})
	}
	if err != nil {
		return nil, hdc1080.NewBusError("write", s.config.Address, err)
	}
	time.Sleep(s.config.ConversionDelay)
	resp := make([]byte, size)
	err = s.transport.ReadFromAddr(ctx, s.config.Address, resp)
	if err != nil {
		return nil, hdc1080.NewBusError("read", s.config.Address, err)
	}
	return resp, nil
}

func convertTemperature(resp []byte) float32 {
	return float32(binary.BigEndian.Uint16(resp))/65536*165 - 40
}

func convertHumidity(resp []byte) float32 {
	return float32(binary.BigEndian.Uint16(resp)) / 65536 * 100
}
