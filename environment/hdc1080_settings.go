package environment

import (
	"fmt"
	"io"
	"slices"

	"gopkg.in/yaml.v3"
)

var ErrInvalidSetting = fmt.Errorf("invalid setting")

// OperationMode selects whether temperature and humidity are acquired in
// sequence (one trigger, 4 byte result) or separately.
type OperationMode byte

const (
	ModeTemperatureAndHumidity OperationMode = 0b0
	ModeTemperatureOrHumidity  OperationMode = 0b1
)

var operationModeValues = []OperationMode{ModeTemperatureAndHumidity, ModeTemperatureOrHumidity}
var operationModeNames = []string{"temp-and-hum", "temp-or-hum"}

type TemperatureResolution byte

const (
	TemperatureResolution14Bit TemperatureResolution = 0b0
	TemperatureResolution11Bit TemperatureResolution = 0b1
)

var temperatureResolutionValues = []TemperatureResolution{TemperatureResolution14Bit, TemperatureResolution11Bit}
var temperatureResolutionNames = []string{"14bit", "11bit"}

// HumidityResolution uses a 2 bit field; code 0b11 is reserved.
type HumidityResolution byte

const (
	HumidityResolution14Bit HumidityResolution = 0b00
	HumidityResolution11Bit HumidityResolution = 0b01
	HumidityResolution8Bit  HumidityResolution = 0b10
)

var humidityResolutionValues = []HumidityResolution{HumidityResolution14Bit, HumidityResolution11Bit, HumidityResolution8Bit}
var humidityResolutionNames = []string{"14bit", "11bit", "8bit"}

func (m OperationMode) Valid() bool {
	return slices.Contains(operationModeValues, m)
}

func (m OperationMode) String() string {
	if !m.Valid() {
		return fmt.Sprintf("OperationMode(%d)", byte(m))
	}
	return operationModeNames[m]
}

func (m OperationMode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: operation mode %d", ErrInvalidSetting, byte(m))
	}
	return []byte(m.String()), nil
}

func (m *OperationMode) UnmarshalText(text []byte) error {
	v, err := ParseOperationMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

func ParseOperationMode(s string) (OperationMode, error) {
	i := slices.Index(operationModeNames, s)
	if i < 0 {
		return 0, fmt.Errorf("%w: unknown operation mode %q", ErrInvalidSetting, s)
	}
	return operationModeValues[i], nil
}

func (r TemperatureResolution) Valid() bool {
	return slices.Contains(temperatureResolutionValues, r)
}

func (r TemperatureResolution) String() string {
	if !r.Valid() {
		return fmt.Sprintf("TemperatureResolution(%d)", byte(r))
	}
	return temperatureResolutionNames[r]
}

// Bits returns the conversion width of the ADC.
func (r TemperatureResolution) Bits() int {
	if r == TemperatureResolution11Bit {
		return 11
	}
	return 14
}

func (r TemperatureResolution) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: temperature resolution %d", ErrInvalidSetting, byte(r))
	}
	return []byte(r.String()), nil
}

func (r *TemperatureResolution) UnmarshalText(text []byte) error {
	v, err := ParseTemperatureResolution(string(text))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

func ParseTemperatureResolution(s string) (TemperatureResolution, error) {
	i := slices.Index(temperatureResolutionNames, s)
	if i < 0 {
		return 0, fmt.Errorf("%w: unknown temperature resolution %q", ErrInvalidSetting, s)
	}
	return temperatureResolutionValues[i], nil
}

func (r HumidityResolution) Valid() bool {
	return slices.Contains(humidityResolutionValues, r)
}

func (r HumidityResolution) String() string {
	if !r.Valid() {
		return fmt.Sprintf("HumidityResolution(%d)", byte(r))
	}
	return humidityResolutionNames[r]
}

// Bits returns the conversion width of the ADC.
func (r HumidityResolution) Bits() int {
	switch r {
	case HumidityResolution11Bit:
		return 11
	case HumidityResolution8Bit:
		return 8
	default:
		return 14
	}
}

func (r HumidityResolution) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: humidity resolution %d", ErrInvalidSetting, byte(r))
	}
	return []byte(r.String()), nil
}

func (r *HumidityResolution) UnmarshalText(text []byte) error {
	v, err := ParseHumidityResolution(string(text))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

func ParseHumidityResolution(s string) (HumidityResolution, error) {
	i := slices.Index(humidityResolutionNames, s)
	if i < 0 {
		return 0, fmt.Errorf("%w: unknown humidity resolution %q", ErrInvalidSetting, s)
	}
	return humidityResolutionValues[i], nil
}

// Settings groups the user configurable fields of the configuration register.
type Settings struct {
	OperationMode         OperationMode         `yaml:"operation_mode"`
	TemperatureResolution TemperatureResolution `yaml:"temperature_resolution"`
	HumidityResolution    HumidityResolution    `yaml:"humidity_resolution"`
}

func (s Settings) Validate() error {
	if !s.OperationMode.Valid() {
		return fmt.Errorf("%w: operation mode %d", ErrInvalidSetting, byte(s.OperationMode))
	}
	if !s.TemperatureResolution.Valid() {
		return fmt.Errorf("%w: temperature resolution %d", ErrInvalidSetting, byte(s.TemperatureResolution))
	}
	if !s.HumidityResolution.Valid() {
		return fmt.Errorf("%w: humidity resolution %d", ErrInvalidSetting, byte(s.HumidityResolution))
	}
	return nil
}

// LoadSettings decodes a YAML settings document. Keys missing from the
// document keep the power-on defaults (all zero codes).
func LoadSettings(r io.Reader) (Settings, error) {
	var s Settings
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		if err == io.EOF {
			return s, nil
		}
		return s, fmt.Errorf("could not decode settings: %w", err)
	}
	return s, nil
}
