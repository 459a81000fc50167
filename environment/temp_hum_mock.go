package environment

import (
	"context"
	"math"
	"time"
)

// TemperatureBehaviorFunc returns a temperature in Celsius.
type TemperatureBehaviorFunc func(ctx context.Context) (float32, error)

// HumidityBehaviorFunc returns a relative humidity in %RH.
type HumidityBehaviorFunc func(ctx context.Context) (float32, error)

// TemperatureHumiditySensor is the reading interface shared by HDC1080 and its mock.
type TemperatureHumiditySensor interface {
	GetTemperature(ctx context.Context) (float32, error)
	GetHumidity(ctx context.Context) (float32, error)
	GetTempAndHum(ctx context.Context) (float32, float32, error)
}

var _ TemperatureHumiditySensor = &HDC1080{}
var _ TemperatureHumiditySensor = &MockHDC1080{}

// MockHDC1080 produces readings from behavior functions instead of a bus.
type MockHDC1080 struct {
	tempBehavior TemperatureBehaviorFunc
	humBehavior  HumidityBehaviorFunc
}

func NewMockHDC1080(tempBehavior TemperatureBehaviorFunc, humBehavior HumidityBehaviorFunc) *MockHDC1080 {
	return &MockHDC1080{
		tempBehavior: tempBehavior,
		humBehavior:  humBehavior,
	}
}

// NewSimulatedHDC1080 returns a mock whose readings oscillate around
// 21.5°C / 45%RH with the given period. Humidity moves against temperature.
func NewSimulatedHDC1080(period time.Duration, now func() time.Time) *MockHDC1080 {
	start := now()
	phase := func() float64 {
		return 2 * math.Pi * float64(now().Sub(start)) / float64(period)
	}
	return NewMockHDC1080(
		func(ctx context.Context) (float32, error) {
			return float32(21.5 + 3*math.Sin(phase())), nil
		},
		func(ctx context.Context) (float32, error) {
			return float32(45 - 10*math.Sin(phase())), nil
		},
	)
}

func (m *MockHDC1080) GetTemperature(ctx context.Context) (float32, error) {
	return m.tempBehavior(ctx)
}

func (m *MockHDC1080) GetHumidity(ctx context.Context) (float32, error) {
	return m.humBehavior(ctx)
}

// GetTempAndHum calls the temperature behavior first and stops at its error.
func (m *MockHDC1080) GetTempAndHum(ctx context.Context) (float32, float32, error) {
	temp, err := m.tempBehavior(ctx)
	if err != nil {
		return 0, 0, err
	}
	hum, err := m.humBehavior(ctx)
	if err != nil {
		return 0, 0, err
	}
	return temp, hum, nil
}
