// Package exporter publishes HDC1080 readings as Prometheus metrics.
package exporter

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hdc1080"

type Sensor interface {
	GetTempAndHum(ctx context.Context) (float32, float32, error)
}

type Opts struct {
	MaxAge      time.Duration
	ReadTimeout time.Duration
	Now         func() time.Time
}

type Opt func(*Opts)

// WithMaxAge sets how long a reading is served before the sensor is read again.
func WithMaxAge(maxAge time.Duration) Opt {
	return func(o *Opts) {
		o.MaxAge = maxAge
	}
}

func WithReadTimeout(timeout time.Duration) Opt {
	return func(o *Opts) {
		o.ReadTimeout = timeout
	}
}

func WithClock(now func() time.Time) Opt {
	return func(o *Opts) {
		o.Now = now
	}
}

// Exporter caches the last sensor reading. Gauges are evaluated on scrape
// and trigger a refresh when the cached reading is older than MaxAge.
type Exporter struct {
	mx          sync.Mutex
	sensor      Sensor
	maxAge      time.Duration
	readTimeout time.Duration
	now         func() time.Time
	refreshed   time.Time
	temperature float64
	humidity    float64

	readErrors       prometheus.Counter
	temperatureGauge prometheus.GaugeFunc
	humidityGauge    prometheus.GaugeFunc
}

func New(sensor Sensor, opts ...Opt) *Exporter {
	o := Opts{
		MaxAge:      time.Second,
		ReadTimeout: 5 * time.Second,
		Now:         time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Exporter{
		sensor:      sensor,
		maxAge:      o.MaxAge,
		readTimeout: o.ReadTimeout,
		now:         o.Now,
		temperature: math.NaN(),
		humidity:    math.NaN(),
		readErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "read_errors_total",
			Help:      "Number of failed sensor reads.",
		}),
	}
}

// Register adds the exporter metrics to reg. It panics on duplicate registration.
func (e *Exporter) Register(reg prometheus.Registerer) {
	reg.MustRegister(e.readErrors)
	factory := promauto.With(reg)
	e.temperatureGauge = factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "temperature_celsius",
		Help:      "Ambient temperature in degrees Celsius.",
	}, func() float64 {
		temp, _ := e.Reading()
		return round(temp, 2)
	})
	e.humidityGauge = factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "humidity_percent",
		Help:      "Relative humidity in percent.",
	}, func() float64 {
		_, hum := e.Reading()
		return round(hum, 2)
	})
}

// Reading returns the cached values, refreshing them first when stale.
// A failed refresh keeps the previous values (NaN before the first success).
func (e *Exporter) Reading() (float64, float64) {
	e.mx.Lock()
	defer e.mx.Unlock()
	if !e.refreshed.IsZero() && e.now().Sub(e.refreshed) < e.maxAge {
		return e.temperature, e.humidity
	}
	ctx, cancel := context.WithTimeout(context.Background(), e.readTimeout)
	defer cancel()
	if err := e.refresh(ctx); err != nil {
		slog.Warn("could not read sensor", "error", err)
	}
	return e.temperature, e.humidity
}

func (e *Exporter) refresh(ctx context.Context) error {
	temp, hum, err := e.sensor.GetTempAndHum(ctx)
	if err != nil {
		e.readErrors.Inc()
		return err
	}
	e.temperature = float64(temp)
	e.humidity = float64(hum)
	e.refreshed = e.now()
	slog.Debug("sensor refreshed", "temperature", temp, "humidity", hum)
	return nil
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func round(x float64, prec int) float64 {
	pow := math.Pow10(prec)
	return math.Round(x*pow) / pow
}
