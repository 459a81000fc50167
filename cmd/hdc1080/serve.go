package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/hdc1080/cmd/hdc1080/console"
	"github.com/mklimuk/hdc1080/environment"
	"github.com/mklimuk/hdc1080/exporter"
	"github.com/mklimuk/hdc1080/snsctx"
)

var serveCmd = cli.Command{
	Name:  "serve",
	Usage: "expose readings as prometheus metrics",
	Flags: append(busFlags(),
		&cli.StringFlag{
			Name:  "listen",
			Value: ":9120",
			Usage: "metrics listen address",
		},
		&cli.DurationFlag{
			Name:  "max-age",
			Value: time.Second,
			Usage: "how long a reading is reused between scrapes",
		},
		&cli.BoolFlag{
			Name:  "simulate",
			Usage: "serve simulated readings without hardware",
		},
	),
	Action: func(c *cli.Context) error {
		ctx := snsctx.SetVerbose(c.Context, c.Bool("verbose"))
		var sensor exporter.Sensor
		if c.Bool("simulate") {
			sensor = environment.NewSimulatedHDC1080(10*time.Minute, time.Now)
		} else {
			hdc, closeBus, err := openSensor(ctx, c)
			if err != nil {
				return console.Exit(console.ExitSensorError, "sensor initialization error: %s", console.Red(err))
			}
			defer closeBus()
			sensor = hdc
		}

		reg := prometheus.NewRegistry()
		reg.MustRegister(prometheus.NewGoCollector())
		reg.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
		exporter.New(sensor, exporter.WithMaxAge(c.Duration("max-age"))).Register(reg)

		mux := http.NewServeMux()
		mux.Handle("/metrics", exporter.Handler(reg))
		srv := &http.Server{
			Addr:              c.String("listen"),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Error("server shutdown error", "error", err)
			}
		}()

		slog.Info("serving metrics", "addr", srv.Addr, "simulate", c.Bool("simulate"))
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return console.Exit(console.ExitFailure, "server error: %s", console.Red(err))
		}
		return nil
	},
}
