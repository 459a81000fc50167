package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/hdc1080/cmd/hdc1080/console"
	"github.com/mklimuk/hdc1080/environment"
	"github.com/mklimuk/hdc1080/snsctx"
)

var readCmd = cli.Command{
	Name:  "read",
	Usage: "read temperature and humidity",
	Flags: append(busFlags(),
		&cli.BoolFlag{
			Name:  "single",
			Usage: "trigger temperature and humidity separately",
		},
		&cli.BoolFlag{
			Name:    "watch",
			Aliases: []string{"w"},
			Usage:   "keep reading until interrupted",
		},
		&cli.DurationFlag{
			Name:  "interval",
			Value: 2 * time.Second,
		},
	),
	Action: func(c *cli.Context) error {
		ctx := snsctx.SetVerbose(c.Context, c.Bool("verbose"))
		sensor, closeBus, err := openSensor(ctx, c)
		if err != nil {
			return console.Exit(console.ExitSensorError, "sensor initialization error: %s", console.Red(err))
		}
		defer closeBus()

		read := sensor.GetTempAndHum
		if c.Bool("single") {
			read = singleReads(sensor)
		}
		if !c.Bool("watch") {
			temp, hum, err := read(ctx)
			if err != nil {
				return console.Exit(console.ExitSensorError, "error getting sensor read: %s", console.Red(err))
			}
			printReading(temp, hum)
			return nil
		}

		ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
		defer stop()
		ticker := time.NewTicker(c.Duration("interval"))
		defer ticker.Stop()
		for {
			temp, hum, err := read(ctx)
			if err != nil {
				console.Errorf("error getting sensor read: %s", console.Red(err))
			} else {
				printReading(temp, hum)
			}
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	},
}

func singleReads(sensor *environment.HDC1080) func(ctx context.Context) (float32, float32, error) {
	return func(ctx context.Context) (float32, float32, error) {
		temp, err := sensor.GetTemperature(ctx)
		if err != nil {
			return 0, 0, err
		}
		hum, err := sensor.GetHumidity(ctx)
		if err != nil {
			return 0, 0, err
		}
		return temp, hum, nil
	}
}

func printReading(temp, hum float32) {
	console.Printf("%s  %s\n%s %s\n",
		console.PictoThermometer, console.White(fmt.Sprintf("%.2f°C", temp)),
		console.PictoHumidity, console.White(fmt.Sprintf("%.2f%%RH", hum)))
}
