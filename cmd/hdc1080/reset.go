package main

import (
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/hdc1080/cmd/hdc1080/console"
	"github.com/mklimuk/hdc1080/snsctx"
)

var resetCmd = cli.Command{
	Name:  "reset",
	Usage: "software reset of the sensor",
	Flags: append(busFlags(),
		&cli.BoolFlag{
			Name:    "yes",
			Aliases: []string{"y"},
			Usage:   "do not ask for confirmation",
		},
	),
	Action: func(c *cli.Context) error {
		if !c.Bool("yes") {
			ok, err := console.Confirm("reset the sensor configuration?")
			if err != nil {
				return console.Exit(console.ExitFailure, "prompt error: %s", console.Red(err))
			}
			if !ok {
				console.PInfof(console.PictoStop, "reset cancelled")
				return nil
			}
		}
		ctx := snsctx.SetVerbose(c.Context, c.Bool("verbose"))
		sensor, closeBus, err := openSensor(ctx, c)
		if err != nil {
			return console.Exit(console.ExitSensorError, "sensor initialization error: %s", console.Red(err))
		}
		defer closeBus()
		if err := sensor.Reset(ctx); err != nil {
			return console.Exit(console.ExitSensorError, "reset failed: %s", console.Red(err))
		}
		console.PInfof(console.PictoGear, "sensor %s reset", console.Green(c.String("addr")))
		return nil
	},
}
