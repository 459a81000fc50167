package main

import (
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/hdc1080/cmd/hdc1080/console"
	"github.com/mklimuk/hdc1080/environment"
	"github.com/mklimuk/hdc1080/snsctx"
)

var configCmd = cli.Command{
	Name:  "config",
	Usage: "inspect and change the sensor configuration register",
	Subcommands: cli.Commands{
		&configGetCmd,
		&configSetCmd,
		&configApplyCmd,
	},
}

var configGetCmd = cli.Command{
	Name:  "get",
	Flags: busFlags(),
	Action: func(c *cli.Context) error {
		ctx := snsctx.SetVerbose(c.Context, c.Bool("verbose"))
		sensor, closeBus, err := openSensor(ctx, c)
		if err != nil {
			return console.Exit(console.ExitSensorError, "sensor initialization error: %s", console.Red(err))
		}
		defer closeBus()
		settings, err := sensor.Settings(ctx)
		if err != nil {
			return console.Exit(console.ExitSensorError, "error reading configuration: %s", console.Red(err))
		}
		return printSettings(settings)
	},
}

var configSetCmd = cli.Command{
	Name: "set",
	Flags: append(busFlags(),
		&cli.StringFlag{
			Name:  "operation-mode",
			Usage: "temp-and-hum or temp-or-hum",
		},
		&cli.StringFlag{
			Name:  "temperature-resolution",
			Usage: "14bit or 11bit",
		},
		&cli.StringFlag{
			Name:  "humidity-resolution",
			Usage: "14bit, 11bit or 8bit",
		},
	),
	Action: func(c *cli.Context) error {
		ctx := snsctx.SetVerbose(c.Context, c.Bool("verbose"))
		sensor, closeBus, err := openSensor(ctx, c)
		if err != nil {
			return console.Exit(console.ExitSensorError, "sensor initialization error: %s", console.Red(err))
		}
		defer closeBus()
		settings, err := sensor.Settings(ctx)
		if err != nil {
			return console.Exit(console.ExitSensorError, "error reading configuration: %s", console.Red(err))
		}
		if err := overrideSettings(c, &settings); err != nil {
			return console.Exit(console.ExitUsage, "%s", console.Red(err))
		}
		if err := sensor.Apply(ctx, settings); err != nil {
			return console.Exit(console.ExitSensorError, "error writing configuration: %s", console.Red(err))
		}
		return printSettings(settings)
	},
}

var configApplyCmd = cli.Command{
	Name:      "apply",
	ArgsUsage: "FILE",
	Usage:     "apply settings from a YAML file",
	Flags:     busFlags(),
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return console.Exit(console.ExitUsage, "settings file required")
		}
		f, err := os.Open(c.Args().First())
		if err != nil {
			return console.Exit(console.ExitFailure, "could not open settings: %s", console.Red(err))
		}
		defer f.Close()
		settings, err := environment.LoadSettings(f)
		if err != nil {
			return console.Exit(console.ExitUsage, "%s", console.Red(err))
		}
		ctx := snsctx.SetVerbose(c.Context, c.Bool("verbose"))
		sensor, closeBus, err := openSensor(ctx, c)
		if err != nil {
			return console.Exit(console.ExitSensorError, "sensor initialization error: %s", console.Red(err))
		}
		defer closeBus()
		if err := sensor.Apply(ctx, settings); err != nil {
			return console.Exit(console.ExitSensorError, "error writing configuration: %s", console.Red(err))
		}
		console.PInfof(console.PictoGear, "configuration applied")
		return printSettings(settings)
	},
}

// overrideSettings replaces the values of the flags set on the command line.
func overrideSettings(c *cli.Context, settings *environment.Settings) error {
	if c.IsSet("operation-mode") {
		v, err := environment.ParseOperationMode(c.String("operation-mode"))
		if err != nil {
			return err
		}
		settings.OperationMode = v
	}
	if c.IsSet("temperature-resolution") {
		v, err := environment.ParseTemperatureResolution(c.String("temperature-resolution"))
		if err != nil {
			return err
		}
		settings.TemperatureResolution = v
	}
	if c.IsSet("humidity-resolution") {
		v, err := environment.ParseHumidityResolution(c.String("humidity-resolution"))
		if err != nil {
			return err
		}
		settings.HumidityResolution = v
	}
	return nil
}

func printSettings(settings environment.Settings) error {
	enc := yaml.NewEncoder(console.Writer())
	defer enc.Close()
	if err := enc.Encode(settings); err != nil {
		return console.Exit(console.ExitFailure, "encoding error: %s", console.Red(err))
	}
	return nil
}
