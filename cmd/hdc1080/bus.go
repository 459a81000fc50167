package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v2"
	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/hdc1080"
	"github.com/mklimuk/hdc1080/adapter"
	"github.com/mklimuk/hdc1080/cmd/hdc1080/console"
	"github.com/mklimuk/hdc1080/environment"
	"github.com/mklimuk/hdc1080/i2c"
)

const (
	adapterMCP2221 = "mcp2221"
	adapterGeneric = "generic"
	adapterNanoPi  = "nanopi"
)

func busFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "adapter",
			Aliases: []string{"a"},
			Value:   adapterMCP2221,
			Usage:   "bus adapter: mcp2221, generic or nanopi",
		},
		&cli.StringFlag{
			Name:    "device",
			Aliases: []string{"d"},
			Value:   "/dev/i2c-1",
			Usage:   "i2c device used by the generic adapter",
		},
		&cli.IntFlag{
			Name:  "bus",
			Value: 0,
			Usage: "i2c bus number used by the nanopi adapter",
		},
		&cli.IntFlag{
			Name:  "speed-khz",
			Value: 100,
			Usage: "bus clock used by the generic adapter",
		},
		&cli.IntFlag{
			Name:  "index",
			Value: -1,
			Usage: "MCP2221 device index when several adapters are connected",
		},
		&cli.StringFlag{
			Name:  "addr",
			Value: fmt.Sprintf("%#x", environment.HDC1080DefaultAddress),
			Usage: "sensor i2c address",
		},
	}
}

func parseAddress(s string) (byte, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q: %w", s, err)
	}
	if v > 0x7F {
		return 0, fmt.Errorf("invalid address %q: not a 7-bit address", s)
	}
	return byte(v), nil
}

func mcp2221FromFlags(c *cli.Context) *adapter.MCP2221 {
	return adapter.NewMCP2221(adapter.WithDeviceIndex(c.Int("index")))
}

// openBus returns the bus selected by the adapter flag and a function
// releasing it.
func openBus(c *cli.Context) (hdc1080.I2CBus, func(), error) {
	switch name := c.String("adapter"); name {
	case adapterMCP2221:
		return mcp2221FromFlags(c), func() {}, nil
	case adapterGeneric:
		bus, err := i2c.NewGenericBus(c.String("device"))
		if err != nil {
			return nil, nil, err
		}
		closeBus := func() {
			if err := bus.Close(); err != nil {
				console.Errorf("error closing bus: %s", console.Red(err))
			}
		}
		if err := bus.SetSpeed(physic.Frequency(c.Int("speed-khz")) * physic.KiloHertz); err != nil {
			console.Warnf("%s", err)
		}
		return bus, closeBus, nil
	case adapterNanoPi:
		npi := nanopi.NewNeoAdaptor()
		if err := npi.I2cBusAdaptor.Connect(); err != nil {
			return nil, nil, fmt.Errorf("adaptor connect error: %w", err)
		}
		bus := i2c.NewGobotBus(npi, c.Int("bus"))
		closeBus := func() {
			if err := bus.Close(); err != nil {
				console.Errorf("error closing bus: %s", console.Red(err))
			}
			if err := npi.I2cBusAdaptor.Finalize(); err != nil {
				console.Errorf("error finalizing adaptor: %s", console.Red(err))
			}
		}
		return bus, closeBus, nil
	default:
		return nil, nil, fmt.Errorf("unknown adapter %q", name)
	}
}

func openSensor(ctx context.Context, c *cli.Context) (*environment.HDC1080, func(), error) {
	addr, err := parseAddress(c.String("addr"))
	if err != nil {
		return nil, nil, err
	}
	bus, closeBus, err := openBus(c)
	if err != nil {
		return nil, nil, err
	}
	sensor, err := environment.NewHDC1080(ctx, bus, environment.WithAddress(addr))
	if err != nil {
		closeBus()
		return nil, nil, err
	}
	return sensor, closeBus, nil
}
