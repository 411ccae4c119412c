package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	"gopkg.in/yaml.v3"

	m24c32 "github.com/systronix/Systronix-M24C32"
	"github.com/systronix/Systronix-M24C32/internal/image"
	"github.com/systronix/Systronix-M24C32/periphwire"
	"github.com/systronix/Systronix-M24C32/sim"
)

func commands() []cli.Command {
	addrFlag := cli.StringFlag{
		Name:  "addr, a",
		Value: "0",
		Usage: "memory `ADDRESS`, 0x000 to 0xfff",
	}

	return []cli.Command{
		{
			Name:   "ping",
			Usage:  "check that the device answers",
			Action: withDevice(ping),
		},
		{
			Name:  "read",
			Usage: "hex dump a range",
			Flags: []cli.Flag{
				addrFlag,
				cli.IntFlag{Name: "len, n", Value: 32, Usage: "number of bytes"},
			},
			Action: withDevice(read),
		},
		{
			Name:   "current",
			Usage:  "read one byte at the device's address pointer",
			Action: withDevice(current),
		},
		{
			Name:      "write",
			Usage:     "write hex bytes at an address",
			ArgsUsage: "HEX",
			Flags:     []cli.Flag{addrFlag},
			Action:    withDevice(write),
		},
		{
			Name:      "dump",
			Usage:     "save the whole array to a file",
			ArgsUsage: "FILE",
			Action:    withDevice(dump),
		},
		{
			Name:      "load",
			Usage:     "write a file at an address",
			ArgsUsage: "FILE",
			Flags:     []cli.Flag{addrFlag},
			Action:    withDevice(load),
		},
	}
}

type action func(c *cli.Context, d *m24c32.Device) error

// withDevice opens the configured bus, brings the device up and runs fn.
func withDevice(fn action) func(c *cli.Context) error {
	return func(c *cli.Context) error {
		log.SetFormatter(&log.TextFormatter{DisableColors: true})

		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}

		wire, closeWire, err := openWire(cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := closeWire(); err != nil {
				log.WithError(err).Error("close bus")
			}
		}()

		d := m24c32.New(cfg.Variant)
		if err := d.Setup(cfg.Base, wire, cfg.Name); err != nil {
			return errors.Wrapf(err, "setup at %v", cfg.Base)
		}
		if err := d.Begin(cfg.Bus); err != nil {
			return errors.Wrap(err, "bring up bus")
		}

		err = d.Init()
		if err == nil {
			err = fn(c, d)
		} else {
			err = errors.Wrapf(err, "no eeprom at %v", cfg.Base)
		}

		if cfg.Stats {
			if err := printStats(os.Stdout, d.Stats()); err != nil {
				log.WithError(err).Error("print stats")
			}
		}
		return err
	}
}

// openWire returns the transport and a function releasing it.
func openWire(cfg *config) (m24c32.Wire, func() error, error) {
	if !cfg.Sim {
		w, err := periphwire.Open(cfg.Bus.Bus)
		if err != nil {
			return nil, nil, err
		}
		return w, w.Close, nil
	}

	bus := sim.New(cfg.Base, cfg.Variant.WriteCycle, wallClock{})
	if b, err := os.ReadFile(cfg.SimImage); err == nil {
		copy(bus.Mem[:], b)
	} else if !os.IsNotExist(err) {
		return nil, nil, errors.Wrap(err, "read sim image")
	}

	save := func() error {
		return os.WriteFile(cfg.SimImage, bus.Mem[:], 0o644)
	}
	log.WithField("image", cfg.SimImage).Debug("using simulated eeprom")
	return bus, save, nil
}

func printStats(w io.Writer, s m24c32.Stats) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(s)
}

func parseAddr(s string) (uint16, error) {
	a, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, errors.Wrapf(err, "address %q", s)
	}
	return uint16(a), nil
}

func ping(c *cli.Context, d *m24c32.Device) error {
	fmt.Printf("eeprom present at %v on %s\n", d.Base(), d.Name())
	return nil
}

func read(c *cli.Context, d *m24c32.Device) error {
	a, err := parseAddr(c.String("addr"))
	if err != nil {
		return err
	}

	b, err := image.Dump(d, a, c.Int("len"))
	if err != nil {
		return err
	}

	fmt.Print(hex.Dump(b))
	return nil
}

func current(c *cli.Context, d *m24c32.Device) error {
	b, err := d.ReadCurrent()
	if err != nil {
		return errors.Wrap(err, "current address read")
	}

	fmt.Printf("%#02x\n", b)
	return nil
}

func write(c *cli.Context, d *m24c32.Device) error {
	a, err := parseAddr(c.String("addr"))
	if err != nil {
		return err
	}

	arg := strings.Join(c.Args(), "")
	b, err := hex.DecodeString(strings.TrimPrefix(arg, "0x"))
	if err != nil {
		return errors.Wrap(err, "data")
	}
	if len(b) == 0 {
		return errors.New("nothing to write")
	}

	_, err = image.Load(d, a, b)
	return err
}

func dump(c *cli.Context, d *m24c32.Device) error {
	if c.NArg() != 1 {
		return errors.New("dump needs an output file")
	}

	b, err := image.Dump(d, 0, int(d.Config().Size))
	if err != nil {
		return err
	}

	return errors.Wrap(os.WriteFile(c.Args().First(), b, 0o644), "write dump")
}

func load(c *cli.Context, d *m24c32.Device) error {
	if c.NArg() != 1 {
		return errors.New("load needs an input file")
	}

	a, err := parseAddr(c.String("addr"))
	if err != nil {
		return err
	}

	b, err := os.ReadFile(c.Args().First())
	if err != nil {
		return errors.Wrap(err, "read image")
	}

	n, err := image.Load(d, a, b)
	if err != nil {
		return errors.Wrapf(err, "loaded %d of %d bytes", n, len(b))
	}

	log.WithFields(log.Fields{"bytes": n, "addr": fmt.Sprintf("%#04x", a)}).Info("loaded")
	return nil
}
