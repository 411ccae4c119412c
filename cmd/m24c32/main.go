// Command m24c32 reads, writes and probes an M24C32 EEPROM on an I2C bus.
//
// Usage:
//
//	m24c32 [global flags] <command> [flags] [args]
//
// Commands:
//
//	ping      check that the device answers
//	read      hex dump a range
//	current   read one byte at the device's address pointer
//	write     write hex bytes at an address
//	dump      save the whole array to a file
//	load      write a file at an address
//
// With --sim the commands run against a simulated device whose memory is
// kept in the file named by sim.image.
package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()

	app.Name = "m24c32"
	app.Usage = "access an M24C32 serial EEPROM"
	app.Version = "0.1.0"

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Usage: "load configuration from `FILE`",
		},
		cli.StringFlag{
			Name:  "bus, b",
			Usage: "I2C bus `NAME`, empty for the first one found",
		},
		cli.StringFlag{
			Name:  "base",
			Usage: "7 bit slave `ADDRESS`, 0x50 to 0x57",
		},
		cli.BoolFlag{
			Name:  "sim",
			Usage: "run against a simulated device",
		},
		cli.BoolFlag{
			Name:  "stats",
			Usage: "print the transaction tally as YAML when done",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "enable debug logging",
		},
	}

	app.Commands = commands()

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
