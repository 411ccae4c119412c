package main

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/urfave/cli"

	m24c32 "github.com/systronix/Systronix-M24C32"
)

type config struct {
	Bus     m24c32.BusConfig
	Base    m24c32.Addr7
	Name    string
	Variant m24c32.Config

	Sim      bool
	SimImage string

	Stats bool
}

var variants = map[string]m24c32.Config{
	"m24c32":   m24c32.ConfM24C32,
	"m24c32-x": m24c32.ConfM24C32X,
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("bus.name", "")
	v.SetDefault("bus.frequency", "")
	v.SetDefault("bus.timeout", m24c32.DefaultTimeout)
	v.SetDefault("device.base", int(m24c32.BaseMin))
	v.SetDefault("device.name", "i2c")
	v.SetDefault("device.variant", "m24c32")
	v.SetDefault("log.level", "info")
	v.SetDefault("sim.enabled", false)
	v.SetDefault("sim.image", "m24c32.sim")

	v.SetEnvPrefix("m24c32")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	return v
}

// loadConfig reads the config file, then lets global flags override it.
func loadConfig(c *cli.Context) (*config, error) {
	v := newViper()

	if f := c.GlobalString("config"); f != "" {
		v.SetConfigFile(f)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config %s", f)
		}
	}

	if c.GlobalIsSet("bus") {
		v.Set("bus.name", c.GlobalString("bus"))
	}
	if c.GlobalIsSet("base") {
		v.Set("device.base", c.GlobalString("base"))
	}
	if c.GlobalBool("sim") {
		v.Set("sim.enabled", true)
	}
	if c.GlobalBool("debug") {
		v.Set("log.level", "debug")
	}

	return parseConfig(v, c.GlobalBool("stats"))
}

func parseConfig(v *viper.Viper, stats bool) (*config, error) {
	cfg := &config{
		Name:     v.GetString("device.name"),
		Sim:      v.GetBool("sim.enabled"),
		SimImage: v.GetString("sim.image"),
		Stats:    stats,
	}

	lvl, err := log.ParseLevel(v.GetString("log.level"))
	if err != nil {
		return nil, errors.Wrap(err, "log.level")
	}
	log.SetLevel(lvl)

	cfg.Bus.Bus = v.GetString("bus.name")
	cfg.Bus.Timeout = v.GetDuration("bus.timeout")
	if f := v.GetString("bus.frequency"); f != "" {
		if err := cfg.Bus.Freq.Set(f); err != nil {
			return nil, errors.Wrapf(err, "bus.frequency %q", f)
		}
	}

	base := v.GetUint("device.base")
	if base > 0x7f || !m24c32.Addr7(base).Valid() {
		return nil, errors.Errorf("device.base %#x: must be between %v and %v", base, m24c32.BaseMin, m24c32.BaseMax)
	}
	cfg.Base = m24c32.Addr7(base)

	name := strings.ToLower(v.GetString("device.variant"))
	conf, ok := variants[name]
	if !ok {
		return nil, errors.Errorf("device.variant %q: unknown", name)
	}
	cfg.Variant = conf

	return cfg, nil
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }
