// Package config holds the settings shared by the gpio-scope commands
// and loads them from defaults, a config file and flags.
package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/pflag"

	"github.com/sweeney/gpio-scope/internal/gpio"
	"github.com/sweeney/gpio-scope/internal/logging"
)

// Config is the full set of options. Console-only runs ignore the
// HTTP, MQTT and select-device settings.
type Config struct {
	ConfigFile   string        `mapstructure:"config-file"`
	Pins         []string      `mapstructure:"pins"`
	DefaultPin   string        `mapstructure:"default-pin"`
	Interval     time.Duration `mapstructure:"interval"`
	Backend      string        `mapstructure:"backend"`
	SysfsRoot    string        `mapstructure:"sysfs-root"`
	Fallback     int           `mapstructure:"fallback"`
	Chip         string        `mapstructure:"chip"`
	ChipBase     int           `mapstructure:"chip-base"`
	SelectDevice string        `mapstructure:"select-device"`
	HTTP         string        `mapstructure:"http"`
	Broker       string        `mapstructure:"broker"`
	Heartbeat    time.Duration `mapstructure:"heartbeat"`
	Debounce     time.Duration `mapstructure:"debounce"`
	Bare         bool          `mapstructure:"bare"`
	LogLevel     string        `mapstructure:"log-level"`
}

// Defaults returns a Config selecting among pins, with the first pin
// as the default.
func Defaults(pins ...string) Config {
	c := Config{
		Pins:      pins,
		Interval:  200 * time.Millisecond,
		Backend:   gpio.BackendSysfs,
		SysfsRoot: gpio.DefaultSysfsRoot,
		Fallback:  gpio.DefaultFallback,
		Chip:      "gpiochip0",
		ChipBase:  512,
		HTTP:      ":8080",
		LogLevel:  "info",
	}
	if len(pins) > 0 {
		c.DefaultPin = pins[0]
	}
	return c
}

// AddFlags registers the options every command understands.
func (c *Config) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.ConfigFile, "config-file", c.ConfigFile, "Config file (toml, yaml or json)")
	fs.StringSliceVar(&c.Pins, "pins", c.Pins, "Selectable GPIO numbers")
	fs.StringVar(&c.DefaultPin, "default-pin", c.DefaultPin, "Pin selected at startup")
	fs.DurationVar(&c.Interval, "interval", c.Interval, "Sampling interval")
	fs.StringVar(&c.Backend, "backend", c.Backend, "GPIO backend: sysfs, cdev or periph")
	fs.StringVar(&c.SysfsRoot, "sysfs-root", c.SysfsRoot, "Root of the sysfs GPIO tree")
	fs.IntVar(&c.Fallback, "fallback", c.Fallback, "Value reported when a pin file is missing")
	fs.StringVar(&c.Chip, "chip", c.Chip, "GPIO character device for the cdev backend")
	fs.IntVar(&c.ChipBase, "chip-base", c.ChipBase, "Sysfs number of line 0 on the chip")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level: trace, debug, info, warn, error")
}

// AddPlotFlags registers the options only the chart server uses.
func (c *Config) AddPlotFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.SelectDevice, "select-device", c.SelectDevice, "Device told about pin switches (empty disables)")
	fs.StringVar(&c.HTTP, "http", c.HTTP, "HTTP listen address")
	fs.StringVar(&c.Broker, "broker", c.Broker, "MQTT broker URL (empty disables MQTT)")
	fs.DurationVar(&c.Heartbeat, "heartbeat", c.Heartbeat, "MQTT heartbeat interval (0 disables)")
	fs.DurationVar(&c.Debounce, "debounce", c.Debounce, "Edge debounce duration")
	fs.BoolVar(&c.Bare, "bare", c.Bare, "Plain chart of the default pin, no controls")
}

// Load parses args into fs, then merges defaults, the config file and
// the flags the user set into c. c must hold the defaults on entry and
// its flags must already be registered on fs.
func Load(fs *pflag.FlagSet, args []string, c *Config) error {
	defaults, err := ToMap(*c)
	if err != nil {
		return err
	}
	// Unless a flag or the file names it, the default pin follows the
	// loaded pin list rather than the compiled-in one.
	delete(defaults, "default-pin")
	c.DefaultPin = ""
	if err := fs.Parse(args); err != nil {
		return err
	}

	l := NewLoader(fs)
	l.SetDefaults(defaults)
	l.SetConfigFile(c.ConfigFile)
	l.SetStrictMode(true)
	if err := l.Load(c); err != nil {
		return err
	}
	if c.DefaultPin == "" && len(c.Pins) > 0 {
		c.DefaultPin = c.Pins[0]
	}
	return c.Validate()
}

// Validate checks the settings for consistency.
func (c *Config) Validate() error {
	if len(c.Pins) == 0 {
		return ErrNoPins
	}
	found := false
	for _, p := range c.Pins {
		if n, err := strconv.Atoi(p); err != nil || n < 0 {
			return fmt.Errorf("%w: %q", ErrBadPin, p)
		}
		if p == c.DefaultPin {
			found = true
		}
	}
	if !found {
		return fmt.Errorf("%w: %q", ErrDefaultPin, c.DefaultPin)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("%w: %s", ErrBadInterval, c.Interval)
	}
	if c.Fallback != 0 && c.Fallback != 1 {
		return fmt.Errorf("%w: %d", ErrBadFallback, c.Fallback)
	}
	switch c.Backend {
	case gpio.BackendSysfs, gpio.BackendCdev, gpio.BackendPeriph:
	default:
		return fmt.Errorf("%w: %q", ErrBadBackend, c.Backend)
	}
	if c.Debounce < 0 || c.Heartbeat < 0 {
		return ErrNegativeTiming
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ReaderOptions returns the gpio backend settings.
func (c *Config) ReaderOptions() gpio.Options {
	return gpio.Options{
		Backend:   c.Backend,
		SysfsRoot: c.SysfsRoot,
		Fallback:  c.Fallback,
		Chip:      c.Chip,
		ChipBase:  c.ChipBase,
	}
}
