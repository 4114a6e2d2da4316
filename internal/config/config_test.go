package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func load(t *testing.T, args ...string) (Config, error) {
	t.Helper()
	c := Defaults("538", "539")
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	c.AddFlags(fs)
	c.AddPlotFlags(fs)
	err := Load(fs, args, &c)
	return c, err
}

func TestLoadDefaults(t *testing.T) {
	c, err := load(t)
	require.NoError(t, err)

	assert.Equal(t, []string{"538", "539"}, c.Pins)
	assert.Equal(t, "538", c.DefaultPin)
	assert.Equal(t, 200*time.Millisecond, c.Interval)
	assert.Equal(t, "sysfs", c.Backend)
	assert.Equal(t, "/sys/class/gpio", c.SysfsRoot)
	assert.Equal(t, ":8080", c.HTTP)
	assert.Empty(t, c.Broker)
	assert.False(t, c.Bare)
}

func TestLoadFlags(t *testing.T) {
	c, err := load(t,
		"--pins", "538,539,540",
		"--default-pin", "540",
		"--interval", "50ms",
		"--bare",
		"--broker", "tcp://localhost:1883",
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"538", "539", "540"}, c.Pins)
	assert.Equal(t, "540", c.DefaultPin)
	assert.Equal(t, 50*time.Millisecond, c.Interval)
	assert.True(t, c.Bare)
	assert.Equal(t, "tcp://localhost:1883", c.Broker)
}

func TestLoadPinsWithoutDefaultPin(t *testing.T) {
	c, err := load(t, "--pins", "17,27")
	require.NoError(t, err)
	assert.Equal(t, []string{"17", "27"}, c.Pins)
	assert.Equal(t, "17", c.DefaultPin)

	path := writeFile(t, "scope.toml", "pins = [\"22\", \"23\"]\n")
	c, err = load(t, "--config-file", path)
	require.NoError(t, err)
	assert.Equal(t, "22", c.DefaultPin)

	// A file's default pin still wins over the derived one.
	path = writeFile(t, "scope.toml", "pins = [\"22\", \"23\"]\ndefault-pin = \"23\"\n")
	c, err = load(t, "--config-file", path, "--pins", "23,24")
	require.NoError(t, err)
	assert.Equal(t, "23", c.DefaultPin)
}

func TestLoadFilePrecedence(t *testing.T) {
	path := writeFile(t, "scope.toml", `
pins = ["17", "27"]
default-pin = "27"
interval = "1s"
http = ":9000"
heartbeat = "30s"
`)

	c, err := load(t, "--config-file", path, "--http", ":9100")
	require.NoError(t, err)

	// File beats defaults; a shorter list replaces the default list.
	assert.Equal(t, []string{"17", "27"}, c.Pins)
	assert.Equal(t, "27", c.DefaultPin)
	assert.Equal(t, time.Second, c.Interval)
	assert.Equal(t, 30*time.Second, c.Heartbeat)
	// Explicit flag beats file.
	assert.Equal(t, ":9100", c.HTTP)
	// Untouched keys keep defaults.
	assert.Equal(t, "sysfs", c.Backend)
	assert.Equal(t, path, c.ConfigFile)
}

func TestLoadYAMLFile(t *testing.T) {
	path := writeFile(t, "scope.yaml", "backend: cdev\nchip-base: 0\nfallback: 1\n")

	c, err := load(t, "--config-file", path)
	require.NoError(t, err)
	assert.Equal(t, "cdev", c.Backend)
	assert.Equal(t, 0, c.ChipBase)
	assert.Equal(t, 1, c.Fallback)
}

func TestLoadUnknownKey(t *testing.T) {
	path := writeFile(t, "scope.toml", "pinz = [\"1\"]\n")

	_, err := load(t, "--config-file", path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfigUnmarshal))
	assert.Contains(t, err.Error(), "pinz")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := load(t, "--config-file", filepath.Join(t.TempDir(), "nope.toml"))
	assert.ErrorIs(t, err, ErrConfigFileRead)
}

func TestLoadBadFlag(t *testing.T) {
	_, err := load(t, "--interval", "soon")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"no pins", func(c *Config) { c.Pins = nil }, ErrNoPins},
		{"bad pin", func(c *Config) { c.Pins = []string{"538", "x"} }, ErrBadPin},
		{"default not listed", func(c *Config) { c.DefaultPin = "540" }, ErrDefaultPin},
		{"zero interval", func(c *Config) { c.Interval = 0 }, ErrBadInterval},
		{"fallback", func(c *Config) { c.Fallback = 2 }, ErrBadFallback},
		{"backend", func(c *Config) { c.Backend = "rpio" }, ErrBadBackend},
		{"negative debounce", func(c *Config) { c.Debounce = -time.Second }, ErrNegativeTiming},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Defaults("538", "539")
			tt.modify(&c)
			assert.ErrorIs(t, c.Validate(), tt.want)
		})
	}

	c := Defaults("538", "539")
	c.LogLevel = "shouty"
	assert.Error(t, c.Validate())

	ok := Defaults("538", "539")
	assert.NoError(t, ok.Validate())
}

func TestReaderOptions(t *testing.T) {
	c := Defaults("538")
	c.Backend = "cdev"
	c.Chip = "gpiochip4"

	opts := c.ReaderOptions()
	assert.Equal(t, "cdev", opts.Backend)
	assert.Equal(t, "gpiochip4", opts.Chip)
	assert.Equal(t, 512, opts.ChipBase)
}

func TestToMap(t *testing.T) {
	m, err := ToMap(Defaults("538"))
	require.NoError(t, err)
	assert.Equal(t, "538", m["default-pin"])
	assert.Equal(t, 200*time.Millisecond, m["interval"])
}

func TestLoadIgnoresCommandFlags(t *testing.T) {
	c := Defaults("538")
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	c.AddFlags(fs)
	printState := fs.Bool("print-state", false, "")

	require.NoError(t, Load(fs, []string{"--print-state"}, &c))
	assert.True(t, *printState)
}
