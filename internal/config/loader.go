package config

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader merges defaults, an optional config file and explicitly set
// command line flags, in that order of precedence. Keys are the flag
// names, which are also the mapstructure tags of the target struct.
type Loader struct {
	flags      *pflag.FlagSet
	configFile string
	defaults   map[string]any
	strictMode bool
}

// NewLoader creates a Loader reading explicit values from flags.
func NewLoader(flags *pflag.FlagSet) *Loader {
	return &Loader{
		flags:    flags,
		defaults: make(map[string]any),
	}
}

// SetConfigFile sets the configuration file path. Empty means none.
func (l *Loader) SetConfigFile(path string) {
	l.configFile = path
}

// SetDefaults sets default values for configuration keys.
func (l *Loader) SetDefaults(defaults map[string]any) {
	for k, v := range defaults {
		l.defaults[k] = v
	}
}

// SetStrictMode makes unknown keys in the config file an error.
func (l *Loader) SetStrictMode(strict bool) {
	l.strictMode = strict
}

// Load populates target, which must be a pointer to a struct.
func (l *Loader) Load(target any) error {
	v := viper.New()

	for key, value := range l.defaults {
		v.SetDefault(key, value)
	}

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("%w %s: %v", ErrConfigFileRead, l.configFile, err)
		}
	}

	// Only flags the user actually set override the file.
	if l.flags != nil {
		l.flags.Visit(func(f *pflag.Flag) {
			// Flags without a default, like --print-state, belong to the
			// command rather than the config.
			if _, known := l.defaults[f.Name]; len(l.defaults) > 0 && !known {
				return
			}
			if sv, ok := f.Value.(pflag.SliceValue); ok {
				v.Set(f.Name, sv.GetSlice())
				return
			}
			v.Set(f.Name, f.Value.String())
		})
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "mapstructure",
		ErrorUnused:      l.strictMode,
		WeaklyTypedInput: true,
		ZeroFields:       true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return fmt.Errorf("%w: create decoder: %v", ErrConfigUnmarshal, err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		msg := err.Error()
		if l.configFile != "" && strings.Contains(msg, "has invalid keys:") {
			msg = fmt.Sprintf("%s (in %s)", msg, l.configFile)
		}
		return fmt.Errorf("%w: %s", ErrConfigUnmarshal, msg)
	}
	return nil
}

// ToMap flattens a tagged struct into loader defaults.
func ToMap(src any) (map[string]any, error) {
	out := make(map[string]any)
	if err := mapstructure.Decode(src, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigUnmarshal, err)
	}
	return out, nil
}
