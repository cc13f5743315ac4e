// Package schedconfig holds the scheduler's run configuration (C11) and its
// file/flag merge, via github.com/spf13/viper.
package schedconfig

import (
	"math"

	"github.com/spf13/viper"

	"github.com/LeeOHzzZ/HMCOS/internal/herrors"
)

// DefaultBudget is the unbounded-in-practice budget used when neither a
// config file nor a CLI flag sets one.
const DefaultBudget = uint64(math.MaxInt64 / 2)

// Config is the full set of knobs the CLI accepts, either from a YAML/JSON
// file via --config or from flags, with flags taking precedence.
type Config struct {
	Budget                 uint64   `mapstructure:"budget"`
	OverlapEligibleOpTypes []string `mapstructure:"overlap_eligible_op_types"`
	LogLevel               string   `mapstructure:"log_level"`
	OutDir                 string   `mapstructure:"out_dir"`
	EnableViz              bool     `mapstructure:"enable_viz"`
}

// Defaults returns a Config with every field at its conservative default:
// unbounded budget, no overlap-eligible types, info-level logging, and viz
// disabled.
func Defaults() Config {
	return Config{
		Budget:                 DefaultBudget,
		OverlapEligibleOpTypes: nil,
		LogLevel:               "info",
		OutDir:                 ".",
		EnableViz:              false,
	}
}

// OverlapEligibleSet converts OverlapEligibleOpTypes into the
// map[string]bool lifetime.OverlapInput and sched.HierarchicalSchedule
// expect.
func (c Config) OverlapEligibleSet() map[string]bool {
	if len(c.OverlapEligibleOpTypes) == 0 {
		return nil
	}
	set := make(map[string]bool, len(c.OverlapEligibleOpTypes))
	for _, t := range c.OverlapEligibleOpTypes {
		set[t] = true
	}
	return set
}

// Load builds a Config starting from Defaults, merging in configPath (if
// non-empty) and then the values already bound onto v (flags), which take
// precedence over the file.
func Load(configPath string, v *viper.Viper) (Config, error) {
	cfg := Defaults()
	v.SetDefault("budget", cfg.Budget)
	v.SetDefault("overlap_eligible_op_types", cfg.OverlapEligibleOpTypes)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("out_dir", cfg.OutDir)
	v.SetDefault("enable_viz", cfg.EnableViz)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, herrors.Wrap(herrors.KindSchema, err, "reading config file %q", configPath)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, herrors.Wrap(herrors.KindSchema, err, "parsing config")
	}
	return cfg, nil
}
